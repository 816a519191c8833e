package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port       string
	DBDSN      string
	LogFile    string
	BaseURL    string
	StripeKey  string
	TaxRatePct int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "jibie.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./jibie.log"
	}
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:" + port
	}
	// Reduced consumption-tax rate: this shop sells food.
	tax := 8
	if v := os.Getenv("TAX_RATE_PERCENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			tax = n
		}
	}

	cfg := Config{
		Port:       port,
		DBDSN:      dsn,
		LogFile:    logFile,
		BaseURL:    base,
		StripeKey:  os.Getenv("STRIPE_SECRET_KEY"),
		TaxRatePct: tax,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s BASE_URL=%s TAX_RATE_PERCENT=%d stripe=%v",
		cfg.Port, cfg.DBDSN, cfg.BaseURL, cfg.TaxRatePct, cfg.StripeKey != "")
	return cfg
}
