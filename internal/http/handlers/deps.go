package handlers

import (
	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/config"
	"github.com/shaido-san/jibie-ec/internal/payment"
	"github.com/shaido-san/jibie-ec/internal/repos"
	"github.com/shaido-san/jibie-ec/internal/services"
)

type Deps struct {
	AuthHandler     *AuthHandler
	ItemHandler     *ItemHandler
	CartHandler     *CartHandler
	AddressHandler  *AddressHandler
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, gw payment.Gateway) *Deps {
	itemRepo := repos.NewItemRepo(db)
	stockRepo := repos.NewStockRepo(db)
	cartRepo := repos.NewCartRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)

	cartSvc := services.NewCartService(cartRepo, itemRepo, stockRepo, cfg.TaxRatePct)
	stockSvc := services.NewStockService(cartRepo, stockRepo)
	orderSvc := services.NewOrderService(cartRepo, addrRepo, orderRepo, payRepo, stockSvc, gw, cfg.TaxRatePct)

	return &Deps{
		AuthHandler:    &AuthHandler{Auth: auth},
		ItemHandler:    &ItemHandler{Items: itemRepo, Stocks: stockRepo},
		CartHandler:    &CartHandler{Cart: cartSvc},
		AddressHandler: &AddressHandler{Addrs: addrRepo},
		CheckoutHandler: &CheckoutHandler{
			Cart: cartSvc, Order: orderSvc, Addrs: addrRepo,
			BaseURL: cfg.BaseURL, DirectCommit: gw == nil,
		},
		OrderHandler: &OrderHandler{Order: orderSvc},
	}
}
