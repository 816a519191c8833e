package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/config"
	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/http/handlers"
	"github.com/shaido-san/jibie-ec/internal/payment"
	"github.com/shaido-san/jibie-ec/internal/repos"
	"github.com/shaido-san/jibie-ec/internal/services"
)

type stubGateway struct{ calls int }

func (g *stubGateway) CreateSession(_ context.Context, items []payment.LineItem, successURL, cancelURL string) (payment.Session, error) {
	g.calls++
	return payment.Session{ID: "cs_stub_1", RedirectURL: "https://pay.example/cs_stub_1"}, nil
}

// Minimal app with the real checkout routes wired up.
func newCheckoutApp(t *testing.T, gw payment.Gateway) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", BaseURL: "http://localhost"}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	deps := handlers.NewDeps(db, cfg, authSvc, gw)
	app.Get("/cart", handlers.RequireUser(authSvc), deps.CartHandler.View)
	app.Post("/cart", handlers.RequireUser(authSvc), deps.CartHandler.Add)
	app.Post("/cart/remove", handlers.RequireUser(authSvc), deps.CartHandler.Remove)
	app.Get("/checkout", handlers.RequireUser(authSvc), deps.CheckoutHandler.Review)
	app.Post("/checkout", handlers.RequireUser(authSvc), deps.CheckoutHandler.Start)
	app.Get("/checkout/success", deps.CheckoutHandler.Success)
	app.Get("/checkout/cancel", deps.CheckoutHandler.Cancel)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)
	app.Get("/order/:id", handlers.RequireUser(authSvc), deps.OrderHandler.View)
	app.Get("/login", func(c *fiber.Ctx) error { return c.SendString("login") })

	return app, db
}

func loginAs(t *testing.T, db *sqlx.DB, sid, userID string) {
	t.Helper()
	if err := repos.NewUserRepo(db).BindSession(sid, userID); err != nil {
		t.Fatalf("bind session: %v", err)
	}
}

func seedCheckoutAddress(t *testing.T, db *sqlx.DB, id, userID string) {
	t.Helper()
	err := repos.NewAddressRepo(db).Create(domain.Address{
		ID: id, UserID: userID,
		PostalCode: "123-4567", Address: "1-2-3 Yamamachi, Gifu", Name: "Taro", Phone: "090-1234-5678",
	})
	if err != nil {
		t.Fatalf("seed address: %v", err)
	}
}

func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			return c.Value
		}
	}
	t.Fatal("csrf token missing")
	return ""
}

func postForm(t *testing.T, app *fiber.App, path, sid, tok, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader("csrf="+tok+"&"+body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getWithSID(t *testing.T, app *fiber.App, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCartRequiresLogin(t *testing.T) {
	app, _ := newCheckoutApp(t, nil)
	resp := getWithSID(t, app, "/cart", "")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected redirect to login, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected /login redirect, got %s", loc)
	}
}

func TestHostedCheckoutRoundTrip(t *testing.T) {
	gw := &stubGateway{}
	app, db := newCheckoutApp(t, gw)
	loginAs(t, db, "sid-taro", "u-taro")
	seedCheckoutAddress(t, db, "addr-1", "u-taro")
	tok := csrfToken(t, app)

	// Add two venison sets.
	resp := postForm(t, app, "/cart", "sid-taro", tok, "itemId=venison-set&qty=2")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("cart add: expected 302, got %d", resp.StatusCode)
	}

	// Start checkout: redirected to the hosted session.
	resp = postForm(t, app, "/checkout", "sid-taro", tok, "addressId=addr-1")
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("checkout start: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://pay.example/cs_stub_1" {
		t.Fatalf("unexpected redirect: %s", loc)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d", gw.calls)
	}

	// Provider success callback commits the order.
	resp = getWithSID(t, app, "/checkout/success?session_id=cs_stub_1", "")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("success callback: expected 302, got %d", resp.StatusCode)
	}
	orderLoc := resp.Header.Get("Location")
	if !strings.HasPrefix(orderLoc, "/order/") {
		t.Fatalf("expected order redirect, got %s", orderLoc)
	}

	// Duplicate callback lands on the same order.
	resp = getWithSID(t, app, "/checkout/success?session_id=cs_stub_1", "")
	if loc := resp.Header.Get("Location"); loc != orderLoc {
		t.Fatalf("duplicate callback redirected elsewhere: %s vs %s", loc, orderLoc)
	}

	var qty int
	if err := db.Get(&qty, `SELECT quantity FROM stocks WHERE item_id='venison-set'`); err != nil {
		t.Fatal(err)
	}
	if qty != 3 {
		t.Fatalf("stock decremented twice? qty=%d", qty)
	}
	var orders int
	if err := db.Get(&orders, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	if orders != 1 {
		t.Fatalf("expected one order, got %d", orders)
	}
}

func TestCheckoutEmptyCartRedirects(t *testing.T) {
	app, db := newCheckoutApp(t, &stubGateway{})
	loginAs(t, db, "sid-taro", "u-taro")
	seedCheckoutAddress(t, db, "addr-1", "u-taro")
	tok := csrfToken(t, app)

	resp := postForm(t, app, "/checkout", "sid-taro", tok, "addressId=addr-1")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/cart" {
		t.Fatalf("expected /cart redirect, got %s", loc)
	}
}

func TestCheckoutForeignAddressDenied(t *testing.T) {
	app, db := newCheckoutApp(t, &stubGateway{})
	loginAs(t, db, "sid-taro", "u-taro")
	seedCheckoutAddress(t, db, "addr-hanako", "u-hanako")
	tok := csrfToken(t, app)

	resp := postForm(t, app, "/cart", "sid-taro", tok, "itemId=venison-set&qty=1")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("cart add failed: %d", resp.StatusCode)
	}

	resp = postForm(t, app, "/checkout", "sid-taro", tok, "addressId=addr-hanako")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSuccessCallbackUnknownSession(t *testing.T) {
	app, _ := newCheckoutApp(t, &stubGateway{})
	resp := getWithSID(t, app, "/checkout/success?session_id=cs_nope", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestOrderHiddenFromOtherUsers(t *testing.T) {
	app, db := newCheckoutApp(t, nil)
	loginAs(t, db, "sid-taro", "u-taro")
	loginAs(t, db, "sid-hanako", "u-hanako")
	seedCheckoutAddress(t, db, "addr-1", "u-taro")
	tok := csrfToken(t, app)

	resp := postForm(t, app, "/cart", "sid-taro", tok, "itemId=venison-set&qty=1")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("cart add failed: %d", resp.StatusCode)
	}
	// Direct commit (no gateway configured).
	resp = postForm(t, app, "/checkout", "sid-taro", tok, "addressId=addr-1")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("direct checkout: expected 302, got %d", resp.StatusCode)
	}
	orderLoc := resp.Header.Get("Location")

	resp = getWithSID(t, app, orderLoc, "sid-hanako")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for foreign order, got %d", resp.StatusCode)
	}
	resp = getWithSID(t, app, orderLoc, "sid-taro")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("owner should see order, got %d", resp.StatusCode)
	}
}
