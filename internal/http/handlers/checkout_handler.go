package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/log"
	"github.com/shaido-san/jibie-ec/internal/repos"
	"github.com/shaido-san/jibie-ec/internal/services"
	"github.com/shaido-san/jibie-ec/internal/validate"
)

type CheckoutHandler struct {
	Cart    *services.CartService
	Order   *services.OrderService
	Addrs   *repos.AddressRepo
	BaseURL string
	// DirectCommit skips the external provider and commits synchronously
	// (no payment gateway configured).
	DirectCommit bool
}

// Review shows the cart with the user's saved addresses.
func (h *CheckoutHandler) Review(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.View(u.ID)
	if err != nil {
		log.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	if len(cv.Lines) == 0 {
		return c.Redirect("/cart")
	}
	addrs, err := h.Addrs.ListByUser(u.ID)
	if err != nil {
		log.Error(c, "checkout.addresses", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your addresses"})
	}
	return render(c, "checkout", fiber.Map{"Cart": cv, "Addresses": addrs})
}

// Start begins payment for the selected address. With a gateway wired it
// redirects to the hosted session; otherwise it commits directly.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	u := currentUser(c)
	addressID, ok := validate.ID(c.FormValue("addressId"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "addressId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing addressId")
	}

	if h.DirectCommit {
		orderID, err := h.Order.PlaceDirect(u.ID, addressID)
		if err != nil {
			return h.checkoutError(c, err)
		}
		log.Audit(c, "order.commit", map[string]any{"order_id": orderID, "direct": true})
		return c.Redirect("/order/" + orderID)
	}

	successURL := h.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.BaseURL + "/checkout/cancel"
	redirect, err := h.Order.StartCheckout(c.Context(), u.ID, addressID, successURL, cancelURL)
	if err != nil {
		return h.checkoutError(c, err)
	}
	log.Audit(c, "checkout.session.start", map[string]any{"address_id": addressID})
	return c.Redirect(redirect, fiber.StatusSeeOther)
}

// Success is the provider callback; duplicate deliveries land on the
// same order page without a second commit.
func (h *CheckoutHandler) Success(c *fiber.Ctx) error {
	sessionRef := c.Query("session_id")
	if sessionRef == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing session_id")
	}
	orderID, err := h.Order.Confirm(sessionRef)
	if err != nil {
		return h.checkoutError(c, err)
	}
	log.Audit(c, "order.commit", map[string]any{"order_id": orderID, "session_ref": sessionRef})
	return c.Redirect("/order/" + orderID)
}

func (h *CheckoutHandler) Cancel(c *fiber.Ctx) error {
	if sessionRef := c.Query("session_id"); sessionRef != "" {
		_ = h.Order.Cancel(sessionRef)
	}
	log.Info(c, "checkout.cancel", nil)
	return c.Redirect("/cart")
}

// checkoutError maps the order error kinds onto user-facing responses.
func (h *CheckoutHandler) checkoutError(c *fiber.Ctx, err error) error {
	var ise *domain.InsufficientStockError
	var pe *domain.PaymentProviderError
	switch {
	case errors.As(err, &ise):
		log.Info(c, "checkout.shortfall", map[string]any{"lines": len(ise.Shortfalls)})
		return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{
			"Message": "Some items in your cart are no longer in stock. Please review your cart and try again.",
		})
	case errors.Is(err, domain.ErrEmptyCart):
		return c.Redirect("/cart")
	case errors.Is(err, domain.ErrAddressNotFound):
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Please select a shipping address"})
	case errors.Is(err, domain.ErrForbidden):
		log.Security(c, "access.denied.address", nil)
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
	case errors.As(err, &pe):
		log.Error(c, "checkout.provider", err, nil)
		return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{
			"Message": "Payment could not be started. Please try again.",
		})
	case errors.Is(err, domain.ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Unknown payment session"})
	default:
		log.Error(c, "checkout.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
			"Message": "Something went wrong. Please try again.",
		})
	}
}
