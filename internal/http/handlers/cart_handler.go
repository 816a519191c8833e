package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/log"
	"github.com/shaido-san/jibie-ec/internal/services"
	"github.com/shaido-san/jibie-ec/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.View(u.ID)
	if err != nil {
		log.Error(c, "cart.view", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	u := currentUser(c)
	itemID, ok := validate.ID(c.FormValue("itemId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing itemId")
	}
	qty := validate.Qty(c.FormValue("qty"))

	if err := h.Cart.Add(u.ID, itemID, qty); err != nil {
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			log.Info(c, "cart.add.shortfall", map[string]any{"item_id": itemID, "qty": qty})
			return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{
				"Message": "Not enough stock. Please adjust the quantity and try again.",
			})
		}
		log.Error(c, "cart.add", err, map[string]any{"item_id": itemID})
		return c.Status(fiber.StatusBadRequest).SendString("Could not add to cart")
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	u := currentUser(c)
	itemID, ok := validate.ID(c.FormValue("itemId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing itemId")
	}
	if err := h.Cart.Remove(u.ID, itemID); err != nil {
		if errors.Is(err, domain.ErrLineNotFound) {
			return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "That item is not in your cart"})
		}
		log.Error(c, "cart.remove", err, map[string]any{"item_id": itemID})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not remove item")
	}
	return c.Redirect("/cart")
}
