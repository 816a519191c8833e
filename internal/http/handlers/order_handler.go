package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/log"
	"github.com/shaido-san/jibie-ec/internal/services"
)

type OrderHandler struct {
	Order *services.OrderService
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	oid := c.Params("id")
	if oid == "" {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	o, items, err := h.Order.Get(u.ID, oid)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			// Hide other users' orders entirely.
			log.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "order", fiber.Map{"Order": o, "Items": items})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Order.History(u.ID)
	if err != nil {
		log.Error(c, "orders.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}
