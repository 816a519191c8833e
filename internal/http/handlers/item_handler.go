package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shaido-san/jibie-ec/internal/log"
	"github.com/shaido-san/jibie-ec/internal/repos"
	"github.com/shaido-san/jibie-ec/internal/validate"
)

type ItemHandler struct {
	Items  *repos.ItemRepo
	Stocks *repos.StockRepo
}

func (h *ItemHandler) Index(c *fiber.Ctx) error {
	items, err := h.Items.ListPublished()
	if err != nil {
		log.Error(c, "items.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load items"})
	}
	return render(c, "index", fiber.Map{"Items": items})
}

func (h *ItemHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Item not found"})
	}
	it, err := h.Items.Get(id)
	if err != nil || !it.Published {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Item not found"})
	}
	qty, err := h.Stocks.Qty(id)
	if err != nil {
		log.Error(c, "items.stock", err, map[string]any{"item_id": id})
		qty = 0
	}

	// Quantity choices 1..stock for the add-to-cart select box.
	choices := make([]int, 0, qty)
	for i := 1; i <= qty; i++ {
		choices = append(choices, i)
	}
	return render(c, "item_detail", fiber.Map{"Item": it, "Stock": qty, "QtyChoices": choices})
}
