package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/log"
	"github.com/shaido-san/jibie-ec/internal/repos"
	"github.com/shaido-san/jibie-ec/internal/validate"
)

type AddressHandler struct {
	Addrs *repos.AddressRepo
}

func (h *AddressHandler) Form(c *fiber.Ctx) error {
	return render(c, "address", fiber.Map{"Err": ""})
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)

	postal, ok := validate.PostalCode(c.FormValue("postal_code"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "postal_code"})
		return c.Status(fiber.StatusBadRequest).Render("address", fiber.Map{"Err": "Postal code must look like 123-4567"})
	}
	addrText, ok := validate.FreeText(c.FormValue("address"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).Render("address", fiber.Map{"Err": "Address is required"})
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).Render("address", fiber.Map{"Err": "Name is required"})
	}
	phone, ok := validate.Phone(c.FormValue("phone"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "phone"})
		return c.Status(fiber.StatusBadRequest).Render("address", fiber.Map{"Err": "Phone number is invalid"})
	}

	a := domain.Address{
		ID: uuid.NewString(), UserID: u.ID,
		PostalCode: postal, Address: addrText, Name: name, Phone: phone,
	}
	if err := h.Addrs.Create(a); err != nil {
		log.Error(c, "address.create", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("address", fiber.Map{"Err": "Could not save address"})
	}

	log.Audit(c, "address.create", map[string]any{"address_id": a.ID})
	return c.Redirect("/checkout")
}
