package handler

import (
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// Helper untuk ambil Actor dari JWT Context (set by auth middleware)
func getActor(c *fiber.Ctx) service.Actor {
	actor := service.Actor{Name: "Unknown"}
	if id, ok := c.Locals("user_id").(string); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			actor.ID = parsed
		}
	}
	if name, ok := c.Locals("user_name").(string); ok {
		actor.Name = name
	}
	if email, ok := c.Locals("user_email").(string); ok {
		actor.Email = email
	}
	return actor
}

func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sale, err := h.service.CreateSale(req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale completed", "data": sale})
}

// ValidateCart is a dry run: full validation and pricing, zero writes.
func (h *SaleHandler) ValidateCart(c *fiber.Ctx) error {
	var req service.CartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	return c.JSON(h.service.ValidateCart(req))
}

func (h *SaleHandler) RefundSale(c *fiber.Ctx) error {
	saleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	var req service.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	refund, err := h.service.RefundSale(saleID, req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Refund processed", "data": refund})
}

func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.service.GetAllSales()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sales)
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	saleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	sale, err := h.service.GetSaleByID(saleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

func (h *SaleHandler) GetSaleRefunds(c *fiber.Ctx) error {
	saleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	refunds, err := h.service.GetRefundsBySale(saleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(refunds)
}
