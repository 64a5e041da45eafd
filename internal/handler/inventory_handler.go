package handler

import (
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	service      service.InventoryService
	supplierRepo repository.SupplierRepository
}

func NewInventoryHandler(s service.InventoryService, supplierRepo repository.SupplierRepository) *InventoryHandler {
	return &InventoryHandler{service: s, supplierRepo: supplierRepo}
}

func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	adj, err := h.service.AdjustStock(req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock adjusted", "data": adj})
}

func (h *InventoryHandler) ReceivePurchase(c *fiber.Ctx) error {
	var req service.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	adjustments, err := h.service.ReceivePurchase(req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase received", "data": adjustments})
}

func (h *InventoryHandler) GetAdjustments(c *fiber.Ctx) error {
	filter := repository.AdjustmentFilter{
		Reason: model.AdjustmentReason(c.Query("reason")),
		Limit:  c.QueryInt("limit", 100),
	}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
		}
		filter.ProductID = &id
	}
	if raw := c.Query("variant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid variant ID"})
		}
		filter.VariantID = &id
	}

	adjustments, err := h.service.ListAdjustments(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(adjustments)
}

func (h *InventoryHandler) CreateSupplier(c *fiber.Ctx) error {
	var supplier model.Supplier
	if err := c.BodyParser(&supplier); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	actor := getActor(c)
	supplier.IsActive = true
	supplier.CreatedBy = actor.ID.String()
	supplier.UpdatedBy = actor.ID.String()
	if err := h.supplierRepo.Create(&supplier); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Supplier created", "data": supplier})
}

func (h *InventoryHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.supplierRepo.FindAll()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suppliers)
}
