package handler

import (
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// Query params: days (default 7)
func reportDays(c *fiber.Ctx) int {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}
	return days
}

func (h *ReportHandler) GetSalesSummary(c *fiber.Ctx) error {
	summary, err := h.service.GetSalesSummary(reportDays(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *ReportHandler) GetSalesByDay(c *fiber.Ctx) error {
	days := reportDays(c)
	data, err := h.service.GetSalesByDay(days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

func (h *ReportHandler) GetTopProducts(c *fiber.Ctx) error {
	data, err := h.service.GetTopProducts(reportDays(c), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(data)
}

func (h *ReportHandler) GetInventoryValuation(c *fiber.Ctx) error {
	valuation, err := h.service.GetInventoryValuation()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(valuation)
}

func (h *ReportHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.GetLowStockProducts()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}
