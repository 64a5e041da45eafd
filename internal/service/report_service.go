package service

import (
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
)

type ReportService interface {
	GetSalesSummary(days int) (*repository.SalesSummary, error)
	GetSalesByDay(days int) ([]repository.SalesByDay, error)
	GetTopProducts(days, limit int) ([]repository.TopProduct, error)
	GetInventoryValuation() (*repository.InventoryValuation, error)
	GetLowStockProducts() ([]model.Product, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(rRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: rRepo}
}

func rangeFromDays(days int) (time.Time, time.Time) {
	end := time.Now()
	return end.AddDate(0, 0, -days), end
}

func (s *reportService) GetSalesSummary(days int) (*repository.SalesSummary, error) {
	start, end := rangeFromDays(days)
	return s.reportRepo.GetSalesSummary(start, end)
}

func (s *reportService) GetSalesByDay(days int) ([]repository.SalesByDay, error) {
	start, end := rangeFromDays(days)
	return s.reportRepo.GetSalesByDay(start, end)
}

func (s *reportService) GetTopProducts(days, limit int) ([]repository.TopProduct, error) {
	start, end := rangeFromDays(days)
	return s.reportRepo.GetTopProducts(start, end, limit)
}

func (s *reportService) GetInventoryValuation() (*repository.InventoryValuation, error) {
	return s.reportRepo.GetInventoryValuation()
}

func (s *reportService) GetLowStockProducts() ([]model.Product, error) {
	return s.reportRepo.GetLowStockProducts()
}
