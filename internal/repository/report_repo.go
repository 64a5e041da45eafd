package repository

import (
	"time"

	"go-pos-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository interface {
	GetSalesSummary(startDate, endDate time.Time) (*SalesSummary, error)
	GetSalesByDay(startDate, endDate time.Time) ([]SalesByDay, error)
	GetTopProducts(startDate, endDate time.Time, limit int) ([]TopProduct, error)
	GetInventoryValuation() (*InventoryValuation, error)
	GetLowStockProducts() ([]model.Product, error)
}

// SalesSummary untuk overview stats
type SalesSummary struct {
	SaleCount     int64           `json:"sale_count"`
	GrossSales    decimal.Decimal `json:"gross_sales"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	NetSales      decimal.Decimal `json:"net_sales"`
}

// SalesByDay untuk chart data
type SalesByDay struct {
	Date      string          `json:"date"`
	SaleCount int             `json:"sale_count"`
	Total     decimal.Decimal `json:"total"`
}

type TopProduct struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type InventoryValuation struct {
	ProductCount  int64           `json:"product_count"`
	TotalUnits    int64           `json:"total_units"`
	CostValuation decimal.Decimal `json:"cost_valuation"`
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) GetSalesSummary(startDate, endDate time.Time) (*SalesSummary, error) {
	var summary SalesSummary

	row := r.db.Model(&model.Sale{}).
		Select(`
			COUNT(*),
			COALESCE(SUM(subtotal), 0),
			COALESCE(SUM(tax_amount), 0),
			COALESCE(SUM(discount_amount + loyalty_discount), 0),
			COALESCE(SUM(total_amount), 0)
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Where("sale_status <> ?", model.SaleRefunded).
		Row()

	if err := row.Scan(&summary.SaleCount, &summary.GrossSales, &summary.TotalTax,
		&summary.TotalDiscount, &summary.NetSales); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *reportRepo) GetSalesByDay(startDate, endDate time.Time) ([]SalesByDay, error) {
	results := []SalesByDay{}

	// Aggregate sales per hari
	rows, err := r.db.Model(&model.Sale{}).
		Select(`
			DATE(created_at) as date,
			COUNT(*) as sale_count,
			COALESCE(SUM(total_amount), 0) as total
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data SalesByDay
		if err := rows.Scan(&data.Date, &data.SaleCount, &data.Total); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *reportRepo) GetTopProducts(startDate, endDate time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	results := []TopProduct{}

	rows, err := r.db.Model(&model.SaleItem{}).
		Select(`
			products.id,
			products.name,
			COALESCE(SUM(sale_items.quantity), 0) as quantity_sold,
			COALESCE(SUM(sale_items.total_price), 0) as revenue
		`).
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sale_items.created_at BETWEEN ? AND ?", startDate, endDate).
		Group("products.id, products.name").
		Order("quantity_sold DESC").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (r *reportRepo) GetInventoryValuation() (*InventoryValuation, error) {
	var valuation InventoryValuation

	r.db.Model(&model.Product{}).Where("is_active = ?", true).Count(&valuation.ProductCount)

	row := r.db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity), 0), COALESCE(SUM(stock_quantity * cost_price), 0)").
		Where("is_active = ?", true).
		Row()
	if err := row.Scan(&valuation.TotalUnits, &valuation.CostValuation); err != nil {
		return nil, err
	}
	return &valuation, nil
}

func (r *reportRepo) GetLowStockProducts() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("is_active = ? AND stock_quantity <= min_stock_level", true).
		Order("stock_quantity ASC").Find(&products).Error
	return products, err
}
