package repository

import (
	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	FindAll() ([]model.Sale, error)
	FindByID(id uuid.UUID) (*model.Sale, error)
	FindByInvoice(invoiceNumber string) (*model.Sale, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.SaleStatus, paymentStatus model.PaymentStatus, updatedBy string) error

	CreateRefund(tx *gorm.DB, refund *model.Refund) error
	FindRefundsBySale(saleID uuid.UUID) ([]model.Refund, error)
	RefundedQuantities(tx *gorm.DB, saleID uuid.UUID) (map[uuid.UUID]int, error)
	RefundedAmount(tx *gorm.DB, saleID uuid.UUID) (decimal.Decimal, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) FindAll() ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Preload("Items").Preload("Customer").Preload("Cashier").
		Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.Preload("Items").Preload("Items.Product").Preload("Items.Variant").
		Preload("Customer").Preload("Cashier").First(&sale, "id = ?", id).Error
	return &sale, err
}

func (r *saleRepo) FindByInvoice(invoiceNumber string) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.Preload("Items").First(&sale, "invoice_number = ?", invoiceNumber).Error
	return &sale, err
}

func (r *saleRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	// Items are immutable, no lock needed to read them.
	if err := tx.Find(&sale.Items, "sale_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.SaleStatus, paymentStatus model.PaymentStatus, updatedBy string) error {
	return tx.Model(&model.Sale{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sale_status":    status,
			"payment_status": paymentStatus,
			"updated_by":     updatedBy,
		}).Error
}

func (r *saleRepo) CreateRefund(tx *gorm.DB, refund *model.Refund) error {
	return tx.Create(refund).Error
}

func (r *saleRepo) FindRefundsBySale(saleID uuid.UUID) ([]model.Refund, error) {
	var refunds []model.Refund
	err := r.db.Preload("Items").Where("sale_id = ?", saleID).
		Order("created_at ASC").Find(&refunds).Error
	return refunds, err
}

// RefundedQuantities sums prior refund quantities per sale item, used to
// enforce the refund bound inside the refund transaction.
func (r *saleRepo) RefundedQuantities(tx *gorm.DB, saleID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := tx.Model(&model.RefundItem{}).
		Select("refund_items.sale_item_id, COALESCE(SUM(refund_items.quantity), 0)").
		Joins("JOIN refunds ON refunds.id = refund_items.refund_id").
		Where("refunds.sale_id = ?", saleID).
		Group("refund_items.sale_item_id").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunded := make(map[uuid.UUID]int)
	for rows.Next() {
		var itemID uuid.UUID
		var qty int
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, err
		}
		refunded[itemID] = qty
	}
	return refunded, rows.Err()
}

func (r *saleRepo) RefundedAmount(tx *gorm.DB, saleID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&model.Refund{}).
		Where("sale_id = ?", saleID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
