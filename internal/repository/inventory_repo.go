package repository

import (
	"fmt"

	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustmentFilter struct {
	ProductID *uuid.UUID
	VariantID *uuid.UUID
	Reason    model.AdjustmentReason
	Limit     int
}

type InventoryRepository interface {
	Append(tx *gorm.DB, adj *model.InventoryAdjustment) error
	FindAll(filter AdjustmentFilter) ([]model.InventoryAdjustment, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

// Append inserts a ledger row. The prev/new/change identity is re-checked
// here so a buggy caller can never write an inconsistent audit line.
func (r *inventoryRepo) Append(tx *gorm.DB, adj *model.InventoryAdjustment) error {
	if adj.NewStock != adj.PreviousStock+adj.QuantityChange {
		return fmt.Errorf("inventory ledger mismatch: %d + %d != %d",
			adj.PreviousStock, adj.QuantityChange, adj.NewStock)
	}
	if (adj.ProductID == nil) == (adj.VariantID == nil) {
		return fmt.Errorf("inventory adjustment must reference exactly one of product or variant")
	}
	return tx.Create(adj).Error
}

func (r *inventoryRepo) FindAll(filter AdjustmentFilter) ([]model.InventoryAdjustment, error) {
	q := r.db.Preload("Product").Preload("Variant").Preload("AdjustedBy").
		Order("created_at DESC")
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.VariantID != nil {
		q = q.Where("variant_id = ?", *filter.VariantID)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var adjustments []model.InventoryAdjustment
	err := q.Find(&adjustments).Error
	return adjustments, err
}
