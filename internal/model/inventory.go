package model

import "github.com/google/uuid"

type AdjustmentReason string

const (
	AdjustSale     AdjustmentReason = "SALE"
	AdjustRefund   AdjustmentReason = "REFUND"
	AdjustPurchase AdjustmentReason = "PURCHASE"
	AdjustManual   AdjustmentReason = "MANUAL"
	AdjustDamage   AdjustmentReason = "DAMAGE"
)

// InventoryAdjustment is the append-only stock ledger. Rows are never
// updated or deleted; new_stock = previous_stock + quantity_change always
// holds and is checked before insert.
type InventoryAdjustment struct {
	BaseModel
	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product   *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	VariantID *uuid.UUID `gorm:"type:uuid;index" json:"variant_id,omitempty"`
	Variant   *Variant   `gorm:"foreignKey:VariantID" json:"variant,omitempty"`

	QuantityChange int              `gorm:"not null" json:"quantity_change"`
	PreviousStock  int              `gorm:"not null" json:"previous_stock"`
	NewStock       int              `gorm:"not null" json:"new_stock"`
	Reason         AdjustmentReason `gorm:"type:varchar(20);not null;index" json:"reason"`
	Note           string           `gorm:"type:text" json:"note"`

	SaleID     *uuid.UUID `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	RefundID   *uuid.UUID `gorm:"type:uuid;index" json:"refund_id,omitempty"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`

	AdjustedByID uuid.UUID `gorm:"type:uuid;not null" json:"adjusted_by_id"`
	AdjustedBy   *User     `gorm:"foreignKey:AdjustedByID" json:"adjusted_by,omitempty"`
}
