package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentUPI    PaymentMethod = "UPI"
	PaymentWallet PaymentMethod = "WALLET"
)

type SaleStatus string

const (
	SaleCompleted         SaleStatus = "COMPLETED"
	SalePartiallyRefunded SaleStatus = "PARTIALLY_REFUNDED"
	SaleRefunded          SaleStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Sale is immutable once committed; only SaleStatus moves, and only through
// the refund processor. Totals satisfy
// total = subtotal + tax - discount - loyalty discount.
type Sale struct {
	BaseModel
	InvoiceNumber string `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"`

	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	CashierID uuid.UUID `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier   *User     `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`

	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	LoyaltyPointsUsed int             `gorm:"not null;default:0" json:"loyalty_points_used"`
	LoyaltyDiscount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"loyalty_discount"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'PAID'" json:"payment_status"`
	SaleStatus    SaleStatus    `gorm:"type:varchar(20);not null;default:'COMPLETED'" json:"sale_status"`

	Items []SaleItem `json:"items,omitempty"`
}

// SaleItem snapshots unit price at sale time. Exactly one of
// ProductID/VariantID is set.
type SaleItem struct {
	BaseModel
	SaleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`

	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product   *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	VariantID *uuid.UUID `gorm:"type:uuid;index" json:"variant_id,omitempty"`
	Variant   *Variant   `gorm:"foreignKey:VariantID" json:"variant,omitempty"`

	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"line_discount"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

// Refund records one (possibly partial) reversal of a sale.
type Refund struct {
	BaseModel
	SaleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale   *Sale     `gorm:"foreignKey:SaleID" json:"sale,omitempty"`

	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason string          `gorm:"type:text" json:"reason"`

	ProcessedByID uuid.UUID `gorm:"type:uuid;not null" json:"processed_by_id"`
	ProcessedBy   *User     `gorm:"foreignKey:ProcessedByID" json:"processed_by,omitempty"`

	Items []RefundItem `json:"items,omitempty"`
}

type RefundItem struct {
	BaseModel
	RefundID   uuid.UUID `gorm:"type:uuid;not null;index" json:"refund_id"`
	SaleItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_item_id"`
	Quantity   int       `gorm:"not null;check:quantity > 0" json:"quantity"`
}
