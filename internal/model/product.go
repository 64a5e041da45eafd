package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SKU     string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Barcode *string `gorm:"type:varchar(50);uniqueIndex" json:"barcode,omitempty"`
	Name    string  `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Unit    string  `gorm:"type:varchar(20)" json:"unit"`

	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price"`

	StockQuantity int  `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	MinStockLevel int  `gorm:"default:0" json:"min_stock_level"`
	MaxStockLevel int  `gorm:"default:0" json:"max_stock_level"`
	IsActive      bool `gorm:"default:true" json:"is_active"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// Relasi
	Variants []Variant `json:"variants,omitempty"`
}

// Variant is a sellable variation of a product (e.g. size/color) with its
// own SKU and stock. Price/cost fall back to the parent when not overridden.
type Variant struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty" validate:"-"`

	SKU        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Attributes json.RawMessage `gorm:"type:jsonb" json:"attributes,omitempty"`

	Price     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price,omitempty"`
	CostPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"cost_price,omitempty"`

	StockQuantity int  `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	IsActive      bool `gorm:"default:true" json:"is_active"`
}

// EffectivePrice resolves the variant price override against the parent product.
func (v *Variant) EffectivePrice() decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	if v.Product != nil {
		return v.Product.Price
	}
	return decimal.Zero
}

// EffectiveCost resolves the variant cost override against the parent product.
func (v *Variant) EffectiveCost() decimal.Decimal {
	if v.CostPrice != nil {
		return *v.CostPrice
	}
	if v.Product != nil {
		return v.Product.CostPrice
	}
	return decimal.Zero
}
