package model

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyReward is issued when a sale earns points. Only IsRedeemed /
// RedeemedAt ever change after creation.
type LoyaltyReward struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	SaleID *uuid.UUID `gorm:"type:uuid;index" json:"sale_id,omitempty"`

	Points      int    `gorm:"not null" json:"points"`
	Description string `gorm:"type:text" json:"description"`

	IsRedeemed bool       `gorm:"default:false" json:"is_redeemed"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
}
