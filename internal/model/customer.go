package model

import "github.com/shopspring/decimal"

// Customer holds the loyalty balance and cumulative spend mutated by the
// sale and refund processors. Walk-in sales carry no customer at all.
type Customer struct {
	BaseModel
	Name    string  `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Email   *string `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty" validate:"omitempty,email"`
	Phone   string  `gorm:"type:varchar(20)" json:"phone"`
	Address string  `gorm:"type:text" json:"address"`

	LoyaltyPoints int             `gorm:"not null;default:0;check:loyalty_points >= 0" json:"loyalty_points"`
	TotalSpent    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_spent"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
}
