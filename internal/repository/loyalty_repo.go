package repository

import (
	"time"

	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoyaltyRepository interface {
	Create(tx *gorm.DB, reward *model.LoyaltyReward) error
	FindByCustomer(customerID uuid.UUID) ([]model.LoyaltyReward, error)
	MarkRedeemed(id uuid.UUID, updatedBy string) error
	ExpireBySale(tx *gorm.DB, saleID uuid.UUID, updatedBy string) error
}

type loyaltyRepo struct {
	db *gorm.DB
}

func NewLoyaltyRepo(db *gorm.DB) LoyaltyRepository {
	return &loyaltyRepo{db}
}

func (r *loyaltyRepo) Create(tx *gorm.DB, reward *model.LoyaltyReward) error {
	return tx.Create(reward).Error
}

func (r *loyaltyRepo) FindByCustomer(customerID uuid.UUID) ([]model.LoyaltyReward, error) {
	var rewards []model.LoyaltyReward
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").Find(&rewards).Error
	return rewards, err
}

func (r *loyaltyRepo) MarkRedeemed(id uuid.UUID, updatedBy string) error {
	now := time.Now()
	return r.db.Model(&model.LoyaltyReward{}).
		Where("id = ? AND is_redeemed = ?", id, false).
		Updates(map[string]interface{}{
			"is_redeemed": true,
			"redeemed_at": &now,
			"updated_by":  updatedBy,
		}).Error
}

// ExpireBySale invalidates unredeemed rewards earned from a sale that has
// been fully refunded.
func (r *loyaltyRepo) ExpireBySale(tx *gorm.DB, saleID uuid.UUID, updatedBy string) error {
	return tx.Model(&model.LoyaltyReward{}).
		Where("sale_id = ? AND is_redeemed = ?", saleID, false).
		Updates(map[string]interface{}{
			"expires_at": time.Now(),
			"updated_by": updatedBy,
		}).Error
}
