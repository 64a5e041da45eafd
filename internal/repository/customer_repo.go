package repository

import (
	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindAll(includeInactive bool) ([]model.Customer, error)
	FindByID(id uuid.UUID) (*model.Customer, error)
	FindByEmail(email string) (*model.Customer, error)
	Update(customer *model.Customer) error
	Deactivate(id uuid.UUID, deletedBy string) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	ApplyBalances(tx *gorm.DB, id uuid.UUID, loyaltyPoints int, totalSpent decimal.Decimal, updatedBy string) error
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(customer *model.Customer) error {
	return r.db.Create(customer).Error
}

func (r *customerRepo) FindAll(includeInactive bool) ([]model.Customer, error) {
	var customers []model.Customer
	q := r.db.Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&customers).Error
	return customers, err
}

func (r *customerRepo) FindByID(id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.First(&customer, "id = ?", id).Error
	return &customer, err
}

func (r *customerRepo) FindByEmail(email string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.First(&customer, "email = ?", email).Error
	return &customer, err
}

func (r *customerRepo) Update(customer *model.Customer) error {
	return r.db.Save(customer).Error
}

func (r *customerRepo) Deactivate(id uuid.UUID, deletedBy string) error {
	return r.db.Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": deletedBy,
		}).Error
}

func (r *customerRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, "id = ?", id).Error
	return &customer, err
}

// ApplyBalances writes the post-sale/post-refund balances computed by the
// caller while the row is locked.
func (r *customerRepo) ApplyBalances(tx *gorm.DB, id uuid.UUID, loyaltyPoints int, totalSpent decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"loyalty_points": loyaltyPoints,
			"total_spent":    totalSpent,
			"updated_by":     updatedBy,
		}).Error
}
