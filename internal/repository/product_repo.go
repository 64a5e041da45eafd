package repository

import (
	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(includeInactive bool) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindBySKU(sku string) (*model.Product, error)
	FindByBarcode(barcode string) (*model.Product, error)
	Update(product *model.Product) error
	Deactivate(id uuid.UUID, deletedBy string) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error

	CreateVariant(variant *model.Variant) error
	FindVariantByID(id uuid.UUID) (*model.Variant, error)
	FindVariantsByProduct(productID uuid.UUID) ([]model.Variant, error)
	LockVariantByID(tx *gorm.DB, id uuid.UUID) (*model.Variant, error)
	UpdateVariantStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(includeInactive bool) ([]model.Product, error) {
	var products []model.Product
	q := r.db.Preload("Category").Preload("Variants")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Category").Preload("Variants").First(&product, "id = ?", id).Error
	return &product, err
}

func (r *productRepo) FindBySKU(sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "sku = ?", sku).Error
	return &product, err
}

func (r *productRepo) FindByBarcode(barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "barcode = ?", barcode).Error
	return &product, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// Deactivate is the only supported removal. Historical sale items keep
// referencing the row.
func (r *productRepo) Deactivate(id uuid.UUID, deletedBy string) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": deletedBy,
		}).Error
}

// LockByID menerima *gorm.DB (tx) dan mengambil row lock FOR UPDATE
func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	return &product, err
}

// UpdateStock menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": newStock,
			"updated_by":     updatedBy,
		}).Error
}

func (r *productRepo) CreateVariant(variant *model.Variant) error {
	return r.db.Create(variant).Error
}

func (r *productRepo) FindVariantByID(id uuid.UUID) (*model.Variant, error) {
	var variant model.Variant
	err := r.db.Preload("Product").First(&variant, "id = ?", id).Error
	return &variant, err
}

func (r *productRepo) FindVariantsByProduct(productID uuid.UUID) ([]model.Variant, error) {
	var variants []model.Variant
	err := r.db.Where("product_id = ?", productID).Find(&variants).Error
	return variants, err
}

func (r *productRepo) LockVariantByID(tx *gorm.DB, id uuid.UUID) (*model.Variant, error) {
	var variant model.Variant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Product").First(&variant, "id = ?", id).Error
	return &variant, err
}

func (r *productRepo) UpdateVariantStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Variant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": newStock,
			"updated_by":     updatedBy,
		}).Error
}
