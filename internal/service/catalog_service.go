package service

import (
	"errors"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService covers product, variant, and category maintenance. Removal
// is always a soft delete so historical sale items stay resolvable.
type CatalogService interface {
	CreateProduct(req *model.Product, actor Actor) error
	UpdateProduct(id uuid.UUID, req *model.Product, actor Actor) (*model.Product, error)
	DeactivateProduct(id uuid.UUID, actor Actor) error
	GetAllProducts(includeInactive bool) ([]model.Product, error)
	GetProductByID(id uuid.UUID) (*model.Product, error)

	CreateVariant(req *model.Variant, actor Actor) error

	CreateCategory(req *model.Category, actor Actor) error
	GetAllCategories() ([]model.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	db           *gorm.DB
}

func NewCatalogService(pRepo repository.ProductRepository, cRepo repository.CategoryRepository, db *gorm.DB) CatalogService {
	return &catalogService{productRepo: pRepo, categoryRepo: cRepo, db: db}
}

func (s *catalogService) CreateProduct(req *model.Product, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return apperr.New(apperr.InvalidLineItem,
			"validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if req.Price.IsNegative() || req.CostPrice.IsNegative() {
		return apperr.New(apperr.InvalidLineItem, "price and cost price must not be negative")
	}
	if req.StockQuantity < 0 {
		return apperr.New(apperr.InvalidQuantity, "stock quantity must not be negative")
	}

	existing, _ := s.productRepo.FindBySKU(req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return apperr.New(apperr.DuplicateEntry, "SKU %s already exists", req.SKU)
	}

	req.IsActive = true
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()
	return translateDBError(s.productRepo.Create(req))
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *model.Product, actor Actor) (*model.Product, error) {
	var updated *model.Product

	// Price/metadata edits only. Stock moves exclusively through the sale,
	// refund, purchase, and adjustment flows so the ledger stays complete.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.LockByID(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.ItemNotFound, "product %s not found", id)
			}
			return translateDBError(err)
		}

		existing.Name = req.Name
		existing.SKU = req.SKU
		existing.Barcode = req.Barcode
		existing.Unit = req.Unit
		existing.Price = req.Price
		existing.CostPrice = req.CostPrice
		existing.MinStockLevel = req.MinStockLevel
		existing.MaxStockLevel = req.MaxStockLevel
		existing.CategoryID = req.CategoryID
		existing.UpdatedBy = actor.ID.String()

		if err := tx.Save(existing).Error; err != nil {
			return translateDBError(err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}
	return updated, nil
}

func (s *catalogService) DeactivateProduct(id uuid.UUID, actor Actor) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.ItemNotFound, "product %s not found", id)
		}
		return translateDBError(err)
	}
	return translateDBError(s.productRepo.Deactivate(id, actor.ID.String()))
}

func (s *catalogService) GetAllProducts(includeInactive bool) ([]model.Product, error) {
	return s.productRepo.FindAll(includeInactive)
}

func (s *catalogService) GetProductByID(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ItemNotFound, "product %s not found", id)
		}
		return nil, translateDBError(err)
	}
	return product, nil
}

func (s *catalogService) CreateVariant(req *model.Variant, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return apperr.New(apperr.InvalidLineItem,
			"validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if _, err := s.productRepo.FindByID(req.ProductID); err != nil {
		return apperr.New(apperr.ItemNotFound, "parent product %s not found", req.ProductID)
	}

	req.IsActive = true
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()
	return translateDBError(s.productRepo.CreateVariant(req))
}

func (s *catalogService) CreateCategory(req *model.Category, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.New(apperr.InvalidLineItem, "category name is required")
	}
	req.IsActive = true
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()
	return translateDBError(s.categoryRepo.Create(req))
}

func (s *catalogService) GetAllCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}
