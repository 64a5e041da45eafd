package service

import (
	"errors"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerService interface {
	CreateCustomer(req *model.Customer, actor Actor) error
	UpdateCustomer(id uuid.UUID, req *model.Customer, actor Actor) (*model.Customer, error)
	DeactivateCustomer(id uuid.UUID, actor Actor) error
	GetAllCustomers(includeInactive bool) ([]model.Customer, error)
	GetCustomerByID(id uuid.UUID) (*model.Customer, error)
	GetLoyaltyHistory(id uuid.UUID) ([]model.LoyaltyReward, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	loyaltyRepo  repository.LoyaltyRepository
}

func NewCustomerService(cRepo repository.CustomerRepository, lRepo repository.LoyaltyRepository) CustomerService {
	return &customerService{customerRepo: cRepo, loyaltyRepo: lRepo}
}

func (s *customerService) CreateCustomer(req *model.Customer, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return apperr.New(apperr.InvalidLineItem,
			"validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// Balances start at zero; only the sale/refund processors move them.
	req.LoyaltyPoints = 0
	req.TotalSpent = decimal.Zero
	req.IsActive = true
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()
	return translateDBError(s.customerRepo.Create(req))
}

func (s *customerService) UpdateCustomer(id uuid.UUID, req *model.Customer, actor Actor) (*model.Customer, error) {
	existing, err := s.customerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ItemNotFound, "customer %s not found", id)
		}
		return nil, translateDBError(err)
	}

	// Contact fields only; loyalty and spend are processor-owned.
	existing.Name = req.Name
	existing.Email = req.Email
	existing.Phone = req.Phone
	existing.Address = req.Address
	existing.UpdatedBy = actor.ID.String()

	if err := s.customerRepo.Update(existing); err != nil {
		return nil, translateDBError(err)
	}
	return existing, nil
}

func (s *customerService) DeactivateCustomer(id uuid.UUID, actor Actor) error {
	if _, err := s.customerRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.ItemNotFound, "customer %s not found", id)
		}
		return translateDBError(err)
	}
	return translateDBError(s.customerRepo.Deactivate(id, actor.ID.String()))
}

func (s *customerService) GetAllCustomers(includeInactive bool) ([]model.Customer, error) {
	return s.customerRepo.FindAll(includeInactive)
}

func (s *customerService) GetCustomerByID(id uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ItemNotFound, "customer %s not found", id)
		}
		return nil, translateDBError(err)
	}
	return customer, nil
}

func (s *customerService) GetLoyaltyHistory(id uuid.UUID) ([]model.LoyaltyReward, error) {
	return s.loyaltyRepo.FindByCustomer(id)
}
