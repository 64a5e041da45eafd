package service

import (
	"errors"
	"testing"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeProductRepo serves products and variants from maps. The write and
// locking methods are inherited as nil and never reached by the validator.
type fakeProductRepo struct {
	repository.ProductRepository
	products map[uuid.UUID]*model.Product
	variants map[uuid.UUID]*model.Variant
}

func (f *fakeProductRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindVariantByID(id uuid.UUID) (*model.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

type fakeCustomerRepo struct {
	repository.CustomerRepository
	customers map[uuid.UUID]*model.Customer
	err       error
}

func (f *fakeCustomerRepo) FindByID(id uuid.UUID) (*model.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func newProduct(sku, price string, stock int) *model.Product {
	return &model.Product{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		SKU:           sku,
		Name:          sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
}

func newValidator(products []*model.Product, variants []*model.Variant, customers []*model.Customer) *CartValidator {
	pRepo := &fakeProductRepo{
		products: map[uuid.UUID]*model.Product{},
		variants: map[uuid.UUID]*model.Variant{},
	}
	for _, p := range products {
		pRepo.products[p.ID] = p
	}
	for _, v := range variants {
		pRepo.variants[v.ID] = v
	}
	cRepo := &fakeCustomerRepo{customers: map[uuid.UUID]*model.Customer{}}
	for _, c := range customers {
		cRepo.customers[c.ID] = c
	}
	return NewCartValidator(pRepo, cRepo)
}

func validationErrorsOf(t *testing.T, err error) apperr.ValidationErrors {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	var errs apperr.ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	return errs
}

func TestValidateResolvesCatalogPrices(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	tea := newProduct("TEA-250G", "45.50", 5)
	v := newValidator([]*model.Product{coffee, tea}, nil, nil)

	cart, err := v.Validate(CartRequest{Items: []CartLine{
		{ProductID: &coffee.ID, Quantity: 2},
		{ProductID: &tea.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if !cart.Lines[0].UnitPrice.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("unit price = %s, want 150.00", cart.Lines[0].UnitPrice)
	}
	if !cart.Subtotal.Equal(decimal.RequireFromString("345.50")) {
		t.Errorf("subtotal = %s, want 345.50", cart.Subtotal)
	}
}

func TestValidateInsufficientStock(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 3)
	v := newValidator([]*model.Product{coffee}, nil, nil)

	_, err := v.Validate(CartRequest{Items: []CartLine{
		{ProductID: &coffee.ID, Quantity: 5},
	}})
	errs := validationErrorsOf(t, err)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Kind != apperr.InsufficientStock {
		t.Errorf("kind = %s, want InsufficientStock", errs[0].Kind)
	}
	if errs[0].Line == nil || *errs[0].Line != 0 {
		t.Errorf("expected line index 0, got %v", errs[0].Line)
	}
}

// Every broken line is reported in one pass, not just the first.
func TestValidateCollectsAllErrors(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	missing := uuid.New()
	v := newValidator([]*model.Product{coffee}, nil, nil)

	_, err := v.Validate(CartRequest{Items: []CartLine{
		{ProductID: &coffee.ID, VariantID: &coffee.ID, Quantity: 1}, // both set
		{ProductID: &coffee.ID, Quantity: 0},
		{ProductID: &missing, Quantity: 1},
		{ProductID: &coffee.ID, Quantity: 2}, // fine
	}})
	errs := validationErrorsOf(t, err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	wantKinds := []apperr.Kind{apperr.InvalidLineItem, apperr.InvalidQuantity, apperr.ItemNotFound}
	for i, want := range wantKinds {
		if errs[i].Kind != want {
			t.Errorf("errs[%d].Kind = %s, want %s", i, errs[i].Kind, want)
		}
		if errs[i].Line == nil || *errs[i].Line != i {
			t.Errorf("errs[%d].Line = %v, want %d", i, errs[i].Line, i)
		}
	}
}

func TestValidateInactiveProduct(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	coffee.IsActive = false
	v := newValidator([]*model.Product{coffee}, nil, nil)

	_, err := v.Validate(CartRequest{Items: []CartLine{
		{ProductID: &coffee.ID, Quantity: 1},
	}})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.ItemNotFound {
		t.Errorf("kind = %s, want ItemNotFound", errs[0].Kind)
	}
}

func TestValidateVariantPriceFallback(t *testing.T) {
	coffee := newProduct("COFFEE", "150.00", 10)
	small := &model.Variant{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		ProductID:     coffee.ID,
		Product:       coffee,
		SKU:           "COFFEE-250G",
		StockQuantity: 4,
		IsActive:      true,
	}
	override := decimal.RequireFromString("42.00")
	large := &model.Variant{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		ProductID:     coffee.ID,
		Product:       coffee,
		SKU:           "COFFEE-1KG",
		Price:         &override,
		StockQuantity: 4,
		IsActive:      true,
	}
	v := newValidator(nil, []*model.Variant{small, large}, nil)

	cart, err := v.Validate(CartRequest{Items: []CartLine{
		{VariantID: &small.ID, Quantity: 1},
		{VariantID: &large.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.Lines[0].UnitPrice.Equal(coffee.Price) {
		t.Errorf("fallback price = %s, want %s", cart.Lines[0].UnitPrice, coffee.Price)
	}
	if !cart.Lines[1].UnitPrice.Equal(override) {
		t.Errorf("override price = %s, want %s", cart.Lines[1].UnitPrice, override)
	}
}

func TestValidateUnitPriceOverride(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	v := newValidator([]*model.Product{coffee}, nil, nil)

	negotiated := decimal.RequireFromString("120.00")
	cart, err := v.Validate(CartRequest{Items: []CartLine{
		{ProductID: &coffee.ID, Quantity: 1, UnitPrice: &negotiated},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.Lines[0].UnitPrice.Equal(negotiated) {
		t.Errorf("unit price = %s, want 120.00", cart.Lines[0].UnitPrice)
	}

	negative := decimal.RequireFromString("-1.00")
	_, err = v.Validate(CartRequest{Items: []CartLine{
		{ProductID: &coffee.ID, Quantity: 1, UnitPrice: &negative},
	}})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.InvalidLineItem {
		t.Errorf("kind = %s, want InvalidLineItem", errs[0].Kind)
	}
}

func TestValidateLoyaltyBalance(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	member := &model.Customer{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		Name:          "Member",
		LoyaltyPoints: 10,
		IsActive:      true,
	}
	v := newValidator([]*model.Product{coffee}, nil, []*model.Customer{member})

	_, err := v.Validate(CartRequest{
		Items:             []CartLine{{ProductID: &coffee.ID, Quantity: 1}},
		CustomerID:        &member.ID,
		LoyaltyPointsUsed: 50,
	})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.InsufficientLoyaltyBalance {
		t.Errorf("kind = %s, want InsufficientLoyaltyBalance", errs[0].Kind)
	}

	// Within balance passes.
	cart, err := v.Validate(CartRequest{
		Items:             []CartLine{{ProductID: &coffee.ID, Quantity: 1}},
		CustomerID:        &member.ID,
		LoyaltyPointsUsed: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Customer == nil || cart.Customer.ID != member.ID {
		t.Error("expected customer attached to validated cart")
	}
}

// A storage failure is not "customer missing": it must surface as an
// internal error, not a 404.
func TestValidateCustomerLookupFailure(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	pRepo := &fakeProductRepo{
		products: map[uuid.UUID]*model.Product{coffee.ID: coffee},
		variants: map[uuid.UUID]*model.Variant{},
	}
	cRepo := &fakeCustomerRepo{err: errors.New("connection refused")}
	v := NewCartValidator(pRepo, cRepo)

	customerID := uuid.New()
	_, err := v.Validate(CartRequest{
		Items:      []CartLine{{ProductID: &coffee.ID, Quantity: 1}},
		CustomerID: &customerID,
	})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.InternalError {
		t.Errorf("kind = %s, want InternalError", errs[0].Kind)
	}
}

func TestValidatePointsWithoutCustomer(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	v := newValidator([]*model.Product{coffee}, nil, nil)

	_, err := v.Validate(CartRequest{
		Items:             []CartLine{{ProductID: &coffee.ID, Quantity: 1}},
		LoyaltyPointsUsed: 5,
	})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.InsufficientLoyaltyBalance {
		t.Errorf("kind = %s, want InsufficientLoyaltyBalance", errs[0].Kind)
	}
}

func TestValidateNegativeDiscount(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 10)
	v := newValidator([]*model.Product{coffee}, nil, nil)

	_, err := v.Validate(CartRequest{
		Items:          []CartLine{{ProductID: &coffee.ID, Quantity: 1}},
		DiscountAmount: decimal.RequireFromString("-5.00"),
	})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.InvalidDiscount {
		t.Errorf("kind = %s, want InvalidDiscount", errs[0].Kind)
	}
}

func TestValidateEmptyCart(t *testing.T) {
	v := newValidator(nil, nil, nil)
	_, err := v.Validate(CartRequest{})
	errs := validationErrorsOf(t, err)
	if errs[0].Kind != apperr.InvalidLineItem {
		t.Errorf("kind = %s, want InvalidLineItem", errs[0].Kind)
	}
}
