package service

import (
	"errors"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/pricing"
	"go-pos-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one requested line. Exactly one of ProductID/VariantID must be
// set. UnitPrice overrides the catalog price when given (e.g. a negotiated
// price keyed in by the cashier); the snapshot on the sale item is whatever
// was validated here.
type CartLine struct {
	ProductID    *uuid.UUID       `json:"product_id,omitempty"`
	VariantID    *uuid.UUID       `json:"variant_id,omitempty"`
	Quantity     int              `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	LineDiscount decimal.Decimal  `json:"line_discount"`
}

type CartRequest struct {
	Items             []CartLine          `json:"items" validate:"required,min=1"`
	CustomerID        *uuid.UUID          `json:"customer_id,omitempty"`
	PaymentMethod     model.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=CASH CARD UPI WALLET"`
	DiscountAmount    decimal.Decimal     `json:"discount_amount"`
	LoyaltyPointsUsed int                 `json:"loyalty_points_used"`
}

// ValidatedLine carries the resolved item and the effective unit price.
type ValidatedLine struct {
	Product      *model.Product
	Variant      *model.Variant
	Quantity     int
	UnitPrice    decimal.Decimal
	LineDiscount decimal.Decimal
}

// ValidatedCart is the validator output consumed by the pricing engine and
// the commit step.
type ValidatedCart struct {
	Lines    []ValidatedLine
	Customer *model.Customer
	Subtotal decimal.Decimal
	Request  CartRequest
}

// PricingLines converts the cart for the pure pricing engine.
func (c *ValidatedCart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = pricing.Line{
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			LineDiscount: l.LineDiscount,
		}
	}
	return lines
}

// CartValidator resolves and checks a proposed cart. Read-only: it never
// writes, so a dry-run via POST /sales/cart/validate has zero side effects.
type CartValidator struct {
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
}

func NewCartValidator(pRepo repository.ProductRepository, cRepo repository.CustomerRepository) *CartValidator {
	return &CartValidator{productRepo: pRepo, customerRepo: cRepo}
}

// Validate collects ALL problems across the cart instead of failing on the
// first one, so the client can present the complete list in one round trip.
func (v *CartValidator) Validate(req CartRequest) (*ValidatedCart, error) {
	var errs apperr.ValidationErrors

	if len(req.Items) == 0 {
		errs = append(errs, apperr.New(apperr.InvalidLineItem, "cart must contain at least one item"))
		return nil, errs
	}

	cart := &ValidatedCart{Request: req}
	subtotal := decimal.Zero

	for i, line := range req.Items {
		if (line.ProductID == nil) == (line.VariantID == nil) {
			errs = append(errs, apperr.New(apperr.InvalidLineItem,
				"exactly one of product_id or variant_id must be set").AtLine(i))
			continue
		}
		if line.Quantity <= 0 {
			errs = append(errs, apperr.New(apperr.InvalidQuantity,
				"quantity must be greater than zero, got %d", line.Quantity).AtLine(i))
			continue
		}

		resolved, lineErr := v.resolveLine(line)
		if lineErr != nil {
			errs = append(errs, lineErr.AtLine(i))
			continue
		}
		if lineErr := checkStock(resolved); lineErr != nil {
			errs = append(errs, lineErr.AtLine(i))
			continue
		}

		subtotal = subtotal.Add(pricing.LineTotal(pricing.Line{
			UnitPrice:    resolved.UnitPrice,
			Quantity:     resolved.Quantity,
			LineDiscount: resolved.LineDiscount,
		}))
		cart.Lines = append(cart.Lines, *resolved)
	}

	if req.CustomerID != nil {
		customer, err := v.customerRepo.FindByID(*req.CustomerID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs = append(errs, apperr.New(apperr.ItemNotFound, "customer %s not found", req.CustomerID))
		case err != nil:
			errs = append(errs, apperr.Wrap(apperr.InternalError, err, "failed to load customer"))
		case !customer.IsActive:
			errs = append(errs, apperr.New(apperr.ItemNotFound, "customer %s is inactive", req.CustomerID))
		default:
			cart.Customer = customer
			if req.LoyaltyPointsUsed > customer.LoyaltyPoints {
				errs = append(errs, apperr.New(apperr.InsufficientLoyaltyBalance,
					"requested %d loyalty points but balance is %d",
					req.LoyaltyPointsUsed, customer.LoyaltyPoints))
			}
		}
	} else if req.LoyaltyPointsUsed > 0 {
		errs = append(errs, apperr.New(apperr.InsufficientLoyaltyBalance,
			"loyalty points require a customer"))
	}
	if req.LoyaltyPointsUsed < 0 || req.DiscountAmount.IsNegative() {
		errs = append(errs, apperr.New(apperr.InvalidDiscount, "discount and loyalty points must not be negative"))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	cart.Subtotal = subtotal.Round(2)
	return cart, nil
}

func (v *CartValidator) resolveLine(line CartLine) (*ValidatedLine, *apperr.Error) {
	resolved := &ValidatedLine{
		Quantity:     line.Quantity,
		LineDiscount: line.LineDiscount,
	}

	if line.ProductID != nil {
		product, err := v.productRepo.FindByID(*line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.ItemNotFound, "product %s not found", line.ProductID)
			}
			return nil, apperr.Wrap(apperr.InternalError, err, "failed to load product")
		}
		if !product.IsActive {
			return nil, apperr.New(apperr.ItemNotFound, "product %s is no longer available", product.SKU)
		}
		resolved.Product = product
		resolved.UnitPrice = product.Price
	} else {
		variant, err := v.productRepo.FindVariantByID(*line.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.ItemNotFound, "variant %s not found", line.VariantID)
			}
			return nil, apperr.Wrap(apperr.InternalError, err, "failed to load variant")
		}
		if !variant.IsActive || (variant.Product != nil && !variant.Product.IsActive) {
			return nil, apperr.New(apperr.ItemNotFound, "variant %s is no longer available", variant.SKU)
		}
		resolved.Variant = variant
		resolved.UnitPrice = variant.EffectivePrice()
	}

	if line.UnitPrice != nil {
		if line.UnitPrice.IsNegative() {
			return nil, apperr.New(apperr.InvalidLineItem, "unit price must not be negative")
		}
		resolved.UnitPrice = *line.UnitPrice
	}
	return resolved, nil
}

func checkStock(line *ValidatedLine) *apperr.Error {
	available := 0
	label := ""
	if line.Product != nil {
		available = line.Product.StockQuantity
		label = line.Product.SKU
	} else {
		available = line.Variant.StockQuantity
		label = line.Variant.SKU
	}
	if line.Quantity > available {
		return apperr.New(apperr.InsufficientStock,
			"%s: requested %d but only %d in stock (short %d)",
			label, line.Quantity, available, line.Quantity-available)
	}
	return nil
}
