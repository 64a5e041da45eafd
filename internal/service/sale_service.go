package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/pricing"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const invoiceAttempts = 3

// Actor identifies the authenticated cashier performing an operation.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// CartQuote is the dry-run result of POST /sales/cart/validate.
type CartQuote struct {
	Valid  bool                    `json:"valid"`
	Errors apperr.ValidationErrors `json:"errors,omitempty"`
	Quote  *pricing.Quote          `json:"quote,omitempty"`
}

type RefundLine struct {
	SaleItemID *uuid.UUID `json:"sale_item_id,omitempty"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty"`
	Quantity   int        `json:"quantity"`
	Reason     string     `json:"reason"`
}

type RefundRequest struct {
	Items  []RefundLine    `json:"items" validate:"required,min=1"`
	Amount decimal.Decimal `json:"refund_amount"`
	Reason string          `json:"reason"`
}

type SaleService interface {
	ValidateCart(req CartRequest) *CartQuote
	CreateSale(req CartRequest, actor Actor) (*model.Sale, error)
	RefundSale(saleID uuid.UUID, req RefundRequest, actor Actor) (*model.Refund, error)
	GetAllSales() ([]model.Sale, error)
	GetSaleByID(id uuid.UUID) (*model.Sale, error)
	GetRefundsBySale(saleID uuid.UUID) ([]model.Refund, error)
}

type saleService struct {
	validator     *CartValidator
	productRepo   repository.ProductRepository
	customerRepo  repository.CustomerRepository
	saleRepo      repository.SaleRepository
	inventoryRepo repository.InventoryRepository
	loyaltyRepo   repository.LoyaltyRepository
	cfg           pricing.Config
	db            *gorm.DB
	wsHub         *ws.Hub
}

func NewSaleService(
	validator *CartValidator,
	pRepo repository.ProductRepository,
	cRepo repository.CustomerRepository,
	sRepo repository.SaleRepository,
	iRepo repository.InventoryRepository,
	lRepo repository.LoyaltyRepository,
	cfg pricing.Config,
	db *gorm.DB,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		validator:     validator,
		productRepo:   pRepo,
		customerRepo:  cRepo,
		saleRepo:      sRepo,
		inventoryRepo: iRepo,
		loyaltyRepo:   lRepo,
		cfg:           cfg,
		db:            db,
		wsHub:         hub,
	}
}

// ValidateCart is the side-effect-free dry run of validation plus pricing.
func (s *saleService) ValidateCart(req CartRequest) *CartQuote {
	cart, err := s.validator.Validate(req)
	if err != nil {
		return &CartQuote{Valid: false, Errors: asValidationErrors(err)}
	}
	quote, err := pricing.Compute(s.cfg, cart.PricingLines(), req.DiscountAmount,
		req.LoyaltyPointsUsed, cart.Customer != nil)
	if err != nil {
		return &CartQuote{Valid: false, Errors: asValidationErrors(err)}
	}
	return &CartQuote{Valid: true, Quote: quote}
}

// CreateSale runs the full pipeline: validate, price, commit atomically.
// A rejected cart leaves no trace; a commit either fully applies or fully
// rolls back.
func (s *saleService) CreateSale(req CartRequest, actor Actor) (*model.Sale, error) {
	cart, err := s.validator.Validate(req)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Compute(s.cfg, cart.PricingLines(), req.DiscountAmount,
		req.LoyaltyPointsUsed, cart.Customer != nil)
	if err != nil {
		return nil, err
	}

	// Invoice collisions are the one duplicate we retry: the number is
	// regenerated, everything else about the attempt is identical.
	var sale *model.Sale
	for attempt := 0; attempt < invoiceAttempts; attempt++ {
		sale, err = s.commitSale(cart, quote, actor, generateInvoiceNumber(time.Now()))
		if apperr.KindOf(err) != apperr.DuplicateEntry {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.broadcastStockChange("sale_completed", sale.InvoiceNumber, actor)
	return s.saleRepo.FindByID(sale.ID)
}

// stockDelta groups cart lines per physical stock row so each row is locked
// and decremented exactly once even when it appears on several lines.
type stockDelta struct {
	productID *uuid.UUID
	variantID *uuid.UUID
	quantity  int
}

func groupStockDeltas(lines []ValidatedLine) []stockDelta {
	index := map[string]int{}
	var deltas []stockDelta
	for _, l := range lines {
		var key string
		var d stockDelta
		if l.Product != nil {
			id := l.Product.ID
			key = "p:" + id.String()
			d = stockDelta{productID: &id}
		} else {
			id := l.Variant.ID
			key = "v:" + id.String()
			d = stockDelta{variantID: &id}
		}
		if i, ok := index[key]; ok {
			deltas[i].quantity += l.Quantity
			continue
		}
		d.quantity = l.Quantity
		index[key] = len(deltas)
		deltas = append(deltas, d)
	}
	// Stable lock order across concurrent transactions avoids deadlocks.
	sort.Slice(deltas, func(i, j int) bool { return deltaKey(deltas[i]) < deltaKey(deltas[j]) })
	return deltas
}

func deltaKey(d stockDelta) string {
	if d.productID != nil {
		return "p:" + d.productID.String()
	}
	return "v:" + d.variantID.String()
}

func (s *saleService) commitSale(cart *ValidatedCart, quote *pricing.Quote, actor Actor, invoiceNumber string) (*model.Sale, error) {
	req := cart.Request
	sale := &model.Sale{
		InvoiceNumber:     invoiceNumber,
		CashierID:         actor.ID,
		Subtotal:          quote.Subtotal,
		TaxAmount:         quote.TaxAmount,
		DiscountAmount:    quote.DiscountAmount,
		LoyaltyPointsUsed: req.LoyaltyPointsUsed,
		LoyaltyDiscount:   quote.LoyaltyDiscount,
		TotalAmount:       quote.TotalAmount,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     model.PaymentPaid,
		SaleStatus:        model.SaleCompleted,
	}
	if cart.Customer != nil {
		id := cart.Customer.ID
		sale.CustomerID = &id
	}
	sale.CreatedBy = actor.ID.String()
	sale.UpdatedBy = actor.ID.String()

	for _, l := range cart.Lines {
		item := model.SaleItem{
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			LineDiscount: l.LineDiscount,
			TotalPrice: pricing.LineTotal(pricing.Line{
				UnitPrice:    l.UnitPrice,
				Quantity:     l.Quantity,
				LineDiscount: l.LineDiscount,
			}),
		}
		if l.Product != nil {
			id := l.Product.ID
			item.ProductID = &id
		} else {
			id := l.Variant.ID
			item.VariantID = &id
		}
		item.CreatedBy = actor.ID.String()
		sale.Items = append(sale.Items, item)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return translateDBError(err)
		}

		// Stock checks are re-evaluated here, under row locks, because the
		// earlier validation read unlocked rows: a concurrent sale may have
		// committed in between.
		for _, d := range groupStockDeltas(cart.Lines) {
			if err := s.decrementStock(tx, d, sale.ID, actor); err != nil {
				return err
			}
		}

		if cart.Customer != nil {
			if err := s.applyCustomerSale(tx, cart.Customer.ID, req.LoyaltyPointsUsed, quote, sale, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}
	return sale, nil
}

func (s *saleService) decrementStock(tx *gorm.DB, d stockDelta, saleID uuid.UUID, actor Actor) error {
	adj := &model.InventoryAdjustment{
		QuantityChange: -d.quantity,
		Reason:         model.AdjustSale,
		SaleID:         &saleID,
		AdjustedByID:   actor.ID,
	}
	adj.CreatedBy = actor.ID.String()

	if d.productID != nil {
		product, err := s.productRepo.LockByID(tx, *d.productID)
		if err != nil {
			return translateDBError(err)
		}
		if !product.IsActive {
			return apperr.New(apperr.ItemNotFound, "product %s was deactivated", product.SKU)
		}
		if product.StockQuantity < d.quantity {
			return apperr.New(apperr.ConcurrentStockConflict,
				"%s: stock changed to %d, cannot fulfil %d", product.SKU, product.StockQuantity, d.quantity)
		}
		adj.ProductID = d.productID
		adj.PreviousStock = product.StockQuantity
		adj.NewStock = product.StockQuantity - d.quantity
		if err := s.productRepo.UpdateStock(tx, product.ID, adj.NewStock, actor.ID.String()); err != nil {
			return translateDBError(err)
		}
	} else {
		variant, err := s.productRepo.LockVariantByID(tx, *d.variantID)
		if err != nil {
			return translateDBError(err)
		}
		if !variant.IsActive {
			return apperr.New(apperr.ItemNotFound, "variant %s was deactivated", variant.SKU)
		}
		if variant.StockQuantity < d.quantity {
			return apperr.New(apperr.ConcurrentStockConflict,
				"%s: stock changed to %d, cannot fulfil %d", variant.SKU, variant.StockQuantity, d.quantity)
		}
		adj.VariantID = d.variantID
		adj.PreviousStock = variant.StockQuantity
		adj.NewStock = variant.StockQuantity - d.quantity
		if err := s.productRepo.UpdateVariantStock(tx, variant.ID, adj.NewStock, actor.ID.String()); err != nil {
			return translateDBError(err)
		}
	}
	return s.inventoryRepo.Append(tx, adj)
}

func (s *saleService) applyCustomerSale(tx *gorm.DB, customerID uuid.UUID, pointsUsed int, quote *pricing.Quote, sale *model.Sale, actor Actor) error {
	customer, err := s.customerRepo.LockByID(tx, customerID)
	if err != nil {
		return translateDBError(err)
	}
	// Balance re-check under lock: a concurrent sale may have spent the
	// points validation saw.
	if pointsUsed > customer.LoyaltyPoints {
		return apperr.New(apperr.ConcurrentStockConflict,
			"loyalty balance changed: %d points requested, %d available",
			pointsUsed, customer.LoyaltyPoints)
	}

	newPoints := customer.LoyaltyPoints - pointsUsed + quote.PointsEarned
	newSpent := customer.TotalSpent.Add(quote.TotalAmount)
	if err := s.customerRepo.ApplyBalances(tx, customerID, newPoints, newSpent, actor.ID.String()); err != nil {
		return translateDBError(err)
	}

	if quote.PointsEarned > 0 {
		saleID := sale.ID
		reward := &model.LoyaltyReward{
			CustomerID:  customerID,
			SaleID:      &saleID,
			Points:      quote.PointsEarned,
			Description: fmt.Sprintf("Earned on invoice %s", sale.InvoiceNumber),
			ExpiresAt:   time.Now().AddDate(0, 0, s.cfg.RewardValidDays),
		}
		reward.CreatedBy = actor.ID.String()
		if err := s.loyaltyRepo.Create(tx, reward); err != nil {
			return translateDBError(err)
		}
	}
	return nil
}

// RefundSale reverses a committed sale in full or in part. Stock comes back,
// sale status moves, the customer's spend is reduced, and points used as
// payment are returned pro-rata. Earned loyalty points are not clawed back;
// unredeemed rewards tied to a fully refunded sale are expired instead.
func (s *saleService) RefundSale(saleID uuid.UUID, req RefundRequest, actor Actor) (*model.Refund, error) {
	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.InvalidQuantity, "refund must name at least one line")
	}
	if req.Amount.IsNegative() {
		return nil, apperr.New(apperr.InvalidDiscount, "refund amount must not be negative")
	}

	var refund *model.Refund
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sale, err := s.saleRepo.LockByID(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.SaleNotFound, "sale %s not found", saleID)
			}
			return translateDBError(err)
		}
		if sale.SaleStatus != model.SaleCompleted && sale.SaleStatus != model.SalePartiallyRefunded {
			return apperr.New(apperr.SaleNotFound, "sale %s is already fully refunded", sale.InvoiceNumber)
		}

		priorQty, err := s.saleRepo.RefundedQuantities(tx, saleID)
		if err != nil {
			return translateDBError(err)
		}
		priorAmount, err := s.saleRepo.RefundedAmount(tx, saleID)
		if err != nil {
			return translateDBError(err)
		}
		if priorAmount.Add(req.Amount).GreaterThan(sale.TotalAmount) {
			return apperr.New(apperr.RefundExceedsOriginal,
				"refund amount %s exceeds remaining refundable %s",
				req.Amount, sale.TotalAmount.Sub(priorAmount))
		}

		resolved, err := resolveRefundLines(sale, req.Items, priorQty)
		if err != nil {
			return err
		}

		refund = &model.Refund{
			SaleID:        saleID,
			Amount:        req.Amount.Round(2),
			Reason:        req.Reason,
			ProcessedByID: actor.ID,
		}
		refund.CreatedBy = actor.ID.String()
		for itemID, qty := range resolved {
			item := model.RefundItem{SaleItemID: itemID, Quantity: qty}
			item.CreatedBy = actor.ID.String()
			refund.Items = append(refund.Items, item)
		}
		if err := s.saleRepo.CreateRefund(tx, refund); err != nil {
			return translateDBError(err)
		}

		if err := s.restoreStock(tx, sale, resolved, refund.ID, actor); err != nil {
			return err
		}

		fullyRefunded := isFullyRefunded(sale, priorQty, resolved)
		status := model.SalePartiallyRefunded
		paymentStatus := sale.PaymentStatus
		if fullyRefunded {
			status = model.SaleRefunded
			paymentStatus = model.PaymentRefunded
		}
		if err := s.saleRepo.UpdateStatus(tx, saleID, status, paymentStatus, actor.ID.String()); err != nil {
			return translateDBError(err)
		}

		if sale.CustomerID != nil {
			customer, err := s.customerRepo.LockByID(tx, *sale.CustomerID)
			if err != nil {
				return translateDBError(err)
			}
			newSpent := customer.TotalSpent.Sub(refund.Amount)
			if newSpent.IsNegative() {
				newSpent = decimal.Zero
			}
			// Points spent on the sale come back with the refund, pro-rata
			// by amount; a full refund returns whatever is still outstanding.
			pointsBack := restoredPoints(sale.LoyaltyPointsUsed, priorAmount, refund.Amount, sale.TotalAmount, fullyRefunded)
			if err := s.customerRepo.ApplyBalances(tx, customer.ID, customer.LoyaltyPoints+pointsBack, newSpent, actor.ID.String()); err != nil {
				return translateDBError(err)
			}
			if fullyRefunded {
				if err := s.loyaltyRepo.ExpireBySale(tx, saleID, actor.ID.String()); err != nil {
					return translateDBError(err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	s.broadcastStockChange("sale_refunded", saleID.String(), actor)
	return refund, nil
}

// resolveRefundLines maps requested lines onto sale items and enforces the
// refund bound per line, accumulating across duplicate lines in the request.
func resolveRefundLines(sale *model.Sale, lines []RefundLine, priorQty map[uuid.UUID]int) (map[uuid.UUID]int, error) {
	resolved := map[uuid.UUID]int{}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.New(apperr.InvalidQuantity,
				"refund quantity must be greater than zero, got %d", line.Quantity).AtLine(i)
		}
		item := findSaleItem(sale, line)
		if item == nil {
			return nil, apperr.New(apperr.ItemNotFound, "refund line does not match any sale item").AtLine(i)
		}
		remaining := item.Quantity - priorQty[item.ID] - resolved[item.ID]
		if line.Quantity > remaining {
			return nil, apperr.New(apperr.RefundExceedsOriginal,
				"refund of %d exceeds remaining refundable quantity %d", line.Quantity, remaining).AtLine(i)
		}
		resolved[item.ID] += line.Quantity
	}
	return resolved, nil
}

func findSaleItem(sale *model.Sale, line RefundLine) *model.SaleItem {
	for i := range sale.Items {
		item := &sale.Items[i]
		switch {
		case line.SaleItemID != nil:
			if item.ID == *line.SaleItemID {
				return item
			}
		case line.ProductID != nil:
			if item.ProductID != nil && *item.ProductID == *line.ProductID {
				return item
			}
		case line.VariantID != nil:
			if item.VariantID != nil && *item.VariantID == *line.VariantID {
				return item
			}
		}
	}
	return nil
}

// restoredPoints computes how many of the loyalty points spent on a sale
// come back with this refund: pro-rata by refunded amount, floored
// cumulatively so partial refunds never over-restore, and topped up to the
// full outstanding balance once the sale is fully refunded.
func restoredPoints(pointsUsed int, priorAmount, refundAmount, totalAmount decimal.Decimal, fullyRefunded bool) int {
	if pointsUsed == 0 {
		return 0
	}
	points := decimal.NewFromInt(int64(pointsUsed))
	priorBack := decimal.Zero
	if totalAmount.IsPositive() {
		priorBack = points.Mul(priorAmount).Div(totalAmount).Floor()
	}
	if fullyRefunded {
		return pointsUsed - int(priorBack.IntPart())
	}
	if !totalAmount.IsPositive() {
		return 0
	}
	cumBack := points.Mul(priorAmount.Add(refundAmount)).Div(totalAmount).Floor()
	return int(cumBack.Sub(priorBack).IntPart())
}

func isFullyRefunded(sale *model.Sale, priorQty, newQty map[uuid.UUID]int) bool {
	for _, item := range sale.Items {
		if priorQty[item.ID]+newQty[item.ID] < item.Quantity {
			return false
		}
	}
	return true
}

func (s *saleService) restoreStock(tx *gorm.DB, sale *model.Sale, resolved map[uuid.UUID]int, refundID uuid.UUID, actor Actor) error {
	// Stable order, same reasoning as the sale commit.
	itemIDs := make([]uuid.UUID, 0, len(resolved))
	for id := range resolved {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i].String() < itemIDs[j].String() })

	for _, itemID := range itemIDs {
		qty := resolved[itemID]
		var item *model.SaleItem
		for i := range sale.Items {
			if sale.Items[i].ID == itemID {
				item = &sale.Items[i]
				break
			}
		}

		adj := &model.InventoryAdjustment{
			QuantityChange: qty,
			Reason:         model.AdjustRefund,
			SaleID:         &sale.ID,
			RefundID:       &refundID,
			AdjustedByID:   actor.ID,
		}
		adj.CreatedBy = actor.ID.String()

		if item.ProductID != nil {
			product, err := s.productRepo.LockByID(tx, *item.ProductID)
			if err != nil {
				return translateDBError(err)
			}
			adj.ProductID = item.ProductID
			adj.PreviousStock = product.StockQuantity
			adj.NewStock = product.StockQuantity + qty
			if err := s.productRepo.UpdateStock(tx, product.ID, adj.NewStock, actor.ID.String()); err != nil {
				return translateDBError(err)
			}
		} else {
			variant, err := s.productRepo.LockVariantByID(tx, *item.VariantID)
			if err != nil {
				return translateDBError(err)
			}
			adj.VariantID = item.VariantID
			adj.PreviousStock = variant.StockQuantity
			adj.NewStock = variant.StockQuantity + qty
			if err := s.productRepo.UpdateVariantStock(tx, variant.ID, adj.NewStock, actor.ID.String()); err != nil {
				return translateDBError(err)
			}
		}
		if err := s.inventoryRepo.Append(tx, adj); err != nil {
			return translateDBError(err)
		}
	}
	return nil
}

func (s *saleService) GetAllSales() ([]model.Sale, error) {
	return s.saleRepo.FindAll()
}

func (s *saleService) GetSaleByID(id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.SaleNotFound, "sale %s not found", id)
		}
		return nil, translateDBError(err)
	}
	return sale, nil
}

func (s *saleService) GetRefundsBySale(saleID uuid.UUID) ([]model.Refund, error) {
	return s.saleRepo.FindRefundsBySale(saleID)
}

func (s *saleService) broadcastStockChange(action, ref string, actor Actor) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":      "stock_update",
		"action":    action,
		"reference": ref,
		"user": map[string]interface{}{
			"id":    actor.ID,
			"name":  actor.Name,
			"email": actor.Email,
		},
	})
}

// generateInvoiceNumber builds a collision-resistant human-facing number.
// Uniqueness is ultimately enforced by the database constraint; callers
// retry with a fresh number on DuplicateEntry.
func generateInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

// translateDBError maps storage errors to the public taxonomy, passing
// already-classified errors through untouched.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	var list apperr.ValidationErrors
	if errors.As(err, &list) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.DuplicateEntry, err, "duplicate entry violates a uniqueness constraint")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.ItemNotFound, err, "record not found")
	}
	return apperr.Wrap(apperr.InternalError, err, "unexpected storage error")
}

func asValidationErrors(err error) apperr.ValidationErrors {
	var list apperr.ValidationErrors
	if errors.As(err, &list) {
		return list
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return apperr.ValidationErrors{appErr}
	}
	return apperr.ValidationErrors{apperr.New(apperr.InternalError, "validation failed")}
}
