package service

import (
	"errors"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdjustStockRequest is a manual signed stock correction.
type AdjustStockRequest struct {
	ProductID      *uuid.UUID             `json:"product_id,omitempty"`
	VariantID      *uuid.UUID             `json:"variant_id,omitempty"`
	QuantityChange int                    `json:"quantity_change"`
	Reason         model.AdjustmentReason `json:"reason"`
	Note           string                 `json:"note"`
}

type PurchaseLine struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// PurchaseRequest records received supplier stock.
type PurchaseRequest struct {
	SupplierID uuid.UUID      `json:"supplier_id" validate:"uuid_required"`
	Items      []PurchaseLine `json:"items" validate:"required,min=1"`
	Note       string         `json:"note"`
}

type InventoryService interface {
	AdjustStock(req AdjustStockRequest, actor Actor) (*model.InventoryAdjustment, error)
	ReceivePurchase(req PurchaseRequest, actor Actor) ([]model.InventoryAdjustment, error)
	ListAdjustments(filter repository.AdjustmentFilter) ([]model.InventoryAdjustment, error)
}

type inventoryService struct {
	productRepo   repository.ProductRepository
	supplierRepo  repository.SupplierRepository
	inventoryRepo repository.InventoryRepository
	db            *gorm.DB
	wsHub         *ws.Hub
}

func NewInventoryService(
	pRepo repository.ProductRepository,
	sRepo repository.SupplierRepository,
	iRepo repository.InventoryRepository,
	db *gorm.DB,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		productRepo:   pRepo,
		supplierRepo:  sRepo,
		inventoryRepo: iRepo,
		db:            db,
		wsHub:         hub,
	}
}

func (s *inventoryService) AdjustStock(req AdjustStockRequest, actor Actor) (*model.InventoryAdjustment, error) {
	if (req.ProductID == nil) == (req.VariantID == nil) {
		return nil, apperr.New(apperr.InvalidLineItem, "exactly one of product_id or variant_id must be set")
	}
	if req.QuantityChange == 0 {
		return nil, apperr.New(apperr.InvalidQuantity, "quantity change must not be zero")
	}
	if req.Reason != model.AdjustManual && req.Reason != model.AdjustDamage {
		return nil, apperr.New(apperr.InvalidLineItem, "manual adjustments must use reason MANUAL or DAMAGE")
	}

	var adj *model.InventoryAdjustment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		adj, err = s.applyDelta(tx, req.ProductID, req.VariantID, req.QuantityChange, req.Reason, req.Note, nil, actor)
		return err
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	s.broadcast("stock_adjusted", actor)
	return adj, nil
}

func (s *inventoryService) ReceivePurchase(req PurchaseRequest, actor Actor) ([]model.InventoryAdjustment, error) {
	supplier, err := s.supplierRepo.FindByID(req.SupplierID)
	if err != nil || !supplier.IsActive {
		return nil, apperr.New(apperr.ItemNotFound, "supplier not found or inactive")
	}
	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.InvalidLineItem, "purchase must contain at least one line")
	}

	var adjustments []model.InventoryAdjustment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, line := range req.Items {
			if (line.ProductID == nil) == (line.VariantID == nil) {
				return apperr.New(apperr.InvalidLineItem,
					"exactly one of product_id or variant_id must be set").AtLine(i)
			}
			if line.Quantity <= 0 {
				return apperr.New(apperr.InvalidQuantity,
					"quantity must be greater than zero, got %d", line.Quantity).AtLine(i)
			}
			adj, err := s.applyDelta(tx, line.ProductID, line.VariantID, line.Quantity,
				model.AdjustPurchase, req.Note, &supplier.ID, actor)
			if err != nil {
				return err
			}
			adjustments = append(adjustments, *adj)
		}
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	s.broadcast("purchase_received", actor)
	return adjustments, nil
}

// applyDelta locks the stock row, applies a signed change, and appends the
// matching ledger entry. Stock may never go negative.
func (s *inventoryService) applyDelta(tx *gorm.DB, productID, variantID *uuid.UUID, change int,
	reason model.AdjustmentReason, note string, supplierID *uuid.UUID, actor Actor) (*model.InventoryAdjustment, error) {

	adj := &model.InventoryAdjustment{
		QuantityChange: change,
		Reason:         reason,
		Note:           note,
		SupplierID:     supplierID,
		AdjustedByID:   actor.ID,
	}
	adj.CreatedBy = actor.ID.String()

	if productID != nil {
		product, err := s.productRepo.LockByID(tx, *productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.ItemNotFound, "product %s not found", productID)
			}
			return nil, translateDBError(err)
		}
		newStock := product.StockQuantity + change
		if newStock < 0 {
			return nil, apperr.New(apperr.InsufficientStock,
				"%s: adjustment of %d would take stock below zero (current %d)",
				product.SKU, change, product.StockQuantity)
		}
		adj.ProductID = productID
		adj.PreviousStock = product.StockQuantity
		adj.NewStock = newStock
		if err := s.productRepo.UpdateStock(tx, product.ID, newStock, actor.ID.String()); err != nil {
			return nil, translateDBError(err)
		}
	} else {
		variant, err := s.productRepo.LockVariantByID(tx, *variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.ItemNotFound, "variant %s not found", variantID)
			}
			return nil, translateDBError(err)
		}
		newStock := variant.StockQuantity + change
		if newStock < 0 {
			return nil, apperr.New(apperr.InsufficientStock,
				"%s: adjustment of %d would take stock below zero (current %d)",
				variant.SKU, change, variant.StockQuantity)
		}
		adj.VariantID = variantID
		adj.PreviousStock = variant.StockQuantity
		adj.NewStock = newStock
		if err := s.productRepo.UpdateVariantStock(tx, variant.ID, newStock, actor.ID.String()); err != nil {
			return nil, translateDBError(err)
		}
	}

	if err := s.inventoryRepo.Append(tx, adj); err != nil {
		return nil, translateDBError(err)
	}
	return adj, nil
}

func (s *inventoryService) ListAdjustments(filter repository.AdjustmentFilter) ([]model.InventoryAdjustment, error) {
	return s.inventoryRepo.FindAll(filter)
}

func (s *inventoryService) broadcast(action string, actor Actor) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":   "stock_update",
		"action": action,
		"user": map[string]interface{}{
			"id":    actor.ID,
			"name":  actor.Name,
			"email": actor.Email,
		},
	})
}
