package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGroupStockDeltasMergesDuplicateLines(t *testing.T) {
	coffee := newProduct("COFFEE-1KG", "150.00", 50)
	tea := newProduct("TEA-250G", "45.50", 50)

	deltas := groupStockDeltas([]ValidatedLine{
		{Product: coffee, Quantity: 2},
		{Product: tea, Quantity: 1},
		{Product: coffee, Quantity: 3}, // same row again
	})
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
	byID := map[uuid.UUID]int{}
	for _, d := range deltas {
		byID[*d.productID] = d.quantity
	}
	if byID[coffee.ID] != 5 {
		t.Errorf("coffee delta = %d, want 5", byID[coffee.ID])
	}
	if byID[tea.ID] != 1 {
		t.Errorf("tea delta = %d, want 1", byID[tea.ID])
	}
}

// Lock order must be deterministic regardless of cart order, otherwise two
// concurrent sales touching the same rows can deadlock each other.
func TestGroupStockDeltasStableOrder(t *testing.T) {
	a := newProduct("A", "1.00", 10)
	b := newProduct("B", "1.00", 10)

	first := groupStockDeltas([]ValidatedLine{
		{Product: a, Quantity: 1},
		{Product: b, Quantity: 1},
	})
	second := groupStockDeltas([]ValidatedLine{
		{Product: b, Quantity: 1},
		{Product: a, Quantity: 1},
	})
	for i := range first {
		if *first[i].productID != *second[i].productID {
			t.Fatalf("lock order differs at %d: %s vs %s", i, first[i].productID, second[i].productID)
		}
	}
}

func saleWithItems(items ...model.SaleItem) *model.Sale {
	return &model.Sale{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Items:     items,
	}
}

func saleItem(productID uuid.UUID, qty int) model.SaleItem {
	return model.SaleItem{
		BaseModel: model.BaseModel{ID: uuid.New()},
		ProductID: &productID,
		Quantity:  qty,
	}
}

func TestResolveRefundLinesWithinBound(t *testing.T) {
	productID := uuid.New()
	item := saleItem(productID, 5)
	sale := saleWithItems(item)

	resolved, err := resolveRefundLines(sale, []RefundLine{
		{SaleItemID: &item.ID, Quantity: 3},
	}, map[uuid.UUID]int{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved[item.ID] != 3 {
		t.Errorf("resolved quantity = %d, want 3", resolved[item.ID])
	}
}

func TestResolveRefundLinesMatchesByProduct(t *testing.T) {
	productID := uuid.New()
	item := saleItem(productID, 2)
	sale := saleWithItems(item)

	resolved, err := resolveRefundLines(sale, []RefundLine{
		{ProductID: &productID, Quantity: 2},
	}, map[uuid.UUID]int{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved[item.ID] != 2 {
		t.Errorf("resolved quantity = %d, want 2", resolved[item.ID])
	}
}

// Prior refunds and duplicate lines in the same request both count against
// the refundable quantity.
func TestResolveRefundLinesEnforcesBound(t *testing.T) {
	productID := uuid.New()
	item := saleItem(productID, 5)
	sale := saleWithItems(item)

	// 2 already refunded, so only 3 remain.
	_, err := resolveRefundLines(sale, []RefundLine{
		{SaleItemID: &item.ID, Quantity: 4},
	}, map[uuid.UUID]int{item.ID: 2})
	if apperr.KindOf(err) != apperr.RefundExceedsOriginal {
		t.Errorf("kind = %s, want RefundExceedsOriginal", apperr.KindOf(err))
	}

	// Two lines against the same item accumulate.
	_, err = resolveRefundLines(sale, []RefundLine{
		{SaleItemID: &item.ID, Quantity: 3},
		{SaleItemID: &item.ID, Quantity: 3},
	}, map[uuid.UUID]int{})
	if apperr.KindOf(err) != apperr.RefundExceedsOriginal {
		t.Errorf("kind = %s, want RefundExceedsOriginal", apperr.KindOf(err))
	}
}

func TestResolveRefundLinesRejectsUnknownItem(t *testing.T) {
	sale := saleWithItems(saleItem(uuid.New(), 1))
	stray := uuid.New()

	_, err := resolveRefundLines(sale, []RefundLine{
		{SaleItemID: &stray, Quantity: 1},
	}, map[uuid.UUID]int{})
	if apperr.KindOf(err) != apperr.ItemNotFound {
		t.Errorf("kind = %s, want ItemNotFound", apperr.KindOf(err))
	}

	_, err = resolveRefundLines(sale, []RefundLine{
		{SaleItemID: &stray, Quantity: 0},
	}, map[uuid.UUID]int{})
	if apperr.KindOf(err) != apperr.InvalidQuantity {
		t.Errorf("kind = %s, want InvalidQuantity", apperr.KindOf(err))
	}
}

func TestIsFullyRefunded(t *testing.T) {
	a := saleItem(uuid.New(), 2)
	b := saleItem(uuid.New(), 3)
	sale := saleWithItems(a, b)

	if isFullyRefunded(sale, map[uuid.UUID]int{a.ID: 2}, map[uuid.UUID]int{}) {
		t.Error("partially refunded sale reported as fully refunded")
	}
	if !isFullyRefunded(sale, map[uuid.UUID]int{a.ID: 2}, map[uuid.UUID]int{b.ID: 3}) {
		t.Error("fully refunded sale not detected")
	}
}

// Points spent as payment come back with refunds: pro-rata on partials,
// everything outstanding on a full refund, never more than was spent.
func TestRestoredPoints(t *testing.T) {
	total := dec("100.00")
	cases := []struct {
		name          string
		pointsUsed    int
		prior, amount string
		full          bool
		want          int
	}{
		{"full refund returns all", 50, "0.00", "100.00", true, 50},
		{"partial pro-rata", 50, "0.00", "30.00", false, 15},
		{"second partial continues pro-rata", 50, "30.00", "30.00", false, 15},
		{"final refund returns remainder", 50, "60.00", "40.00", true, 20},
		{"no points used", 0, "0.00", "100.00", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := restoredPoints(tc.pointsUsed, dec(tc.prior), dec(tc.amount), total, tc.full)
			if got != tc.want {
				t.Errorf("restoredPoints = %d, want %d", got, tc.want)
			}
		})
	}
}

// Flooring each partial refund must still sum to exactly the points used
// once the whole amount is back.
func TestRestoredPointsSumsAcrossPartials(t *testing.T) {
	total := dec("3.00")
	used := 10

	first := restoredPoints(used, dec("0.00"), dec("1.00"), total, false)
	second := restoredPoints(used, dec("1.00"), dec("1.00"), total, false)
	last := restoredPoints(used, dec("2.00"), dec("1.00"), total, true)
	if sum := first + second + last; sum != used {
		t.Errorf("restores sum to %d (%d+%d+%d), want %d", sum, first, second, last, used)
	}
}

func TestRestoredPointsZeroTotal(t *testing.T) {
	if got := restoredPoints(10, dec("0.00"), dec("0.00"), dec("0.00"), false); got != 0 {
		t.Errorf("partial refund of zero-total sale restored %d points, want 0", got)
	}
	if got := restoredPoints(10, dec("0.00"), dec("0.00"), dec("0.00"), true); got != 10 {
		t.Errorf("full refund of zero-total sale restored %d points, want 10", got)
	}
}

func TestGenerateInvoiceNumberFormat(t *testing.T) {
	now := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^INV-20260901-[0-9A-F]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		inv := generateInvoiceNumber(now)
		if !pattern.MatchString(inv) {
			t.Fatalf("invoice %q does not match expected format", inv)
		}
		if seen[inv] {
			t.Fatalf("invoice %q generated twice in 100 draws", inv)
		}
		seen[inv] = true
	}
}

func TestTranslateDBError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want apperr.Kind
	}{
		{"nil passthrough", nil, ""},
		{"duplicate key", gorm.ErrDuplicatedKey, apperr.DuplicateEntry},
		{"record not found", gorm.ErrRecordNotFound, apperr.ItemNotFound},
		{"classified error untouched", apperr.New(apperr.ConcurrentStockConflict, "stock changed"), apperr.ConcurrentStockConflict},
		{"unknown becomes internal", errors.New("connection reset"), apperr.InternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateDBError(tc.in)
			if tc.in == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if apperr.KindOf(got) != tc.want {
				t.Errorf("kind = %s, want %s", apperr.KindOf(got), tc.want)
			}
		})
	}
}
