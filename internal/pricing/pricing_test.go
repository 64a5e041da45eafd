package pricing

import (
	"testing"

	"go-pos-api/internal/apperr"

	"github.com/shopspring/decimal"
)

func testConfig() Config {
	return Config{
		TaxRate:         decimal.NewFromFloat(0.10),
		PointValue:      decimal.NewFromInt(1),
		EarnPer:         decimal.NewFromInt(100),
		RewardValidDays: 365,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeSimpleCart(t *testing.T) {
	// 2 x 100.00 at 10% tax, no customer
	q, err := Compute(testConfig(), []Line{
		{UnitPrice: dec("100.00"), Quantity: 2},
	}, decimal.Zero, 0, false)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !q.Subtotal.Equal(dec("200.00")) {
		t.Errorf("subtotal = %s, want 200.00", q.Subtotal)
	}
	if !q.TaxAmount.Equal(dec("20.00")) {
		t.Errorf("tax = %s, want 20.00", q.TaxAmount)
	}
	if !q.TotalAmount.Equal(dec("220.00")) {
		t.Errorf("total = %s, want 220.00", q.TotalAmount)
	}
	if q.PointsEarned != 0 {
		t.Errorf("points earned = %d for walk-in, want 0", q.PointsEarned)
	}
}

func TestComputeTotalIdentity(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("19.99"), Quantity: 3, LineDiscount: dec("2.50")},
		{UnitPrice: dec("0.75"), Quantity: 7},
		{UnitPrice: dec("149.00"), Quantity: 1, LineDiscount: dec("10.00")},
	}
	q, err := Compute(testConfig(), lines, dec("5.00"), 10, true)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	want := q.Subtotal.Add(q.TaxAmount).Sub(q.DiscountAmount).Sub(q.LoyaltyDiscount)
	if !q.TotalAmount.Equal(want.Round(2)) {
		t.Errorf("total %s != subtotal+tax-discount-loyalty %s", q.TotalAmount, want)
	}
}

func TestComputeRoundsHalfUpPerStep(t *testing.T) {
	// 3 x 0.335 = 1.005, rounded per line to 1.01 before aggregation
	cfg := testConfig()
	cfg.TaxRate = decimal.Zero
	q, err := Compute(cfg, []Line{
		{UnitPrice: dec("0.335"), Quantity: 3},
	}, decimal.Zero, 0, false)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !q.Subtotal.Equal(dec("1.01")) {
		t.Errorf("subtotal = %s, want 1.01", q.Subtotal)
	}
}

func TestComputeLoyaltyDiscount(t *testing.T) {
	cfg := testConfig()
	cfg.PointValue = dec("0.50")
	q, err := Compute(cfg, []Line{
		{UnitPrice: dec("100.00"), Quantity: 1},
	}, decimal.Zero, 20, true)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !q.LoyaltyDiscount.Equal(dec("10.00")) {
		t.Errorf("loyalty discount = %s, want 10.00", q.LoyaltyDiscount)
	}
	if !q.TotalAmount.Equal(dec("100.00")) {
		t.Errorf("total = %s, want 100.00", q.TotalAmount)
	}
	// 100.00 / 100 earn-per = 1 point
	if q.PointsEarned != 1 {
		t.Errorf("points earned = %d, want 1", q.PointsEarned)
	}
}

func TestComputeRejectsExcessiveDiscount(t *testing.T) {
	_, err := Compute(testConfig(), []Line{
		{UnitPrice: dec("10.00"), Quantity: 1},
	}, dec("50.00"), 0, false)
	if err == nil {
		t.Fatal("expected InvalidDiscount error")
	}
	if apperr.KindOf(err) != apperr.InvalidDiscount {
		t.Errorf("kind = %s, want InvalidDiscount", apperr.KindOf(err))
	}
}

func TestComputeZeroTotalAllowed(t *testing.T) {
	// Discount exactly consumes subtotal+tax: clamps at zero, no error.
	q, err := Compute(testConfig(), []Line{
		{UnitPrice: dec("10.00"), Quantity: 1},
	}, dec("11.00"), 0, false)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !q.TotalAmount.IsZero() {
		t.Errorf("total = %s, want 0", q.TotalAmount)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	lines := []Line{{UnitPrice: dec("33.33"), Quantity: 3, LineDiscount: dec("0.99")}}
	a, err := Compute(testConfig(), lines, dec("1.00"), 5, true)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	b, err := Compute(testConfig(), lines, dec("1.00"), 5, true)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if !a.TotalAmount.Equal(b.TotalAmount) || a.PointsEarned != b.PointsEarned {
		t.Errorf("recomputation differs: %+v vs %+v", a, b)
	}
}
