package pricing

import (
	"os"
	"strconv"

	"go-pos-api/internal/apperr"

	"github.com/shopspring/decimal"
)

// Config holds the injected monetary policy. Rates are never hardcoded at
// call sites; main loads them from the environment once at boot.
type Config struct {
	TaxRate         decimal.Decimal // e.g. 0.10 for 10%
	PointValue      decimal.Decimal // monetary value of one loyalty point
	EarnPer         decimal.Decimal // spend required to earn one point
	RewardValidDays int
}

// ConfigFromEnv reads pricing policy from env vars with sane defaults.
func ConfigFromEnv() Config {
	cfg := Config{
		TaxRate:         decimal.NewFromFloat(0.10),
		PointValue:      decimal.NewFromInt(1),
		EarnPer:         decimal.NewFromInt(100),
		RewardValidDays: 365,
	}
	if v := os.Getenv("TAX_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.TaxRate = d
		}
	}
	if v := os.Getenv("LOYALTY_POINT_VALUE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.PointValue = d
		}
	}
	if v := os.Getenv("LOYALTY_EARN_PER"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			cfg.EarnPer = d
		}
	}
	if v := os.Getenv("LOYALTY_EXPIRY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RewardValidDays = n
		}
	}
	return cfg
}

// Line is one priced cart line.
type Line struct {
	UnitPrice    decimal.Decimal
	Quantity     int
	LineDiscount decimal.Decimal
}

// Quote is the final monetary breakdown of a cart.
type Quote struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	LoyaltyDiscount decimal.Decimal `json:"loyalty_discount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PointsEarned    int             `json:"points_earned"`
}

// round applies the house rule: half-up to 2 decimal places at every
// aggregation step so re-computation always reproduces the stored totals.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal prices a single line (unitPrice*qty - lineDiscount).
func LineTotal(l Line) decimal.Decimal {
	qty := decimal.NewFromInt(int64(l.Quantity))
	return round(l.UnitPrice.Mul(qty).Sub(l.LineDiscount))
}

// Compute derives the full quote. Pure: no I/O, no mutation of inputs.
// pointsUsed must already be validated against the customer balance.
func Compute(cfg Config, lines []Line, discount decimal.Decimal, pointsUsed int, hasCustomer bool) (*Quote, error) {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l))
	}
	subtotal = round(subtotal)

	tax := round(subtotal.Mul(cfg.TaxRate))
	loyaltyDiscount := round(cfg.PointValue.Mul(decimal.NewFromInt(int64(pointsUsed))))

	total := subtotal.Add(tax).Sub(discount).Sub(loyaltyDiscount)
	if total.IsNegative() {
		return nil, apperr.New(apperr.InvalidDiscount,
			"discount %s exceeds payable amount %s",
			round(discount.Add(loyaltyDiscount)), subtotal.Add(tax))
	}
	total = round(total)

	q := &Quote{
		Subtotal:        subtotal,
		TaxAmount:       tax,
		DiscountAmount:  round(discount),
		LoyaltyDiscount: loyaltyDiscount,
		TotalAmount:     total,
	}
	if hasCustomer && cfg.EarnPer.IsPositive() {
		q.PointsEarned = int(total.Div(cfg.EarnPer).IntPart())
	}
	return q, nil
}
