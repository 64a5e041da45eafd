package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorsMessage(t *testing.T) {
	cases := []struct {
		name string
		errs ValidationErrors
		want string
	}{
		{"empty batch", ValidationErrors{}, "validation failed"},
		{"single", ValidationErrors{New(InvalidQuantity, "quantity must be positive")},
			"InvalidQuantity: quantity must be positive"},
		{"batch", ValidationErrors{
			New(InvalidQuantity, "quantity must be positive"),
			New(ItemNotFound, "product missing"),
		}, "InvalidQuantity: quantity must be positive (and 1 more validation errors)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.errs.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(InsufficientStock, "short")); got != InsufficientStock {
		t.Errorf("KindOf = %s, want InsufficientStock", got)
	}
	wrapped := fmt.Errorf("handling request: %w", New(SaleNotFound, "gone"))
	if got := KindOf(wrapped); got != SaleNotFound {
		t.Errorf("KindOf wrapped = %s, want SaleNotFound", got)
	}
	if got := KindOf(ValidationErrors{New(InvalidDiscount, "too big")}); got != InvalidDiscount {
		t.Errorf("KindOf batch = %s, want InvalidDiscount", got)
	}
	if got := KindOf(ValidationErrors{}); got != InternalError {
		t.Errorf("KindOf empty batch = %s, want InternalError", got)
	}
	if got := KindOf(errors.New("boom")); got != InternalError {
		t.Errorf("KindOf plain = %s, want InternalError", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidLineItem:            400,
		InsufficientStock:          400,
		RefundExceedsOriginal:      400,
		Unauthorized:               403,
		ItemNotFound:               404,
		SaleNotFound:               404,
		ConcurrentStockConflict:    409,
		DuplicateEntry:             409,
		InternalError:              500,
		InsufficientLoyaltyBalance: 400,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}
