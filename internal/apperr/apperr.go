package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error classification returned to clients.
type Kind string

const (
	InvalidLineItem            Kind = "InvalidLineItem"
	ItemNotFound               Kind = "ItemNotFound"
	InvalidQuantity            Kind = "InvalidQuantity"
	InsufficientStock          Kind = "InsufficientStock"
	InsufficientLoyaltyBalance Kind = "InsufficientLoyaltyBalance"
	InvalidDiscount            Kind = "InvalidDiscount"
	ConcurrentStockConflict    Kind = "ConcurrentStockConflict"
	DuplicateEntry             Kind = "DuplicateEntry"
	SaleNotFound               Kind = "SaleNotFound"
	RefundExceedsOriginal      Kind = "RefundExceedsOriginal"
	Unauthorized               Kind = "Unauthorized"
	InternalError              Kind = "InternalError"
)

// Error carries a kind plus a human-readable message.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Line is the zero-based cart line index for per-line validation errors.
	Line *int `json:"line,omitempty"`
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error without exposing its detail in Message.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// AtLine tags a validation error with its cart line index.
func (e *Error) AtLine(i int) *Error {
	e.Line = &i
	return e
}

// KindOf extracts the kind from any error, defaulting to InternalError.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var list ValidationErrors
	if errors.As(err, &list) {
		return list.Kind()
	}
	return InternalError
}

// HTTPStatus maps an error kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidLineItem, InvalidQuantity, InvalidDiscount,
		InsufficientStock, InsufficientLoyaltyBalance, RefundExceedsOriginal:
		return 400
	case Unauthorized:
		return 403
	case ItemNotFound, SaleNotFound:
		return 404
	case ConcurrentStockConflict, DuplicateEntry:
		return 409
	default:
		return 500
	}
}

// ValidationErrors is the batch of all failures found in one cart. Validation
// deliberately collects every error instead of failing fast so the client can
// fix the whole cart in one round trip.
type ValidationErrors []*Error

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "validation failed"
	case 1:
		return v[0].Error()
	}
	return fmt.Sprintf("%s (and %d more validation errors)", v[0].Error(), len(v)-1)
}

// Kind returns the kind of the first error in the batch.
func (v ValidationErrors) Kind() Kind {
	if len(v) == 0 {
		return InternalError
	}
	return v[0].Kind
}
