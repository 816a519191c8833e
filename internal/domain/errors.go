package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrForbidden       = errors.New("forbidden")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment session not found")

	// ErrOrderCommitted signals a duplicate payment confirmation; the
	// caller gets the already-created order id alongside it.
	ErrOrderCommitted = errors.New("order already committed")
)

// Shortfall is a cart line whose requested quantity exceeds current stock.
type Shortfall struct {
	ItemID    string
	Name      string
	Requested int
	Available int
}

type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (want %d, have %d)", s.ItemID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// PaymentProviderError wraps a failure from the external payment
// provider. Nothing has been mutated when it is returned.
type PaymentProviderError struct {
	Err error
}

func (e *PaymentProviderError) Error() string {
	return "payment provider: " + e.Err.Error()
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }
