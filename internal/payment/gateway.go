// Package payment isolates the external payment provider behind a small
// interface so nothing in the order path depends on network I/O while a
// data-store transaction is open.
package payment

import "context"

// LineItem is one finalized cart line as the provider sees it: display
// name, tax-inclusive unit amount in JPY, quantity.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// Session is the provider's hosted checkout session. ID is the opaque
// reference later delivered on the success callback.
type Session struct {
	ID          string
	RedirectURL string
}

type Gateway interface {
	CreateSession(ctx context.Context, items []LineItem, successURL, cancelURL string) (Session, error)
}
