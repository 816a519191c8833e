package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/payment"
	"github.com/shaido-san/jibie-ec/internal/repos"
)

type OrderService struct {
	Carts    *repos.CartRepo
	Addrs    *repos.AddressRepo
	Orders   *repos.OrderRepo
	Payments *repos.PaymentRepo
	Recon    *StockService
	Gateway  payment.Gateway // nil enables the synchronous no-provider flow
	TaxPct   int
}

func NewOrderService(carts *repos.CartRepo, addrs *repos.AddressRepo, orders *repos.OrderRepo,
	payments *repos.PaymentRepo, recon *StockService, gw payment.Gateway, taxPct int) *OrderService {
	return &OrderService{
		Carts: carts, Addrs: addrs, Orders: orders,
		Payments: payments, Recon: recon, Gateway: gw, TaxPct: taxPct,
	}
}

// checkAddress resolves the address and enforces ownership.
func (s *OrderService) checkAddress(userID, addressID string) error {
	addr, err := s.Addrs.ByID(addressID)
	if err != nil {
		return err
	}
	if addr.UserID != userID {
		return domain.ErrForbidden
	}
	return nil
}

// StartCheckout runs the advisory reconciliation, opens a hosted payment
// session and records it as pending. The gateway call happens with no
// transaction open; nothing but the pending payment row is written.
func (s *OrderService) StartCheckout(ctx context.Context, userID, addressID, successURL, cancelURL string) (string, error) {
	if err := s.checkAddress(userID, addressID); err != nil {
		return "", err
	}

	rows, err := s.Carts.Lines(userID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", domain.ErrEmptyCart
	}

	// Advisory prune: drop shortfall lines now so the user retries before
	// the provider is ever involved.
	if err := s.Recon.Prune(userID); err != nil {
		return "", err
	}

	rows, err = s.Carts.Lines(userID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", domain.ErrEmptyCart
	}

	items := make([]payment.LineItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, payment.LineItem{
			Name:       r.Name,
			UnitAmount: domain.TaxedPrice(r.Price, s.TaxPct),
			Quantity:   int64(r.Quantity),
		})
	}

	sess, err := s.Gateway.CreateSession(ctx, items, successURL, cancelURL)
	if err != nil {
		var pe *domain.PaymentProviderError
		if errors.As(err, &pe) {
			return "", err
		}
		return "", &domain.PaymentProviderError{Err: err}
	}

	if err := s.Payments.CreatePending(uuid.NewString(), sess.ID, userID, addressID); err != nil {
		return "", err
	}
	return sess.RedirectURL, nil
}

// Confirm handles the provider success callback. Idempotent per session:
// a duplicate delivery returns the already-created order id.
func (s *OrderService) Confirm(sessionRef string) (string, error) {
	pay, err := s.Payments.BySessionRef(sessionRef)
	if err != nil {
		return "", err
	}
	orderID, err := s.Orders.CommitCart(pay.UserID, pay.AddressID, sessionRef, s.TaxPct)
	if errors.Is(err, domain.ErrOrderCommitted) {
		return orderID, nil
	}
	return orderID, err
}

// Cancel marks an abandoned session failed; the cart is left untouched.
func (s *OrderService) Cancel(sessionRef string) error {
	return s.Payments.MarkFailed(sessionRef)
}

// PlaceDirect commits without an external provider (synchronous flow,
// also the path used when no gateway is configured).
func (s *OrderService) PlaceDirect(userID, addressID string) (string, error) {
	if err := s.checkAddress(userID, addressID); err != nil {
		return "", err
	}
	return s.Orders.CommitCart(userID, addressID, "", s.TaxPct)
}

// History lists the user's past orders, newest first.
func (s *OrderService) History(userID string) ([]repos.OrderSummary, error) {
	return s.Orders.ListByUser(userID)
}

// Get returns an order with its lines, enforcing ownership.
func (s *OrderService) Get(userID, orderID string) (domain.Order, []repos.OrderItemRow, error) {
	o, items, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if o.UserID != userID {
		return domain.Order{}, nil, domain.ErrForbidden
	}
	return o, items, nil
}
