package services

import (
	"database/sql"

	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/repos"
)

type CartService struct {
	Carts  *repos.CartRepo
	Items  *repos.ItemRepo
	Stocks *repos.StockRepo
	TaxPct int
}

func NewCartService(carts *repos.CartRepo, items *repos.ItemRepo, stocks *repos.StockRepo, taxPct int) *CartService {
	return &CartService{Carts: carts, Items: items, Stocks: stocks, TaxPct: taxPct}
}

// Add increments the user's line by delta after an advisory stock check:
// the resulting line quantity must not exceed currently observed stock.
// The check is best-effort UX only; the commit transaction re-validates.
func (s *CartService) Add(userID, itemID string, delta int) error {
	if delta < 1 {
		delta = 1
	}
	it, err := s.Items.Get(itemID)
	if err != nil {
		return err
	}
	if !it.Published {
		return sql.ErrNoRows
	}
	have, err := s.Stocks.Qty(itemID)
	if err != nil {
		return err
	}
	current, err := s.Carts.LineQty(userID, itemID)
	if err != nil {
		return err
	}
	if current+delta > have {
		return &domain.InsufficientStockError{Shortfalls: []domain.Shortfall{
			{ItemID: itemID, Name: it.Name, Requested: current + delta, Available: have},
		}}
	}
	return s.Carts.AddLine(userID, itemID, delta)
}

func (s *CartService) Remove(userID, itemID string) error {
	return s.Carts.RemoveLine(userID, itemID)
}

type CartLineView struct {
	ItemID   string
	Name     string
	Quantity int
	Unit     int64 // taxed unit price
	Subtotal int64
}

type CartView struct {
	Lines []CartLineView
	Total int64
}

func (s *CartService) View(userID string) (CartView, error) {
	rows, err := s.Carts.Lines(userID)
	if err != nil {
		return CartView{}, err
	}
	cv := CartView{Lines: make([]CartLineView, 0, len(rows))}
	for _, r := range rows {
		unit := domain.TaxedPrice(r.Price, s.TaxPct)
		sub := unit * int64(r.Quantity)
		cv.Lines = append(cv.Lines, CartLineView{
			ItemID: r.ItemID, Name: r.Name, Quantity: r.Quantity,
			Unit: unit, Subtotal: sub,
		})
		cv.Total += sub
	}
	return cv, nil
}
