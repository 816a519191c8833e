package services

import (
	"github.com/shaido-san/jibie-ec/internal/domain"
	"github.com/shaido-san/jibie-ec/internal/repos"
)

// StockService reconciles cart contents against live stock. Reconcile is
// strictly read-only; Prune is the advisory pre-payment cleanup. Neither
// carries commit authority: CommitCart re-checks inside its transaction.
type StockService struct {
	Carts  *repos.CartRepo
	Stocks *repos.StockRepo
}

func NewStockService(carts *repos.CartRepo, stocks *repos.StockRepo) *StockService {
	return &StockService{Carts: carts, Stocks: stocks}
}

type ReconcileResult struct {
	Satisfiable []repos.CartLineRow
	Shortfalls  []domain.Shortfall
}

func (s *StockService) Reconcile(userID string) (ReconcileResult, error) {
	rows, err := s.Carts.Lines(userID)
	if err != nil {
		return ReconcileResult{}, err
	}
	var res ReconcileResult
	for _, r := range rows {
		if r.Quantity > r.Stock {
			res.Shortfalls = append(res.Shortfalls, domain.Shortfall{
				ItemID: r.ItemID, Name: r.Name,
				Requested: r.Quantity, Available: r.Stock,
			})
			continue
		}
		res.Satisfiable = append(res.Satisfiable, r)
	}
	return res, nil
}

// Prune removes shortfall lines from the cart and reports them, so the
// user can retry before any payment session is opened.
func (s *StockService) Prune(userID string) error {
	res, err := s.Reconcile(userID)
	if err != nil {
		return err
	}
	if len(res.Shortfalls) == 0 {
		return nil
	}
	for _, sf := range res.Shortfalls {
		if err := s.Carts.RemoveLine(userID, sf.ItemID); err != nil && err != domain.ErrLineNotFound {
			return err
		}
	}
	return &domain.InsufficientStockError{Shortfalls: res.Shortfalls}
}
