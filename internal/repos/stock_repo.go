package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// Qty returns current on-hand quantity for an item. A missing row reads
// as zero stock.
func (r *StockRepo) Qty(itemID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT COALESCE(
		(SELECT quantity FROM stocks WHERE item_id = ?), 0)`, itemID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// Decrement atomically subtracts "by" units if enough stock exists.
// Returns an error when there isn't sufficient stock.
func (r *StockRepo) Decrement(itemID string, by int) error {
	res, err := r.db.Exec(`
		UPDATE stocks
		SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE item_id = ? AND quantity >= ?
	`, by, itemID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("insufficient stock for %s", itemID)
	}
	return nil
}

// UpsertQty sets quantity for an item creating the row if needed (restock).
func (r *StockRepo) UpsertQty(itemID string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO stocks(item_id, quantity, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(item_id) DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP
	`, itemID, qty)
	return err
}
