package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLineRow is a cart line joined with its item and current stock,
// used both for the cart page and for reconciliation.
type CartLineRow struct {
	ItemID   string `db:"item_id"`
	Name     string `db:"name"`
	Price    int64  `db:"price"`
	Quantity int    `db:"quantity"`
	Stock    int    `db:"stock"`
}

func (r *CartRepo) Lines(userID string) ([]CartLineRow, error) {
	rows := []CartLineRow{}
	err := r.db.Select(&rows, `
	  SELECT cl.item_id, i.name, i.price, cl.quantity,
	         COALESCE(s.quantity, 0) AS stock
	  FROM cart_lines cl
	  JOIN items i ON i.id = cl.item_id
	  LEFT JOIN stocks s ON s.item_id = cl.item_id
	  WHERE cl.user_id = ?
	  ORDER BY cl.created_at
	`, userID)
	return rows, err
}

// LineQty returns the quantity already in the user's cart for an item,
// zero when no line exists.
func (r *CartRepo) LineQty(userID, itemID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT quantity FROM cart_lines WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return qty, err
}

// AddLine creates the line with quantity=delta or increments an existing one.
func (r *CartRepo) AddLine(userID, itemID string, delta int) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_lines(user_id, item_id, quantity, created_at)
		VALUES(?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, item_id) DO UPDATE
		SET quantity = cart_lines.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP
	`, userID, itemID, delta)
	return err
}

func (r *CartRepo) RemoveLine(userID, itemID string) error {
	res, err := r.db.Exec(`DELETE FROM cart_lines WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *CartRepo) Clear(userID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_lines WHERE user_id = ?`, userID)
	return err
}
