package repos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ---------- Read models ----------

type OrderSummary struct {
	ID         string `db:"id"`
	TotalPrice int64  `db:"total_price"`
	CreatedAt  string `db:"created_at"`
	Lines      int    `db:"lines"`
}

type OrderItemRow struct {
	ItemID        string `db:"item_id"`
	Name          string `db:"name"`
	Quantity      int    `db:"quantity"`
	UnitPrice     int64  `db:"unit_price"`
	SubtotalPrice int64  `db:"subtotal_price"`
}

// ---------- Commit ----------

// CommitCart is the single authoritative cart-to-order transition. One
// transaction covers the fresh stock read, the order/order_items
// snapshot, the guarded stock decrements, the cart wipe and the payment
// flip; any failure rolls everything back.
//
// sessionRef may be empty for the synchronous no-gateway flow. When set,
// it is the idempotency key: a session already committed returns the
// existing order id with domain.ErrOrderCommitted and touches nothing.
func (r *OrderRepo) CommitCart(userID, addressID, sessionRef string, taxPct int) (string, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if sessionRef != "" {
		var prev struct {
			Status  string         `db:"status"`
			OrderID sql.NullString `db:"order_id"`
		}
		err := tx.Get(&prev, `SELECT status, order_id FROM payments WHERE session_ref = ?`, sessionRef)
		if err == sql.ErrNoRows {
			return "", domain.ErrPaymentNotFound
		}
		if err != nil {
			return "", err
		}
		if prev.Status == domain.PaymentSucceeded && prev.OrderID.Valid {
			return prev.OrderID.String, domain.ErrOrderCommitted
		}
	}

	// Fresh read of cart + stock inside the transaction; the advisory
	// check that ran before payment carries no authority here.
	type line struct {
		ItemID   string `db:"item_id"`
		Name     string `db:"name"`
		Price    int64  `db:"price"`
		Quantity int    `db:"quantity"`
		Stock    int    `db:"stock"`
	}
	var lines []line
	if err := tx.Select(&lines, `
	  SELECT cl.item_id, i.name, i.price, cl.quantity,
	         COALESCE(s.quantity, 0) AS stock
	  FROM cart_lines cl
	  JOIN items i ON i.id = cl.item_id
	  LEFT JOIN stocks s ON s.item_id = cl.item_id
	  WHERE cl.user_id = ?
	`, userID); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", domain.ErrEmptyCart
	}

	var short []domain.Shortfall
	for _, l := range lines {
		if l.Quantity > l.Stock {
			short = append(short, domain.Shortfall{
				ItemID: l.ItemID, Name: l.Name,
				Requested: l.Quantity, Available: l.Stock,
			})
		}
	}
	if len(short) > 0 {
		return "", &domain.InsufficientStockError{Shortfalls: short}
	}

	var total int64
	for _, l := range lines {
		total += domain.TaxedPrice(l.Price, taxPct) * int64(l.Quantity)
	}

	orderID := uuid.NewString()
	if _, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, address_id, total_price, created_at)
	  VALUES(?,?,?,?,CURRENT_TIMESTAMP)
	`, orderID, userID, addressID, total); err != nil {
		return "", err
	}

	for _, l := range lines {
		unit := domain.TaxedPrice(l.Price, taxPct)
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, item_id, quantity, unit_price, subtotal_price)
		  VALUES(?,?,?,?,?)
		`, orderID, l.ItemID, l.Quantity, unit, unit*int64(l.Quantity)); err != nil {
			return "", err
		}
	}

	for _, l := range lines {
		res, err := tx.Exec(`
		  UPDATE stocks
		  SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		  WHERE item_id = ? AND quantity >= ?
		`, l.Quantity, l.ItemID, l.Quantity)
		if err != nil {
			return "", err
		}
		// The guarded UPDATE is the last line of defense; zero rows here
		// means the fresh read above was overtaken.
		if n, _ := res.RowsAffected(); n == 0 {
			return "", &domain.InsufficientStockError{Shortfalls: []domain.Shortfall{
				{ItemID: l.ItemID, Name: l.Name, Requested: l.Quantity},
			}}
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_lines WHERE user_id = ?`, userID); err != nil {
		return "", err
	}

	if sessionRef != "" {
		if _, err := tx.Exec(`
		  UPDATE payments SET status = 'succeeded', order_id = ?, updated_at = CURRENT_TIMESTAMP
		  WHERE session_ref = ?
		`, orderID, sessionRef); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return orderID, nil
}

// ---------- Order history reader ----------

func (r *OrderRepo) Get(orderID string) (domain.Order, []OrderItemRow, error) {
	var o domain.Order
	if err := r.db.Get(&o, `
	  SELECT id, user_id, address_id, total_price, created_at
	  FROM orders WHERE id = ?
	`, orderID); err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, nil, domain.ErrOrderNotFound
		}
		return domain.Order{}, nil, err
	}

	var items []OrderItemRow
	if err := r.db.Select(&items, `
	  SELECT oi.item_id, i.name, oi.quantity, oi.unit_price, oi.subtotal_price
	  FROM order_items oi
	  JOIN items i ON i.id = oi.item_id
	  WHERE oi.order_id = ?
	  ORDER BY i.name
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}

	return o, items, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	out := []OrderSummary{}
	err := r.db.Select(&out, `
	  SELECT o.id, o.total_price, o.created_at,
	         (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS lines
	  FROM orders o
	  WHERE o.user_id = ?
	  ORDER BY datetime(o.created_at) DESC
	`, userID)
	return out, err
}
