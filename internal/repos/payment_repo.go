package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/domain"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreatePending records a freshly initiated checkout session.
func (r *PaymentRepo) CreatePending(id, sessionRef, userID, addressID string) error {
	_, err := r.db.Exec(`
	  INSERT INTO payments(id, session_ref, user_id, address_id, status, created_at)
	  VALUES(?,?,?,?, 'pending', CURRENT_TIMESTAMP)
	`, id, sessionRef, userID, addressID)
	return err
}

func (r *PaymentRepo) BySessionRef(sessionRef string) (domain.PaymentRecord, error) {
	var p domain.PaymentRecord
	err := r.db.Get(&p, `
	  SELECT id, session_ref, user_id, address_id, order_id, status,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM payments WHERE session_ref = ?
	`, sessionRef)
	if err == sql.ErrNoRows {
		return domain.PaymentRecord{}, domain.ErrPaymentNotFound
	}
	return p, err
}

// MarkFailed is used when the provider reports a failed or canceled session.
func (r *PaymentRepo) MarkFailed(sessionRef string) error {
	_, err := r.db.Exec(`
	  UPDATE payments SET status = 'failed', updated_at = CURRENT_TIMESTAMP
	  WHERE session_ref = ? AND status = 'pending'
	`, sessionRef)
	return err
}
