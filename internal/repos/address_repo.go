package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/domain"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

func (r *AddressRepo) Create(a domain.Address) error {
	_, err := r.db.Exec(`
	  INSERT INTO addresses(id, user_id, postal_code, address, name, phone, created_at)
	  VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, a.ID, a.UserID, a.PostalCode, a.Address, a.Name, a.Phone)
	return err
}

func (r *AddressRepo) ByID(id string) (domain.Address, error) {
	var a domain.Address
	err := r.db.Get(&a, `
	  SELECT id, user_id, postal_code, address, name, phone, created_at
	  FROM addresses WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return a, err
}

func (r *AddressRepo) ListByUser(userID string) ([]domain.Address, error) {
	out := []domain.Address{}
	err := r.db.Select(&out, `
	  SELECT id, user_id, postal_code, address, name, phone, created_at
	  FROM addresses WHERE user_id = ?
	  ORDER BY created_at DESC
	`, userID)
	return out, err
}
