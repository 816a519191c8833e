package repos

import (
	"github.com/jmoiron/sqlx"

	"github.com/shaido-san/jibie-ec/internal/domain"
)

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

func (r *ItemRepo) ListPublished() ([]domain.Item, error) {
	var out []domain.Item
	err := r.db.Select(&out, `
	  SELECT id, name, COALESCE(description,'') AS description, price, published,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM items
	  WHERE published = 1
	  ORDER BY created_at DESC
	`)
	return out, err
}

func (r *ItemRepo) Get(id string) (domain.Item, error) {
	var it domain.Item
	err := r.db.Get(&it, `
	  SELECT id, name, COALESCE(description,'') AS description, price, published,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM items
	  WHERE id = ?
	`, id)
	return it, err
}
