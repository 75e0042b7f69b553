package postgres

import (
	"context"
	"database/sql"
	"errors"

	"uniscan/domain/core"
	"uniscan/domain/promoter"
	"uniscan/ports"

	"github.com/jmoiron/sqlx"
)

// PromoterRepositoryImpl implements PromoterRepository for PostgreSQL.
// The table holds at most one row (id = 1).
type PromoterRepositoryImpl struct {
	db *sqlx.DB
}

// NewPromoterRepository creates a new PostgreSQL promoter repository
func NewPromoterRepository(db *sqlx.DB) ports.PromoterRepository {
	return &PromoterRepositoryImpl{db: db}
}

func (r *PromoterRepositoryImpl) Get(ctx context.Context) (*promoter.Profile, error) {
	var p promoter.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, full_name, phone, email, territory, updated_at
		FROM promoter_profiles WHERE id = 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromoterRepositoryImpl) Upsert(ctx context.Context, p *promoter.Profile) (*promoter.Profile, error) {
	var out promoter.Profile
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO promoter_profiles (id, full_name, phone, email, territory, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			territory = EXCLUDED.territory,
			updated_at = NOW()
		RETURNING id, full_name, phone, email, territory, updated_at
	`, p.FullName, p.Phone, p.Email, p.Territory)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
