package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type PgSlotRepository struct {
	DB *sql.DB
}

func NewPgSlotRepository(sqlDB *sql.DB) *PgSlotRepository {
	return &PgSlotRepository{DB: sqlDB}
}

// Seed inserts the canonical slot codes as free slots, skipping codes that
// already exist. Safe to run on every startup.
func (r *PgSlotRepository) Seed(ctx context.Context, codes []string) error {
	query := `
		INSERT INTO slots (code, status)
		SELECT unnest($1::text[]), 'free'
		ON CONFLICT (code) DO NOTHING`
	if _, err := r.DB.ExecContext(ctx, query, pq.Array(codes)); err != nil {
		return fmt.Errorf("seeding slots: %w", err)
	}
	return nil
}

func (r *PgSlotRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting slots: %w", err)
	}
	return count, nil
}

func (r *PgSlotRepository) UpdateStatus(ctx context.Context, code, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE slots SET status = $1 WHERE code = $2`, status, code)
	if err != nil {
		return fmt.Errorf("updating slot %s status: %w", code, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
