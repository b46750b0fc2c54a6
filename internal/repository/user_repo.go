package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"parkhub/internal/db"
)

type PgUserRepository struct {
	DB *sql.DB
}

func NewPgUserRepository(sqlDB *sql.DB) *PgUserRepository {
	return &PgUserRepository{DB: sqlDB}
}

func (r *PgUserRepository) Create(ctx context.Context, user *db.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, phone)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Phone,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *PgUserRepository) FindByID(ctx context.Context, id int) (*db.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*db.User, error) {
	return r.findOne(ctx, `WHERE username = $1`, username)
}

func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *PgUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*db.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, COALESCE(phone, ''), created_at
		FROM users ` + where
	var user db.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.Phone, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password for user %d: %w", id, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
