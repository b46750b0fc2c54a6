package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkhub/internal/db"
)

const parkingColumns = `id, vehicle_number, slot_code, user_id, entry_time, exit_time, paid, paid_amount, created_at`

type PgParkingRepository struct {
	DB *sql.DB
}

func NewPgParkingRepository(sqlDB *sql.DB) *PgParkingRepository {
	return &PgParkingRepository{DB: sqlDB}
}

func (r *PgParkingRepository) Create(ctx context.Context, session *db.ParkingSession) error {
	query := `
		INSERT INTO parkings (vehicle_number, slot_code, user_id, entry_time, exit_time, paid, paid_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		session.VehicleNumber, session.SlotCode, session.UserID,
		session.EntryTime, session.ExitTime, session.Paid, session.PaidAmount,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting parking session: %w", err)
	}
	return nil
}

// LatestBySlot returns the most recent session row for a slot, the same
// "latest insert wins" rule the receipt and payment fallbacks rely on.
func (r *PgParkingRepository) LatestBySlot(ctx context.Context, slotCode string) (*db.ParkingSession, error) {
	query := `SELECT ` + parkingColumns + `
		FROM parkings WHERE slot_code = $1 ORDER BY id DESC LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, slotCode)
	return scanParking(row)
}

func (r *PgParkingRepository) SetExitAndAmount(ctx context.Context, id int, exit time.Time, amount int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE parkings SET exit_time = $1, paid_amount = $2 WHERE id = $3`,
		exit, amount, id)
	if err != nil {
		return fmt.Errorf("updating parking session %d: %w", id, err)
	}
	return nil
}

func (r *PgParkingRepository) MarkPaid(ctx context.Context, id int, exit time.Time, amount int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE parkings SET exit_time = $1, paid = TRUE, paid_amount = $2 WHERE id = $3`,
		exit, amount, id)
	if err != nil {
		return fmt.Errorf("marking parking session %d paid: %w", id, err)
	}
	return nil
}

func (r *PgParkingRepository) OpenSessions(ctx context.Context) ([]db.ParkingSession, error) {
	query := `
		SELECT DISTINCT ON (slot_code) ` + parkingColumns + `
		FROM parkings
		ORDER BY slot_code, id DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []db.ParkingSession
	for rows.Next() {
		session, err := scanParking(rows)
		if err != nil {
			return nil, err
		}
		if !session.Paid {
			sessions = append(sessions, *session)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating open sessions: %w", err)
	}
	return sessions, nil
}

func (r *PgParkingRepository) SumPaidAmount(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(paid_amount), 0) FROM parkings WHERE paid = TRUE`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing revenue: %w", err)
	}
	return total, nil
}

func (r *PgParkingRepository) RecentPaid(ctx context.Context, limit int) ([]db.ParkingSession, error) {
	query := `SELECT ` + parkingColumns + `
		FROM parkings WHERE paid = TRUE ORDER BY id DESC LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent payments: %w", err)
	}
	defer rows.Close()

	var sessions []db.ParkingSession
	for rows.Next() {
		session, err := scanParking(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent payments: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanParking(row rowScanner) (*db.ParkingSession, error) {
	var session db.ParkingSession
	var exit sql.NullTime
	err := row.Scan(
		&session.ID, &session.VehicleNumber, &session.SlotCode, &session.UserID,
		&session.EntryTime, &exit, &session.Paid, &session.PaidAmount, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning parking session: %w", err)
	}
	if exit.Valid {
		t := exit.Time
		session.ExitTime = &t
	}
	return &session, nil
}
