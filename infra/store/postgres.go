package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/model"
)

const (
	pgMaxOpenConns = 25
	pgMaxIdleConns = 5
	pgConnLifetime = time.Hour
	pgPingTimeout  = 5 * time.Second
)

const pgSchema = `CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    charger_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    energy_kwh DOUBLE PRECISION NOT NULL,
    total_cost DOUBLE PRECISION NOT NULL,
    status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookings_charger ON bookings (charger_id, start_time);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id, end_time);`

// PostgresStore implements booking.Store on a shared Postgres instance.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a pgx/stdlib backed pool, validates the connection
// and ensures schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: empty DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pgPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Reserve implements booking.Store. The conflict check locks the charger's
// blocking rows so two overlapping attempts serialize; the loser sees the
// winner's row.
func (s *PostgresStore) Reserve(ctx context.Context, b model.Booking) (model.Booking, error) {
	if err := b.Validate(); err != nil {
		return model.Booking{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return model.Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT id, start_time, end_time FROM bookings
         WHERE charger_id = $1 AND status IN ('Pending', 'Confirmed')
           AND start_time < $2 AND end_time > $3
         ORDER BY start_time LIMIT 1
         FOR UPDATE`,
		b.ChargerID, b.End, b.Start)
	var blockID string
	var blockStart, blockEnd time.Time
	switch err := row.Scan(&blockID, &blockStart, &blockEnd); {
	case err == nil:
		return model.Booking{}, &booking.ConflictError{
			BookingID: blockID,
			Blocking:  model.Window{Start: blockStart.UTC(), End: blockEnd.UTC()},
		}
	case errors.Is(err, sql.ErrNoRows):
		// interval free
	default:
		return model.Booking{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (id, charger_id, user_id, start_time, end_time, energy_kwh, total_cost, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.ChargerID, b.UserID, b.Start, b.End,
		b.EnergyKWh, b.TotalCost, b.Status.String()); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Get implements booking.Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (model.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, charger_id, user_id, start_time, end_time, energy_kwh, total_cost, status
         FROM bookings WHERE id = $1`, id)
	b, err := scanPgBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, err
}

// Cancel implements booking.Store.
func (s *PostgresStore) Cancel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = 'Cancelled' WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// ActiveByCharger implements booking.Store.
func (s *PostgresStore) ActiveByCharger(ctx context.Context, chargerID string, from, to time.Time) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, charger_id, user_id, start_time, end_time, energy_kwh, total_cost, status
         FROM bookings
         WHERE charger_id = $1 AND status IN ('Pending', 'Confirmed')
           AND start_time < $2 AND end_time > $3
         ORDER BY start_time`,
		chargerID, to, from)
	if err != nil {
		return nil, err
	}
	return collectPgBookings(rows)
}

// UpcomingByUser implements booking.Store.
func (s *PostgresStore) UpcomingByUser(ctx context.Context, userID string, after time.Time, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, charger_id, user_id, start_time, end_time, energy_kwh, total_cost, status
         FROM bookings
         WHERE user_id = $1 AND end_time > $2
         ORDER BY start_time LIMIT $3`,
		userID, after, limit)
	if err != nil {
		return nil, err
	}
	return collectPgBookings(rows)
}

// ClearHistory implements booking.Store.
func (s *PostgresStore) ClearHistory(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE user_id = $1 AND status IN ('Completed', 'Cancelled')`,
		userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close implements booking.Store.
func (s *PostgresStore) Close() error { return s.db.Close() }

func scanPgBooking(row rowScanner) (model.Booking, error) {
	var b model.Booking
	var start, end time.Time
	var status string
	if err := row.Scan(&b.ID, &b.ChargerID, &b.UserID, &start, &end,
		&b.EnergyKWh, &b.TotalCost, &status); err != nil {
		return model.Booking{}, err
	}
	st, err := model.ParseBookingStatus(status)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = st
	b.Start = start.UTC()
	b.End = end.UTC()
	return b, nil
}

func collectPgBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer func() { _ = rows.Close() }()
	var out []model.Booking
	for rows.Next() {
		b, err := scanPgBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
