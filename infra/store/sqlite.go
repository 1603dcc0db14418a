// Package store provides the persistent booking.Store implementations:
// SQLite for single-node deployments and Postgres for shared ones. Both
// enforce the conflict guard inside a transaction so concurrent reservation
// attempts on one charger serialize on the database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smartev/scheduler/core/booking"
	"github.com/smartev/scheduler/core/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    charger_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    start_ts INTEGER NOT NULL,
    end_ts INTEGER NOT NULL,
    energy_kwh REAL NOT NULL,
    total_cost REAL NOT NULL,
    status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookings_charger ON bookings (charger_id, start_ts);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id, end_ts);`

// SQLiteStore implements booking.Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite locks the whole file per writer; a single connection avoids
	// SQLITE_BUSY between concurrent reservations.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Reserve implements booking.Store. The overlap check and the insert run in
// one transaction.
func (s *SQLiteStore) Reserve(ctx context.Context, b model.Booking) (model.Booking, error) {
	if err := b.Validate(); err != nil {
		return model.Booking{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT id, start_ts, end_ts FROM bookings
         WHERE charger_id = ? AND status IN ('Pending', 'Confirmed')
           AND start_ts < ? AND end_ts > ?
         ORDER BY start_ts LIMIT 1`,
		b.ChargerID, b.End.Unix(), b.Start.Unix())
	var blockID string
	var blockStart, blockEnd int64
	switch err := row.Scan(&blockID, &blockStart, &blockEnd); {
	case err == nil:
		return model.Booking{}, &booking.ConflictError{
			BookingID: blockID,
			Blocking: model.Window{
				Start: time.Unix(blockStart, 0).UTC(),
				End:   time.Unix(blockEnd, 0).UTC(),
			},
		}
	case errors.Is(err, sql.ErrNoRows):
		// interval free
	default:
		return model.Booking{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (id, charger_id, user_id, start_ts, end_ts, energy_kwh, total_cost, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ChargerID, b.UserID, b.Start.Unix(), b.End.Unix(),
		b.EnergyKWh, b.TotalCost, b.Status.String()); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Get implements booking.Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, charger_id, user_id, start_ts, end_ts, energy_kwh, total_cost, status
         FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, err
}

// Cancel implements booking.Store.
func (s *SQLiteStore) Cancel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = 'Cancelled' WHERE id = ?`, id)
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
func (s *SQLiteStore) ActiveByCharger(ctx context.Context, chargerID string, from, to time.Time) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, charger_id, user_id, start_ts, end_ts, energy_kwh, total_cost, status
         FROM bookings
         WHERE charger_id = ? AND status IN ('Pending', 'Confirmed')
           AND start_ts < ? AND end_ts > ?
         ORDER BY start_ts`,
		chargerID, to.Unix(), from.Unix())
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// UpcomingByUser implements booking.Store.
func (s *SQLiteStore) UpcomingByUser(ctx context.Context, userID string, after time.Time, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, charger_id, user_id, start_ts, end_ts, energy_kwh, total_cost, status
         FROM bookings
         WHERE user_id = ? AND end_ts > ?
         ORDER BY start_ts LIMIT ?`,
		userID, after.Unix(), limit)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ClearHistory implements booking.Store.
func (s *SQLiteStore) ClearHistory(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE user_id = ? AND status IN ('Completed', 'Cancelled')`,
		userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close implements booking.Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var b model.Booking
	var startTS, endTS int64
	var status string
	if err := row.Scan(&b.ID, &b.ChargerID, &b.UserID, &startTS, &endTS,
		&b.EnergyKWh, &b.TotalCost, &status); err != nil {
		return model.Booking{}, err
	}
	st, err := model.ParseBookingStatus(status)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = st
	b.Start = time.Unix(startTS, 0).UTC()
	b.End = time.Unix(endTS, 0).UTC()
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer func() { _ = rows.Close() }()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
