package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-swap/pkg/db"
	"github.com/jakechorley/shift-swap/pkg/docstore"
)

const shiftColumns = `id, employee_id, employee_name, date, type, start_time, end_time`

func scanShift(row pgx.Row) (*db.Shift, error) {
	var s db.Shift
	var date time.Time
	if err := row.Scan(&s.ID, &s.OwnerShortID, &s.OwnerDisplayName, &date, &s.Type, &s.StartTime, &s.EndTime); err != nil {
		return nil, err
	}
	s.Date = date.Format("2006-01-02")
	return &s, nil
}

func (d *DB) queryShifts(ctx context.Context, sql string, args ...any) ([]db.Shift, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []db.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// GetShifts retrieves all shift records ordered by date ascending
func (d *DB) GetShifts(ctx context.Context) ([]db.Shift, error) {
	return d.queryShifts(ctx, `
		SELECT `+shiftColumns+` FROM shift ORDER BY date ASC
	`)
}

// GetShiftByID retrieves one shift by id
func (d *DB) GetShiftByID(ctx context.Context, id string) (*db.Shift, error) {
	s, err := scanShift(d.pool.QueryRow(ctx, `
		SELECT `+shiftColumns+` FROM shift WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to query shift: %w", err)
	}
	return s, nil
}

// GetShiftsByOwner retrieves the shifts owned by the given short identifier,
// ordered by date ascending. SQL serves the filtered+ordered query directly;
// no fallback path is needed here.
func (d *DB) GetShiftsByOwner(ctx context.Context, shortID string) ([]db.Shift, error) {
	return d.queryShifts(ctx, `
		SELECT `+shiftColumns+` FROM shift WHERE employee_id = $1 ORDER BY date ASC
	`, shortID)
}

// InsertShift inserts a new shift record
func (d *DB) InsertShift(ctx context.Context, shift *db.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO shift (id, employee_id, employee_name, date, type, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, shift.ID, shift.OwnerShortID, shift.OwnerDisplayName, shift.Date, shift.Type, shift.StartTime, shift.EndTime)
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

// UpdateShiftOwner rewrites only the ownership fields of a shift
func (d *DB) UpdateShiftOwner(ctx context.Context, id, shortID, displayName string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift SET employee_id = $2, employee_name = $3 WHERE id = $1
	`, id, shortID, displayName)
	if err != nil {
		return fmt.Errorf("failed to update shift owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrShiftNotFound
	}
	return nil
}

// UpdateShiftDate rewrites only the date of a shift
func (d *DB) UpdateShiftDate(ctx context.Context, id, date string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift SET date = $2 WHERE id = $1
	`, id, date)
	if err != nil {
		return fmt.Errorf("failed to update shift date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrShiftNotFound
	}
	return nil
}

// DeleteShift removes a shift record
func (d *DB) DeleteShift(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM shift WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrShiftNotFound
	}
	return nil
}

// SubscribeShifts registers a polling live view over all shifts. SQL has no
// native push channel here, so the poller re-reads the table and delivers a
// batch whenever the result set changes.
func (d *DB) SubscribeShifts(ctx context.Context, cb func([]db.Shift)) (docstore.CancelFunc, error) {
	initial, err := d.GetShifts(ctx)
	if err != nil {
		return nil, err
	}

	return startPoller(initial, cb, func() ([]db.Shift, error) {
		return d.GetShifts(ctx)
	}), nil
}
