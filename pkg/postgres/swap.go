package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-swap/pkg/db"
	"github.com/jakechorley/shift-swap/pkg/docstore"
)

const swapColumns = `id, from_employee_id, from_employee_name, to_employee_id, to_employee_name, shift_id, shift_snapshot, status, created_at`

func scanSwap(row pgx.Row) (*db.SwapRequest, error) {
	var r db.SwapRequest
	var snapshot []byte
	var createdAt time.Time
	err := row.Scan(&r.ID, &r.FromShortID, &r.FromDisplayName, &r.ToShortID, &r.ToDisplayName,
		&r.ShiftID, &snapshot, &r.Status, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if len(snapshot) > 0 {
		var s db.Shift
		if err := json.Unmarshal(snapshot, &s); err == nil {
			r.Shift = &s
		}
	}
	return &r, nil
}

func (d *DB) querySwaps(ctx context.Context, sql string, args ...any) ([]db.SwapRequest, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests: %w", err)
	}
	defer rows.Close()

	var requests []db.SwapRequest
	for rows.Next() {
		r, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swap request: %w", err)
		}
		requests = append(requests, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swap requests: %w", err)
	}

	return requests, nil
}

// GetSwapRequests retrieves all swap request records
func (d *DB) GetSwapRequests(ctx context.Context) ([]db.SwapRequest, error) {
	return d.querySwaps(ctx, `SELECT `+swapColumns+` FROM swap_request`)
}

// GetSwapRequestByID retrieves one swap request by id
func (d *DB) GetSwapRequestByID(ctx context.Context, id string) (*db.SwapRequest, error) {
	r, err := scanSwap(d.pool.QueryRow(ctx, `
		SELECT `+swapColumns+` FROM swap_request WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrSwapNotFound
		}
		return nil, fmt.Errorf("failed to query swap request: %w", err)
	}
	return r, nil
}

// InsertSwapRequest inserts a new swap request record
func (d *DB) InsertSwapRequest(ctx context.Context, request *db.SwapRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}

	var snapshot []byte
	if request.Shift != nil {
		var err error
		snapshot, err = json.Marshal(request.Shift)
		if err != nil {
			return fmt.Errorf("failed to marshal shift snapshot: %w", err)
		}
	}

	createdAt, err := time.Parse(time.RFC3339, request.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO swap_request (id, from_employee_id, from_employee_name, to_employee_id, to_employee_name, shift_id, shift_snapshot, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, request.ID, request.FromShortID, request.FromDisplayName, request.ToShortID, request.ToDisplayName,
		request.ShiftID, snapshot, request.Status, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

// UpdateSwapStatus sets the status field of a swap request
func (d *DB) UpdateSwapStatus(ctx context.Context, id string, status db.SwapStatus) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE swap_request SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update swap status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrSwapNotFound
	}
	return nil
}

// ApplySwapAccept transfers shift ownership and marks the request accepted
// inside a single transaction, so the transfer and the close cannot come
// apart the way they can on the document store.
func (d *DB) ApplySwapAccept(ctx context.Context, requestID, shiftID, toShortID, toDisplayName string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE shift SET employee_id = $2, employee_name = $3 WHERE id = $1
	`, shiftID, toShortID, toDisplayName)
	if err != nil {
		return fmt.Errorf("failed to transfer shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrShiftNotFound
	}

	tag, err = tx.Exec(ctx, `
		UPDATE swap_request SET status = $2 WHERE id = $1
	`, requestID, db.SwapAccepted)
	if err != nil {
		return fmt.Errorf("failed to close swap request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrSwapNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit swap transaction: %w", err)
	}
	return nil
}

// SubscribeInbox registers a polling live view over the swap requests
// addressed to the given short identifier. Snapshots persisted at request
// time serve as the enrichment source; requests inserted without one are
// backfilled from the shift table per batch.
func (d *DB) SubscribeInbox(ctx context.Context, shortID string, cb func([]db.SwapRequest)) (docstore.CancelFunc, error) {
	fetch := func() ([]db.SwapRequest, error) {
		requests, err := d.querySwaps(ctx, `
			SELECT `+swapColumns+` FROM swap_request WHERE to_employee_id = $1
		`, shortID)
		if err != nil {
			return nil, err
		}
		for i := range requests {
			if requests[i].Shift != nil || requests[i].ShiftID == "" {
				continue
			}
			shift, err := d.GetShiftByID(ctx, requests[i].ShiftID)
			if err != nil {
				continue
			}
			requests[i].Shift = shift
		}
		return requests, nil
	}

	initial, err := fetch()
	if err != nil {
		return nil, err
	}

	return startPoller(initial, cb, fetch), nil
}
