package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jakechorley/shift-swap/pkg/docstore"
)

// ErrShiftNotFound is returned when a shift id has no record.
var ErrShiftNotFound = errors.New("shift not found")

var shiftDateAsc = docstore.Order{Field: "date"}

// GetShifts retrieves all shift records ordered by date ascending
func (db *DB) GetShifts(ctx context.Context) ([]Shift, error) {
	recs, err := db.store.Query(ctx, CollectionShifts, docstore.Filter{}, &shiftDateAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}
	return fromRecords[Shift](recs)
}

// GetShiftByID retrieves one shift by id
func (db *DB) GetShiftByID(ctx context.Context, id string) (*Shift, error) {
	rec, err := db.store.GetByID(ctx, CollectionShifts, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	var s Shift
	if err := fromRecord(rec, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetShiftsByOwner retrieves the shifts owned by the given short identifier,
// ordered by date ascending. When the store lacks the composite index for
// the filtered+ordered query, it falls back to an unordered filtered fetch
// and sorts client-side, producing identical ordering to the indexed path.
func (db *DB) GetShiftsByOwner(ctx context.Context, shortID string) ([]Shift, error) {
	filter := docstore.Filter{Field: "employeeId", Value: shortID}

	recs, err := db.store.Query(ctx, CollectionShifts, filter, &shiftDateAsc)
	if errors.Is(err, docstore.ErrMissingIndex) {
		recs, err = db.store.Query(ctx, CollectionShifts, filter, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get shifts by owner: %w", err)
		}
		shifts, err := fromRecords[Shift](recs)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(shifts, func(i, j int) bool {
			return shifts[i].Date < shifts[j].Date
		})
		return shifts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts by owner: %w", err)
	}
	return fromRecords[Shift](recs)
}

// InsertShift inserts a new shift record, assigning an id if unset
func (db *DB) InsertShift(ctx context.Context, shift *Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}
	rec, err := toRecord(shift)
	if err != nil {
		return err
	}
	if _, err := db.store.Insert(ctx, CollectionShifts, rec); err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

// UpdateShiftOwner rewrites only the ownership fields of a shift. Date,
// type and times are never touched here.
func (db *DB) UpdateShiftOwner(ctx context.Context, id, shortID, displayName string) error {
	err := db.store.Update(ctx, CollectionShifts, id, docstore.Record{
		"employeeId":   shortID,
		"employeeName": displayName,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to update shift owner: %w", err)
	}
	return nil
}

// UpdateShiftDate rewrites only the date of a shift (manual drag-move).
func (db *DB) UpdateShiftDate(ctx context.Context, id, date string) error {
	err := db.store.Update(ctx, CollectionShifts, id, docstore.Record{
		"date": date,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to update shift date: %w", err)
	}
	return nil
}

// DeleteShift removes a shift record
func (db *DB) DeleteShift(ctx context.Context, id string) error {
	if err := db.store.Delete(ctx, CollectionShifts, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

// SubscribeShifts registers a live view over all shifts, date ascending.
// The callback receives the full updated set on every change.
func (db *DB) SubscribeShifts(ctx context.Context, cb func([]Shift)) (docstore.CancelFunc, error) {
	cancel, err := db.store.Subscribe(ctx, CollectionShifts, docstore.Filter{}, &shiftDateAsc, func(recs []docstore.Record) {
		shifts, err := fromRecords[Shift](recs)
		if err != nil {
			// A malformed record degrades to an empty view rather
			// than crashing the consumer.
			cb(nil)
			return
		}
		cb(shifts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to shifts: %w", err)
	}
	return cancel, nil
}
