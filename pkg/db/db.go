package db

import (
	"encoding/json"
	"fmt"

	"github.com/jakechorley/shift-swap/pkg/docstore"
)

// Logical collection names in the backing document store.
const (
	CollectionEmployees    = "employees"
	CollectionShifts       = "shifts"
	CollectionSwapRequests = "swapRequests"
	CollectionActivityLogs = "activityLogs"
)

// ShiftIndex is the composite index the shifts collection needs to serve
// the by-owner date-ordered query in a single pass. Stores opened without
// it fall back to a client-side sort in GetShiftsByOwner.
var ShiftIndex = docstore.CompositeIndex{
	Collection:  CollectionShifts,
	FilterField: "employeeId",
	OrderField:  "date",
}

// DB provides typed database operations over an abstract document store.
type DB struct {
	store docstore.Store
}

// NewDB creates a new database instance over the given store.
func NewDB(store docstore.Store) *DB {
	return &DB{store: store}
}

// Store returns the underlying document store.
func (db *DB) Store() docstore.Store {
	return db.store
}

// toRecord converts a typed model into a plain key/value record.
func toRecord(v any) (docstore.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var rec docstore.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to build record: %w", err)
	}
	return rec, nil
}

// fromRecord converts a plain record back into a typed model.
func fromRecord(rec docstore.Record, v any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func fromRecords[T any](recs []docstore.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := fromRecord(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
