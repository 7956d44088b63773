package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Record is a single document: plain structured key/value data.
type Record map[string]any

// Filter matches records by field equality. The zero value matches everything.
type Filter struct {
	Field string
	Value any
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(rec Record) bool {
	if f.Field == "" {
		return true
	}
	return rec[f.Field] == f.Value
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Field == ""
}

// Order sorts results by a single field.
type Order struct {
	Field      string
	Descending bool
}

// CancelFunc stops a subscription. After it returns, no further callbacks fire.
type CancelFunc func()

// ErrNotFound is returned when a record id does not exist in a collection.
var ErrNotFound = errors.New("record not found")

// ErrMissingIndex is returned by Query when the store cannot serve a
// filtered+ordered query together. Callers are expected to re-query
// without the order and sort client-side.
var ErrMissingIndex = errors.New("no composite index for filtered ordered query")

// StoreError wraps any other failure from the store boundary.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store is the minimal document-store capability set the core consumes.
// Subscriptions deliver the full matching result set on every change.
type Store interface {
	Insert(ctx context.Context, collection string, rec Record) (string, error)
	GetAll(ctx context.Context, collection string) ([]Record, error)
	GetByID(ctx context.Context, collection, id string) (Record, error)
	Update(ctx context.Context, collection, id string, fields Record) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter Filter, order *Order) ([]Record, error)
	Subscribe(ctx context.Context, collection string, filter Filter, order *Order, cb func([]Record)) (CancelFunc, error)
}
