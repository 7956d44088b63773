package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// CompositeIndex declares that a collection can serve a query filtered on
// FilterField and ordered on OrderField in a single pass. Filtered+ordered
// queries without a declared index fail with ErrMissingIndex, mirroring
// document stores that require composite indexes to be provisioned up front.
type CompositeIndex struct {
	Collection  string
	FilterField string
	OrderField  string
}

// MemoryStore is an in-memory live-sync document store with optional JSON
// file snapshot persistence. Mutations push the full updated result set to
// every matching subscription.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Record
	indexes     map[CompositeIndex]bool
	subs        map[int]*subscriber
	nextSubID   int
	path        string
}

type subscriber struct {
	collection string
	filter     Filter
	order      *Order
	updates    chan []Record
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryStore creates a memory store. If path is non-empty, the store
// loads its initial state from that file and writes a snapshot after every
// mutation. Declared indexes enable filtered+ordered queries per collection.
func NewMemoryStore(path string, indexes ...CompositeIndex) (*MemoryStore, error) {
	s := &MemoryStore{
		collections: make(map[string]map[string]Record),
		indexes:     make(map[CompositeIndex]bool),
		subs:        make(map[int]*subscriber),
		path:        path,
	}
	for _, idx := range indexes {
		s.indexes[idx] = true
	}

	if path != "" {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load store snapshot: %w", err)
		}
	}

	return s, nil
}

// Insert adds a record and returns its id. A pre-set "id" field is honoured,
// otherwise a fresh uuid is assigned.
func (s *MemoryStore) Insert(ctx context.Context, collection string, rec Record) (string, error) {
	s.mu.Lock()

	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}

	stored := copyRecord(rec)
	stored["id"] = id

	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]Record)
		s.collections[collection] = coll
	}
	coll[id] = stored

	if err := s.persistLocked(); err != nil {
		s.mu.Unlock()
		return "", &StoreError{Op: "insert", Collection: collection, Err: err}
	}

	s.notifyLocked(collection)
	s.mu.Unlock()
	return id, nil
}

// GetAll returns every record in the collection, in unspecified order.
func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	out := make([]Record, 0, len(coll))
	for _, rec := range coll {
		out = append(out, copyRecord(rec))
	}
	return out, nil
}

// GetByID returns the record with the given id, or ErrNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// Update merges the given fields into an existing record.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Record) error {
	s.mu.Lock()

	rec, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		rec[k] = v
	}

	if err := s.persistLocked(); err != nil {
		s.mu.Unlock()
		return &StoreError{Op: "update", Collection: collection, Err: err}
	}

	s.notifyLocked(collection)
	s.mu.Unlock()
	return nil
}

// Delete removes a record by id.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()

	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.collections[collection], id)

	if err := s.persistLocked(); err != nil {
		s.mu.Unlock()
		return &StoreError{Op: "delete", Collection: collection, Err: err}
	}

	s.notifyLocked(collection)
	s.mu.Unlock()
	return nil
}

// Query returns the records matching the filter, sorted when an order is
// given. A filtered+ordered query requires a declared composite index.
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter, order *Order) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !filter.IsZero() && order != nil {
		idx := CompositeIndex{Collection: collection, FilterField: filter.Field, OrderField: order.Field}
		if !s.indexes[idx] {
			return nil, ErrMissingIndex
		}
	}

	return s.snapshotLocked(collection, filter, order), nil
}

// Subscribe registers a live view over the collection. The callback receives
// the current matching set immediately and the full updated set after every
// change. Callbacks fire sequentially; cancellation stops further delivery.
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filter Filter, order *Order, cb func([]Record)) (CancelFunc, error) {
	sub := &subscriber{
		collection: collection,
		filter:     filter,
		order:      order,
		updates:    make(chan []Record, 1),
		done:       make(chan struct{}),
	}

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	initial := s.snapshotLocked(collection, filter, order)
	s.mu.Unlock()

	sub.push(initial)

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case batch := <-sub.updates:
				// Re-check liveness so a cancel that raced the send
				// suppresses the callback.
				select {
				case <-sub.done:
					return
				default:
				}
				cb(batch)
			}
		}
	}()

	cancel := func() {
		sub.closeOnce.Do(func() { close(sub.done) })
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return cancel, nil
}

// push queues a batch, coalescing with any undelivered one. Each delivered
// batch is a complete consistent snapshot, so dropping a superseded
// intermediate set is observably equivalent.
func (sub *subscriber) push(batch []Record) {
	for {
		select {
		case sub.updates <- batch:
			return
		default:
			select {
			case <-sub.updates:
			default:
			}
		}
	}
}

func (s *MemoryStore) notifyLocked(collection string) {
	for _, sub := range s.subs {
		if sub.collection != collection {
			continue
		}
		sub.push(s.snapshotLocked(collection, sub.filter, sub.order))
	}
}

func (s *MemoryStore) snapshotLocked(collection string, filter Filter, order *Order) []Record {
	out := make([]Record, 0)
	for _, rec := range s.collections[collection] {
		if filter.Matches(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	if order != nil {
		sortRecords(out, *order)
	}
	return out
}

func sortRecords(recs []Record, order Order) {
	sort.SliceStable(recs, func(i, j int) bool {
		if order.Descending {
			return lessValue(recs[j][order.Field], recs[i][order.Field])
		}
		return lessValue(recs[i][order.Field], recs[j][order.Field])
	})
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case int:
		bv, ok := b.(int)
		return ok && av < bv
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.collections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &s.collections); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return nil
}
