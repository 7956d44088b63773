package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jakechorley/shift-swap/pkg/docstore"
)

// ErrSwapNotFound is returned when a swap request id has no record.
var ErrSwapNotFound = errors.New("swap request not found")

// GetSwapRequests retrieves all swap request records
func (db *DB) GetSwapRequests(ctx context.Context) ([]SwapRequest, error) {
	recs, err := db.store.GetAll(ctx, CollectionSwapRequests)
	if err != nil {
		return nil, fmt.Errorf("failed to get swap requests: %w", err)
	}
	return fromRecords[SwapRequest](recs)
}

// GetSwapRequestByID retrieves one swap request by id
func (db *DB) GetSwapRequestByID(ctx context.Context, id string) (*SwapRequest, error) {
	rec, err := db.store.GetByID(ctx, CollectionSwapRequests, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrSwapNotFound
		}
		return nil, fmt.Errorf("failed to get swap request: %w", err)
	}
	var r SwapRequest
	if err := fromRecord(rec, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertSwapRequest inserts a new swap request record, assigning an id if unset
func (db *DB) InsertSwapRequest(ctx context.Context, request *SwapRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	rec, err := toRecord(request)
	if err != nil {
		return err
	}
	if _, err := db.store.Insert(ctx, CollectionSwapRequests, rec); err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

// UpdateSwapStatus sets the status field of a swap request
func (db *DB) UpdateSwapStatus(ctx context.Context, id string, status SwapStatus) error {
	err := db.store.Update(ctx, CollectionSwapRequests, id, docstore.Record{
		"status": string(status),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrSwapNotFound
		}
		return fmt.Errorf("failed to update swap status: %w", err)
	}
	return nil
}

// ApplySwapAccept transfers shift ownership and marks the request accepted.
// The document store has no multi-document transaction, so the two writes
// run sequentially: shift first, then status. A crash between them leaves a
// pending request against an already-transferred shift, which the
// consistency checker surfaces. The postgres backend performs the same pair
// inside a single transaction.
func (db *DB) ApplySwapAccept(ctx context.Context, requestID, shiftID, toShortID, toDisplayName string) error {
	if err := db.UpdateShiftOwner(ctx, shiftID, toShortID, toDisplayName); err != nil {
		return err
	}
	if err := db.UpdateSwapStatus(ctx, requestID, SwapAccepted); err != nil {
		return fmt.Errorf("shift transferred but request not closed: %w", err)
	}
	return nil
}

// SubscribeInbox registers a live view over the swap requests addressed to
// the given short identifier. Every batch is enriched before delivery: any
// request lacking its embedded shift snapshot gets a concurrent lookup by
// shift id, degrading to a nil snapshot when the shift has been deleted.
// The callback never fires after cancellation.
func (db *DB) SubscribeInbox(ctx context.Context, shortID string, cb func([]SwapRequest)) (docstore.CancelFunc, error) {
	filter := docstore.Filter{Field: "toEmployeeId", Value: shortID}

	var alive atomic.Bool
	alive.Store(true)

	cancel, err := db.store.Subscribe(ctx, CollectionSwapRequests, filter, nil, func(recs []docstore.Record) {
		requests, err := fromRecords[SwapRequest](recs)
		if err != nil {
			if alive.Load() {
				cb(nil)
			}
			return
		}

		db.enrichRequests(ctx, requests)

		if alive.Load() {
			cb(requests)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to inbox: %w", err)
	}

	return func() {
		alive.Store(false)
		cancel()
	}, nil
}

// enrichRequests backfills missing shift snapshots concurrently and waits
// for every lookup to resolve or fail open before returning.
func (db *DB) enrichRequests(ctx context.Context, requests []SwapRequest) {
	var wg sync.WaitGroup
	for i := range requests {
		if requests[i].Shift != nil || requests[i].ShiftID == "" {
			continue
		}
		wg.Add(1)
		go func(req *SwapRequest) {
			defer wg.Done()
			shift, err := db.GetShiftByID(ctx, req.ShiftID)
			if err != nil {
				// Shift deleted after the request was created:
				// details stay unavailable.
				return
			}
			req.Shift = shift
		}(&requests[i])
	}
	wg.Wait()
}
