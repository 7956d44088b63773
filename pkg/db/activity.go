package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// GetActivities retrieves all ledger entries, newest first
func (db *DB) GetActivities(ctx context.Context) ([]ActivityLogEntry, error) {
	recs, err := db.store.GetAll(ctx, CollectionActivityLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity log: %w", err)
	}
	entries, err := fromRecords[ActivityLogEntry](recs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// InsertActivity appends one ledger entry. Entries are write-once: nothing
// in the codebase updates or deletes them.
func (db *DB) InsertActivity(ctx context.Context, entry *ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	rec, err := toRecord(entry)
	if err != nil {
		return err
	}
	if _, err := db.store.Insert(ctx, CollectionActivityLogs, rec); err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}
