package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/shift-swap/pkg/db"
)

// GetActivities retrieves all ledger entries, newest first
func (d *DB) GetActivities(ctx context.Context) ([]db.ActivityLogEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, kind, description, actor_id, actor_name, created_at
		FROM activity_log
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []db.ActivityLogEntry
	for rows.Next() {
		var e db.ActivityLogEntry
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Kind, &e.Description, &e.ActorID, &e.ActorDisplayName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		e.Timestamp = createdAt.UTC().Format(time.RFC3339)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log: %w", err)
	}

	return entries, nil
}

// InsertActivity appends one ledger entry
func (d *DB) InsertActivity(ctx context.Context, entry *db.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	createdAt, err := time.Parse(time.RFC3339, entry.Timestamp)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO activity_log (id, kind, description, actor_id, actor_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Kind, entry.Description, entry.ActorID, entry.ActorDisplayName, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}
