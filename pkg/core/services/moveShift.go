package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/db"
)

// MoveShift reassigns an existing shift to a new date (the dashboard's
// drag-move). Owner, type and times are unchanged.
func MoveShift(ctx context.Context, database db.ShiftOpsStore, logger *zap.Logger, actor db.Employee, shiftID, newDate string) (*db.Shift, error) {
	if _, err := time.Parse("2006-01-02", newDate); err != nil {
		return nil, fmt.Errorf("invalid shift date %q: %w", newDate, err)
	}

	shift, err := database.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}

	oldDate := shift.Date
	if oldDate == newDate {
		return shift, nil
	}

	if err := database.UpdateShiftDate(ctx, shiftID, newDate); err != nil {
		return nil, fmt.Errorf("failed to move shift: %w", err)
	}
	shift.Date = newDate

	entry := &db.ActivityLogEntry{
		Kind: db.ActivityShiftUpdated,
		Description: fmt.Sprintf("%s's %s shift moved from %s to %s",
			shift.OwnerDisplayName, shift.Type, oldDate, newDate),
		ActorID:          actor.ID,
		ActorDisplayName: actor.DisplayName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.InsertActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record shift move: %w", err)
	}

	logger.Info("Shift moved",
		zap.String("shift_id", shiftID),
		zap.String("from", oldDate),
		zap.String("to", newDate))

	return shift, nil
}

// DeleteShift removes a shift explicitly and records the deletion.
func DeleteShift(ctx context.Context, database db.ShiftOpsStore, logger *zap.Logger, actor db.Employee, shiftID string) error {
	shift, err := database.GetShiftByID(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}

	if err := database.DeleteShift(ctx, shiftID); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}

	entry := &db.ActivityLogEntry{
		Kind: db.ActivityShiftDeleted,
		Description: fmt.Sprintf("%s's %s shift on %s deleted",
			shift.OwnerDisplayName, shift.Type, shift.Date),
		ActorID:          actor.ID,
		ActorDisplayName: actor.DisplayName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.InsertActivity(ctx, entry); err != nil {
		return fmt.Errorf("failed to record shift deletion: %w", err)
	}

	logger.Info("Shift deleted", zap.String("shift_id", shiftID))
	return nil
}
