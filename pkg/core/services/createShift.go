package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/core/identity"
	"github.com/jakechorley/shift-swap/pkg/db"
)

// CreateShift manually assigns a shift of the given type on the given date
// to the owner. The one-shift-per-day rule is advisory at this layer: a
// same-day clash is logged and reported back, not blocked, and the
// consistency checker will surface it.
func CreateShift(ctx context.Context, database db.ShiftOpsStore, logger *zap.Logger, actor, owner db.Employee, date string, shiftType db.ShiftType) (*db.Shift, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid shift date %q: %w", date, err)
	}
	if !shiftType.Valid() {
		return nil, fmt.Errorf("invalid shift type %q", shiftType)
	}

	ownerID, err := identity.ShortID(owner.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("invalid owner: %w", err)
	}

	existing, err := database.GetShiftsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing shifts: %w", err)
	}
	for _, s := range existing {
		if s.Date == date {
			logger.Warn("Owner already has a shift on this date",
				zap.String("owner", ownerID),
				zap.String("date", date),
				zap.String("existing_shift", s.ID))
		}
	}

	start, end := shiftType.Times()
	shift := &db.Shift{
		OwnerShortID:     ownerID,
		OwnerDisplayName: owner.DisplayName,
		Date:             date,
		Type:             shiftType,
		StartTime:        start,
		EndTime:          end,
	}

	if err := database.InsertShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to insert shift: %w", err)
	}

	entry := &db.ActivityLogEntry{
		Kind: db.ActivityShiftCreated,
		Description: fmt.Sprintf("%s shift on %s assigned to %s",
			shiftType, date, owner.DisplayName),
		ActorID:          actor.ID,
		ActorDisplayName: actor.DisplayName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.InsertActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record shift creation: %w", err)
	}

	logger.Info("Shift created",
		zap.String("shift_id", shift.ID),
		zap.String("owner", ownerID),
		zap.String("date", date),
		zap.String("type", string(shiftType)))

	return shift, nil
}
