package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/core/identity"
	"github.com/jakechorley/shift-swap/pkg/db"
)

// Notifier delivers out-of-band notifications to employees. A nil notifier
// disables notifications without affecting the request itself.
type Notifier interface {
	SendEmail(to, subject, body string) error
}

// RequestSwap creates a pending swap request from one employee to another
// for the given shift. Both participants are correlated by their derived
// short identifiers, never by durable account id. The shift is re-read
// from the live store and ownership is re-validated before persisting, so
// a request can never be created for a shift the requester no longer owns.
func RequestSwap(ctx context.Context, database db.SwapEngineStore, logger *zap.Logger, notifier Notifier, from, to db.Employee, shiftID string) (*db.SwapRequest, error) {
	fromID, err := identity.ShortID(from.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("invalid requester: %w", err)
	}
	toID, err := identity.ShortID(to.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	if fromID == toID {
		return nil, ErrSelfSwap
	}

	logger.Info("Creating swap request",
		zap.String("from", fromID),
		zap.String("to", toID),
		zap.String("shift_id", shiftID))

	// Always the live record, never a cached snapshot, for ownership checks.
	shift, err := database.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.OwnerShortID != fromID {
		logger.Warn("Swap request rejected: requester does not own shift",
			zap.String("requester", fromID),
			zap.String("owner", shift.OwnerShortID))
		return nil, ErrNotOwner
	}

	// Reject a second pending request for the same pair.
	existing, err := database.GetSwapRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}
	for _, req := range existing {
		if req.Status == db.SwapPending && req.FromShortID == fromID && req.ToShortID == toID {
			logger.Warn("Swap request rejected: duplicate pending request",
				zap.String("existing_id", req.ID))
			return nil, ErrDuplicateRequest
		}
	}

	snapshot := *shift
	request := &db.SwapRequest{
		FromShortID:     fromID,
		FromDisplayName: from.DisplayName,
		ToShortID:       toID,
		ToDisplayName:   to.DisplayName,
		ShiftID:         shift.ID,
		Shift:           &snapshot,
		Status:          db.SwapPending,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if err := database.InsertSwapRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to insert swap request: %w", err)
	}

	entry := &db.ActivityLogEntry{
		Kind: db.ActivitySwapRequested,
		Description: fmt.Sprintf("%s asked %s to take the %s shift on %s",
			from.DisplayName, to.DisplayName, shift.Type, shift.Date),
		ActorID:          from.ID,
		ActorDisplayName: from.DisplayName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.InsertActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record swap request activity: %w", err)
	}

	logger.Info("Swap request created",
		zap.String("request_id", request.ID),
		zap.String("from", fromID),
		zap.String("to", toID))

	// Notification failures never fail the request.
	if notifier != nil && to.Email != "" {
		subject := fmt.Sprintf("Shift swap request from %s", from.DisplayName)
		body := fmt.Sprintf(
			"Hi %s,\n\n%s has asked you to take their %s shift on %s (%s - %s).\n\nOpen the dashboard to accept or decline.\n",
			to.DisplayName, from.DisplayName, shift.Type, shift.Date, shift.StartTime, shift.EndTime)
		if err := notifier.SendEmail(to.Email, subject, body); err != nil {
			logger.Warn("Failed to notify swap recipient",
				zap.String("email", to.Email),
				zap.Error(err))
		}
	}

	return request, nil
}
