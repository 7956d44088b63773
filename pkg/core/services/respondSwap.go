package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/core/identity"
	"github.com/jakechorley/shift-swap/pkg/db"
)

// RespondToSwap resolves a pending swap request. Accepting transfers the
// shift's ownership fields to the recipient before closing the request;
// declining leaves the shift untouched. Responding to an already-terminal
// request fails without mutating the shift again.
func RespondToSwap(ctx context.Context, database db.SwapEngineStore, logger *zap.Logger, requestID string, accept bool, responder db.Employee) (*db.SwapRequest, error) {
	request, err := database.GetSwapRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load swap request: %w", err)
	}

	if request.Status.Terminal() {
		logger.Warn("Response rejected: request already resolved",
			zap.String("request_id", requestID),
			zap.String("status", string(request.Status)))
		return nil, fmt.Errorf("request %s is %s: %w", requestID, request.Status, ErrNotPending)
	}

	responderID, err := identity.ShortID(responder.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("invalid responder: %w", err)
	}
	if responderID != request.ToShortID {
		return nil, fmt.Errorf("%s is not the recipient of request %s: %w", responderID, requestID, ErrNotRecipient)
	}

	logger.Info("Responding to swap request",
		zap.String("request_id", requestID),
		zap.Bool("accept", accept),
		zap.String("responder", responderID))

	if accept {
		// The embedded snapshot is display-only; the transfer always
		// targets the live shift record.
		shift, err := database.GetShiftByID(ctx, request.ShiftID)
		if err != nil {
			return nil, fmt.Errorf("failed to load shift for transfer: %w", err)
		}

		if err := database.ApplySwapAccept(ctx, request.ID, shift.ID, request.ToShortID, request.ToDisplayName); err != nil {
			return nil, fmt.Errorf("failed to apply swap: %w", err)
		}
		request.Status = db.SwapAccepted

		entry := &db.ActivityLogEntry{
			Kind: db.ActivitySwapAccepted,
			Description: fmt.Sprintf("%s accepted %s's swap: the %s shift on %s is now theirs",
				request.ToDisplayName, request.FromDisplayName, shift.Type, shift.Date),
			ActorID:          responder.ID,
			ActorDisplayName: responder.DisplayName,
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		}
		if err := database.InsertActivity(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record swap acceptance: %w", err)
		}

		logger.Info("Swap accepted, shift transferred",
			zap.String("request_id", requestID),
			zap.String("shift_id", shift.ID),
			zap.String("new_owner", request.ToShortID))
		return request, nil
	}

	if err := database.UpdateSwapStatus(ctx, request.ID, db.SwapDeclined); err != nil {
		return nil, fmt.Errorf("failed to decline swap request: %w", err)
	}
	request.Status = db.SwapDeclined

	entry := &db.ActivityLogEntry{
		Kind:             db.ActivitySwapDeclined,
		Description:      declineDescription(request),
		ActorID:          responder.ID,
		ActorDisplayName: responder.DisplayName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.InsertActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record swap decline: %w", err)
	}

	logger.Info("Swap declined", zap.String("request_id", requestID))
	return request, nil
}

// declineDescription names both parties and the shift. The snapshot may be
// absent if the request was never enriched; the shift itself is untouched
// by a decline so no live read is needed.
func declineDescription(request *db.SwapRequest) string {
	if request.Shift != nil {
		return fmt.Sprintf("%s declined %s's swap request for the %s shift on %s",
			request.ToDisplayName, request.FromDisplayName, request.Shift.Type, request.Shift.Date)
	}
	return fmt.Sprintf("%s declined %s's swap request (shift details unavailable)",
		request.ToDisplayName, request.FromDisplayName)
}
