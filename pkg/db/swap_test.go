package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func insertPendingRequest(t *testing.T, database *DB, shiftID string) *SwapRequest {
	t.Helper()
	request := &SwapRequest{
		FromShortID: "john",
		ToShortID:   "sarah",
		ShiftID:     shiftID,
		Status:      SwapPending,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	require.NoError(t, database.InsertSwapRequest(context.Background(), request))
	return request
}

func TestSwapRequestRoundTrip(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	request := insertPendingRequest(t, database, "shift-1")
	require.NotEmpty(t, request.ID)

	got, err := database.GetSwapRequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "john", got.FromShortID)
	assert.Equal(t, "sarah", got.ToShortID)
	assert.Equal(t, "shift-1", got.ShiftID)
	assert.Equal(t, SwapPending, got.Status)
}

func TestGetSwapRequestByID_NotFound(t *testing.T) {
	database := newIndexedDB(t)

	_, err := database.GetSwapRequestByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSwapNotFound)
}

func TestUpdateSwapStatus(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	request := insertPendingRequest(t, database, "shift-1")

	require.NoError(t, database.UpdateSwapStatus(ctx, request.ID, SwapDeclined))

	got, err := database.GetSwapRequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, SwapDeclined, got.Status)

	assert.ErrorIs(t, database.UpdateSwapStatus(ctx, "missing", SwapDeclined), ErrSwapNotFound)
}

func TestApplySwapAccept_TransfersOwnershipAndClosesRequest(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	shift := &Shift{OwnerShortID: "john", OwnerDisplayName: "John Smith", Date: "2026-03-01", Type: ShiftNight, StartTime: "23:00", EndTime: "07:00"}
	require.NoError(t, database.InsertShift(ctx, shift))
	request := insertPendingRequest(t, database, shift.ID)

	require.NoError(t, database.ApplySwapAccept(ctx, request.ID, shift.ID, "sarah", "Sarah Connor"))

	gotShift, err := database.GetShiftByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, "sarah", gotShift.OwnerShortID)
	assert.Equal(t, "Sarah Connor", gotShift.OwnerDisplayName)
	// Everything but ownership is untouched
	assert.Equal(t, "2026-03-01", gotShift.Date)
	assert.Equal(t, ShiftNight, gotShift.Type)
	assert.Equal(t, "23:00", gotShift.StartTime)
	assert.Equal(t, "07:00", gotShift.EndTime)

	gotRequest, err := database.GetSwapRequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, SwapAccepted, gotRequest.Status)
}

func TestApplySwapAccept_MissingShift(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	request := insertPendingRequest(t, database, "missing-shift")

	err := database.ApplySwapAccept(ctx, request.ID, "missing-shift", "sarah", "Sarah Connor")
	assert.ErrorIs(t, err, ErrShiftNotFound)

	// The request stays pending when the shift write fails
	got, err := database.GetSwapRequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, SwapPending, got.Status)
}

func TestSubscribeInbox_FiltersByRecipient(t *testing.T) {
	defer goleak.VerifyNone(t)

	database := newIndexedDB(t)
	ctx := context.Background()

	batches := make(chan []SwapRequest, 4)
	cancel, err := database.SubscribeInbox(ctx, "sarah", func(requests []SwapRequest) {
		batches <- requests
	})
	require.NoError(t, err)
	defer cancel()

	initial := waitForRequests(t, batches)
	assert.Empty(t, initial)

	// One request for sarah, one for someone else
	insertPendingRequest(t, database, "shift-1")
	other := &SwapRequest{FromShortID: "maria", ToShortID: "priya", ShiftID: "shift-2", Status: SwapPending}
	require.NoError(t, database.InsertSwapRequest(ctx, other))

	require.Eventually(t, func() bool {
		var last []SwapRequest
		for {
			select {
			case last = <-batches:
			default:
				return len(last) == 1 && last[0].ToShortID == "sarah"
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeInbox_EnrichesMissingSnapshots(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	shift := &Shift{OwnerShortID: "john", OwnerDisplayName: "John Smith", Date: "2026-03-01", Type: ShiftDay, StartTime: "07:00", EndTime: "15:00"}
	require.NoError(t, database.InsertShift(ctx, shift))

	// Stored without its embedded snapshot
	insertPendingRequest(t, database, shift.ID)

	batches := make(chan []SwapRequest, 4)
	cancel, err := database.SubscribeInbox(ctx, "sarah", func(requests []SwapRequest) {
		batches <- requests
	})
	require.NoError(t, err)
	defer cancel()

	delivered := waitForRequests(t, batches)
	require.Len(t, delivered, 1)
	require.NotNil(t, delivered[0].Shift)
	assert.Equal(t, "2026-03-01", delivered[0].Shift.Date)
	assert.Equal(t, ShiftDay, delivered[0].Shift.Type)
}

func TestSubscribeInbox_DegradesWhenShiftDeleted(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	// The referenced shift never existed, so the lookup fails open and the
	// request is delivered without details
	insertPendingRequest(t, database, "deleted-shift")

	batches := make(chan []SwapRequest, 4)
	cancel, err := database.SubscribeInbox(ctx, "sarah", func(requests []SwapRequest) {
		batches <- requests
	})
	require.NoError(t, err)
	defer cancel()

	delivered := waitForRequests(t, batches)
	require.Len(t, delivered, 1)
	assert.Nil(t, delivered[0].Shift)
}

func TestSubscribeInbox_CancelStopsDelivery(t *testing.T) {
	database := newIndexedDB(t)
	ctx := context.Background()

	batches := make(chan []SwapRequest, 4)
	cancel, err := database.SubscribeInbox(ctx, "sarah", func(requests []SwapRequest) {
		batches <- requests
	})
	require.NoError(t, err)

	waitForRequests(t, batches)
	cancel()

	insertPendingRequest(t, database, "shift-1")

	select {
	case <-batches:
		t.Fatal("received inbox update after cancellation")
	case <-time.After(100 * time.Millisecond):
	}
}

func waitForRequests(t *testing.T, batches <-chan []SwapRequest) []SwapRequest {
	t.Helper()
	select {
	case requests := <-batches:
		return requests
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbox subscription delivery")
		return nil
	}
}
