package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/db"
)

// mockSwapEngineStore implements SwapEngineStore for testing
type mockSwapEngineStore struct {
	shifts             map[string]db.Shift
	requests           []db.SwapRequest
	insertedRequests   []db.SwapRequest
	insertedActivities []db.ActivityLogEntry
	updatedStatuses    map[string]db.SwapStatus
	appliedAccepts     []string
	transferredShifts  map[string]string // shift id -> new owner short id

	getShiftErr      error
	getRequestsErr   error
	insertRequestErr error
	updateStatusErr  error
	applyAcceptErr   error
	insertActivityErr error
}

func newMockSwapEngineStore() *mockSwapEngineStore {
	return &mockSwapEngineStore{
		shifts:            make(map[string]db.Shift),
		updatedStatuses:   make(map[string]db.SwapStatus),
		transferredShifts: make(map[string]string),
	}
}

func (m *mockSwapEngineStore) GetShiftByID(ctx context.Context, id string) (*db.Shift, error) {
	if m.getShiftErr != nil {
		return nil, m.getShiftErr
	}
	shift, ok := m.shifts[id]
	if !ok {
		return nil, db.ErrShiftNotFound
	}
	return &shift, nil
}

func (m *mockSwapEngineStore) GetSwapRequests(ctx context.Context) ([]db.SwapRequest, error) {
	if m.getRequestsErr != nil {
		return nil, m.getRequestsErr
	}
	return m.requests, nil
}

func (m *mockSwapEngineStore) GetSwapRequestByID(ctx context.Context, id string) (*db.SwapRequest, error) {
	for i := range m.requests {
		if m.requests[i].ID == id {
			r := m.requests[i]
			return &r, nil
		}
	}
	return nil, db.ErrSwapNotFound
}

func (m *mockSwapEngineStore) InsertSwapRequest(ctx context.Context, request *db.SwapRequest) error {
	if m.insertRequestErr != nil {
		return m.insertRequestErr
	}
	if request.ID == "" {
		request.ID = "request-1"
	}
	m.insertedRequests = append(m.insertedRequests, *request)
	return nil
}

func (m *mockSwapEngineStore) UpdateSwapStatus(ctx context.Context, id string, status db.SwapStatus) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.updatedStatuses[id] = status
	return nil
}

func (m *mockSwapEngineStore) ApplySwapAccept(ctx context.Context, requestID, shiftID, toShortID, toDisplayName string) error {
	if m.applyAcceptErr != nil {
		return m.applyAcceptErr
	}
	m.appliedAccepts = append(m.appliedAccepts, requestID)
	m.transferredShifts[shiftID] = toShortID
	if shift, ok := m.shifts[shiftID]; ok {
		shift.OwnerShortID = toShortID
		shift.OwnerDisplayName = toDisplayName
		m.shifts[shiftID] = shift
	}
	return nil
}

func (m *mockSwapEngineStore) InsertActivity(ctx context.Context, entry *db.ActivityLogEntry) error {
	if m.insertActivityErr != nil {
		return m.insertActivityErr
	}
	m.insertedActivities = append(m.insertedActivities, *entry)
	return nil
}

// mockNotifier implements Notifier for testing
type mockNotifier struct {
	sent    []string // recipient addresses
	sendErr error
}

func (m *mockNotifier) SendEmail(to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	return nil
}

var (
	john  = db.Employee{ID: "acc-john", DisplayName: "John Smith", Role: db.RoleEmployee, Email: "john@example.com"}
	sarah = db.Employee{ID: "acc-sarah", DisplayName: "Sarah Connor", Role: db.RoleEmployee, Email: "sarah@example.com"}
)

func TestRequestSwap_Success(t *testing.T) {
	store := newMockSwapEngineStore()
	store.shifts["shift-1"] = db.Shift{
		ID:               "shift-1",
		OwnerShortID:     "john",
		OwnerDisplayName: "John Smith",
		Date:             "2026-03-01",
		Type:             db.ShiftNight,
		StartTime:        "23:00",
		EndTime:          "07:00",
	}
	logger := zap.NewNop()

	request, err := RequestSwap(context.Background(), store, logger, nil, john, sarah, "shift-1")
	require.NoError(t, err)

	assert.Equal(t, "john", request.FromShortID)
	assert.Equal(t, "sarah", request.ToShortID)
	assert.Equal(t, "John Smith", request.FromDisplayName)
	assert.Equal(t, "Sarah Connor", request.ToDisplayName)
	assert.Equal(t, "shift-1", request.ShiftID)
	assert.Equal(t, db.SwapPending, request.Status)
	assert.NotEmpty(t, request.CreatedAt)

	// The embedded snapshot carries the shift details for display
	require.NotNil(t, request.Shift)
	assert.Equal(t, "2026-03-01", request.Shift.Date)

	require.Len(t, store.insertedRequests, 1)
	require.Len(t, store.insertedActivities, 1)
	assert.Equal(t, db.ActivitySwapRequested, store.insertedActivities[0].Kind)
	// Ledger attribution uses the durable account id
	assert.Equal(t, "acc-john", store.insertedActivities[0].ActorID)
}

func TestRequestSwap_SelfSwap(t *testing.T) {
	store := newMockSwapEngineStore()
	logger := zap.NewNop()

	// Same short id on both sides even though the accounts differ
	johnW := db.Employee{ID: "acc-other", DisplayName: "John Watson"}
	_, err := RequestSwap(context.Background(), store, logger, nil, john, johnW, "shift-1")
	assert.ErrorIs(t, err, ErrSelfSwap)
	assert.Empty(t, store.insertedRequests)
}

func TestRequestSwap_NotOwner(t *testing.T) {
	store := newMockSwapEngineStore()
	store.shifts["shift-1"] = db.Shift{
		ID:           "shift-1",
		OwnerShortID: "maria",
		Date:         "2026-03-01",
		Type:         db.ShiftDay,
	}
	logger := zap.NewNop()

	_, err := RequestSwap(context.Background(), store, logger, nil, john, sarah, "shift-1")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Empty(t, store.insertedRequests)
	assert.Empty(t, store.insertedActivities)
}

func TestRequestSwap_ShiftNotFound(t *testing.T) {
	store := newMockSwapEngineStore()
	logger := zap.NewNop()

	_, err := RequestSwap(context.Background(), store, logger, nil, john, sarah, "missing")
	assert.ErrorIs(t, err, db.ErrShiftNotFound)
}

func TestRequestSwap_DuplicatePending(t *testing.T) {
	store := newMockSwapEngineStore()
	store.shifts["shift-1"] = db.Shift{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay}
	store.requests = []db.SwapRequest{
		{ID: "existing", FromShortID: "john", ToShortID: "sarah", ShiftID: "shift-9", Status: db.SwapPending},
	}
	logger := zap.NewNop()

	_, err := RequestSwap(context.Background(), store, logger, nil, john, sarah, "shift-1")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Empty(t, store.insertedRequests)
}

func TestRequestSwap_ResolvedRequestDoesNotBlock(t *testing.T) {
	// A declined request for the same pair is history, not a duplicate
	store := newMockSwapEngineStore()
	store.shifts["shift-1"] = db.Shift{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay}
	store.requests = []db.SwapRequest{
		{ID: "old", FromShortID: "john", ToShortID: "sarah", ShiftID: "shift-1", Status: db.SwapDeclined},
	}
	logger := zap.NewNop()

	_, err := RequestSwap(context.Background(), store, logger, nil, john, sarah, "shift-1")
	require.NoError(t, err)
	assert.Len(t, store.insertedRequests, 1)
}

func TestRequestSwap_NotifiesRecipient(t *testing.T) {
	store := newMockSwapEngineStore()
	store.shifts["shift-1"] = db.Shift{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay}
	notifier := &mockNotifier{}
	logger := zap.NewNop()

	_, err := RequestSwap(context.Background(), store, logger, notifier, john, sarah, "shift-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sarah@example.com"}, notifier.sent)
}

func TestRequestSwap_NotificationFailureDoesNotFailRequest(t *testing.T) {
	store := newMockSwapEngineStore()
	store.shifts["shift-1"] = db.Shift{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay}
	notifier := &mockNotifier{sendErr: errors.New("smtp down")}
	logger := zap.NewNop()

	request, err := RequestSwap(context.Background(), store, logger, notifier, john, sarah, "shift-1")
	require.NoError(t, err)
	assert.Equal(t, db.SwapPending, request.Status)
}
