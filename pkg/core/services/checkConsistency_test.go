package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/db"
)

// mockConsistencyStore implements ConsistencyStore for testing
type mockConsistencyStore struct {
	employees       []db.Employee
	shifts          []db.Shift
	swaps           []db.SwapRequest
	getEmployeesErr error
	getShiftsErr    error
	getSwapsErr     error
}

func (m *mockConsistencyStore) GetEmployees(ctx context.Context) ([]db.Employee, error) {
	if m.getEmployeesErr != nil {
		return nil, m.getEmployeesErr
	}
	return m.employees, nil
}

func (m *mockConsistencyStore) GetShifts(ctx context.Context) ([]db.Shift, error) {
	if m.getShiftsErr != nil {
		return nil, m.getShiftsErr
	}
	return m.shifts, nil
}

func (m *mockConsistencyStore) GetSwapRequests(ctx context.Context) ([]db.SwapRequest, error) {
	if m.getSwapsErr != nil {
		return nil, m.getSwapsErr
	}
	return m.swaps, nil
}

func warningsOfKind(report *ConsistencyReport, kind string) []ConsistencyWarning {
	var out []ConsistencyWarning
	for _, w := range report.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func TestCheckConsistency_CleanData(t *testing.T) {
	store := &mockConsistencyStore{
		employees: []db.Employee{
			{ID: "acc-john", DisplayName: "John Smith"},
			{ID: "acc-sarah", DisplayName: "Sarah Connor"},
		},
		shifts: []db.Shift{
			{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay},
			{ID: "shift-2", OwnerShortID: "sarah", Date: "2026-03-02", Type: db.ShiftNight},
		},
		swaps: []db.SwapRequest{
			{ID: "request-1", FromShortID: "john", ToShortID: "sarah", ShiftID: "shift-1", Status: db.SwapPending},
		},
	}
	logger := zap.NewNop()

	report, err := CheckConsistency(context.Background(), store, logger)
	require.NoError(t, err)

	assert.Equal(t, 2, report.EmployeeCount)
	assert.Equal(t, 2, report.ShiftCount)
	assert.Equal(t, 1, report.SwapCount)
	assert.Empty(t, report.Warnings)
}

func TestCheckConsistency_DurableIDLeakedIntoSwap(t *testing.T) {
	// A durable account id was written where a short identifier belongs, so
	// no shift owner matches it
	store := &mockConsistencyStore{
		employees: []db.Employee{
			{ID: "acc-john", DisplayName: "John Smith"},
			{ID: "U8qG4fNEydUbNFcw4QxE", DisplayName: "Sarah Connor"},
		},
		shifts: []db.Shift{
			{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay},
			{ID: "shift-2", OwnerShortID: "sarah", Date: "2026-03-02", Type: db.ShiftNight},
		},
		swaps: []db.SwapRequest{
			{ID: "request-1", FromShortID: "john", ToShortID: "U8qG4fNEydUbNFcw4QxE", ShiftID: "shift-1", Status: db.SwapPending},
		},
	}
	logger := zap.NewNop()

	report, err := CheckConsistency(context.Background(), store, logger)
	require.NoError(t, err)

	orphans := warningsOfKind(report, WarnOrphanSwapIdentifier)
	require.Len(t, orphans, 1)
	assert.Equal(t, "U8qG4fNEydUbNFcw4QxE", orphans[0].ShortID)
}

func TestCheckConsistency_DuplicateShifts(t *testing.T) {
	store := &mockConsistencyStore{
		employees: []db.Employee{{ID: "acc-john", DisplayName: "John Smith"}},
		shifts: []db.Shift{
			{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay},
			{ID: "shift-2", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftNight},
		},
	}
	logger := zap.NewNop()

	report, err := CheckConsistency(context.Background(), store, logger)
	require.NoError(t, err)

	dups := warningsOfKind(report, WarnDuplicateShift)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Detail, "john|2026-03-01")
}

func TestCheckConsistency_EmployeeWithoutShifts(t *testing.T) {
	store := &mockConsistencyStore{
		employees: []db.Employee{
			{ID: "acc-john", DisplayName: "John Smith"},
			{ID: "acc-maria", DisplayName: "Maria Lopez"},
		},
		shifts: []db.Shift{
			{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay},
		},
	}
	logger := zap.NewNop()

	report, err := CheckConsistency(context.Background(), store, logger)
	require.NoError(t, err)

	idle := warningsOfKind(report, WarnEmployeeNoShifts)
	require.Len(t, idle, 1)
	assert.Equal(t, "maria", idle[0].ShortID)
}

func TestCheckConsistency_ShortIDCollision(t *testing.T) {
	store := &mockConsistencyStore{
		employees: []db.Employee{
			{ID: "acc-1", DisplayName: "John Smith"},
			{ID: "acc-2", DisplayName: "John Watson"},
		},
		shifts: []db.Shift{
			{ID: "shift-1", OwnerShortID: "john", Date: "2026-03-01", Type: db.ShiftDay},
		},
	}
	logger := zap.NewNop()

	report, err := CheckConsistency(context.Background(), store, logger)
	require.NoError(t, err)

	collisions := warningsOfKind(report, WarnShortIDCollision)
	require.Len(t, collisions, 1)
	assert.Equal(t, "john", collisions[0].ShortID)
	assert.Contains(t, collisions[0].Detail, "2 employees")
}

func TestCheckConsistency_DeterministicWarningOrder(t *testing.T) {
	store := &mockConsistencyStore{
		swaps: []db.SwapRequest{
			{ID: "r1", FromShortID: "zoe", ToShortID: "adam", ShiftID: "s1", Status: db.SwapPending},
		},
	}
	logger := zap.NewNop()

	report, err := CheckConsistency(context.Background(), store, logger)
	require.NoError(t, err)

	orphans := warningsOfKind(report, WarnOrphanSwapIdentifier)
	require.Len(t, orphans, 2)
	assert.Equal(t, "adam", orphans[0].ShortID)
	assert.Equal(t, "zoe", orphans[1].ShortID)
}
