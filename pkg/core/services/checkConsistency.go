package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/core/identity"
	"github.com/jakechorley/shift-swap/pkg/db"
)

// Consistency warning kinds.
const (
	WarnOrphanSwapIdentifier = "orphan_swap_identifier"
	WarnDuplicateShift       = "duplicate_shift"
	WarnEmployeeNoShifts     = "employee_without_shifts"
	WarnShortIDCollision     = "short_id_collision"
)

// ConsistencyWarning is one advisory finding. Warnings never block normal
// operation and the checker takes no corrective action.
type ConsistencyWarning struct {
	Kind    string
	ShortID string
	Detail  string
}

// ConsistencyReport is the outcome of one diagnostic pass.
type ConsistencyReport struct {
	Warnings      []ConsistencyWarning
	EmployeeCount int
	ShiftCount    int
	SwapCount     int
}

// CheckConsistency cross-references the identifier sets across the three
// collections. A short identifier referenced by a swap request but absent
// from the shift-owner set is a correlation failure, historically caused
// by a durable account id leaking into a swap's employee fields. The pass
// is read-only.
func CheckConsistency(ctx context.Context, database db.ConsistencyStore, logger *zap.Logger) (*ConsistencyReport, error) {
	employees, err := database.GetEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	shifts, err := database.GetShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}
	swaps, err := database.GetSwapRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch swap requests: %w", err)
	}

	report := &ConsistencyReport{
		EmployeeCount: len(employees),
		ShiftCount:    len(shifts),
		SwapCount:     len(swaps),
	}

	shiftOwners := make(map[string]bool)
	for _, s := range shifts {
		shiftOwners[s.OwnerShortID] = true
	}

	// Identifiers referenced by swaps but owning no shift.
	swapIDs := make(map[string]bool)
	for _, req := range swaps {
		swapIDs[req.FromShortID] = true
		swapIDs[req.ToShortID] = true
	}
	var orphans []string
	for id := range swapIDs {
		if !shiftOwners[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		report.Warnings = append(report.Warnings, ConsistencyWarning{
			Kind:    WarnOrphanSwapIdentifier,
			ShortID: id,
			Detail:  fmt.Sprintf("swap requests reference %q but no shift has that owner", id),
		})
	}

	// Duplicate (owner, date) shifts.
	seen := make(map[string]int)
	for _, s := range shifts {
		seen[s.OwnerShortID+"|"+s.Date]++
	}
	var dupKeys []string
	for key, count := range seen {
		if count > 1 {
			dupKeys = append(dupKeys, key)
		}
	}
	sort.Strings(dupKeys)
	for _, key := range dupKeys {
		report.Warnings = append(report.Warnings, ConsistencyWarning{
			Kind:   WarnDuplicateShift,
			Detail: fmt.Sprintf("%d shifts share owner and date %s", seen[key], key),
		})
	}

	// Employees with no shifts, and short id collisions.
	resolver := identity.NewResolver(employees)
	for _, e := range employees {
		shortID, err := identity.ShortID(e.DisplayName)
		if err != nil {
			continue
		}
		if !shiftOwners[shortID] {
			report.Warnings = append(report.Warnings, ConsistencyWarning{
				Kind:    WarnEmployeeNoShifts,
				ShortID: shortID,
				Detail:  fmt.Sprintf("%s has no shifts", e.DisplayName),
			})
		}
	}
	var collided []string
	for token := range resolver.Collisions() {
		collided = append(collided, token)
	}
	sort.Strings(collided)
	for _, token := range collided {
		names := resolver.Collisions()[token]
		report.Warnings = append(report.Warnings, ConsistencyWarning{
			Kind:    WarnShortIDCollision,
			ShortID: token,
			Detail:  fmt.Sprintf("short id %q is shared by %d employees: %v", token, len(names), names),
		})
	}

	logger.Info("Consistency check complete",
		zap.Int("employees", report.EmployeeCount),
		zap.Int("shifts", report.ShiftCount),
		zap.Int("swaps", report.SwapCount),
		zap.Int("warnings", len(report.Warnings)))

	return report, nil
}
