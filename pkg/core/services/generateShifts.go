package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/pkg/core/identity"
	"github.com/jakechorley/shift-swap/pkg/db"
)

// ShiftPattern describes which dates a shift type recurs on, as an RRULE.
type ShiftPattern struct {
	Type  db.ShiftType
	RRule string
}

// DefaultPatterns covers every shift type on every day.
func DefaultPatterns() []ShiftPattern {
	return []ShiftPattern{
		{Type: db.ShiftDay, RRule: "FREQ=DAILY"},
		{Type: db.ShiftAfternoon, RRule: "FREQ=DAILY"},
		{Type: db.ShiftNight, RRule: "FREQ=DAILY"},
	}
}

// GenerateResult reports what a generation run produced.
type GenerateResult struct {
	Created []db.Shift
	// Skipped lists date/type slots left unfilled because every employee
	// already had a shift that day.
	Skipped []string
}

// GenerateShifts assigns employees to shifts uniformly at random over the
// date range, one slot per pattern occurrence. This is deliberately not a
// constraint solver: the only rule enforced is one shift per employee per
// day, checked against existing shifts and the shifts created in this run.
// A non-empty seed makes the run reproducible.
func GenerateShifts(ctx context.Context, database db.GenerationStore, logger *zap.Logger, actor db.Employee, employees []db.Employee, patterns []ShiftPattern, start, end time.Time, seed string) (*GenerateResult, error) {
	if len(employees) == 0 {
		return nil, fmt.Errorf("no employees to assign shifts to")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}

	rng := rand.New(rand.NewSource(seedValue(seed)))

	logger.Info("Generating shifts",
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")),
		zap.Int("employees", len(employees)),
		zap.Int("patterns", len(patterns)),
		zap.String("seed", seed))

	existing, err := database.GetShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing shifts: %w", err)
	}

	// busy tracks (short id, date) pairs so nobody gets two shifts a day.
	busy := make(map[string]bool)
	for _, s := range existing {
		busy[s.OwnerShortID+"|"+s.Date] = true
	}

	result := &GenerateResult{}

	for _, pattern := range patterns {
		dates, err := expandPattern(pattern, start, end)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for %s shifts: %w", pattern.Type, err)
		}

		for _, date := range dates {
			day := date.Format("2006-01-02")

			var free []db.Employee
			for _, e := range employees {
				shortID, err := identity.ShortID(e.DisplayName)
				if err != nil {
					continue
				}
				if !busy[shortID+"|"+day] {
					free = append(free, e)
				}
			}

			if len(free) == 0 {
				slot := fmt.Sprintf("%s %s", day, pattern.Type)
				logger.Warn("No free employee for slot", zap.String("slot", slot))
				result.Skipped = append(result.Skipped, slot)
				continue
			}

			chosen := free[rng.Intn(len(free))]
			shortID, err := identity.ShortID(chosen.DisplayName)
			if err != nil {
				continue
			}

			startTime, endTime := pattern.Type.Times()
			shift := db.Shift{
				OwnerShortID:     shortID,
				OwnerDisplayName: chosen.DisplayName,
				Date:             day,
				Type:             pattern.Type,
				StartTime:        startTime,
				EndTime:          endTime,
			}
			if err := database.InsertShift(ctx, &shift); err != nil {
				return nil, fmt.Errorf("failed to insert generated shift: %w", err)
			}
			busy[shortID+"|"+day] = true
			result.Created = append(result.Created, shift)

			entry := &db.ActivityLogEntry{
				Kind: db.ActivityShiftCreated,
				Description: fmt.Sprintf("%s shift on %s assigned to %s (generated)",
					pattern.Type, day, chosen.DisplayName),
				ActorID:          actor.ID,
				ActorDisplayName: actor.DisplayName,
				Timestamp:        time.Now().UTC().Format(time.RFC3339),
			}
			if err := database.InsertActivity(ctx, entry); err != nil {
				return nil, fmt.Errorf("failed to record generated shift: %w", err)
			}
		}
	}

	logger.Info("Shift generation complete",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// expandPattern lists the dates the pattern recurs on within [start, end].
func expandPattern(pattern ShiftPattern, start, end time.Time) ([]time.Time, error) {
	opt, err := rrule.StrToROption(pattern.RRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rrule %q: %w", pattern.RRule, err)
	}
	opt.Dtstart = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build rrule %q: %w", pattern.RRule, err)
	}

	rangeEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return rule.Between(opt.Dtstart, rangeEnd, true), nil
}

// seedValue derives a deterministic rng seed from the seed string, or a
// wall-clock seed when none is given.
func seedValue(seed string) int64 {
	if seed == "" {
		return time.Now().UnixNano()
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}
