package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jakechorley/shift-swap/pkg/db"
)

// ErrEmptyDisplayName is returned when a short id is derived from a blank name.
var ErrEmptyDisplayName = errors.New("display name is empty")

// ShortID derives the short identifier for a display name: first
// whitespace-delimited token, lowercased. It is the single source of truth
// for correlating employees with shifts and swap requests; durable account
// ids must never be substituted for it.
func ShortID(displayName string) (string, error) {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return "", fmt.Errorf("cannot derive short id: %w", ErrEmptyDisplayName)
	}
	return strings.ToLower(fields[0]), nil
}

// EmployeeForShortID scans the employee list for the one whose derived
// short id matches the token. Returns false if no employee matches.
func EmployeeForShortID(token string, employees []db.Employee) (*db.Employee, bool) {
	for i := range employees {
		id, err := ShortID(employees[i].DisplayName)
		if err != nil {
			continue
		}
		if id == token {
			return &employees[i], true
		}
	}
	return nil, false
}

// Resolver caches a token → employee map for a snapshot of the employee
// list, avoiding the linear scan on every lookup. It must be reloaded
// whenever the employee list changes.
type Resolver struct {
	byToken    map[string]*db.Employee
	collisions map[string][]string
}

// NewResolver builds a resolver from an employee list snapshot.
func NewResolver(employees []db.Employee) *Resolver {
	r := &Resolver{}
	r.Reload(employees)
	return r
}

// Reload rebuilds the cache from a fresh employee list snapshot.
func (r *Resolver) Reload(employees []db.Employee) {
	r.byToken = make(map[string]*db.Employee, len(employees))
	r.collisions = make(map[string][]string)

	for i := range employees {
		e := &employees[i]
		token, err := ShortID(e.DisplayName)
		if err != nil {
			continue
		}
		if existing, ok := r.byToken[token]; ok {
			// Two employees sharing a first-name token break swap
			// correlation; record it and keep the first entry so
			// behaviour stays deterministic.
			if len(r.collisions[token]) == 0 {
				r.collisions[token] = append(r.collisions[token], existing.DisplayName)
			}
			r.collisions[token] = append(r.collisions[token], e.DisplayName)
			continue
		}
		r.byToken[token] = e
	}
}

// Lookup returns the employee whose short id equals the token.
func (r *Resolver) Lookup(token string) (*db.Employee, bool) {
	e, ok := r.byToken[token]
	return e, ok
}

// Collisions returns tokens derived by more than one employee, mapped to
// the colliding display names.
func (r *Resolver) Collisions() map[string][]string {
	return r.collisions
}
