package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-swap/pkg/db"
)

func TestShortID_Derivation(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		want        string
	}{
		{"simple name", "John Smith", "john"},
		{"single word", "Sarah", "sarah"},
		{"leading whitespace", "  Sarah Connor", "sarah"},
		{"mixed case", "MARIA Lopez", "maria"},
		{"tab separated", "Priya\tPatel", "priya"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShortID(tt.displayName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortID_Deterministic(t *testing.T) {
	// The same display name must always yield the same token
	first, err := ShortID("John Smith")
	require.NoError(t, err)
	second, err := ShortID("John Smith")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestShortID_EmptyDisplayName(t *testing.T) {
	_, err := ShortID("")
	assert.ErrorIs(t, err, ErrEmptyDisplayName)

	_, err = ShortID("   ")
	assert.ErrorIs(t, err, ErrEmptyDisplayName)
}

func TestEmployeeForShortID(t *testing.T) {
	employees := []db.Employee{
		{ID: "1", DisplayName: "John Smith"},
		{ID: "2", DisplayName: "Sarah Connor"},
	}

	employee, ok := EmployeeForShortID("sarah", employees)
	require.True(t, ok)
	assert.Equal(t, "2", employee.ID)

	_, ok = EmployeeForShortID("maria", employees)
	assert.False(t, ok)
}

func TestResolver_Lookup(t *testing.T) {
	resolver := NewResolver([]db.Employee{
		{ID: "1", DisplayName: "John Smith"},
		{ID: "2", DisplayName: "Sarah Connor"},
	})

	employee, ok := resolver.Lookup("john")
	require.True(t, ok)
	assert.Equal(t, "John Smith", employee.DisplayName)

	_, ok = resolver.Lookup("nobody")
	assert.False(t, ok)
}

func TestResolver_Collisions(t *testing.T) {
	// Two distinct employees sharing a first name collide on the token
	resolver := NewResolver([]db.Employee{
		{ID: "1", DisplayName: "John Smith"},
		{ID: "2", DisplayName: "John Watson"},
		{ID: "3", DisplayName: "Sarah Connor"},
	})

	collisions := resolver.Collisions()
	require.Len(t, collisions, 1)
	assert.ElementsMatch(t, []string{"John Smith", "John Watson"}, collisions["john"])

	// Lookup on a colliding token still resolves to the first match so
	// existing references keep working
	_, ok := resolver.Lookup("john")
	assert.True(t, ok)
}

func TestResolver_Reload(t *testing.T) {
	resolver := NewResolver([]db.Employee{
		{ID: "1", DisplayName: "John Smith"},
	})

	resolver.Reload([]db.Employee{
		{ID: "2", DisplayName: "Sarah Connor"},
	})

	_, ok := resolver.Lookup("john")
	assert.False(t, ok)
	_, ok = resolver.Lookup("sarah")
	assert.True(t, ok)
}
