package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		StoreBackend:    "memory",
		DataFile:        "store.json",
		OwnerShiftIndex: true,
		ShiftPatterns: []ShiftPattern{
			{Type: "day", RRule: "FREQ=DAILY"},
			{Type: "night", RRule: "FREQ=WEEKLY;BYDAY=FR,SA"},
		},
		SeedEmployees: []SeedEmployee{
			{Name: "John Smith", Role: "employee", Email: "john@example.com"},
			{Name: "Sarah Connor", Role: "manager"},
		},
		Notifications: Notifications{Enabled: true, Sender: "rota@example.com"},
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{
		StoreBackend: "memory",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MissingBackend(t *testing.T) {
	cfg := &Config{}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{
		StoreBackend: "dynamo",
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := &Config{
		StoreBackend: "postgres",
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgresURL")

	cfg.PostgresURL = "postgres://localhost:5432/shiftswap"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := &Config{
		StoreBackend: "memory",
		ShiftPatterns: []ShiftPattern{
			{Type: "day", RRule: "FREQ=SOMETIMES"},
		},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shiftPatterns[0]")
}

func TestValidate_InvalidShiftType(t *testing.T) {
	cfg := &Config{
		StoreBackend: "memory",
		ShiftPatterns: []ShiftPattern{
			{Type: "evening", RRule: "FREQ=DAILY"},
		},
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_InvalidSeedRole(t *testing.T) {
	cfg := &Config{
		StoreBackend: "memory",
		SeedEmployees: []SeedEmployee{
			{Name: "John Smith", Role: "admin"},
		},
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_NotificationsNeedSender(t *testing.T) {
	cfg := &Config{
		StoreBackend:  "memory",
		Notifications: Notifications{Enabled: true},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifications.sender")
}

func TestLoadFromPath(t *testing.T) {
	content := `storeBackend: memory
dataFile: store.json
ownerShiftIndex: true
shiftPatterns:
  - type: day
    rrule: FREQ=DAILY
  - type: night
    rrule: FREQ=WEEKLY;BYDAY=FR,SA
seedEmployees:
  - name: John Smith
    role: employee
    email: john@example.com
notifications:
  enabled: false
`
	path := filepath.Join(t.TempDir(), "shift_swap_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "store.json", cfg.DataFile)
	assert.True(t, cfg.OwnerShiftIndex)
	require.Len(t, cfg.ShiftPatterns, 2)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=FR,SA", cfg.ShiftPatterns[1].RRule)
	require.Len(t, cfg.SeedEmployees, 1)
	assert.Equal(t, "John Smith", cfg.SeedEmployees[0].Name)
	assert.False(t, cfg.Notifications.Enabled)
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shift_swap_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storeBackend: [broken"), 0644))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
