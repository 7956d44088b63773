package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// ShiftPattern defines which dates a shift type recurs on when generating
type ShiftPattern struct {
	Type  string `yaml:"type" validate:"required,oneof=day afternoon night"`
	RRule string `yaml:"rrule" validate:"required"`
}

// SeedEmployee is an employee record created at process start if the
// directory is empty
type SeedEmployee struct {
	Name  string `yaml:"name" validate:"required"`
	Role  string `yaml:"role" validate:"required,oneof=employee manager"`
	Email string `yaml:"email,omitempty" validate:"omitempty,email"`
}

// Notifications configures the optional email notifier
type Notifications struct {
	Enabled bool   `yaml:"enabled"`
	Sender  string `yaml:"sender,omitempty" validate:"omitempty,email"`
}

// Config represents the application configuration
type Config struct {
	StoreBackend string `yaml:"storeBackend" validate:"required,oneof=memory postgres"`
	// DataFile is the JSON snapshot path for the memory backend.
	DataFile    string `yaml:"dataFile,omitempty"`
	PostgresURL string `yaml:"postgresURL,omitempty"`
	// OwnerShiftIndex declares the composite (owner, date) index on the
	// shifts collection. Without it, by-owner queries use the
	// client-side-sort fallback.
	OwnerShiftIndex bool           `yaml:"ownerShiftIndex,omitempty"`
	ShiftPatterns   []ShiftPattern `yaml:"shiftPatterns,omitempty" validate:"dive"`
	SeedEmployees   []SeedEmployee `yaml:"seedEmployees,omitempty" validate:"dive"`
	Notifications   Notifications  `yaml:"notifications,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from shift_swap_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for the given environment, e.g.
// env="test" looks for "shift_swap_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the backend-specific
// requirements, and the rrule syntax of every shift pattern
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.StoreBackend == "postgres" && cfg.PostgresURL == "" {
		return fmt.Errorf("config validation failed: postgresURL is required for the postgres backend")
	}

	for i, pattern := range cfg.ShiftPatterns {
		if _, err := rrule.StrToRRule(pattern.RRule); err != nil {
			return fmt.Errorf("invalid rrule in shiftPatterns[%d]: %w", i, err)
		}
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Sender == "" {
		return fmt.Errorf("config validation failed: notifications.sender is required when notifications are enabled")
	}

	return nil
}

// findConfigFile searches for shift_swap_config.yaml in current directory and home directory.
// If env is provided, it adds it as an extension (e.g., "shift_swap_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "shift_swap_config.yaml"
	if env != "" {
		configFileName = "shift_swap_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
