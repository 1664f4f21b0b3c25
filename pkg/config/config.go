/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/ledger"
	"github.com/ssargent/namereg/pkg/registry"
)

// Config represents the namereg configuration
type Config struct {
	DataDir   string   `yaml:"data_dir" env:"NAMEREG_DATA_DIR"`
	Port      int      `yaml:"port" env:"NAMEREG_PORT"`
	Bind      string   `yaml:"bind" env:"NAMEREG_BIND"`
	ProgramID string   `yaml:"program_id,omitempty" env:"NAMEREG_PROGRAM_ID"`
	Security  Security `yaml:"security"`
	Logging   Logging  `yaml:"logging"`
	Rent      Rent     `yaml:"rent"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key" env:"NAMEREG_API_KEY"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" env:"NAMEREG_LOG_LEVEL"`
	Format string `yaml:"format" env:"NAMEREG_LOG_FORMAT"`
}

// Rent contains the rent schedule used to fund slots
type Rent struct {
	LamportsPerByteYear uint64  `yaml:"lamports_per_byte_year" env:"NAMEREG_RENT_LAMPORTS_PER_BYTE_YEAR"`
	ExemptionThreshold  float64 `yaml:"exemption_threshold" env:"NAMEREG_RENT_EXEMPTION_THRESHOLD"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey: "auto",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Rent: Rent{
			LamportsPerByteYear: ledger.DefaultLamportsPerByteYear,
			ExemptionThreshold:  ledger.DefaultExemptionThreshold,
		},
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from NAMEREG_* environment variables
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// SaveConfig atomically writes the configuration with owner-only permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to secure config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration can be used to run the registry
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := c.ProgramIdentity(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if c.Rent.ExemptionThreshold < 0 {
		return fmt.Errorf("rent exemption_threshold must not be negative")
	}
	return nil
}

// ProgramIdentity returns the configured program id, or the registry default
// when none is set.
func (c *Config) ProgramIdentity() (codec.Identity, error) {
	if c.ProgramID == "" {
		return registry.DefaultProgramID, nil
	}
	id, err := codec.ParseIdentity(c.ProgramID)
	if err != nil {
		return codec.Identity{}, fmt.Errorf("invalid program_id: %w", err)
	}
	return id, nil
}

// LedgerConfig returns the ledger settings derived from this configuration
func (c *Config) LedgerConfig() ledger.Config {
	return ledger.Config{
		DataDir: filepath.Join(c.DataDir, "ledger"),
		Rent: ledger.Rent{
			LamportsPerByteYear: c.Rent.LamportsPerByteYear,
			ExemptionThreshold:  c.Rent.ExemptionThreshold,
		},
	}
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./namereg.yaml"
	}

	// For Linux/macOS, use ~/.config/namereg/config.yaml
	configDir := filepath.Join(homeDir, ".config", "namereg")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
