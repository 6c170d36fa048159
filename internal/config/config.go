package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// DefaultDayCapacity is the number of plannable hours per weekday
const DefaultDayCapacity = 7.0

// Config holds user preferences
type Config struct {
	ServerURL     string  `yaml:"server_url" json:"server_url"`         // Planner server base URL
	DayCapacity   float64 `yaml:"day_capacity" json:"day_capacity"`     // Hours per weekday
	ConfirmDelete bool    `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete
	Timezone      string  `yaml:"timezone" json:"timezone"`             // IANA zone for week arithmetic, empty = system

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns ~/.weekplanner
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".weekplanner"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "weekplanner.log")
	}

	return &Config{
		ServerURL:     getEnv("WEEKPLANNER_SERVER", "http://localhost:8080"),
		DayCapacity:   getEnvFloat("WEEKPLANNER_DAY_CAPACITY", DefaultDayCapacity),
		ConfirmDelete: true,
		Timezone:      getEnv("WEEKPLANNER_TZ", ""),
		LogLevel:      getEnv("WEEKPLANNER_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("WEEKPLANNER_LOG_FILE", logPath),
		LogConsole:    getEnv("WEEKPLANNER_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

// Load loads config from ~/.weekplanner/config.yaml
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(dir, "config.yaml"))
}

// LoadFile loads config from path, returning defaults when it does not exist
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DayCapacity <= 0 {
		cfg.DayCapacity = DefaultDayCapacity
	}

	return cfg, nil
}

// Save saves config to ~/.weekplanner/config.yaml
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return c.SaveFile(filepath.Join(dir, "config.yaml"))
}

// SaveFile writes the config as YAML to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Location resolves Timezone, falling back to the system zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
