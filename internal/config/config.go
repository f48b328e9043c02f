// Package config provides application configuration loading from environment.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	APIBaseURL       string
	SessionFile      string
	SessionKey       []byte
	LocalDBPath      string
	LogLevel         string

	BudgetAlarmEnabled  bool
	BudgetAlarmHour     int
	BudgetAlarmTimezone string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIBaseURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/"),
		SessionFile:      os.Getenv("SESSION_FILE"),
		LocalDBPath:      os.Getenv("LOCAL_DB_PATH"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}

	if cfg.SessionFile == "" {
		cfg.SessionFile = "sessions.enc"
	}
	if cfg.LocalDBPath == "" {
		cfg.LocalDBPath = "spendify.db"
	}

	if keyHex := os.Getenv("SESSION_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("SESSION_KEY is not valid hex: %w", err)
		}
		cfg.SessionKey = key
	}

	cfg.BudgetAlarmEnabled = os.Getenv("BUDGET_ALARM_ENABLED") == "true"
	cfg.BudgetAlarmHour = 20
	if hourStr := os.Getenv("BUDGET_ALARM_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.BudgetAlarmHour = h
		}
	}
	cfg.BudgetAlarmTimezone = "Asia/Hong_Kong"
	if tz := os.Getenv("BUDGET_ALARM_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.BudgetAlarmTimezone = tz
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.APIBaseURL == "" {
		errs = append(errs, "API_BASE_URL is required")
	}

	if len(c.SessionKey) == 0 {
		errs = append(errs, "SESSION_KEY is required")
	} else if len(c.SessionKey) != 32 {
		errs = append(errs, "SESSION_KEY must be 32 bytes (64 hex characters)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
