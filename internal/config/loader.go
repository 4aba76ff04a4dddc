// Package config loads environment driven settings for the reservation
// service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the
// reservation service.
type Config struct {
	HTTPPort       int
	SQLitePath     string
	SessionTTL     time.Duration
	Timezone       string
	AdmitTimeout   time.Duration
	AllowedOrigins []string

	SendGridAPIKey string
	SendGridFrom   string
	SendGridName   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleCalendarID   string
}

// CalendarEnabled reports whether the Google Calendar credentials are
// complete.
func (c Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRefreshToken != "" && c.GoogleCalendarID != ""
}

// EmailEnabled reports whether the SendGrid sender is configured.
func (c Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFrom != ""
}

// Load reads a .env file when present, then parses configuration values from
// the process environment. Optional fields fall back to defaults; invalid
// values are reported together.
func Load() (Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:     8080,
		SQLitePath:   "reservations.db",
		SessionTTL:   12 * time.Hour,
		Timezone:     "America/Santiago",
		AdmitTimeout: 5 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVAS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVAS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("RESERVAS_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if ttlValue := strings.TrimSpace(os.Getenv("RESERVAS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "RESERVAS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tz := strings.TrimSpace(os.Getenv("RESERVAS_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "RESERVAS_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("RESERVAS_ADMIT_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "RESERVAS_ADMIT_TIMEOUT")
		} else {
			cfg.AdmitTimeout = timeout
		}
	}

	if origins := strings.TrimSpace(os.Getenv("RESERVAS_CORS_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	cfg.SendGridAPIKey = strings.TrimSpace(os.Getenv("SENDGRID_API_KEY"))
	cfg.SendGridFrom = strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL"))
	cfg.SendGridName = strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME"))

	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	cfg.GoogleClientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	cfg.GoogleRefreshToken = strings.TrimSpace(os.Getenv("GOOGLE_REFRESH_TOKEN"))
	cfg.GoogleCalendarID = strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ID"))

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
