package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"RESERVAS_HTTP_PORT",
			"RESERVAS_SQLITE_PATH",
			"RESERVAS_SESSION_TTL",
			"RESERVAS_TIMEZONE",
			"RESERVAS_ADMIT_TIMEOUT",
			"RESERVAS_CORS_ORIGINS",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "reservations.db" {
			t.Fatalf("unexpected default path: %q", cfg.SQLitePath)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("unexpected default session TTL: %v", cfg.SessionTTL)
		}
		if cfg.Timezone != "America/Santiago" {
			t.Fatalf("unexpected default timezone: %q", cfg.Timezone)
		}
	})

	t.Run("parses overrides", func(t *testing.T) {
		t.Setenv("RESERVAS_HTTP_PORT", "9090")
		t.Setenv("RESERVAS_SESSION_TTL", "1h")
		t.Setenv("RESERVAS_TIMEZONE", "UTC")
		t.Setenv("RESERVAS_CORS_ORIGINS", "https://reservas.ufro.cl, https://staging.ufro.cl")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SessionTTL != time.Hour {
			t.Fatalf("expected session TTL 1h, got %v", cfg.SessionTTL)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://staging.ufro.cl" {
			t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
		}
	})

	t.Run("reports invalid values together", func(t *testing.T) {
		t.Setenv("RESERVAS_HTTP_PORT", "not-a-port")
		t.Setenv("RESERVAS_SESSION_TTL", "-5m")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
	})

	t.Run("calendar enabled only with complete credentials", func(t *testing.T) {
		t.Setenv("RESERVAS_HTTP_PORT", "8080")
		t.Setenv("GOOGLE_CLIENT_ID", "client")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_REFRESH_TOKEN", "")
		t.Setenv("GOOGLE_CALENDAR_ID", "primary")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.CalendarEnabled() {
			t.Fatal("expected calendar disabled without refresh token")
		}

		t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh")
		cfg, err = Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if !cfg.CalendarEnabled() {
			t.Fatal("expected calendar enabled with complete credentials")
		}
	})
}
