package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AppointmentsTable != "appointments" {
		t.Errorf("expected default appointments table, got %s", cfg.AppointmentsTable)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Errorf("unexpected default model id %s", cfg.GeminiModelID)
	}
	if cfg.FeedRefreshInterval != 30*time.Second {
		t.Errorf("unexpected default feed interval %s", cfg.FeedRefreshInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("unexpected default CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("FEED_REFRESH_INTERVAL", "5s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://clinic.example, https://staff.example")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port override, got %s", cfg.Port)
	}
	if cfg.FeedRefreshInterval != 5*time.Second {
		t.Errorf("expected 5s feed interval, got %s", cfg.FeedRefreshInterval)
	}
	if !cfg.RedisTLS {
		t.Error("expected redis TLS enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staff.example" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}
