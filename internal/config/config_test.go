package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"BACKEND_URL", "GATEWAY_TRANSPORT",
	"COMMS_URL", "SERVICE_NAME", "COMMS_REQUEST_TIMEOUT", "OPERATION_SUBJECT_PREFIX",
	"PUBLISH_EVENTS", "DISPATCH_EVENT_SUBJECT",
	"CATALOG_FILE", "CATALOG_VERSION_CONSTRAINT",
	"DATABASE_URL", "RUN_MIGRATIONS", "MIGRATION_PATH", "API_SERVE_COMMS",
	"HTTP_PORT", "API_HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range configEnvVars {
		if v, ok := os.LookupEnv(env); ok {
			os.Unsetenv(env)
			t.Cleanup(func() { os.Setenv(env, v) })
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("config:config_test - BackendURL = %q, want %q", cfg.BackendURL, "http://localhost:8000")
	}
	if cfg.GatewayTransport != TransportHTTP {
		t.Errorf("config:config_test - GatewayTransport = %q, want %q", cfg.GatewayTransport, TransportHTTP)
	}
	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("config:config_test - COMMSURL = %q, want %q", cfg.COMMSURL, "nats://127.0.0.1:4222")
	}
	if cfg.COMMSName != "course-recommender" {
		t.Errorf("config:config_test - COMMSName = %q, want %q", cfg.COMMSName, "course-recommender")
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.PublishEvents {
		t.Error("config:config_test - expected PublishEvents=false by default")
	}
	if cfg.CatalogFile != "" || cfg.CatalogVersionConstraint != "" {
		t.Errorf("config:config_test - catalog settings should default to empty")
	}
	if cfg.MigrationPath != "migrations" {
		t.Errorf("config:config_test - MigrationPath = %q, want %q", cfg.MigrationPath, "migrations")
	}
	if cfg.HTTPPort != 8501 {
		t.Errorf("config:config_test - HTTPPort = %d, want 8501", cfg.HTTPPort)
	}
	if cfg.APIHTTPPort != 8000 {
		t.Errorf("config:config_test - APIHTTPPort = %d, want 8000", cfg.APIHTTPPort)
	}
	if cfg.HealthCheckTimeout != 5*time.Second {
		t.Errorf("config:config_test - HealthCheckTimeout = %v, want 5s", cfg.HealthCheckTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.UsesComms() {
		t.Error("config:config_test - defaults should not need COMMS")
	}
	if err := cfg.ValidateForUI(); err != nil {
		t.Errorf("config:config_test - defaults should be valid for UI: %v", err)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	overrides := map[string]string{
		"BACKEND_URL":                "http://backend:9000",
		"GATEWAY_TRANSPORT":          " COMMS ",
		"COMMS_URL":                  "nats://custom:4222",
		"SERVICE_NAME":               "test-ui",
		"COMMS_REQUEST_TIMEOUT":      "3s",
		"PUBLISH_EVENTS":             "true",
		"DISPATCH_EVENT_SUBJECT":     "custom.dispatched",
		"CATALOG_FILE":               "/tmp/catalog.yaml",
		"CATALOG_VERSION_CONSTRAINT": "^1.0",
		"HTTP_PORT":                  "9090",
		"API_HTTP_PORT":              "9091",
		"LOG_LEVEL":                  "debug",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.BackendURL != "http://backend:9000" {
		t.Errorf("config:config_test - BackendURL = %q", cfg.BackendURL)
	}
	if cfg.GatewayTransport != TransportComms {
		t.Errorf("config:config_test - GatewayTransport = %q, want normalized %q", cfg.GatewayTransport, TransportComms)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if !cfg.PublishEvents || cfg.DispatchEventSubject != "custom.dispatched" {
		t.Errorf("config:config_test - event settings not loaded: %v %q", cfg.PublishEvents, cfg.DispatchEventSubject)
	}
	if cfg.CatalogFile != "/tmp/catalog.yaml" || cfg.CatalogVersionConstraint != "^1.0" {
		t.Errorf("config:config_test - catalog settings not loaded")
	}
	if cfg.HTTPPort != 9090 || cfg.APIHTTPPort != 9091 {
		t.Errorf("config:config_test - ports = %d/%d", cfg.HTTPPort, cfg.APIHTTPPort)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("config:config_test - SlogLevel = %v, want debug", cfg.SlogLevel())
	}
	if !cfg.UsesComms() {
		t.Error("config:config_test - comms transport should need COMMS")
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("config:config_test - SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestConfig_ValidateForUI(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BackendURL:       "http://localhost:8000",
			GatewayTransport: TransportHTTP,
			COMMSURL:         "nats://127.0.0.1:4222",
			RequestTimeout:   time.Second,
			HTTPPort:         8501,
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid http", mutate: func(*Config) {}},
		{name: "valid comms", mutate: func(c *Config) { c.GatewayTransport = TransportComms; c.BackendURL = "" }},
		{name: "relative backend", mutate: func(c *Config) { c.BackendURL = "localhost:8000" }, wantErr: "BACKEND_URL"},
		{name: "bad transport", mutate: func(c *Config) { c.GatewayTransport = "grpc" }, wantErr: "GATEWAY_TRANSPORT"},
		{name: "events need comms url", mutate: func(c *Config) { c.PublishEvents = true; c.COMMSURL = "" }, wantErr: "COMMS_URL"},
		{name: "comms needs timeout", mutate: func(c *Config) { c.GatewayTransport = TransportComms; c.RequestTimeout = 0 }, wantErr: "COMMS_REQUEST_TIMEOUT"},
		{name: "bad port", mutate: func(c *Config) { c.HTTPPort = 0 }, wantErr: "HTTP_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateForUI()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("config:config_test - unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("config:config_test - error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateForAPI(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/x", APIHTTPPort: 8000, HealthCheckTimeout: time.Second}
	if err := cfg.ValidateForAPI(); err != nil {
		t.Errorf("config:config_test - unexpected error: %v", err)
	}
	cfg.DatabaseURL = ""
	if err := cfg.ValidateForAPI(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("config:config_test - error = %v, want DATABASE_URL", err)
	}
	cfg.DatabaseURL = "postgres://localhost/x"
	cfg.HealthCheckTimeout = 0
	if err := cfg.ValidateForAPI(); err == nil {
		t.Error("config:config_test - expected error for zero HEALTH_CHECK_TIMEOUT")
	}
	cfg.HealthCheckTimeout = time.Second
	cfg.APIServeComms = true
	if err := cfg.ValidateForAPI(); err == nil || !strings.Contains(err.Error(), "COMMS_URL") {
		t.Errorf("config:config_test - error = %v, want COMMS_URL when serving over COMMS", err)
	}
}
