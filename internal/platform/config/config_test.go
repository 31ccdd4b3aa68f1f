package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIRESTORE_PROJECT_ID": "demo-project",
			"API_AUTH_TOKEN_SECRET":    "test-secret",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.Issuer != "seoulmarket-api" {
		t.Fatalf("Auth.Issuer = %q", cfg.Auth.Issuer)
	}
	if cfg.PubSub.ProjectID != "demo-project" {
		t.Fatalf("PubSub.ProjectID = %q, want fallback to Firestore project", cfg.PubSub.ProjectID)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_SERVER_PORT":           "9090",
			"API_SERVER_READ_TIMEOUT":   "5s",
			"API_FIRESTORE_PROJECT_ID":  "demo-project",
			"API_FIRESTORE_EMULATOR_HOST": "localhost:8200",
			"API_AUTH_TOKEN_SECRET":     "test-secret",
			"API_AUTH_TOKEN_TTL":        "30m",
			"API_PUBSUB_PROJECT_ID":     "events-project",
			"API_PUBSUB_ORDER_TOPIC":    "orders",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Fatalf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Fatalf("Firestore.EmulatorHost = %q", cfg.Firestore.EmulatorHost)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("Auth.TokenTTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if cfg.PubSub.ProjectID != "events-project" {
		t.Fatalf("PubSub.ProjectID = %q", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.OrderTopic != "orders" {
		t.Fatalf("PubSub.OrderTopic = %q", cfg.PubSub.OrderTopic)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{}),
	)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	fields := validationErr.Fields()
	want := map[string]bool{
		"Firestore.ProjectID": false,
		"Auth.TokenSecret":    false,
	}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("expected %s in validation fields, got %v", field, fields)
		}
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	contents := "# local overrides\nexport API_SERVER_PORT=7001\nAPI_FIRESTORE_PROJECT_ID=\"dotenv-project\"\nAPI_AUTH_TOKEN_SECRET='dotenv-secret'\n"
	if err := os.WriteFile(envPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(envPath),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7001" {
		t.Fatalf("Server.Port = %q, want 7001", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "dotenv-project" {
		t.Fatalf("Firestore.ProjectID = %q", cfg.Firestore.ProjectID)
	}
	if cfg.Auth.TokenSecret != "dotenv-secret" {
		t.Fatalf("Auth.TokenSecret = %q", cfg.Auth.TokenSecret)
	}
}

func TestEnvMapTakesPrecedenceOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("API_SERVER_PORT=7001\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{
			"API_SERVER_PORT":          "7002",
			"API_FIRESTORE_PROJECT_ID": "demo-project",
			"API_AUTH_TOKEN_SECRET":    "test-secret",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7002" {
		t.Fatalf("Server.Port = %q, want 7002", cfg.Server.Port)
	}
}
