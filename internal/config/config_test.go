package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "crm"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Voice: VoiceConfig{APIKey: "sk-test"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "VOICE_API_KEY is required") {
		t.Fatalf("expected voice key to be reported, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLModeAndWebhookSecret(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production config")
	}
	for _, want := range []string{"DB_SSLMODE", "VOICE_WEBHOOK_SECRET", "JWT_ISSUER"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Campaign.ClassifyDelay != 125*time.Second {
		t.Fatalf("expected 125s classify delay, got %v", c.Campaign.ClassifyDelay)
	}
	if c.Voice.BaseURL != "https://api.bland.ai" || c.Voice.Voice != "maya" {
		t.Fatalf("unexpected voice defaults: %+v", c.Voice)
	}
	if c.Campaign.DeployConcurrency != 4 {
		t.Fatalf("expected deploy concurrency 4, got %d", c.Campaign.DeployConcurrency)
	}
}

func TestValidate_RejectsNonHTTPVoiceURL(t *testing.T) {
	c := validLocal()
	c.Voice.BaseURL = "ftp://voice"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-http base url")
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	body := strings.Join([]string{
		"APP_ENV=local",
		"APP_PORT=8081",
		"DB_HOST=db",
		"DB_PORT=5432",
		"DB_USER=crm",
		"DB_NAME=crm",
		"REDIS_HOST=redis",
		"REDIS_PORT=6379",
		"JWT_SECRET=secret",
		"VOICE_API_KEY=sk-file",
		"CLASSIFY_DELAY=90s",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	keys := []string{"APP_ENV", "APP_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_NAME", "REDIS_HOST", "REDIS_PORT", "JWT_SECRET", "VOICE_API_KEY", "CLASSIFY_DELAY"}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("ENV_FILE", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 8081 || c.Voice.APIKey != "sk-file" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.Campaign.ClassifyDelay != 90*time.Second {
		t.Fatalf("expected 90s delay, got %v", c.Campaign.ClassifyDelay)
	}
}

func TestLoad_ReportsBadDuration(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("CLASSIFY_DELAY", "soon")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "CLASSIFY_DELAY") {
		t.Fatalf("expected CLASSIFY_DELAY parse error, got %v", err)
	}
}
