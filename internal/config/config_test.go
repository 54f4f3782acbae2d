package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("querygate-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.LogPretty {
		t.Fatal("LogPretty should default to true in dev")
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Agents.Provider != ProviderNone {
		t.Fatalf("Agents.Provider = %q, want disabled", cfg.Agents.Provider)
	}
	if cfg.Agents.Temperature != 0.1 {
		t.Fatalf("Agents.Temperature = %f", cfg.Agents.Temperature)
	}
	if cfg.Agents.MaxTokens != 2000 {
		t.Fatalf("Agents.MaxTokens = %d", cfg.Agents.MaxTokens)
	}
	if cfg.Validation.MaxRowLimit != 50 {
		t.Fatalf("Validation.MaxRowLimit = %d", cfg.Validation.MaxRowLimit)
	}
	if cfg.Validation.DefaultDialect != "postgres" {
		t.Fatalf("Validation.DefaultDialect = %q", cfg.Validation.DefaultDialect)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"QUERYGATE_PROFILE": "prod"})
	cfg, err := Load("querygate-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
	if cfg.Observability.LogPretty {
		t.Fatal("LogPretty should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"QUERYGATE_PROFILE":                    "test",
		"QUERYGATE_SERVICE_NAME":               "querygate-custom",
		"QUERYGATE_HTTP_ADDR":                  ":9999",
		"QUERYGATE_HTTP_READ_TIMEOUT":          "2s",
		"QUERYGATE_HTTP_WRITE_TIMEOUT":         "3s",
		"QUERYGATE_LOG_LEVEL":                  "error",
		"QUERYGATE_AUTH_REQUIRED":              "true",
		"QUERYGATE_AUTH_STATIC_KEYS":           "k1:t1:query_validator",
		"QUERYGATE_AGENTS_PROVIDER":            "anthropic",
		"QUERYGATE_AGENTS_API_KEY":             "secret-key",
		"QUERYGATE_AGENTS_PLANNER_MODEL":       "claude-sonnet-4-5",
		"QUERYGATE_AGENTS_WRITER_MODEL":        "claude-haiku-4-5",
		"QUERYGATE_AGENTS_TEMPERATURE":         "0.3",
		"QUERYGATE_AGENTS_MAX_TOKENS":          "1500",
		"QUERYGATE_AGENTS_TIMEOUT":             "21s",
		"QUERYGATE_VALIDATION_MAX_ROW_LIMIT":   "200",
		"QUERYGATE_VALIDATION_DEFAULT_DIALECT": "sqlite",
	})
	cfg, err := Load("querygate-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "querygate-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP.WriteTimeout = %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:t1:query_validator" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
	if cfg.Agents.Provider != ProviderAnthropic {
		t.Fatalf("Agents.Provider = %q", cfg.Agents.Provider)
	}
	if cfg.Agents.APIKey != "secret-key" {
		t.Fatalf("Agents.APIKey = %q", cfg.Agents.APIKey)
	}
	if cfg.Agents.PlannerModel != "claude-sonnet-4-5" {
		t.Fatalf("Agents.PlannerModel = %q", cfg.Agents.PlannerModel)
	}
	if cfg.Agents.WriterModel != "claude-haiku-4-5" {
		t.Fatalf("Agents.WriterModel = %q", cfg.Agents.WriterModel)
	}
	if cfg.Agents.Temperature != 0.3 {
		t.Fatalf("Agents.Temperature = %f", cfg.Agents.Temperature)
	}
	if cfg.Agents.MaxTokens != 1500 {
		t.Fatalf("Agents.MaxTokens = %d", cfg.Agents.MaxTokens)
	}
	if cfg.Agents.Timeout != 21*time.Second {
		t.Fatalf("Agents.Timeout = %s", cfg.Agents.Timeout)
	}
	if cfg.Validation.MaxRowLimit != 200 {
		t.Fatalf("Validation.MaxRowLimit = %d", cfg.Validation.MaxRowLimit)
	}
	if cfg.Validation.DefaultDialect != "sqlite" {
		t.Fatalf("Validation.DefaultDialect = %q", cfg.Validation.DefaultDialect)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"QUERYGATE_PROFILE": "oops"},
		{"QUERYGATE_HTTP_READ_TIMEOUT": "NaN"},
		{"QUERYGATE_AGENTS_PROVIDER": "cohere"},
		{"QUERYGATE_AGENTS_TEMPERATURE": "bad"},
		{"QUERYGATE_AGENTS_MAX_TOKENS": "oops"},
		{"QUERYGATE_VALIDATION_MAX_ROW_LIMIT": "0"},
		{"QUERYGATE_VALIDATION_DEFAULT_DIALECT": "oracle"},
		{"QUERYGATE_AUTH_REQUIRED": "not-bool"},
		{"QUERYGATE_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("querygate-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
