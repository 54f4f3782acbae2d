package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	ProviderNone      = ""
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Agents        AgentsConfig
	Validation    ValidationConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AgentsConfig selects and configures the model provider behind the planner
// and writer agents. An empty provider disables generation; the validation
// endpoint keeps working without it.
type AgentsConfig struct {
	Provider     string
	APIKey       string
	BaseURL      string
	PlannerModel string
	WriterModel  string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

type ValidationConfig struct {
	MaxRowLimit    int
	DefaultDialect string
}

type ObservabilityConfig struct {
	LogLevel  slog.Level
	LogJSON   bool
	LogPretty bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("QUERYGATE_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid QUERYGATE_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "QUERYGATE_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYGATE_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYGATE_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYGATE_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_AGENTS_PROVIDER", &cfg.Agents.Provider); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_AGENTS_API_KEY", &cfg.Agents.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_AGENTS_BASE_URL", &cfg.Agents.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_AGENTS_PLANNER_MODEL", &cfg.Agents.PlannerModel); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_AGENTS_WRITER_MODEL", &cfg.Agents.WriterModel); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "QUERYGATE_AGENTS_TEMPERATURE", &cfg.Agents.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYGATE_AGENTS_MAX_TOKENS", &cfg.Agents.MaxTokens); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYGATE_AGENTS_TIMEOUT", &cfg.Agents.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYGATE_VALIDATION_MAX_ROW_LIMIT", &cfg.Validation.MaxRowLimit); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_VALIDATION_DEFAULT_DIALECT", &cfg.Validation.DefaultDialect); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYGATE_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYGATE_LOG_PRETTY", &cfg.Observability.LogPretty); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "QUERYGATE_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYGATE_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYGATE_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	cfg.Agents.Provider = strings.ToLower(cfg.Agents.Provider)
	switch cfg.Agents.Provider {
	case ProviderNone, ProviderAnthropic, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("invalid QUERYGATE_AGENTS_PROVIDER: %q", cfg.Agents.Provider)
	}
	if cfg.Validation.MaxRowLimit <= 0 {
		return Config{}, fmt.Errorf("QUERYGATE_VALIDATION_MAX_ROW_LIMIT must be positive")
	}
	switch strings.ToLower(cfg.Validation.DefaultDialect) {
	case "postgres", "mysql", "sqlite":
		cfg.Validation.DefaultDialect = strings.ToLower(cfg.Validation.DefaultDialect)
	default:
		return Config{}, fmt.Errorf("invalid QUERYGATE_VALIDATION_DEFAULT_DIALECT: %q", cfg.Validation.DefaultDialect)
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "querygate-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Agents: AgentsConfig{
			Provider:    ProviderNone,
			BaseURL:     "https://api.groq.com/openai",
			Temperature: 0.1,
			MaxTokens:   2000,
			Timeout:     30 * time.Second,
		},
		Validation: ValidationConfig{
			MaxRowLimit:    50,
			DefaultDialect: "postgres",
		},
		Observability: ObservabilityConfig{
			LogLevel:  slog.LevelDebug,
			LogJSON:   false,
			LogPretty: true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Observability.LogPretty = false
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Observability.LogPretty = false
		cfg.Auth.Required = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
