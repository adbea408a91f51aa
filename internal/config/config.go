// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.smithers/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Model: Genkit model and embedder selection
//   - Agent: iteration bound and decision/tool timeouts
//   - Session: in-memory conversation store bounds
//   - Storage: PostgreSQL connection for the knowledge base (see storage.go)
//   - Forecast: marine forecast API endpoint
//   - Observability: optional OTLP trace export
//
// Security: Sensitive data (passwords) are never logged; config directory uses 0750 permissions.
// Validation: Range checks in validation.go with sentinel errors for errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidMaxIterations indicates the agent iteration bound is out of range.
	ErrInvalidMaxIterations = errors.New("invalid max iterations")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidSessionBounds indicates a session store bound is out of range.
	ErrInvalidSessionBounds = errors.New("invalid session bounds")

	// ErrInvalidServerAddr indicates the HTTP listen address is invalid.
	ErrInvalidServerAddr = errors.New("invalid server address")

	// ErrInvalidTopK indicates the knowledge search top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidForecastURL indicates the forecast base URL is invalid.
	ErrInvalidForecastURL = errors.New("invalid forecast base URL")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultModelName is the default Genkit model for the decision function.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation to 768 via OutputDimensionality. Our pgvector schema uses
	// 768 dimensions; see db/migrations.
	DefaultEmbedderModel = "gemini-embedding-001"
)

// SessionConfig bounds the in-memory conversation store.
type SessionConfig struct {
	MaxSessions int `mapstructure:"max_sessions" json:"max_sessions"`
	IdleMinutes int `mapstructure:"idle_minutes" json:"idle_minutes"`
	MaxTurns    int `mapstructure:"max_turns" json:"max_turns"`
}

// KnowledgeConfig configures the knowledge base tool.
type KnowledgeConfig struct {
	TopK    int    `mapstructure:"top_k" json:"top_k"`
	DocsDir string `mapstructure:"docs_dir" json:"docs_dir"`
}

// ForecastConfig configures the marine forecast client.
type ForecastConfig struct {
	BaseURL        string `mapstructure:"base_url" json:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// ObservabilityConfig configures optional OTLP trace export.
// Tracing is disabled when OTLPEndpoint is empty.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
	Environment  string `mapstructure:"environment" json:"environment"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// Model configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"` // Genkit model ref (e.g. "googleai/gemini-2.5-flash")
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Agent loop configuration
	MaxIterations          int `mapstructure:"max_iterations" json:"max_iterations"`
	DecisionTimeoutSeconds int `mapstructure:"decision_timeout_seconds" json:"decision_timeout_seconds"`
	ToolTimeoutSeconds     int `mapstructure:"tool_timeout_seconds" json:"tool_timeout_seconds"`

	// Session store configuration
	Session SessionConfig `mapstructure:"session" json:"session"`

	// HTTP server configuration (serve mode only)
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Knowledge base configuration
	Knowledge KnowledgeConfig `mapstructure:"knowledge" json:"knowledge"`

	// Forecast configuration
	Forecast ForecastConfig `mapstructure:"forecast" json:"forecast"`

	// Observability configuration
	Observability ObservabilityConfig `mapstructure:"observability" json:"observability"`
}

// DecisionTimeout returns the decision timeout as a duration.
func (c *Config) DecisionTimeout() time.Duration {
	return time.Duration(c.DecisionTimeoutSeconds) * time.Second
}

// ToolTimeout returns the per-tool execution timeout as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

// SessionIdleTTL returns the session idle TTL as a duration.
// A negative idle_minutes disables idle eviction.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.Session.IdleMinutes) * time.Minute
}

// ForecastTimeout returns the forecast HTTP timeout as a duration.
func (c *Config) ForecastTimeout() time.Duration {
	return time.Duration(c.Forecast.TimeoutSeconds) * time.Second
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.smithers/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".smithers")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings when set.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Fail fast on invalid configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Model defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	// Agent loop defaults
	viper.SetDefault("max_iterations", 5)
	viper.SetDefault("decision_timeout_seconds", 30)
	viper.SetDefault("tool_timeout_seconds", 10)

	// Session store defaults
	viper.SetDefault("session.max_sessions", 1000)
	viper.SetDefault("session.idle_minutes", 30)
	viper.SetDefault("session.max_turns", 100)

	// Server defaults
	viper.SetDefault("server_addr", ":8080")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "smithers")
	viper.SetDefault("postgres_password", "smithers_dev_password")
	viper.SetDefault("postgres_db_name", "smithers")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Knowledge base defaults
	viper.SetDefault("knowledge.top_k", 5)
	viper.SetDefault("knowledge.docs_dir", "docs")

	// Forecast defaults
	viper.SetDefault("forecast.base_url", "https://marine-api.open-meteo.com")
	viper.SetDefault("forecast.timeout_seconds", 10)

	// Observability defaults (tracing off unless an endpoint is configured)
	viper.SetDefault("observability.otlp_endpoint", "")
	viper.SetDefault("observability.service_name", "smithers")
	viper.SetDefault("observability.environment", "dev")
}

// bindEnvVariables binds environment variable overrides explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper;
// its presence is checked in cfg.Validate().
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "SMITHERS_MODEL_NAME")
	mustBind("embedder_model", "SMITHERS_EMBEDDER_MODEL")
	mustBind("server_addr", "SMITHERS_SERVER_ADDR")
	mustBind("knowledge.docs_dir", "SMITHERS_DOCS_DIR")
	mustBind("forecast.base_url", "SMITHERS_FORECAST_URL")
	mustBind("observability.otlp_endpoint", "SMITHERS_OTLP_ENDPOINT")
	mustBind("observability.environment", "SMITHERS_ENVIRONMENT")

	// NOTE: DATABASE_URL is parsed separately in parseDatabaseURL()
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 chars or fewer are fully masked; longer secrets show the
// first and last 2 characters for debug utility.
//
// THREAT MODEL: This defends against accidental logging of real secrets.
// It is NOT cryptographically secure - if logs are compromised, rotate secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - PostgresPassword
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
