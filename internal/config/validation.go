package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key (required for all model operations; read directly by Genkit)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Agent loop bounds. The iteration cap keeps a single turn from looping
	// forever on repeated tool requests.
	if c.MaxIterations < 1 || c.MaxIterations > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidMaxIterations, c.MaxIterations)
	}
	if c.DecisionTimeoutSeconds < 1 || c.DecisionTimeoutSeconds > 600 {
		return fmt.Errorf("%w: decision_timeout_seconds must be between 1 and 600, got %d",
			ErrInvalidTimeout, c.DecisionTimeoutSeconds)
	}
	if c.ToolTimeoutSeconds < 1 || c.ToolTimeoutSeconds > 600 {
		return fmt.Errorf("%w: tool_timeout_seconds must be between 1 and 600, got %d",
			ErrInvalidTimeout, c.ToolTimeoutSeconds)
	}

	// Session store bounds
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("%w: session.max_sessions must be at least 1, got %d",
			ErrInvalidSessionBounds, c.Session.MaxSessions)
	}
	if c.Session.MaxTurns < 2 {
		return fmt.Errorf("%w: session.max_turns must be at least 2 to hold one exchange, got %d",
			ErrInvalidSessionBounds, c.Session.MaxTurns)
	}

	// Server address
	if c.ServerAddr == "" || !strings.Contains(c.ServerAddr, ":") {
		return fmt.Errorf("%w: server_addr must be host:port or :port, got %q",
			ErrInvalidServerAddr, c.ServerAddr)
	}

	// Knowledge base
	if c.Knowledge.TopK < 1 || c.Knowledge.TopK > 10 {
		return fmt.Errorf("%w: knowledge.top_k must be between 1 and 10, got %d",
			ErrInvalidTopK, c.Knowledge.TopK)
	}

	// Forecast client
	if !strings.HasPrefix(c.Forecast.BaseURL, "http://") && !strings.HasPrefix(c.Forecast.BaseURL, "https://") {
		return fmt.Errorf("%w: must start with http:// or https://, got %q",
			ErrInvalidForecastURL, c.Forecast.BaseURL)
	}
	if c.Forecast.TimeoutSeconds < 1 || c.Forecast.TimeoutSeconds > 120 {
		return fmt.Errorf("%w: forecast.timeout_seconds must be between 1 and 120, got %d",
			ErrInvalidTimeout, c.Forecast.TimeoutSeconds)
	}

	// PostgreSQL connection
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}

	// Warn on the shipped dev password but don't block local development.
	if c.PostgresPassword == "smithers_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only - exclude deprecated allow/prefer (MITM vulnerable)
	// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
