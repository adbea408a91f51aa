package config

import (
	"errors"
	"testing"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		ModelName:              DefaultModelName,
		EmbedderModel:          DefaultEmbedderModel,
		MaxIterations:          5,
		DecisionTimeoutSeconds: 30,
		ToolTimeoutSeconds:     10,
		Session:                SessionConfig{MaxSessions: 1000, IdleMinutes: 30, MaxTurns: 100},
		ServerAddr:             ":8080",
		PostgresHost:           "localhost",
		PostgresPort:           5432,
		PostgresUser:           "smithers",
		PostgresPassword:       "a_real_password",
		PostgresDBName:         "smithers",
		PostgresSSLMode:        "disable",
		Knowledge:              KnowledgeConfig{TopK: 5, DocsDir: "docs"},
		Forecast:               ForecastConfig{BaseURL: "https://marine-api.open-meteo.com", TimeoutSeconds: 10},
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-api-key")

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: nil},
		{name: "empty model name", mutate: func(c *Config) { c.ModelName = "" }, wantErr: ErrInvalidModelName},
		{name: "empty embedder model", mutate: func(c *Config) { c.EmbedderModel = "" }, wantErr: ErrInvalidEmbedderModel},
		{name: "zero max iterations", mutate: func(c *Config) { c.MaxIterations = 0 }, wantErr: ErrInvalidMaxIterations},
		{name: "excessive max iterations", mutate: func(c *Config) { c.MaxIterations = 51 }, wantErr: ErrInvalidMaxIterations},
		{name: "zero decision timeout", mutate: func(c *Config) { c.DecisionTimeoutSeconds = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero tool timeout", mutate: func(c *Config) { c.ToolTimeoutSeconds = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero max sessions", mutate: func(c *Config) { c.Session.MaxSessions = 0 }, wantErr: ErrInvalidSessionBounds},
		{name: "max turns below one exchange", mutate: func(c *Config) { c.Session.MaxTurns = 1 }, wantErr: ErrInvalidSessionBounds},
		{name: "empty server addr", mutate: func(c *Config) { c.ServerAddr = "" }, wantErr: ErrInvalidServerAddr},
		{name: "server addr without port", mutate: func(c *Config) { c.ServerAddr = "localhost" }, wantErr: ErrInvalidServerAddr},
		{name: "zero top-k", mutate: func(c *Config) { c.Knowledge.TopK = 0 }, wantErr: ErrInvalidTopK},
		{name: "top-k above cap", mutate: func(c *Config) { c.Knowledge.TopK = 11 }, wantErr: ErrInvalidTopK},
		{name: "forecast url without scheme", mutate: func(c *Config) { c.Forecast.BaseURL = "marine-api.open-meteo.com" }, wantErr: ErrInvalidForecastURL},
		{name: "zero forecast timeout", mutate: func(c *Config) { c.Forecast.TimeoutSeconds = 0 }, wantErr: ErrInvalidTimeout},
		{name: "empty postgres host", mutate: func(c *Config) { c.PostgresHost = "" }, wantErr: ErrInvalidPostgresHost},
		{name: "postgres port out of range", mutate: func(c *Config) { c.PostgresPort = 70000 }, wantErr: ErrInvalidPostgresPort},
		{name: "empty postgres db name", mutate: func(c *Config) { c.PostgresDBName = "" }, wantErr: ErrInvalidPostgresDBName},
		{name: "empty postgres password", mutate: func(c *Config) { c.PostgresPassword = "" }, wantErr: ErrInvalidPostgresPassword},
		{name: "short postgres password", mutate: func(c *Config) { c.PostgresPassword = "short" }, wantErr: ErrInvalidPostgresPassword},
		{name: "deprecated ssl mode", mutate: func(c *Config) { c.PostgresSSLMode = "prefer" }, wantErr: ErrInvalidPostgresSSLMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if !errors.Is(cfg.Validate(), ErrConfigNil) {
		t.Error("expected ErrConfigNil for nil receiver")
	}
}

func TestValidateMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if !errors.Is(validConfig().Validate(), ErrMissingAPIKey) {
		t.Error("expected ErrMissingAPIKey without GEMINI_API_KEY")
	}
}
