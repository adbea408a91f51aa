// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the surf assistant: database pool,
// Genkit, embedder, knowledge store, forecast client, tool registry,
// session store, and the agent runner. Setup builds everything in
// dependency order; Close releases it.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/config"
	"github.com/smithers-ai/smithers/internal/forecast"
	"github.com/smithers-ai/smithers/internal/knowledge"
	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/session"
	"github.com/smithers-ai/smithers/internal/tools"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Knowledge *knowledge.Store
	Forecast  *forecast.Client
	Registry  *tools.Registry
	Sessions  *session.Store
	Runner    *agent.Runner

	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}

// Searcher returns the knowledge store as a tool searcher, or nil when
// the knowledge base is not available.
func (a *App) Searcher() tools.Searcher {
	if a.Knowledge == nil {
		return nil
	}
	return a.Knowledge
}
