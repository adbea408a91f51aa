package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/smithers-ai/smithers/db"
	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/config"
	"github.com/smithers-ai/smithers/internal/forecast"
	"github.com/smithers-ai/smithers/internal/knowledge"
	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/model"
	"github.com/smithers-ai/smithers/internal/observability"
	"github.com/smithers-ai/smithers/internal/session"
	"github.com/smithers-ai/smithers/internal/tools"
)

// Options tune what Setup builds.
type Options struct {
	// SkipDatabase builds the app without PostgreSQL. The knowledge search
	// tool is then unavailable; the forecast tool still works. Used by
	// commands that must run without a database.
	SkipDatabase bool
}

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger, opts Options) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing first, so Genkit's TracerProvider is ready before Init.
	a.otelCleanup = observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Observability.Environment,
	}, logger)

	if !opts.SkipDatabase {
		pool, cleanup, err := provideDBPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.DBPool = pool
		a.dbCleanup = cleanup
	}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	if a.DBPool != nil {
		store, err := knowledge.New(knowledge.NewPGQuerier(a.DBPool), a.Embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("creating knowledge store: %w", err)
		}
		a.Knowledge = store
	}

	a.Forecast, err = forecast.NewClient(forecast.Config{
		Logger:  logger,
		BaseURL: cfg.Forecast.BaseURL,
		Timeout: cfg.ForecastTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating forecast client: %w", err)
	}

	a.Registry, err = provideRegistry(a, cfg)
	if err != nil {
		return nil, err
	}

	a.Sessions, err = session.New(session.Config{
		Logger:      logger,
		MaxSessions: cfg.Session.MaxSessions,
		IdleTTL:     cfg.SessionIdleTTL(),
		MaxTurns:    cfg.Session.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	decider, err := model.New(model.Config{
		Genkit:    g,
		Logger:    logger,
		ModelName: cfg.ModelName,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decider: %w", err)
	}

	a.Runner, err = agent.New(agent.Config{
		Decider:         decider,
		Tools:           a.Registry,
		Sessions:        a.Sessions,
		Logger:          logger,
		MaxIterations:   cfg.MaxIterations,
		DecisionTimeout: cfg.DecisionTimeout(),
		ToolTimeout:     cfg.ToolTimeout(),
		RateLimiter:     rate.NewLimiter(rate.Limit(1), 3),
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent runner: %w", err)
	}

	return a, nil
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
// Connections register pgvector types so embeddings scan natively.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// provideGenkit initializes Genkit with the Google AI plugin.
// GEMINI_API_KEY is read by the plugin directly; config validation has
// already checked its presence.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
		genkit.WithDefaultModel(cfg.ModelName),
	)
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	logger.Info("initialized Genkit", "model", cfg.ModelName)
	return g, nil
}

// provideRegistry builds the tool registry the agent loop resolves
// against. The knowledge search tool is only registered when the
// knowledge store exists.
func provideRegistry(a *App, cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	forecastTool, err := tools.NewSurfForecast(a.Forecast)
	if err != nil {
		return nil, fmt.Errorf("creating forecast tool: %w", err)
	}
	if err := registry.Register(forecastTool); err != nil {
		return nil, fmt.Errorf("registering forecast tool: %w", err)
	}

	if a.Knowledge != nil {
		searchTool, err := tools.NewSearchKnowledge(a.Knowledge, cfg.Knowledge.TopK)
		if err != nil {
			return nil, fmt.Errorf("creating search tool: %w", err)
		}
		if err := registry.Register(searchTool); err != nil {
			return nil, fmt.Errorf("registering search tool: %w", err)
		}
	}

	return registry, nil
}
