package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smithers-ai/smithers/internal/log"
	"github.com/smithers-ai/smithers/internal/tools"
)

// Server wraps the MCP SDK server around the surf assistant's tools.
type Server struct {
	mcpServer *mcp.Server
	logger    log.Logger

	searcher   tools.Searcher
	forecaster tools.Forecaster
}

// Config holds MCP server configuration.
// Searcher may be nil when the knowledge base is not configured; the
// search tool is then not registered.
type Config struct {
	Name       string
	Version    string
	Searcher   tools.Searcher
	Forecaster tools.Forecaster
	Logger     log.Logger
}

// NewServer creates a new MCP server with the surf tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Forecaster == nil {
		return nil, fmt.Errorf("forecaster is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer:  mcpServer,
		logger:     cfg.Logger,
		searcher:   cfg.Searcher,
		forecaster: cfg.Forecaster,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport.
// This is a blocking call that handles all MCP protocol communication.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	if err := s.registerSurfForecast(); err != nil {
		return fmt.Errorf("register %s: %w", tools.SurfForecastName, err)
	}
	if s.searcher != nil {
		if err := s.registerSearchKnowledge(); err != nil {
			return fmt.Errorf("register %s: %w", tools.SearchKnowledgeName, err)
		}
	}
	return nil
}

func (s *Server) registerSurfForecast() error {
	forecastTool, err := tools.NewSurfForecast(s.forecaster)
	if err != nil {
		return err
	}

	inputSchema, err := jsonschema.For[tools.ForecastInput](nil)
	if err != nil {
		return fmt.Errorf("input schema: %w", err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        forecastTool.Name(),
		Description: forecastTool.Description(),
		InputSchema: inputSchema,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tools.ForecastInput) (*mcp.CallToolResult, any, error) {
		return s.call(ctx, forecastTool, in)
	})

	return nil
}

func (s *Server) registerSearchKnowledge() error {
	searchTool, err := tools.NewSearchKnowledge(s.searcher, 0)
	if err != nil {
		return err
	}

	inputSchema, err := jsonschema.For[tools.SearchInput](nil)
	if err != nil {
		return fmt.Errorf("input schema: %w", err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        searchTool.Name(),
		Description: searchTool.Description(),
		InputSchema: inputSchema,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tools.SearchInput) (*mcp.CallToolResult, any, error) {
		return s.call(ctx, searchTool, in)
	})

	return nil
}

// call runs a tool and builds the MCP response inline. Tool failures
// (unknown spot, missing argument) come back as error results so the
// client model can read them; marshaling failures are protocol errors.
func (s *Server) call(ctx context.Context, tool *tools.ExecutableTool, input any) (*mcp.CallToolResult, any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal input: %w", err)
	}

	output, err := tool.Execute(ctx, raw)
	if err != nil {
		s.logger.Debug("mcp tool failed", "tool", tool.Name(), "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil, nil
	}

	text, err := json.Marshal(output)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal output: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}, output, nil
}
