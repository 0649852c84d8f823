// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server assembles the mcp-toolbox MCP server: tools, resources,
// prompts, middleware and transports.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tombee/mcp-toolbox/internal/tools/calc"
	"github.com/tombee/mcp-toolbox/internal/tools/fetch"
	"github.com/tombee/mcp-toolbox/internal/tools/imaging"
	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
	"github.com/tombee/mcp-toolbox/internal/tracing"
)

// Server wraps the MCP server and the tool backends.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	rateLimiter *RateLimiter
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *tracing.MetricsCollector

	evaluator    *calc.Evaluator
	fetcher      *fetch.Fetcher
	images       *imaging.Processor
	dbPath       string
	queryTimeout time.Duration
	maxRows      int
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name (default: "mcp-toolbox").
	Name string

	// Version is reported in the initialize response.
	Version string

	// Instructions are sent to clients during initialization.
	Instructions string

	// Logger defaults to a text logger on stderr.
	Logger *slog.Logger

	// Fetcher backs the fetch tool. The tool is not registered when nil.
	Fetcher *fetch.Fetcher

	// Images backs create_thumbnail. The tool is not registered when nil.
	Images *imaging.Processor

	// DatabasePath is the SQLite file behind schema://main and query_data.
	DatabasePath string

	// QueryTimeout bounds query_data. Default 10s.
	QueryTimeout time.Duration

	// MaxRows is the default query_data row limit. Default 100.
	MaxRows int

	// CallsPerMinute and FetchesPerMinute configure rate limiting. Zero
	// disables the limit.
	CallsPerMinute   int
	FetchesPerMinute int

	// Tracer records a span per call. Defaults to a no-op tracer.
	Tracer trace.Tracer

	// Metrics records call counts and durations. Optional.
	Metrics *tracing.MetricsCollector
}

// NewServer creates a new MCP server instance with every tool, resource and
// prompt registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.CallsPerMinute < 0 || cfg.FetchesPerMinute < 0 {
		return nil, fmt.Errorf("rate limits cannot be negative")
	}
	if cfg.Name == "" {
		cfg.Name = "mcp-toolbox"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("mcp-toolbox")
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.MaxRows <= 0 || cfg.MaxRows > sqlitedb.MaxLimit {
		cfg.MaxRows = sqlitedb.DefaultLimit
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithLogging(),
	}
	if cfg.Instructions != "" {
		opts = append(opts, server.WithInstructions(cfg.Instructions))
	}

	s := &Server{
		mcpServer:    server.NewMCPServer(cfg.Name, cfg.Version, opts...),
		name:         cfg.Name,
		version:      cfg.Version,
		rateLimiter:  NewRateLimiter(cfg.CallsPerMinute, cfg.FetchesPerMinute),
		logger:       cfg.Logger,
		tracer:       cfg.Tracer,
		metrics:      cfg.Metrics,
		evaluator:    calc.NewEvaluator(),
		fetcher:      cfg.Fetcher,
		images:       cfg.Images,
		dbPath:       cfg.DatabasePath,
		queryTimeout: cfg.QueryTimeout,
		maxRows:      cfg.MaxRows,
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// MCPServer exposes the underlying server for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Run serves the stdio transport until ctx is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunStdio(ctx, os.Stdin, os.Stdout)
}

// RunStdio serves MCP over the given reader and writer.
func (s *Server) RunStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting mcp server",
		slog.String("name", s.name),
		slog.String("version", s.version),
		slog.String("transport", "stdio"),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	s.logger.Info("mcp server stopped")
	return nil
}

// NotifySchemaChanged tells connected clients that schema://main changed.
func (s *Server) NotifySchemaChanged() {
	s.mcpServer.SendNotificationToAllClients("notifications/resources/updated", map[string]any{
		"uri": sqlitedb.SchemaURI,
	})
}

// errorResponse creates a tool error result.
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// textResponse creates a single-text tool result.
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
