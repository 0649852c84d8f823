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

// Package serve implements the serve command, which runs the MCP server.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	"github.com/tombee/mcp-toolbox/internal/config"
	toolboxlog "github.com/tombee/mcp-toolbox/internal/log"
	"github.com/tombee/mcp-toolbox/internal/mcp/server"
	"github.com/tombee/mcp-toolbox/internal/permissions"
	"github.com/tombee/mcp-toolbox/internal/secrets"
	"github.com/tombee/mcp-toolbox/internal/tools/fetch"
	"github.com/tombee/mcp-toolbox/internal/tools/imaging"
	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
	"github.com/tombee/mcp-toolbox/internal/tracing"
	"github.com/tombee/mcp-toolbox/pkg/httpclient"
)

type options struct {
	transport string
	addr      string
	logLevel  string
	dbPath    string
}

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the mcp-toolbox MCP (Model Context Protocol) server.

The server runs over stdio by default, which is how desktop clients launch it.
Use --transport http to serve streamable HTTP at /mcp (with legacy SSE at /sse)
for remote clients and the inspector.

Configuration example for Claude Desktop (see 'mcp-toolbox desktop-config'):

  {
    "mcpServers": {
      "mcp-toolbox": {
        "command": "/usr/local/bin/mcp-toolbox",
        "args": ["serve"]
      }
    }
  }

The server exposes these tools:
  - add: Add two numbers
  - calculate: Evaluate an arithmetic expression
  - greet: Personalized greeting
  - fetch: Fetch a URL (private addresses blocked by default)
  - db_schema, query_data: Inspect the SQLite database read-only
  - create_thumbnail: Resize an image to PNG
  - health: Check backend status

Resources: greeting://{name}, schema://main
Prompts: review_code, debug_error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "", "Transport: stdio, http or sse (default from config, stdio)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address for http and sse transports")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Logging verbosity (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path")

	return cmd
}

func runServe(cmd *cobra.Command, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if shared.GetVerbose() {
		cfg.Log.Level = "debug"
	}
	logger := toolboxlog.New(&toolboxlog.Config{
		Level:     cfg.Log.Level,
		Format:    toolboxlog.Format(cfg.Log.Format),
		Output:    os.Stderr,
		AddSource: cfg.Log.AddSource,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, cfg, logger)
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(config.Resolve(shared.GetConfigPath()))
	if err != nil {
		return nil, shared.NewConfigError("failed to load configuration", err)
	}

	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.dbPath != "" {
		path, err := filepath.Abs(opts.dbPath)
		if err != nil {
			return nil, shared.NewInputError("invalid --db path", err)
		}
		cfg.Database.Path = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, shared.NewInputError("invalid flags", err)
	}
	return cfg, nil
}

// Run assembles the server from cfg and serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	version, _, _ := shared.GetVersion()

	provider, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:    cfg.Server.Name,
		ServiceVersion: version,
		Exporter:       cfg.Observability.Tracing.Exporter,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		Insecure:       cfg.Observability.Tracing.Insecure,
		SampleRatio:    cfg.Observability.Tracing.SampleRatio,
	})
	if err != nil {
		return shared.NewConfigError("failed to start tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", toolboxlog.Error(err))
		}
	}()

	checker, err := newChecker(cfg)
	if err != nil {
		return shared.NewConfigError("invalid paths.allowed", err)
	}

	dbPath, err := checker.CheckRead(cfg.Database.Path)
	if err != nil {
		return shared.NewConfigError("database.path is not readable", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		logger.Warn("database not found, run 'mcp-toolbox init' to create it", slog.String("path", dbPath))
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Fetch.Timeout
	httpCfg.RetryAttempts = cfg.Fetch.RetryAttempts
	httpCfg.UserAgent = cfg.Fetch.UserAgent
	httpCfg.Logger = toolboxlog.WithComponent(logger, "fetch")

	fetcher, err := fetch.New(fetch.Config{
		HTTP:         httpCfg,
		MaxBytes:     cfg.Fetch.MaxBytes,
		AllowPrivate: cfg.Fetch.AllowPrivate,
	})
	if err != nil {
		return shared.NewConfigError("invalid fetch configuration", err)
	}

	srv, err := server.NewServer(server.ServerConfig{
		Name:             cfg.Server.Name,
		Version:          version,
		Instructions:     cfg.Server.Instructions,
		Logger:           toolboxlog.WithComponent(logger, "mcp"),
		Fetcher:          fetcher,
		Images:           imaging.NewProcessor(checker, cfg.Images.MaxDimension, cfg.Images.MaxFileBytes),
		DatabasePath:     dbPath,
		QueryTimeout:     cfg.Database.QueryTimeout,
		MaxRows:          cfg.Database.MaxRows,
		CallsPerMinute:   cfg.RateLimit.CallsPerMinute,
		FetchesPerMinute: cfg.RateLimit.FetchesPerMinute,
		Tracer:           provider.Tracer("mcp-toolbox"),
		Metrics:          provider.Metrics(),
	})
	if err != nil {
		return shared.NewExecutionError("failed to create MCP server", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Database.Watch {
		watcher, err := sqlitedb.NewWatcher(sqlitedb.WatcherConfig{
			Path:     dbPath,
			OnChange: srv.NotifySchemaChanged,
			Logger:   toolboxlog.WithComponent(logger, "watcher"),
		})
		if err != nil {
			// The server is still useful without change notifications.
			logger.Warn("database watcher disabled", toolboxlog.Error(err))
		} else {
			g.Go(func() error { return watcher.Run(ctx) })
		}
	}

	switch cfg.Server.Transport {
	case config.TransportHTTP, config.TransportSSE:
		httpServerCfg, err := httpConfig(ctx, cfg, provider)
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.ServeHTTP(ctx, httpServerCfg) })
	default:
		g.Go(func() error {
			if err := srv.Run(ctx); err != nil {
				return err
			}
			// stdin closed: the client is gone, stop the watcher too.
			return errStdioClosed
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errStdioClosed) {
		return shared.NewExecutionError("MCP server error", err)
	}
	return nil
}

var errStdioClosed = errors.New("stdio transport closed")

func httpConfig(ctx context.Context, cfg *config.Config, provider *tracing.Provider) (server.HTTPConfig, error) {
	out := server.HTTPConfig{
		Addr:            cfg.Server.Addr,
		BaseURL:         cfg.Server.BaseURL,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if cfg.Observability.Metrics {
		out.MetricsHandler = provider.MetricsHandler()
	}

	if cfg.HTTPAuth.Enabled {
		secret, err := secrets.NewResolver().Resolve(ctx, cfg.HTTPAuth.Secret)
		if err != nil {
			return out, shared.NewConfigError("failed to resolve http_auth.secret", err)
		}
		out.Auth = server.AuthConfig{
			Secret:   []byte(secret),
			Issuer:   cfg.HTTPAuth.Issuer,
			Audience: cfg.HTTPAuth.Audience,
		}
	}
	return out, nil
}

// newChecker roots file access at the config file's directory when one was
// loaded, otherwise at the working directory.
func newChecker(cfg *config.Config) (*permissions.Checker, error) {
	if cfg.BaseDir != "" {
		return permissions.NewCheckerAt(cfg.BaseDir, cfg.Paths.Allowed), nil
	}
	return permissions.NewChecker(cfg.Paths.Allowed)
}
