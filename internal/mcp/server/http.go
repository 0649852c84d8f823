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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/tombee/mcp-toolbox/internal/tracing"
)

// HTTPConfig configures the HTTP transports.
type HTTPConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string

	// BaseURL is the public URL advertised to SSE clients. Derived from
	// Addr when empty.
	BaseURL string

	// Auth enables bearer JWT authentication on the MCP endpoints.
	Auth AuthConfig

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// ShutdownTimeout bounds graceful shutdown. Default 10s.
	ShutdownTimeout time.Duration
}

// Handler returns the HTTP routes: /mcp (streamable HTTP), /sse and
// /message (legacy SSE), /healthz and optionally /metrics.
func (s *Server) Handler(cfg HTTPConfig) http.Handler {
	contextFunc := func(ctx context.Context, r *http.Request) context.Context {
		if id := tracing.FromContextOrEmpty(r.Context()); id != "" {
			return tracing.ToContext(ctx, id)
		}
		return ctx
	}

	streamable := server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(contextFunc),
	)
	sse := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(baseURL(cfg)),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithSSEContextFunc(contextFunc),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", AuthMiddleware(cfg.Auth, streamable))
	mux.Handle("/sse", AuthMiddleware(cfg.Auth, sse))
	mux.Handle("/message", AuthMiddleware(cfg.Auth, sse))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	return tracing.CorrelationMiddleware(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"name":    s.name,
		"version": s.version,
	})
}

// ServeHTTP serves the HTTP transports until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ServeHTTP(ctx context.Context, cfg HTTPConfig) error {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://" + ln.Addr().String()
	}

	httpServer := &http.Server{
		Handler:           s.Handler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting mcp server",
		slog.String("name", s.name),
		slog.String("version", s.version),
		slog.String("transport", "http"),
		slog.String("addr", ln.Addr().String()),
		slog.String("streamable_url", cfg.BaseURL+"/mcp"),
		slog.String("sse_url", cfg.BaseURL+"/sse"),
		slog.Bool("auth", cfg.Auth.Enabled()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down mcp server", slog.Duration("timeout", cfg.ShutdownTimeout))
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("mcp server stopped")
	return nil
}

func baseURL(cfg HTTPConfig) string {
	if cfg.BaseURL != "" {
		return strings.TrimSuffix(cfg.BaseURL, "/")
	}
	addr := cfg.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
