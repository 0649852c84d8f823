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

// Package config loads mcp-toolbox configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Transport names accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

// Tracing exporters accepted by observability.tracing.exporter.
const (
	ExporterNone     = "none"
	ExporterConsole  = "console"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

// MaxFetchBytes is the hard ceiling for fetch.max_bytes.
const MaxFetchBytes = 5 << 20

// Config represents the complete mcp-toolbox configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Fetch         FetchConfig         `yaml:"fetch"`
	Database      DatabaseConfig      `yaml:"database"`
	Images        ImagesConfig        `yaml:"images"`
	Paths         PathsConfig         `yaml:"paths"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	HTTPAuth      HTTPAuthConfig      `yaml:"http_auth"`
	Observability ObservabilityConfig `yaml:"observability"`

	// BaseDir is the absolute directory of the loaded config file. Relative
	// database.path and paths.allowed entries are resolved against it.
	BaseDir string `yaml:"-"`
}

// ServerConfig configures the MCP server identity and transport.
type ServerConfig struct {
	// Name is reported to clients in the initialize response.
	Name string `yaml:"name"`

	// Transport is stdio, http (streamable HTTP) or sse.
	// Environment: MCP_TOOLBOX_TRANSPORT
	Transport string `yaml:"transport"`

	// Addr is the listen address for http and sse transports.
	// Environment: MCP_TOOLBOX_ADDR
	Addr string `yaml:"addr"`

	// BaseURL is the externally visible URL used by the SSE transport.
	BaseURL string `yaml:"base_url,omitempty"`

	// ShutdownTimeout bounds graceful shutdown of HTTP transports.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Instructions are sent to clients during initialization.
	Instructions string `yaml:"instructions,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// FetchConfig configures the fetch tool.
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`

	// MaxBytes is the default response body limit. Capped at MaxFetchBytes.
	MaxBytes int64 `yaml:"max_bytes"`

	UserAgent string `yaml:"user_agent"`

	// AllowPrivate permits fetching loopback, private and link-local hosts.
	// Environment: MCP_TOOLBOX_FETCH_ALLOW_PRIVATE
	AllowPrivate bool `yaml:"allow_private"`
}

// DatabaseConfig configures the SQLite tools and schema resource.
type DatabaseConfig struct {
	// Path is the SQLite file exposed by schema://main and query_data.
	// Environment: MCP_TOOLBOX_DB_PATH
	Path string `yaml:"path"`

	// Watch sends resource-updated notifications when the file changes.
	Watch bool `yaml:"watch"`

	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxRows      int           `yaml:"max_rows"`
}

// ImagesConfig configures the thumbnail tool.
type ImagesConfig struct {
	MaxDimension int   `yaml:"max_dimension"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// PathsConfig configures which local files tools may open.
type PathsConfig struct {
	// Allowed are doublestar globs permitted in addition to the working
	// directory. Environment: MCP_TOOLBOX_ALLOWED_PATHS (path-list separated)
	Allowed []string `yaml:"allowed,omitempty"`
}

// RateLimitConfig configures per-process tool call limits.
type RateLimitConfig struct {
	CallsPerMinute   int `yaml:"calls_per_minute"`
	FetchesPerMinute int `yaml:"fetches_per_minute"`
}

// HTTPAuthConfig configures bearer-token auth for HTTP transports.
type HTTPAuthConfig struct {
	Enabled bool `yaml:"enabled"`

	// Secret is an HS256 key or a reference (env:NAME, keychain:NAME).
	// Environment: MCP_TOOLBOX_JWT_SECRET
	Secret string `yaml:"secret,omitempty"`

	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`
}

// ObservabilityConfig configures tracing and metrics.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`

	// Metrics exposes /metrics on HTTP transports.
	Metrics bool `yaml:"metrics"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Exporter is none, console, otlp-grpc or otlp-http.
	// Environment: MCP_TOOLBOX_TRACING_EXPORTER
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	// Environment: OTEL_EXPORTER_OTLP_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`

	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "mcp-toolbox",
			Transport:       TransportStdio,
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 5 * time.Second,
			Instructions:    "Example tools: add, calculate, greet, fetch, db_schema, query_data, create_thumbnail. Resources: greeting://{name}, schema://main.",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			RetryAttempts: 2,
			MaxBytes:      1 << 20,
			UserAgent:     "mcp-toolbox/1.0",
		},
		Database: DatabaseConfig{
			Path:         filepath.Join("data", "example.db"),
			Watch:        true,
			QueryTimeout: 10 * time.Second,
			MaxRows:      100,
		},
		Images: ImagesConfig{
			MaxDimension: 4096,
			MaxFileBytes: 50 << 20,
		},
		RateLimit: RateLimitConfig{
			CallsPerMinute:   120,
			FetchesPerMinute: 30,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Exporter:    ExporterNone,
				SampleRatio: 1.0,
			},
			Metrics: true,
		},
	}
}

// Load loads configuration from an optional YAML file, then applies
// environment overrides and validates the result. Environment variables take
// precedence over the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &toolboxerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
		if err := cfg.resolvePaths(configPath); err != nil {
			return nil, &toolboxerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to resolve paths relative to %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &toolboxerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values so minimal files work.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Server.Name == "" {
		c.Server.Name = d.Server.Name
	}
	if c.Server.Transport == "" {
		c.Server.Transport = d.Server.Transport
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = d.Fetch.Timeout
	}
	if c.Fetch.MaxBytes == 0 {
		c.Fetch.MaxBytes = d.Fetch.MaxBytes
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = d.Fetch.UserAgent
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = d.Database.QueryTimeout
	}
	if c.Database.MaxRows == 0 {
		c.Database.MaxRows = d.Database.MaxRows
	}
	if c.Images.MaxDimension == 0 {
		c.Images.MaxDimension = d.Images.MaxDimension
	}
	if c.Images.MaxFileBytes == 0 {
		c.Images.MaxFileBytes = d.Images.MaxFileBytes
	}
	if c.Observability.Tracing.Exporter == "" {
		c.Observability.Tracing.Exporter = d.Observability.Tracing.Exporter
	}
	if c.Observability.Tracing.SampleRatio == 0 {
		c.Observability.Tracing.SampleRatio = d.Observability.Tracing.SampleRatio
	}
}

// resolvePaths anchors relative file locations at the config file's
// directory so the server behaves the same from any working directory.
func (c *Config) resolvePaths(configPath string) error {
	path, err := expandHome(configPath)
	if err != nil {
		return err
	}
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}
	c.BaseDir = base

	if c.Database.Path != "" {
		if c.Database.Path, err = anchor(base, c.Database.Path); err != nil {
			return err
		}
	}
	for i, p := range c.Paths.Allowed {
		if c.Paths.Allowed[i], err = anchor(base, p); err != nil {
			return err
		}
	}
	return nil
}

func anchor(base, path string) (string, error) {
	path, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(base, path), nil
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("MCP_TOOLBOX_TRANSPORT"); val != "" {
		c.Server.Transport = strings.ToLower(val)
	}
	if val := os.Getenv("MCP_TOOLBOX_ADDR"); val != "" {
		c.Server.Addr = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("MCP_TOOLBOX_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = parseBool(val)
	}
	if parseBool(os.Getenv("MCP_TOOLBOX_DEBUG")) {
		c.Log.Level = "debug"
		c.Log.AddSource = true
	}

	if val := os.Getenv("MCP_TOOLBOX_FETCH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Fetch.Timeout = d
		}
	}
	if val := os.Getenv("MCP_TOOLBOX_FETCH_MAX_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.Fetch.MaxBytes = n
		}
	}
	if val := os.Getenv("MCP_TOOLBOX_FETCH_ALLOW_PRIVATE"); val != "" {
		c.Fetch.AllowPrivate = parseBool(val)
	}

	if val := os.Getenv("MCP_TOOLBOX_DB_PATH"); val != "" {
		c.Database.Path = val
	}
	if val := os.Getenv("MCP_TOOLBOX_ALLOWED_PATHS"); val != "" {
		c.Paths.Allowed = append(c.Paths.Allowed, filepath.SplitList(val)...)
	}

	if val := os.Getenv("MCP_TOOLBOX_JWT_SECRET"); val != "" {
		c.HTTPAuth.Secret = val
		c.HTTPAuth.Enabled = true
	}

	if val := os.Getenv("MCP_TOOLBOX_TRACING_EXPORTER"); val != "" {
		c.Observability.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Observability.Tracing.Endpoint = val
	}
}

// Validate checks that the configuration is valid. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
	default:
		errs = append(errs, fmt.Sprintf("server.transport must be one of stdio, http, sse, got %q", c.Server.Transport))
	}
	if c.Server.Transport != TransportStdio && c.Server.Addr == "" {
		errs = append(errs, "server.addr is required for http and sse transports")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout))
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be trace, debug, info, warn or error, got %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("fetch.timeout must be positive, got %v", c.Fetch.Timeout))
	}
	if c.Fetch.RetryAttempts < 0 {
		errs = append(errs, fmt.Sprintf("fetch.retry_attempts must be >= 0, got %d", c.Fetch.RetryAttempts))
	}
	if c.Fetch.MaxBytes <= 0 || c.Fetch.MaxBytes > MaxFetchBytes {
		errs = append(errs, fmt.Sprintf("fetch.max_bytes must be between 1 and %d, got %d", MaxFetchBytes, c.Fetch.MaxBytes))
	}

	if c.Database.MaxRows < 1 || c.Database.MaxRows > 1000 {
		errs = append(errs, fmt.Sprintf("database.max_rows must be between 1 and 1000, got %d", c.Database.MaxRows))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("database.query_timeout must be positive, got %v", c.Database.QueryTimeout))
	}

	if c.Images.MaxDimension < 1 || c.Images.MaxDimension > 4096 {
		errs = append(errs, fmt.Sprintf("images.max_dimension must be between 1 and 4096, got %d", c.Images.MaxDimension))
	}
	if c.Images.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Sprintf("images.max_file_bytes must be positive, got %d", c.Images.MaxFileBytes))
	}

	if c.RateLimit.CallsPerMinute < 0 || c.RateLimit.FetchesPerMinute < 0 {
		errs = append(errs, "rate_limit values must be >= 0")
	}

	if c.HTTPAuth.Enabled && c.HTTPAuth.Secret == "" {
		errs = append(errs, "http_auth.secret is required when http_auth.enabled is true")
	}

	switch c.Observability.Tracing.Exporter {
	case ExporterNone, ExporterConsole:
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if c.Observability.Tracing.Endpoint == "" {
			errs = append(errs, "observability.tracing.endpoint is required for otlp exporters")
		}
	default:
		errs = append(errs, fmt.Sprintf("observability.tracing.exporter must be none, console, otlp-grpc or otlp-http, got %q", c.Observability.Tracing.Exporter))
	}
	if r := c.Observability.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Sprintf("observability.tracing.sample_ratio must be between 0 and 1, got %v", r))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

func parseBool(val string) bool {
	return val == "1" || strings.EqualFold(val, "true")
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
