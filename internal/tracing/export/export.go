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

// Package export builds OpenTelemetry span exporters for the configured
// tracing backend.
package export

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Kinds of exporter accepted by New.
const (
	KindNone     = "none"
	KindConsole  = "console"
	KindOTLPGRPC = "otlp-grpc"
	KindOTLPHTTP = "otlp-http"
)

// Config selects and configures an exporter.
type Config struct {
	Kind string

	// Endpoint is host:port, or a URL whose http:// scheme implies Insecure.
	Endpoint string

	Insecure bool
	Headers  map[string]string

	// Writer receives console output. Defaults to stderr so stdio
	// transports keep stdout clean.
	Writer io.Writer
}

// New returns the exporter for cfg.Kind, or nil for KindNone.
func New(ctx context.Context, cfg Config) (trace.SpanExporter, error) {
	switch cfg.Kind {
	case "", KindNone:
		return nil, nil
	case KindConsole:
		return NewConsoleExporter(cfg.Writer)
	case KindOTLPGRPC:
		return NewOTLPExporter(ctx, cfg)
	case KindOTLPHTTP:
		return NewOTLPHTTPExporter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Kind)
	}
}

// NewConsoleExporter pretty-prints spans to w.
func NewConsoleExporter(w io.Writer) (trace.SpanExporter, error) {
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create console exporter: %w", err)
	}
	return exporter, nil
}

// NewOTLPExporter creates an OTLP gRPC exporter.
func NewOTLPExporter(ctx context.Context, cfg Config) (trace.SpanExporter, error) {
	endpoint, insecure := splitEndpoint(cfg.Endpoint, cfg.Insecure)
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}

	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
	}
	return exporter, nil
}

// NewOTLPHTTPExporter creates an OTLP HTTP exporter posting to /v1/traces.
func NewOTLPHTTPExporter(ctx context.Context, cfg Config) (trace.SpanExporter, error) {
	endpoint, insecure := splitEndpoint(cfg.Endpoint, cfg.Insecure)
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}

	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	} else {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}
	return exporter, nil
}

// splitEndpoint strips a URL scheme. http:// forces insecure transport.
func splitEndpoint(endpoint string, insecure bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), true
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), insecure
	}
	return endpoint, insecure
}
