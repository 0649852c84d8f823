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

package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/mcp-toolbox/internal/tracing"
)

// loggingTransport sets the User-Agent, propagates the correlation ID,
// records a client span and logs each attempt.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
	tracer    trace.Tracer
}

func newLoggingTransport(base http.RoundTripper, userAgent string, logger *slog.Logger) *loggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{
		base:      base,
		userAgent: userAgent,
		logger:    logger,
		tracer:    otel.Tracer("github.com/tombee/mcp-toolbox/pkg/httpclient"),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	logURL := sanitizeURL(req.URL)

	ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", logURL),
		),
	)
	defer span.End()

	req = req.Clone(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	tracing.InjectIntoRequest(ctx, req)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	corrID := tracing.FromContextOrEmpty(ctx).String()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.WarnContext(ctx, "http request failed",
			"method", req.Method,
			"url", logURL,
			"duration_ms", duration,
			"correlation_id", corrID,
			"error", err.Error(),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
		span.SetStatus(codes.Error, resp.Status)
	}
	t.logger.Log(ctx, level, "http request",
		"method", req.Method,
		"url", logURL,
		"status", resp.StatusCode,
		"duration_ms", duration,
		"correlation_id", corrID,
	)
	return resp, nil
}
