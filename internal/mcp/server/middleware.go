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
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	toolboxlog "github.com/tombee/mcp-toolbox/internal/log"
	"github.com/tombee/mcp-toolbox/internal/tracing"
)

const rateLimitMessage = "Rate limit exceeded. Please try again later."

// observe runs fn inside the standard per-call envelope: correlation ID,
// span, request/response logs and metrics. fn reports whether the call
// succeeded and an error message for failures.
func (s *Server) observe(ctx context.Context, kind, name string, args any, fn func(ctx context.Context) (bool, string)) {
	ctx, corrID := tracing.EnsureContext(ctx)
	ctx, span := s.tracer.Start(ctx, kind+" "+name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("mcp.kind", kind),
			attribute.String("mcp.name", name),
			attribute.String("correlation_id", corrID.String()),
		),
	)
	defer span.End()

	call := &toolboxlog.ToolCall{Kind: kind, Name: name, CorrelationID: corrID.String(), Arguments: args}
	toolboxlog.LogToolCall(ctx, s.logger, call)

	start := time.Now()
	ok, errMsg := fn(ctx)
	elapsed := time.Since(start)

	if !ok {
		span.SetStatus(codes.Error, errMsg)
	}
	toolboxlog.LogToolOutcome(ctx, s.logger, call, &toolboxlog.ToolOutcome{
		Success:    ok,
		Error:      errMsg,
		DurationMs: elapsed.Milliseconds(),
	})
	s.metrics.RecordCall(ctx, kind, name, ok, elapsed)
}

// wrapTool applies rate limiting and the observe envelope to a tool handler.
func (s *Server) wrapTool(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			result *mcp.CallToolResult
			err    error
		)
		s.observe(ctx, "tool", name, request.GetArguments(), func(ctx context.Context) (bool, string) {
			if !s.rateLimiter.AllowCall() || (name == "fetch" && !s.rateLimiter.AllowFetch()) {
				s.metrics.RecordRateLimited(ctx, name)
				result = errorResponse(rateLimitMessage)
				return false, "rate limited"
			}

			result, err = next(ctx, request)
			switch {
			case err != nil:
				return false, err.Error()
			case result != nil && result.IsError:
				return false, resultText(result)
			}
			return true, ""
		})
		return result, err
	}
}

// wrapResource applies the observe envelope to a resource handler.
func (s *Server) wrapResource(next server.ResourceHandlerFunc) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		var (
			contents []mcp.ResourceContents
			err      error
		)
		s.observe(ctx, "resource", request.Params.URI, nil, func(ctx context.Context) (bool, string) {
			if !s.rateLimiter.AllowCall() {
				s.metrics.RecordRateLimited(ctx, request.Params.URI)
				err = rateLimitError{}
				return false, "rate limited"
			}
			contents, err = next(ctx, request)
			if err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		return contents, err
	}
}

// wrapPrompt applies the observe envelope to a prompt handler.
func (s *Server) wrapPrompt(name string, next server.PromptHandlerFunc) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var (
			result *mcp.GetPromptResult
			err    error
		)
		s.observe(ctx, "prompt", name, request.Params.Arguments, func(ctx context.Context) (bool, string) {
			if !s.rateLimiter.AllowCall() {
				s.metrics.RecordRateLimited(ctx, name)
				err = rateLimitError{}
				return false, "rate limited"
			}
			result, err = next(ctx, request)
			if err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		return result, err
	}
}

type rateLimitError struct{}

func (rateLimitError) Error() string { return rateLimitMessage }

// resultText returns the first text content of a result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
