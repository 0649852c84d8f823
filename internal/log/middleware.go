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

package log

import (
	"context"
	"log/slog"
)

// ToolCall describes an incoming MCP request for logging purposes.
type ToolCall struct {
	// Kind is the MCP operation ("tool", "resource", "prompt").
	Kind string

	// Name is the tool name, resource URI or prompt name.
	Name string

	// CorrelationID ties the request and response lines together.
	CorrelationID string

	// Arguments are logged at trace level only.
	Arguments any
}

// ToolOutcome describes how a call finished.
type ToolOutcome struct {
	// Success is false when the handler returned an error or an error result.
	Success bool

	// Error is the error message if the call failed.
	Error string

	// DurationMs is the duration of the call in milliseconds.
	DurationMs int64
}

// LogToolCall logs an incoming call.
func LogToolCall(ctx context.Context, logger *slog.Logger, call *ToolCall) {
	logger.DebugContext(ctx, "mcp call received",
		EventKey, "call_start",
		"kind", call.Kind,
		ToolKey, call.Name,
		CorrelationIDKey, call.CorrelationID,
	)
	if call.Arguments != nil && logger.Enabled(ctx, LevelTrace) {
		logger.Log(ctx, LevelTrace, "mcp call arguments",
			ToolKey, call.Name,
			CorrelationIDKey, call.CorrelationID,
			"arguments", call.Arguments,
		)
	}
}

// LogToolOutcome logs the completion of a call. Failures are logged at warn
// because tool errors are expected client-visible results, not server faults.
func LogToolOutcome(ctx context.Context, logger *slog.Logger, call *ToolCall, out *ToolOutcome) {
	attrs := []any{
		EventKey, "call_end",
		"kind", call.Kind,
		ToolKey, call.Name,
		CorrelationIDKey, call.CorrelationID,
		"success", out.Success,
		DurationKey, out.DurationMs,
	}

	level := slog.LevelInfo
	message := "mcp call completed"
	if !out.Success {
		level = slog.LevelWarn
		message = "mcp call failed"
		if out.Error != "" {
			attrs = append(attrs, "error", out.Error)
		}
	}

	logger.Log(ctx, level, message, attrs...)
}
