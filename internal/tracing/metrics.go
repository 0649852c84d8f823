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

package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records tool and resource activity.
type MetricsCollector struct {
	calls       metric.Int64Counter
	duration    metric.Float64Histogram
	fetchBytes  metric.Int64Counter
	rateLimited metric.Int64Counter
}

// NewMetricsCollector creates a collector using the given meter provider.
func NewMetricsCollector(mp metric.MeterProvider) (*MetricsCollector, error) {
	meter := mp.Meter("mcp-toolbox")
	mc := &MetricsCollector{}

	var err error
	mc.calls, err = meter.Int64Counter(
		"mcp_toolbox_calls_total",
		metric.WithDescription("Total number of MCP tool calls and resource reads"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	mc.duration, err = meter.Float64Histogram(
		"mcp_toolbox_call_duration_seconds",
		metric.WithDescription("Tool call and resource read duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	mc.fetchBytes, err = meter.Int64Counter(
		"mcp_toolbox_fetch_bytes_total",
		metric.WithDescription("Response bytes returned by the fetch tool"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	mc.rateLimited, err = meter.Int64Counter(
		"mcp_toolbox_rate_limited_total",
		metric.WithDescription("Calls rejected by the rate limiter"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// RecordCall records one completed call. kind is "tool", "resource" or
// "prompt".
func (m *MetricsCollector) RecordCall(ctx context.Context, kind, name string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("name", name),
		attribute.String("status", status),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordFetchBytes adds n to the fetched byte count.
func (m *MetricsCollector) RecordFetchBytes(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.fetchBytes.Add(ctx, n)
}

// RecordRateLimited counts a rejected call.
func (m *MetricsCollector) RecordRateLimited(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("name", name)))
}
