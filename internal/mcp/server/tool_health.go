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
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// Health check statuses.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// HealthToolResult represents the health check result
type HealthToolResult struct {
	Healthy bool          `json:"healthy"`
	Version string        `json:"version"`
	Checks  []HealthCheck `json:"checks"`
}

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// handleHealth implements the health tool
func (s *Server) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := s.runHealthChecks(checkCtx)

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode health result: %v", err)), nil
	}

	return textResponse(string(resultJSON)), nil
}

// runHealthChecks performs all health checks. Warnings do not make the
// server unhealthy.
func (s *Server) runHealthChecks(ctx context.Context) HealthToolResult {
	result := HealthToolResult{
		Healthy: true,
		Version: s.version,
		Checks: []HealthCheck{
			s.checkDatabase(ctx),
			s.checkImages(),
			s.checkFetch(),
		},
	}

	for _, c := range result.Checks {
		if c.Status == StatusFail {
			result.Healthy = false
		}
	}
	return result
}

// checkDatabase verifies the database opens and its schema can be read.
func (s *Server) checkDatabase(ctx context.Context) HealthCheck {
	schema, err := s.readSchema(ctx)
	if err != nil {
		remediation := toolboxerrors.SuggestionFor(err)
		if remediation == "" {
			remediation = "Run 'mcp-toolbox init' to create the sample database"
		}
		return HealthCheck{
			Name:        "Database",
			Status:      StatusFail,
			Message:     toolboxerrors.UserMessage(err),
			Remediation: remediation,
		}
	}
	if schema == "" {
		return HealthCheck{
			Name:        "Database",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Database %s has no tables", s.dbPath),
			Remediation: "Run 'mcp-toolbox init' to seed sample tables",
		}
	}

	return HealthCheck{
		Name:    "Database",
		Status:  StatusPass,
		Message: fmt.Sprintf("Database readable (%s)", s.dbPath),
	}
}

func (s *Server) checkImages() HealthCheck {
	if s.images == nil {
		return HealthCheck{
			Name:        "Images",
			Status:      StatusWarn,
			Message:     "create_thumbnail is disabled",
			Remediation: "Configure paths.allowed to enable image access",
		}
	}
	return HealthCheck{Name: "Images", Status: StatusPass, Message: "create_thumbnail enabled"}
}

func (s *Server) checkFetch() HealthCheck {
	if s.fetcher == nil {
		return HealthCheck{
			Name:    "Fetch",
			Status:  StatusWarn,
			Message: "fetch tool is disabled",
		}
	}
	return HealthCheck{Name: "Fetch", Status: StatusPass, Message: "fetch tool enabled"}
}
