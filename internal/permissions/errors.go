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

package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// PermissionError is returned when a tool tries to touch a file or host it
// is not allowed to. The message never reveals whether the resource exists.
type PermissionError struct {
	// Type is the kind of check that failed (paths.read, network.blocked).
	Type string

	// Resource is the denied path or host.
	Resource string

	// Allowed is the list of allowed patterns.
	Allowed []string

	Message string
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	parts := []string{fmt.Sprintf("permission denied: %s", e.Type)}

	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource: %s", e.Resource))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Type == "paths.read" {
		if len(e.Allowed) > 0 {
			parts = append(parts, fmt.Sprintf("allowed patterns: [%s]", strings.Join(e.Allowed, ", ")))
		} else {
			parts = append(parts, "allowed patterns: working directory only")
		}
	}

	return strings.Join(parts, "; ")
}

// IsUserVisible marks permission failures as safe to show to MCP clients.
func (e *PermissionError) IsUserVisible() bool { return true }

// UserMessage returns the error text.
func (e *PermissionError) UserMessage() string { return e.Error() }

// Suggestion tells the operator how to widen access.
func (e *PermissionError) Suggestion() string {
	if strings.HasPrefix(e.Type, "paths") {
		return "add a matching glob to paths.allowed or MCP_TOOLBOX_ALLOWED_PATHS"
	}
	return "set fetch.allow_private to reach private hosts"
}

// IsPermissionError returns true if err is or wraps a PermissionError.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
