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

package setup

import (
	"fmt"
	"regexp"
	"strings"
)

// namePattern matches server names usable as an mcpServers key and a
// Prometheus service label: alphanumeric, hyphens, underscores, 1-64 chars.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// ValidateName validates a server name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("name must be 64 characters or less")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must start with a letter or number and contain only letters, numbers, hyphens, and underscores")
	}
	if strings.Contains(name, "--") || strings.Contains(name, "__") {
		return fmt.Errorf("name cannot contain consecutive hyphens or underscores")
	}
	return nil
}

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	invalidRun = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	hyphenRun  = regexp.MustCompile(`-+`)
)

// SuggestName turns free text such as a directory name into a valid
// server name.
func SuggestName(input string) string {
	name := spaceRun.ReplaceAllString(strings.ToLower(input), "-")
	name = invalidRun.ReplaceAllString(name, "")
	name = hyphenRun.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_")
	if len(name) > 64 {
		name = name[:64]
	}
	if name == "" {
		return "mcp-toolbox"
	}
	return name
}
