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

package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNonInteractive_Env(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"explicit", "MCP_TOOLBOX_NON_INTERACTIVE", "true"},
		{"ci true", "CI", "true"},
		{"ci 1", "CI", "1"},
		{"github actions", "GITHUB_ACTIONS", "true"},
		{"jenkins", "JENKINS_HOME", "/var/jenkins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			assert.True(t, IsNonInteractive())
		})
	}
}
