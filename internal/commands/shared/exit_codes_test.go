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
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

func TestExitError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *ExitError
		code int
	}{
		{"execution", NewExecutionError("server failed", cause), ExitFailed},
		{"config", NewConfigError("bad config", cause), ExitInvalidConfig},
		{"input", NewInputError("bad flag", cause), ExitInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.ErrorIs(t, tt.err, cause)
			assert.Contains(t, tt.err.Error(), "boom")
		})
	}
}

func TestReportError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		code := reportError(&buf, errors.New("something broke"))
		assert.Equal(t, ExitFailed, code)
		assert.Equal(t, "Error: something broke\n", buf.String())
	})

	t.Run("exit error with suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		cause := &toolboxerrors.ValidationError{Field: "transport", Message: "unknown transport", Hint: "use stdio, http or sse"}
		code := reportError(&buf, NewInputError("invalid flag", cause))
		assert.Equal(t, ExitInvalidInput, code)
		assert.Contains(t, buf.String(), "Error: invalid flag")
		assert.Contains(t, buf.String(), "Suggestion: use stdio, http or sse")
	})

	t.Run("wrapped exit error", func(t *testing.T) {
		var buf bytes.Buffer
		err := fmt.Errorf("serve: %w", NewConfigError("bad config", nil))
		assert.Equal(t, ExitInvalidConfig, reportError(&buf, err))
	})
}
