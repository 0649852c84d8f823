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

package errors_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *toolboxerrors.ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &toolboxerrors.ValidationError{Field: "url", Message: "scheme must be http or https"},
			wantMsg: "validation failed on url: scheme must be http or https",
		},
		{
			name:    "without field",
			err:     &toolboxerrors.ValidationError{Message: "empty expression"},
			wantMsg: "validation failed: empty expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestToolError_Error(t *testing.T) {
	cause := errors.New("connection reset")
	err := &toolboxerrors.ToolError{
		Tool:       "fetch",
		Message:    "upstream returned an error",
		StatusCode: 502,
		Cause:      cause,
	}

	assert.Equal(t, "fetch failed [HTTP 502]: upstream returned an error: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upstream returned an error", toolboxerrors.UserMessage(err))
}

func TestUserMessage_WalksChain(t *testing.T) {
	inner := &toolboxerrors.NotFoundError{Resource: "database", ID: "data/missing.db"}
	wrapped := fmt.Errorf("opening: %w", inner)

	assert.Equal(t, "database not found: data/missing.db", toolboxerrors.UserMessage(wrapped))
	assert.Contains(t, toolboxerrors.SuggestionFor(wrapped), "database exists")
	assert.True(t, toolboxerrors.IsNotFound(wrapped))
	assert.False(t, toolboxerrors.IsValidation(wrapped))
}

func TestUserMessage_PlainError(t *testing.T) {
	assert.Equal(t, "", toolboxerrors.UserMessage(nil))
	assert.Equal(t, "boom", toolboxerrors.UserMessage(errors.New("boom")))
	assert.Equal(t, "", toolboxerrors.SuggestionFor(errors.New("boom")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, toolboxerrors.IsRetryable(&toolboxerrors.TimeoutError{Operation: "fetch", Duration: time.Second}))
	assert.True(t, toolboxerrors.IsRetryable(fmt.Errorf("x: %w", &toolboxerrors.ToolError{Tool: "fetch", Retryable: true})))
	assert.False(t, toolboxerrors.IsRetryable(&toolboxerrors.ValidationError{Message: "bad"}))
	assert.False(t, toolboxerrors.IsRetryable(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, toolboxerrors.Wrap(nil, "ctx"))
	assert.Nil(t, toolboxerrors.Wrapf(nil, "ctx %d", 1))

	base := errors.New("base")
	assert.Equal(t, "loading config: base", toolboxerrors.Wrap(base, "loading config").Error())
	assert.Equal(t, "reading file a.db: base", toolboxerrors.Wrapf(base, "reading file %s", "a.db").Error())
	assert.True(t, toolboxerrors.Is(toolboxerrors.Wrap(base, "x"), base))
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("yaml: line 3")
	err := &toolboxerrors.ConfigError{Key: "config_file", Reason: "failed to parse", Cause: cause}

	assert.Equal(t, "config error at config_file: failed to parse: yaml: line 3", err.Error())
	assert.Equal(t, "config error: bad", (&toolboxerrors.ConfigError{Reason: "bad"}).Error())
	var ce *toolboxerrors.ConfigError
	assert.True(t, toolboxerrors.As(fmt.Errorf("wrap: %w", err), &ce))
	assert.ErrorIs(t, err, cause)
}
