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

package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	"github.com/tombee/mcp-toolbox/internal/mcp/server"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()

	srv, err := server.NewServer(server.ServerConfig{
		Name:    "inspect-test",
		Version: "1.2.3",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Start(context.Background()))
	return c
}

func TestInspect_ListText(t *testing.T) {
	var buf bytes.Buffer
	err := inspect(context.Background(), newClient(t), options{}, newRenderer(&buf, false, false))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "inspect-test 1.2.3")
	assert.Contains(t, out, "  - add(a, b): Add two numbers")
	assert.Contains(t, out, "greeting://{name}")
	assert.Contains(t, out, "schema://main")
	assert.Contains(t, out, "review_code(code, language?)")
}

func TestInspect_ListJSON(t *testing.T) {
	var buf bytes.Buffer
	err := inspect(context.Background(), newClient(t), options{}, newRenderer(&buf, true, false))
	require.NoError(t, err)

	var report struct {
		Server struct {
			Name string `json:"name"`
		} `json:"server"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		Prompts []json.RawMessage `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "inspect-test", report.Server.Name)
	assert.NotEmpty(t, report.Tools)
	assert.Len(t, report.Prompts, 2)
}

func TestInspect_CallTool(t *testing.T) {
	var buf bytes.Buffer
	opts := options{call: "add", arguments: `{"a": 2, "b": 3}`}
	err := inspect(context.Background(), newClient(t), opts, newRenderer(&buf, false, false))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "add\n5\n")
}

func TestInspect_CallToolError(t *testing.T) {
	var buf bytes.Buffer
	opts := options{call: "greet", arguments: `{"name": ""}`}
	err := inspect(context.Background(), newClient(t), opts, newRenderer(&buf, false, false))
	require.Error(t, err)

	var exitErr *shared.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, shared.ExitFailed, exitErr.Code)
}

func TestInspect_BadArguments(t *testing.T) {
	var buf bytes.Buffer
	opts := options{call: "add", arguments: `[1, 2]`}
	err := inspect(context.Background(), newClient(t), opts, newRenderer(&buf, false, false))

	var exitErr *shared.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)
}

func TestInspect_ReadResource(t *testing.T) {
	var buf bytes.Buffer
	err := inspect(context.Background(), newClient(t), options{read: "greeting://Ana"}, newRenderer(&buf, false, false))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Hello, Ana!")
}

func TestInspect_Prompt(t *testing.T) {
	var buf bytes.Buffer
	opts := options{prompt: "debug_error", promptArgs: `{"error": "index out of range"}`}
	err := inspect(context.Background(), newClient(t), opts, newRenderer(&buf, false, false))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[user]")
	assert.Contains(t, buf.String(), "index out of range")
}

func TestServerCommand(t *testing.T) {
	command, args, env, err := serverCommand([]string{"npx", "-y", "server"})
	require.NoError(t, err)
	assert.Equal(t, "npx", command)
	assert.Equal(t, []string{"-y", "server"}, args)
	assert.NotNil(t, env)

	command, args, env, err = serverCommand(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, command)
	assert.Equal(t, []string{"serve"}, args)
	assert.Contains(t, env, "MCP_TOOLBOX_LOG_LEVEL=warn")
}
