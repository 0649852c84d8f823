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

package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "mcp-toolbox", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.SilenceErrors)
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"verbose", "json", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestLoggerConfig(t *testing.T) {
	t.Setenv("MCP_TOOLBOX_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_SOURCE", "")

	t.Setenv("MCP_TOOLBOX_DEBUG", "")
	assert.Equal(t, "info", loggerConfig(false).Level)
	assert.Equal(t, "debug", loggerConfig(true).Level)

	t.Setenv("MCP_TOOLBOX_DEBUG", "1")
	cfg := loggerConfig(false)
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.AddSource)
}

func TestRootPersistentPreRunSetsDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("MCP_TOOLBOX_DEBUG", "1")

	root := NewRootCommand()
	AddCommands(root, GroupClient, &cobra.Command{Use: "noop", Run: func(*cobra.Command, []string) {}})
	root.SetArgs([]string{"noop"})
	assert.NoError(t, root.Execute())

	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestAddCommands(t *testing.T) {
	root := NewRootCommand()
	AddCommands(root, GroupServer, &cobra.Command{Use: "serve", Run: func(*cobra.Command, []string) {}})

	serve, _, err := root.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.Equal(t, GroupServer, serve.GroupID)
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2025-12-22")
	defer SetVersion("dev", "unknown", "unknown")

	v, c, b := GetVersion()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2025-12-22", b)
}
