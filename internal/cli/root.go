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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	toolboxlog "github.com/tombee/mcp-toolbox/internal/log"
)

// Command group IDs used for help output.
const (
	GroupServer = "server"
	GroupClient = "client"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-toolbox",
		Short: "mcp-toolbox - a Model Context Protocol server with example tools",
		Long: `mcp-toolbox is a Model Context Protocol server that exposes tools,
resources and prompts to MCP clients such as Claude Desktop.

Run 'mcp-toolbox init' to create a config file and sample database.
Run 'mcp-toolbox desktop-config --write' to register the server with Claude Desktop.
Run 'mcp-toolbox inspect' to list what the server exposes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// serve replaces this logger once its config file is loaded.
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(toolboxlog.New(loggerConfig(shared.GetVerbose())))
		},
	}

	verbose, json, config := shared.RegisterFlagPointers()
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ./mcp-toolbox.yaml, then the user config dir)")

	cmd.AddGroup(
		&cobra.Group{ID: GroupServer, Title: "Server Commands:"},
		&cobra.Group{ID: GroupClient, Title: "Client Commands:"},
	)
	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// loggerConfig reads the logging environment; --verbose forces debug.
func loggerConfig(verbose bool) *toolboxlog.Config {
	cfg := toolboxlog.FromEnv()
	if verbose {
		cfg.Level = "debug"
	}
	return cfg
}

// AddCommands registers commands on root under group.
func AddCommands(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
