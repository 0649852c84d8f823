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

// Package desktopconfig implements the desktop-config command, which
// produces the Claude Desktop entry that launches this server.
package desktopconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	"github.com/tombee/mcp-toolbox/internal/config"
	"github.com/tombee/mcp-toolbox/internal/desktop"
)

type options struct {
	name   string
	write  bool
	path   string
	dryRun bool
	env    map[string]string
}

// NewCommand creates the desktop-config command
func NewCommand() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "desktop-config",
		Short: "Print or install the Claude Desktop configuration",
		Long: `Print the JSON block that tells Claude Desktop how to launch this server,
or merge it into the desktop configuration file with --write.

The entry runs this executable with the "serve" argument plus --config with
the absolute path of the config file this command would load (--config,
./mcp-toolbox.yaml, then the user config), so the desktop client uses the
same settings whatever directory it starts the server from.

When writing, other servers and settings in the file are preserved and the
previous file is kept as <path>.bak. Restart Claude Desktop afterwards.`,
		Example: `  # Show the block to paste by hand
  mcp-toolbox desktop-config

  # Install it under a custom name
  mcp-toolbox desktop-config --name toolbox --write

  # Preview the merged file without writing
  mcp-toolbox desktop-config --write --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "mcp-toolbox", "Server name under mcpServers")
	cmd.Flags().BoolVar(&opts.write, "write", false, "Merge the entry into the desktop config file")
	cmd.Flags().StringVar(&opts.path, "path", "", "Desktop config file (default: the client's per-OS location)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "With --write, print the merged file instead of writing it")
	cmd.Flags().StringToStringVar(&opts.env, "env", nil, "Environment variables for the server (KEY=VALUE)")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	executable, err := os.Executable()
	if err != nil {
		return shared.NewExecutionError("failed to locate executable", err)
	}
	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		executable = resolved
	}

	entry, err := buildEntry(executable, config.Resolve(shared.GetConfigPath()), opts.env)
	if err != nil {
		return shared.NewInputError("invalid --config", err)
	}

	out := cmd.OutOrStdout()

	if !opts.write {
		block, err := desktop.Block(opts.name, entry)
		if err != nil {
			return shared.NewInputError("invalid entry", err)
		}
		_, err = out.Write(block)
		return err
	}

	path := opts.path
	if path == "" {
		if path, err = desktop.DefaultConfigPath(); err != nil {
			return shared.NewExecutionError("failed to locate desktop config", err)
		}
	}

	if opts.dryRun {
		existing, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return shared.NewExecutionError("failed to read desktop config", err)
		}
		merged, err := desktop.Merge(existing, opts.name, entry)
		if err != nil {
			return shared.NewInputError("cannot merge into "+path, err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), shared.Muted.Render("Dry run: "+path+" not modified"))
		_, err = out.Write(merged)
		return err
	}

	backup, err := desktop.WriteFile(path, opts.name, entry)
	if err != nil {
		return shared.NewExecutionError("failed to update desktop config", err)
	}

	if shared.GetJSON() {
		return shared.WriteJSON(out, map[string]string{
			"path":   path,
			"backup": backup,
			"name":   opts.name,
		})
	}

	fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Added %q to %s", opts.name, path)))
	if backup != "" {
		fmt.Fprintln(out, shared.Muted.Render("  previous config saved to "+backup))
	}
	fmt.Fprintln(out, "Restart Claude Desktop to load the server.")
	return nil
}

// buildEntry returns the entry that runs executable serve, passing the
// config file through as an absolute path.
func buildEntry(executable, configPath string, env map[string]string) (desktop.Entry, error) {
	entry := desktop.Entry{
		Command: executable,
		Args:    []string{"serve"},
	}
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return entry, err
		}
		entry.Args = append(entry.Args, "--config", abs)
	}
	if len(env) > 0 {
		entry.Env = env
	}
	return entry, nil
}
