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

// Package setup implements the init command, which scaffolds a project:
// mcp-toolbox.yaml, a seeded sample database and an images directory.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	"github.com/tombee/mcp-toolbox/internal/config"
	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
)

// ErrConfigExists is returned when the project already has a config file
// and overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// Answers are the choices that shape a scaffolded project.
type Answers struct {
	Name      string
	Transport string
	DBPath    string
	ImagesDir string
	Seed      bool
}

// DefaultAnswers returns the answers used with --yes.
func DefaultAnswers(dir string) Answers {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return Answers{
		Name:      SuggestName(filepath.Base(abs)),
		Transport: config.TransportStdio,
		DBPath:    filepath.Join("data", "example.db"),
		ImagesDir: "images",
		Seed:      true,
	}
}

// Result lists what Scaffold created.
type Result struct {
	ConfigPath string
	DBPath     string
	ImagesDir  string
}

// Scaffold writes the project into dir.
func Scaffold(ctx context.Context, dir string, a Answers, force bool) (*Result, error) {
	if err := ValidateName(a.Name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	res := &Result{
		ConfigPath: filepath.Join(dir, config.ProjectConfigName),
		DBPath:     filepath.Join(dir, a.DBPath),
		ImagesDir:  filepath.Join(dir, a.ImagesDir),
	}

	if _, err := os.Stat(res.ConfigPath); err == nil && !force {
		return nil, fmt.Errorf("%w: %s", ErrConfigExists, res.ConfigPath)
	}

	cfg := config.Default()
	cfg.Server.Name = a.Name
	cfg.Server.Transport = a.Transport
	cfg.Database.Path = a.DBPath
	cfg.Paths.Allowed = []string{filepath.ToSlash(a.ImagesDir) + "/**"}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.WriteConfig(cfg, res.ConfigPath); err != nil {
		return nil, err
	}

	if a.Seed {
		if err := sqlitedb.Seed(ctx, res.DBPath); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	if err := os.MkdirAll(res.ImagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return res, nil
}

type options struct {
	dir   string
	yes   bool
	force bool
}

// NewCommand creates the init command
func NewCommand() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold an mcp-toolbox project",
		Long: `Create mcp-toolbox.yaml, a sample SQLite database (data/example.db with
users and posts tables) and an images/ directory for the thumbnail tool.

Runs an interactive form when attached to a terminal. Use --yes to accept the
defaults, which is also what happens in CI and other non-interactive shells.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "Project directory")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Accept defaults without prompting")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing mcp-toolbox.yaml")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	answers := DefaultAnswers(opts.dir)
	if !opts.yes && !shared.IsNonInteractive() {
		if err := runForm(&answers); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return shared.NewInputError("init cancelled", nil)
			}
			return shared.NewExecutionError("form failed", err)
		}
	}

	res, err := Scaffold(cmd.Context(), opts.dir, answers, opts.force)
	if err != nil {
		if errors.Is(err, ErrConfigExists) {
			return shared.NewInputError("project already initialized (use --force to overwrite)", err)
		}
		return shared.NewExecutionError("init failed", err)
	}

	printSummary(cmd.OutOrStdout(), res, answers)
	return nil
}

func runForm(a *Answers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server name").
				Description("Shown to MCP clients and used as the desktop config key").
				Value(&a.Name).
				Validate(ValidateName),
			huh.NewSelect[string]().
				Title("Default transport").
				Options(
					huh.NewOption("stdio (desktop clients)", config.TransportStdio),
					huh.NewOption("streamable HTTP", config.TransportHTTP),
					huh.NewOption("SSE (legacy HTTP)", config.TransportSSE),
				).
				Value(&a.Transport),
			huh.NewInput().
				Title("Database path").
				Value(&a.DBPath).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("database path is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Create sample users and posts tables?").
				Value(&a.Seed),
		),
	).WithTheme(Theme())

	return form.Run()
}

func printSummary(w io.Writer, res *Result, a Answers) {
	fmt.Fprintln(w, shared.RenderOK("Wrote "+res.ConfigPath))
	if a.Seed {
		fmt.Fprintln(w, shared.RenderOK("Seeded "+res.DBPath))
	}
	fmt.Fprintln(w, shared.RenderOK("Created "+res.ImagesDir+string(filepath.Separator)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, shared.Header.Render("Next steps"))
	fmt.Fprintln(w, "  mcp-toolbox inspect                 # list tools and resources")
	fmt.Fprintln(w, "  mcp-toolbox desktop-config --write  # register with Claude Desktop")
	fmt.Fprintln(w, "  mcp-toolbox serve                   # run the server")
}
