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

package main

import (
	"github.com/tombee/mcp-toolbox/internal/cli"
	"github.com/tombee/mcp-toolbox/internal/commands/desktopconfig"
	"github.com/tombee/mcp-toolbox/internal/commands/inspect"
	"github.com/tombee/mcp-toolbox/internal/commands/serve"
	"github.com/tombee/mcp-toolbox/internal/commands/setup"
	"github.com/tombee/mcp-toolbox/internal/commands/token"
	versioncmd "github.com/tombee/mcp-toolbox/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()
	cli.AddCommands(rootCmd, cli.GroupServer,
		serve.NewCommand(),
		setup.NewCommand(),
		desktopconfig.NewCommand(),
		token.NewCommand(),
	)
	cli.AddCommands(rootCmd, cli.GroupClient,
		inspect.NewCommand(),
	)
	rootCmd.AddCommand(versioncmd.NewCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
