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

/*
Package cli provides the root command for the mcp-toolbox binary.

The command tree is:

	mcp-toolbox
	├── serve            Run the MCP server (stdio, http or sse)
	├── init             Scaffold a config file and sample database
	├── desktop-config   Print or install the Claude Desktop entry
	├── inspect          Connect to the server as a client and exercise it
	├── token            Mint bearer tokens for the HTTP transports
	├── version          Show version
	└── help             Show help

Every command inherits --verbose, --json and --config. Errors are reported
once by HandleExitError, which maps them to exit codes.
*/
package cli
