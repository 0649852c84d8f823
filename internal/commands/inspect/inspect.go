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

// Package inspect implements the inspect command, a headless MCP inspector
// that launches a server over stdio and lists or exercises its capabilities.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
)

type options struct {
	call       string
	arguments  string
	read       string
	prompt     string
	promptArgs string
	timeout    time.Duration
}

// NewCommand creates the inspect command
func NewCommand() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "inspect [-- command args...]",
		Short: "Inspect an MCP server from the command line",
		Long: `Launch an MCP server over stdio, initialize a session and list its tools,
resources, resource templates and prompts.

Without a command after --, this binary is launched with "serve". Use --call,
--read or --prompt to perform a single operation instead of listing.`,
		Example: `  # List everything this server offers
  mcp-toolbox inspect

  # Call a tool
  mcp-toolbox inspect --call add --arguments '{"a": 2, "b": 3}'

  # Read a resource
  mcp-toolbox inspect --read greeting://Ana

  # Render a prompt
  mcp-toolbox inspect --prompt review_code --prompt-args '{"code": "x := 1"}'

  # Inspect another server
  mcp-toolbox inspect -- npx -y @modelcontextprotocol/server-everything`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.call, "call", "", "Tool to call")
	cmd.Flags().StringVar(&opts.arguments, "arguments", "{}", "Tool arguments as a JSON object")
	cmd.Flags().StringVar(&opts.read, "read", "", "Resource URI to read")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "Prompt to render")
	cmd.Flags().StringVar(&opts.promptArgs, "prompt-args", "{}", "Prompt arguments as a JSON object of strings")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall timeout")
	cmd.MarkFlagsMutuallyExclusive("call", "read", "prompt")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	command, commandArgs, env, err := serverCommand(args)
	if err != nil {
		return shared.NewExecutionError("failed to locate executable", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	c, err := client.NewStdioMCPClient(command, env, commandArgs...)
	if err != nil {
		return shared.NewExecutionError("failed to start server", err)
	}
	defer c.Close()

	if stderr, ok := client.GetStderr(c); ok {
		sink := io.Discard
		if shared.GetVerbose() {
			sink = cmd.ErrOrStderr()
		}
		go func() { _, _ = io.Copy(sink, stderr) }()
	}

	r := newRenderer(cmd.OutOrStdout(), shared.GetJSON(), shared.IsStdoutTerminal())
	return inspect(ctx, c, opts, r)
}

// serverCommand returns the command to launch. Without explicit args this
// executable is run with serve and quiet logging.
func serverCommand(args []string) (string, []string, []string, error) {
	if len(args) > 0 {
		return args[0], args[1:], os.Environ(), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return "", nil, nil, err
	}
	serveArgs := []string{"serve"}
	if cfg := shared.GetConfigPath(); cfg != "" {
		abs, err := filepath.Abs(cfg)
		if err != nil {
			return "", nil, nil, err
		}
		serveArgs = append(serveArgs, "--config", abs)
	}
	env := append(os.Environ(), "MCP_TOOLBOX_LOG_LEVEL=warn")
	return executable, serveArgs, env, nil
}

// inspect initializes c and performs the operation selected by opts.
func inspect(ctx context.Context, c *client.Client, opts options, r *renderer) error {
	initResult, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "mcp-toolbox-inspect", Version: "1.0.0"},
		},
	})
	if err != nil {
		return shared.NewExecutionError("initialize failed", err)
	}

	switch {
	case opts.call != "":
		return callTool(ctx, c, opts, r)
	case opts.read != "":
		return readResource(ctx, c, opts.read, r)
	case opts.prompt != "":
		return getPrompt(ctx, c, opts, r)
	default:
		return list(ctx, c, initResult, r)
	}
}

// Report is the listing produced by inspect without an operation flag.
type Report struct {
	Server            mcp.Implementation     `json:"server"`
	ProtocolVersion   string                 `json:"protocol_version"`
	Instructions      string                 `json:"instructions,omitempty"`
	Tools             []mcp.Tool             `json:"tools"`
	Resources         []mcp.Resource         `json:"resources"`
	ResourceTemplates []mcp.ResourceTemplate `json:"resource_templates"`
	Prompts           []mcp.Prompt           `json:"prompts"`
}

func list(ctx context.Context, c *client.Client, init *mcp.InitializeResult, r *renderer) error {
	report := Report{
		Server:            init.ServerInfo,
		ProtocolVersion:   init.ProtocolVersion,
		Instructions:      init.Instructions,
		Tools:             []mcp.Tool{},
		Resources:         []mcp.Resource{},
		ResourceTemplates: []mcp.ResourceTemplate{},
		Prompts:           []mcp.Prompt{},
	}

	caps := init.Capabilities
	if caps.Tools != nil {
		tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			return shared.NewExecutionError("tools/list failed", err)
		}
		report.Tools = tools.Tools
	}
	if caps.Resources != nil {
		resources, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
		if err != nil {
			return shared.NewExecutionError("resources/list failed", err)
		}
		report.Resources = resources.Resources

		templates, err := c.ListResourceTemplates(ctx, mcp.ListResourceTemplatesRequest{})
		if err != nil {
			return shared.NewExecutionError("resources/templates/list failed", err)
		}
		report.ResourceTemplates = templates.ResourceTemplates
	}
	if caps.Prompts != nil {
		prompts, err := c.ListPrompts(ctx, mcp.ListPromptsRequest{})
		if err != nil {
			return shared.NewExecutionError("prompts/list failed", err)
		}
		report.Prompts = prompts.Prompts
	}

	return r.report(report)
}

func callTool(ctx context.Context, c *client.Client, opts options, r *renderer) error {
	var args map[string]any
	if err := json.Unmarshal([]byte(opts.arguments), &args); err != nil {
		return shared.NewInputError("--arguments must be a JSON object", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = opts.call
	req.Params.Arguments = args

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return shared.NewExecutionError(fmt.Sprintf("tools/call %s failed", opts.call), err)
	}
	if err := r.toolResult(opts.call, result); err != nil {
		return err
	}
	if result.IsError {
		return &shared.ExitError{Code: shared.ExitFailed, Message: fmt.Sprintf("tool %s returned an error", opts.call)}
	}
	return nil
}

func readResource(ctx context.Context, c *client.Client, uri string, r *renderer) error {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	result, err := c.ReadResource(ctx, req)
	if err != nil {
		return shared.NewExecutionError(fmt.Sprintf("resources/read %s failed", uri), err)
	}
	return r.resource(uri, result)
}

func getPrompt(ctx context.Context, c *client.Client, opts options, r *renderer) error {
	var args map[string]string
	if err := json.Unmarshal([]byte(opts.promptArgs), &args); err != nil {
		return shared.NewInputError("--prompt-args must be a JSON object of strings", err)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Name = opts.prompt
	req.Params.Arguments = args

	result, err := c.GetPrompt(ctx, req)
	if err != nil {
		return shared.NewExecutionError(fmt.Sprintf("prompts/get %s failed", opts.prompt), err)
	}
	return r.prompt(opts.prompt, result)
}
