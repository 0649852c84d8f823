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

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/mcp-toolbox/internal/tools/prompts"
)

// registerPrompts registers every prompt template.
func (s *Server) registerPrompts() {
	for _, tmpl := range prompts.All() {
		opts := []mcp.PromptOption{mcp.WithPromptDescription(tmpl.Description)}
		for _, arg := range tmpl.Arguments {
			argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(arg.Description)}
			if arg.Required {
				argOpts = append(argOpts, mcp.RequiredArgument())
			}
			opts = append(opts, mcp.WithArgument(arg.Name, argOpts...))
		}

		s.mcpServer.AddPrompt(mcp.NewPrompt(tmpl.Name, opts...), s.wrapPrompt(tmpl.Name, promptHandler(tmpl)))
	}
}

func promptHandler(tmpl *prompts.Template) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		messages, err := tmpl.Render(request.Params.Arguments)
		if err != nil {
			return nil, err
		}

		out := make([]mcp.PromptMessage, 0, len(messages))
		for _, m := range messages {
			role := mcp.RoleUser
			if m.Role == prompts.RoleAssistant {
				role = mcp.RoleAssistant
			}
			out = append(out, mcp.NewPromptMessage(role, mcp.NewTextContent(m.Text)))
		}
		return mcp.NewGetPromptResult(tmpl.Description, out), nil
	}
}
