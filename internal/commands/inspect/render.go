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
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
)

// renderer writes inspector output as JSON, styled text or plain text.
type renderer struct {
	w      io.Writer
	json   bool
	styled bool
}

func newRenderer(w io.Writer, asJSON, styled bool) *renderer {
	return &renderer{w: w, json: asJSON, styled: styled}
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *renderer) header(title string) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.style(shared.Header, title))
}

func (r *renderer) item(name, description string) {
	if r.styled {
		fmt.Fprintln(r.w, "  "+shared.RenderItem(name, description))
		return
	}
	if description == "" {
		fmt.Fprintf(r.w, "  - %s\n", name)
		return
	}
	fmt.Fprintf(r.w, "  - %s: %s\n", name, description)
}

func (r *renderer) report(rep Report) error {
	if r.json {
		return shared.WriteJSON(r.w, rep)
	}

	fmt.Fprintf(r.w, "%s %s (protocol %s)\n",
		r.style(shared.Bold, rep.Server.Name), rep.Server.Version, rep.ProtocolVersion)
	if rep.Instructions != "" {
		fmt.Fprintln(r.w, r.style(shared.Muted, rep.Instructions))
	}

	r.header(fmt.Sprintf("Tools (%d)", len(rep.Tools)))
	for _, t := range rep.Tools {
		r.item(t.Name+toolSignature(t), t.Description)
	}

	r.header(fmt.Sprintf("Resources (%d)", len(rep.Resources)))
	for _, res := range rep.Resources {
		r.item(res.URI, res.Description)
	}

	r.header(fmt.Sprintf("Resource templates (%d)", len(rep.ResourceTemplates)))
	for _, t := range rep.ResourceTemplates {
		uri := ""
		if t.URITemplate != nil {
			uri = t.URITemplate.Raw()
		}
		r.item(uri, t.Description)
	}

	r.header(fmt.Sprintf("Prompts (%d)", len(rep.Prompts)))
	for _, p := range rep.Prompts {
		var args []string
		for _, a := range p.Arguments {
			name := a.Name
			if !a.Required {
				name += "?"
			}
			args = append(args, name)
		}
		r.item(fmt.Sprintf("%s(%s)", p.Name, strings.Join(args, ", ")), p.Description)
	}
	return nil
}

// toolSignature renders "(a, b?)" from a tool's input schema.
func toolSignature(t mcp.Tool) string {
	required := map[string]bool{}
	for _, name := range t.InputSchema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(t.InputSchema.Properties))
	for name := range t.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if !required[name] {
			names[i] = name + "?"
		}
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func (r *renderer) toolResult(name string, result *mcp.CallToolResult) error {
	if r.json {
		return shared.WriteJSON(r.w, result)
	}

	status := r.style(shared.StatusOK, shared.SymbolOK)
	if result.IsError {
		status = r.style(shared.StatusError, shared.SymbolError)
	}
	fmt.Fprintf(r.w, "%s %s\n", status, r.style(shared.Bold, name))
	for _, c := range result.Content {
		r.content(c)
	}
	return nil
}

func (r *renderer) content(c mcp.Content) {
	switch v := c.(type) {
	case mcp.TextContent:
		fmt.Fprintln(r.w, v.Text)
	case *mcp.TextContent:
		fmt.Fprintln(r.w, v.Text)
	case mcp.ImageContent:
		fmt.Fprintln(r.w, r.style(shared.Muted, fmt.Sprintf("[image %s, %d base64 bytes]", v.MIMEType, len(v.Data))))
	case mcp.AudioContent:
		fmt.Fprintln(r.w, r.style(shared.Muted, fmt.Sprintf("[audio %s, %d base64 bytes]", v.MIMEType, len(v.Data))))
	case mcp.EmbeddedResource:
		fmt.Fprintln(r.w, r.style(shared.Muted, "[embedded resource]"))
	default:
		fmt.Fprintln(r.w, r.style(shared.Muted, fmt.Sprintf("[%T]", c)))
	}
}

func (r *renderer) resource(uri string, result *mcp.ReadResourceResult) error {
	if r.json {
		return shared.WriteJSON(r.w, result)
	}

	fmt.Fprintln(r.w, r.style(shared.Bold, uri))
	for _, c := range result.Contents {
		switch v := c.(type) {
		case mcp.TextResourceContents:
			fmt.Fprintln(r.w, v.Text)
		case *mcp.TextResourceContents:
			fmt.Fprintln(r.w, v.Text)
		case mcp.BlobResourceContents:
			fmt.Fprintln(r.w, r.style(shared.Muted, fmt.Sprintf("[blob %s, %d base64 bytes]", v.MIMEType, len(v.Blob))))
		}
	}
	return nil
}

func (r *renderer) prompt(name string, result *mcp.GetPromptResult) error {
	if r.json {
		return shared.WriteJSON(r.w, result)
	}

	fmt.Fprintln(r.w, r.style(shared.Bold, name))
	if result.Description != "" {
		fmt.Fprintln(r.w, r.style(shared.Muted, result.Description))
	}
	for _, m := range result.Messages {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, r.style(shared.Header, "["+string(m.Role)+"]"))
		r.content(m.Content)
	}
	return nil
}
