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
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tombee/mcp-toolbox/internal/tools/imaging"
	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// registerTools registers every tool with the MCP server.
func (s *Server) registerTools() {
	// Tool: add
	s.addTool(mcp.Tool{
		Name:        "add",
		Description: "Add two numbers and return the sum.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"a": map[string]interface{}{
					"type":        "number",
					"description": "First number",
				},
				"b": map[string]interface{}{
					"type":        "number",
					"description": "Second number",
				},
			},
			Required: []string{"a", "b"},
		},
	}, s.handleAdd)

	// Tool: calculate
	s.addTool(mcp.Tool{
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression such as '(2 + 3) * sqrt(16)'. Supports + - * / % **, parentheses, abs, min, max, floor, ceil, round, sqrt and pow.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "The expression to evaluate",
				},
			},
			Required: []string{"expression"},
		},
	}, s.handleCalculate)

	// Tool: greet
	s.addTool(mcp.Tool{
		Name:        "greet",
		Description: "Return a personalized greeting. Same output as the greeting://{name} resource.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the person to greet",
				},
			},
			Required: []string{"name"},
		},
	}, s.handleGreet)

	// Tool: fetch
	if s.fetcher != nil {
		s.addTool(mcp.Tool{
			Name:        "fetch",
			Description: "Fetch a URL over HTTP(S) and return the response body as text. Large bodies are truncated. JSON bodies can be filtered with a jq expression.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "The http or https URL to fetch",
					},
					"max_bytes": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of body bytes to return",
						"minimum":     1,
					},
					"jq": map[string]interface{}{
						"type":        "string",
						"description": "Optional jq expression applied to a JSON body, e.g. '.items[0].name'",
					},
				},
				Required: []string{"url"},
			},
		}, s.handleFetch)
	}

	// Tool: db_schema
	s.addTool(mcp.Tool{
		Name:        "db_schema",
		Description: "Return the SQL schema of the configured SQLite database. Same content as the schema://main resource.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleSchema)

	// Tool: query_data
	s.addTool(mcp.Tool{
		Name:        "query_data",
		Description: "Run a single read-only SQL statement (SELECT, WITH, PRAGMA, EXPLAIN or VALUES) against the SQLite database and return the rows as JSON.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sql": map[string]interface{}{
					"type":        "string",
					"description": "The SQL statement to run",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Maximum rows to return (default %d, max %d)", s.maxRows, sqlitedb.MaxLimit),
					"minimum":     1,
					"maximum":     sqlitedb.MaxLimit,
				},
			},
			Required: []string{"sql"},
		},
	}, s.handleQuery)

	// Tool: create_thumbnail
	if s.images != nil {
		s.addTool(mcp.Tool{
			Name:        "create_thumbnail",
			Description: "Load an image file, scale it to fit the given box while keeping its aspect ratio, and return it as PNG.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to a PNG, JPEG, GIF, BMP, TIFF or WebP file",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum thumbnail width in pixels",
						"default":     imaging.DefaultSize,
						"minimum":     1,
						"maximum":     imaging.MaxDimension,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum thumbnail height in pixels",
						"default":     imaging.DefaultSize,
						"minimum":     1,
						"maximum":     imaging.MaxDimension,
					},
				},
				Required: []string{"path"},
			},
		}, s.handleThumbnail)
	}

	// Tool: health
	s.addTool(mcp.Tool{
		Name:        "health",
		Description: "Report whether the server's backends (database, image access, network fetch) are usable, with remediation hints for failures.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleHealth)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, s.wrapTool(tool.Name, handler))
}

// toolError converts err into a tool error result carrying the user message,
// a suggestion when present, and a retry note for transient failures.
func toolError(err error) *mcp.CallToolResult {
	msg := toolboxerrors.UserMessage(err)
	if suggestion := toolboxerrors.SuggestionFor(err); suggestion != "" {
		msg = fmt.Sprintf("%s\n\nSuggestion: %s", msg, suggestion)
	}
	if toolboxerrors.IsRetryable(err) {
		msg += "\n\n" + retryNote
	}
	return errorResponse(msg)
}

const retryNote = "This failure is temporary; the same call may succeed if retried later."
