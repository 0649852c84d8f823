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
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// openDB opens the configured database read-only. Each call opens its own
// handle so changes to the file are always visible.
func (s *Server) openDB() (*sqlitedb.DB, error) {
	if s.dbPath == "" {
		return nil, &toolboxerrors.ValidationError{
			Field:   "database.path",
			Message: "no database is configured",
			Hint:    "set database.path in mcp-toolbox.yaml or run 'mcp-toolbox init'",
		}
	}
	return sqlitedb.Open(s.dbPath)
}

func (s *Server) readSchema(ctx context.Context) (string, error) {
	db, err := s.openDB()
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	return db.Schema(ctx)
}

// handleSchema implements the db_schema tool.
func (s *Server) handleSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := s.readSchema(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if schema == "" {
		return textResponse("(empty database)"), nil
	}

	return textResponse(schema), nil
}

// handleQuery implements the query_data tool.
func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("sql")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	limit := request.GetInt("limit", s.maxRows)

	db, err := s.openDB()
	if err != nil {
		return toolError(err), nil
	}
	defer db.Close()

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := db.Query(queryCtx, query, limit)
	if err != nil {
		return toolError(err), nil
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode query result: %v", err)), nil
	}

	return textResponse(string(resultJSON)), nil
}
