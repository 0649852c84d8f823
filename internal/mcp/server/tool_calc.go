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

	"github.com/tombee/mcp-toolbox/internal/tools/calc"
	"github.com/tombee/mcp-toolbox/internal/tools/greeting"
	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// handleAdd implements the add tool.
func (s *Server) handleAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := request.RequireFloat("a")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	b, err := request.RequireFloat("b")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	return textResponse(calc.Format(calc.Add(a, b))), nil
}

// handleCalculate implements the calculate tool.
func (s *Server) handleCalculate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, err := request.RequireString("expression")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	v, err := s.evaluator.Evaluate(expression)
	if err != nil {
		return toolError(err), nil
	}

	return textResponse(calc.Format(v)), nil
}

// handleGreet implements the greet tool.
func (s *Server) handleGreet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	if name == "" {
		return toolError(&toolboxerrors.ValidationError{Field: "name", Message: "name cannot be empty"}), nil
	}

	return textResponse(greeting.Greeting(name)), nil
}
