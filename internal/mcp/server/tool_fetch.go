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

	"github.com/tombee/mcp-toolbox/internal/tools/fetch"
)

// handleFetch implements the fetch tool. The result is the JSON-encoded
// fetch.Response so clients see status and truncation alongside the body.
func (s *Server) handleFetch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	opts := fetch.Options{
		MaxBytes: int64(request.GetInt("max_bytes", 0)),
		JQ:       request.GetString("jq", ""),
	}
	if opts.MaxBytes < 0 {
		return errorResponse("max_bytes must be positive"), nil
	}

	resp, err := s.fetcher.Fetch(ctx, url, opts)
	if err != nil {
		return toolError(err), nil
	}
	s.metrics.RecordFetchBytes(ctx, resp.Bytes)

	resultJSON, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode fetch result: %v", err)), nil
	}

	return textResponse(string(resultJSON)), nil
}
