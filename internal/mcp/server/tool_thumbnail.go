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
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/mcp-toolbox/internal/tools/imaging"
)

// handleThumbnail implements the create_thumbnail tool.
func (s *Server) handleThumbnail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	width := request.GetInt("width", imaging.DefaultSize)
	height := request.GetInt("height", imaging.DefaultSize)

	res, err := s.images.ThumbnailFile(path, width, height)
	if err != nil {
		return toolError(err), nil
	}

	summary := fmt.Sprintf("Thumbnail %dx%d from %s source %dx%d",
		res.Width, res.Height, res.SourceFormat, res.SourceWidth, res.SourceHeight)

	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(res.Data), imaging.MIMEType), nil
}
