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
	"github.com/mark3labs/mcp-go/server"

	"github.com/tombee/mcp-toolbox/internal/tools/greeting"
	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
)

// registerResources registers the greeting template and the schema resource.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(greeting.URITemplate, "greeting",
			mcp.WithTemplateDescription("A personalized greeting for {name}"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		server.ResourceTemplateHandlerFunc(s.wrapResource(s.handleGreetingResource)),
	)

	s.mcpServer.AddResource(
		mcp.NewResource(sqlitedb.SchemaURI, "Database schema",
			mcp.WithResourceDescription("SQL definitions of every table, index, view and trigger in the configured SQLite database"),
			mcp.WithMIMEType("text/plain"),
		),
		s.wrapResource(s.handleSchemaResource),
	)
}

func (s *Server) handleGreetingResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := templateArgument(request.Params.Arguments, "name")
	if name == "" {
		var err error
		if name, err = greeting.NameFromURI(request.Params.URI); err != nil {
			return nil, err
		}
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     greeting.Greeting(name),
		},
	}, nil
}

func (s *Server) handleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	schema, err := s.readSchema(ctx)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     schema,
		},
	}, nil
}

// templateArgument reads a URI template variable. mcp-go stores matches as
// either a string or a []string.
func templateArgument(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
