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

// Package prompts defines the prompt templates the server offers.
package prompts

import (
	"fmt"
	"sort"
	"strings"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// Role of a rendered message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one rendered prompt message.
type Message struct {
	Role Role
	Text string
}

// Argument describes a prompt argument.
type Argument struct {
	Name        string
	Description string
	Required    bool
}

// Template is a named prompt with arguments.
type Template struct {
	Name        string
	Description string
	Arguments   []Argument
	render      func(args map[string]string) []Message
}

// Render validates args and produces the prompt messages.
func (t *Template) Render(args map[string]string) ([]Message, error) {
	for _, a := range t.Arguments {
		if a.Required && strings.TrimSpace(args[a.Name]) == "" {
			return nil, &toolboxerrors.ValidationError{
				Field:   a.Name,
				Message: "argument is required",
				Hint:    a.Description,
			}
		}
	}
	return t.render(args), nil
}

var templates = map[string]*Template{
	"review_code": {
		Name:        "review_code",
		Description: "Ask for a review of a code snippet",
		Arguments: []Argument{
			{Name: "code", Description: "The code to review", Required: true},
			{Name: "language", Description: "Language of the snippet, if known"},
		},
		render: func(args map[string]string) []Message {
			lang := args["language"]
			fence := "```" + lang
			return []Message{{
				Role: RoleUser,
				Text: fmt.Sprintf("Please review this code. Point out bugs, unclear names and missing error handling.\n\n%s\n%s\n```", fence, args["code"]),
			}}
		},
	},
	"debug_error": {
		Name:        "debug_error",
		Description: "Start a debugging conversation about an error message",
		Arguments: []Argument{
			{Name: "error", Description: "The error message or stack trace", Required: true},
		},
		render: func(args map[string]string) []Message {
			return []Message{
				{Role: RoleUser, Text: "I'm seeing this error:\n\n" + args["error"]},
				{Role: RoleAssistant, Text: "I'll help debug that. What have you tried so far, and when does it happen?"},
			}
		},
	},
}

// Get returns the template called name.
func Get(name string) (*Template, error) {
	t, ok := templates[name]
	if !ok {
		return nil, &toolboxerrors.NotFoundError{Resource: "prompt", ID: name}
	}
	return t, nil
}

// All returns every template sorted by name.
func All() []*Template {
	out := make([]*Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
