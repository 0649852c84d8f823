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

// Package greeting serves the greeting://{name} resource.
package greeting

import (
	"net/url"
	"strings"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// Scheme and URITemplate identify the greeting resource.
const (
	Scheme      = "greeting"
	URITemplate = "greeting://{name}"
)

// Greeting returns a personalized greeting.
func Greeting(name string) string {
	return "Hello, " + name + "!"
}

// URI returns the resource URI for name.
func URI(name string) string {
	return Scheme + "://" + url.PathEscape(name)
}

// NameFromURI extracts the name from a greeting:// URI.
func NameFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, Scheme+"://")
	if !ok {
		return "", &toolboxerrors.ValidationError{
			Field:   "uri",
			Message: "expected a greeting:// URI, got " + uri,
		}
	}
	name, err := url.PathUnescape(strings.TrimSuffix(rest, "/"))
	if err != nil {
		return "", &toolboxerrors.ValidationError{Field: "uri", Message: err.Error()}
	}
	if name == "" {
		return "", &toolboxerrors.ValidationError{
			Field:   "name",
			Message: "name is empty",
			Hint:    "use greeting://<name>, for example greeting://Alice",
		}
	}
	return name, nil
}
