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

package permissions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Checker decides which local files tools may read. The root directory is
// always allowed unless it is the filesystem root; extra locations come from
// doublestar globs. A pattern without glob metacharacters allows everything
// beneath that directory. Relative patterns are anchored at the root.
type Checker struct {
	root        string
	rootAllowed bool
	patterns    []string
}

// NewChecker creates a Checker rooted at the current working directory.
func NewChecker(allowed []string) (*Checker, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return NewCheckerAt(cwd, allowed), nil
}

// NewCheckerAt creates a Checker rooted at root.
func NewCheckerAt(root string, allowed []string) *Checker {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	root = filepath.Clean(root)
	patterns := make([]string, 0, len(allowed))
	for _, p := range allowed {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		patterns = append(patterns, p)
	}
	return &Checker{
		root:        root,
		rootAllowed: filepath.Dir(root) != root,
		patterns:    patterns,
	}
}

// Patterns returns the configured extra patterns.
func (c *Checker) Patterns() []string {
	return c.patterns
}

// CheckRead validates path for reading and returns its resolved absolute
// form. Relative paths are taken relative to the checker root. Traversal
// segments are rejected outright and symlinks are resolved before matching.
func (c *Checker) CheckRead(path string) (string, error) {
	if path == "" {
		return "", &PermissionError{Type: "paths.read", Message: "path is empty"}
	}

	for _, seg := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if seg == ".." {
			return "", &PermissionError{
				Type:     "paths.read",
				Resource: path,
				Message:  "path contains directory traversal sequence (..)",
			}
		}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.root, abs)
	}
	abs = filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		resolved = abs
	}

	if c.rootAllowed && isPathWithinDir(resolved, c.root) {
		return resolved, nil
	}

	target := normalizePath(resolved)
	for _, pattern := range c.patterns {
		if !hasGlobMeta(pattern) {
			if isPathWithinDir(resolved, pattern) {
				return resolved, nil
			}
			continue
		}
		matched, err := doublestar.Match(normalizePath(pattern), target)
		if err != nil {
			continue
		}
		if matched {
			return resolved, nil
		}
	}

	return "", &PermissionError{
		Type:     "paths.read",
		Resource: path,
		Allowed:  c.patterns,
		Message:  "path is outside the working directory and allowed patterns",
	}
}

// isPathWithinDir checks if path is within or equal to dir.
func isPathWithinDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if path == dir {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// normalizePath converts to forward slashes for consistent matching.
func normalizePath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "./")
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Check reports whether path may be read.
func (c *Checker) Check(path string) error {
	_, err := c.CheckRead(path)
	return err
}
