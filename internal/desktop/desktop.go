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

// Package desktop reads and writes the MCP server block of the Claude
// desktop client configuration file.
package desktop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// ConfigFileName is the desktop client's configuration file name.
const ConfigFileName = "claude_desktop_config.json"

// ServersKey is the top-level key holding MCP server entries.
const ServersKey = "mcpServers"

// Entry is how the desktop client launches one MCP server.
type Entry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// Block renders {"mcpServers": {name: e}} for printing.
func Block(name string, e Entry) ([]byte, error) {
	return Merge(nil, name, e)
}

// Merge adds or replaces the name entry under mcpServers in an existing
// config document. Other top-level keys and other servers are preserved.
// An empty document is treated as {}.
func Merge(existing []byte, name string, e Entry) ([]byte, error) {
	if name == "" {
		return nil, &toolboxerrors.ValidationError{Field: "name", Message: "server name cannot be empty"}
	}
	if e.Command == "" {
		return nil, &toolboxerrors.ValidationError{Field: "command", Message: "command cannot be empty"}
	}
	if e.Args == nil {
		e.Args = []string{}
	}

	doc := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(existing)) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, &toolboxerrors.ValidationError{
				Field:   "config",
				Message: fmt.Sprintf("existing config is not a JSON object: %v", err),
				Hint:    "fix or move the file aside and run the command again",
			}
		}
		if doc == nil {
			doc = map[string]json.RawMessage{}
		}
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc[ServersKey]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return nil, &toolboxerrors.ValidationError{
				Field:   ServersKey,
				Message: fmt.Sprintf("%s is not a JSON object", ServersKey),
			}
		}
	}

	entry, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}
	servers[name] = entry

	rawServers, err := json.Marshal(servers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ServersKey, err)
	}
	doc[ServersKey] = rawServers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append(out, '\n'), nil
}

// Lookup returns the named entry from a config document.
func Lookup(doc []byte, name string) (*Entry, error) {
	var parsed struct {
		Servers map[string]Entry `json:"mcpServers"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	e, ok := parsed.Servers[name]
	if !ok {
		return nil, &toolboxerrors.NotFoundError{Resource: "mcp server", ID: name}
	}
	return &e, nil
}

// DefaultConfigPath returns the desktop client's config path for this OS.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return configPathFor(runtime.GOOS, home, os.Getenv), nil
}

func configPathFor(goos, home string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", ConfigFileName)
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Claude", ConfigFileName)
	default:
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "Claude", ConfigFileName)
	}
}

// WriteFile merges e into the config at path. When the file exists, a copy
// is saved to path+".bak" first. Returns the backup path, or "" when there
// was nothing to back up.
func WriteFile(path, name string, e Entry) (string, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	merged, err := Merge(existing, name, e)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	var backup string
	if existing != nil {
		backup = path + ".bak"
		if err := os.WriteFile(backup, existing, 0o600); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".claude-config-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(merged); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to replace config: %w", err)
	}
	return backup, nil
}
