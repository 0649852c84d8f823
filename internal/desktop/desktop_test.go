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

package desktop

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

func TestBlock(t *testing.T) {
	out, err := Block("toolbox", Entry{Command: "/usr/local/bin/mcp-toolbox", Args: []string{"serve"}})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"mcpServers": {
			"toolbox": {"command": "/usr/local/bin/mcp-toolbox", "args": ["serve"]}
		}
	}`, string(out))
	assert.Contains(t, string(out), "\n  \"mcpServers\"")
}

func TestMerge_PreservesOtherKeys(t *testing.T) {
	existing := []byte(`{
		"theme": "dark",
		"mcpServers": {
			"other": {"command": "node", "args": ["server.js"], "env": {"TOKEN": "x"}}
		}
	}`)

	out, err := Merge(existing, "toolbox", Entry{Command: "mcp-toolbox", Args: []string{"serve"}})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "dark", doc["theme"])

	servers := doc["mcpServers"].(map[string]any)
	assert.Contains(t, servers, "other")
	assert.Contains(t, servers, "toolbox")
	other := servers["other"].(map[string]any)
	assert.Equal(t, map[string]any{"TOKEN": "x"}, other["env"])
}

func TestMerge_ReplacesExistingEntry(t *testing.T) {
	existing := []byte(`{"mcpServers": {"toolbox": {"command": "old", "args": []}}}`)

	out, err := Merge(existing, "toolbox", Entry{Command: "new", Args: []string{"serve"}})
	require.NoError(t, err)

	e, err := Lookup(out, "toolbox")
	require.NoError(t, err)
	assert.Equal(t, "new", e.Command)
	assert.Equal(t, []string{"serve"}, e.Args)
}

func TestMerge_Errors(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		server   string
		entry    Entry
	}{
		{"invalid json", `{not json`, "toolbox", Entry{Command: "x"}},
		{"array document", `[1,2]`, "toolbox", Entry{Command: "x"}},
		{"servers not object", `{"mcpServers": "nope"}`, "toolbox", Entry{Command: "x"}},
		{"empty name", `{}`, "", Entry{Command: "x"}},
		{"empty command", `{}`, "toolbox", Entry{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge([]byte(tt.existing), tt.server, tt.entry)
			require.Error(t, err)
			assert.True(t, toolboxerrors.IsValidation(err))
		})
	}
}

func TestMerge_NullServers(t *testing.T) {
	out, err := Merge([]byte(`{"mcpServers": null}`), "toolbox", Entry{Command: "x"})
	require.NoError(t, err)

	e, err := Lookup(out, "toolbox")
	require.NoError(t, err)
	assert.Equal(t, []string{}, e.Args)
}

func TestLookup_NotFound(t *testing.T) {
	_, err := Lookup([]byte(`{"mcpServers": {}}`), "missing")
	assert.True(t, toolboxerrors.IsNotFound(err))
}

func TestConfigPathFor(t *testing.T) {
	env := func(values map[string]string) func(string) string {
		return func(k string) string { return values[k] }
	}

	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{"macos", "darwin", nil, filepath.Join("/home/u", "Library", "Application Support", "Claude", ConfigFileName)},
		{"windows appdata", "windows", map[string]string{"APPDATA": "/appdata"}, filepath.Join("/appdata", "Claude", ConfigFileName)},
		{"windows fallback", "windows", nil, filepath.Join("/home/u", "AppData", "Roaming", "Claude", ConfigFileName)},
		{"linux xdg", "linux", map[string]string{"XDG_CONFIG_HOME": "/xdg"}, filepath.Join("/xdg", "Claude", ConfigFileName)},
		{"linux fallback", "linux", nil, filepath.Join("/home/u", ".config", "Claude", ConfigFileName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, configPathFor(tt.goos, "/home/u", env(tt.env)))
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Claude", ConfigFileName)

	backup, err := WriteFile(path, "toolbox", Entry{Command: "mcp-toolbox", Args: []string{"serve"}})
	require.NoError(t, err)
	assert.Empty(t, backup)

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	backup, err = WriteFile(path, "second", Entry{Command: "other"})
	require.NoError(t, err)
	assert.Equal(t, path+".bak", backup)

	saved, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, original, saved)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = Lookup(current, "toolbox")
	assert.NoError(t, err)
	_, err = Lookup(current, "second")
	assert.NoError(t, err)
}
