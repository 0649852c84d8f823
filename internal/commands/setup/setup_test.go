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

package setup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	"github.com/tombee/mcp-toolbox/internal/config"
	"github.com/tombee/mcp-toolbox/internal/permissions"
	"github.com/tombee/mcp-toolbox/internal/tools/sqlitedb"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"mcp-toolbox", false},
		{"toolbox_2", false},
		{"", true},
		{"-leading", true},
		{"has space", true},
		{"double--hyphen", true},
		{"double__underscore", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSuggestName(t *testing.T) {
	assert.Equal(t, "my-project", SuggestName("My Project"))
	assert.Equal(t, "weathermcp", SuggestName("weather.mcp!!"))
	assert.Equal(t, "mcp-toolbox", SuggestName("!!!"))
	assert.NoError(t, ValidateName(SuggestName("  spaced   out  ")))
}

func TestScaffold(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	res, err := Scaffold(ctx, dir, DefaultAnswers(dir), false)
	require.NoError(t, err)

	assert.FileExists(t, res.ConfigPath)
	assert.DirExists(t, res.ImagesDir)

	info, err := os.Stat(res.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := config.Load(res.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, config.TransportStdio, cfg.Server.Transport)
	assert.Equal(t, filepath.Join("data", "example.db"), cfg.Database.Path)
	assert.Equal(t, []string{"images/**"}, cfg.Paths.Allowed)

	db, err := sqlitedb.Open(res.DBPath)
	require.NoError(t, err)
	defer db.Close()
	schema, err := db.Schema(ctx)
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE users")
}

func TestScaffold_ExistingConfig(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := Scaffold(ctx, dir, DefaultAnswers(dir), false)
	require.NoError(t, err)

	_, err = Scaffold(ctx, dir, DefaultAnswers(dir), false)
	assert.ErrorIs(t, err, ErrConfigExists)

	_, err = Scaffold(ctx, dir, DefaultAnswers(dir), true)
	assert.NoError(t, err)
}

func TestScaffold_InvalidName(t *testing.T) {
	a := DefaultAnswers(".")
	a.Name = "bad name"
	_, err := Scaffold(context.Background(), t.TempDir(), a, false)
	assert.Error(t, err)
}

func TestCommand_Yes(t *testing.T) {
	dir := t.TempDir()

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dir", dir, "--yes"})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(dir, config.ProjectConfigName))
	assert.Contains(t, out.String(), "Next steps")

	cmd = NewCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dir", dir, "--yes"})
	err := cmd.Execute()

	var exitErr *shared.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)
}

func TestScaffold_LoadFromOtherDirectory(t *testing.T) {
	project := t.TempDir()
	res, err := Scaffold(context.Background(), project, DefaultAnswers(project), false)
	require.NoError(t, err)
	img := filepath.Join(res.ImagesDir, "x.png")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o600))

	t.Chdir(t.TempDir())

	cfg, err := config.Load(res.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, res.DBPath, cfg.Database.Path)

	db, err := sqlitedb.Open(cfg.Database.Path)
	require.NoError(t, err)
	defer db.Close()
	schema, err := db.Schema(context.Background())
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE users")

	checker := permissions.NewCheckerAt(cfg.BaseDir, cfg.Paths.Allowed)
	_, err = checker.CheckRead(img)
	assert.NoError(t, err)
}
