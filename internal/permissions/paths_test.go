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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReadWithinRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	file := filepath.Join(root, "images", "cat.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	c := NewCheckerAt(root, nil)

	got, err := c.CheckRead("images/cat.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.root, "images", "cat.png"), got)

	_, err = c.CheckRead(file)
	require.NoError(t, err)
}

func TestCheckReadRejects(t *testing.T) {
	root := t.TempDir()
	c := NewCheckerAt(root, nil)

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"traversal", "../etc/passwd"},
		{"nested traversal", "images/../../secret"},
		{"outside root", "/etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CheckRead(tt.path)
			require.Error(t, err)
			assert.True(t, IsPermissionError(err))
		})
	}
}

func TestCheckReadDotsInNameAllowed(t *testing.T) {
	c := NewCheckerAt(t.TempDir(), nil)
	_, err := c.CheckRead("archive..v2.png")
	assert.NoError(t, err)
}

func TestCheckReadAllowedPatterns(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	otherResolved, err := filepath.EvalSymlinks(other)
	require.NoError(t, err)

	img := filepath.Join(otherResolved, "pics", "a.png")
	txt := filepath.Join(otherResolved, "pics", "a.txt")

	t.Run("glob", func(t *testing.T) {
		c := NewCheckerAt(root, []string{filepath.ToSlash(otherResolved) + "/**/*.png"})
		_, err := c.CheckRead(img)
		assert.NoError(t, err)
		_, err = c.CheckRead(txt)
		assert.Error(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		c := NewCheckerAt(root, []string{otherResolved})
		_, err := c.CheckRead(txt)
		assert.NoError(t, err)
	})
}

func TestCheckReadSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(target, []byte("s"), 0o600))

	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	c := NewCheckerAt(root, nil)
	_, err := c.CheckRead("link.txt")
	require.Error(t, err)
	assert.True(t, IsPermissionError(err))
}

func TestPermissionErrorMessage(t *testing.T) {
	err := &PermissionError{Type: "paths.read", Resource: "/x", Message: "nope"}
	assert.Contains(t, err.Error(), "permission denied: paths.read")
	assert.Contains(t, err.Error(), "working directory only")
	assert.NotEmpty(t, err.Suggestion())
}

func TestCheckReadRelativePatternAnchoredAtRoot(t *testing.T) {
	root := t.TempDir()
	c := NewCheckerAt(root, []string{"images/**"})

	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(resolvedRoot, "images/**")}, c.Patterns())

	_, err = c.CheckRead(filepath.Join(resolvedRoot, "images", "x.png"))
	assert.NoError(t, err)
}

func TestCheckReadFilesystemRootNotImplicit(t *testing.T) {
	root := string(filepath.Separator)
	if vol := filepath.VolumeName(os.TempDir()); vol != "" {
		root = vol + root
	}
	c := NewCheckerAt(root, nil)

	_, err := c.CheckRead(filepath.Join(root, "etc", "passwd"))
	require.Error(t, err)
	assert.True(t, IsPermissionError(err))

	allowed := NewCheckerAt(root, []string{filepath.Join(root, "data")})
	_, err = allowed.CheckRead(filepath.Join(root, "data", "x.png"))
	assert.NoError(t, err)
}
