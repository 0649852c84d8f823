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

package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "secrets.enc")
	b := NewFileBackend(path, "master-key")

	_, err := b.Get(ctx, "jwt")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, b.Set(ctx, "jwt", "s3cret"))
	require.NoError(t, b.Set(ctx, "other", "value"))

	got, err := b.Get(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret")
}

func TestFileBackend_WrongMasterKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secrets.enc")
	require.NoError(t, NewFileBackend(path, "right").Set(ctx, "k", "v"))

	_, err := NewFileBackend(path, "wrong").Get(ctx, "k")
	assert.ErrorContains(t, err, "decrypt")
}

func TestFileBackend_Unavailable(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	b := NewFileBackend(filepath.Join(t.TempDir(), "secrets.enc"), "")

	_, err := b.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, b.Set(context.Background(), "k", "v"), ErrBackendUnavailable)
}

func TestResolveFileReference(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(filepath.Join(t.TempDir(), "secrets.enc"), "master-key")
	r := NewResolver(b)

	require.NoError(t, r.Store(ctx, "file:jwt-secret", "from-file"))
	got, err := r.Resolve(ctx, "file:jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}
