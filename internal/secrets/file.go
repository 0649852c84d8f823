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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

// MasterKeyEnv names the environment variable holding the file backend's
// master key.
const MasterKeyEnv = "MCP_TOOLBOX_MASTER_KEY"

const (
	argon2Time        = 3
	argon2Memory      = 64 * 1024 // KiB
	argon2Parallelism = 4
	argon2KeyLength   = 32

	saltSize = 16
)

// FileBackend stores secrets in a single AES-256-GCM encrypted JSON file.
// The file key is derived from the master key with Argon2id and a fresh
// salt on every write.
type FileBackend struct {
	path      string
	masterKey []byte
	mu        sync.RWMutex
}

type encryptedFile struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// NewFileBackend creates a file backend. An empty path means
// secrets.enc in the user config directory; an empty masterKey falls back to
// MasterKeyEnv. Without a master key the backend reports
// ErrBackendUnavailable on use.
func NewFileBackend(path, masterKey string) *FileBackend {
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "mcp-toolbox", "secrets.enc")
		}
	}
	if masterKey == "" {
		masterKey = os.Getenv(MasterKeyEnv)
	}
	f := &FileBackend{path: path}
	if masterKey != "" {
		f.masterKey = []byte(masterKey)
	}
	return f
}

// Name returns the backend identifier.
func (f *FileBackend) Name() string {
	return "file"
}

// Get retrieves a secret from the encrypted file.
func (f *FileBackend) Get(_ context.Context, key string) (string, error) {
	if err := f.available(); err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	secrets, err := f.load()
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	if err != nil {
		return "", err
	}
	value, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return value, nil
}

// Set stores a secret, creating the file if needed.
func (f *FileBackend) Set(_ context.Context, key, value string) error {
	if err := f.available(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if errors.Is(err, os.ErrNotExist) {
		secrets = make(map[string]string)
	} else if err != nil {
		return err
	}
	secrets[key] = value
	return f.save(secrets)
}

func (f *FileBackend) available() error {
	if len(f.masterKey) == 0 {
		return fmt.Errorf("%w: set %s", ErrBackendUnavailable, MasterKeyEnv)
	}
	if f.path == "" {
		return fmt.Errorf("%w: no secrets file path", ErrBackendUnavailable)
	}
	return nil
}

func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	var enc encryptedFile
	if err := json.Unmarshal(raw, &enc); err != nil {
		return nil, fmt.Errorf("invalid secrets file %s: %w", f.path, err)
	}

	gcm, err := f.cipher(enc.Salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, enc.Nonce, enc.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s (wrong master key?): %w", f.path, err)
	}
	defer clear(plaintext)

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("invalid secrets file %s: %w", f.path, err)
	}
	return secrets, nil
}

func (f *FileBackend) save(secrets map[string]string) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return err
	}
	defer clear(plaintext)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := f.cipher(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	raw, err := json.Marshal(encryptedFile{
		Salt:  salt,
		Nonce: nonce,
		Data:  gcm.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

func (f *FileBackend) cipher(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(f.masterKey, salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLength)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
