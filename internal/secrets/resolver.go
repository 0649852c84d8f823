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
	"fmt"
	"strings"
)

// Resolver expands secret references against a set of backends keyed by
// scheme.
type Resolver struct {
	backends map[string]SecretBackend
}

// NewResolver creates a resolver. With no arguments it uses the env,
// keychain and encrypted file backends.
func NewResolver(backends ...SecretBackend) *Resolver {
	if len(backends) == 0 {
		backends = []SecretBackend{NewEnvBackend(), NewKeychainBackend(), NewFileBackend("", "")}
	}
	r := &Resolver{backends: make(map[string]SecretBackend, len(backends))}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

// Resolve returns the secret a reference points to. References without a
// known scheme prefix are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	scheme, key, ok := strings.Cut(ref, ":")
	if !ok {
		return ref, nil
	}
	backend, found := r.backends[scheme]
	if !found {
		return ref, nil
	}
	if key == "" {
		return "", fmt.Errorf("secret reference %q has an empty key", ref)
	}
	value, err := backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s secret %q: %w", scheme, key, err)
	}
	return value, nil
}

// Store writes value to the backend named by ref's scheme.
func (r *Resolver) Store(ctx context.Context, ref, value string) error {
	scheme, key, ok := strings.Cut(ref, ":")
	backend, found := r.backends[scheme]
	if !ok || !found || key == "" {
		return fmt.Errorf("cannot store to reference %q: expected <backend>:<key>", ref)
	}
	return backend.Set(ctx, key, value)
}

// IsReference reports whether s uses a known scheme prefix.
func IsReference(s string) bool {
	scheme, _, ok := strings.Cut(s, ":")
	return ok && (scheme == "env" || scheme == "keychain" || scheme == "file")
}
