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

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:   []byte("test-secret-key-at-least-32-bytes!!"),
		Issuer:   "mcp-toolbox",
		Audience: "mcp-clients",
	}
}

func TestMintAndValidateToken(t *testing.T) {
	cfg := testAuthConfig()

	token, err := MintToken("alice", time.Hour, cfg)
	require.NoError(t, err)

	claims, err := ValidateToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "mcp-toolbox", claims.Issuer)
	assert.Contains(t, claims.Audience, "mcp-clients")
}

func TestMintToken_NoSecret(t *testing.T) {
	_, err := MintToken("alice", time.Hour, AuthConfig{})
	assert.Error(t, err)
}

func TestValidateToken_Rejects(t *testing.T) {
	cfg := testAuthConfig()

	valid, err := MintToken("alice", time.Hour, cfg)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func(t *testing.T) string
		cfg   AuthConfig
	}{
		{
			name:  "empty token",
			token: func(t *testing.T) string { return "" },
			cfg:   cfg,
		},
		{
			name:  "wrong secret",
			token: func(t *testing.T) string { return valid },
			cfg: AuthConfig{
				Secret:   []byte("another-secret-key-of-similar-size"),
				Issuer:   cfg.Issuer,
				Audience: cfg.Audience,
			},
		},
		{
			name:  "wrong issuer",
			token: func(t *testing.T) string { return valid },
			cfg:   AuthConfig{Secret: cfg.Secret, Issuer: "someone-else"},
		},
		{
			name:  "wrong audience",
			token: func(t *testing.T) string { return valid },
			cfg:   AuthConfig{Secret: cfg.Secret, Audience: "other"},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "alice",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				}}
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
				require.NoError(t, err)
				return s
			},
			cfg: AuthConfig{Secret: cfg.Secret},
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
				require.NoError(t, err)
				return s
			},
			cfg: AuthConfig{Secret: cfg.Secret},
		},
		{
			name: "unexpected algorithm",
			token: func(t *testing.T) string {
				claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				}}
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(cfg.Secret)
				require.NoError(t, err)
				return s
			},
			cfg: AuthConfig{Secret: cfg.Secret},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token(t), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"BEARER abc", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := extractBearerToken(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testAuthConfig()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("disabled passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthMiddleware(AuthConfig{}, ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthMiddleware(cfg, ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := MintToken("alice", time.Minute, cfg)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		AuthMiddleware(cfg, ok).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
