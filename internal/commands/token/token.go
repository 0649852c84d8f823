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

// Package token implements the token command, which mints bearer tokens for
// the HTTP transports and manages the signing secret.
package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/mcp-toolbox/internal/commands/shared"
	"github.com/tombee/mcp-toolbox/internal/config"
	"github.com/tombee/mcp-toolbox/internal/mcp/server"
	"github.com/tombee/mcp-toolbox/internal/secrets"
)

// DefaultSecretRef is where --generate-secret stores a new key.
const DefaultSecretRef = "keychain:jwt-secret"

type options struct {
	subject        string
	ttl            time.Duration
	secret         string
	generateSecret bool
	store          string
}

// NewCommand creates the token command
func NewCommand() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP transports",
		Long: `Mint an HS256 JWT accepted by 'serve --transport http' when http_auth is
enabled. The signing secret, issuer and audience come from http_auth in the
config file unless --secret is given.

Secrets may be literal values or references: env:NAME reads an environment
variable, keychain:NAME reads the system keychain, file:NAME reads the
encrypted secrets file unlocked by MCP_TOOLBOX_MASTER_KEY.

Use --generate-secret to create a random signing key and store it in the
keychain, then set http_auth.secret to the printed reference.`,
		Example: `  # One-time setup
  mcp-toolbox token --generate-secret

  # Mint a token valid for one hour
  mcp-toolbox token --subject alice --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "mcp-client", "Token subject")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Signing secret or reference (default: http_auth.secret)")
	cmd.Flags().BoolVar(&opts.generateSecret, "generate-secret", false, "Generate and store a new signing secret instead of minting")
	cmd.Flags().StringVar(&opts.store, "store", DefaultSecretRef, "Where --generate-secret stores the secret")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	resolver := secrets.NewResolver()
	out := cmd.OutOrStdout()

	if opts.generateSecret {
		ref, err := generateSecret(cmd.Context(), resolver, opts.store)
		if err != nil {
			return shared.NewExecutionError("failed to store secret", err)
		}
		fmt.Fprintln(out, shared.RenderOK("Stored a new signing secret at "+ref))
		fmt.Fprintln(out, "Add to mcp-toolbox.yaml:")
		fmt.Fprintf(out, "  http_auth:\n    enabled: true\n    secret: %s\n", ref)
		return nil
	}

	cfg, err := config.Load(config.Resolve(shared.GetConfigPath()))
	if err != nil {
		return shared.NewConfigError("failed to load configuration", err)
	}

	token, err := mint(cmd.Context(), resolver, cfg.HTTPAuth, opts)
	if err != nil {
		return err
	}
	return printToken(out, token, opts)
}

func mint(ctx context.Context, resolver *secrets.Resolver, auth config.HTTPAuthConfig, opts options) (string, error) {
	ref := opts.secret
	if ref == "" {
		ref = auth.Secret
	}
	if ref == "" {
		return "", shared.NewConfigError("no signing secret configured", fmt.Errorf("set http_auth.secret or pass --secret"))
	}

	secret, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return "", shared.NewConfigError("failed to resolve signing secret", err)
	}

	token, err := server.MintToken(opts.subject, opts.ttl, server.AuthConfig{
		Secret:   []byte(secret),
		Issuer:   auth.Issuer,
		Audience: auth.Audience,
	})
	if err != nil {
		return "", shared.NewExecutionError("failed to mint token", err)
	}
	return token, nil
}

func printToken(w io.Writer, token string, opts options) error {
	if shared.GetJSON() {
		return shared.WriteJSON(w, map[string]any{
			"token":      token,
			"subject":    opts.subject,
			"expires_at": time.Now().Add(opts.ttl).UTC().Format(time.RFC3339),
		})
	}
	_, err := fmt.Fprintln(w, token)
	return err
}

// generateSecret stores 32 random bytes, base64 encoded, at ref.
func generateSecret(ctx context.Context, resolver *secrets.Resolver, ref string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	if err := resolver.Store(ctx, ref, base64.RawURLEncoding.EncodeToString(buf)); err != nil {
		return "", err
	}
	return ref, nil
}
