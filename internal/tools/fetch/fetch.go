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

// Package fetch implements the URL fetch tool.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/tombee/mcp-toolbox/internal/permissions"
	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
	"github.com/tombee/mcp-toolbox/pkg/httpclient"
)

// MaxBytesLimit is the hard ceiling for a single response body.
const MaxBytesLimit = 5 << 20

// Config configures a Fetcher.
type Config struct {
	HTTP httpclient.Config

	// MaxBytes is the default body limit when a call does not set one.
	MaxBytes int64

	// AllowPrivate permits loopback, private and link-local destinations.
	AllowPrivate bool

	JQTimeout time.Duration
}

// Options are per-call settings.
type Options struct {
	// MaxBytes overrides the default body limit. Capped at MaxBytesLimit.
	MaxBytes int64

	// JQ filters a JSON body before it is returned.
	JQ string
}

// Response is the result of a fetch.
type Response struct {
	URL         string `json:"url"`
	StatusCode  int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	Bytes       int64  `json:"bytes"`
	Truncated   bool   `json:"truncated"`
}

// Fetcher downloads URLs for the fetch tool.
type Fetcher struct {
	client       *http.Client
	maxBytes     int64
	allowPrivate bool
	resolver     permissions.Resolver
	jq           *JQ
}

// New creates a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	cfg.HTTP.BlockPrivate = !cfg.AllowPrivate
	client, err := httpclient.New(cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("invalid http client config: %w", err)
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 || maxBytes > MaxBytesLimit {
		maxBytes = MaxBytesLimit
	}

	return &Fetcher{
		client:       client,
		maxBytes:     maxBytes,
		allowPrivate: cfg.AllowPrivate,
		jq:           NewJQ(cfg.JQTimeout),
	}, nil
}

// Fetch GETs rawURL and returns its body as text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	u, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	limit := f.maxBytes
	if opts.MaxBytes < 0 {
		return nil, &toolboxerrors.ValidationError{Field: "max_bytes", Message: "must be positive"}
	}
	if opts.MaxBytes > 0 {
		limit = min(opts.MaxBytes, MaxBytesLimit)
	}

	if !f.allowPrivate {
		if err := permissions.CheckHost(ctx, f.resolver, u.Host); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &toolboxerrors.ValidationError{Field: "url", Message: err.Error()}
	}
	req.Header.Set("Accept", "text/html,application/json,text/plain;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, requestError(err, time.Since(start))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &toolboxerrors.ToolError{
			Tool:       "fetch",
			Message:    fmt.Sprintf("server returned %s for %s", resp.Status, u.Redacted()),
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, requestError(err, time.Since(start))
	}

	out := &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if int64(len(data)) > limit {
		data = data[:limit]
		out.Truncated = true
	}
	out.Bytes = int64(len(data))
	out.Body = string(data)

	if opts.JQ != "" {
		if err := f.applyJQ(ctx, out, opts.JQ); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (f *Fetcher) applyJQ(ctx context.Context, out *Response, expression string) error {
	if out.Truncated {
		return &toolboxerrors.ValidationError{
			Field:   "jq",
			Message: "response was truncated and cannot be parsed as JSON",
			Hint:    "raise max_bytes",
		}
	}
	var doc any
	if err := json.Unmarshal([]byte(out.Body), &doc); err != nil {
		return &toolboxerrors.ValidationError{
			Field:   "jq",
			Message: fmt.Sprintf("response is not JSON (content type %q)", mediaType(out.ContentType)),
		}
	}
	result, err := f.jq.Run(ctx, expression, doc)
	if err != nil {
		return err
	}
	filtered, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode jq result: %w", err)
	}
	out.Body = string(filtered)
	out.ContentType = "application/json"
	return nil
}

func validateURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, &toolboxerrors.ValidationError{Field: "url", Message: "url is required"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &toolboxerrors.ValidationError{Field: "url", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &toolboxerrors.ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
			Hint:    "only http and https URLs can be fetched",
		}
	}
	if u.Host == "" {
		return nil, &toolboxerrors.ValidationError{Field: "url", Message: "url has no host"}
	}
	return u, nil
}

func requestError(err error, elapsed time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &toolboxerrors.TimeoutError{Operation: "fetch", Duration: elapsed, Cause: err}
	}
	if errors.Is(err, httpclient.ErrBlockedAddress) {
		return &permissions.PermissionError{Type: "network.blocked", Message: err.Error()}
	}
	return &toolboxerrors.ToolError{
		Tool:      "fetch",
		Message:   "request failed",
		Hint:      "check that the URL is reachable from this machine",
		Retryable: true,
		Cause:     err,
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}
