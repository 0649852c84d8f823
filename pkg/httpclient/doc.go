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

// Package httpclient builds the outbound HTTP client used by the fetch tool.
//
// Requests pass through three layers: a retry transport (exponential backoff
// with jitter, honouring Retry-After, idempotent methods only), a logging
// transport (User-Agent, correlation ID, client span, sanitized URL logs)
// and a pooled base transport with TLS 1.2+. When BlockPrivate is set the
// dialer refuses loopback, private and link-local addresses after DNS
// resolution, so redirects and rebinding cannot reach internal hosts.
//
//	cfg := httpclient.DefaultConfig()
//	cfg.UserAgent = "mcp-toolbox/1.0"
//	client, err := httpclient.New(cfg)
package httpclient
