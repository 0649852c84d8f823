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

package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	rt := &retryTransport{baseBackoff: 100 * time.Millisecond, maxBackoff: 300 * time.Millisecond}

	d1 := rt.backoff(1)
	assert.GreaterOrEqual(t, d1, 100*time.Millisecond)
	assert.LessOrEqual(t, d1, 120*time.Millisecond)

	d2 := rt.backoff(2)
	assert.GreaterOrEqual(t, d2, 200*time.Millisecond)
	assert.LessOrEqual(t, d2, 240*time.Millisecond)

	d5 := rt.backoff(5)
	assert.LessOrEqual(t, d5, 360*time.Millisecond)
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Zero(t, parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, parseRetryAfter(resp))

	resp.Header.Set("Retry-After", time.Now().Add(10*time.Second).UTC().Format(http.TimeFormat))
	d := parseRetryAfter(resp)
	assert.Greater(t, d, 5*time.Second)

	resp.Header.Set("Retry-After", "soon")
	assert.Zero(t, parseRetryAfter(resp))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(ErrBlockedAddress))
	assert.True(t, isRetryableError(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	assert.False(t, isRetryableError(errors.New("boom")))
}

func TestIsRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{200: false, 404: false, 408: true, 429: true, 500: true, 503: true} {
		assert.Equal(t, want, isRetryableStatus(code), "status %d", code)
	}
}
