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
	"golang.org/x/time/rate"
)

// RateLimiter applies per-process token buckets to tool calls. fetch calls
// draw from both buckets.
type RateLimiter struct {
	calls   *rate.Limiter
	fetches *rate.Limiter
}

// NewRateLimiter creates a limiter. A non-positive rate disables that
// bucket. Burst equals the per-minute rate so an idle client can use a
// full minute's allowance at once.
func NewRateLimiter(callsPerMinute, fetchesPerMinute int) *RateLimiter {
	return &RateLimiter{
		calls:   perMinute(callsPerMinute),
		fetches: perMinute(fetchesPerMinute),
	}
}

func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60.0), n)
}

// AllowCall checks if any call is allowed.
func (rl *RateLimiter) AllowCall() bool {
	return rl.calls.Allow()
}

// AllowFetch checks if a fetch call is allowed.
func (rl *RateLimiter) AllowFetch() bool {
	return rl.fetches.Allow()
}
