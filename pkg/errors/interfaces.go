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

package errors

// UserVisibleError is implemented by errors whose message can be shown to an
// MCP client or CLI user as is. Tool handlers turn these into tool error
// results; the CLI prints them with their suggestion.
type UserVisibleError interface {
	error

	// IsUserVisible reports whether UserMessage is safe to show.
	IsUserVisible() bool

	// UserMessage is the text shown in place of Error().
	UserMessage() string

	// Suggestion is a next step for the caller, or "".
	Suggestion() string
}

// RetryableError is implemented by errors that may succeed on a later
// attempt, such as upstream 5xx responses and timeouts.
type RetryableError interface {
	error

	// IsRetryable reports whether repeating the same call may succeed.
	IsRetryable() bool
}
