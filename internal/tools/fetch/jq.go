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

package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// DefaultJQTimeout bounds a single jq evaluation.
const DefaultJQTimeout = time.Second

// JQ runs jq filters over decoded JSON with a timeout.
type JQ struct {
	timeout time.Duration
}

// NewJQ creates a jq runner. A zero timeout uses DefaultJQTimeout.
func NewJQ(timeout time.Duration) *JQ {
	if timeout <= 0 {
		timeout = DefaultJQTimeout
	}
	return &JQ{timeout: timeout}
}

// Run applies expression to data. A single output is returned as-is,
// several outputs as a slice, none as nil.
func (j *JQ) Run(ctx context.Context, expression string, data any) (any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, &toolboxerrors.ValidationError{Field: "jq", Message: fmt.Sprintf("parse error: %s", err)}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &toolboxerrors.ValidationError{Field: "jq", Message: fmt.Sprintf("compile error: %s", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var results []any
	iter := code.RunWithContext(ctx, data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &toolboxerrors.TimeoutError{Operation: "jq", Duration: j.timeout, Cause: err}
			}
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return nil, &toolboxerrors.ValidationError{Field: "jq", Message: err.Error()}
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}
