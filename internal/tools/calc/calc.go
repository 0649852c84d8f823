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

// Package calc implements the arithmetic tools.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// Add returns a + b.
func Add(a, b float64) float64 {
	return a + b
}

// Format renders v without a trailing ".0" or exponent, so 5 prints as "5"
// and 2.5 as "2.5".
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// env adds to expr's builtins (abs, min, max, floor, ceil, round).
var env = map[string]any{
	"sqrt": math.Sqrt,
	"pow":  math.Pow,
	"pi":   math.Pi,
	"e":    math.E,
}

// maxCachedPrograms bounds the compiled program cache. The cache is cleared
// when it fills.
const maxCachedPrograms = 256

// Evaluator evaluates arithmetic expressions. Compiled programs are cached
// and the evaluator is safe for concurrent use.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewEvaluator creates an empty evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Evaluate computes a numeric expression such as "(2 + 3) * sqrt(16)".
func (e *Evaluator) Evaluate(expression string) (float64, error) {
	if expression == "" {
		return 0, &toolboxerrors.ValidationError{
			Field:   "expression",
			Message: "expression is empty",
			Hint:    "pass an arithmetic expression such as (2 + 3) * 4",
		}
	}

	program, err := e.compile(expression)
	if err != nil {
		return 0, &toolboxerrors.ValidationError{
			Field:   "expression",
			Message: fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Hint:    "use numbers, + - * / % ^ and abs, sqrt, min, max, floor, ceil, round, pow",
		}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return 0, &toolboxerrors.ValidationError{
			Field:   "expression",
			Message: fmt.Sprintf("evaluation failed: %s", err.Error()),
		}
	}

	v, ok := toFloat(out)
	if !ok {
		return 0, &toolboxerrors.ValidationError{
			Field:   "expression",
			Message: fmt.Sprintf("expression must produce a number, got %T", out),
		}
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &toolboxerrors.ValidationError{
			Field:   "expression",
			Message: "result is not a finite number (division by zero?)",
		}
	}
	return v, nil
}

// compile compiles an expression and caches the result.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.cache) >= maxCachedPrograms {
		clear(e.cache)
	}
	e.cache[expression] = prog
	e.mu.Unlock()
	return prog, nil
}

// CacheSize returns the number of cached programs.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
