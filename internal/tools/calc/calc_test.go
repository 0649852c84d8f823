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

package calc

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		a, b float64
		want string
	}{
		{2, 3, "5"},
		{-1, 1, "0"},
		{0.1, 0.2, "0.30000000000000004"},
		{1.5, 1, "2.5"},
		{1e20, 1, "100000000000000000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(Add(tt.a, tt.b)))
	}
}

func TestEvaluate(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"(2 + 3) * 4", 20},
		{"7 / 2", 3.5},
		{"10 % 3", 1},
		{"2 ** 10", 1024},
		{"sqrt(16) + abs(-2)", 6},
		{"max(3, 9) - min(3, 9)", 6},
		{"round(pi * 100) / 100", 3.14},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	e := NewEvaluator()

	for _, expression := range []string{
		"",
		"1 +",
		"1 / 0",
		"sqrt(-1)",
		`"hello"`,
		"1 < 2",
		"undefinedVar + 1",
	} {
		t.Run(expression, func(t *testing.T) {
			_, err := e.Evaluate(expression)
			require.Error(t, err)
			assert.True(t, toolboxerrors.IsValidation(err))
		})
	}
}

func TestEvaluatorCache(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Evaluate("1 + 1")
	require.NoError(t, err)
	_, err = e.Evaluate("1 + 1")
	require.NoError(t, err)
	_, err = e.Evaluate("2 + 2")
	require.NoError(t, err)
	assert.Equal(t, 2, e.CacheSize())
}

func TestEvaluatorCacheBounded(t *testing.T) {
	e := NewEvaluator()
	for i := 0; i < maxCachedPrograms*2+10; i++ {
		v, err := e.Evaluate(strconv.Itoa(i) + " + 1")
		require.NoError(t, err)
		assert.Equal(t, float64(i+1), v)
		assert.LessOrEqual(t, e.CacheSize(), maxCachedPrograms)
	}
	assert.Positive(t, e.CacheSize())
}

func TestFormatLarge(t *testing.T) {
	assert.Equal(t, "-0.5", Format(-0.5))
	assert.NotContains(t, Format(math.MaxInt32), "e")
}
