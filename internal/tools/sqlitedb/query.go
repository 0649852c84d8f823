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

package sqlitedb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// QueryResult holds the rows of a read-only query.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`
}

var readOnlyKeywords = []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES"}

// Query runs one read-only statement and returns at most limit rows. A
// zero limit means DefaultLimit.
func (d *DB) Query(ctx context.Context, query string, limit int) (*QueryResult, error) {
	stmt, err := checkStatement(query)
	if err != nil {
		return nil, err
	}

	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0 || limit > MaxLimit:
		return nil, &toolboxerrors.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxLimit, limit),
		}
	}

	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &toolboxerrors.TimeoutError{Operation: "query", Cause: err}
		}
		return nil, &toolboxerrors.ValidationError{Field: "sql", Message: err.Error()}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		if len(result.Rows) == limit {
			result.Truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &toolboxerrors.TimeoutError{Operation: "query", Cause: err}
		}
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return result, nil
}

// checkStatement returns the statement without a trailing semicolon after
// verifying it is a single read-only statement.
func checkStatement(query string) (string, error) {
	stmt := strings.TrimSpace(query)
	stmt = strings.TrimSpace(strings.TrimRight(stmt, "; \t\n"))
	if stmt == "" {
		return "", &toolboxerrors.ValidationError{Field: "sql", Message: "query is empty"}
	}

	if hasStatementSeparator(stmt) {
		return "", &toolboxerrors.ValidationError{
			Field:   "sql",
			Message: "only a single statement is allowed",
		}
	}

	words := strings.FieldsFunc(stmt, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	if len(words) == 0 {
		return "", &toolboxerrors.ValidationError{Field: "sql", Message: "query has no statement"}
	}
	first := strings.ToUpper(words[0])
	for _, kw := range readOnlyKeywords {
		if first == kw {
			return stmt, nil
		}
	}
	return "", &toolboxerrors.ValidationError{
		Field:   "sql",
		Message: fmt.Sprintf("%s statements are not allowed", first),
		Hint:    "the database is read-only; use SELECT, WITH, PRAGMA or EXPLAIN",
	}
}

// hasStatementSeparator reports a ';' outside quotes and comments.
func hasStatementSeparator(s string) bool {
	var quote rune
	for i := 0; i < len(s); i++ {
		c := rune(s[i])
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		case c == ';':
			return true
		}
	}
	return false
}
