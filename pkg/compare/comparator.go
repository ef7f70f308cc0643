// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package compare implements row-set comparison between actual query
// output and the expected result set of a gold task.
package compare

import (
	"math"
	"reflect"
	"strings"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Comparator compares actual query results against expected results.
type Comparator interface {
	Compare(actual, expected []types.Row) types.ComparisonResult
}

// Options configures a DefaultComparator.
type Options struct {
	// NumericTolerance is the absolute tolerance for numeric equality.
	NumericTolerance float64
	// IgnoreRowOrder allows rows to match in any order via greedy
	// one-to-one assignment.
	IgnoreRowOrder bool
	// CaseSensitive controls string comparison.
	CaseSensitive bool
}

// DefaultOptions mirrors the comparator settings used for assessments.
func DefaultOptions() Options {
	return Options{
		NumericTolerance: 1e-6,
		IgnoreRowOrder:   true,
		CaseSensitive:    false,
	}
}

// DefaultComparator is the standard Comparator implementation with
// numeric tolerance, optional row-order insensitivity, and partial
// match scoring.
type DefaultComparator struct {
	opts Options
}

// New creates a comparator with the given options.
func New(opts Options) *DefaultComparator {
	if opts.NumericTolerance == 0 {
		opts.NumericTolerance = 1e-6
	}
	return &DefaultComparator{opts: opts}
}

// Compare compares actual rows against expected rows.
//
// The match score weighs row match ratio at 50%, column match ratio at
// 30%, and row/column count agreement at 10% each, rounded to four
// decimals. IsMatch additionally requires count agreement and no
// missing or extra columns.
func (c *DefaultComparator) Compare(actual, expected []types.Row) types.ComparisonResult {
	if len(actual) == 0 && len(expected) == 0 {
		return types.ComparisonResult{
			IsMatch:          true,
			MatchScore:       1.0,
			RowCountMatch:    true,
			ColumnCountMatch: true,
			Details:          map[string]any{"message": "Both results are empty"},
		}
	}
	if len(actual) == 0 {
		return types.ComparisonResult{
			Details: map[string]any{"message": "Actual result is empty", "expected_rows": len(expected)},
		}
	}
	if len(expected) == 0 {
		return types.ComparisonResult{
			Details: map[string]any{"message": "Expected result is empty", "actual_rows": len(actual)},
		}
	}

	actualCols := keySet(actual[0])
	expectedCols := keySet(expected[0])

	columnCountMatch := len(actualCols) == len(expectedCols)
	missing := diff(expectedCols, actualCols)
	extra := diff(actualCols, expectedCols)
	common := intersect(actualCols, expectedCols)

	rowCountMatch := len(actual) == len(expected)

	var columnMatchRatio float64
	switch {
	case len(expectedCols) > 0:
		columnMatchRatio = float64(len(common)) / float64(len(expectedCols))
	case len(actualCols) == 0:
		columnMatchRatio = 1.0
	}

	matched, unmatched, rowMatchRatio := c.compareRows(actual, expected, common)

	score := 0.50*rowMatchRatio + 0.30*columnMatchRatio
	if rowCountMatch {
		score += 0.10
	}
	if columnCountMatch {
		score += 0.10
	}
	score = types.Round4(score)

	isMatch := score >= 0.99 && rowCountMatch && columnCountMatch &&
		len(missing) == 0 && len(extra) == 0

	return types.ComparisonResult{
		IsMatch:          isMatch,
		MatchScore:       score,
		RowCountMatch:    rowCountMatch,
		ColumnCountMatch: columnCountMatch,
		Details: map[string]any{
			"actual_row_count":   len(actual),
			"expected_row_count": len(expected),
			"missing_columns":    missing,
			"extra_columns":      extra,
			"common_columns":     common,
			"column_match_ratio": columnMatchRatio,
			"row_match_ratio":    rowMatchRatio,
			"matched_rows":       matched,
			"unmatched_rows":     unmatched,
		},
	}
}

func (c *DefaultComparator) compareRows(actual, expected []types.Row, columns []string) (matched, unmatched int, ratio float64) {
	if len(columns) == 0 {
		return 0, len(expected), 0.0
	}
	if c.opts.IgnoreRowOrder {
		taken := make([]bool, len(expected))
		for _, a := range actual {
			for i, e := range expected {
				if taken[i] {
					continue
				}
				if c.rowsMatch(a, e, columns) {
					matched++
					taken[i] = true
					break
				}
			}
		}
	} else {
		n := min(len(actual), len(expected))
		for i := 0; i < n; i++ {
			if c.rowsMatch(actual[i], expected[i], columns) {
				matched++
			}
		}
	}
	unmatched = len(expected) - matched
	if len(expected) > 0 {
		ratio = float64(matched) / float64(len(expected))
	} else {
		ratio = 1.0
	}
	return matched, unmatched, ratio
}

func (c *DefaultComparator) rowsMatch(a, e types.Row, columns []string) bool {
	for _, col := range columns {
		if !c.valuesMatch(a[col], e[col]) {
			return false
		}
	}
	return true
}

// valuesMatch applies NULL, numeric-tolerance, and string rules before
// falling back to structural equality.
func (c *DefaultComparator) valuesMatch(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	af, aNum := asFloat(actual)
	ef, eNum := asFloat(expected)
	if aNum && eNum {
		if math.IsNaN(af) && math.IsNaN(ef) {
			return true
		}
		return math.Abs(af-ef) <= c.opts.NumericTolerance
	}

	as, aStr := actual.(string)
	es, eStr := expected.(string)
	if aStr && eStr {
		if c.opts.CaseSensitive {
			return as == es
		}
		return strings.EqualFold(as, es)
	}

	return reflect.DeepEqual(actual, expected)
}

// asFloat widens any numeric value to float64. Database drivers and
// JSON decoding produce a mix of int64, float64, and the smaller Go
// numeric kinds.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func keySet(row types.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	return keys
}

func diff(a, b []string) []string {
	out := []string{}
	for _, x := range a {
		if !containsStr(b, x) {
			out = append(out, x)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	out := []string{}
	for _, x := range a {
		if containsStr(b, x) {
			out = append(out, x)
		}
	}
	return out
}

func containsStr(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
