// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

func f(v float64) *float64 { return &v }

func TestClassifySuccessfulQuery(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT name FROM customers",
		ExecutionSuccess: true,
		MatchScore:       f(1.0),
	})

	assert.Equal(t, types.CategoryNoError, cls.Category)
	assert.Equal(t, types.SubNoError, cls.Subcategory)
	assert.Equal(t, 1.0, cls.Confidence)
}

func TestClassifyPhantomTableWinsOverErrorText(t *testing.T) {
	// Phantom identifiers outrank pattern matching even when the
	// error text would also match a family.
	cls := Classify(Input{
		SQLSubmitted:     "SELECT * FROM custmers",
		ExecutionSuccess: false,
		PhantomTables:    []string{"custmers"},
		ErrorMessage:     "no such table: custmers",
	})

	assert.Equal(t, types.CategorySchemaError, cls.Category)
	assert.Equal(t, types.SubWrongTable, cls.Subcategory)
	assert.Equal(t, 0.95, cls.Confidence)
	assert.Contains(t, cls.Details, "custmers")
}

func TestClassifyPhantomColumn(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT namee FROM customers",
		ExecutionSuccess: false,
		PhantomColumns:   []string{"namee"},
	})

	assert.Equal(t, types.CategorySchemaError, cls.Category)
	assert.Equal(t, types.SubWrongColumn, cls.Subcategory)
	assert.Equal(t, 0.95, cls.Confidence)
}

func TestClassifyPatternFamilies(t *testing.T) {
	tests := []struct {
		name        string
		errorText   string
		category    string
		subcategory string
	}{
		{"missing table", "Table 'orders2' does not exist", types.CategorySchemaError, types.SubWrongTable},
		{"sqlite missing table", "no such table: order_items", types.CategorySchemaError, types.SubWrongTable},
		{"pg missing relation", "relation \"invoices\" does not exist", types.CategorySchemaError, types.SubWrongTable},
		{"missing column", "no such column: total_amnt", types.CategorySchemaError, types.SubWrongColumn},
		{"ambiguous column", "ambiguous column name: id", types.CategorySchemaError, types.SubWrongColumn},
		{"syntax", "near \"SELEC\": syntax error", types.CategorySQLError, types.SubSyntaxError},
		{"parse", "parse error at line 1", types.CategorySQLError, types.SubSyntaxError},
		{"bad operator", "operator does not exist: text = integer", types.CategorySQLError, types.SubConditionFilterError},
		{"unknown function", "no such function: DATEDIFF", types.CategorySQLError, types.SubDialectFunctionError},
		{"missing group by", "missing GROUP BY clause", types.CategoryAnalysisError, types.SubIncorrectPlanning},
		{"division by zero", "division by zero", types.CategoryAnalysisError, types.SubIncorrectDataCalculation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := Classify(Input{
				SQLSubmitted:     "SELECT 1",
				ExecutionSuccess: false,
				ErrorMessage:     tt.errorText,
			})
			assert.Equal(t, tt.category, cls.Category)
			assert.Equal(t, tt.subcategory, cls.Subcategory)
			assert.NotEmpty(t, cls.Details)
		})
	}
}

func TestClassifyValidationErrorsFeedPatterns(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT x FROM t",
		ExecutionSuccess: true,
		ValidationErrors: []string{"unknown column 'x' in field list"},
		MatchScore:       f(0.0),
	})

	assert.Equal(t, types.CategorySchemaError, cls.Category)
	assert.Equal(t, types.SubWrongColumn, cls.Subcategory)
}

func TestClassifySchemaLinking(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT COUNT(*) FROM orders",
		GoldSQL:          "SELECT COUNT(*) FROM customers JOIN orders ON orders.customer_id = customers.id",
		ExecutionSuccess: true,
		MatchScore:       f(0.85),
	})

	require.Equal(t, types.CategorySchemaError, cls.Category)
	assert.Equal(t, types.SubWrongSchemaLinking, cls.Subcategory)
	assert.Equal(t, 0.7, cls.Confidence)
	assert.Contains(t, cls.Evidence[0], "customers")
}

func TestClassifyLowMatchScore(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT name FROM customers",
		GoldSQL:          "SELECT name FROM customers",
		ExecutionSuccess: true,
		MatchScore:       f(0.2),
	})

	assert.Equal(t, types.CategoryAnalysisError, cls.Category)
	assert.Equal(t, types.SubErroneousDataAnalysis, cls.Subcategory)
	assert.Equal(t, 0.7, cls.Confidence)
}

func TestClassifyUnrecognizedFailure(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT 1",
		ExecutionSuccess: false,
		ErrorMessage:     "connection reset by peer",
	})

	assert.Equal(t, types.CategorySQLError, cls.Category)
	assert.Equal(t, types.SubSyntaxError, cls.Subcategory)
	assert.Equal(t, 0.5, cls.Confidence)
}

func TestClassifyMidBandScore(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT name FROM customers",
		GoldSQL:          "SELECT name FROM customers",
		ExecutionSuccess: true,
		MatchScore:       f(0.65),
	})

	assert.Equal(t, types.CategoryAnalysisError, cls.Category)
	assert.Equal(t, types.SubIncorrectPlanning, cls.Subcategory)
	assert.Equal(t, 0.6, cls.Confidence)
}

func TestClassifyDefaultNoError(t *testing.T) {
	cls := Classify(Input{
		SQLSubmitted:     "SELECT 1",
		ExecutionSuccess: true,
	})

	assert.Equal(t, types.CategoryNoError, cls.Category)
	assert.Equal(t, 0.5, cls.Confidence)
}

func TestExtractTables(t *testing.T) {
	tables := extractTables("SELECT * FROM Customers c JOIN orders o ON c.id = o.customer_id")

	assert.True(t, tables["customers"])
	assert.True(t, tables["orders"])
	assert.Len(t, tables, 2)
}

func TestMetricsSummary(t *testing.T) {
	m := NewMetricsSummary()

	m.Add(types.ErrorClassification{
		Category:    types.CategoryNoError,
		Subcategory: types.SubNoError,
		Confidence:  1.0,
	}, "task_001", "SELECT 1")
	m.Add(types.ErrorClassification{
		Category:    types.CategorySchemaError,
		Subcategory: types.SubWrongTable,
		Confidence:  0.95,
		Details:     "Referenced non-existent table(s): custmers",
	}, "task_002", "SELECT * FROM custmers")
	m.Add(types.ErrorClassification{
		Category:    types.CategorySchemaError,
		Subcategory: types.SubWrongTable,
		Confidence:  0.95,
	}, "task_003", "SELECT * FROM ordrs")
	m.Add(types.ErrorClassification{
		Category:    types.CategoryAnalysisError,
		Subcategory: types.SubErroneousDataAnalysis,
		Confidence:  0.7,
	}, "task_004", "SELECT SUM(total) FROM orders")

	assert.Equal(t, 4, m.TotalTasks)
	assert.Equal(t, 1, m.SuccessfulTasks)
	assert.Equal(t, 3, m.FailedTasks)

	pct := m.SubcategoryPercentages()
	assert.Equal(t, 66.7, pct[types.SubWrongTable])
	assert.Equal(t, 33.3, pct[types.SubErroneousDataAnalysis])
	assert.NotContains(t, pct, types.SubNoError)

	catPct := m.CategoryPercentages()
	assert.Equal(t, 66.7, catPct[types.CategorySchemaError])

	out := m.ToMap()
	assert.Equal(t, 25.0, out["success_rate"])
	breakdown := out["detailed_breakdown"].(map[string]any)
	assert.NotContains(t, breakdown, types.SubNoError)
	wrongTable := breakdown[types.SubWrongTable].(map[string]any)
	assert.Equal(t, 2, wrongTable["count"])
}

func TestMetricsSummaryEmptyHasNoPercentages(t *testing.T) {
	m := NewMetricsSummary()
	m.Add(types.ErrorClassification{
		Category:    types.CategoryNoError,
		Subcategory: types.SubNoError,
	}, "task_001", "SELECT 1")

	assert.Empty(t, m.SubcategoryPercentages())
	assert.Empty(t, m.CategoryPercentages())
}

func TestMetricsSummaryTruncatesSQL(t *testing.T) {
	longSQL := "SELECT " + string(make([]byte, 300))
	m := NewMetricsSummary()
	m.Add(types.ErrorClassification{
		Category:    types.CategorySQLError,
		Subcategory: types.SubSyntaxError,
	}, "task_001", longSQL)

	out := m.ToMap()
	breakdown := out["detailed_breakdown"].(map[string]any)
	entry := breakdown[types.SubSyntaxError].(map[string]any)
	examples := entry["examples"].([]Example)
	assert.Len(t, examples[0].SQLSnippet, 200)
}
