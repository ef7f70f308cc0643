// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package classify maps SQL evaluation failures into a fixed
// (category, subcategory) taxonomy with confidence and evidence.
// Categories follow common research on SQL generation failure modes:
// schema errors, analysis errors, SQL errors, prompt errors, and
// knowledge errors.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Patterns are fixed and compiled once at package init.
var (
	wrongTablePatterns = compileAll(
		`table\s+['"]?(\w+)['"]?\s+does\s+not\s+exist`,
		`no\s+such\s+table:?\s*['"]?(\w+)['"]?`,
		`relation\s+['"]?(\w+)['"]?\s+does\s+not\s+exist`,
		`unknown\s+table\s+['"]?(\w+)['"]?`,
	)
	wrongColumnPatterns = compileAll(
		`column\s+['"]?(\w+)['"]?\s+does\s+not\s+exist`,
		`no\s+such\s+column:?\s*['"]?(\w+)['"]?`,
		`unknown\s+column\s+['"]?(\w+)['"]?`,
		`ambiguous\s+column\s+name:?\s*['"]?(\w+)['"]?`,
	)
	syntaxErrorPatterns = compileAll(
		`syntax\s+error`,
		`parse\s+error`,
		`unexpected\s+token`,
		`near\s+"(\w+)":\s+syntax\s+error`,
	)
	joinErrorPatterns = compileAll(
		`ambiguous\s+column`,
		`join\s+(condition|clause)\s+.*(missing|invalid)`,
		`cannot\s+resolve\s+.*\s+in\s+join`,
		`invalid\s+join\s+specification`,
	)
	conditionFilterPatterns = compileAll(
		`where\s+clause.*invalid`,
		`comparison\s+.*\s+incompatible`,
		`operator\s+does\s+not\s+exist`,
		`invalid\s+(comparison|operator)`,
	)
	dialectFunctionPatterns = compileAll(
		`function\s+'?(\w+)'?\s+does\s+not\s+exist`,
		`unknown\s+function`,
		`no\s+such\s+function`,
		`unsupported\s+function`,
	)
	planningPatterns = compileAll(
		`missing\s+group\s+by`,
		`aggregate.*without.*group`,
		`incorrect\s+aggregation`,
	)
	calculationPatterns = compileAll(
		`division\s+by\s+zero`,
		`numeric\s+overflow`,
		`invalid\s+arithmetic`,
	)

	tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+(\w+)`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// patternFamily pairs a compiled pattern set with the taxonomy entry
// it produces. Families are scanned in a fixed priority order.
type patternFamily struct {
	patterns    []*regexp.Regexp
	category    string
	subcategory string
	confidence  float64
	label       string
}

var families = []patternFamily{
	{wrongTablePatterns, types.CategorySchemaError, types.SubWrongTable, 0.9, "Table error detected"},
	{wrongColumnPatterns, types.CategorySchemaError, types.SubWrongColumn, 0.9, "Column error detected"},
	{syntaxErrorPatterns, types.CategorySQLError, types.SubSyntaxError, 0.9, "Syntax error detected"},
	{joinErrorPatterns, types.CategorySQLError, types.SubJoinError, 0.85, "Join error detected"},
	{conditionFilterPatterns, types.CategorySQLError, types.SubConditionFilterError, 0.85, "Condition filter error"},
	{dialectFunctionPatterns, types.CategorySQLError, types.SubDialectFunctionError, 0.85, "Function/dialect error"},
	{planningPatterns, types.CategoryAnalysisError, types.SubIncorrectPlanning, 0.8, "Planning error"},
	{calculationPatterns, types.CategoryAnalysisError, types.SubIncorrectDataCalculation, 0.8, "Calculation error"},
}

// Input carries the evidence for classifying one task result.
// MatchScore and CorrectnessScore are nil when no expected result set
// was available for comparison.
type Input struct {
	SQLSubmitted     string
	GoldSQL          string
	ExecutionSuccess bool
	ValidationErrors []string
	PhantomTables    []string
	PhantomColumns   []string
	ErrorMessage     string
	MatchScore       *float64
	CorrectnessScore *float64
}

// Classify applies the decision procedure in priority order and returns
// the first matching taxonomy entry. It always returns a
// classification; the last-resort default is no_error with confidence
// 0.5.
func Classify(in Input) types.ErrorClassification {
	if in.ExecutionSuccess && len(in.ValidationErrors) == 0 &&
		in.MatchScore != nil && *in.MatchScore >= 0.95 {
		return types.ErrorClassification{
			Category:    types.CategoryNoError,
			Subcategory: types.SubNoError,
			Confidence:  1.0,
			Details:     "Query executed successfully with correct results",
		}
	}

	if len(in.PhantomTables) > 0 {
		return types.ErrorClassification{
			Category:    types.CategorySchemaError,
			Subcategory: types.SubWrongTable,
			Confidence:  0.95,
			Details:     fmt.Sprintf("Referenced non-existent table(s): %s", strings.Join(in.PhantomTables, ", ")),
			Evidence:    in.PhantomTables,
		}
	}
	if len(in.PhantomColumns) > 0 {
		return types.ErrorClassification{
			Category:    types.CategorySchemaError,
			Subcategory: types.SubWrongColumn,
			Confidence:  0.95,
			Details:     fmt.Sprintf("Referenced non-existent column(s): %s", strings.Join(in.PhantomColumns, ", ")),
			Evidence:    in.PhantomColumns,
		}
	}

	allErrors := append([]string{}, in.ValidationErrors...)
	if in.ErrorMessage != "" {
		allErrors = append(allErrors, in.ErrorMessage)
	}
	errorText := strings.ToLower(strings.Join(allErrors, " "))

	for _, fam := range families {
		for _, p := range fam.patterns {
			if m := p.FindString(errorText); m != "" {
				return types.ErrorClassification{
					Category:    fam.category,
					Subcategory: fam.subcategory,
					Confidence:  fam.confidence,
					Details:     fmt.Sprintf("%s: %s", fam.label, m),
					Evidence:    []string{m},
				}
			}
		}
	}

	if in.GoldSQL != "" && in.SQLSubmitted != "" {
		if issues := schemaLinkingIssues(in.SQLSubmitted, in.GoldSQL); len(issues) > 0 {
			return types.ErrorClassification{
				Category:    types.CategorySchemaError,
				Subcategory: types.SubWrongSchemaLinking,
				Confidence:  0.7,
				Details:     "Incorrect schema linking detected",
				Evidence:    issues,
			}
		}
	}

	if in.MatchScore != nil && *in.MatchScore < 0.5 && in.ExecutionSuccess {
		return types.ErrorClassification{
			Category:    types.CategoryAnalysisError,
			Subcategory: types.SubErroneousDataAnalysis,
			Confidence:  0.7,
			Details:     fmt.Sprintf("Results do not match expected (score: %.2f)", *in.MatchScore),
			Evidence:    []string{fmt.Sprintf("match_score=%g", *in.MatchScore)},
		}
	}

	if !in.ExecutionSuccess && in.ErrorMessage != "" {
		return types.ErrorClassification{
			Category:    types.CategorySQLError,
			Subcategory: types.SubSyntaxError,
			Confidence:  0.5,
			Details:     "Execution failed: " + truncate(in.ErrorMessage, 200),
			Evidence:    []string{in.ErrorMessage},
		}
	}

	if in.MatchScore != nil && *in.MatchScore >= 0.5 && *in.MatchScore < 0.8 {
		return types.ErrorClassification{
			Category:    types.CategoryAnalysisError,
			Subcategory: types.SubIncorrectPlanning,
			Confidence:  0.6,
			Details:     "Query structure differs from expected",
			Evidence:    []string{fmt.Sprintf("match_score=%g", *in.MatchScore)},
		}
	}

	return types.ErrorClassification{
		Category:    types.CategoryNoError,
		Subcategory: types.SubNoError,
		Confidence:  0.5,
		Details:     "No clear error pattern detected",
	}
}

// schemaLinkingIssues compares the FROM/JOIN table sets of the
// submitted and gold SQL; any asymmetric difference is an issue.
func schemaLinkingIssues(submitted, gold string) []string {
	submittedTables := extractTables(submitted)
	goldTables := extractTables(gold)

	var missing, extra []string
	for t := range goldTables {
		if !submittedTables[t] {
			missing = append(missing, t)
		}
	}
	for t := range submittedTables {
		if !goldTables[t] {
			extra = append(extra, t)
		}
	}

	var issues []string
	if len(missing) > 0 {
		issues = append(issues, "Missing tables: "+strings.Join(sorted(missing), ", "))
	}
	if len(extra) > 0 {
		issues = append(issues, "Unexpected tables: "+strings.Join(sorted(extra), ", "))
	}
	return issues
}

func extractTables(sql string) map[string]bool {
	tables := map[string]bool{}
	for _, m := range tableRefPattern.FindAllStringSubmatch(sql, -1) {
		tables[strings.ToLower(m[1])] = true
	}
	return tables
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
