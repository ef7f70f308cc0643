// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package classify

import (
	"math"
	"sort"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Example is one concrete occurrence of a subcategory, kept for the
// detailed breakdown in artifacts.
type Example struct {
	TaskID     string   `json:"task_id"`
	SQLSnippet string   `json:"sql_snippet"`
	Details    string   `json:"details"`
	Evidence   []string `json:"evidence,omitempty"`
}

// MetricsSummary accumulates classification outcomes across a
// participant's task results. Percentages are computed over failed
// tasks only; no_error never appears in the breakdowns.
type MetricsSummary struct {
	TotalTasks      int
	SuccessfulTasks int
	FailedTasks     int

	categoryCounts    map[string]int
	subcategoryCounts map[string]int
	subcategoryDetail map[string][]Example
}

// NewMetricsSummary returns an empty accumulator.
func NewMetricsSummary() *MetricsSummary {
	return &MetricsSummary{
		categoryCounts:    map[string]int{},
		subcategoryCounts: map[string]int{},
		subcategoryDetail: map[string][]Example{},
	}
}

// Add records one classification. SQL snippets are truncated to 200
// characters for the artifact.
func (m *MetricsSummary) Add(cls types.ErrorClassification, taskID, sqlSubmitted string) {
	m.TotalTasks++
	if cls.Subcategory == types.SubNoError {
		m.SuccessfulTasks++
	} else {
		m.FailedTasks++
	}

	m.categoryCounts[cls.Category]++
	m.subcategoryCounts[cls.Subcategory]++
	m.subcategoryDetail[cls.Subcategory] = append(m.subcategoryDetail[cls.Subcategory], Example{
		TaskID:     taskID,
		SQLSnippet: truncate(sqlSubmitted, 200),
		Details:    cls.Details,
		Evidence:   cls.Evidence,
	})
}

// SubcategoryPercentages returns each error subcategory's share of the
// failed tasks, rounded to one decimal.
func (m *MetricsSummary) SubcategoryPercentages() map[string]float64 {
	return percentages(m.subcategoryCounts, types.SubNoError, m.FailedTasks)
}

// CategoryPercentages returns each error category's share of the failed
// tasks, rounded to one decimal.
func (m *MetricsSummary) CategoryPercentages() map[string]float64 {
	return percentages(m.categoryCounts, types.CategoryNoError, m.FailedTasks)
}

func percentages(counts map[string]int, skip string, failed int) map[string]float64 {
	out := map[string]float64{}
	if failed == 0 {
		return out
	}
	for key, count := range counts {
		if key == skip {
			continue
		}
		out[key] = round1(float64(count) / float64(failed) * 100)
	}
	return out
}

// ToMap serializes the summary for inclusion in the artifact.
func (m *MetricsSummary) ToMap() map[string]any {
	successRate := 0.0
	if m.TotalTasks > 0 {
		successRate = round1(float64(m.SuccessfulTasks) / float64(m.TotalTasks) * 100)
	}

	breakdown := map[string]any{}
	for subcat, examples := range m.subcategoryDetail {
		if subcat == types.SubNoError {
			continue
		}
		pct := 0.0
		if m.FailedTasks > 0 {
			pct = round1(float64(len(examples)) / float64(m.FailedTasks) * 100)
		}
		shown := examples
		if len(shown) > 5 {
			shown = shown[:5]
		}
		breakdown[subcat] = map[string]any{
			"count":      len(examples),
			"percentage": pct,
			"examples":   shown,
		}
	}

	return map[string]any{
		"total_tasks":             m.TotalTasks,
		"successful_tasks":        m.SuccessfulTasks,
		"failed_tasks":            m.FailedTasks,
		"success_rate":            successRate,
		"category_counts":         m.categoryCounts,
		"subcategory_counts":      m.subcategoryCounts,
		"category_percentages":    m.CategoryPercentages(),
		"subcategory_percentages": m.SubcategoryPercentages(),
		"detailed_breakdown":      breakdown,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sorted(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
