// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

func successfulExec(timeMs float64) *types.ExecutionResult {
	return &types.ExecutionResult{
		Success:         true,
		RowsReturned:    3,
		ExecutionTimeMs: timeMs,
		IsValid:         true,
	}
}

func matched() types.ComparisonResult {
	return types.ComparisonResult{
		IsMatch:          true,
		MatchScore:       1.0,
		RowCountMatch:    true,
		ColumnCountMatch: true,
	}
}

func TestNewRejectsUnknownPreset(t *testing.T) {
	_, err := New("lenient")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scorer preset")
}

func TestPresetWeightsSumToOne(t *testing.T) {
	for _, preset := range Presets() {
		t.Run(preset, func(t *testing.T) {
			weights := presetWeights[preset]
			require.Len(t, weights, 4)
			sum := 0.0
			for _, w := range weights {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestScorePerfectQuery(t *testing.T) {
	s, err := New(PresetDefault)
	require.NoError(t, err)

	score := s.Score(matched(), successfulExec(5), "SELECT name FROM customers", "sqlite", nil)

	assert.Equal(t, 1.0, score.Correctness)
	assert.Equal(t, 1.0, score.Efficiency)
	assert.Equal(t, 1.0, score.Safety)
	assert.Equal(t, 1.0, score.Completeness)
	assert.Equal(t, 1.0, score.Overall)
}

func TestScoreBoundsAllPresets(t *testing.T) {
	execs := []*types.ExecutionResult{
		successfulExec(5),
		successfulExec(5000),
		{Success: false, IsValid: false, ValidationErrors: []string{"no such table: x", "unknown column y"}},
		{Success: true, IsValid: true, Insights: []string{"Query returned no results (empty result set)", "Query was slow (2000ms)"}},
	}
	comparisons := []types.ComparisonResult{
		matched(),
		{MatchScore: 0.37},
		{},
	}

	for _, preset := range Presets() {
		s, err := New(preset)
		require.NoError(t, err)
		for _, exec := range execs {
			for _, cmp := range comparisons {
				score := s.Score(cmp, exec, "SELECT * FROM t", "sqlite", nil)
				for name, v := range map[string]float64{
					"correctness":   score.Correctness,
					"efficiency":    score.Efficiency,
					"safety":        score.Safety,
					"completeness":  score.Completeness,
					"semantic":      score.SemanticAccuracy,
					"practices":     score.BestPractices,
					"plan":          score.PlanQuality,
					"validation":    score.ValidationScore,
					"hallucination": score.HallucinationScore,
					"overall":       score.Overall,
				} {
					assert.GreaterOrEqual(t, v, 0.0, "%s/%s", preset, name)
					assert.LessOrEqual(t, v, 1.0, "%s/%s", preset, name)
				}
			}
		}
	}
}

func TestEfficiencyThresholds(t *testing.T) {
	s := &presetScorer{thresholds: DefaultThresholds()}

	tests := []struct {
		timeMs float64
		want   float64
	}{
		{1, 1.0},
		{10, 1.0},
		{55, 0.9},
		{100, 0.8},
		{550, 0.65},
		{1000, 0.5},
		{2000, 0.4},
		{6000, 0.0},
		{20000, 0.0},
	}
	for _, tt := range tests {
		got := s.efficiency(successfulExec(tt.timeMs))
		assert.InDelta(t, tt.want, got, 1e-9, "time=%v", tt.timeMs)
	}
}

func TestEfficiencyMonotonic(t *testing.T) {
	s := &presetScorer{thresholds: DefaultThresholds()}

	prev := 2.0
	for _, timeMs := range []float64{1, 10, 20, 100, 200, 1000, 3000, 10000} {
		got := s.efficiency(successfulExec(timeMs))
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
}

func TestEfficiencyZeroOnFailure(t *testing.T) {
	s := &presetScorer{thresholds: DefaultThresholds()}
	assert.Equal(t, 0.0, s.efficiency(&types.ExecutionResult{Success: false}))
}

func TestCorrectnessMonotonicInMatchScore(t *testing.T) {
	s, err := New(PresetDefault)
	require.NoError(t, err)

	prev := -1.0
	for _, ms := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		score := s.Score(types.ComparisonResult{MatchScore: ms}, successfulExec(5), "SELECT 1", "sqlite", nil)
		assert.GreaterOrEqual(t, score.Overall, prev)
		prev = score.Overall
	}
}

func TestValidationScore(t *testing.T) {
	assert.Equal(t, 1.0, validationScore(&types.ExecutionResult{IsValid: true}))
	assert.InDelta(t, 0.8, validationScore(&types.ExecutionResult{
		IsValid:            true,
		ValidationWarnings: []string{"w1", "w2"},
	}), 1e-9)
	assert.Equal(t, 0.5, validationScore(&types.ExecutionResult{IsValid: false}))
	assert.Equal(t, 0.3, validationScore(&types.ExecutionResult{
		IsValid:          false,
		ValidationErrors: []string{"e1"},
	}))
	assert.Equal(t, 0.1, validationScore(&types.ExecutionResult{
		IsValid:          false,
		ValidationErrors: []string{"e1", "e2"},
	}))
}

func TestHallucinationScore(t *testing.T) {
	assert.Equal(t, 1.0, hallucinationScore(&types.ExecutionResult{IsValid: true}))
	assert.Equal(t, 0.4, hallucinationScore(&types.ExecutionResult{
		IsValid:          false,
		ValidationErrors: []string{"Table 'x' does not exist"},
	}))
	assert.Equal(t, 0.1, hallucinationScore(&types.ExecutionResult{
		IsValid:          false,
		ValidationErrors: []string{"no such table: x", "unknown column y"},
	}))
	// Errors without hallucination keywords are not penalized here.
	assert.Equal(t, 1.0, hallucinationScore(&types.ExecutionResult{
		IsValid:          false,
		ValidationErrors: []string{"permission denied"},
	}))
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 0.0, completeness(&types.ExecutionResult{Success: false}))

	// Empty result deducts 0.2 and gets no row bonus.
	got := completeness(&types.ExecutionResult{
		Success:  true,
		Insights: []string{"Query returned no results (empty result set)"},
	})
	assert.InDelta(t, 0.8, got, 1e-9)

	// Rows present adds the bonus back up to the cap.
	got = completeness(&types.ExecutionResult{
		Success:      true,
		RowsReturned: 10,
		Insights:     []string{"Results truncated at 1000 rows"},
	})
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestStrictPresetWeighsCorrectnessHigher(t *testing.T) {
	def, err := New(PresetDefault)
	require.NoError(t, err)
	strict, err := New(PresetStrict)
	require.NoError(t, err)

	cmp := types.ComparisonResult{MatchScore: 0.0}
	exec := successfulExec(5)

	// With correctness at zero, strict should punish harder.
	d := def.Score(cmp, exec, "SELECT 1", "sqlite", nil)
	s := strict.Score(cmp, exec, "SELECT 1", "sqlite", nil)
	assert.Greater(t, d.Overall, s.Overall)
}

func TestBestPracticesLint(t *testing.T) {
	assert.Equal(t, 0.0, bestPractices(""))
	assert.Equal(t, 1.0, bestPractices("SELECT name FROM customers WHERE id = 1"))
	assert.InDelta(t, 0.8, bestPractices("SELECT * FROM customers"), 1e-9)
}

func TestOverallUsesPrimaryDimensionsOnly(t *testing.T) {
	s, err := New(PresetDefault)
	require.NoError(t, err)

	score := s.Score(matched(), successfulExec(5), "SELECT 1", "sqlite", nil)
	want := 0.40*score.Correctness + 0.20*score.Efficiency + 0.25*score.Safety + 0.15*score.Completeness
	assert.InDelta(t, want, score.Overall, 1e-9)
	assert.False(t, math.IsNaN(score.Overall))
}
