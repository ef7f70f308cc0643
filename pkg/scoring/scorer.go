// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package scoring turns a comparison result plus an execution result
// into a weighted multi-dimensional score. Concrete scorers are keyed
// by preset name and differ in how they weigh the four primary
// dimensions (correctness, efficiency, safety, completeness).
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Scorer computes a weighted multi-dimensional score for one executed
// query. expected may be nil when the gold task carries no expected
// result set.
type Scorer interface {
	Score(cmp types.ComparisonResult, exec *types.ExecutionResult, sql, dialect string, expected []types.Row) types.MultiDimensionalScore
}

// Preset names accepted in assessment configs.
const (
	PresetDefault     = "default"
	PresetStrict      = "strict"
	PresetPerformance = "performance"
	PresetQuality     = "quality"
)

// Thresholds are the efficiency breakpoints in milliseconds.
type Thresholds struct {
	Excellent  float64
	Good       float64
	Acceptable float64
}

// DefaultThresholds returns the standard efficiency breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 10, Good: 100, Acceptable: 1000}
}

// presetScorer is the shared implementation; presets differ only in
// weights and thresholds.
type presetScorer struct {
	name       string
	weights    map[string]float64
	thresholds Thresholds
}

// New returns the scorer for a preset name.
func New(preset string) (Scorer, error) {
	weights, ok := presetWeights[preset]
	if !ok {
		return nil, fmt.Errorf("unknown scorer preset: %q", preset)
	}
	return &presetScorer{
		name:       preset,
		weights:    weights,
		thresholds: DefaultThresholds(),
	}, nil
}

var presetWeights = map[string]map[string]float64{
	PresetDefault: {
		"correctness":  0.40,
		"efficiency":   0.20,
		"safety":       0.25,
		"completeness": 0.15,
	},
	PresetStrict: {
		"correctness":  0.60,
		"safety":       0.25,
		"efficiency":   0.05,
		"completeness": 0.10,
	},
	PresetPerformance: {
		"efficiency":   0.45,
		"correctness":  0.30,
		"safety":       0.15,
		"completeness": 0.10,
	},
	PresetQuality: {
		"completeness": 0.35,
		"correctness":  0.30,
		"safety":       0.25,
		"efficiency":   0.10,
	},
}

// Presets lists the valid preset names.
func Presets() []string {
	return []string{PresetDefault, PresetStrict, PresetPerformance, PresetQuality}
}

// ValidPreset reports whether name is a known preset.
func ValidPreset(name string) bool {
	_, ok := presetWeights[name]
	return ok
}

// Score computes the weighted multi-dimensional score.
func (s *presetScorer) Score(cmp types.ComparisonResult, exec *types.ExecutionResult, sql, dialect string, expected []types.Row) types.MultiDimensionalScore {
	score := types.MultiDimensionalScore{Weights: s.weights}

	score.Correctness = correctness(cmp)
	score.Efficiency = s.efficiency(exec)
	score.PerformanceScore = score.Efficiency
	score.ValidationScore = validationScore(exec)
	score.HallucinationScore = hallucinationScore(exec)
	score.Safety = 0.4*score.ValidationScore + 0.6*score.HallucinationScore
	score.Completeness = completeness(exec)

	score.SemanticAccuracy = semanticAccuracy(cmp, exec)
	score.BestPractices = bestPractices(sql)
	score.PlanQuality = planQuality(score.Efficiency, exec)

	score.Overall = clamp01(
		s.weights["correctness"]*score.Correctness +
			s.weights["efficiency"]*score.Efficiency +
			s.weights["safety"]*score.Safety +
			s.weights["completeness"]*score.Completeness)

	return score
}

func correctness(cmp types.ComparisonResult) float64 {
	if cmp.IsMatch {
		return 1.0
	}
	return clamp01(cmp.MatchScore)
}

// efficiency maps execution time to [0, 1] with piecewise-linear decay
// across the threshold bands. Failed executions score 0.
func (s *presetScorer) efficiency(exec *types.ExecutionResult) float64 {
	if !exec.Success {
		return 0.0
	}
	t := exec.ExecutionTimeMs
	th := s.thresholds
	switch {
	case t <= th.Excellent:
		return 1.0
	case t <= th.Good:
		ratio := (t - th.Excellent) / (th.Good - th.Excellent)
		return 1.0 - 0.2*ratio
	case t <= th.Acceptable:
		ratio := (t - th.Good) / (th.Acceptable - th.Good)
		return 0.8 - 0.3*ratio
	default:
		return math.Max(0.0, 0.5-(t-th.Acceptable)/10000)
	}
}

func validationScore(exec *types.ExecutionResult) float64 {
	if exec.IsValid {
		return math.Max(0.0, 1.0-0.1*float64(len(exec.ValidationWarnings)))
	}
	switch len(exec.ValidationErrors) {
	case 0:
		return 0.5
	case 1:
		return 0.3
	default:
		return 0.1
	}
}

var hallucinationKeywords = []string{
	"does not exist",
	"unknown column",
	"unknown table",
	"invalid",
	"not found",
	"no such",
	"doesn't exist",
}

func hallucinationScore(exec *types.ExecutionResult) float64 {
	if exec.IsValid && len(exec.ValidationErrors) == 0 {
		return 1.0
	}
	hits := 0
	for _, e := range exec.ValidationErrors {
		lower := strings.ToLower(e)
		for _, kw := range hallucinationKeywords {
			if strings.Contains(lower, kw) {
				hits++
				break
			}
		}
	}
	switch {
	case hits == 0:
		return 1.0
	case hits == 1:
		return 0.4
	default:
		return 0.1
	}
}

// completeness starts at 1.0 and deducts for insights that flag empty,
// truncated, NULL-heavy, or slow results, with a small bonus for any
// rows at all.
func completeness(exec *types.ExecutionResult) float64 {
	if !exec.Success {
		return 0.0
	}
	score := 1.0
	for _, insight := range exec.Insights {
		lower := strings.ToLower(insight)
		switch {
		case strings.Contains(lower, "no results") || strings.Contains(lower, "empty"):
			score -= 0.2
		case strings.Contains(lower, "truncated"):
			score -= 0.1
		case strings.Contains(lower, "null"):
			score -= 0.05
		case strings.Contains(lower, "slow") || strings.Contains(lower, "long"):
			score -= 0.1
		}
	}
	if exec.RowsReturned > 0 {
		score = math.Min(1.0, score+0.1)
	}
	return clamp01(score)
}

// Advisory dimensions. These are reported for analysis but never enter
// the weighted overall score.

func semanticAccuracy(cmp types.ComparisonResult, exec *types.ExecutionResult) float64 {
	if !exec.Success {
		return 0.0
	}
	if cmp.IsMatch {
		return 1.0
	}
	return clamp01(0.9 * cmp.MatchScore)
}

func bestPractices(sql string) float64 {
	if sql == "" {
		return 0.0
	}
	lower := strings.ToLower(sql)
	score := 1.0
	if strings.Contains(lower, "select *") {
		score -= 0.2
	}
	if strings.Contains(lower, "join") && !strings.Contains(lower, "on") && !strings.Contains(lower, "using") {
		score -= 0.2
	}
	if strings.Contains(lower, ";") && strings.Count(lower, ";") > 1 {
		score -= 0.1
	}
	return clamp01(score)
}

func planQuality(efficiency float64, exec *types.ExecutionResult) float64 {
	if !exec.Success {
		return 0.0
	}
	// Tracks the efficiency band with a floor: a correct plan that is
	// merely slow should not bottom out.
	return clamp01(0.5 + 0.5*efficiency)
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}
