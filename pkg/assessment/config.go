// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package assessment drives one end-to-end assessment: it filters the
// gold-task catalog, fans each task out to every participant, scores
// and classifies the returned SQL, streams progress updates, and rolls
// the results into a ranked artifact.
package assessment

import (
	"fmt"

	"github.com/teradata-labs/sqlbench/pkg/scoring"
	"github.com/teradata-labs/sqlbench/pkg/types"
)

// ParseConfig builds an AssessmentConfig from the raw request config
// mapping, applying defaults for missing keys and validating the
// closed string sets.
func ParseConfig(raw map[string]any) (types.AssessmentConfig, error) {
	cfg := types.AssessmentConfig{
		Difficulty:         []string{types.DifficultyEasy, types.DifficultyMedium},
		TaskCount:          10,
		SchemaType:         "basic",
		ScorerPreset:       scoring.PresetDefault,
		Dialect:            types.DialectSQLite,
		TimeoutSeconds:     30.0,
		SameTasks:          true,
		ParallelEvaluation: true,
	}
	if raw == nil {
		return cfg, nil
	}

	if v, ok := raw["difficulty"]; ok {
		list, err := stringList(v)
		if err != nil {
			return cfg, fmt.Errorf("difficulty: %w", err)
		}
		cfg.Difficulty = list
	}
	if v, ok := raw["task_count"]; ok {
		n, err := asInt(v)
		if err != nil {
			return cfg, fmt.Errorf("task_count: %w", err)
		}
		cfg.TaskCount = n
	}
	if v, ok := raw["tags"]; ok && v != nil {
		list, err := stringList(v)
		if err != nil {
			return cfg, fmt.Errorf("tags: %w", err)
		}
		cfg.Tags = list
	}
	if v, ok := raw["schema"].(string); ok {
		cfg.SchemaType = v
	}
	if v, ok := raw["scorer_preset"].(string); ok {
		cfg.ScorerPreset = v
	}
	if v, ok := raw["dialect"].(string); ok {
		cfg.Dialect = v
	}
	if v, ok := raw["timeout_seconds"]; ok {
		f, err := asFloat(v)
		if err != nil {
			return cfg, fmt.Errorf("timeout_seconds: %w", err)
		}
		cfg.TimeoutSeconds = f
	}
	if v, ok := raw["same_tasks"].(bool); ok {
		cfg.SameTasks = v
	}
	if v, ok := raw["parallel_evaluation"].(bool); ok {
		cfg.ParallelEvaluation = v
	}

	return cfg, validateConfig(cfg)
}

func validateConfig(cfg types.AssessmentConfig) error {
	if !scoring.ValidPreset(cfg.ScorerPreset) {
		return fmt.Errorf("unknown scorer preset: %q", cfg.ScorerPreset)
	}
	switch cfg.Dialect {
	case types.DialectSQLite, types.DialectDuckDB, types.DialectPostgreSQL:
	default:
		return fmt.Errorf("unknown dialect: %q", cfg.Dialect)
	}
	for _, d := range cfg.Difficulty {
		switch d {
		case types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
		default:
			return fmt.Errorf("unknown difficulty: %q", d)
		}
	}
	if cfg.TaskCount < 0 {
		return fmt.Errorf("task_count must be >= 0, got %d", cfg.TaskCount)
	}
	if !cfg.SameTasks {
		// Per-candidate task sampling has no defined policy yet.
		return fmt.Errorf("same_tasks=false is not supported")
	}
	return nil
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
