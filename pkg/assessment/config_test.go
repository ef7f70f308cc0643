// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"easy", "medium"}, cfg.Difficulty)
	assert.Equal(t, 10, cfg.TaskCount)
	assert.Equal(t, "basic", cfg.SchemaType)
	assert.Equal(t, "default", cfg.ScorerPreset)
	assert.Equal(t, types.DialectSQLite, cfg.Dialect)
	assert.Equal(t, 30.0, cfg.TimeoutSeconds)
	assert.True(t, cfg.SameTasks)
	assert.True(t, cfg.ParallelEvaluation)
}

func TestParseConfigOverrides(t *testing.T) {
	// Keys arrive as generic JSON types.
	cfg, err := ParseConfig(map[string]any{
		"difficulty":          []any{"hard"},
		"task_count":          float64(3),
		"tags":                []any{"join"},
		"schema":              "enterprise",
		"scorer_preset":       "strict",
		"dialect":             "postgresql",
		"timeout_seconds":     float64(45),
		"parallel_evaluation": false,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hard"}, cfg.Difficulty)
	assert.Equal(t, 3, cfg.TaskCount)
	assert.Equal(t, []string{"join"}, cfg.Tags)
	assert.Equal(t, "enterprise", cfg.SchemaType)
	assert.Equal(t, "strict", cfg.ScorerPreset)
	assert.Equal(t, types.DialectPostgreSQL, cfg.Dialect)
	assert.Equal(t, 45.0, cfg.TimeoutSeconds)
	assert.False(t, cfg.ParallelEvaluation)
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr string
	}{
		{"unknown preset", map[string]any{"scorer_preset": "lenient"}, "unknown scorer preset"},
		{"unknown dialect", map[string]any{"dialect": "oracle"}, "unknown dialect"},
		{"unknown difficulty", map[string]any{"difficulty": []any{"extreme"}}, "unknown difficulty"},
		{"negative task count", map[string]any{"task_count": float64(-1)}, "task_count"},
		{"same_tasks false", map[string]any{"same_tasks": false}, "same_tasks=false is not supported"},
		{"non-string tags", map[string]any{"tags": []any{1}}, "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
