// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "t1", "question": "How many rows?", "difficulty": "easy", "tags": ["count"]},
		{"id": "t2", "question": "List names.", "difficulty": "hard"}
	]`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "t1", c.Tasks()[0].ID)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: t1
  question: How many rows?
  difficulty: easy
  gold_sql: SELECT COUNT(*) FROM t
- id: t2
  question: List names.
  difficulty: medium
  tags: [select]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "SELECT COUNT(*) FROM t", c.Tasks()[0].GoldSQL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tasks   []types.GoldTask
		wantErr string
	}{
		{
			name:  "valid",
			tasks: []types.GoldTask{{ID: "t1", Question: "q", Difficulty: "easy"}},
		},
		{
			name:    "missing id",
			tasks:   []types.GoldTask{{Question: "q", Difficulty: "easy"}},
			wantErr: "missing id",
		},
		{
			name: "duplicate id",
			tasks: []types.GoldTask{
				{ID: "t1", Question: "q", Difficulty: "easy"},
				{ID: "t1", Question: "q2", Difficulty: "easy"},
			},
			wantErr: "duplicate id",
		},
		{
			name:    "missing question",
			tasks:   []types.GoldTask{{ID: "t1", Difficulty: "easy"}},
			wantErr: "missing question",
		},
		{
			name:    "bad difficulty",
			tasks:   []types.GoldTask{{ID: "t1", Question: "q", Difficulty: "extreme"}},
			wantErr: "invalid difficulty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.tasks)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFilterByDifficulty(t *testing.T) {
	c := Default()

	easy := c.Filter([]string{types.DifficultyEasy}, nil, 0)
	for _, task := range easy {
		assert.Equal(t, types.DifficultyEasy, task.Difficulty)
	}
	assert.Len(t, easy, 3)
}

func TestFilterByTags(t *testing.T) {
	c := Default()

	joins := c.Filter([]string{types.DifficultyMedium, types.DifficultyHard}, []string{"join"}, 0)
	require.NotEmpty(t, joins)
	for _, task := range joins {
		assert.Contains(t, task.Tags, "join")
	}
}

func TestFilterCountLimit(t *testing.T) {
	c := Default()

	limited := c.Filter([]string{types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard}, nil, 2)
	assert.Len(t, limited, 2)
	// Catalog order is preserved.
	assert.Equal(t, "task_001", limited[0].ID)
	assert.Equal(t, "task_002", limited[1].ID)
}

func TestFilterNoMatch(t *testing.T) {
	c := Default()

	assert.Empty(t, c.Filter([]string{types.DifficultyHard}, []string{"nonexistent"}, 0))
}

func TestDefaultCatalogIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default().Tasks()))
}
