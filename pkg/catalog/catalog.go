// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package catalog loads and filters the gold-task catalog. Catalogs
// are JSON or YAML files holding an array of tasks; they are loaded
// once at startup and treated as immutable afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Catalog is an immutable set of gold tasks.
type Catalog struct {
	tasks []types.GoldTask
}

// New builds a catalog from tasks, validating them first.
func New(tasks []types.GoldTask) (*Catalog, error) {
	if err := Validate(tasks); err != nil {
		return nil, err
	}
	return &Catalog{tasks: tasks}, nil
}

// Load reads a catalog file. The format is chosen by extension:
// .yaml/.yml parse as YAML, everything else as JSON.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var tasks []types.GoldTask
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	}

	return New(tasks)
}

// Validate checks the catalog invariants: non-empty unique ids, a
// question per task, and a known difficulty.
func Validate(tasks []types.GoldTask) error {
	seen := map[string]bool{}
	for i, task := range tasks {
		if task.ID == "" {
			return fmt.Errorf("task %d: missing id", i)
		}
		if seen[task.ID] {
			return fmt.Errorf("task %d: duplicate id %q", i, task.ID)
		}
		seen[task.ID] = true
		if task.Question == "" {
			return fmt.Errorf("task %s: missing question", task.ID)
		}
		switch task.Difficulty {
		case types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
		default:
			return fmt.Errorf("task %s: invalid difficulty %q", task.ID, task.Difficulty)
		}
	}
	return nil
}

// Tasks returns all tasks in catalog order.
func (c *Catalog) Tasks() []types.GoldTask {
	return c.tasks
}

// Len returns the number of tasks.
func (c *Catalog) Len() int {
	return len(c.tasks)
}

// Filter selects tasks whose difficulty is in difficulties and, when
// tags is non-empty, that share at least one tag. Selection preserves
// catalog order and stops once count tasks are collected; count <= 0
// means no limit.
func (c *Catalog) Filter(difficulties, tags []string, count int) []types.GoldTask {
	wantDifficulty := map[string]bool{}
	for _, d := range difficulties {
		wantDifficulty[d] = true
	}

	var out []types.GoldTask
	for _, task := range c.tasks {
		if len(wantDifficulty) > 0 && !wantDifficulty[task.Difficulty] {
			continue
		}
		if len(tags) > 0 && !sharesTag(task.Tags, tags) {
			continue
		}
		out = append(out, task)
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

func sharesTag(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Default returns the built-in catalog used when no catalog file is
// configured: a small set of questions over the sample customers and
// orders tables.
func Default() *Catalog {
	return &Catalog{tasks: []types.GoldTask{
		{
			ID:         "task_001",
			Question:   "How many customers are there?",
			GoldSQL:    "SELECT COUNT(*) AS customer_count FROM customers",
			Difficulty: types.DifficultyEasy,
			Tags:       []string{"aggregation", "count"},
			ExpectedResults: []types.Row{
				{"customer_count": 5},
			},
		},
		{
			ID:         "task_002",
			Question:   "List the names of all customers from New York.",
			GoldSQL:    "SELECT name FROM customers WHERE city = 'New York'",
			Difficulty: types.DifficultyEasy,
			Tags:       []string{"filter", "select"},
			ExpectedResults: []types.Row{
				{"name": "Alice Johnson"},
				{"name": "Diana Ross"},
			},
		},
		{
			ID:         "task_003",
			Question:   "What is the total value of all orders?",
			GoldSQL:    "SELECT SUM(total) AS total_value FROM orders",
			Difficulty: types.DifficultyEasy,
			Tags:       []string{"aggregation", "sum"},
			ExpectedResults: []types.Row{
				{"total_value": 1675.5},
			},
		},
		{
			ID:         "task_004",
			Question:   "How many orders has each customer placed? Show the customer name and order count.",
			GoldSQL:    "SELECT c.name, COUNT(o.id) AS order_count FROM customers c LEFT JOIN orders o ON c.id = o.customer_id GROUP BY c.name",
			Difficulty: types.DifficultyMedium,
			Tags:       []string{"join", "aggregation", "group_by"},
		},
		{
			ID:         "task_005",
			Question:   "Which customer has spent the most in total? Show their name and total spend.",
			GoldSQL:    "SELECT c.name, SUM(o.total) AS total_spent FROM customers c JOIN orders o ON c.id = o.customer_id GROUP BY c.name ORDER BY total_spent DESC LIMIT 1",
			Difficulty: types.DifficultyHard,
			Tags:       []string{"join", "aggregation", "order_by", "limit"},
		},
	}}
}
