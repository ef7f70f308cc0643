// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package types defines the data model shared across the sqlbench
// assessment pipeline: gold tasks, execution and comparison results,
// multi-dimensional scores, error classifications, and the artifact
// emitted at the end of an assessment.
package types

import (
	"math"
	"time"
)

// Row is a single result row as a column -> value mapping. Column
// ordering is carried separately (ExecutionResult.Columns) since Go
// maps are unordered.
type Row = map[string]any

// GoldTask is one prepared benchmark task from the gold catalog.
type GoldTask struct {
	ID              string   `json:"id" yaml:"id"`
	Question        string   `json:"question" yaml:"question"`
	GoldSQL         string   `json:"gold_sql,omitempty" yaml:"gold_sql,omitempty"`
	ExpectedResults []Row    `json:"expected_results,omitempty" yaml:"expected_results,omitempty"`
	Difficulty      string   `json:"difficulty" yaml:"difficulty"`
	Tags            []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Difficulty levels allowed in gold task catalogs.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Dialects understood by the execution adapter and config validation.
const (
	DialectSQLite     = "sqlite"
	DialectDuckDB     = "duckdb"
	DialectPostgreSQL = "postgresql"
)

// AssessmentConfig is the parsed task-selection and scoring
// configuration for one assessment run.
type AssessmentConfig struct {
	Difficulty         []string `json:"difficulty"`
	TaskCount          int      `json:"task_count"`
	Tags               []string `json:"tags,omitempty"`
	SchemaType         string   `json:"schema_type"`
	ScorerPreset       string   `json:"scorer_preset"`
	Dialect            string   `json:"dialect"`
	TimeoutSeconds     float64  `json:"timeout_seconds"`
	SameTasks          bool     `json:"same_tasks"`
	ParallelEvaluation bool     `json:"parallel_evaluation"`
}

// ExecutionResult is the outcome of running one SQL statement against
// the reference database, including the validation side-channel.
type ExecutionResult struct {
	Success            bool     `json:"success"`
	Rows               []Row    `json:"rows,omitempty"`
	Columns            []string `json:"columns,omitempty"`
	RowsReturned       int      `json:"rows_returned"`
	ExecutionTimeMs    float64  `json:"execution_time_ms"`
	Error              string   `json:"error,omitempty"`
	IsValid            bool     `json:"is_valid"`
	ValidationErrors   []string `json:"validation_errors,omitempty"`
	ValidationWarnings []string `json:"validation_warnings,omitempty"`
	QueryType          string   `json:"query_type,omitempty"`
	TablesAccessed     []string `json:"tables_accessed,omitempty"`
	ColumnsAccessed    []string `json:"columns_accessed,omitempty"`
	PhantomTables      []string `json:"phantom_tables,omitempty"`
	PhantomColumns     []string `json:"phantom_columns,omitempty"`
	Insights           []string `json:"insights,omitempty"`
	Summary            string   `json:"summary,omitempty"`
}

// ComparisonResult is the outcome of comparing actual rows against an
// expected row set.
type ComparisonResult struct {
	IsMatch          bool           `json:"is_match"`
	MatchScore       float64        `json:"match_score"`
	RowCountMatch    bool           `json:"row_count_match"`
	ColumnCountMatch bool           `json:"column_count_match"`
	Details          map[string]any `json:"details,omitempty"`
}

// MultiDimensionalScore is the full scorer output: four weighted
// primary dimensions, advisory dimensions, and sub-scores. Overall is
// the weighted sum over the primary dimensions only.
type MultiDimensionalScore struct {
	Correctness        float64            `json:"correctness"`
	Efficiency         float64            `json:"efficiency"`
	Safety             float64            `json:"safety"`
	Completeness       float64            `json:"completeness"`
	SemanticAccuracy   float64            `json:"semantic_accuracy"`
	BestPractices      float64            `json:"best_practices"`
	PlanQuality        float64            `json:"plan_quality"`
	ValidationScore    float64            `json:"validation_score"`
	HallucinationScore float64            `json:"hallucination_score"`
	PerformanceScore   float64            `json:"performance_score"`
	Overall            float64            `json:"overall"`
	Weights            map[string]float64 `json:"weights,omitempty"`
}

// Summary flattens the score into the serialized form carried by task
// results and participant summaries, rounded to four decimals.
func (s MultiDimensionalScore) Summary() ScoreSummary {
	return ScoreSummary{
		Overall:            Round4(s.Overall),
		Correctness:        Round4(s.Correctness),
		Efficiency:         Round4(s.Efficiency),
		Safety:             Round4(s.Safety),
		Completeness:       Round4(s.Completeness),
		SemanticAccuracy:   Round4(s.SemanticAccuracy),
		BestPractices:      Round4(s.BestPractices),
		PlanQuality:        Round4(s.PlanQuality),
		HallucinationScore: Round4(s.HallucinationScore),
		ValidationScore:    Round4(s.ValidationScore),
		PerformanceScore:   Round4(s.PerformanceScore),
	}
}

// ScoreSummary is the flat per-task (and averaged per-participant)
// score record emitted in artifacts.
type ScoreSummary struct {
	Overall            float64 `json:"overall"`
	Correctness        float64 `json:"correctness"`
	Efficiency         float64 `json:"efficiency"`
	Safety             float64 `json:"safety"`
	Completeness       float64 `json:"completeness"`
	SemanticAccuracy   float64 `json:"semantic_accuracy"`
	BestPractices      float64 `json:"best_practices"`
	PlanQuality        float64 `json:"plan_quality"`
	HallucinationScore float64 `json:"hallucination_score"`
	ValidationScore    float64 `json:"validation_score"`
	PerformanceScore   float64 `json:"performance_score"`
}

// Error taxonomy categories.
const (
	CategorySchemaError    = "schema_error"
	CategoryAnalysisError  = "analysis_error"
	CategorySQLError       = "sql_error"
	CategoryPromptError    = "prompt_error"
	CategoryKnowledgeError = "knowledge_error"
	CategoryNoError        = "no_error"
)

// Error taxonomy subcategories.
const (
	SubWrongSchemaLinking       = "wrong_schema_linking"
	SubWrongColumn              = "wrong_column"
	SubWrongTable               = "wrong_table"
	SubErroneousDataAnalysis    = "erroneous_data_analysis"
	SubIncorrectPlanning        = "incorrect_planning"
	SubIncorrectDataCalculation = "incorrect_data_calculation"
	SubSyntaxError              = "syntax_error"
	SubConditionFilterError     = "condition_filter_error"
	SubJoinError                = "join_error"
	SubDialectFunctionError     = "incorrect_dialect_function_usage"
	SubExcessivePromptLength    = "excessive_prompt_length"
	SubExternalKnowledge        = "misunderstanding_external_knowledge"
	SubNoError                  = "no_error"
)

// ErrorClassification is the taxonomy verdict for one task result.
type ErrorClassification struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Confidence  float64  `json:"confidence"`
	Details     string   `json:"details,omitempty"`
	Evidence    []string `json:"evidence,omitempty"`
}

// TaskResult is the evaluation of one (participant, task) pair.
type TaskResult struct {
	TaskID           string               `json:"task_id"`
	Question         string               `json:"question"`
	SQLSubmitted     string               `json:"sql_submitted"`
	GoldSQL          string               `json:"gold_sql,omitempty"`
	Scores           ScoreSummary         `json:"scores"`
	ExecutionSuccess bool                 `json:"execution_success"`
	ExecutionTimeMs  float64              `json:"execution_time_ms"`
	RowsReturned     int                  `json:"rows_returned"`
	ValidationErrors []string             `json:"validation_errors,omitempty"`
	PhantomTables    []string             `json:"phantom_tables,omitempty"`
	PhantomColumns   []string             `json:"phantom_columns,omitempty"`
	ErrorMessage     string               `json:"error_message,omitempty"`
	Classification   *ErrorClassification `json:"error_classification,omitempty"`
}

// ParticipantSummary rolls up all task results for one participant.
type ParticipantSummary struct {
	ParticipantID string         `json:"participant_id"`
	Endpoint      string         `json:"endpoint"`
	TotalTasks    int            `json:"total_tasks"`
	Successful    int            `json:"successful"`
	Failed        int            `json:"failed"`
	Scores        ScoreSummary   `json:"scores"`
	TaskResults   []TaskResult   `json:"task_results"`
	ErrorMetrics  map[string]any `json:"error_metrics,omitempty"`
}

// RankedParticipant is one entry in the artifact ranking.
type RankedParticipant struct {
	Rank          int     `json:"rank"`
	ParticipantID string  `json:"participant_id"`
	OverallScore  float64 `json:"overall_score"`
}

// TaskComparisonEntry is one row of the task-by-task comparison matrix.
type TaskComparisonEntry struct {
	TaskID      string                `json:"task_id"`
	AgentScores map[string]AgentScore `json:"agent_scores"`
}

// AgentScore is one participant's cell in the comparison matrix.
type AgentScore struct {
	Overall          float64 `json:"overall"`
	SQL              string  `json:"sql"`
	ExecutionSuccess bool    `json:"execution_success"`
}

// AssessmentArtifact is the final ranked artifact for one assessment.
type AssessmentArtifact struct {
	AssessmentID        string                        `json:"assessment_id"`
	CompletedAt         string                        `json:"completed_at"`
	Config              AssessmentConfig              `json:"config"`
	Rankings            []RankedParticipant           `json:"rankings"`
	Participants        map[string]ParticipantSummary `json:"participants"`
	TaskComparison      []TaskComparisonEntry         `json:"task_comparison,omitempty"`
	Metadata            map[string]any                `json:"metadata,omitempty"`
	ErrorMetricsSummary map[string]any                `json:"error_metrics_summary,omitempty"`
}

// Statuses for assessment progress updates.
const (
	StatusSubmitted = "submitted"
	StatusWorking   = "working"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TaskUpdate is one record on the progress stream. Exactly one terminal
// update (completed or failed) closes the stream.
type TaskUpdate struct {
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Progress  *float64            `json:"progress,omitempty"`
	Data      map[string]any      `json:"data,omitempty"`
	Artifact  *AssessmentArtifact `json:"artifact,omitempty"`
	Timestamp string              `json:"timestamp"`
}

// NewTaskUpdate builds an update with the current UTC timestamp.
func NewTaskUpdate(status, message string) TaskUpdate {
	return TaskUpdate{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WithProgress sets the progress fraction, clamped to [0, 1].
func (u TaskUpdate) WithProgress(p float64) TaskUpdate {
	p = math.Min(1.0, math.Max(0.0, p))
	u.Progress = &p
	return u
}

// Terminal reports whether this update closes the stream.
func (u TaskUpdate) Terminal() bool {
	return u.Status == StatusCompleted || u.Status == StatusFailed
}

// Round4 rounds a score to four decimal places, the precision used
// throughout emitted artifacts.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
