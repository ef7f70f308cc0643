// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package assessment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/sqlbench/pkg/catalog"
	"github.com/teradata-labs/sqlbench/pkg/classify"
	"github.com/teradata-labs/sqlbench/pkg/compare"
	"github.com/teradata-labs/sqlbench/pkg/executor"
	"github.com/teradata-labs/sqlbench/pkg/scoring"
	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Config configures an Orchestrator.
type Config struct {
	Catalog    *catalog.Catalog
	Adapter    *executor.Adapter
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

// Orchestrator runs assessments. Each Run call is fully isolated; an
// Orchestrator may serve many assessments over its lifetime.
type Orchestrator struct {
	catalog    *catalog.Catalog
	adapter    *executor.Adapter
	dispatcher Dispatcher
	comparator compare.Comparator
	logger     *zap.Logger
}

// New creates an orchestrator.
func New(config Config) (*Orchestrator, error) {
	if config.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if config.Adapter == nil {
		return nil, fmt.Errorf("execution adapter is required")
	}
	if config.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Orchestrator{
		catalog:    config.Catalog,
		adapter:    config.Adapter,
		dispatcher: config.Dispatcher,
		comparator: compare.New(compare.DefaultOptions()),
		logger:     config.Logger,
	}, nil
}

// Run executes one assessment, streaming TaskUpdates into updates.
// Exactly one terminal update (completed or failed) is sent; the
// channel is closed when Run returns. Non-terminal updates are dropped
// rather than blocking when the consumer is not draining.
func (o *Orchestrator) Run(ctx context.Context, participants map[string]string, rawConfig map[string]any, updates chan<- types.TaskUpdate) {
	defer close(updates)

	assessmentID := uuid.NewString()[:8]
	logger := o.logger.With(zap.String("assessment_id", assessmentID))

	o.emit(ctx, updates, types.NewTaskUpdate(types.StatusSubmitted,
		fmt.Sprintf("Assessment %s submitted", assessmentID)).WithProgress(0.0))

	if len(participants) == 0 {
		o.fail(ctx, updates, "No participants provided")
		return
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		o.fail(ctx, updates, "Invalid assessment config: "+err.Error())
		return
	}

	tasks := o.catalog.Filter(cfg.Difficulty, cfg.Tags, cfg.TaskCount)
	if len(tasks) == 0 {
		o.fail(ctx, updates, "No tasks match the requested filters")
		return
	}

	o.emit(ctx, updates, types.NewTaskUpdate(types.StatusWorking,
		fmt.Sprintf("Evaluating %d tasks across %d participants", len(tasks), len(participants))).
		WithProgress(0.05))

	schema, err := o.adapter.Schema(ctx)
	if err != nil {
		o.fail(ctx, updates, "Failed to snapshot reference schema: "+err.Error())
		return
	}
	schemaWire := schema.ToWire()

	scorer, err := scoring.New(cfg.ScorerPreset)
	if err != nil {
		o.fail(ctx, updates, err.Error())
		return
	}

	pids := sortedKeys(participants)
	results := make(map[string][]types.TaskResult, len(pids))
	for _, pid := range pids {
		results[pid] = []types.TaskResult{}
	}

	totalEvaluations := len(tasks) * len(pids)
	evaluationsDone := 0

	for _, task := range tasks {
		// Cancellation is observed between tasks, never mid-task.
		if ctx.Err() != nil {
			o.fail(ctx, updates, "Assessment cancelled")
			return
		}

		payload := TaskPayload{
			TaskID:   task.ID,
			Question: task.Question,
			Schema:   schemaWire,
			Dialect:  cfg.Dialect,
		}

		responses := o.dispatch(ctx, participants, pids, payload, cfg.ParallelEvaluation)

		for _, pid := range pids {
			resp := responses[pid]
			var result types.TaskResult
			if resp.SQL == "" {
				errMsg := resp.Error
				if errMsg == "" {
					errMsg = "No SQL returned"
				}
				result = failedDispatchResult(task, errMsg)
			} else {
				result = o.evaluate(ctx, scorer, resp.SQL, task)
			}

			results[pid] = append(results[pid], result)
			evaluationsDone++

			update := types.NewTaskUpdate(types.StatusWorking,
				fmt.Sprintf("%s: %s scored %.2f%%", pid, task.ID, result.Scores.Overall*100))
			update.Data = map[string]any{
				"participant":       pid,
				"task_id":           task.ID,
				"score":             result.Scores.Overall,
				"execution_success": result.ExecutionSuccess,
			}
			o.emit(ctx, updates, update.WithProgress(
				0.10+0.85*float64(evaluationsDone)/float64(totalEvaluations)))
		}
	}

	o.emit(ctx, updates, types.NewTaskUpdate(types.StatusWorking,
		"Building assessment artifact with rankings...").WithProgress(0.95))

	artifact := BuildArtifact(assessmentID, cfg, participants, results)
	logger.Info("Assessment complete",
		zap.Int("tasks", len(tasks)),
		zap.Int("participants", len(pids)),
		zap.String("winner", artifact.Rankings[0].ParticipantID),
	)

	final := types.NewTaskUpdate(types.StatusCompleted,
		fmt.Sprintf("Assessment complete. Winner: %s (%.2f%%)",
			artifact.Rankings[0].ParticipantID,
			artifact.Rankings[0].OverallScore*100)).
		WithProgress(1.0)
	final.Artifact = artifact
	o.emitTerminal(ctx, updates, final)
}

// dispatch sends one task to every participant, in parallel when
// configured. Transport failures become empty-SQL responses with the
// error recorded; they never abort the assessment.
func (o *Orchestrator) dispatch(ctx context.Context, participants map[string]string, pids []string, payload TaskPayload, parallel bool) map[string]TaskResponse {
	responses := make(map[string]TaskResponse, len(pids))

	if !parallel {
		for _, pid := range pids {
			responses[pid] = o.sendOne(ctx, participants[pid], payload)
		}
		return responses
	}

	type outcome struct {
		pid  string
		resp TaskResponse
	}
	ch := make(chan outcome, len(pids))
	for _, pid := range pids {
		go func(pid, endpoint string) {
			ch <- outcome{pid: pid, resp: o.sendOne(ctx, endpoint, payload)}
		}(pid, participants[pid])
	}
	for range pids {
		out := <-ch
		responses[out.pid] = out.resp
	}
	return responses
}

func (o *Orchestrator) sendOne(ctx context.Context, endpoint string, payload TaskPayload) TaskResponse {
	resp, err := o.dispatcher.SendTask(ctx, endpoint, payload)
	if err != nil {
		o.logger.Debug("Dispatch failed",
			zap.String("endpoint", endpoint),
			zap.String("task_id", payload.TaskID),
			zap.Error(err),
		)
		return TaskResponse{SQL: "", Error: err.Error()}
	}
	return resp
}

// evaluate runs one submitted SQL through the execution adapter,
// comparator, scorer, and classifier.
func (o *Orchestrator) evaluate(ctx context.Context, scorer scoring.Scorer, sql string, task types.GoldTask) types.TaskResult {
	exec := o.adapter.Execute(ctx, sql)

	result := types.TaskResult{
		TaskID:           task.ID,
		Question:         task.Question,
		SQLSubmitted:     sql,
		GoldSQL:          task.GoldSQL,
		ExecutionSuccess: exec.Success,
		ExecutionTimeMs:  exec.ExecutionTimeMs,
		RowsReturned:     exec.RowsReturned,
		ValidationErrors: exec.ValidationErrors,
		PhantomTables:    exec.PhantomTables,
		PhantomColumns:   exec.PhantomColumns,
	}

	if !exec.Success {
		result.ErrorMessage = exec.Error
		result.Scores = failedExecutionScores(exec)
		cls := classify.Classify(classify.Input{
			SQLSubmitted:     sql,
			GoldSQL:          task.GoldSQL,
			ExecutionSuccess: false,
			ValidationErrors: exec.ValidationErrors,
			PhantomTables:    exec.PhantomTables,
			PhantomColumns:   exec.PhantomColumns,
			ErrorMessage:     exec.Error,
		})
		result.Classification = &cls
		return result
	}

	var comparison types.ComparisonResult
	if len(task.ExpectedResults) > 0 {
		comparison = o.comparator.Compare(exec.Rows, task.ExpectedResults)
	} else {
		// No expected result set; execution success is the only
		// correctness signal available.
		comparison = types.ComparisonResult{
			IsMatch:          true,
			MatchScore:       1.0,
			RowCountMatch:    true,
			ColumnCountMatch: true,
		}
	}

	score := scorer.Score(comparison, exec, sql, o.adapter.Dialect(), task.ExpectedResults)
	result.Scores = score.Summary()

	matchScore := comparison.MatchScore
	correctness := score.Correctness
	cls := classify.Classify(classify.Input{
		SQLSubmitted:     sql,
		GoldSQL:          task.GoldSQL,
		ExecutionSuccess: true,
		ValidationErrors: exec.ValidationErrors,
		PhantomTables:    exec.PhantomTables,
		PhantomColumns:   exec.PhantomColumns,
		MatchScore:       &matchScore,
		CorrectnessScore: &correctness,
	})
	result.Classification = &cls
	return result
}

// failedDispatchResult synthesizes the zero-score result recorded when
// a candidate returned no SQL (transport failure or explicit error).
func failedDispatchResult(task types.GoldTask, errMsg string) types.TaskResult {
	cls := classify.Classify(classify.Input{
		SQLSubmitted:     "",
		GoldSQL:          task.GoldSQL,
		ExecutionSuccess: false,
		ErrorMessage:     errMsg,
	})
	return types.TaskResult{
		TaskID:           task.ID,
		Question:         task.Question,
		SQLSubmitted:     "",
		GoldSQL:          task.GoldSQL,
		Scores:           types.ScoreSummary{},
		ExecutionSuccess: false,
		ErrorMessage:     errMsg,
		Classification:   &cls,
	}
}

// failedExecutionScores is the fixed score shape for SQL that failed
// to execute: everything zero except a residual safety credit, reduced
// when phantom identifiers caused the failure.
func failedExecutionScores(exec *types.ExecutionResult) types.ScoreSummary {
	safety := 0.5
	if len(exec.PhantomTables) > 0 || len(exec.PhantomColumns) > 0 {
		safety = 0.36
	}
	hallucination := 0.5
	if len(exec.PhantomTables) > 0 {
		hallucination = 0.0
	}
	return types.ScoreSummary{
		Safety:             safety,
		HallucinationScore: hallucination,
	}
}

// emit sends a non-terminal update without blocking; if the consumer
// is not draining, the update is dropped.
func (o *Orchestrator) emit(ctx context.Context, updates chan<- types.TaskUpdate, u types.TaskUpdate) {
	select {
	case updates <- u:
	case <-ctx.Done():
	default:
	}
}

// emitTerminal delivers the terminal update, waiting for the consumer
// unless the context ends first.
func (o *Orchestrator) emitTerminal(ctx context.Context, updates chan<- types.TaskUpdate, u types.TaskUpdate) {
	select {
	case updates <- u:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) fail(ctx context.Context, updates chan<- types.TaskUpdate, message string) {
	o.logger.Warn("Assessment failed", zap.String("reason", message))
	o.emitTerminal(ctx, updates, types.NewTaskUpdate(types.StatusFailed, message).WithProgress(1.0))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncateSQL trims submitted SQL for the comparison matrix and error
// examples.
func truncateSQL(sql string, n int) string {
	sql = strings.TrimSpace(sql)
	if len(sql) <= n {
		return sql
	}
	return sql[:n]
}
