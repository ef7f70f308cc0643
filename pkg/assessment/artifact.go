// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package assessment

import (
	"sort"
	"time"

	"github.com/teradata-labs/sqlbench/pkg/classify"
	"github.com/teradata-labs/sqlbench/pkg/types"
)

// BuildArtifact rolls per-task results into the final ranked
// assessment artifact. results maps participant id to that
// participant's task results in gold-task order.
func BuildArtifact(assessmentID string, cfg types.AssessmentConfig, participants map[string]string, results map[string][]types.TaskResult) *types.AssessmentArtifact {
	summaries := make(map[string]types.ParticipantSummary, len(results))
	aggregate := classify.NewMetricsSummary()

	totalEvaluated := 0
	for pid, taskResults := range results {
		summaries[pid] = buildParticipantSummary(pid, participants[pid], taskResults, aggregate)
		totalEvaluated += len(taskResults)
	}

	return &types.AssessmentArtifact{
		AssessmentID:   assessmentID,
		CompletedAt:    time.Now().UTC().Format(time.RFC3339),
		Config:         cfg,
		Rankings:       buildRankings(summaries),
		Participants:   summaries,
		TaskComparison: buildTaskComparison(results),
		Metadata: map[string]any{
			"total_tasks_evaluated": totalEvaluated,
			"total_participants":    len(participants),
		},
		ErrorMetricsSummary: aggregate.ToMap(),
	}
}

func buildParticipantSummary(pid, endpoint string, taskResults []types.TaskResult, aggregate *classify.MetricsSummary) types.ParticipantSummary {
	summary := types.ParticipantSummary{
		ParticipantID: pid,
		Endpoint:      endpoint,
		TotalTasks:    len(taskResults),
		TaskResults:   taskResults,
	}
	if len(taskResults) == 0 {
		return summary
	}

	metrics := classify.NewMetricsSummary()
	for _, tr := range taskResults {
		if tr.ExecutionSuccess {
			summary.Successful++
		}
		if tr.Classification != nil {
			metrics.Add(*tr.Classification, tr.TaskID, tr.SQLSubmitted)
			aggregate.Add(*tr.Classification, tr.TaskID, tr.SQLSubmitted)
		}
	}
	summary.Failed = summary.TotalTasks - summary.Successful
	summary.Scores = averageScores(taskResults)
	summary.ErrorMetrics = metrics.ToMap()
	return summary
}

// averageScores is the arithmetic mean of every dimension and
// sub-score across the task results, rounded to four decimals.
func averageScores(taskResults []types.TaskResult) types.ScoreSummary {
	n := float64(len(taskResults))
	var sum types.ScoreSummary
	for _, tr := range taskResults {
		sum.Overall += tr.Scores.Overall
		sum.Correctness += tr.Scores.Correctness
		sum.Efficiency += tr.Scores.Efficiency
		sum.Safety += tr.Scores.Safety
		sum.Completeness += tr.Scores.Completeness
		sum.SemanticAccuracy += tr.Scores.SemanticAccuracy
		sum.BestPractices += tr.Scores.BestPractices
		sum.PlanQuality += tr.Scores.PlanQuality
		sum.HallucinationScore += tr.Scores.HallucinationScore
		sum.ValidationScore += tr.Scores.ValidationScore
		sum.PerformanceScore += tr.Scores.PerformanceScore
	}
	return types.ScoreSummary{
		Overall:            types.Round4(sum.Overall / n),
		Correctness:        types.Round4(sum.Correctness / n),
		Efficiency:         types.Round4(sum.Efficiency / n),
		Safety:             types.Round4(sum.Safety / n),
		Completeness:       types.Round4(sum.Completeness / n),
		SemanticAccuracy:   types.Round4(sum.SemanticAccuracy / n),
		BestPractices:      types.Round4(sum.BestPractices / n),
		PlanQuality:        types.Round4(sum.PlanQuality / n),
		HallucinationScore: types.Round4(sum.HallucinationScore / n),
		ValidationScore:    types.Round4(sum.ValidationScore / n),
		PerformanceScore:   types.Round4(sum.PerformanceScore / n),
	}
}

// buildRankings orders participants descending by averaged overall
// score; ties break by participant id ascending so the ranking is
// deterministic.
func buildRankings(summaries map[string]types.ParticipantSummary) []types.RankedParticipant {
	ranked := make([]types.RankedParticipant, 0, len(summaries))
	for pid, summary := range summaries {
		ranked = append(ranked, types.RankedParticipant{
			ParticipantID: pid,
			OverallScore:  summary.Scores.Overall,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].OverallScore != ranked[j].OverallScore {
			return ranked[i].OverallScore > ranked[j].OverallScore
		}
		return ranked[i].ParticipantID < ranked[j].ParticipantID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// buildTaskComparison emits one row per task index with every
// participant's score for that task. Task index i refers to the same
// gold task for every participant.
func buildTaskComparison(results map[string][]types.TaskResult) []types.TaskComparisonEntry {
	maxTasks := 0
	for _, taskResults := range results {
		if len(taskResults) > maxTasks {
			maxTasks = len(taskResults)
		}
	}

	pids := make([]string, 0, len(results))
	for pid := range results {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	var comparison []types.TaskComparisonEntry
	for i := 0; i < maxTasks; i++ {
		entry := types.TaskComparisonEntry{
			AgentScores: map[string]types.AgentScore{},
		}
		for _, pid := range pids {
			taskResults := results[pid]
			if i >= len(taskResults) {
				continue
			}
			tr := taskResults[i]
			entry.TaskID = tr.TaskID
			entry.AgentScores[pid] = types.AgentScore{
				Overall:          tr.Scores.Overall,
				SQL:              truncateSQL(tr.SQLSubmitted, 200),
				ExecutionSuccess: tr.ExecutionSuccess,
			}
		}
		comparison = append(comparison, entry)
	}
	return comparison
}
