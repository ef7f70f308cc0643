// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/teradata-labs/sqlbench/pkg/resilience"
)

// TaskPayload is the request sent to a candidate agent for one task.
type TaskPayload struct {
	TaskID   string         `json:"task_id"`
	Question string         `json:"question"`
	Schema   map[string]any `json:"schema"`
	Dialect  string         `json:"dialect"`
}

// TaskResponse is a candidate agent's answer.
type TaskResponse struct {
	SQL       string `json:"sql"`
	Reasoning string `json:"reasoning,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher sends one task to one candidate endpoint.
type Dispatcher interface {
	SendTask(ctx context.Context, endpoint string, payload TaskPayload) (TaskResponse, error)
}

// HTTPDispatcher reaches candidates over HTTP through the resilient
// client (sql_generation timeouts, retry, per-host circuit breaker).
type HTTPDispatcher struct {
	client *resilience.Client
}

// NewHTTPDispatcher wraps a resilient client as a Dispatcher.
func NewHTTPDispatcher(client *resilience.Client) *HTTPDispatcher {
	return &HTTPDispatcher{client: client}
}

// SendTask posts the task payload and decodes the candidate's
// response.
func (d *HTTPDispatcher) SendTask(ctx context.Context, endpoint string, payload TaskPayload) (TaskResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return TaskResponse{}, fmt.Errorf("failed to encode task payload: %w", err)
	}

	data, err := d.client.Request(ctx, http.MethodPost, endpoint, resilience.OpSQLGeneration, body, nil)
	if err != nil {
		return TaskResponse{}, err
	}

	var resp TaskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return TaskResponse{}, fmt.Errorf("invalid candidate response: %w", err)
	}
	return resp, nil
}
