// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package server exposes the assessment engine over HTTP: submitting
// an assessment, following its progress over Server-Sent Events, and
// probing health and the reference schema.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"

	"github.com/teradata-labs/sqlbench/pkg/assessment"
	"github.com/teradata-labs/sqlbench/pkg/executor"
	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Config configures the HTTP server.
type Config struct {
	Addr         string
	Orchestrator *assessment.Orchestrator
	Adapter      *executor.Adapter
	Logger       *zap.Logger
}

// AssessmentRequest is the POST /assessments body.
type AssessmentRequest struct {
	Participants map[string]string `json:"participants"`
	Config       map[string]any    `json:"config,omitempty"`
}

// Server serves the assessment API.
type Server struct {
	config       Config
	orchestrator *assessment.Orchestrator
	adapter      *executor.Adapter
	logger       *zap.Logger
	events       *sse.Server
	httpServer   *http.Server
}

// New creates the HTTP server.
func New(config Config) (*Server, error) {
	if config.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if config.Adapter == nil {
		return nil, fmt.Errorf("execution adapter is required")
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}

	events := sse.New()
	events.AutoReplay = false

	s := &Server{
		config:       config,
		orchestrator: config.Orchestrator,
		adapter:      config.Adapter,
		logger:       config.Logger,
		events:       events,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/assessments", s.handleCreateAssessment)
	mux.HandleFunc("/assessments/events", s.events.ServeHTTP)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/schema", s.handleSchema)

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.config.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.Close()
	return s.httpServer.Shutdown(ctx)
}

// handleCreateAssessment accepts an assessment request, starts the run
// in the background, and returns the stream id for following progress.
func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Participants) == 0 {
		writeError(w, http.StatusBadRequest, "participants must not be empty")
		return
	}

	streamID := uuid.NewString()[:8]
	s.events.CreateStream(streamID)

	updates := make(chan types.TaskUpdate, 64)
	go s.orchestrator.Run(context.Background(), req.Participants, req.Config, updates)
	go s.forward(streamID, updates)

	s.logger.Info("Assessment started",
		zap.String("stream_id", streamID),
		zap.Int("participants", len(req.Participants)),
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"assessment_id": streamID,
		"events_url":    "/assessments/events?stream=" + streamID,
	})
}

// forward publishes orchestrator updates onto the SSE stream until the
// terminal update arrives.
func (s *Server) forward(streamID string, updates <-chan types.TaskUpdate) {
	for update := range updates {
		data, err := json.Marshal(update)
		if err != nil {
			s.logger.Error("Failed to encode update", zap.Error(err))
			continue
		}
		s.events.Publish(streamID, &sse.Event{
			Event: []byte(update.Status),
			Data:  data,
		})
	}
	s.logger.Debug("Assessment stream closed", zap.String("stream_id", streamID))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"dialect": s.adapter.Dialect(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	schema, err := s.adapter.Schema(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read schema: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, schema.ToWire())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
