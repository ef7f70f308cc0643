// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Register the postgresql and mysql drivers so those dialects
	// resolve through database/sql.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/sqlbench/internal/log"
	"github.com/teradata-labs/sqlbench/pkg/assessment"
	"github.com/teradata-labs/sqlbench/pkg/catalog"
	"github.com/teradata-labs/sqlbench/pkg/executor"
	"github.com/teradata-labs/sqlbench/pkg/resilience"
	"github.com/teradata-labs/sqlbench/pkg/server"
	"github.com/teradata-labs/sqlbench/pkg/types"
)

var rootCmd = &cobra.Command{
	Use:   "sqlbench",
	Short: "Benchmark SQL-generating agents against a reference database",
	Long: `sqlbench distributes natural-language questions to candidate agents,
executes the SQL they return against a reference database, scores each
execution along multiple dimensions, classifies failures, and produces
a ranked assessment artifact.`,
	Version: "0.1.0",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assessment HTTP server",
	RunE:  runServe,
}

var assessCmd = &cobra.Command{
	Use:   "assess <request.json>",
	Short: "Run one assessment from a request file, streaming updates to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssess,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Gold task catalog utilities",
}

var tasksValidateCmd = &cobra.Command{
	Use:   "validate <catalog file>",
	Short: "Validate a gold task catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksValidate,
}

func init() {
	rootCmd.PersistentFlags().String("catalog", "", "gold task catalog file (JSON or YAML; empty uses the built-in catalog)")
	rootCmd.PersistentFlags().String("dialect", types.DialectSQLite, "reference database dialect (sqlite, duckdb, postgresql)")
	rootCmd.PersistentFlags().String("dsn", "", "reference database connection string")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("log-json", false, "log in JSON format")

	serveCmd.Flags().String("addr", ":8080", "listen address")

	viper.SetEnvPrefix("SQLBENCH")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("dialect", rootCmd.PersistentFlags().Lookup("dialect"))
	_ = viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))

	tasksCmd.AddCommand(tasksValidateCmd)
	rootCmd.AddCommand(serveCmd, assessCmd, tasksCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildOrchestrator wires the catalog, execution adapter, resilient
// dispatcher, and orchestrator from the global flags.
func buildOrchestrator(ctx context.Context) (*assessment.Orchestrator, *executor.Adapter, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if path := viper.GetString("catalog"); path != "" {
		cat, err = catalog.Load(path)
		if err != nil {
			return nil, nil, err
		}
	} else {
		cat = catalog.Default()
	}

	adapter, err := executor.New(executor.Config{
		Dialect: viper.GetString("dialect"),
		DSN:     viper.GetString("dsn"),
		Logger:  log.Logger(),
	})
	if err != nil {
		return nil, nil, err
	}
	if adapter.Dialect() == types.DialectSQLite && viper.GetString("dsn") == "" {
		if err := adapter.SetupSampleData(ctx); err != nil {
			adapter.Close()
			return nil, nil, err
		}
	}

	client := resilience.NewClient(resilience.DefaultClientConfig(), log.Logger())
	orch, err := assessment.New(assessment.Config{
		Catalog:    cat,
		Adapter:    adapter,
		Dispatcher: assessment.NewHTTPDispatcher(client),
		Logger:     log.Logger(),
	})
	if err != nil {
		adapter.Close()
		return nil, nil, err
	}
	return orch, adapter, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := log.Init(viper.GetBool("log_json"), viper.GetBool("debug")); err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	orch, adapter, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	srv, err := server.New(server.Config{
		Addr:         viper.GetString("addr"),
		Orchestrator: orch,
		Adapter:      adapter,
		Logger:       log.Logger(),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runAssess(cmd *cobra.Command, args []string) error {
	if err := log.Init(viper.GetBool("log_json"), viper.GetBool("debug")); err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	var req server.AssessmentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid request file: %w", err)
	}

	ctx := cmd.Context()
	orch, adapter, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	updates := make(chan types.TaskUpdate, 64)
	go orch.Run(ctx, req.Participants, req.Config, updates)

	enc := json.NewEncoder(os.Stdout)
	for update := range updates {
		if err := enc.Encode(update); err != nil {
			return err
		}
		if update.Terminal() && update.Status == types.StatusFailed {
			return fmt.Errorf("assessment failed: %s", update.Message)
		}
	}
	return nil
}

func runTasksValidate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("OK: %d tasks\n", cat.Len())
	return nil
}
