// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package executor runs submitted SQL against the reference database
// and reports execution results with a validation side-channel:
// phantom identifiers, query metadata, and result insights.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	// Reference driver. postgresql and mysql drivers are registered by
	// the binary that needs them.
	_ "modernc.org/sqlite"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// driverNames maps the externally-meaningful dialect names onto
// database/sql driver names. duckdb resolves only when a duckdb driver
// is linked into the binary.
var driverNames = map[string]string{
	types.DialectSQLite:     "sqlite",
	types.DialectPostgreSQL: "postgres",
	types.DialectDuckDB:     "duckdb",
	"mysql":                 "mysql",
}

// Config configures an Adapter.
type Config struct {
	Dialect string
	// DSN is the driver connection string. Empty with the sqlite
	// dialect means an in-memory database.
	DSN string
	// MaxRows caps the rows materialized per query; 0 means the
	// default of 1000.
	MaxRows int
	// QueryTimeout bounds a single execution; 0 means 30s.
	QueryTimeout time.Duration
	Logger       *zap.Logger
}

// Adapter executes SQL against one reference database. It caches the
// schema snapshot; RefreshSchema invalidates the cache.
type Adapter struct {
	db      *sql.DB
	dialect string
	config  Config
	logger  *zap.Logger

	mu     sync.Mutex
	schema Schema
}

// New opens the reference database for the configured dialect.
func New(config Config) (*Adapter, error) {
	driver, ok := driverNames[config.Dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %q", config.Dialect)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.MaxRows <= 0 {
		config.MaxRows = 1000
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 30 * time.Second
	}
	dsn := config.DSN
	if dsn == "" && config.Dialect == types.DialectSQLite {
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", config.Dialect, err)
	}
	if config.Dialect == types.DialectSQLite {
		// In-memory sqlite loses its schema when the pool opens a
		// second connection.
		db.SetMaxOpenConns(1)
	}

	return &Adapter{
		db:      db,
		dialect: config.Dialect,
		config:  config,
		logger:  config.Logger,
	}, nil
}

// Close releases the database handle.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Dialect returns the configured dialect name.
func (a *Adapter) Dialect() string {
	return a.dialect
}

// Exec runs a statement that returns no rows (DDL, inserts). Used for
// test fixtures and sample-data setup, not for candidate SQL.
func (a *Adapter) Exec(ctx context.Context, stmt string) error {
	_, err := a.db.ExecContext(ctx, stmt)
	return err
}

// Execute runs one SQL statement and never returns an error to the
// caller: failures are reported inside the ExecutionResult.
func (a *Adapter) Execute(ctx context.Context, sqlText string) *types.ExecutionResult {
	result := &types.ExecutionResult{
		QueryType: queryType(sqlText),
	}

	schema, schemaErr := a.Schema(ctx)
	if schemaErr != nil {
		a.logger.Warn("Schema snapshot unavailable", zap.Error(schemaErr))
	}
	if schema != nil {
		result.TablesAccessed = referencedTables(sqlText)
		result.PhantomTables, result.PhantomColumns = schema.PhantomIdentifiers(sqlText)
		result.ColumnsAccessed = referencedColumns(sqlText, schema)
		for _, t := range result.PhantomTables {
			result.ValidationErrors = append(result.ValidationErrors,
				fmt.Sprintf("Table '%s' does not exist", t))
		}
		for _, c := range result.PhantomColumns {
			result.ValidationErrors = append(result.ValidationErrors,
				fmt.Sprintf("Column '%s' does not exist", c))
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := a.db.QueryContext(execCtx, sqlText)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	result.ExecutionTimeMs = elapsed

	if err != nil {
		result.Success = false
		result.Error = errorText(execCtx, err)
		result.IsValid = false
		result.Summary = "Execution failed: " + result.Error
		a.logger.Debug("SQL execution failed",
			zap.String("error", result.Error),
			zap.Float64("elapsed_ms", elapsed),
		)
		return result
	}
	defer rows.Close()

	columns, data, truncated, scanErr := scanRows(rows, a.config.MaxRows)
	result.ExecutionTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	if scanErr != nil {
		result.Success = false
		result.Error = scanErr.Error()
		result.IsValid = false
		result.Summary = "Execution failed: " + result.Error
		return result
	}

	result.Success = true
	result.Columns = columns
	result.Rows = data
	result.RowsReturned = len(data)
	result.IsValid = len(result.ValidationErrors) == 0
	result.Insights = insights(result, truncated)
	result.Summary = fmt.Sprintf("Returned %d row(s) in %.1fms", len(data), result.ExecutionTimeMs)
	return result
}

// scanRows materializes up to maxRows rows as column name -> value
// maps, reporting whether the result set was truncated.
func scanRows(rows *sql.Rows, maxRows int) ([]string, []types.Row, bool, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, false, err
	}

	var data []types.Row
	truncated := false
	for rows.Next() {
		if len(data) >= maxRows {
			truncated = true
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, false, err
		}
		row := types.Row{}
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, err
	}
	return columns, data, truncated, nil
}

// normalizeValue converts driver-specific scan types into the plain
// values the comparator understands.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	default:
		return v
	}
}

// errorText rewrites context timeouts into a message containing the
// word "timeout", which downstream scoring keys on.
func errorText(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "query timeout exceeded"
	}
	return err.Error()
}

// insights derives human-readable observations about a successful
// result set.
func insights(result *types.ExecutionResult, truncated bool) []string {
	var out []string
	if result.RowsReturned == 0 {
		out = append(out, "Query returned no results (empty result set)")
	}
	if truncated {
		out = append(out, fmt.Sprintf("Results truncated at %d rows", result.RowsReturned))
	}
	if hasNulls(result.Rows) {
		out = append(out, "Result contains NULL values")
	}
	if result.ExecutionTimeMs > 1000 {
		out = append(out, fmt.Sprintf("Query was slow (%.0fms)", result.ExecutionTimeMs))
	}
	return out
}

func hasNulls(rows []types.Row) bool {
	for _, row := range rows {
		for _, v := range row {
			if v == nil {
				return true
			}
		}
	}
	return false
}

// queryType returns the leading SQL keyword in upper case.
func queryType(sqlText string) string {
	fields := strings.Fields(strings.TrimSpace(sqlText))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
