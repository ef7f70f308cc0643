// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package executor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/teradata-labs/sqlbench/pkg/types"
)

// Column describes one column of a reference table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table describes one reference table.
type Table struct {
	Columns []Column `json:"columns"`
}

// Schema is the snapshot of the reference database: table name ->
// table description. Lookups are case-insensitive; keys are stored
// lower-cased.
type Schema map[string]Table

// HasTable reports whether the schema contains a table.
func (s Schema) HasTable(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

// HasColumn reports whether any table carries the column.
func (s Schema) HasColumn(name string) bool {
	name = strings.ToLower(name)
	for _, table := range s {
		for _, col := range table.Columns {
			if strings.ToLower(col.Name) == name {
				return true
			}
		}
	}
	return false
}

// TableHasColumn reports whether one specific table carries the column.
func (s Schema) TableHasColumn(table, column string) bool {
	t, ok := s[strings.ToLower(table)]
	if !ok {
		return false
	}
	column = strings.ToLower(column)
	for _, col := range t.Columns {
		if strings.ToLower(col.Name) == column {
			return true
		}
	}
	return false
}

// Schema returns the cached schema snapshot, computing it on first
// use.
func (a *Adapter) Schema(ctx context.Context) (Schema, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.schema != nil {
		return a.schema, nil
	}
	schema, err := a.introspect(ctx)
	if err != nil {
		return nil, err
	}
	a.schema = schema
	return schema, nil
}

// RefreshSchema drops the cached snapshot; the next Schema call
// recomputes it.
func (a *Adapter) RefreshSchema() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schema = nil
}

func (a *Adapter) introspect(ctx context.Context) (Schema, error) {
	switch a.dialect {
	case types.DialectSQLite, types.DialectDuckDB:
		return a.introspectSQLite(ctx)
	default:
		return a.introspectInformationSchema(ctx)
	}
}

func (a *Adapter) introspectSQLite(ctx context.Context) (Schema, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	schema := Schema{}
	for _, table := range tables {
		cols, err := a.sqliteColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		schema[strings.ToLower(table)] = Table{Columns: cols}
	}
	return schema, nil
}

func (a *Adapter) sqliteColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, Type: colType})
	}
	return cols, rows.Err()
}

func (a *Adapter) introspectInformationSchema(ctx context.Context) (Schema, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'mysql', 'performance_schema', 'sys')
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read information_schema: %w", err)
	}
	defer rows.Close()

	schema := Schema{}
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, err
		}
		key := strings.ToLower(table)
		t := schema[key]
		t.Columns = append(t.Columns, Column{Name: column, Type: dataType})
		schema[key] = t
	}
	return schema, rows.Err()
}

// ToWire serializes the schema into the mapping sent to candidates:
// table -> {columns: [{name, type}]}.
func (s Schema) ToWire() map[string]any {
	out := map[string]any{}
	for name, table := range s {
		cols := make([]map[string]string, 0, len(table.Columns))
		for _, c := range table.Columns {
			cols = append(cols, map[string]string{"name": c.Name, "type": c.Type})
		}
		out[name] = map[string]any{"columns": cols}
	}
	return out
}

// SQL identifier scanning. A lightweight tokenizer is enough here:
// phantom detection needs identifier boundaries, not a full parser.
var (
	tableRefPattern  = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	qualifiedPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)`)
	aliasPattern     = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s+AS)?\s+([A-Za-z_][A-Za-z0-9_]*)`)
	identPattern     = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "join": true, "inner": true,
	"left": true, "right": true, "outer": true, "on": true, "as": true,
	"group": true, "by": true, "order": true, "having": true, "limit": true,
	"offset": true, "and": true, "or": true, "not": true, "in": true,
	"like": true, "between": true, "is": true, "null": true, "distinct": true,
	"union": true, "all": true, "case": true, "when": true, "then": true,
	"else": true, "end": true, "asc": true, "desc": true, "cross": true,
	"using": true, "exists": true,
}

// referencedTables returns the table identifiers named after FROM and
// JOIN, lower-cased and deduplicated.
func referencedTables(sqlText string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(sqlText, -1) {
		name := strings.ToLower(m[1])
		if sqlKeywords[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// tableAliases maps alias -> table for FROM/JOIN clauses with an alias.
func tableAliases(sqlText string) map[string]string {
	aliases := map[string]string{}
	for _, m := range aliasPattern.FindAllStringSubmatch(sqlText, -1) {
		table := strings.ToLower(m[1])
		alias := strings.ToLower(m[2])
		if sqlKeywords[alias] || sqlKeywords[table] {
			continue
		}
		aliases[alias] = table
	}
	return aliases
}

// PhantomIdentifiers returns the tables and columns referenced by the
// SQL that do not exist in the schema. Column checks cover qualified
// references (alias or table prefix); a column is phantom when its
// resolved table exists but lacks it.
func (s Schema) PhantomIdentifiers(sqlText string) (tables, columns []string) {
	aliases := tableAliases(sqlText)

	for _, table := range referencedTables(sqlText) {
		if !s.HasTable(table) {
			tables = append(tables, table)
		}
	}

	seenCols := map[string]bool{}
	for _, m := range qualifiedPattern.FindAllStringSubmatch(sqlText, -1) {
		prefix := strings.ToLower(m[1])
		column := strings.ToLower(m[2])
		if sqlKeywords[prefix] || sqlKeywords[column] {
			continue
		}
		table := prefix
		if resolved, ok := aliases[prefix]; ok {
			table = resolved
		}
		if !s.HasTable(table) {
			// Already reported as a phantom table.
			continue
		}
		if !s.TableHasColumn(table, column) && !seenCols[column] {
			seenCols[column] = true
			columns = append(columns, column)
		}
	}

	sort.Strings(tables)
	sort.Strings(columns)
	return tables, columns
}

// referencedColumns lists the known schema columns the SQL mentions.
func referencedColumns(sqlText string, schema Schema) []string {
	seen := map[string]bool{}
	var out []string
	for _, token := range identPattern.FindAllString(sqlText, -1) {
		lower := strings.ToLower(token)
		if sqlKeywords[lower] || seen[lower] {
			continue
		}
		if schema.HasColumn(lower) {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	sort.Strings(out)
	return out
}

// SetupSampleData creates and populates the sample customers and
// orders tables used by the built-in catalog.
func (a *Adapter) SetupSampleData(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			city TEXT,
			phone TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER,
			order_date TEXT,
			total REAL,
			status TEXT DEFAULT 'pending',
			FOREIGN KEY (customer_id) REFERENCES customers(id)
		)`,
		`INSERT OR IGNORE INTO customers (id, name, email, city, phone) VALUES
			(1, 'Alice Johnson', 'alice@example.com', 'New York', '555-0101'),
			(2, 'Bob Smith', 'bob@example.com', 'Los Angeles', '555-0102'),
			(3, 'Charlie Brown', 'charlie@example.com', 'Chicago', '555-0103'),
			(4, 'Diana Ross', 'diana@example.com', 'New York', '555-0104'),
			(5, 'Edward Kim', 'edward@example.com', 'San Francisco', NULL)`,
		`INSERT OR IGNORE INTO orders (id, customer_id, order_date, total, status) VALUES
			(1, 1, '2024-01-15', 150.00, 'completed'),
			(2, 1, '2024-02-20', 75.50, 'completed'),
			(3, 2, '2024-01-25', 200.00, 'completed'),
			(4, 3, '2024-03-01', 50.00, 'pending'),
			(5, 4, '2024-03-10', 1200.00, 'completed')`,
	}
	for _, stmt := range stmts {
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("sample data setup failed: %w", err)
		}
	}
	a.RefreshSchema()
	return nil
}
