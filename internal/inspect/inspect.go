// Package inspect reads table and column metadata from a cluster's
// information_schema for the schema tools.
package inspect

import (
	"context"
	"database/sql"

	"dbguard/internal/config"
)

type Table struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

type Column struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
	Position int    `json:"position"`
}

type Index struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

type Collector interface {
	ListTables(ctx context.Context, cluster config.Cluster) ([]Table, error)
	DescribeTable(ctx context.Context, cluster config.Cluster, schema, table string) ([]Column, error)
	ListIndexes(ctx context.Context, cluster config.Cluster, schema, table string) ([]Index, error)
}

const (
	listTablesQuery = `SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'sys')
ORDER BY table_schema, table_name`

	describeTableQuery = `SELECT column_name, data_type, is_nullable, COALESCE(column_default, ''), ordinal_position
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

	listIndexesQuery = `SELECT indexname, indexdef
FROM pg_indexes
WHERE schemaname = $1 AND tablename = $2
ORDER BY indexname`
)

// PoolProvider yields a pool for a cluster; satisfied by *dsql.Manager.
type PoolProvider interface {
	Pool(ctx context.Context, cluster config.Cluster, admin bool) (*sql.DB, error)
}

type SessionCollector struct {
	sessions PoolProvider
}

func NewCollector(sessions PoolProvider) *SessionCollector {
	return &SessionCollector{sessions: sessions}
}

func (c *SessionCollector) ListTables(ctx context.Context, cluster config.Cluster) ([]Table, error) {
	pool, err := c.sessions.Pool(ctx, cluster, true)
	if err != nil {
		return nil, err
	}
	rows, err := pool.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var table Table
		if err := rows.Scan(&table.Schema, &table.Name, &table.Type); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (c *SessionCollector) DescribeTable(ctx context.Context, cluster config.Cluster, schema, table string) ([]Column, error) {
	if schema == "" {
		schema = "public"
	}
	pool, err := c.sessions.Pool(ctx, cluster, true)
	if err != nil {
		return nil, err
	}
	rows, err := pool.QueryContext(ctx, describeTableQuery, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var column Column
		var nullable string
		if err := rows.Scan(&column.Name, &column.DataType, &nullable, &column.Default, &column.Position); err != nil {
			return nil, err
		}
		column.Nullable = nullable == "YES"
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func (c *SessionCollector) ListIndexes(ctx context.Context, cluster config.Cluster, schema, table string) ([]Index, error) {
	if schema == "" {
		schema = "public"
	}
	pool, err := c.sessions.Pool(ctx, cluster, true)
	if err != nil {
		return nil, err
	}
	rows, err := pool.QueryContext(ctx, listIndexesQuery, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var index Index
		if err := rows.Scan(&index.Name, &index.Definition); err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}
	return indexes, rows.Err()
}

var _ Collector = (*SessionCollector)(nil)
