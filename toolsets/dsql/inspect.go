package dsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dbguard/internal/inspect"
	"dbguard/internal/mcp"
)

type inspectService struct {
	ctx       mcp.ToolsetContext
	inspector inspect.Collector
	toolsetID string
}

func inspectToolSpecs(ctx mcp.ToolsetContext, toolsetID string, inspector inspect.Collector) []mcp.ToolSpec {
	svc := &inspectService{ctx: ctx, inspector: inspector, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "dsql.get_schema",
			Description: "Return every user table with its columns.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetSchema(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetSchema,
		},
		{
			Name:        "dsql.list_tables",
			Description: "List user tables and views on a cluster.",
			ToolsetID:   toolsetID,
			InputSchema: schemaListTables(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleListTables,
		},
		{
			Name:        "dsql.describe_table",
			Description: "Describe a table's columns and indexes.",
			ToolsetID:   toolsetID,
			InputSchema: schemaDescribeTable(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleDescribeTable,
		},
	}
}

func (s *inspectService) handleListTables(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	cluster, err := resolveCluster(s.ctx.Config, req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	tables, err := s.inspector.ListTables(ctx, cluster)
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"cluster": cluster.Name,
			"tables":  tables,
			"count":   len(tables),
		},
		Metadata: mcp.ToolMetadata{Cluster: cluster.Name},
	}, nil
}

func (s *inspectService) handleDescribeTable(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	table := strings.TrimSpace(toString(req.Arguments["table"]))
	if table == "" {
		err := errors.New("table is required")
		return errorResult(err), err
	}
	schema := strings.TrimSpace(toString(req.Arguments["schema"]))
	cluster, err := resolveCluster(s.ctx.Config, req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	columns, err := s.inspector.DescribeTable(ctx, cluster, schema, table)
	if err != nil {
		return errorResult(err), err
	}
	if len(columns) == 0 {
		err := fmt.Errorf("table not found: %s", table)
		return errorResult(err), err
	}
	indexes, err := s.inspector.ListIndexes(ctx, cluster, schema, table)
	if err != nil {
		return errorResult(err), err
	}
	if schema == "" {
		schema = "public"
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"cluster": cluster.Name,
			"schema":  schema,
			"table":   table,
			"columns": columns,
			"indexes": indexes,
		},
		Metadata: mcp.ToolMetadata{
			Cluster:   cluster.Name,
			Resources: []string{schema + "." + table},
		},
	}, nil
}

func (s *inspectService) handleGetSchema(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	cluster, err := resolveCluster(s.ctx.Config, req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	schemaFilter := strings.TrimSpace(toString(req.Arguments["schema"]))
	tables, err := s.inspector.ListTables(ctx, cluster)
	if err != nil {
		return errorResult(err), err
	}
	out := make([]map[string]any, 0, len(tables))
	for _, table := range tables {
		if schemaFilter != "" && table.Schema != schemaFilter {
			continue
		}
		columns, err := s.inspector.DescribeTable(ctx, cluster, table.Schema, table.Name)
		if err != nil {
			return errorResult(err), err
		}
		out = append(out, map[string]any{
			"schema":  table.Schema,
			"name":    table.Name,
			"type":    table.Type,
			"columns": columns,
		})
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"cluster": cluster.Name,
			"tables":  out,
			"count":   len(out),
		},
		Metadata: mcp.ToolMetadata{Cluster: cluster.Name},
	}, nil
}
