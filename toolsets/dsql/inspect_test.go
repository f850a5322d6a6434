package dsql

import (
	"context"
	"strings"
	"testing"

	"dbguard/internal/config"
	"dbguard/internal/inspect"
	"dbguard/internal/mcp"
)

type stubCollector struct {
	tables     []inspect.Table
	columns    map[string][]inspect.Column
	indexes    map[string][]inspect.Index
	listCalls  int
	descCalls  int
	indexCalls int
}

func (c *stubCollector) ListTables(context.Context, config.Cluster) ([]inspect.Table, error) {
	c.listCalls++
	return c.tables, nil
}

func (c *stubCollector) DescribeTable(_ context.Context, _ config.Cluster, _, table string) ([]inspect.Column, error) {
	c.descCalls++
	return c.columns[table], nil
}

func (c *stubCollector) ListIndexes(_ context.Context, _ config.Cluster, _, table string) ([]inspect.Index, error) {
	c.indexCalls++
	return c.indexes[table], nil
}

func newStubCollector() *stubCollector {
	return &stubCollector{
		tables: []inspect.Table{
			{Schema: "public", Name: "accounts", Type: "BASE TABLE"},
			{Schema: "audit", Name: "events", Type: "BASE TABLE"},
		},
		columns: map[string][]inspect.Column{
			"accounts": {
				{Name: "id", DataType: "bigint", Position: 1},
				{Name: "name", DataType: "text", Nullable: true, Position: 2},
			},
			"events": {
				{Name: "id", DataType: "bigint", Position: 1},
			},
		},
		indexes: map[string][]inspect.Index{
			"accounts": {{Name: "accounts_pkey", Definition: "CREATE UNIQUE INDEX accounts_pkey ON public.accounts USING btree (id)"}},
		},
	}
}

func newInspectService(t *testing.T, collector inspect.Collector) *inspectService {
	t.Helper()
	cfg := testConfig()
	return &inspectService{
		ctx:       mcp.ToolsetContext{Config: &cfg},
		inspector: collector,
		toolsetID: "dsql",
	}
}

func TestListTablesTool(t *testing.T) {
	svc := newInspectService(t, newStubCollector())
	result, err := svc.handleListTables(context.Background(), mcp.ToolRequest{Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["count"] != 2 {
		t.Fatalf("expected two tables, got %#v", data)
	}
	if result.Metadata.Cluster != "orders" {
		t.Fatalf("expected cluster metadata, got %#v", result.Metadata)
	}
}

func TestDescribeTableTool(t *testing.T) {
	svc := newInspectService(t, newStubCollector())
	result, err := svc.handleDescribeTable(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"table": "accounts",
	}})
	if err != nil {
		t.Fatalf("describe table: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["schema"] != "public" || data["table"] != "accounts" {
		t.Fatalf("unexpected data: %#v", data)
	}
	columns := data["columns"].([]inspect.Column)
	if len(columns) != 2 {
		t.Fatalf("expected two columns, got %#v", columns)
	}
	indexes := data["indexes"].([]inspect.Index)
	if len(indexes) != 1 || indexes[0].Name != "accounts_pkey" {
		t.Fatalf("unexpected indexes: %#v", indexes)
	}
}

func TestDescribeTableToolValidation(t *testing.T) {
	svc := newInspectService(t, newStubCollector())
	_, err := svc.handleDescribeTable(context.Background(), mcp.ToolRequest{Arguments: map[string]any{}})
	if err == nil || !strings.Contains(err.Error(), "table is required") {
		t.Fatalf("expected table required, got %v", err)
	}
	_, err = svc.handleDescribeTable(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"table": "missing",
	}})
	if err == nil || !strings.Contains(err.Error(), "table not found") {
		t.Fatalf("expected table not found, got %v", err)
	}
}

func TestGetSchemaTool(t *testing.T) {
	collector := newStubCollector()
	svc := newInspectService(t, collector)
	result, err := svc.handleGetSchema(context.Background(), mcp.ToolRequest{Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("get schema: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["count"] != 2 {
		t.Fatalf("expected two tables, got %#v", data)
	}
	if collector.descCalls != 2 {
		t.Fatalf("expected one describe per table, got %d", collector.descCalls)
	}
}

func TestGetSchemaToolFilter(t *testing.T) {
	svc := newInspectService(t, newStubCollector())
	result, err := svc.handleGetSchema(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"schema": "audit",
	}})
	if err != nil {
		t.Fatalf("get schema: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["count"] != 1 {
		t.Fatalf("expected one table in audit schema, got %#v", data)
	}
}
