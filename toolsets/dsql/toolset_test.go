package dsql

import (
	"context"
	"testing"

	"dbguard/internal/cache"
	"dbguard/internal/config"
	sessions "dbguard/internal/dsql"
	"dbguard/internal/mcp"
	"dbguard/internal/redact"
	"dbguard/internal/render"
)

func newToolsetContext(t *testing.T) mcp.ToolsetContext {
	t.Helper()
	cfg := testConfig()
	return mcp.ToolsetContext{
		Config:    &cfg,
		Sessions:  sessions.NewManager(""),
		Inspector: newStubCollector(),
		Redactor:  redact.New(),
		Renderer:  render.NewRenderer(),
		Cache:     cache.NewStore(),
	}
}

func TestToolsetInitValidation(t *testing.T) {
	ts := New()
	if err := ts.Init(mcp.ToolsetContext{}); err == nil {
		t.Fatalf("expected error without session manager")
	}
	cfg := config.DefaultConfig()
	if err := ts.Init(mcp.ToolsetContext{Config: &cfg, Sessions: sessions.NewManager("")}); err == nil {
		t.Fatalf("expected error without inspector")
	}
	if err := ts.Init(newToolsetContext(t)); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func TestToolsetRegistersAllTools(t *testing.T) {
	ts := New()
	if err := ts.Init(newToolsetContext(t)); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg := testConfig()
	reg := mcp.NewRegistry(&cfg)
	if err := ts.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	expected := []string{
		"dsql.describe_table",
		"dsql.get_cluster",
		"dsql.get_schema",
		"dsql.list_clusters",
		"dsql.list_tables",
		"dsql.readonly_query",
		"dsql.transact",
	}
	names := reg.Names()
	if len(names) != len(expected) {
		t.Fatalf("expected %d tools, got %v", len(expected), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("expected %s at %d, got %v", name, i, names)
		}
	}
}

func TestToolsetReadOnlyModeDropsTransact(t *testing.T) {
	ts := New()
	ctx := newToolsetContext(t)
	ctx.Config.ReadOnly = true
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	reg := mcp.NewRegistry(ctx.Config)
	if err := ts.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := reg.Get("dsql.transact"); ok {
		t.Fatalf("transact must not register in read-only mode")
	}
	if _, ok := reg.Get("dsql.readonly_query"); !ok {
		t.Fatalf("readonly_query must register in read-only mode")
	}
}

func TestSchemaCacheWrapper(t *testing.T) {
	ts := New()
	ctx := newToolsetContext(t)
	collector := newStubCollector()
	ctx.Inspector = collector
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg := ctx.Config
	reg := mcp.NewRegistry(cfg)
	if err := ts.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	spec, ok := reg.Get("dsql.list_tables")
	if !ok {
		t.Fatalf("list_tables not registered")
	}
	req := mcp.ToolRequest{Arguments: map[string]any{}}
	if _, err := spec.Handler(context.Background(), req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := spec.Handler(context.Background(), req); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if collector.listCalls != 1 {
		t.Fatalf("expected cached second call, got %d list calls", collector.listCalls)
	}
}

func TestStableValueDeterministic(t *testing.T) {
	args := map[string]any{"b": "2", "a": []any{"x", "y"}}
	first := toolCacheKey("schema", "dsql.list_tables", args)
	second := toolCacheKey("schema", "dsql.list_tables", args)
	if first != second {
		t.Fatalf("cache key not deterministic: %s vs %s", first, second)
	}
}
