package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	sdkjsonrpc "github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"dbguard/internal/config"
	dgmcp "dbguard/internal/mcp"

	_ "dbguard/toolsets/dsql"
	_ "dbguard/toolsets/dynamodb"
)

const testClusterConfig = `toolsets = ["dsql"]

[[clusters]]
name = "orders"
endpoint = "abc123.dsql.us-east-1.on.aws"
`

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(contents), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func TestBuildRuntimeMinimalConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Toolsets = []string{}

	toolCtx, reg, err := buildRuntime(cfg, io.Discard)
	if err != nil {
		t.Fatalf("buildRuntime failed: %v", err)
	}
	if toolCtx.Sessions == nil {
		t.Fatalf("expected session manager")
	}
	if toolCtx.Inspector == nil {
		t.Fatalf("expected inspector")
	}
	if reg == nil {
		t.Fatalf("expected registry")
	}
	if len(reg.Names()) != 0 {
		t.Fatalf("expected no tools registered")
	}
}

func TestBuildRuntimeRegistersToolsets(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Clusters = []config.Cluster{{Name: "orders", Endpoint: "abc123.dsql.us-east-1.on.aws"}}

	_, reg, err := buildRuntime(cfg, io.Discard)
	if err != nil {
		t.Fatalf("buildRuntime failed: %v", err)
	}
	names := reg.Names()
	if len(names) == 0 {
		t.Fatalf("expected tools from default toolsets")
	}
	found := map[string]bool{}
	for _, name := range names {
		found[name] = true
	}
	for _, want := range []string{"dsql.readonly_query", "dsql.list_tables", "dynamodb.analyze_table"} {
		if !found[want] {
			t.Fatalf("expected %s in %v", want, names)
		}
	}
}

func TestRunWithInMemoryTransport(t *testing.T) {
	configPath := writeTestConfig(t, testClusterConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := Run(ctx, Options{
		ConfigPath: configPath,
		Version:    "test",
		Stderr:     io.Discard,
		Transport:  fakeTransport{},
	})
	if time.Since(start) > time.Second {
		t.Fatalf("run took too long")
	}
	_ = err
}

func TestBuildRuntimeUnknownToolset(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Toolsets = []string{"missing"}

	_, _, err := buildRuntime(cfg, io.Discard)
	if err == nil {
		t.Fatalf("expected error for unknown toolset")
	}
}

func TestRunConfigLoadError(t *testing.T) {
	t.Setenv("DBGUARD_CONFIG", "")
	err := Run(context.Background(), Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Version:    "test",
		Stderr:     io.Discard,
		Transport:  fakeTransport{},
	})
	if err == nil {
		t.Fatalf("expected error for config load failure")
	}
}

func TestRunUsesEnvConfig(t *testing.T) {
	configPath := writeTestConfig(t, testClusterConfig)
	t.Setenv("DBGUARD_CONFIG", configPath)

	err := Run(context.Background(), Options{
		ConfigPath: "",
		Version:    "test",
		Stderr:     io.Discard,
		Transport:  fakeTransport{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunTransportError(t *testing.T) {
	configPath := writeTestConfig(t, testClusterConfig)
	err := Run(context.Background(), Options{
		ConfigPath: configPath,
		Version:    "test",
		Stderr:     io.Discard,
		Transport:  errorTransport{},
	})
	if err == nil {
		t.Fatalf("expected server error")
	}
}

func TestRunOverridesApplied(t *testing.T) {
	configPath := writeTestConfig(t, testClusterConfig)
	err := Run(context.Background(), Options{
		ConfigPath:         configPath,
		Region:             "us-west-2",
		Profile:            "staging",
		Toolsets:           []string{"dsql"},
		ReadOnly:           true,
		DisableDestructive: true,
		LogLevel:           "debug",
		Stderr:             nil,
		Transport:          fakeTransport{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunInitError(t *testing.T) {
	configPath := writeTestConfig(t, `toolsets = ["missing"]`)
	err := Run(context.Background(), Options{
		ConfigPath: configPath,
		Version:    "test",
		Stderr:     io.Discard,
		Transport:  fakeTransport{},
	})
	if err == nil {
		t.Fatalf("expected init error")
	}
}

func TestRunReloadSignal(t *testing.T) {
	configPath := writeTestConfig(t, testClusterConfig)
	done := make(chan struct{})
	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(context.Background(), Options{
			ConfigPath: configPath,
			Version:    "test",
			Stderr:     io.Discard,
			Transport:  blockingTransport{done: done},
		})
	}()
	time.Sleep(50 * time.Millisecond)
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGHUP)
	close(done)
	if err := <-runErr; err != nil {
		t.Fatalf("run: %v", err)
	}
}

type errorToolset struct {
	id string
}

func (t errorToolset) ID() string {
	return t.id
}

func (t errorToolset) Version() string {
	return "0.0.0"
}

func (t errorToolset) Init(dgmcp.ToolsetContext) error {
	return fmt.Errorf("init error")
}

func (t errorToolset) Register(dgmcp.Registry) error {
	return nil
}

type registerErrorToolset struct {
	id string
}

func (t registerErrorToolset) ID() string {
	return t.id
}

func (t registerErrorToolset) Version() string {
	return "0.0.0"
}

func (t registerErrorToolset) Init(dgmcp.ToolsetContext) error {
	return nil
}

func (t registerErrorToolset) Register(dgmcp.Registry) error {
	return fmt.Errorf("register error")
}

func TestBuildRuntimeToolsetInitError(t *testing.T) {
	id := fmt.Sprintf("test-init-%d", time.Now().UnixNano())
	if err := dgmcp.RegisterToolset(id, func() dgmcp.Toolset { return errorToolset{id: id} }); err != nil {
		t.Fatalf("register toolset: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Toolsets = []string{id}
	_, _, err := buildRuntime(cfg, io.Discard)
	if err == nil {
		t.Fatalf("expected init error")
	}
}

func TestBuildRuntimeToolsetRegisterError(t *testing.T) {
	id := fmt.Sprintf("test-register-%d", time.Now().UnixNano())
	if err := dgmcp.RegisterToolset(id, func() dgmcp.Toolset { return registerErrorToolset{id: id} }); err != nil {
		t.Fatalf("register toolset: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Toolsets = []string{id}
	_, _, err := buildRuntime(cfg, io.Discard)
	if err == nil {
		t.Fatalf("expected register error")
	}
}

type fakeTransport struct{}

func (fakeTransport) Connect(context.Context) (sdkmcp.Connection, error) {
	return &fakeConn{}, nil
}

type fakeConn struct{}

func (c *fakeConn) Read(context.Context) (sdkjsonrpc.Message, error) {
	return nil, io.EOF
}

func (c *fakeConn) Write(context.Context, sdkjsonrpc.Message) error {
	return nil
}

func (c *fakeConn) Close() error {
	return nil
}

func (c *fakeConn) SessionID() string {
	return "test"
}

type errorTransport struct{}

func (errorTransport) Connect(context.Context) (sdkmcp.Connection, error) {
	return nil, fmt.Errorf("connect error")
}

type blockingTransport struct {
	done chan struct{}
}

func (t blockingTransport) Connect(context.Context) (sdkmcp.Connection, error) {
	return &blockingConn{done: t.done}, nil
}

type blockingConn struct {
	done chan struct{}
}

func (c *blockingConn) Read(context.Context) (sdkjsonrpc.Message, error) {
	<-c.done
	return nil, io.EOF
}

func (c *blockingConn) Write(context.Context, sdkjsonrpc.Message) error {
	return nil
}

func (c *blockingConn) Close() error {
	return nil
}

func (c *blockingConn) SessionID() string {
	return "blocking"
}
