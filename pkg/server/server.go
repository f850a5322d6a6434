package server

import (
	"context"
	"fmt"
	"io"
	"os"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"dbguard/internal/audit"
	"dbguard/internal/cache"
	"dbguard/internal/config"
	"dbguard/internal/dsql"
	"dbguard/internal/inspect"
	dgmcp "dbguard/internal/mcp"
	"dbguard/internal/policy"
	"dbguard/internal/redact"
	"dbguard/internal/render"
)

type Options struct {
	ConfigPath         string
	Region             string
	Profile            string
	Toolsets           []string
	ReadOnly           bool
	DisableDestructive bool
	LogLevel           string
	Version            string
	Stderr             io.Writer
	Transport          sdkmcp.Transport
}

func Run(ctx context.Context, opts Options) error {
	errOut := opts.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		if env := os.Getenv("DBGUARD_CONFIG"); env != "" {
			configPath = env
		}
	}
	overrides := config.Overrides{}
	if opts.Region != "" {
		overrides.Region = &opts.Region
	}
	if opts.Profile != "" {
		overrides.Profile = &opts.Profile
	}
	if len(opts.Toolsets) > 0 {
		overrides.Toolsets = &opts.Toolsets
	}
	if opts.ReadOnly {
		overrides.ReadOnly = &opts.ReadOnly
	}
	if opts.DisableDestructive {
		overrides.DisableDestructive = &opts.DisableDestructive
	}
	if opts.LogLevel != "" {
		overrides.LogLevel = &opts.LogLevel
	}

	cfg, err := config.Load(configPath, "", overrides)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	toolCtx, reg, err := buildRuntime(cfg, errOut)
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "dbguard", Version: opts.Version}, nil)
	toolNames, err := dgmcp.RegisterSDKTools(server, reg, toolCtx)
	if err != nil {
		return fmt.Errorf("tool registration failed: %w", err)
	}

	reloadCh := make(chan os.Signal, 1)
	notifyReload(reloadCh)
	go func() {
		prev := toolCtx
		for range reloadCh {
			cfg, err := config.Load(configPath, "", overrides)
			if err != nil {
				fmt.Fprintf(errOut, "config reload failed: %v\n", err)
				continue
			}
			toolCtx, reg, err := buildRuntime(cfg, errOut)
			if err != nil {
				fmt.Fprintf(errOut, "reload init failed: %v\n", err)
				continue
			}
			if len(toolNames) > 0 {
				server.RemoveTools(toolNames...)
			}
			toolNames, err = dgmcp.RegisterSDKTools(server, reg, toolCtx)
			if err != nil {
				fmt.Fprintf(errOut, "tool registration failed: %v\n", err)
				continue
			}
			// Old pools hold tokens minted under the previous config.
			if prev.Sessions != nil {
				prev.Sessions.Close()
			}
			if prev.Cache != nil {
				prev.Cache.Flush()
			}
			prev = toolCtx
		}
	}()

	transport := opts.Transport
	if transport == nil {
		transport = &sdkmcp.StdioTransport{}
	}
	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func buildRuntime(cfg config.Config, errOut io.Writer) (dgmcp.ToolContext, *dgmcp.ToolRegistry, error) {
	sessions := dsql.NewManager(cfg.Profile)
	authorizer := policy.NewAuthorizer()
	redactor := redact.New()
	renderer := render.NewRenderer()
	inspector := inspect.NewCollector(sessions)
	auditLogger := audit.NewLogger(errOut)
	serviceRegistry := dgmcp.NewServiceRegistry()
	store := cache.NewStore()
	reg := dgmcp.NewRegistry(&cfg)

	toolCtx := dgmcp.ToolContext{
		Config:    &cfg,
		Sessions:  sessions,
		Inspector: inspector,
		Policy:    authorizer,
		Renderer:  renderer,
		Redactor:  redactor,
		Audit:     auditLogger,
		Services:  serviceRegistry,
		Cache:     store,
		Registry:  reg,
	}
	toolCtx.Invoker = dgmcp.NewToolInvoker(reg, toolCtx)
	toolsetCtx := dgmcp.ToolsetContext(toolCtx)

	for _, id := range cfg.Toolsets {
		factory, ok := dgmcp.ToolsetFactoryFor(id)
		if !ok {
			return dgmcp.ToolContext{}, nil, fmt.Errorf("unknown toolset: %s", id)
		}
		toolset := factory()
		if err := toolset.Init(toolsetCtx); err != nil {
			return dgmcp.ToolContext{}, nil, err
		}
		if err := toolset.Register(reg); err != nil {
			return dgmcp.ToolContext{}, nil, err
		}
	}

	return toolCtx, reg, nil
}
