package dsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	awsdsql "github.com/aws/aws-sdk-go-v2/service/dsql"

	"dbguard/internal/awsconf"
	"dbguard/internal/mcp"
)

type Toolset struct {
	ctx     mcp.ToolsetContext
	mu      sync.Mutex
	clients map[string]clientEntry
}

type clientEntry struct {
	client *awsdsql.Client
	region string
}

func New() *Toolset {
	return &Toolset{}
}

func init() {
	mcp.MustRegisterToolset("dsql", func() mcp.Toolset {
		return New()
	})
}

func (t *Toolset) ID() string {
	return "dsql"
}

func (t *Toolset) Version() string {
	return "0.1.0"
}

func (t *Toolset) Init(ctx mcp.ToolsetContext) error {
	if ctx.Sessions == nil {
		return errors.New("missing session manager")
	}
	if ctx.Inspector == nil {
		return errors.New("missing schema inspector")
	}
	t.ctx = ctx
	t.clients = map[string]clientEntry{}
	return nil
}

func (t *Toolset) Register(reg mcp.Registry) error {
	for _, tool := range queryToolSpecs(t.ctx, t.ID(), t.ctx.Sessions) {
		if err := reg.Add(tool); err != nil {
			return fmt.Errorf("register %s: %w", tool.Name, err)
		}
	}
	for _, tool := range inspectToolSpecs(t.ctx, t.ID(), t.ctx.Inspector) {
		tool = t.wrapSchemaCache(tool)
		if err := reg.Add(tool); err != nil {
			return fmt.Errorf("register %s: %w", tool.Name, err)
		}
	}
	for _, tool := range clusterToolSpecs(t.ctx, t.ID(), t.controlClient) {
		tool = t.wrapListCache(tool)
		if err := reg.Add(tool); err != nil {
			return fmt.Errorf("register %s: %w", tool.Name, err)
		}
	}
	return nil
}

// controlClient returns a cached Aurora DSQL control-plane client for the
// requested region.
func (t *Toolset) controlClient(ctx context.Context, region string) (*awsdsql.Client, string, error) {
	cacheKey := t.clientCacheKey(region)
	t.mu.Lock()
	if entry, ok := t.clients[cacheKey]; ok {
		t.mu.Unlock()
		return entry.client, entry.region, nil
	}
	t.mu.Unlock()

	cfg, err := awsconf.LoadConfig(ctx, t.resolveRegion(region), t.profile())
	if err != nil {
		return nil, "", err
	}
	client := awsdsql.NewFromConfig(cfg)
	usedRegion := strings.TrimSpace(cfg.Region)
	t.mu.Lock()
	t.clients[cacheKey] = clientEntry{client: client, region: usedRegion}
	t.mu.Unlock()
	return client, usedRegion, nil
}

func (t *Toolset) resolveRegion(region string) string {
	region = strings.TrimSpace(region)
	if region != "" {
		return region
	}
	if t.ctx.Config != nil {
		return strings.TrimSpace(t.ctx.Config.Region)
	}
	return ""
}

func (t *Toolset) profile() string {
	if t.ctx.Config == nil {
		return ""
	}
	return strings.TrimSpace(t.ctx.Config.Profile)
}

func (t *Toolset) clientCacheKey(region string) string {
	cacheKey := awsconf.ResolveRegion(t.resolveRegion(region))
	if cacheKey == "" {
		cacheKey = "default"
	}
	if profile := t.profile(); profile != "" {
		cacheKey = profile + "|" + cacheKey
	}
	return cacheKey
}
