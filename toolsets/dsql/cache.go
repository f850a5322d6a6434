package dsql

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dbguard/internal/mcp"
)

// wrapSchemaCache memoizes the information_schema tools. Schema changes are
// rare relative to query traffic, so a short TTL keeps the chatty
// get_schema/describe_table loop off the cluster.
func (t *Toolset) wrapSchemaCache(spec mcp.ToolSpec) mcp.ToolSpec {
	if t.ctx.Cache == nil || t.ctx.Config == nil {
		return spec
	}
	ttlSeconds := t.ctx.Config.Cache.SchemaTTLSeconds
	if ttlSeconds <= 0 {
		return spec
	}
	return t.wrapCache(spec, "schema", time.Duration(ttlSeconds)*time.Second)
}

// wrapListCache memoizes control-plane list tools.
func (t *Toolset) wrapListCache(spec mcp.ToolSpec) mcp.ToolSpec {
	if t.ctx.Cache == nil || t.ctx.Config == nil {
		return spec
	}
	if !strings.Contains(spec.Name, ".list_") {
		return spec
	}
	ttlSeconds := t.ctx.Config.Cache.AWSListTTLSeconds
	if ttlSeconds <= 0 {
		return spec
	}
	return t.wrapCache(spec, "awslist", time.Duration(ttlSeconds)*time.Second)
}

func (t *Toolset) wrapCache(spec mcp.ToolSpec, prefix string, ttl time.Duration) mcp.ToolSpec {
	handler := spec.Handler
	spec.Handler = func(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
		key := toolCacheKey(prefix, spec.Name, req.Arguments)
		if cached, ok := t.ctx.Cache.Get(key); ok {
			return mcp.ToolResult{Data: cached}, nil
		}
		result, err := handler(ctx, req)
		if err == nil && result.Data != nil {
			t.ctx.Cache.Set(key, result.Data, ttl)
		}
		return result, err
	}
	return spec
}

func toolCacheKey(prefix, toolName string, args map[string]any) string {
	return fmt.Sprintf("%s:%s:%s", prefix, toolName, stableValue(args))
}

func stableValue(value any) string {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, stableValue(typed[key])))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, stableValue(item))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []string:
		return "[" + strings.Join(typed, ",") + "]"
	case string:
		return strings.TrimSpace(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
