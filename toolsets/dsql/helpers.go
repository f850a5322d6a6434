package dsql

import (
	"fmt"
	"strings"

	"dbguard/internal/config"
	"dbguard/internal/mcp"
)

func errorResult(err error) mcp.ToolResult {
	return mcp.ToolResult{Data: map[string]any{"error": err.Error()}}
}

func toString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, toString(item))
		}
		return out
	}
	return nil
}

func resolveCluster(cfg *config.Config, args map[string]any) (config.Cluster, error) {
	name := strings.TrimSpace(toString(args["cluster"]))
	if cfg == nil {
		return config.Cluster{}, fmt.Errorf("no clusters configured")
	}
	cluster, ok := cfg.ClusterByName(name)
	if !ok {
		if name == "" {
			return config.Cluster{}, fmt.Errorf("cluster is required when multiple clusters are configured")
		}
		return config.Cluster{}, fmt.Errorf("cluster not found: %s", name)
	}
	return cluster, nil
}
