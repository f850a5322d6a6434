package dsql

func schemaReadonlyQuery() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sql":     map[string]any{"type": "string", "description": "A single read-only SQL statement."},
			"cluster": map[string]any{"type": "string", "description": "Configured cluster name; optional when exactly one cluster is configured."},
		},
		"required": []string{"sql"},
	}
}

func schemaTransact() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"statements": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Statements executed in order inside one transaction.",
			},
			"sql":     map[string]any{"type": "string", "description": "Shorthand for a single statement."},
			"cluster": map[string]any{"type": "string"},
		},
	}
}

func schemaGetSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster": map[string]any{"type": "string"},
			"schema":  map[string]any{"type": "string", "description": "Restrict to one schema."},
		},
	}
}

func schemaListTables() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster": map[string]any{"type": "string"},
		},
	}
}

func schemaDescribeTable() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster": map[string]any{"type": "string"},
			"schema":  map[string]any{"type": "string"},
			"table":   map[string]any{"type": "string"},
		},
		"required": []string{"table"},
	}
}

func schemaListClusters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"region": map[string]any{"type": "string"}},
	}
}

func schemaGetCluster() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"identifier": map[string]any{"type": "string"},
			"region":     map[string]any{"type": "string"},
		},
		"required": []string{"identifier"},
	}
}
