package dynamodb

func schemaListTables() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"region": map[string]any{"type": "string"}},
	}
}

func schemaDescribeTable() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":  map[string]any{"type": "string"},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"table"},
	}
}

func schemaAnalyzeTable() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":  map[string]any{"type": "string"},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"table"},
	}
}
