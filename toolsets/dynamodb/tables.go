package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dbguard/internal/mcp"
)

type tableService struct {
	ctx       mcp.ToolsetContext
	client    func(context.Context, string) (*awsdynamodb.Client, string, error)
	toolsetID string
}

func tableToolSpecs(ctx mcp.ToolsetContext, toolsetID string, client func(context.Context, string) (*awsdynamodb.Client, string, error)) []mcp.ToolSpec {
	svc := &tableService{ctx: ctx, client: client, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "dynamodb.list_tables",
			Description: "List DynamoDB tables in a region.",
			ToolsetID:   toolsetID,
			InputSchema: schemaListTables(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleListTables,
		},
		{
			Name:        "dynamodb.describe_table",
			Description: "Describe a DynamoDB table's keys, indexes, and capacity.",
			ToolsetID:   toolsetID,
			InputSchema: schemaDescribeTable(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleDescribeTable,
		},
		{
			Name:        "dynamodb.analyze_table",
			Description: "Analyze a table's key design, capacity mode, indexes, and TTL.",
			ToolsetID:   toolsetID,
			InputSchema: schemaAnalyzeTable(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleAnalyzeTable,
		},
	}
}

func (s *tableService) handleListTables(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	var tables []string
	paginator := awsdynamodb.NewListTablesPaginator(client, &awsdynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errorResult(err), err
		}
		tables = append(tables, page.TableNames...)
	}
	return mcp.ToolResult{Data: map[string]any{
		"region": usedRegion,
		"tables": tables,
		"count":  len(tables),
	}}, nil
}

func (s *tableService) handleDescribeTable(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	table, err := requiredTable(req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	client, usedRegion, err := s.client(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"region": usedRegion,
			"table":  summarizeTable(out.Table),
		},
		Metadata: mcp.ToolMetadata{Resources: []string{table}},
	}, nil
}

func (s *tableService) handleAnalyzeTable(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	table, err := requiredTable(req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	client, usedRegion, err := s.client(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return errorResult(err), err
	}
	ttl, err := client.DescribeTimeToLive(ctx, &awsdynamodb.DescribeTimeToLiveInput{TableName: aws.String(table)})
	if err != nil {
		return errorResult(err), err
	}
	findings := analyzeTable(out.Table, ttl.TimeToLiveDescription)
	return mcp.ToolResult{
		Data: map[string]any{
			"region":   usedRegion,
			"table":    summarizeTable(out.Table),
			"findings": findings,
		},
		Metadata: mcp.ToolMetadata{Resources: []string{table}},
	}, nil
}

func summarizeTable(table *ddbtypes.TableDescription) map[string]any {
	if table == nil {
		return nil
	}
	keys := make([]map[string]any, 0, len(table.KeySchema))
	for _, key := range table.KeySchema {
		keys = append(keys, map[string]any{
			"attribute": aws.ToString(key.AttributeName),
			"keyType":   string(key.KeyType),
		})
	}
	indexes := make([]map[string]any, 0, len(table.GlobalSecondaryIndexes))
	for _, index := range table.GlobalSecondaryIndexes {
		entry := map[string]any{
			"name":   aws.ToString(index.IndexName),
			"status": string(index.IndexStatus),
		}
		if index.Projection != nil {
			entry["projection"] = string(index.Projection.ProjectionType)
		}
		indexes = append(indexes, entry)
	}
	summary := map[string]any{
		"name":           aws.ToString(table.TableName),
		"status":         string(table.TableStatus),
		"keySchema":      keys,
		"itemCount":      aws.ToInt64(table.ItemCount),
		"tableSizeBytes": aws.ToInt64(table.TableSizeBytes),
		"billingMode":    billingMode(table),
		"indexes":        indexes,
	}
	if table.ProvisionedThroughput != nil {
		summary["readCapacityUnits"] = aws.ToInt64(table.ProvisionedThroughput.ReadCapacityUnits)
		summary["writeCapacityUnits"] = aws.ToInt64(table.ProvisionedThroughput.WriteCapacityUnits)
	}
	return summary
}

// analyzeTable turns the raw description into findings the model can act on.
func analyzeTable(table *ddbtypes.TableDescription, ttl *ddbtypes.TimeToLiveDescription) []string {
	if table == nil {
		return nil
	}
	var findings []string

	hasRange := false
	for _, key := range table.KeySchema {
		if key.KeyType == ddbtypes.KeyTypeRange {
			hasRange = true
		}
	}
	if !hasRange {
		findings = append(findings, "partition key only; every read is a point lookup and range queries need a GSI or a scan")
	}

	mode := billingMode(table)
	if mode == string(ddbtypes.BillingModeProvisioned) && table.ProvisionedThroughput != nil {
		read := aws.ToInt64(table.ProvisionedThroughput.ReadCapacityUnits)
		write := aws.ToInt64(table.ProvisionedThroughput.WriteCapacityUnits)
		findings = append(findings, fmt.Sprintf("provisioned capacity: %d RCU / %d WCU; throttling occurs beyond these rates", read, write))
	}
	if mode == string(ddbtypes.BillingModePayPerRequest) {
		findings = append(findings, "on-demand billing; no capacity planning needed but per-request cost is higher at steady load")
	}

	if len(table.GlobalSecondaryIndexes) == 0 {
		findings = append(findings, "no global secondary indexes; only key-based access patterns are efficient")
	}
	for _, index := range table.GlobalSecondaryIndexes {
		if index.Projection != nil && index.Projection.ProjectionType == ddbtypes.ProjectionTypeAll {
			findings = append(findings, fmt.Sprintf("GSI %s projects all attributes; KEYS_ONLY or INCLUDE would cut its storage and write cost", aws.ToString(index.IndexName)))
		}
	}

	if ttl == nil || ttl.TimeToLiveStatus != ddbtypes.TimeToLiveStatusEnabled {
		findings = append(findings, "TTL disabled; expired items accumulate until deleted explicitly")
	}
	return findings
}

func billingMode(table *ddbtypes.TableDescription) string {
	if table.BillingModeSummary != nil {
		return string(table.BillingModeSummary.BillingMode)
	}
	// Tables created before on-demand existed report no summary.
	return string(ddbtypes.BillingModeProvisioned)
}

func requiredTable(args map[string]any) (string, error) {
	table := strings.TrimSpace(toString(args["table"]))
	if table == "" {
		return "", errors.New("table is required")
	}
	return table, nil
}

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
