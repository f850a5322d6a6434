package dsql

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdsql "github.com/aws/aws-sdk-go-v2/service/dsql"

	"dbguard/internal/mcp"
)

type clusterService struct {
	ctx       mcp.ToolsetContext
	client    func(context.Context, string) (*awsdsql.Client, string, error)
	toolsetID string
}

func clusterToolSpecs(ctx mcp.ToolsetContext, toolsetID string, client func(context.Context, string) (*awsdsql.Client, string, error)) []mcp.ToolSpec {
	svc := &clusterService{ctx: ctx, client: client, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "dsql.list_clusters",
			Description: "List Aurora DSQL clusters in a region.",
			ToolsetID:   toolsetID,
			InputSchema: schemaListClusters(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleListClusters,
		},
		{
			Name:        "dsql.get_cluster",
			Description: "Get an Aurora DSQL cluster's status and properties.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetCluster(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetCluster,
		},
	}
}

func (s *clusterService) handleListClusters(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	var clusters []map[string]any
	paginator := awsdsql.NewListClustersPaginator(client, &awsdsql.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errorResult(err), err
		}
		for _, cluster := range page.Clusters {
			clusters = append(clusters, map[string]any{
				"identifier": aws.ToString(cluster.Identifier),
				"arn":        aws.ToString(cluster.Arn),
			})
		}
	}
	// Control-plane output carries no credentials, and cluster identifiers
	// are token-shaped lowercase strings the redactor would eat.
	return mcp.ToolResult{Data: map[string]any{
		"region":   usedRegion,
		"clusters": clusters,
		"count":    len(clusters),
	}}, nil
}

func (s *clusterService) handleGetCluster(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	identifier := strings.TrimSpace(toString(req.Arguments["identifier"]))
	if identifier == "" {
		err := errors.New("identifier is required")
		return errorResult(err), err
	}
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.GetCluster(ctx, &awsdsql.GetClusterInput{Identifier: aws.String(identifier)})
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{Data: map[string]any{
		"region":                    usedRegion,
		"identifier":                aws.ToString(out.Identifier),
		"arn":                       aws.ToString(out.Arn),
		"status":                    string(out.Status),
		"creationTime":              aws.ToTime(out.CreationTime),
		"deletionProtectionEnabled": aws.ToBool(out.DeletionProtectionEnabled),
	}}, nil
}
