package dsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dbguard/internal/config"
	"dbguard/internal/mcp"
	"dbguard/internal/render"
	"dbguard/internal/sqlsafety"
)

// txProvider is the slice of the session manager the query tools need.
type txProvider interface {
	ReadOnlyTx(ctx context.Context, cluster config.Cluster, admin bool) (*sql.Tx, error)
	WriteTx(ctx context.Context, cluster config.Cluster) (*sql.Tx, error)
}

type queryService struct {
	ctx       mcp.ToolsetContext
	sessions  txProvider
	toolsetID string
}

func queryToolSpecs(ctx mcp.ToolsetContext, toolsetID string, sessions txProvider) []mcp.ToolSpec {
	svc := &queryService{ctx: ctx, sessions: sessions, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "dsql.readonly_query",
			Description: "Run a read-only SQL statement against a cluster after safety screening.",
			ToolsetID:   toolsetID,
			InputSchema: schemaReadonlyQuery(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleReadonlyQuery,
		},
		{
			Name:        "dsql.transact",
			Description: "Run one or more statements inside a single server-owned read-write transaction.",
			ToolsetID:   toolsetID,
			InputSchema: schemaTransact(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleTransact,
		},
	}
}

func (s *queryService) handleReadonlyQuery(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	statement := strings.TrimSpace(toString(req.Arguments["sql"]))
	if statement == "" {
		err := errors.New("sql is required")
		return errorResult(err), err
	}
	cluster, err := s.resolveCluster(req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	if err := s.checkStatementLength(statement); err != nil {
		return errorResult(err), err
	}

	if err := screenStatement(statement, s.rejectInjection(), true); err != nil {
		return errorResult(err), err
	}
	// Findings below the rejection threshold ride along as warnings.
	findings := sqlsafety.CheckInjectionRisk(statement)

	tx, err := s.sessions.ReadOnlyTx(ctx, cluster, true)
	if err != nil {
		return errorResult(err), err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return errorResult(err), err
	}
	rs, err := render.ScanRows(rows, s.limits())
	_ = rows.Close()
	if err != nil {
		return errorResult(err), err
	}

	data := s.renderResult(rs)
	if len(findings) > 0 {
		data["warnings"] = findings
	}
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(data),
		Metadata: mcp.ToolMetadata{
			Cluster:       cluster.Name,
			StatementType: sqlsafety.QueryType(statement),
		},
	}, nil
}

func (s *queryService) handleTransact(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	if s.ctx.Config != nil && s.ctx.Config.ReadOnly {
		err := &mcp.RejectionError{Reason: "write operation prohibited in read-only mode"}
		return errorResult(err), err
	}
	statements, err := statementList(req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	cluster, err := s.resolveCluster(req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	for _, statement := range statements {
		if err := s.checkStatementLength(statement); err != nil {
			return errorResult(err), err
		}
		// The server owns the transaction; statements carrying their own
		// transaction control are rejected even on the write path.
		if err := screenStatement(statement, s.rejectInjection(), false); err != nil {
			return errorResult(err), err
		}
	}

	tx, err := s.sessions.WriteTx(ctx, cluster)
	if err != nil {
		return errorResult(err), err
	}
	results := make([]map[string]any, 0, len(statements))
	for i, statement := range statements {
		res, err := tx.ExecContext(ctx, statement)
		if err != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("statement %d: %w", i+1, err)
			return errorResult(err), err
		}
		affected, _ := res.RowsAffected()
		results = append(results, map[string]any{
			"statement":     i + 1,
			"statementType": sqlsafety.QueryType(statement),
			"rowsAffected":  affected,
		})
	}
	if err := tx.Commit(); err != nil {
		return errorResult(err), err
	}

	metadata := mcp.ToolMetadata{Cluster: cluster.Name}
	if len(statements) == 1 {
		metadata.StatementType = sqlsafety.QueryType(statements[0])
	}
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"cluster":    cluster.Name,
			"statements": len(statements),
			"results":    results,
			"committed":  true,
		}),
		Metadata: metadata,
	}, nil
}

// screenStatement applies the classifier gate. readOnly additionally forbids
// any write operation; transaction control is forbidden on both paths.
func screenStatement(statement string, rejectInjection, readOnly bool) error {
	if readOnly && sqlsafety.ContainsWriteOperations(statement) {
		return &mcp.RejectionError{Reason: "write operation prohibited in read-only mode"}
	}
	if sqlsafety.DetectTransactionBypass(statement) {
		return &mcp.RejectionError{Reason: "transaction bypass attempt detected"}
	}
	if rejectInjection {
		if findings := sqlsafety.CheckInjectionRisk(statement); len(findings) > 0 {
			return &mcp.RejectionError{Reason: "query injection risk: " + strings.Join(findings, "; ")}
		}
	}
	return nil
}

func (s *queryService) resolveCluster(args map[string]any) (config.Cluster, error) {
	return resolveCluster(s.ctx.Config, args)
}

func (s *queryService) rejectInjection() bool {
	if s.ctx.Config == nil {
		return true
	}
	return s.ctx.Config.RejectOnInjectionRisk()
}

func (s *queryService) checkStatementLength(statement string) error {
	if s.ctx.Config == nil {
		return nil
	}
	max := s.ctx.Config.Query.MaxStatementLength
	if max > 0 && len(statement) > max {
		return fmt.Errorf("statement exceeds maximum length of %d bytes", max)
	}
	return nil
}

func (s *queryService) limits() render.Limits {
	if s.ctx.Config == nil {
		return render.Limits{}
	}
	return render.Limits{
		MaxRows:       s.ctx.Config.Query.MaxRows,
		MaxCellLength: s.ctx.Config.Query.MaxCellLength,
	}
}

func (s *queryService) renderResult(rs render.ResultSet) map[string]any {
	if s.ctx.Renderer != nil {
		return s.ctx.Renderer.Render(rs)
	}
	return render.NewRenderer().Render(rs)
}

func statementList(args map[string]any) ([]string, error) {
	var statements []string
	for _, raw := range toStringSlice(args["statements"]) {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	if len(statements) == 0 {
		if single := strings.TrimSpace(toString(args["sql"])); single != "" {
			statements = append(statements, single)
		}
	}
	if len(statements) == 0 {
		return nil, errors.New("statements is required")
	}
	return statements, nil
}
