// Package sdk is the stable surface for out-of-tree toolsets: the toolset
// contract, shared runtime services, and the SQL safety classifier.
package sdk

import (
	"dbguard/internal/dsql"
	"dbguard/internal/inspect"
	"dbguard/internal/mcp"
	"dbguard/internal/policy"
	"dbguard/internal/redact"
	"dbguard/internal/render"
	"dbguard/internal/sqlsafety"
)

// Core toolset interfaces and types.
type Toolset = mcp.Toolset

type ToolsetContext = mcp.ToolsetContext

type ToolSpec = mcp.ToolSpec

type ToolHandler = mcp.ToolHandler

type ToolSafety = mcp.ToolSafety

type ToolRequest = mcp.ToolRequest

type ToolResult = mcp.ToolResult

type ToolMetadata = mcp.ToolMetadata

type Registry = mcp.Registry

type RejectionError = mcp.RejectionError

const (
	SafetyReadOnly    = mcp.SafetyReadOnly
	SafetyWrite       = mcp.SafetyWrite
	SafetyRiskyWrite  = mcp.SafetyRiskyWrite
	SafetyDestructive = mcp.SafetyDestructive
)

// Toolset registration for plugin discovery.
func RegisterToolset(id string, factory mcp.ToolsetFactory) error {
	return mcp.RegisterToolset(id, factory)
}

func MustRegisterToolset(id string, factory mcp.ToolsetFactory) {
	mcp.MustRegisterToolset(id, factory)
}

func RegisteredToolsets() []string {
	return mcp.RegisteredToolsets()
}

// Shared services and invoker.
type ServiceRegistry = mcp.ServiceRegistry

type ToolInvoker = mcp.ToolInvoker

// Database helpers.
type SessionManager = dsql.Manager

type Collector = inspect.Collector

type Renderer = render.Renderer

type Redactor = redact.Redactor

// SQL safety classifier. Toolsets running model-generated SQL gate it
// through these before execution.
func Preprocess(sql string) string {
	return sqlsafety.Preprocess(sql)
}

func QueryType(sql string) string {
	return sqlsafety.QueryType(sql)
}

func IsReadOnlyQuery(sql string) bool {
	return sqlsafety.IsReadOnlyQuery(sql)
}

func ContainsWriteOperations(sql string) bool {
	return sqlsafety.ContainsWriteOperations(sql)
}

func DetectTransactionBypass(sql string) bool {
	return sqlsafety.DetectTransactionBypass(sql)
}

func CheckInjectionRisk(sql string) []string {
	return sqlsafety.CheckInjectionRisk(sql)
}

// Policy helpers.
type User = policy.User

type Role = policy.Role

const (
	RoleReadOnly = policy.RoleReadOnly
	RoleAdmin    = policy.RoleAdmin
)
