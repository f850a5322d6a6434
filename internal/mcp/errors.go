package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/lib/pq"
)

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
}

type ErrorEnvelope struct {
	Error   ErrorDetail `json:"error"`
	Details any         `json:"details,omitempty"`
}

// RejectionError marks a statement that the safety classifier refused to
// run. It carries the exact reason handed back to the caller.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

func BuildErrorEnvelope(err error, details any) map[string]any {
	envelope := ErrorEnvelope{Error: classifyError(err)}
	out := map[string]any{"error": envelope.Error}
	if details != nil {
		out["details"] = details
	}
	return out
}

func classifyError(err error) ErrorDetail {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorDetail{Code: "timeout", Message: msg, Hint: "Increase the timeout or check cluster/network latency.", Retryable: true}
	}
	if errors.Is(err, context.Canceled) {
		return ErrorDetail{Code: "canceled", Message: msg, Hint: "Request was canceled before completion.", Retryable: true}
	}

	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return ErrorDetail{Code: "rejected_by_guard", Message: msg, Hint: "Rewrite the statement as a plain read-only query.", Retryable: false}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgresError(pqErr, msg)
	}

	if apiErr, ok := err.(smithy.APIError); ok {
		code := apiErr.ErrorCode()
		switch code {
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
			return ErrorDetail{Code: "forbidden", Message: msg, Hint: "Check AWS credentials and IAM policies.", Retryable: false}
		case "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException":
			return ErrorDetail{Code: "rate_limited", Message: msg, Hint: "Retry with backoff.", Retryable: true}
		case "ResourceNotFoundException", "NotFoundException", "NoSuchEntity":
			return ErrorDetail{Code: "not_found", Message: msg, Hint: "Verify resource identifiers and region.", Retryable: false}
		case "ValidationException", "InvalidParameterException", "InvalidParameterValue":
			return ErrorDetail{Code: "invalid_request", Message: msg, Hint: "Fix request parameters or schema.", Retryable: false}
		case "ConflictException":
			return ErrorDetail{Code: "conflict", Message: msg, Hint: "Resource update conflict; retry.", Retryable: true}
		default:
			return ErrorDetail{Code: "upstream_error", Message: msg, Hint: "AWS API error; verify inputs and retry.", Retryable: true}
		}
	}

	if isInvalidRequestMessage(msg) {
		return ErrorDetail{Code: "invalid_request", Message: msg, Hint: "Fix request parameters or schema.", Retryable: false}
	}

	return ErrorDetail{Code: "internal", Message: msg, Hint: "Check server logs for details.", Retryable: false}
}

func classifyPostgresError(pqErr *pq.Error, msg string) ErrorDetail {
	switch string(pqErr.Code) {
	case "28000", "28P01":
		return ErrorDetail{Code: "unauthorized", Message: msg, Hint: "Check the IAM auth token and database user.", Retryable: false}
	case "42501":
		return ErrorDetail{Code: "forbidden", Message: msg, Hint: "The database role lacks privileges for this statement.", Retryable: false}
	case "57014":
		return ErrorDetail{Code: "timeout", Message: msg, Hint: "The statement was canceled; simplify the query or raise the timeout.", Retryable: true}
	case "42P01", "42703":
		return ErrorDetail{Code: "not_found", Message: msg, Hint: "Verify the table and column names against the schema.", Retryable: false}
	case "40001", "40P01":
		return ErrorDetail{Code: "conflict", Message: msg, Hint: "Serialization conflict; retry the transaction.", Retryable: true}
	case "53300", "57P03":
		return ErrorDetail{Code: "unavailable", Message: msg, Hint: "Cluster is not accepting connections; retry with backoff.", Retryable: true}
	}
	switch string(pqErr.Code.Class()) {
	case "42":
		return ErrorDetail{Code: "invalid_request", Message: msg, Hint: "Fix the SQL statement.", Retryable: false}
	case "08":
		return ErrorDetail{Code: "unavailable", Message: msg, Hint: "Connection failed; retry with backoff.", Retryable: true}
	}
	return ErrorDetail{Code: "upstream_error", Message: msg, Hint: "Database error; verify the statement and retry.", Retryable: false}
}

func isInvalidRequestMessage(msg string) bool {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "required") || strings.Contains(lower, "invalid") || strings.Contains(lower, "missing") {
		return true
	}
	return false
}
