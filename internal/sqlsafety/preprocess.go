// Package sqlsafety classifies SQL statements and detects write, transaction
// control, and injection patterns before a statement reaches a live cluster.
//
// Matching is heuristic keyword/pattern matching over comment-stripped text,
// not SQL parsing. It cannot reason exactly about string-literal boundaries
// (a "--" inside a quoted literal is treated as a comment marker) and can be
// evaded by vendor-specific escape tricks; callers must pair it with
// database-side enforcement such as read-only transactions. All patterns are
// Go regexp (RE2), so evaluation is linear in the input length even on
// adversarial repeated-character statements.
package sqlsafety

import (
	"regexp"
	"strings"
)

var (
	// Block comments, non-greedy so back-to-back comments stay separate.
	blockCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	// Line comments run to end of line.
	lineCommentPattern = regexp.MustCompile(`--[^\n]*`)
)

// RemoveComments strips block and line comments from sql. Each removed span
// is replaced with a single space so tokens on either side of a comment do
// not fuse (INSERT/**/INTO must not become INSERTINTO). An unterminated
// block comment is left in place; NormalizeWhitespace still flattens it.
func RemoveComments(sql string) string {
	out := blockCommentPattern.ReplaceAllString(sql, " ")
	return lineCommentPattern.ReplaceAllString(out, " ")
}

// NormalizeWhitespace collapses every run of whitespace to a single space
// and trims the result.
func NormalizeWhitespace(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// Preprocess produces the canonical comment-free, whitespace-normalized view
// of sql that all detection functions match against. Empty input yields an
// empty string. Preprocess is idempotent: Preprocess(Preprocess(s)) ==
// Preprocess(s).
func Preprocess(sql string) string {
	if sql == "" {
		return ""
	}
	return NormalizeWhitespace(RemoveComments(sql))
}
