package sqlsafety

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Write keywords matched anywhere in the preprocessed statement, not just
	// at the front: CTEs, subqueries, and stacked statements can put a write
	// after an innocuous prefix.
	writePattern = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|CREATE|DROP|ALTER|TRUNCATE|MERGE|GRANT|REVOKE|CALL|EXECUTE|REPLACE|RENAME|LOAD\s+(?:DATA|XML)|INSTALL\s+PLUGIN|UNINSTALL\s+PLUGIN)\b`)

	// Transaction control that would escape the server-owned transaction.
	transactionPattern = regexp.MustCompile(`(?i)\b(COMMIT|ROLLBACK|BEGIN|START\s+TRANSACTION|SET\s+TRANSACTION|RELEASE\s+SAVEPOINT|SAVEPOINT)\b`)

	// A semicolon followed by more content means stacked statements.
	stackedPattern = regexp.MustCompile(`;\s*\S`)

	// Tautology shapes. RE2 has no backreferences, so the two sides are
	// captured and compared in code.
	numericTautologyPattern = regexp.MustCompile(`(?i)\bOR\s+(\d+)\s*=\s*(\d+)`)
	quotedTautologyPattern  = regexp.MustCompile(`(?i)\bOR\s+'([^']*)'\s*=\s*'([^']*)'`)

	unionSelectPattern = regexp.MustCompile(`(?i)\bUNION\s+(?:ALL\s+)?SELECT\b`)
)

// ContainsWriteOperations reports whether sql performs any mutating
// operation anywhere in its text. Comments are stripped before matching, so
// a write keyword hidden inside a comment never triggers, and a comment
// inside a real write never hides it.
func ContainsWriteOperations(sql string) bool {
	processed := Preprocess(sql)
	if processed == "" {
		return false
	}
	return writePattern.MatchString(processed)
}

// DetectTransactionBypass reports whether sql carries its own transaction
// control (COMMIT, ROLLBACK, BEGIN, SET TRANSACTION, savepoints) that would
// break out of the transaction the caller wraps around it. Evaluated
// independently of ContainsWriteOperations: a plain SELECT with a trailing
// COMMIT still trips this check.
func DetectTransactionBypass(sql string) bool {
	processed := Preprocess(sql)
	if processed == "" {
		return false
	}
	return transactionPattern.MatchString(processed)
}

// CheckInjectionRisk returns human-readable findings for common injection
// shapes: stacked statements, always-true conditions, UNION SELECT, and an
// odd single-quote count suggesting a terminated string literal. An empty
// slice means nothing was flagged. Findings are diagnostics; callers decide
// whether any finding is a hard rejection.
func CheckInjectionRisk(sql string) []string {
	processed := Preprocess(sql)
	if processed == "" {
		return nil
	}

	var findings []string
	if stackedPattern.MatchString(processed) {
		findings = append(findings, "multiple statements stacked with semicolons")
	}
	for _, match := range numericTautologyPattern.FindAllStringSubmatch(processed, -1) {
		if match[1] == match[2] {
			findings = append(findings, fmt.Sprintf("always-true condition OR %s=%s", match[1], match[2]))
			break
		}
	}
	for _, match := range quotedTautologyPattern.FindAllStringSubmatch(processed, -1) {
		if match[1] == match[2] {
			findings = append(findings, fmt.Sprintf("always-true condition OR '%s'='%s'", match[1], match[2]))
			break
		}
	}
	if unionSelectPattern.MatchString(processed) {
		findings = append(findings, "UNION SELECT may expose unintended rows")
	}
	if strings.Count(processed, "'")%2 == 1 {
		findings = append(findings, "unbalanced single quotes")
	}
	return findings
}
