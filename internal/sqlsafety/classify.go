package sqlsafety

import "strings"

// QueryTypeUnknown is returned for statements whose leading token is not a
// recognized SQL keyword.
const QueryTypeUnknown = "UNKNOWN"

// leadingKeywords maps the recognized first keyword of a statement to its
// canonical form. Built once; never mutated.
var leadingKeywords = map[string]string{
	"SELECT":    "SELECT",
	"INSERT":    "INSERT",
	"UPDATE":    "UPDATE",
	"DELETE":    "DELETE",
	"CREATE":    "CREATE",
	"DROP":      "DROP",
	"ALTER":     "ALTER",
	"SHOW":      "SHOW",
	"DESCRIBE":  "DESCRIBE",
	"DESC":      "DESCRIBE",
	"EXPLAIN":   "EXPLAIN",
	"ANALYZE":   "ANALYZE",
	"TRUNCATE":  "TRUNCATE",
	"MERGE":     "MERGE",
	"GRANT":     "GRANT",
	"REVOKE":    "REVOKE",
	"CALL":      "CALL",
	"EXECUTE":   "EXECUTE",
	"REPLACE":   "REPLACE",
	"RENAME":    "RENAME",
	"LOAD":      "LOAD",
	"INSTALL":   "INSTALL",
	"UNINSTALL": "UNINSTALL",
}

// readOnlyTypes is the allowlist for IsReadOnlyQuery.
var readOnlyTypes = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"EXPLAIN":  true,
	"ANALYZE":  true,
}

// QueryType classifies a statement by its leading keyword. The input is
// preprocessed first, so leading comments do not hide the keyword. Every
// input maps to exactly one tag; empty, punctuation-only, and unrecognized
// statements map to QueryTypeUnknown. QueryType never fails.
func QueryType(sql string) string {
	token := firstKeyword(Preprocess(sql))
	if token == "" {
		return QueryTypeUnknown
	}
	if canonical, ok := leadingKeywords[strings.ToUpper(token)]; ok {
		return canonical
	}
	return QueryTypeUnknown
}

// IsReadOnlyQuery reports whether sql is safe to run under read-only
// enforcement. Only the read/utility allowlist qualifies; a WITH-prefixed
// statement qualifies only when no write keyword appears anywhere in it, so
// CTE-wrapped writes stay excluded. Unknown and empty statements are not
// read-only: the check is pessimistic.
func IsReadOnlyQuery(sql string) bool {
	processed := Preprocess(sql)
	token := strings.ToUpper(firstKeyword(processed))
	if token == "WITH" {
		return !ContainsWriteOperations(processed)
	}
	canonical, ok := leadingKeywords[token]
	if !ok {
		return false
	}
	return readOnlyTypes[canonical]
}

// firstKeyword extracts the leading run of letters (plus underscore) from an
// already-preprocessed statement. A statement opening with punctuation, such
// as a lone ";", has no keyword.
func firstKeyword(processed string) string {
	end := 0
	for end < len(processed) {
		c := processed[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
			end++
			continue
		}
		break
	}
	return processed[:end]
}
