package sqlsafety

import (
	"math/rand"
	"strings"
	"testing"
)

func TestQueryType(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT * FROM t", "SELECT"},
		{"select * from t", "SELECT"},
		{"  \tSeLeCt 1", "SELECT"},
		{"INSERT INTO t VALUES (1)", "INSERT"},
		{"UPDATE t SET a = 1", "UPDATE"},
		{"DELETE FROM t", "DELETE"},
		{"CREATE TABLE t (a int)", "CREATE"},
		{"DROP TABLE t", "DROP"},
		{"ALTER TABLE t ADD COLUMN b int", "ALTER"},
		{"SHOW TABLES", "SHOW"},
		{"DESCRIBE t", "DESCRIBE"},
		{"DESC t", "DESCRIBE"},
		{"EXPLAIN SELECT 1", "EXPLAIN"},
		{"ANALYZE t", "ANALYZE"},
		{"TRUNCATE t", "TRUNCATE"},
		{"MERGE INTO t USING s ON t.id = s.id", "MERGE"},
		{"GRANT SELECT ON t TO u", "GRANT"},
		{"REVOKE SELECT ON t FROM u", "REVOKE"},
		{"CALL proc()", "CALL"},
		{"EXECUTE stmt", "EXECUTE"},
		{"REPLACE INTO t VALUES (1)", "REPLACE"},
		{"RENAME TABLE a TO b", "RENAME"},
		{"LOAD DATA INFILE 'f' INTO TABLE t", "LOAD"},
		{"INSTALL PLUGIN p SONAME 's'", "INSTALL"},
		{"UNINSTALL PLUGIN p", "UNINSTALL"},
		{"", "UNKNOWN"},
		{"   ", "UNKNOWN"},
		{";", "UNKNOWN"},
		{"/* comment only */", "UNKNOWN"},
		{"-- just a comment", "UNKNOWN"},
		{"(SELECT 1)", "UNKNOWN"},
		{"FROBNICATE t", "UNKNOWN"},
		{"123 SELECT", "UNKNOWN"},
		{"/* hidden */ SELECT 1", "SELECT"},
	}
	for _, tc := range tests {
		if got := QueryType(tc.sql); got != tc.want {
			t.Fatalf("QueryType(%q) = %q, want %q", tc.sql, got, tc.want)
		}
	}
}

func TestIsReadOnlyQuery(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT * FROM t", true},
		{"select 1", true},
		{"SHOW TABLES", true},
		{"DESCRIBE t", true},
		{"DESC t", true},
		{"EXPLAIN SELECT 1", true},
		{"ANALYZE t", true},
		{"WITH cte AS (SELECT 1) SELECT * FROM cte", true},
		{"WITH cte AS (SELECT * FROM t1) INSERT INTO t2 SELECT * FROM cte", false},
		{"WITH del AS (DELETE FROM t RETURNING *) SELECT * FROM del", false},
		{"INSERT INTO t VALUES (1)", false},
		{"DROP TABLE t", false},
		{"TRUNCATE t", false},
		{"CALL proc()", false},
		{"", false},
		{";", false},
		{"/* nothing */", false},
		{"FROBNICATE", false},
	}
	for _, tc := range tests {
		if got := IsReadOnlyQuery(tc.sql); got != tc.want {
			t.Fatalf("IsReadOnlyQuery(%q) = %v, want %v", tc.sql, got, tc.want)
		}
	}
}

// Randomized case mutations must never change the outcome of any check.
func TestCaseInsensitivityFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fixtures := []string{
		"SELECT * FROM t",
		"INSERT INTO t VALUES (1)",
		"WITH cte AS (SELECT * FROM t1) INSERT INTO t2 SELECT * FROM cte",
		"SELECT 1; COMMIT;",
		"DROP TABLE t",
		"SHOW TABLES",
	}
	for _, fixture := range fixtures {
		wantType := QueryType(fixture)
		wantWrite := ContainsWriteOperations(fixture)
		wantBypass := DetectTransactionBypass(fixture)
		wantReadOnly := IsReadOnlyQuery(fixture)
		for i := 0; i < 50; i++ {
			mutated := mutateCase(rng, fixture)
			if got := QueryType(mutated); got != wantType {
				t.Fatalf("QueryType(%q) = %q, want %q", mutated, got, wantType)
			}
			if got := ContainsWriteOperations(mutated); got != wantWrite {
				t.Fatalf("ContainsWriteOperations(%q) = %v, want %v", mutated, got, wantWrite)
			}
			if got := DetectTransactionBypass(mutated); got != wantBypass {
				t.Fatalf("DetectTransactionBypass(%q) = %v, want %v", mutated, got, wantBypass)
			}
			if got := IsReadOnlyQuery(mutated); got != wantReadOnly {
				t.Fatalf("IsReadOnlyQuery(%q) = %v, want %v", mutated, got, wantReadOnly)
			}
		}
	}
}

// Extra tabs/newlines/spaces around keywords must not change detection.
func TestWhitespaceRobustness(t *testing.T) {
	fixtures := []struct {
		sql       string
		wantWrite bool
	}{
		{"INSERT INTO t VALUES (1)", true},
		{"SELECT * FROM t", false},
		{"WITH cte AS (SELECT 1) INSERT INTO t SELECT * FROM cte", true},
	}
	for _, fixture := range fixtures {
		padded := strings.ReplaceAll(fixture.sql, " ", " \t\n ")
		padded = "\r\n\t " + padded + " \n"
		if got := ContainsWriteOperations(padded); got != fixture.wantWrite {
			t.Fatalf("ContainsWriteOperations(%q) = %v, want %v", padded, got, fixture.wantWrite)
		}
		if QueryType(padded) != QueryType(fixture.sql) {
			t.Fatalf("QueryType changed under whitespace padding for %q", fixture.sql)
		}
	}
}

func mutateCase(rng *rand.Rand, input string) string {
	out := []rune(input)
	for i, r := range out {
		switch rng.Intn(2) {
		case 0:
			out[i] = []rune(strings.ToLower(string(r)))[0]
		default:
			out[i] = []rune(strings.ToUpper(string(r)))[0]
		}
	}
	return string(out)
}
