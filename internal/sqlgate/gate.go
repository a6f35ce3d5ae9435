// Package sqlgate validates model-generated SQL before it reaches the
// warehouse. The gate is a pure denylist check with no database access.
//
// Every check is a substring match, so a SELECT whose string literal
// happens to contain "--" or "union", or a column named created_at or
// execution_date, is rejected too. That imprecision is deliberate: the
// gate prefers rejecting a benign query over passing a hostile one, and a
// rejected facet falls back to a templated query.
package sqlgate

import (
	"fmt"
	"strings"
)

// MaxQueryLength is the longest statement the gate accepts.
const MaxQueryLength = 10000

// Violation describes why a statement was rejected.
type Violation struct {
	Rule   string
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("sql rejected (%s): %s", v.Rule, v.Detail)
}

// Rule names carried on Violation.
const (
	RuleEmpty         = "empty"
	RuleTooLong       = "too_long"
	RuleNotSelect     = "not_select"
	RuleMutation      = "mutating_keyword"
	RuleToken         = "forbidden_token"
	RuleSystemSurface = "system_surface"
)

// mutating keywords are rejected anywhere in the statement.
var mutatingKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE",
	"GRANT", "REVOKE", "EXEC", "EXECUTE", "CALL", "MERGE", "UPSERT",
}

// forbidden tokens are rejected anywhere in the statement.
var forbiddenTokens = []string{";", "--", "/*", "*/", "UNION"}

// system surface patterns cover catalog tables and admin commands across
// the engines generated SQL might target.
var systemPatterns = []string{
	"INFORMATION_SCHEMA", "PG_", "SYS.", "SYSTEM.", "MYSQL.", "SQLITE_",
	"SP_", "XP_", "DBCC", "BULK", "BACKUP", "RESTORE",
}

// Check validates a statement against the denylist. A nil return means the
// statement may run read-only; a *Violation explains any rejection.
func Check(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return &Violation{Rule: RuleEmpty, Detail: "empty statement"}
	}

	if len(trimmed) > MaxQueryLength {
		return &Violation{
			Rule:   RuleTooLong,
			Detail: fmt.Sprintf("statement is %d bytes, limit is %d", len(trimmed), MaxQueryLength),
		}
	}

	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "SELECT") {
		return &Violation{Rule: RuleNotSelect, Detail: "statement must start with SELECT"}
	}

	for _, kw := range mutatingKeywords {
		if strings.Contains(upper, kw) {
			return &Violation{Rule: RuleMutation, Detail: "contains " + kw}
		}
	}

	for _, tok := range forbiddenTokens {
		if strings.Contains(upper, tok) {
			return &Violation{Rule: RuleToken, Detail: "contains " + tok}
		}
	}

	for _, pat := range systemPatterns {
		if strings.Contains(upper, pat) {
			return &Violation{Rule: RuleSystemSurface, Detail: "references " + pat}
		}
	}

	return nil
}
