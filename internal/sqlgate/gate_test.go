package sqlgate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAcceptsReadOnlySelects(t *testing.T) {
	queries := []string{
		"SELECT subject_line, open_rate FROM subject_lines LIMIT 10",
		"select company, AVG(open_rate) from subject_lines group by company",
		"  SELECT date_coded, chase, bank_of_america FROM spend_summary ORDER BY year",
		"SELECT subject_line, company, open_rate FROM subject_lines WHERE company = 'Chase' ORDER BY open_rate DESC LIMIT 10",
	}

	for _, q := range queries {
		assert.NoError(t, Check(q), "query should pass: %s", q)
	}
}

// Mutating keywords match anywhere in the statement, so column names that
// merely contain one are rejected too. Precision/recall trade-off: a
// rejected facet falls back to a templated query, a passed hostile query
// does not come back.
func TestCheckRejectsKeywordsInsideIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"created_at contains CREATE", "SELECT created_at FROM subject_lines"},
		{"updated_at contains UPDATE", "SELECT updated_at FROM subject_lines WHERE company = 'Chime'"},
		{"execution_date contains EXEC", "SELECT execution_date FROM marketing_campaigns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.query)
			require.Error(t, err)

			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Equal(t, RuleMutation, v.Rule)
		})
	}
}

func TestCheckRejectsMutations(t *testing.T) {
	tests := []struct {
		name  string
		query string
		rule  string
	}{
		{"insert", "INSERT INTO subject_lines VALUES (1)", RuleNotSelect},
		{"update prefix", "UPDATE subject_lines SET open_rate = 1", RuleNotSelect},
		{"nested delete", "SELECT * FROM subject_lines WHERE id IN (DELETE FROM spend_summary)", RuleMutation},
		{"drop", "SELECT 1 FROM t WHERE x = 'a' OR (DROP TABLE subject_lines)", RuleMutation},
		{"truncate lowercase", "SELECT * FROM x WHERE truncate table y", RuleMutation},
		{"execute", "SELECT * FROM x; EXECUTE something", RuleMutation},
		{"merge", "SELECT merge INTO t", RuleMutation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.query)
			require.Error(t, err)

			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.rule, v.Rule)
		})
	}
}

func TestCheckRejectsForbiddenTokens(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"semicolon", "SELECT 1 FROM subject_lines;"},
		{"line comment", "SELECT 1 -- hidden"},
		{"block comment open", "SELECT /* sneaky */ 1"},
		{"union", "SELECT id FROM a UNION SELECT id FROM b"},
		{"union lowercase", "SELECT id FROM a union SELECT password FROM users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.query)
			require.Error(t, err)

			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Equal(t, RuleToken, v.Rule)
		})
	}
}

func TestCheckRejectsSystemSurfaces(t *testing.T) {
	queries := []string{
		"SELECT table_name FROM INFORMATION_SCHEMA.TABLES",
		"SELECT * FROM pg_catalog.pg_tables",
		"SELECT * FROM sys.objects",
		"SELECT * FROM mysql.user",
		"SELECT name FROM sqlite_master",
		"SELECT xp_cmdshell('dir')",
	}

	for _, q := range queries {
		err := Check(q)
		require.Error(t, err, "query should be rejected: %s", q)

		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, RuleSystemSurface, v.Rule)
	}
}

func TestCheckEdgeCases(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		err := Check("   ")
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, RuleEmpty, v.Rule)
	})

	t.Run("too long", func(t *testing.T) {
		long := "SELECT " + strings.Repeat("a", MaxQueryLength)
		err := Check(long)
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, RuleTooLong, v.Rule)
	})

	t.Run("non-select", func(t *testing.T) {
		err := Check("WITH x AS (SELECT 1) SELECT * FROM x")
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, RuleNotSelect, v.Rule)
	})

	t.Run("benign literal containing dashes is still rejected", func(t *testing.T) {
		// Known imprecision: substring checks do not parse string literals.
		err := Check("SELECT * FROM subject_lines WHERE subject_line = 'buy -- now'")
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, RuleToken, v.Rule)
	})
}
