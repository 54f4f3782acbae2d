// Package gate is the deterministic policy gate. It composes the lexical
// statement analysis, placeholder extraction, and schema checking into policy
// findings, performs the one permitted SQL mutation (row-limit injection), and
// resolves the terminal status of a validation pass. No model calls happen
// here; given the same inputs the gate always produces the same outcome.
package gate

import (
	"fmt"
	"strings"

	"github.com/querygate/querygate/internal/schema"
	"github.com/querygate/querygate/internal/sqlscan"
)

type FindingKind string

const (
	FindingMultiStatement     FindingKind = "multi_statement"
	FindingDangerousOperation FindingKind = "dangerous_operation"
	FindingMissingSchema      FindingKind = "missing_schema"
	FindingUnknownIdentifier  FindingKind = "unknown_identifier"
	FindingModifyingStatement FindingKind = "modifying_statement"
)

// Finding is one typed safety or completeness concern raised by the gate.
type Finding struct {
	Kind   FindingKind
	Detail string
}

const DefaultMaxRowLimit = 50

// Config is the read-only gate configuration, fixed at process start.
type Config struct {
	MaxRowLimit int
}

type Gate struct {
	maxRowLimit int
}

func New(cfg Config) *Gate {
	limit := cfg.MaxRowLimit
	if limit <= 0 {
		limit = DefaultMaxRowLimit
	}
	return &Gate{maxRowLimit: limit}
}

// Outcome carries everything one Evaluate pass produced: the (possibly
// rewritten) SQL, the typed findings, and the advisory warning messages in
// emission order.
type Outcome struct {
	SQL          string
	Statement    sqlscan.Statement
	Placeholders []sqlscan.Placeholder
	Findings     []Finding
	Warnings     []string
}

func (o Outcome) HasFinding(kind FindingKind) bool {
	for _, finding := range o.Findings {
		if finding.Kind == kind {
			return true
		}
	}
	return false
}

var modifyingStatementWarnings = map[sqlscan.StatementType]string{
	sqlscan.StatementInsert: "This is an INSERT statement - it will add new data when executed",
	sqlscan.StatementUpdate: "This is an UPDATE statement - it will modify existing data when executed. Verify the WHERE clause carefully.",
	sqlscan.StatementDelete: "This is a DELETE statement - it will permanently remove data when executed. Verify the WHERE clause carefully.",
}

// Evaluate runs the policy checks over one candidate SQL string. Multi-
// statement input and dangerous operations short-circuit with no rewrite;
// everything after those accumulates advisory findings and always yields a
// usable SQL string. The model may be nil (no schema supplied), which raises
// a single missing-schema finding instead of per-identifier ones.
//
// The dialect is accepted for contract symmetry with the writer agent but
// does not change gate behavior today.
func (g *Gate) Evaluate(sql string, model *schema.Schema, dialect string) Outcome {
	outcome := Outcome{SQL: sql}
	outcome.Statement = sqlscan.Analyze(sql)

	if outcome.Statement.MultiStatement {
		outcome.Findings = append(outcome.Findings, Finding{
			Kind:   FindingMultiStatement,
			Detail: "Multiple SQL statements detected. Submit one statement at a time.",
		})
		return outcome
	}

	if len(outcome.Statement.DangerousKeywords) > 0 {
		for _, keyword := range outcome.Statement.DangerousKeywords {
			outcome.Findings = append(outcome.Findings, Finding{
				Kind:   FindingDangerousOperation,
				Detail: fmt.Sprintf("Statement uses the %s operation, which is not permitted", keyword),
			})
		}
		return outcome
	}

	if outcome.Statement.Type == sqlscan.StatementSelect && !outcome.Statement.HasTopLevelLimit {
		outcome.SQL = injectLimit(sql, g.maxRowLimit)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("LIMIT %d was enforced on the query", g.maxRowLimit))
	}

	if warning, ok := modifyingStatementWarnings[outcome.Statement.Type]; ok {
		outcome.Findings = append(outcome.Findings, Finding{Kind: FindingModifyingStatement, Detail: warning})
		outcome.Warnings = append(outcome.Warnings, warning)
	}

	outcome.Placeholders = sqlscan.ExtractPlaceholders(outcome.SQL)
	if len(outcome.Placeholders) > 0 {
		outcome.Warnings = append(outcome.Warnings, "SQL contains placeholders that need to be replaced with actual values")
	}

	if model == nil {
		detail := "No schema was provided; table and column references could not be verified"
		outcome.Findings = append(outcome.Findings, Finding{Kind: FindingMissingSchema, Detail: detail})
		outcome.Warnings = append(outcome.Warnings, detail)
		return outcome
	}
	for _, message := range model.CheckIdentifiers(outcome.Statement.Tables, outcome.Statement.Columns) {
		outcome.Findings = append(outcome.Findings, Finding{Kind: FindingUnknownIdentifier, Detail: message})
		outcome.Warnings = append(outcome.Warnings, message)
	}
	return outcome
}

// injectLimit places the LIMIT clause after the last meaningful token: before
// a trailing semicolon, and ahead of any trailing comments so the clause never
// lands inside one. Comments that follow the statement are preserved after the
// clause, where the analyzer still sees a top-level LIMIT on a later pass.
func injectLimit(sql string, limit int) string {
	body, trailer := splitTrailingComments(sql)
	if strings.TrimSpace(trailer) == "" {
		trailer = ""
	}
	body = strings.TrimRight(body, " \t\r\n")
	if strings.HasSuffix(body, ";") {
		stmt, mid := splitTrailingComments(strings.TrimSuffix(body, ";"))
		stmt = strings.TrimRight(stmt, " \t\r\n")
		if strings.TrimSpace(mid) == "" {
			mid = ""
		}
		return fmt.Sprintf("%s LIMIT %d%s;%s", stmt, limit, mid, trailer)
	}
	return fmt.Sprintf("%s LIMIT %d%s", body, limit, trailer)
}

// splitTrailingComments splits sql at the position just past its last
// meaningful character: body holds everything up to and including it, trailer
// the run of whitespace and comments after it. The scan follows the same
// quoting rules as the lexer, so comment markers inside string literals or
// quoted identifiers do not count.
func splitTrailingComments(sql string) (body, trailer string) {
	end := 0
	for i := 0; i < len(sql); {
		switch c := sql[i]; {
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			i += 2
			for i < len(sql) {
				if sql[i] == '*' && i+1 < len(sql) && sql[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
		case c == '\'' || c == '"' || c == '`':
			quote := c
			i++
			for i < len(sql) {
				if sql[i] == quote {
					if i+1 < len(sql) && sql[i+1] == quote {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			end = i
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		default:
			i++
			end = i
		}
	}
	return sql[:end], sql[end:]
}
