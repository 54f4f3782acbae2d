// Package sqlscan performs lexical analysis of candidate SQL produced by the
// generation agents. It classifies statements, detects multi-statement input,
// dangerous leading keywords, top-level LIMIT clauses, placeholder tokens, and
// extracts referenced identifiers on a best-effort basis.
//
// The scanner is deliberately not a SQL parser. It works over a quote-aware
// token stream, which keeps it immune to malformed input but blind to deeply
// nested constructs; identifiers inside complex subqueries may be missed. That
// trade-off is intentional: extraction under-approximates rather than
// over-rejects.
package sqlscan

import "strings"

type StatementType string

const (
	StatementSelect StatementType = "SELECT"
	StatementInsert StatementType = "INSERT"
	StatementUpdate StatementType = "UPDATE"
	StatementDelete StatementType = "DELETE"
	StatementOther  StatementType = "OTHER"
)

// Statement is the immutable result of analyzing one SQL string.
type Statement struct {
	Type              StatementType
	MultiStatement    bool
	HasTopLevelLimit  bool
	DangerousKeywords []string
	Tables            []string
	Columns           []string
}

// DangerousKeywords are the leading keywords of irreversible or administrative
// statements that the gate rejects outright. The list is fixed at build time.
var DangerousKeywords = []string{
	"DROP", "TRUNCATE", "ALTER", "CREATE", "GRANT", "REVOKE", "EXEC", "EXECUTE", "MERGE",
}

// Analyze scans a raw SQL string. It never fails: input that does not look
// like SQL at all degrades to StatementOther with empty identifier sets.
func Analyze(sql string) Statement {
	segments := splitStatements(lex(sql))
	if len(segments) == 0 {
		return Statement{Type: StatementOther}
	}

	stmt := Statement{
		Type:           classify(segments[0]),
		MultiStatement: len(segments) > 1,
	}

	seen := map[string]bool{}
	for _, segment := range segments {
		leading := leadingKeyword(segment)
		for _, keyword := range DangerousKeywords {
			if strings.EqualFold(leading, keyword) && !seen[keyword] {
				seen[keyword] = true
				stmt.DangerousKeywords = append(stmt.DangerousKeywords, keyword)
			}
		}
	}

	stmt.HasTopLevelLimit = hasTopLevelLimit(segments[0])
	stmt.Tables, stmt.Columns = extractIdentifiers(segments[0])
	return stmt
}

// splitStatements splits the token stream on semicolons and drops empty
// segments. Semicolons inside string literals or quoted identifiers never
// reach this point; the lexer has already folded them into single tokens.
func splitStatements(tokens []token) [][]token {
	var segments [][]token
	var current []token
	for _, t := range tokens {
		if t.isSymbol(";") {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

func leadingKeyword(segment []token) string {
	if len(segment) == 0 || segment[0].kind != tokenWord || segment[0].quoted {
		return ""
	}
	return strings.ToUpper(segment[0].text)
}

func classify(segment []token) StatementType {
	switch leadingKeyword(segment) {
	case "SELECT", "WITH": // a leading CTE is read-only, treat as SELECT
		return StatementSelect
	case "INSERT":
		return StatementInsert
	case "UPDATE":
		return StatementUpdate
	case "DELETE":
		return StatementDelete
	default:
		return StatementOther
	}
}

// hasTopLevelLimit reports a LIMIT keyword outside any parenthesized
// sub-expression, so a limit buried in a subquery does not satisfy the
// top-level requirement.
func hasTopLevelLimit(segment []token) bool {
	depth := 0
	for _, t := range segment {
		switch {
		case t.isSymbol("("):
			depth++
		case t.isSymbol(")"):
			if depth > 0 {
				depth--
			}
		case depth == 0 && t.isWord("LIMIT"):
			return true
		}
	}
	return false
}
