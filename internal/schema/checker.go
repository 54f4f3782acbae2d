package schema

import (
	"fmt"
	"strings"
)

// maxSuggestionDistance bounds the edit distance for "did you mean"
// suggestions on unknown identifiers.
const maxSuggestionDistance = 2

// CheckIdentifiers cross-references extracted table and column names against
// the schema and returns one message per identifier that does not exist
// (case-insensitive). Columns are matched against every table because the
// extraction heuristics do not always know the source table. A nil schema
// yields no messages; the caller decides how to report a missing schema.
func (s *Schema) CheckIdentifiers(tables, columns []string) []string {
	if s == nil {
		return nil
	}

	var messages []string
	for _, table := range tables {
		if s.HasTable(table) {
			continue
		}
		messages = append(messages, unknownIdentifierMessage("Table", table, s.TableNames()))
	}

	var allColumns []string
	for _, table := range s.Tables {
		allColumns = append(allColumns, table.ColumnNames()...)
	}
	for _, column := range columns {
		if s.hasAnyColumn(column) {
			continue
		}
		messages = append(messages, unknownIdentifierMessage("Column", column, allColumns))
	}
	return messages
}

func (s *Schema) hasAnyColumn(name string) bool {
	for _, table := range s.Tables {
		if table.HasColumn(name) {
			return true
		}
	}
	return false
}

func unknownIdentifierMessage(kind, name string, candidates []string) string {
	if suggestion := closestMatch(name, candidates); suggestion != "" {
		return fmt.Sprintf("%s '%s' not found in provided schema (did you mean '%s'?)", kind, name, suggestion)
	}
	return fmt.Sprintf("%s '%s' not found in provided schema", kind, name)
}

func closestMatch(name string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, candidate := range candidates {
		distance := levenshtein(strings.ToLower(name), strings.ToLower(candidate))
		if distance > 0 && distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}

func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 0; i < len(a); i++ {
		current[0] = i + 1
		for j := 0; j < len(b); j++ {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}
			current[j+1] = min(previous[j+1]+1, min(current[j]+1, previous[j]+cost))
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
