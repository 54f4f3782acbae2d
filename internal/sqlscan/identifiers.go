package sqlscan

import "strings"

// reservedWords are tokens that look like identifiers to the scanner but are
// SQL keywords or common builtins. Quoted identifiers bypass this filter.
var reservedWords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"not": true, "in": true, "like": true, "between": true, "is": true,
	"null": true, "true": true, "false": true, "as": true, "on": true,
	"join": true, "left": true, "right": true, "inner": true, "outer": true,
	"full": true, "cross": true, "order": true, "by": true, "group": true,
	"having": true, "limit": true, "offset": true, "distinct": true,
	"all": true, "asc": true, "desc": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "count": true, "sum": true,
	"avg": true, "min": true, "max": true, "into": true, "set": true,
	"values": true, "exists": true, "any": true, "some": true, "union": true,
	"intersect": true, "except": true, "with": true, "of": true, "using": true,
	"natural": true, "coalesce": true, "cast": true, "interval": true,
	"current_date": true, "current_timestamp": true, "now": true,
}

var comparisonOperators = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true, "<>": true, "!=": true,
}

type identifierSet struct {
	order []string
	seen  map[string]bool
}

func (s *identifierSet) add(name string) {
	if name == "" {
		return
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.order = append(s.order, name)
}

// extractIdentifiers pulls referenced table and column names out of one
// statement's token stream. Keyword-anchored and best-effort: aliases,
// qualified names and quoted identifiers are tolerated, expressions the
// anchors do not cover are silently skipped.
func extractIdentifiers(segment []token) (tables []string, columns []string) {
	var tableSet, columnSet identifierSet

	for i := 0; i < len(segment); i++ {
		t := segment[i]
		if t.isWord("FROM") || t.isWord("JOIN") || t.isWord("INTO") || t.isWord("UPDATE") {
			if name, _, ok := readName(segment, i+1); ok {
				tableSet.add(name)
			}
		}
	}

	collectSelectList(segment, &columnSet)
	collectComparisonColumns(segment, "SET", []string{"WHERE"}, &columnSet)
	collectComparisonColumns(segment, "WHERE", []string{"ORDER", "GROUP", "HAVING", "LIMIT"}, &columnSet)
	collectSortColumns(segment, "ORDER", &columnSet)
	collectSortColumns(segment, "GROUP", &columnSet)

	return tableSet.order, columnSet.order
}

// readName reads an identifier at position i, following table.column style
// qualification, and returns the final segment lowercased.
func readName(segment []token, i int) (string, int, bool) {
	if i >= len(segment) {
		return "", i, false
	}
	t := segment[i]
	if t.kind != tokenWord {
		return "", i, false
	}
	if !t.quoted && reservedWords[strings.ToLower(t.text)] {
		return "", i, false
	}
	name := t.text
	next := i + 1
	for next+1 < len(segment) && segment[next].isSymbol(".") && segment[next+1].kind == tokenWord {
		name = segment[next+1].text
		next += 2
	}
	return strings.ToLower(name), next, true
}

// collectSelectList walks the projection between a top-level SELECT and its
// FROM. Items split on top-level commas; the first identifier of each simple
// item counts, function calls and wildcards do not.
func collectSelectList(segment []token, columns *identifierSet) {
	selectIdx, fromIdx := -1, -1
	depth := 0
	for i, t := range segment {
		switch {
		case t.isSymbol("("):
			depth++
		case t.isSymbol(")"):
			if depth > 0 {
				depth--
			}
		case depth == 0 && t.isWord("SELECT") && selectIdx < 0:
			selectIdx = i
		case depth == 0 && t.isWord("FROM") && selectIdx >= 0:
			fromIdx = i
		}
		if fromIdx >= 0 {
			break
		}
	}
	if selectIdx < 0 || fromIdx < 0 {
		return
	}

	item := make([]token, 0, 4)
	depth = 0
	flush := func() {
		collectSelectItem(item, columns)
		item = item[:0]
	}
	for _, t := range segment[selectIdx+1 : fromIdx] {
		switch {
		case t.isSymbol("("):
			depth++
		case t.isSymbol(")"):
			if depth > 0 {
				depth--
			}
		case depth == 0 && t.isSymbol(","):
			flush()
			continue
		}
		item = append(item, t)
	}
	flush()
}

func collectSelectItem(item []token, columns *identifierSet) {
	i := 0
	for i < len(item) && (item[i].isWord("DISTINCT") || item[i].isWord("ALL")) {
		i++
	}
	if i >= len(item) || item[i].isSymbol("*") {
		return
	}
	name, next, ok := readName(item, i)
	if !ok {
		return
	}
	if next < len(item) && item[next].isSymbol("(") {
		return // function call, not a column reference
	}
	columns.add(name)
}

// collectComparisonColumns scans the clause that starts at the top-level
// keyword start and ends at the first top-level stop keyword, adding every
// identifier that sits directly before a comparison operator or a predicate
// keyword.
func collectComparisonColumns(segment []token, start string, stops []string, columns *identifierSet) {
	begin, end := clauseBounds(segment, start, stops)
	if begin < 0 {
		return
	}
	for i := begin; i < end; {
		name, next, ok := readName(segment, i)
		if !ok {
			i++
			continue
		}
		if next < end && isPredicateAnchor(segment[next]) {
			columns.add(name)
		}
		i = next
	}
}

func isPredicateAnchor(t token) bool {
	if t.kind == tokenSymbol && comparisonOperators[t.text] {
		return true
	}
	for _, word := range []string{"IN", "LIKE", "BETWEEN", "IS", "NOT"} {
		if t.isWord(word) {
			return true
		}
	}
	return false
}

// collectSortColumns handles ORDER BY and GROUP BY lists.
func collectSortColumns(segment []token, keyword string, columns *identifierSet) {
	begin, end := clauseBounds(segment, keyword, []string{"LIMIT", "HAVING", "ORDER", "GROUP"})
	if begin < 0 {
		return
	}
	if begin >= end || !segment[begin].isWord("BY") {
		return
	}
	i := begin + 1
	for i < end {
		name, next, ok := readName(segment, i)
		if !ok {
			return
		}
		columns.add(name)
		i = next
		for i < end && (segment[i].isWord("ASC") || segment[i].isWord("DESC")) {
			i++
		}
		if i < end && segment[i].isSymbol(",") {
			i++
			continue
		}
		return
	}
}

// clauseBounds locates a top-level clause keyword and returns the token range
// following it, ending at the first top-level stop keyword or the end of the
// statement. begin is -1 when the keyword is absent.
func clauseBounds(segment []token, keyword string, stops []string) (int, int) {
	depth := 0
	begin := -1
	for i, t := range segment {
		switch {
		case t.isSymbol("("):
			depth++
		case t.isSymbol(")"):
			if depth > 0 {
				depth--
			}
		case depth == 0 && begin < 0 && t.isWord(keyword):
			begin = i + 1
		case depth == 0 && begin >= 0:
			for _, stop := range stops {
				if t.isWord(stop) {
					return begin, i
				}
			}
		}
	}
	if begin < 0 {
		return -1, -1
	}
	return begin, len(segment)
}
