package sqlscan

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder is an explicit <NAME> marker the SQL writer emits in place of
// an identifier or value it could not resolve.
type Placeholder struct {
	Token   string `json:"token"`
	Meaning string `json:"meaning"`
}

var placeholderPattern = regexp.MustCompile(`<[A-Z][A-Z0-9_]*>`)

// meaningRules maps the semantic hint inside a placeholder token to a
// human-readable meaning. Rules are tried in order; extend the table to teach
// the extractor new token families.
var meaningRules = []struct {
	hint        string
	withSubject string
	bare        string
}{
	{hint: "table", withSubject: "Table containing %s", bare: "Table to be specified"},
	{hint: "column", withSubject: "Column containing %s", bare: "Column to be specified"},
	{hint: "condition", withSubject: "Filter condition on %s", bare: "Filter condition to be specified"},
}

// ExtractPlaceholders returns the distinct placeholder tokens in sql in
// first-occurrence order. The token text is the identity key; repeated tokens
// collapse to one entry.
func ExtractPlaceholders(sql string) []Placeholder {
	matches := placeholderPattern.FindAllString(sql, -1)
	if len(matches) == 0 {
		return nil
	}

	placeholders := make([]Placeholder, 0, len(matches))
	seen := map[string]bool{}
	for _, tokenText := range matches {
		if seen[tokenText] {
			continue
		}
		seen[tokenText] = true
		placeholders = append(placeholders, Placeholder{
			Token:   tokenText,
			Meaning: meaningFor(tokenText),
		})
	}
	return placeholders
}

func meaningFor(tokenText string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(tokenText, "<"), ">")
	words := strings.ReplaceAll(strings.ToLower(inner), "_", " ")

	for _, rule := range meaningRules {
		if !strings.Contains(words, rule.hint) {
			continue
		}
		subject := strings.Join(strings.Fields(strings.ReplaceAll(words, rule.hint, " ")), " ")
		if subject == "" {
			return rule.bare
		}
		return fmt.Sprintf(rule.withSubject, subject)
	}
	return fmt.Sprintf("Value to be specified for %s", words)
}
