package sqlscan

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenNumber
	tokenString
	tokenSymbol
	tokenPlaceholder
)

type token struct {
	kind   tokenKind
	text   string
	quoted bool
}

func (t token) isWord(word string) bool {
	return t.kind == tokenWord && !t.quoted && strings.EqualFold(t.text, word)
}

func (t token) isSymbol(symbol string) bool {
	return t.kind == tokenSymbol && t.text == symbol
}

// lex turns raw SQL into a flat token stream. Line and block comments are
// discarded, string literals become single tokens, and quoted identifiers keep
// their unquoted text with the quoted flag set. The lexer never fails:
// unterminated literals or comments consume the rest of the input.
func lex(input string) []token {
	var tokens []token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i < len(runes) {
				if runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
		case r == '\'':
			text, next := scanQuoted(runes, i, '\'')
			tokens = append(tokens, token{kind: tokenString, text: text})
			i = next
		case r == '"':
			text, next := scanQuoted(runes, i, '"')
			tokens = append(tokens, token{kind: tokenWord, text: text, quoted: true})
			i = next
		case r == '`':
			text, next := scanQuoted(runes, i, '`')
			tokens = append(tokens, token{kind: tokenWord, text: text, quoted: true})
			i = next
		case isWordStart(r):
			start := i
			for i < len(runes) && isWordPart(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenWord, text: string(runes[start:i])})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: string(runes[start:i])})
		default:
			if text, width := scanPlaceholder(runes, i); width > 0 {
				tokens = append(tokens, token{kind: tokenPlaceholder, text: text})
				i += width
				continue
			}
			if op, width := scanOperator(runes, i); width > 0 {
				tokens = append(tokens, token{kind: tokenSymbol, text: op})
				i += width
				continue
			}
			tokens = append(tokens, token{kind: tokenSymbol, text: string(r)})
			i++
		}
	}
	return tokens
}

// scanQuoted consumes a quoted region starting at runes[start] (the opening
// quote) and returns the inner text plus the index after the closing quote.
// A doubled quote is the escape form inside the region.
func scanQuoted(runes []rune, start int, quote rune) (string, int) {
	var inner strings.Builder
	i := start + 1
	for i < len(runes) {
		if runes[i] == quote {
			if i+1 < len(runes) && runes[i+1] == quote {
				inner.WriteRune(quote)
				i += 2
				continue
			}
			return inner.String(), i + 1
		}
		inner.WriteRune(runes[i])
		i++
	}
	return inner.String(), i
}

// scanPlaceholder recognizes a <UPPER_SNAKE> writer placeholder as one token
// so it never leaks into identifier extraction.
func scanPlaceholder(runes []rune, i int) (string, int) {
	if runes[i] != '<' || i+1 >= len(runes) {
		return "", 0
	}
	j := i + 1
	if runes[j] < 'A' || runes[j] > 'Z' {
		return "", 0
	}
	for j < len(runes) && (runes[j] == '_' || (runes[j] >= 'A' && runes[j] <= 'Z') || (runes[j] >= '0' && runes[j] <= '9')) {
		j++
	}
	if j >= len(runes) || runes[j] != '>' {
		return "", 0
	}
	return string(runes[i : j+1]), j + 1 - i
}

var twoRuneOperators = []string{"<=", ">=", "<>", "!=", "||", "::"}

func scanOperator(runes []rune, i int) (string, int) {
	if i+1 >= len(runes) {
		return "", 0
	}
	candidate := string(runes[i : i+2])
	for _, op := range twoRuneOperators {
		if candidate == op {
			return op, 2
		}
	}
	return "", 0
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isWordPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}
