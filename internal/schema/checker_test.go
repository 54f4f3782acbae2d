package schema

import (
	"strings"
	"testing"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	parsed, err := Parse([]byte(`{
		"tables": [
			{"name": "accounts", "columns": [{"name": "id"}, {"name": "status"}, {"name": "created_at"}]},
			{"name": "orders", "columns": [{"name": "id"}, {"name": "account_id"}, {"name": "total"}]}
		]
	}`))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	return parsed
}

func TestCheckIdentifiersAllKnown(t *testing.T) {
	s := testSchema(t)
	if got := s.CheckIdentifiers([]string{"accounts", "ORDERS"}, []string{"id", "Status", "total"}); len(got) != 0 {
		t.Fatalf("unexpected messages: %v", got)
	}
}

func TestCheckIdentifiersUnknownTableAndColumn(t *testing.T) {
	s := testSchema(t)
	messages := s.CheckIdentifiers([]string{"customers"}, []string{"balance"})
	if len(messages) != 2 {
		t.Fatalf("messages = %v, want 2", messages)
	}
	if !strings.Contains(messages[0], "Table 'customers' not found") {
		t.Fatalf("table message = %q", messages[0])
	}
	if !strings.Contains(messages[1], "Column 'balance' not found") {
		t.Fatalf("column message = %q", messages[1])
	}
}

func TestCheckIdentifiersSuggestsCloseMatches(t *testing.T) {
	s := testSchema(t)
	messages := s.CheckIdentifiers([]string{"account"}, []string{"statuss"})
	if len(messages) != 2 {
		t.Fatalf("messages = %v, want 2", messages)
	}
	if !strings.Contains(messages[0], "did you mean 'accounts'?") {
		t.Fatalf("no table suggestion in %q", messages[0])
	}
	if !strings.Contains(messages[1], "did you mean 'status'?") {
		t.Fatalf("no column suggestion in %q", messages[1])
	}
}

func TestCheckIdentifiersZeroTableSchemaFlagsEverything(t *testing.T) {
	empty := &Schema{}
	messages := empty.CheckIdentifiers([]string{"accounts"}, []string{"id"})
	if len(messages) != 2 {
		t.Fatalf("messages = %v, want 2", messages)
	}
}

func TestCheckIdentifiersNilSchemaIsSilent(t *testing.T) {
	var absent *Schema
	if got := absent.CheckIdentifiers([]string{"accounts"}, []string{"id"}); got != nil {
		t.Fatalf("nil schema produced messages: %v", got)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestValidateForeignKeys(t *testing.T) {
	parsed, err := Parse([]byte(`{
		"tables": [
			{"name": "empty_table"},
			{"name": "orders", "columns": [
				{"name": "id"},
				{"name": "account_id", "foreign_key": "accounts.id"},
				{"name": "bad_format", "foreign_key": "accounts"},
				{"name": "bad_column", "foreign_key": "orders.missing"}
			]}
		]
	}`))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}

	warnings := Validate(parsed)
	wantFragments := []string{
		"'empty_table' has no columns",
		"non-existent table 'accounts'",
		"Invalid foreign key format 'accounts'",
		"non-existent column 'missing'",
	}
	if len(warnings) != len(wantFragments) {
		t.Fatalf("warnings = %v, want %d entries", warnings, len(wantFragments))
	}
	for _, fragment := range wantFragments {
		found := false
		for _, warning := range warnings {
			if strings.Contains(warning, fragment) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no warning containing %q in %v", fragment, warnings)
		}
	}
}
