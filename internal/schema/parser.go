package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports malformed schema metadata. It is a request-level error:
// the caller answers it before the policy gate ever runs.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// Parse converts raw JSON schema metadata into a Schema. A nil, empty, or
// JSON-null payload means no schema was supplied and returns (nil, nil).
// Anything present must be an object whose "tables" entry is an array of
// table objects with non-empty names; violations return a *ParseError.
//
// The model invariant that table names (and column names within a table) are
// unique case-insensitively is enforced here rather than downstream.
func Parse(raw []byte) (*Schema, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, parseErrorf("schema metadata is not valid JSON: %v", err)
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, parseErrorf("schema metadata must be an object, got %s", describeJSON(value))
	}

	tablesValue, present := object["tables"]
	if !present {
		return &Schema{}, nil
	}
	tablesArray, ok := tablesValue.([]any)
	if !ok {
		return nil, parseErrorf("schema 'tables' must be an array, got %s", describeJSON(tablesValue))
	}

	parsed := &Schema{Tables: make([]Table, 0, len(tablesArray))}
	seenTables := map[string]bool{}
	for i, tableValue := range tablesArray {
		table, err := parseTable(i, tableValue)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(table.Name)
		if seenTables[key] {
			return nil, parseErrorf("duplicate table name %q", table.Name)
		}
		seenTables[key] = true
		parsed.Tables = append(parsed.Tables, table)
	}
	return parsed, nil
}

func parseTable(index int, value any) (Table, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return Table{}, parseErrorf("table %d must be an object, got %s", index, describeJSON(value))
	}

	name, err := requiredName(object, fmt.Sprintf("table %d", index))
	if err != nil {
		return Table{}, err
	}
	table := Table{Name: name}
	if table.Description, err = optionalString(object, "description", "table "+name); err != nil {
		return Table{}, err
	}

	columnsValue, present := object["columns"]
	if !present {
		return table, nil
	}
	columnsArray, ok := columnsValue.([]any)
	if !ok {
		return Table{}, parseErrorf("table %q 'columns' must be an array, got %s", name, describeJSON(columnsValue))
	}

	seenColumns := map[string]bool{}
	for i, columnValue := range columnsArray {
		column, err := parseColumn(name, i, columnValue)
		if err != nil {
			return Table{}, err
		}
		key := strings.ToLower(column.Name)
		if seenColumns[key] {
			return Table{}, parseErrorf("duplicate column name %q in table %q", column.Name, name)
		}
		seenColumns[key] = true
		table.Columns = append(table.Columns, column)
	}
	return table, nil
}

func parseColumn(tableName string, index int, value any) (Column, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return Column{}, parseErrorf("column %d in table %q must be an object, got %s", index, tableName, describeJSON(value))
	}

	context := fmt.Sprintf("column %d in table %q", index, tableName)
	name, err := requiredName(object, context)
	if err != nil {
		return Column{}, err
	}

	column := Column{Name: name}
	for key, target := range map[string]*string{
		"type":        &column.Type,
		"description": &column.Description,
		"foreign_key": &column.ForeignKey,
	} {
		if *target, err = optionalString(object, key, context); err != nil {
			return Column{}, err
		}
	}
	if primaryValue, present := object["primary_key"]; present {
		primary, ok := primaryValue.(bool)
		if !ok {
			return Column{}, parseErrorf("%s 'primary_key' must be a boolean, got %s", context, describeJSON(primaryValue))
		}
		column.PrimaryKey = primary
	}
	return column, nil
}

func requiredName(object map[string]any, context string) (string, error) {
	value, present := object["name"]
	if !present {
		return "", parseErrorf("%s is missing required field 'name'", context)
	}
	name, ok := value.(string)
	if !ok {
		return "", parseErrorf("%s 'name' must be a string, got %s", context, describeJSON(value))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", parseErrorf("%s has an empty 'name'", context)
	}
	return name, nil
}

func optionalString(object map[string]any, key, context string) (string, error) {
	value, present := object[key]
	if !present || value == nil {
		return "", nil
	}
	text, ok := value.(string)
	if !ok {
		return "", parseErrorf("%s %q must be a string, got %s", context, key, describeJSON(value))
	}
	return text, nil
}

func describeJSON(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
