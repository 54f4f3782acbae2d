package schema

import (
	"fmt"
	"strings"
)

// Validate returns advisory warnings about a parsed schema: tables with no
// columns and foreign keys that do not resolve. These never fail a request;
// they ride along in the response warnings.
func Validate(s *Schema) []string {
	if s == nil {
		return nil
	}

	var warnings []string
	for _, table := range s.Tables {
		if len(table.Columns) == 0 {
			warnings = append(warnings, fmt.Sprintf("Table '%s' has no columns defined", table.Name))
		}
		for _, column := range table.Columns {
			if column.ForeignKey == "" {
				continue
			}
			warnings = append(warnings, validateForeignKey(s, table, column)...)
		}
	}
	return warnings
}

func validateForeignKey(s *Schema, table Table, column Column) []string {
	parts := strings.Split(column.ForeignKey, ".")
	if len(parts) != 2 {
		return []string{fmt.Sprintf(
			"Invalid foreign key format '%s' in %s.%s, expected 'table.column'",
			column.ForeignKey, table.Name, column.Name,
		)}
	}

	refTable, refColumn := parts[0], parts[1]
	if !s.HasTable(refTable) {
		return []string{fmt.Sprintf(
			"Foreign key references non-existent table '%s' in %s.%s",
			refTable, table.Name, column.Name,
		)}
	}
	if !s.HasColumn(refTable, refColumn) {
		return []string{fmt.Sprintf(
			"Foreign key references non-existent column '%s' in table '%s' (from %s.%s)",
			refColumn, refTable, table.Name, column.Name,
		)}
	}
	return nil
}
