// Package schema models caller-supplied database schema metadata and checks
// SQL identifier references against it. An absent schema is represented by a
// nil *Schema and is distinct from a schema with zero tables: the former
// disables schema-aware checks, the latter still runs them.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name        string
	Type        string
	Description string
	PrimaryKey  bool
	ForeignKey  string // "table.column"
}

type Table struct {
	Name        string
	Description string
	Columns     []Column
}

type Schema struct {
	Tables []Table
}

func (t Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if strings.EqualFold(column.Name, name) {
			return true
		}
	}
	return false
}

func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		names = append(names, column.Name)
	}
	return names
}

func (s *Schema) IsEmpty() bool {
	return s == nil || len(s.Tables) == 0
}

func (s *Schema) HasTable(name string) bool {
	return s.Table(name) != nil
}

func (s *Schema) Table(name string) *Table {
	if s == nil {
		return nil
	}
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

func (s *Schema) HasColumn(tableName, columnName string) bool {
	table := s.Table(tableName)
	return table != nil && table.HasColumn(columnName)
}

func (s *Schema) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		names = append(names, table.Name)
	}
	return names
}

// PromptString renders the schema for an agent prompt, one table per block.
func (s *Schema) PromptString() string {
	if s.IsEmpty() {
		return "No schema provided."
	}
	var b strings.Builder
	b.WriteString("DATABASE SCHEMA:\n")
	for _, table := range s.Tables {
		b.WriteString("\nTABLE: ")
		b.WriteString(table.Name)
		if table.Description != "" {
			b.WriteString(" -- ")
			b.WriteString(table.Description)
		}
		b.WriteString("\n")
		for _, column := range table.Columns {
			b.WriteString("  - ")
			b.WriteString(columnPromptString(column))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// CompactString renders the schema as table(col, col) pairs for short prompts.
func (s *Schema) CompactString() string {
	if s.IsEmpty() {
		return "No schema provided."
	}
	parts := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		parts = append(parts, fmt.Sprintf("%s(%s)", table.Name, strings.Join(table.ColumnNames(), ", ")))
	}
	return "Tables: " + strings.Join(parts, "; ")
}

func columnPromptString(column Column) string {
	parts := []string{column.Name}
	if column.Type != "" {
		parts = append(parts, fmt.Sprintf("(%s)", column.Type))
	}
	var annotations []string
	if column.PrimaryKey {
		annotations = append(annotations, "PK")
	}
	if column.ForeignKey != "" {
		annotations = append(annotations, "FK->"+column.ForeignKey)
	}
	if len(annotations) > 0 {
		parts = append(parts, "["+strings.Join(annotations, ", ")+"]")
	}
	if column.Description != "" {
		parts = append(parts, "-- "+column.Description)
	}
	return strings.Join(parts, " ")
}
