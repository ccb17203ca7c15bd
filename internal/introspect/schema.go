// Package introspect holds the raw catalog read from a live database:
// tables, their columns and the foreign keys between them. It carries no
// interpretation; the meta package turns it into model metadata.
package introspect

// Column represents a table column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Elem     string `json:"elem,omitempty"` // element type of array columns
	Nullable bool   `json:"nullable"`
	PK       bool   `json:"pk"`
	Unique   bool   `json:"unique,omitempty"`
}

// ForeignKey represents a foreign key relationship.
type ForeignKey struct {
	FromSchema string `json:"from_schema,omitempty"`
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToSchema   string `json:"to_schema,omitempty"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
	Constraint string `json:"constraint,omitempty"`
}

// Table represents a database table and its columns.
type Table struct {
	Schema  string   `json:"schema,omitempty"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Comment *string  `json:"comment,omitempty"`
}

// QualifiedName is schema.table, or just the table name when the dialect
// has no schemas.
func (t Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Schema is the full DB catalog extracted for schema building.
type Schema struct {
	Tables      []Table      `json:"tables"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Table returns the table with the given qualified name, or nil.
func (s *Schema) Table(qualified string) *Table {
	for i := range s.Tables {
		if s.Tables[i].QualifiedName() == qualified {
			return &s.Tables[i]
		}
	}
	return nil
}
