// Package meta describes the models the browser reports on: their storage
// fields, how those fields relate to other models and the choice sets
// they carry. A Catalog is normally built from an extracted database
// catalog with FromSchema.
package meta

import (
	"fmt"
	"sort"
)

// Choice is one raw value and display label of an enumerated field.
type Choice struct {
	Value any
	Label any
}

// Field is one declared storage field of a model.
type Field struct {
	Name        string
	Class       Class
	Base        Class // element class of array fields
	VerboseName string
	Choices     []Choice
	Related     string // target model of relations
	Column      string
	PK          bool
	Unique      bool
}

// Model is a reportable model and its declared fields.
type Model struct {
	Name        string
	Table       string
	VerboseName string
	Fields      []*Field

	attributes map[string]bool
}

// Field returns the declared field called name.
func (m *Model) Field(name string) (*Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// HasAttribute reports whether name is a field or a declared non-column
// attribute of the model.
func (m *Model) HasAttribute(name string) bool {
	if _, ok := m.Field(name); ok {
		return true
	}
	return m.attributes[name]
}

// AddAttribute declares a non-column attribute such as a computed property.
func (m *Model) AddAttribute(name string) {
	if m.attributes == nil {
		m.attributes = map[string]bool{}
	}
	m.attributes[name] = true
}

// Source is read access to model metadata.
type Source interface {
	Model(name string) (*Model, bool)
	Models() []*Model
}

// Catalog is an in-memory Source.
type Catalog struct {
	models map[string]*Model
}

// NewCatalog returns a catalog holding models. Later models replace
// earlier ones of the same name.
func NewCatalog(models ...*Model) *Catalog {
	c := &Catalog{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		c.models[m.Name] = m
	}
	return c
}

// Model returns the named model.
func (c *Catalog) Model(name string) (*Model, bool) {
	m, ok := c.models[name]
	return m, ok
}

// Models returns every model ordered by name.
func (c *Catalog) Models() []*Model {
	out := make([]*Model, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ForeignKeyTo finds the field of child that points at parent. fkName
// picks one when several exist.
func ForeignKeyTo(src Source, child, parent, fkName string) (*Field, error) {
	m, ok := src.Model(child)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", child)
	}
	if fkName != "" {
		f, ok := m.Field(fkName)
		if !ok {
			return nil, fmt.Errorf("%s has no field named %q", child, fkName)
		}
		if !f.Class.Is(ForeignKey) || f.Related != parent {
			return nil, fmt.Errorf("fk_name %q is not a ForeignKey to %s", fkName, parent)
		}
		return f, nil
	}

	var found []*Field
	for _, f := range m.Fields {
		if f.Class.Is(ForeignKey) && f.Related == parent {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%s has no ForeignKey to %s", child, parent)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%s has more than one ForeignKey to %s, specify fk_name", child, parent)
	}
}
