// Package schema builds, per request, the typed field map of every model
// the caller may browse. The result is what saved views are validated
// against and what the query layer compiles from.
package schema

import (
	"sort"

	"databrowser/internal/admin"
	"databrowser/internal/meta"
	"databrowser/internal/types"
)

// Base carries what every field has.
type Base struct {
	ModelName  string
	Name       string
	PrettyName string
}

func (b *Base) base() *Base { return b }

// Field is one of the field variants below.
type Field interface {
	base() *Base
}

// Describe returns the common part of f.
func Describe(f Field) Base {
	return *f.base()
}

// ConcreteField is backed by a column. RelName is the schema its lookups
// join against: the type's own schema, or a JSON sub-schema.
type ConcreteField struct {
	Base
	Type    *types.Type
	RelName string
	Choices []types.Choice
}

// FkField points at another visible model.
type FkField struct {
	Base
	RelName string
}

// CalculatedField is an admin attribute whose type is only known once
// values are read.
type CalculatedField struct {
	Base
	Admin any
}

// AnnotatedField is an admin attribute computed by a queryset annotation.
// Filters and sorts go against OrderField, not the attribute.
type AnnotatedField struct {
	Base
	Type         *types.Type
	StorageClass meta.Class
	Admin        any
	OrderField   string
	Choices      []types.Choice
}

// FileField is a stored file, shown as a download link.
type FileField struct {
	Base
	Storage *meta.Field
}

// AdminField links a row to its admin page.
type AdminField struct {
	Base
}

// FunctionField applies a function to the value it hangs off, such as
// the year of a date.
type FunctionField struct {
	Base
	Type     *types.Type
	RelName  string
	Function string
}

// AggregateField aggregates the value it hangs off.
type AggregateField struct {
	Base
	Type      *types.Type
	Aggregate string
}

// TypeOf returns the value type of f, or nil for fields without one.
func TypeOf(f Field) *types.Type {
	switch v := f.(type) {
	case *ConcreteField:
		return v.Type
	case *AnnotatedField:
		return v.Type
	case *FunctionField:
		return v.Type
	case *AggregateField:
		return v.Type
	}
	return nil
}

// RelNameOf returns the schema f's sub-fields live in.
func RelNameOf(f Field) (string, bool) {
	switch v := f.(type) {
	case *ConcreteField:
		return v.RelName, true
	case *FkField:
		return v.RelName, true
	case *FunctionField:
		return v.RelName, true
	case *AnnotatedField:
		return v.Type.Name, true
	}
	return "", false
}

// Model is the field map of one model, or of one type's pseudo-model.
type Model struct {
	Fields map[string]Field
	Admin  any
}

// Names returns the field names in order.
func (m *Model) Names() []string {
	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models maps model names to their schemas.
type Models map[string]*Model

func newAdminField(model string) *AdminField {
	return &AdminField{Base{ModelName: model, Name: admin.OpenInAdmin, PrettyName: admin.OpenInAdmin}}
}
