// Package types is the catalog of abstract value types the browser
// filters, sorts and formats by. Each Type declares its lookups (filter
// operators and the type of their operand), how operand text is parsed,
// how stored values are rendered and which rendering hints it computes.
//
// A Registry holds one instance of every type. It is built once and never
// changes; the only mutable state it owns is the regex validation memo.
package types

import (
	"context"
	"fmt"
	"strings"
)

// Sort is a default sort direction.
type Sort string

const (
	Unsorted Sort = ""
	Asc      Sort = "asc"
	Dsc      Sort = "dsc"
)

// Type names.
const (
	String       = "string"
	StringChoice = "stringchoice"
	StringArray  = "stringarray"
	Regex        = "regex"
	Number       = "number"
	NumberChoice = "numberchoice"
	NumberArray  = "numberarray"
	Year         = "year"
	Duration     = "duration"
	DateTime     = "datetime"
	Date         = "date"
	WeekDay      = "weekday"
	Month        = "month"
	HTML         = "html"
	Boolean      = "boolean"
	IsNull       = "isnull"
	Unknown      = "unknown"
	JSONField    = "jsonfield"
	JSON         = "json"
)

// Choice is one raw value and its display label.
type Choice struct {
	Value any
	Label string
}

// Lookup is a named filter operator and the type of its operand.
type Lookup struct {
	Name string
	Type *Type
}

type (
	parseFunc  func(ctx context.Context, value string) (any, error)
	formatFunc func(value any, choices []Choice) (any, error)
	hintsFunc  func(name string, rows []map[string]any) map[string]any
)

// Type is one abstract value type.
type Type struct {
	Name         string
	DefaultValue any
	DefaultSort  Sort

	lookups []Lookup
	parse   parseFunc
	format  formatFunc
	hints   hintsFunc
}

// Lookups returns the type's lookups in declaration order.
func (t *Type) Lookups() []Lookup {
	return t.lookups
}

// Lookup returns the operand type of the named lookup.
func (t *Type) Lookup(name string) (*Type, bool) {
	for _, l := range t.lookups {
		if l.Name == name {
			return l.Type, true
		}
	}
	return nil, false
}

// DefaultLookup is the first declared lookup, or "" for types without any.
func (t *Type) DefaultLookup() string {
	if len(t.lookups) == 0 {
		return ""
	}
	return t.lookups[0].Name
}

// Format renders a stored value for display. choices must be given for
// choice types and may be given for array types; other types reject them.
func (t *Type) Format(value any, choices []Choice) (any, error) {
	return t.format(value, choices)
}

// FormatHints computes rendering metadata for the column name over rows.
func (t *Type) FormatHints(name string, rows []map[string]any) map[string]any {
	if t.hints == nil {
		return map[string]any{}
	}
	return t.hints(name, rows)
}

// Parse converts operand text for lookup into a typed value. The operand
// is parsed by the lookup's operand type. Errors are always *LookupError
// or *ParseError; panics inside a parser come back as a *ParseError.
func (t *Type) Parse(ctx context.Context, lookup, value string) (v any, err error) {
	target, ok := t.Lookup(lookup)
	if !ok {
		return nil, &LookupError{Type: t.Name, Lookup: lookup, Valid: t.lookups}
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &ParseError{Type: target.Name, Value: value, Message: panicMessage(r)}
		}
	}()
	v, err = target.parse(ctx, value)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = fmt.Sprintf("%#v", err)
		}
		return nil, &ParseError{Type: target.Name, Value: value, Message: msg, Err: err}
	}
	return v, nil
}

func panicMessage(r any) string {
	var msg string
	switch p := r.(type) {
	case error:
		msg = p.Error()
	case string:
		msg = p
	default:
		msg = fmt.Sprint(p)
	}
	if msg == "" {
		msg = fmt.Sprintf("%#v", r)
	}
	return msg
}

// LookupError reports a lookup the type does not declare.
type LookupError struct {
	Type   string
	Lookup string
	Valid  []Lookup
}

func (e *LookupError) Error() string {
	parts := make([]string, len(e.Valid))
	for i, l := range e.Valid {
		parts[i] = fmt.Sprintf("'%s': '%s'", l.Name, l.Type.Name)
	}
	return fmt.Sprintf("Bad lookup '%s' expected {%s}", e.Lookup, strings.Join(parts, ", "))
}

// ParseError reports operand text the type could not parse.
type ParseError struct {
	Type    string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
