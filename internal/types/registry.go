package types

import (
	"context"
	"fmt"
	"time"
)

// RegexChecker asks the reporting store whether it accepts a pattern.
// A rejected pattern is reported as an error carrying the store's message.
type RegexChecker interface {
	CheckRegex(ctx context.Context, pattern string) error
}

// ParseFunc parses operand text for one lookup.
type ParseFunc func(ctx context.Context, value string) (any, error)

// Registry holds one instance of every Type.
type Registry struct {
	types map[string]*Type
	order []*Type

	loc     *time.Location
	now     func() time.Time
	checker RegexChecker
	memo    *RegexMemo
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocation sets the zone datetimes are parsed into and formatted
// from. The default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock replaces time.Now for "now", "today" and the default year.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRegexChecker validates regex operands against the store. Without
// one, patterns are checked with Go regexp syntax.
func WithRegexChecker(c RegexChecker) Option {
	return func(r *Registry) {
		r.checker = c
	}
}

// WithRegexMemo shares or replaces the memo of validated patterns.
func WithRegexMemo(m *RegexMemo) Option {
	return func(r *Registry) {
		if m != nil {
			r.memo = m
		}
	}
}

// New builds the registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		types: map[string]*Type{},
		loc:   time.Local,
		now:   time.Now,
		memo:  NewRegexMemo(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.declare()
	return r
}

// Type returns the named type.
func (r *Registry) Type(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns every type in declaration order.
func (r *Registry) Types() []*Type {
	return r.order
}

// Memo is the registry's regex validation memo.
func (r *Registry) Memo() *RegexMemo {
	return r.memo
}

// Lookup resolves a lookup of the named type to its parser and operand
// type.
func (r *Registry) Lookup(typeName, lookup string) (ParseFunc, *Type, error) {
	t, ok := r.types[typeName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown type %q", typeName)
	}
	target, ok := t.Lookup(lookup)
	if !ok {
		return nil, nil, &LookupError{Type: t.Name, Lookup: lookup, Valid: t.lookups}
	}
	parse := func(ctx context.Context, value string) (any, error) {
		return t.Parse(ctx, lookup, value)
	}
	return parse, target, nil
}

// Parse parses value for lookup of the named type.
func (r *Registry) Parse(ctx context.Context, typeName, lookup, value string) (any, error) {
	t, ok := r.types[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}
	return t.Parse(ctx, lookup, value)
}
