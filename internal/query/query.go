// Package query reads the field and filter strings of a saved view and
// binds them against a built schema.
//
// Fields are comma separated paths with an optional sort suffix:
// "customer__name+1,total-0,placed" sorts by name ascending first, then
// total descending. Filters are URL query pairs whose key is a path
// followed by a lookup: "total__gt=10&customer__name__contains=a".
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"databrowser/internal/types"
)

const sep = "__"

// FieldRef is one selected field.
type FieldRef struct {
	Path     []string
	Sort     types.Sort
	Priority int
}

// FilterRef is one filter.
type FilterRef struct {
	Path   []string
	Lookup string
	Value  string
}

// Query is a parsed view.
type Query struct {
	Model   string
	Fields  []FieldRef
	Filters []FilterRef
	Limit   int
}

// Parse reads the parts of a view.
func Parse(model, fields, filters string, limit int) (*Query, error) {
	fs, err := ParseFields(fields)
	if err != nil {
		return nil, err
	}
	flt, err := ParseFilters(filters)
	if err != nil {
		return nil, err
	}
	return &Query{Model: model, Fields: fs, Filters: flt, Limit: limit}, nil
}

// ParseFields reads a comma separated field list.
func ParseFields(s string) ([]FieldRef, error) {
	var out []FieldRef
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref := FieldRef{}
		if i := strings.IndexAny(part, "+-"); i >= 0 {
			p, err := strconv.Atoi(part[i+1:])
			if err != nil || p < 0 {
				return nil, fmt.Errorf("bad sort priority in %q", part)
			}
			ref.Sort = types.Asc
			if part[i] == '-' {
				ref.Sort = types.Dsc
			}
			ref.Priority = p
			part = part[:i]
		}
		if part == "" {
			return nil, fmt.Errorf("empty field path")
		}
		ref.Path = strings.Split(part, sep)
		out = append(out, ref)
	}
	return out, nil
}

// ParseFilters reads URL query pairs in order. The "limit" key is not a
// filter and is skipped.
func ParseFilters(s string) ([]FilterRef, error) {
	var out []FilterRef
	for _, pair := range strings.Split(strings.TrimPrefix(s, "?"), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("bad filter key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("bad filter value for %s: %w", key, err)
		}
		if key == "limit" {
			continue
		}
		parts := strings.Split(key, sep)
		if len(parts) < 2 {
			return nil, fmt.Errorf("filter %q has no lookup", key)
		}
		out = append(out, FilterRef{
			Path:   parts[:len(parts)-1],
			Lookup: parts[len(parts)-1],
			Value:  value,
		})
	}
	return out, nil
}

// FieldsString renders the field list back into its text form.
func (q *Query) FieldsString() string {
	parts := make([]string, len(q.Fields))
	for i, f := range q.Fields {
		parts[i] = strings.Join(f.Path, sep)
		switch f.Sort {
		case types.Asc:
			parts[i] += "+" + strconv.Itoa(f.Priority)
		case types.Dsc:
			parts[i] += "-" + strconv.Itoa(f.Priority)
		}
	}
	return strings.Join(parts, ",")
}
