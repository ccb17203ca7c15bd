package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"databrowser/internal/schema"
	"databrowser/internal/types"
)

// BoundField is a selected field resolved against the schema.
type BoundField struct {
	FieldRef
	Field schema.Field
	Type  *types.Type
}

// BoundFilter is a filter resolved against the schema. A filter whose
// value does not parse is kept with ErrorMessage set so the caller can
// show it next to the offending input.
type BoundFilter struct {
	FilterRef
	Field        schema.Field
	Type         *types.Type
	Parsed       any
	Err          error
	ErrorMessage string
}

// BoundQuery is a Query validated against a schema.
type BoundQuery struct {
	Model   string
	Fields  []BoundField
	Filters []BoundFilter
	Limit   int
}

// Valid reports whether every filter parsed.
func (b *BoundQuery) Valid() bool {
	for _, f := range b.Filters {
		if f.Err != nil {
			return false
		}
	}
	return true
}

// resolve walks path from model, following each field into the schema
// its sub-fields live in.
func resolve(models schema.Models, model string, path []string) (schema.Field, error) {
	current, ok := models[model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}
	where := model
	for i, name := range path {
		f, ok := current.Fields[name]
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", where, name)
		}
		if i == len(path)-1 {
			return f, nil
		}
		rel, ok := schema.RelNameOf(f)
		if !ok {
			return nil, fmt.Errorf("%s.%s has no sub-fields", where, name)
		}
		if current, ok = models[rel]; !ok {
			return nil, fmt.Errorf("%s.%s points at unknown schema %q", where, name, rel)
		}
		where = rel
	}
	return nil, errors.New("empty field path")
}

// Bind resolves q against models. Unknown models and fields are errors;
// filter values that do not parse are reported on the filter.
func Bind(ctx context.Context, models schema.Models, q *Query) (*BoundQuery, error) {
	bq := &BoundQuery{Model: q.Model, Limit: q.Limit}
	if _, ok := models[q.Model]; !ok {
		return nil, fmt.Errorf("unknown model %q", q.Model)
	}

	for _, ref := range q.Fields {
		f, err := resolve(models, q.Model, ref.Path)
		if err != nil {
			return nil, err
		}
		if _, isFk := f.(*schema.FkField); isFk {
			return nil, fmt.Errorf("%s is a relation, select one of its fields", strings.Join(ref.Path, sep))
		}
		bq.Fields = append(bq.Fields, BoundField{FieldRef: ref, Field: f, Type: schema.TypeOf(f)})
	}

	for _, ref := range q.Filters {
		f, err := resolve(models, q.Model, ref.Path)
		if err != nil {
			return nil, err
		}
		bf := BoundFilter{FilterRef: ref, Field: f, Type: schema.TypeOf(f)}
		if bf.Type == nil {
			bf.Err = fmt.Errorf("%s can't be filtered", strings.Join(ref.Path, sep))
		} else {
			bf.Parsed, bf.Err = bf.Type.Parse(ctx, ref.Lookup, ref.Value)
		}
		if bf.Err != nil {
			bf.ErrorMessage = bf.Err.Error()
		}
		bq.Filters = append(bq.Filters, bf)
	}
	return bq, nil
}
