package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databrowser/internal/admin"
	"databrowser/internal/meta"
	"databrowser/internal/schema"
	"databrowser/internal/types"
)

func TestParseFields(t *testing.T) {
	var tests = []struct {
		name    string
		in      string
		want    []FieldRef
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"plain", "name", []FieldRef{{Path: []string{"name"}}}, false},
		{"sorted", "customer__name+1, total-0,placed",
			[]FieldRef{
				{Path: []string{"customer", "name"}, Sort: types.Asc, Priority: 1},
				{Path: []string{"total"}, Sort: types.Dsc, Priority: 0},
				{Path: []string{"placed"}},
			}, false},
		{"bad priority", "name+x", nil, true},
		{"no path", "+1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFields(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	got, err := ParseFilters("?total__gt=10&customer__name__contains=a%20b&limit=5&placed__year__equals=2024")
	require.NoError(t, err)
	assert.Equal(t, []FilterRef{
		{Path: []string{"total"}, Lookup: "gt", Value: "10"},
		{Path: []string{"customer", "name"}, Lookup: "contains", Value: "a b"},
		{Path: []string{"placed", "year"}, Lookup: "equals", Value: "2024"},
	}, got)

	_, err = ParseFilters("total=10")
	assert.Error(t, err)
	_, err = ParseFilters("total__gt=%zz")
	assert.Error(t, err)
}

func TestFieldsStringRoundTrip(t *testing.T) {
	q, err := Parse("shop.order", "customer__name+1,total-0,placed", "", 10)
	require.NoError(t, err)
	assert.Equal(t, "customer__name+1,total-0,placed", q.FieldsString())
}

func testModels(t *testing.T) schema.Models {
	t.Helper()
	reg := types.New(types.WithLocation(time.UTC))
	models, err := schema.NewBuilder(&admin.Site{}, meta.NewCatalog(), reg, schema.Options{}).
		Build(context.Background(), admin.Request{})
	require.NoError(t, err)

	typ := func(name string) *types.Type {
		tt, ok := reg.Type(name)
		require.True(t, ok)
		return tt
	}
	concrete := func(model, name, typeName string) *schema.ConcreteField {
		return &schema.ConcreteField{
			Base:    schema.Base{ModelName: model, Name: name, PrettyName: name},
			Type:    typ(typeName),
			RelName: typeName,
		}
	}
	models["shop.order"] = &schema.Model{Fields: map[string]schema.Field{
		"total":    concrete("shop.order", "total", types.Number),
		"placed":   concrete("shop.order", "placed", types.DateTime),
		"customer": &schema.FkField{Base: schema.Base{ModelName: "shop.order", Name: "customer"}, RelName: "shop.customer"},
		"note":     &schema.CalculatedField{Base: schema.Base{ModelName: "shop.order", Name: "note"}},
	}}
	models["shop.customer"] = &schema.Model{Fields: map[string]schema.Field{
		"name": concrete("shop.customer", "name", types.String),
	}}
	return models
}

func TestBind(t *testing.T) {
	models := testModels(t)
	q, err := Parse("shop.order",
		"customer__name+1,total-0,placed__year,note",
		"total__gt=10&customer__name__regex=(&placed__year__equals=1&note__equals=x&total__nope=1&placed__is_null=true",
		20)
	require.NoError(t, err)

	bq, err := Bind(context.Background(), models, q)
	require.NoError(t, err)
	assert.Equal(t, 20, bq.Limit)
	assert.False(t, bq.Valid())

	require.Len(t, bq.Fields, 4)
	assert.Equal(t, types.String, bq.Fields[0].Type.Name)
	assert.Equal(t, types.Year, bq.Fields[2].Type.Name)
	assert.IsType(t, &schema.FunctionField{}, bq.Fields[2].Field)
	assert.Nil(t, bq.Fields[3].Type)

	require.Len(t, bq.Filters, 6)
	assert.Equal(t, 10.0, bq.Filters[0].Parsed)
	assert.Empty(t, bq.Filters[0].ErrorMessage)
	assert.Contains(t, bq.Filters[1].ErrorMessage, "missing closing )")
	assert.Equal(t, "Years must be > 1", bq.Filters[2].ErrorMessage)
	assert.Equal(t, "note can't be filtered", bq.Filters[3].ErrorMessage)
	assert.Contains(t, bq.Filters[4].ErrorMessage, "Bad lookup 'nope'")
	assert.Equal(t, true, bq.Filters[5].Parsed)
}

func TestBindErrors(t *testing.T) {
	models := testModels(t)

	var tests = []struct {
		name    string
		model   string
		fields  string
		filters string
		wantErr string
	}{
		{"unknown model", "shop.nope", "total", "", `unknown model "shop.nope"`},
		{"unknown field", "shop.order", "weight", "", `shop.order has no field "weight"`},
		{"unknown sub-field", "shop.order", "customer__age", "", `shop.customer has no field "age"`},
		{"no sub-fields", "shop.order", "note__x", "", "shop.order.note has no sub-fields"},
		{"bare relation", "shop.order", "customer", "", "customer is a relation, select one of its fields"},
		{"unknown filter field", "shop.order", "", "weight__gt=1", `shop.order has no field "weight"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.model, tt.fields, tt.filters, 1)
			require.NoError(t, err)
			_, err = Bind(context.Background(), models, q)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
