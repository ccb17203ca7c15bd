package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databrowser/internal/introspect"
	"databrowser/pkg/config"
)

func TestClassOf(t *testing.T) {
	var tests = []struct {
		sqlType string
		pk      bool
		want    Class
	}{
		{"integer", true, AutoField},
		{"bigint", true, BigAutoField},
		{"int(11) unsigned", false, IntegerField},
		{"tinyint(1)", false, BooleanField},
		{"character varying", false, CharField},
		{"VARCHAR2(30)", false, CharField},
		{"timestamp(6) with time zone", false, DateTimeField},
		{"numeric(10,2)", false, DecimalField},
		{"jsonb", false, JSONField},
		{"ARRAY", false, ArrayField},
		{"text[]", false, ArrayField},
		{"interval", false, DurationField},
		{"", false, BinaryField},
		{"UNSIGNED BIG INT", false, IntegerField},
		{"geometry", false, Class("geometry")},
	}

	for _, tt := range tests {
		t.Run(tt.sqlType, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.sqlType, tt.pk))
		})
	}
}

func TestClassAncestry(t *testing.T) {
	assert.Equal(t, []Class{BigAutoField, BigIntegerField, IntegerField}, BigAutoField.Ancestry())
	assert.True(t, OneToOneRel.Is(ForeignObjectRel))
	assert.True(t, ImageField.Is(FileField))
	assert.False(t, CharField.Is(TextField))
	assert.True(t, OneToOneField.IsRelation())
	assert.False(t, JSONField.IsRelation())
}

func shopSchema() introspect.Schema {
	return introspect.Schema{
		Tables: []introspect.Table{
			{Name: "customers", Columns: []introspect.Column{
				{Name: "id", Type: "integer", PK: true},
				{Name: "name", Type: "text"},
			}},
			{Name: "orders", Columns: []introspect.Column{
				{Name: "id", Type: "integer", PK: true},
				{Name: "customer_id", Type: "integer"},
				{Name: "shipping_id", Type: "integer", Unique: true},
				{Name: "tags", Type: "ARRAY", Elem: "varchar"},
				{Name: "status", Type: "varchar(1)"},
			}},
			{Name: "addresses", Columns: []introspect.Column{
				{Name: "id", Type: "integer", PK: true},
			}},
		},
		ForeignKeys: []introspect.ForeignKey{
			{FromTable: "orders", FromColumn: "customer_id", ToTable: "customers", ToColumn: "id"},
			{FromTable: "orders", FromColumn: "shipping_id", ToTable: "addresses", ToColumn: "id"},
			{FromTable: "orders", FromColumn: "a, b", ToTable: "customers", ToColumn: "x, y"},
		},
	}
}

func TestFromSchema(t *testing.T) {
	cat := FromSchema(shopSchema(), []config.ModelConfig{{
		Name:       "orders",
		Attributes: []string{"total"},
		Fields: map[string]config.FieldOverride{
			"status": {Choices: []config.ChoiceConfig{{Value: "n", Label: "New"}}},
			"items":  {Class: "ManyToManyField", Related: "customers"},
		},
	}})

	orders, ok := cat.Model("orders")
	require.True(t, ok)
	assert.Equal(t, "Orders", orders.VerboseName)

	customer, ok := orders.Field("customer")
	require.True(t, ok)
	assert.Equal(t, ForeignKey, customer.Class)
	assert.Equal(t, "customers", customer.Related)

	shipping, ok := orders.Field("shipping")
	require.True(t, ok)
	assert.Equal(t, OneToOneField, shipping.Class)

	tags, _ := orders.Field("tags")
	assert.Equal(t, ArrayField, tags.Class)
	assert.Equal(t, CharField, tags.Base)

	status, _ := orders.Field("status")
	assert.Equal(t, []Choice{{Value: "n", Label: "New"}}, status.Choices)

	items, ok := orders.Field("items")
	require.True(t, ok)
	assert.Equal(t, ManyToManyField, items.Class)

	assert.True(t, orders.HasAttribute("total"))
	assert.False(t, orders.HasAttribute("nope"))

	customers, _ := cat.Model("customers")
	rev, ok := customers.Field("orders")
	require.True(t, ok)
	assert.Equal(t, ManyToOneRel, rev.Class)
	assert.Equal(t, "orders", rev.Related)

	addresses, _ := cat.Model("addresses")
	rev, ok = addresses.Field("orders")
	require.True(t, ok)
	assert.Equal(t, OneToOneRel, rev.Class)

	names := []string{}
	for _, m := range cat.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"addresses", "customers", "orders"}, names)
}

func TestForeignKeyTo(t *testing.T) {
	s := shopSchema()
	s.Tables[1].Columns = append(s.Tables[1].Columns, introspect.Column{Name: "payer_id", Type: "integer"})
	s.ForeignKeys = append(s.ForeignKeys,
		introspect.ForeignKey{FromTable: "orders", FromColumn: "payer_id", ToTable: "customers", ToColumn: "id"})
	cat := FromSchema(s, nil)

	var tests = []struct {
		name    string
		child   string
		parent  string
		fkName  string
		want    string
		wantErr string
	}{
		{"single", "orders", "addresses", "", "shipping", ""},
		{"ambiguous", "orders", "customers", "", "", "more than one ForeignKey"},
		{"named", "orders", "customers", "payer", "payer", ""},
		{"named wrong target", "orders", "addresses", "payer", "", "is not a ForeignKey to"},
		{"none", "customers", "orders", "", "", "has no ForeignKey"},
		{"unknown model", "nope", "orders", "", "", "unknown model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ForeignKeyTo(cat, tt.child, tt.parent, tt.fkName)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Name)
		})
	}
}
