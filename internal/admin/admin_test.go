package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databrowser/internal/meta"
	"databrowser/pkg/config"
)

func testSource() *meta.Catalog {
	return meta.NewCatalog(
		&meta.Model{Name: "blog.post", Fields: []*meta.Field{
			{Name: "id", Class: meta.AutoField, PK: true},
			{Name: "title", Class: meta.CharField},
			{Name: "author", Class: meta.ForeignKey, Related: "blog.author"},
			{Name: "comments", Class: meta.ManyToOneRel, Related: "blog.comment"},
		}},
		&meta.Model{Name: "blog.comment", Fields: []*meta.Field{
			{Name: "id", Class: meta.AutoField, PK: true},
			{Name: "post", Class: meta.ForeignKey, Related: "blog.post"},
		}},
	)
}

type bare struct{}

func TestHasAnyRole(t *testing.T) {
	var tests = []struct {
		name  string
		roles []string
		want  []string
		ok    bool
	}{
		{"match", []string{"a", "b"}, []string{"b"}, true},
		{"no match", []string{"a"}, []string{"b"}, false},
		{"wildcard", nil, []string{"*"}, true},
		{"nothing wanted", []string{"a"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, Request{Roles: tt.roles}.HasAnyRole(tt.want))
		})
	}
}

func TestDefaultVisible(t *testing.T) {
	src := testSource()
	editor := Request{Roles: []string{"editor"}}
	reader := Request{Roles: []string{"reader"}}

	changeable := &ConfigAdmin{cfg: config.AdminConfig{Model: "blog.post", ChangeRoles: []string{"editor"}}, src: src}
	viewable := &ConfigAdmin{cfg: config.AdminConfig{Model: "blog.post", ViewRoles: []string{"reader"}}, src: src}
	ignored := &ConfigAdmin{cfg: config.AdminConfig{Model: "blog.post", ChangeRoles: []string{"*"}, Ignore: true}, src: src}

	var tests = []struct {
		name  string
		admin any
		req   Request
		want  bool
	}{
		{"not an admin", bare{}, editor, false},
		{"change permission", changeable, editor, true},
		{"no permission", changeable, reader, false},
		{"view permission", viewable, reader, true},
		{"superuser", viewable, Request{Superuser: true}, true},
		{"ignored", ignored, Request{Superuser: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultVisible(tt.admin, tt.req))
		})
	}
}

func TestNewSite(t *testing.T) {
	site := NewSite([]config.AdminConfig{
		{Model: "blog.post"},
		{Model: "blog.missing"},
		{Model: "blog.comment"},
	}, testSource())

	regs := site.Registered()
	require.Len(t, regs, 2)
	assert.Equal(t, "blog.post", regs[0].Model)
	assert.Equal(t, "blog.comment", regs[1].Model)
	assert.Implements(t, (*ModelAdmin)(nil), regs[0].Admin)
}

func TestConfigAdminDefaults(t *testing.T) {
	a := &ConfigAdmin{cfg: config.AdminConfig{Model: "blog.post"}, src: testSource()}

	assert.Equal(t, []Fieldset{{Fields: []string{"title", "author"}}}, a.Fieldsets(Request{}))
	assert.Equal(t, a.Fieldsets(Request{}), a.ChangeFieldsets(Request{}))
	assert.Equal(t, []string{"__str__"}, a.ListDisplay(Request{}))
	assert.Equal(t, "blog.postAdmin", a.String())
	assert.Empty(t, a.Annotations())
	assert.Empty(t, a.Inlines(Request{}))

	_, ok := a.Attribute("anything")
	assert.False(t, ok)
}

func TestConfigAdminAttributesAndQueryset(t *testing.T) {
	a := &ConfigAdmin{cfg: config.AdminConfig{
		Model:      "blog.post",
		Calculated: map[string]bool{"summary": false, "raw": true},
		Annotations: map[string]config.AnnotationConfig{
			"words":    {Expression: "length(body)", OutputClass: "IntegerField"},
			"score":    {OrderField: "_score", Expression: "avg(rating)"},
			"pending":  {OrderField: "_pending"},
			"keywords": {Expression: "tags", OutputClass: "ArrayField", OutputBase: "CharField"},
		},
		Inlines: []config.InlineConfig{{Model: "blog.comment", FKName: "post"}},
	}, src: testSource()}

	assert.Equal(t, []string{"keywords", "pending", "score", "words"}, a.Annotations())

	attr, ok := a.Attribute("summary")
	require.True(t, ok)
	assert.False(t, attr.Hidden)
	assert.Nil(t, attr.Annotation)

	attr, _ = a.Attribute("raw")
	assert.True(t, attr.Hidden)

	attr, _ = a.Attribute("score")
	assert.Equal(t, &AnnotationDescriptor{OrderField: "_score"}, attr.Annotation)
	attr, _ = a.Attribute("words")
	assert.Equal(t, "words", attr.Annotation.OrderField)

	qs, err := a.Queryset(context.Background(), Request{}, []string{"words", "score", "pending", "keywords", "title"})
	require.NoError(t, err)
	assert.Equal(t, "blog.post", qs.Model)
	assert.Len(t, qs.Annotations, 3)
	assert.Equal(t, meta.IntegerField, qs.Annotations["words"].Output.Class)
	assert.Nil(t, qs.Annotations["_score"].Output)
	assert.NotContains(t, qs.Annotations, "_pending")
	assert.Equal(t, meta.CharField, qs.Annotations["keywords"].Output.Base)

	inlines := a.Inlines(Request{})
	require.Len(t, inlines, 1)
	in, ok := inlines[0].(*ConfigInline)
	require.True(t, ok)
	assert.Equal(t, "post", in.FKName())
	assert.Equal(t, "blog.comment", in.Model())
	assert.Nil(t, in.ListDisplay(Request{}))
	assert.Equal(t, []Fieldset{{Fields: []string{"post"}}}, in.Fieldsets(Request{}))
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Flatten([]Fieldset{
		{Title: "one", Fields: []string{"a", "b"}},
		{Title: "two", Fields: []string{"c"}},
	}))
	assert.Nil(t, Flatten(nil))
}
