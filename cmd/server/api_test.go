package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databrowser/internal/admin"
	"databrowser/internal/meta"
	"databrowser/internal/schema"
	"databrowser/internal/types"
	"databrowser/internal/views"
	"databrowser/pkg/config"
)

func testAPI(t *testing.T) *api {
	t.Helper()
	catalog := meta.NewCatalog(
		&meta.Model{Name: "shop.order", Fields: []*meta.Field{
			{Name: "id", Class: meta.AutoField, PK: true},
			{Name: "total", Class: meta.DecimalField},
			{Name: "placed", Class: meta.DateTimeField},
			{Name: "customer", Class: meta.ForeignKey, Related: "shop.customer"},
		}},
		&meta.Model{Name: "shop.customer", Fields: []*meta.Field{
			{Name: "id", Class: meta.AutoField, PK: true},
			{Name: "name", Class: meta.CharField},
		}},
	)
	site := admin.NewSite([]config.AdminConfig{
		{Model: "shop.order", ViewRoles: []string{"sales"}},
		{Model: "shop.customer", ViewRoles: []string{"sales"}},
	}, catalog)
	reg := types.New(types.WithLocation(time.UTC))
	return &api{
		builder: schema.NewBuilder(site, catalog, reg, schema.Options{}),
		types:   reg,
		hooks:   &views.Hooks{},
		browser: config.BrowserConfig{PublicRoles: []string{"publisher"}, PublicURL: "https://example.com/db"},
		now:     func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	}
}

func do(t *testing.T, a *api, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, req)
	return rec
}

func TestSchemaEndpoint(t *testing.T) {
	a := testAPI(t)

	var tests = []struct {
		name      string
		headers   map[string]string
		wantOrder bool
	}{
		{"sales role", map[string]string{"X-Roles": "support, sales"}, true},
		{"superuser", map[string]string{"X-Superuser": "true"}, true},
		{"no role", map[string]string{"X-Roles": "support"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a, http.MethodGet, "/api/schema", "", tt.headers)
			require.Equal(t, http.StatusOK, rec.Code)

			var got map[string]map[string]fieldJSON
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Contains(t, got, types.DateTime)
			order, ok := got["shop.order"]
			assert.Equal(t, tt.wantOrder, ok)
			if ok {
				assert.Equal(t, "fk", order["customer"].Kind)
				assert.Equal(t, "shop.customer", order["customer"].Rel)
				assert.Equal(t, types.Number, order["total"].Type)
			}
		})
	}

	rec := do(t, a, http.MethodPost, "/api/schema", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTypesEndpoint(t *testing.T) {
	rec := do(t, testAPI(t), http.MethodGet, "/api/types", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []typeJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotEmpty(t, got)
	assert.Equal(t, types.String, got[0].Name)
	assert.Equal(t, "equals", got[0].DefaultLookup)
}

func TestParseEndpoint(t *testing.T) {
	a := testAPI(t)

	rec := do(t, a, http.MethodGet, "/api/parse?type=number&lookup=gt&value=1.5", "", nil)
	assert.JSONEq(t, `{"value": 1.5, "error": null}`, rec.Body.String())

	rec = do(t, a, http.MethodGet, "/api/parse?type=boolean&lookup=equals&value=maybe", "", nil)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Nil(t, got["value"])
	assert.NotEmpty(t, got["error"])
}

func TestViewsEndpoint(t *testing.T) {
	a := testAPI(t)
	var hooked atomic.Int32
	a.hooks.Add(func(ctx context.Context, v *views.View) error {
		if requestFrom(ctx).User == "ann" {
			hooked.Add(1)
		}
		return nil
	})
	a.hooks.Add(a.reportHook)

	body := `{"name": "big orders", "model": "shop.order", "fields": "customer__name+1,total",
		"query": "total__gt=abc&placed__year__equals=2024", "limit": "0", "public": true}`
	rec := do(t, a, http.MethodPost, "/api/views", body, map[string]string{"X-User": "ann", "X-Roles": "sales"})
	a.hooks.Wait()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got checkedView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "shop.order", got.Model)
	assert.Equal(t, 1, got.Limit)
	assert.False(t, got.Public)
	assert.Equal(t, "N/A", got.PublicLink)
	assert.Equal(t, "2024-05-06 07:08:09", got.CreatedTime)
	assert.False(t, got.Valid)
	require.Len(t, got.Filters, 2)
	assert.Equal(t, "could not convert string to float: 'abc'", got.Filters[0].ErrorMessage)
	assert.Empty(t, got.Filters[1].ErrorMessage)
	assert.Equal(t, int32(1), hooked.Load())

	rec = do(t, a, http.MethodPost, "/api/views", `{"model": "shop.order", "fields": "weight"}`,
		map[string]string{"X-Roles": "sales"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, a, http.MethodPost, "/api/views", `{"model": "shop.order", "fields": "total", "public": true}`,
		map[string]string{"X-Roles": "sales,publisher"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Public)
	assert.True(t, strings.HasPrefix(got.PublicLink, "https://example.com/db/view/"))
	a.hooks.Wait()
}
