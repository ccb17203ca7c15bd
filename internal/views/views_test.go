package views

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databrowser/internal/types"
)

func TestDeserializeLimit(t *testing.T) {
	var tests = []struct {
		name string
		body string
		want int
	}{
		{"integer", `{"limit": 50}`, 50},
		{"float", `{"limit": 7.9}`, 7},
		{"string", `{"limit": " 12 "}`, 12},
		{"not a number", `{"limit": "lots"}`, 1},
		{"zero", `{"limit": 0}`, 1},
		{"negative", `{"limit": -4}`, 1},
		{"null", `{"limit": null}`, 1},
		{"object", `{"limit": {}}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Deserialize([]byte(tt.body), true)
			require.NoError(t, err)
			require.NotNil(t, u.Limit)
			assert.Equal(t, tt.want, *u.Limit)
		})
	}
}

func TestDeserialize(t *testing.T) {
	body := `{"name": "orders", "model": "shop.order", "fields": "total", "public": true, "pk": 9}`

	u, err := Deserialize([]byte(body), true)
	require.NoError(t, err)
	assert.Equal(t, "shop.order", *u.ModelName)
	assert.True(t, *u.Public)
	assert.Nil(t, u.Limit)
	assert.Nil(t, u.Query)

	u, err = Deserialize([]byte(body), false)
	require.NoError(t, err)
	assert.False(t, *u.Public)

	u, err = Deserialize([]byte(`{"name": "x"}`), false)
	require.NoError(t, err)
	require.NotNil(t, u.Public)
	assert.False(t, *u.Public)

	_, err = Deserialize([]byte(`{`), true)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	v := New("ann", time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	v.Name, v.Query = "old", "total__gt=1"

	u, err := Deserialize([]byte(`{"name": "new", "limit": 5}`), false)
	require.NoError(t, err)
	u.Apply(v)

	assert.Equal(t, "new", v.Name)
	assert.Equal(t, "total__gt=1", v.Query)
	assert.Equal(t, 5, v.Limit)
	assert.False(t, v.Public)
}

func TestSerialize(t *testing.T) {
	v := &View{
		ID:          uuid.MustParse("5f0c6f8e-8d5e-4a55-9a43-3c1f0d9a2b11"),
		Name:        "orders",
		ModelName:   "shop.order",
		Fields:      "customer__name+1,total",
		Query:       "total__gt=10",
		Limit:       100,
		CreatedTime: time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC),
	}

	s := Serialize(v, "https://example.com/data_browser/")
	assert.Equal(t, "N/A", s.PublicLink)
	assert.Equal(t, "N/A", s.GoogleSheetsFormula)
	assert.Equal(t, "/query/shop.order/customer__name+1,total.html?total__gt=10&limit=100", s.Link)
	assert.Equal(t, "2024-03-01 09:30:05", s.CreatedTime)

	v.Public = true
	s = Serialize(v, "https://example.com/data_browser/")
	assert.Equal(t, "https://example.com/data_browser/view/5f0c6f8e-8d5e-4a55-9a43-3c1f0d9a2b11.csv", s.PublicLink)
	assert.Equal(t, `=importdata("`+s.PublicLink+`")`, s.GoogleSheetsFormula)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	for _, k := range []string{"name", "description", "public", "model", "fields", "query", "limit",
		"publicLink", "googleSheetsFormula", "link", "createdTime", "pk"} {
		assert.Contains(t, m, k)
	}
}

func TestViewParse(t *testing.T) {
	v := &View{ModelName: "shop.order", Fields: "total-0", Query: "total__gt=10&limit=3", Limit: 3}
	q, err := v.Parse()
	require.NoError(t, err)
	assert.Equal(t, "shop.order", q.Model)
	require.Len(t, q.Fields, 1)
	assert.Equal(t, types.Dsc, q.Fields[0].Sort)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, "gt", q.Filters[0].Lookup)
}

func TestHooksAfterSave(t *testing.T) {
	var h Hooks
	var ran atomic.Int32
	h.Add(func(context.Context, *View) error { panic("boom") })
	h.Add(func(context.Context, *View) error { return errors.New("report failed") })
	h.Add(func(_ context.Context, v *View) error {
		if v.Name == "orders" {
			ran.Add(1)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	v := &View{Name: "orders"}
	h.AfterSave(ctx, v)
	cancel()
	v.Name = "changed"
	h.Wait()

	assert.Equal(t, int32(1), ran.Load())
}

func TestHooksNone(t *testing.T) {
	var h Hooks
	h.AfterSave(context.Background(), &View{})
	h.Wait()
}
