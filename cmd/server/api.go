package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"databrowser/internal/admin"
	"databrowser/internal/logger"
	"databrowser/internal/query"
	"databrowser/internal/schema"
	"databrowser/internal/types"
	"databrowser/internal/views"
	"databrowser/pkg/config"
)

const maxBody = 1 << 20

type api struct {
	builder *schema.Builder
	types   *types.Registry
	hooks   *views.Hooks
	browser config.BrowserConfig
	now     func() time.Time
}

type requestKey struct{}

func withRequest(ctx context.Context, req admin.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

func requestFrom(ctx context.Context) admin.Request {
	req, _ := ctx.Value(requestKey{}).(admin.Request)
	return req
}

// permission context comes from the fronting proxy
func requestOf(r *http.Request) admin.Request {
	var roles []string
	for _, role := range strings.Split(r.Header.Get("X-Roles"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return admin.Request{
		User:      r.Header.Get("X-User"),
		Roles:     roles,
		Superuser: r.Header.Get("X-Superuser") == "true",
	}
}

func (a *api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/schema", a.handleSchema)
	mux.HandleFunc("/api/types", a.handleTypes)
	mux.HandleFunc("/api/parse", a.handleParse)
	mux.HandleFunc("/api/views", a.handleViews)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("writing response: %v", err)
	}
}

type fieldJSON struct {
	Kind       string `json:"kind"`
	PrettyName string `json:"prettyName"`
	Type       string `json:"type,omitempty"`
	Rel        string `json:"rel,omitempty"`
	Choices    []any  `json:"choices,omitempty"`
}

func kindOf(f schema.Field) string {
	switch f.(type) {
	case *schema.ConcreteField:
		return "concrete"
	case *schema.FkField:
		return "fk"
	case *schema.CalculatedField:
		return "calculated"
	case *schema.AnnotatedField:
		return "annotated"
	case *schema.FileField:
		return "file"
	case *schema.AdminField:
		return "admin"
	case *schema.FunctionField:
		return "function"
	case *schema.AggregateField:
		return "aggregate"
	}
	return "unknown"
}

func encodeField(f schema.Field) fieldJSON {
	out := fieldJSON{Kind: kindOf(f), PrettyName: schema.Describe(f).PrettyName}
	if t := schema.TypeOf(f); t != nil {
		out.Type = t.Name
	}
	if rel, ok := schema.RelNameOf(f); ok && rel != out.Type {
		out.Rel = rel
	}
	var choices []types.Choice
	switch v := f.(type) {
	case *schema.ConcreteField:
		choices = v.Choices
	case *schema.AnnotatedField:
		choices = v.Choices
	}
	for _, c := range choices {
		out.Choices = append(out.Choices, []any{c.Value, c.Label})
	}
	return out
}

func (a *api) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	models, err := a.builder.Build(r.Context(), requestOf(r))
	if err != nil {
		logger.Error("building schema: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make(map[string]map[string]fieldJSON, len(models))
	for name, m := range models {
		fields := make(map[string]fieldJSON, len(m.Fields))
		for fname, f := range m.Fields {
			fields[fname] = encodeField(f)
		}
		out[name] = fields
	}
	writeJSON(w, http.StatusOK, out)
}

type lookupJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type typeJSON struct {
	Name          string       `json:"name"`
	DefaultValue  any          `json:"defaultValue"`
	DefaultSort   types.Sort   `json:"defaultSort,omitempty"`
	DefaultLookup string       `json:"defaultLookup,omitempty"`
	Lookups       []lookupJSON `json:"lookups"`
}

func (a *api) handleTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var out []typeJSON
	for _, t := range a.types.Types() {
		tj := typeJSON{
			Name:          t.Name,
			DefaultValue:  t.DefaultValue,
			DefaultSort:   t.DefaultSort,
			DefaultLookup: t.DefaultLookup(),
			Lookups:       []lookupJSON{},
		}
		for _, l := range t.Lookups() {
			tj.Lookups = append(tj.Lookups, lookupJSON{Name: l.Name, Type: l.Type.Name})
		}
		out = append(out, tj)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleParse checks one filter operand: /api/parse?type=date&lookup=gt&value=today
func (a *api) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := a.types.Parse(r.Context(), q.Get("type"), q.Get("lookup"), q.Get("value"))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"value": nil, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": v, "error": nil})
}

type filterJSON struct {
	Path         string `json:"path"`
	Lookup       string `json:"lookup"`
	Value        string `json:"value"`
	ErrorMessage string `json:"errorMessage"`
}

type checkedView struct {
	views.Serialized
	Valid   bool         `json:"valid"`
	Filters []filterJSON `json:"filters"`
}

// handleViews validates a posted view against the caller's schema and
// runs the post-save hooks. Views are not stored here.
func (a *api) handleViews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := requestOf(r)
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := views.Deserialize(data, a.browser.CanMakePublic(req.Superuser, req.Roles))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v := views.New(req.User, a.now())
	u.Apply(v)

	bq, err := a.bind(r.Context(), req, v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := checkedView{Serialized: views.Serialize(v, a.browser.PublicURL), Valid: bq.Valid(), Filters: []filterJSON{}}
	for _, f := range bq.Filters {
		out.Filters = append(out.Filters, filterJSON{
			Path:         strings.Join(f.Path, "__"),
			Lookup:       f.Lookup,
			Value:        f.Value,
			ErrorMessage: f.ErrorMessage,
		})
	}
	a.hooks.AfterSave(withRequest(r.Context(), req), v)
	writeJSON(w, http.StatusOK, out)
}

func (a *api) bind(ctx context.Context, req admin.Request, v *views.View) (*query.BoundQuery, error) {
	q, err := v.Parse()
	if err != nil {
		return nil, err
	}
	models, err := a.builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	return query.Bind(ctx, models, q)
}

// reportHook logs the columns a saved view resolves to, for the
// reporting job that snapshots views.
func (a *api) reportHook(ctx context.Context, v *views.View) error {
	bq, err := a.bind(ctx, requestFrom(ctx), v)
	if err != nil {
		return err
	}
	cols := make([]string, 0, len(bq.Fields))
	for _, f := range bq.Fields {
		name := strings.Join(f.Path, "__")
		if f.Type != nil {
			name += ":" + f.Type.Name
		}
		cols = append(cols, name)
	}
	logger.Debug("view %s (%s) on %s: columns %v, valid=%t", v.ID, v.Name, v.ModelName, cols, bq.Valid())
	return nil
}
