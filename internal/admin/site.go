package admin

import (
	"context"
	"sort"

	"databrowser/internal/logger"
	"databrowser/internal/meta"
	"databrowser/pkg/config"
)

// Site is a Registry of admins.
type Site struct {
	regs []Registration
}

// Register adds an admin for model. a need not implement ModelAdmin; such
// registrations are skipped by the default visibility check.
func (s *Site) Register(model string, a any) {
	s.regs = append(s.regs, Registration{Model: model, Admin: a})
}

// Registered returns the registrations in order.
func (s *Site) Registered() []Registration {
	return s.regs
}

// NewSite builds a site from admin declarations. Declarations for models
// src does not know are logged and skipped.
func NewSite(admins []config.AdminConfig, src meta.Source) *Site {
	s := &Site{}
	for _, cfg := range admins {
		if _, ok := src.Model(cfg.Model); !ok {
			logger.Warn("admin declared for unknown model %s", cfg.Model)
			continue
		}
		s.Register(cfg.Model, &ConfigAdmin{cfg: cfg, src: src})
	}
	return s
}

// permissions is the role based permission check shared by admins and
// inlines.
type permissions struct {
	change []string
	view   []string
}

func (p permissions) HasChangePermission(req Request) bool {
	return req.Superuser || req.HasAnyRole(p.change)
}

func (p permissions) HasViewPermission(req Request) bool {
	return p.HasChangePermission(req) || req.HasAnyRole(p.view)
}

func fieldsets(cfg []config.FieldsetConfig) []Fieldset {
	out := make([]Fieldset, len(cfg))
	for i, fs := range cfg {
		out[i] = Fieldset{Title: fs.Title, Fields: fs.Fields}
	}
	return out
}

// defaultFieldsets is one untitled group of the editable fields: no
// automatic keys and no reverse relations.
func defaultFieldsets(src meta.Source, model string) []Fieldset {
	m, ok := src.Model(model)
	if !ok {
		return nil
	}
	var names []string
	for _, f := range m.Fields {
		if f.PK && f.Class.Is(meta.IntegerField) || f.Class.Is(meta.ForeignObjectRel) {
			continue
		}
		names = append(names, f.Name)
	}
	return []Fieldset{{Fields: names}}
}

// ConfigAdmin is a ModelAdmin declared in YAML.
type ConfigAdmin struct {
	cfg config.AdminConfig
	src meta.Source
}

func (a *ConfigAdmin) String() string {
	return a.cfg.Model + "Admin"
}

func (a *ConfigAdmin) Model() string {
	return a.cfg.Model
}

func (a *ConfigAdmin) perms() permissions {
	return permissions{change: a.cfg.ChangeRoles, view: a.cfg.ViewRoles}
}

func (a *ConfigAdmin) Fieldsets(Request) []Fieldset {
	if len(a.cfg.Fieldsets) == 0 {
		return defaultFieldsets(a.src, a.cfg.Model)
	}
	return fieldsets(a.cfg.Fieldsets)
}

func (a *ConfigAdmin) ChangeFieldsets(req Request) []Fieldset {
	if len(a.cfg.ChangeFieldsets) == 0 {
		return a.Fieldsets(req)
	}
	return fieldsets(a.cfg.ChangeFieldsets)
}

// ListDisplay defaults to the row's string form.
func (a *ConfigAdmin) ListDisplay(Request) []string {
	if len(a.cfg.ListDisplay) == 0 {
		return []string{"__str__"}
	}
	return a.cfg.ListDisplay
}

func (a *ConfigAdmin) HasChangePermission(req Request) bool {
	return a.perms().HasChangePermission(req)
}

func (a *ConfigAdmin) HasViewPermission(req Request) bool {
	return a.perms().HasViewPermission(req)
}

func (a *ConfigAdmin) Ignored() bool {
	return a.cfg.Ignore
}

func (a *ConfigAdmin) ExtraFields() []string {
	return a.cfg.ExtraFields
}

func (a *ConfigAdmin) HiddenFields() []string {
	return a.cfg.HiddenFields
}

func (a *ConfigAdmin) JSONFields() map[string]map[string]string {
	return a.cfg.JSONFields
}

func (a *ConfigAdmin) Annotations() []string {
	names := make([]string, 0, len(a.cfg.Annotations))
	for name := range a.cfg.Annotations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orderField(name string, ann config.AnnotationConfig) string {
	if ann.OrderField != "" {
		return ann.OrderField
	}
	return name
}

func (a *ConfigAdmin) Attribute(name string) (Attribute, bool) {
	if ann, ok := a.cfg.Annotations[name]; ok {
		return Attribute{Annotation: &AnnotationDescriptor{OrderField: orderField(name, ann)}}, true
	}
	if hidden, ok := a.cfg.Calculated[name]; ok {
		return Attribute{Hidden: hidden}, true
	}
	return Attribute{}, false
}

// Queryset adds an annotation for each requested annotated attribute
// that has an expression. The output field is taken from output_class.
func (a *ConfigAdmin) Queryset(_ context.Context, _ Request, fields []string) (*Queryset, error) {
	qs := &Queryset{Model: a.cfg.Model, Fields: fields, Annotations: map[string]Annotation{}}
	for _, name := range fields {
		ann, ok := a.cfg.Annotations[name]
		if !ok || ann.Expression == "" {
			continue
		}
		out := Annotation{Expression: ann.Expression}
		if ann.OutputClass != "" {
			out.Output = &meta.Field{
				Name:  orderField(name, ann),
				Class: meta.Class(ann.OutputClass),
				Base:  meta.Class(ann.OutputBase),
			}
		}
		qs.Annotations[orderField(name, ann)] = out
	}
	return qs, nil
}

func (a *ConfigAdmin) Inlines(Request) []any {
	out := make([]any, 0, len(a.cfg.Inlines))
	for _, ic := range a.cfg.Inlines {
		out = append(out, &ConfigInline{cfg: ic, src: a.src})
	}
	return out
}

// ConfigInline is an inline admin declared in YAML.
type ConfigInline struct {
	cfg config.InlineConfig
	src meta.Source
}

func (i *ConfigInline) String() string {
	return i.cfg.Model + "Inline"
}

func (i *ConfigInline) Model() string {
	return i.cfg.Model
}

func (i *ConfigInline) FKName() string {
	return i.cfg.FKName
}

func (i *ConfigInline) perms() permissions {
	return permissions{change: i.cfg.ChangeRoles, view: i.cfg.ViewRoles}
}

func (i *ConfigInline) Fieldsets(Request) []Fieldset {
	if len(i.cfg.Fieldsets) == 0 {
		return defaultFieldsets(i.src, i.cfg.Model)
	}
	return fieldsets(i.cfg.Fieldsets)
}

func (i *ConfigInline) ListDisplay(Request) []string {
	return nil
}

func (i *ConfigInline) HasChangePermission(req Request) bool {
	return i.perms().HasChangePermission(req)
}

func (i *ConfigInline) HasViewPermission(req Request) bool {
	return i.perms().HasViewPermission(req)
}

func (i *ConfigInline) Ignored() bool {
	return i.cfg.Ignore
}

func (i *ConfigInline) ExtraFields() []string {
	return i.cfg.ExtraFields
}

func (i *ConfigInline) HiddenFields() []string {
	return i.cfg.HiddenFields
}

func (i *ConfigInline) Queryset(_ context.Context, _ Request, fields []string) (*Queryset, error) {
	return &Queryset{Model: i.cfg.Model, Fields: fields, Annotations: map[string]Annotation{}}, nil
}
