package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"databrowser/internal/admin"
	"databrowser/internal/logger"
	"databrowser/internal/meta"
	"databrowser/internal/types"
)

// Options tune a Builder.
type Options struct {
	// Visible replaces admin.DefaultVisible when set.
	Visible admin.VisibleFunc
	// AuthUserCompat reads change page fieldsets where an admin has them.
	AuthUserCompat bool
}

// Builder builds Models per request. It holds no per-request state and
// may be shared.
type Builder struct {
	admins admin.Registry
	source meta.Source
	types  *types.Registry
	opts   Options
}

// NewBuilder returns a builder reading admins from reg and model metadata
// from src.
func NewBuilder(reg admin.Registry, src meta.Source, tr *types.Registry, opts Options) *Builder {
	if opts.Visible == nil {
		opts.Visible = admin.DefaultVisible
	}
	return &Builder{admins: reg, source: src, types: tr, opts: opts}
}

// exposure is what the admins expose to one request.
type exposure struct {
	order  []string
	admins map[string]any
	fields map[string][]string
	hidden map[string][]string
}

func (e *exposure) add(model string, names ...string) {
	if _, ok := e.fields[model]; !ok {
		e.order = append(e.order, model)
		e.fields[model] = nil
	}
	e.fields[model] = lo.Union(e.fields[model], names)
}

func (e *exposure) visible(model string) bool {
	_, ok := e.fields[model]
	return ok
}

// Build returns the schema of every model visible to req plus one
// pseudo-model per type.
func (b *Builder) Build(ctx context.Context, req admin.Request) (Models, error) {
	exp := b.expose(req)

	models := Models{}
	for _, name := range exp.order {
		built, err := b.modelFields(ctx, req, name, exp)
		if err != nil {
			return nil, err
		}
		for k, m := range built {
			models[k] = m
		}
	}

	for _, t := range b.types.Types() {
		if _, clash := models[t.Name]; clash {
			logger.Warn("model %s is shadowed by the %s type schema", t.Name, t.Name)
		}
		models[t.Name] = &Model{Fields: typeFields(b.types, t)}
	}
	return models, nil
}

// expose collects the field names each visible admin and inline exposes.
func (b *Builder) expose(req admin.Request) *exposure {
	exp := &exposure{
		admins: map[string]any{},
		fields: map[string][]string{},
		hidden: map[string][]string{},
	}
	visible := b.opts.Visible

	for _, reg := range b.admins.Registered() {
		exp.admins[reg.Model] = reg.Admin
		if !visible(reg.Admin, req) {
			continue
		}
		ma, ok := reg.Admin.(admin.ModelAdmin)
		if !ok {
			logger.Debug("%T instance does not look like a ModelAdmin", reg.Admin)
			continue
		}
		model := reg.Model

		exp.add(model, b.fromFieldsets(ma, req, false)...)
		exp.add(model, ma.ListDisplay(req)...)
		if ef, ok := reg.Admin.(admin.ExtraFielder); ok {
			exp.add(model, ef.ExtraFields()...)
		}
		exp.add(model, admin.OpenInAdmin)
		if an, ok := reg.Admin.(admin.Annotator); ok {
			exp.add(model, an.Annotations()...)
		}
		if hf, ok := reg.Admin.(admin.HiddenFielder); ok {
			exp.hidden[model] = append(exp.hidden[model], hf.HiddenFields()...)
		}

		ip, ok := reg.Admin.(admin.InlineProvider)
		if !ok {
			continue
		}
		for _, inline := range ip.Inlines(req) {
			if !visible(inline, req) {
				continue
			}
			im, ok := inline.(admin.ModelAdmin)
			if !ok {
				logger.Debug("%T instance does not look like an inline admin", inline)
				continue
			}
			fkName := ""
			if in, ok := inline.(admin.Inline); ok {
				fkName = in.FKName()
			}
			fk, err := meta.ForeignKeyTo(b.source, im.Model(), model, fkName)
			if err != nil {
				logger.Debug("%v", err)
				continue
			}
			child := im.Model()
			if _, ok := exp.admins[child]; !ok {
				exp.admins[child] = inline
			}
			exp.add(child, b.fromFieldsets(im, req, true)...)
			if ef, ok := inline.(admin.ExtraFielder); ok {
				exp.add(child, ef.ExtraFields()...)
			}
			exp.add(child, fk.Name)
			if hf, ok := inline.(admin.HiddenFielder); ok {
				exp.hidden[child] = append(exp.hidden[child], hf.HiddenFields()...)
			}
		}
	}

	for model, names := range exp.fields {
		names = lo.Without(names, exp.hidden[model]...)
		names = lo.Without(names, "pk", "__str__")
		if !lo.Contains(names, "id") {
			names = append(names, "id")
		}
		exp.fields[model] = names
	}
	return exp
}

// fromFieldsets flattens the admin's fieldsets. Inline fieldsets keep
// only names the model itself has, which drops calculated names.
func (b *Builder) fromFieldsets(ma admin.ModelAdmin, req admin.Request, inline bool) []string {
	fs := ma.Fieldsets(req)
	if cf, ok := ma.(admin.ChangeFieldsetser); ok && b.opts.AuthUserCompat {
		fs = cf.ChangeFieldsets(req)
	}
	names := admin.Flatten(fs)
	if !inline {
		return names
	}
	m, ok := b.source.Model(ma.Model())
	if !ok {
		return nil
	}
	return lo.Filter(names, func(name string, _ int) bool { return m.HasAttribute(name) })
}

func (b *Builder) mustType(name string) *types.Type {
	t, ok := b.types.Type(name)
	if !ok {
		panic("schema: type " + name + " is not registered")
	}
	return t
}

// modelFields classifies the exposed fields of one model. JSON columns
// with declared sub-fields add a "model__field" schema next to it.
func (b *Builder) modelFields(ctx context.Context, req admin.Request, modelName string, exp *exposure) (Models, error) {
	out := Models{}
	fields := map[string]Field{}
	a := exp.admins[modelName]

	m, ok := b.source.Model(modelName)
	if !ok {
		logger.Debug("no metadata for model %s", modelName)
		m = &meta.Model{Name: modelName}
	}

	names := append([]string(nil), exp.fields[modelName]...)
	sort.Strings(names)
	for _, name := range names {
		f, found := m.Field(name)
		pretty := name
		if found && f.VerboseName != "" {
			pretty = f.VerboseName
		}
		base := Base{ModelName: modelName, Name: name, PrettyName: pretty}

		switch {
		case name == admin.OpenInAdmin:
			fields[name] = newAdminField(modelName)
		case found && (f.Class.Is(meta.ForeignKey) || f.Class.Is(meta.OneToOneRel)):
			if exp.visible(f.Related) {
				fields[name] = &FkField{Base: base, RelName: f.Related}
			}
		case found && (f.Class.Is(meta.ForeignObjectRel) || f.Class.Is(meta.ManyToManyField)):
			logger.Debug("%s.%s: to-many relations are not supported", modelName, name)
		case found && f.Class.Is(meta.FileField):
			fields[name] = &FileField{Base: base, Storage: f}
		case !found:
			cf, err := b.calculated(ctx, req, base, a)
			if err != nil {
				return nil, err
			}
			if cf != nil {
				fields[name] = cf
			}
		default:
			t, choices := b.fieldType(modelName, name, f)
			rel := t.Name
			if t.Name == types.JSON {
				if jf, ok := a.(admin.JSONFielder); ok && len(jf.JSONFields()[name]) > 0 {
					rel = modelName + "__" + name
					sub, err := b.jsonSubModel(modelName, name, a, jf.JSONFields()[name])
					if err != nil {
						return nil, err
					}
					out[rel] = sub
				}
			}
			fields[name] = &ConcreteField{Base: base, Type: t, RelName: rel, Choices: choices}
		}
	}

	out[modelName] = &Model{Fields: fields, Admin: a}
	return out, nil
}

func adminName(a any) string {
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", a)
}

// calculated classifies an admin attribute that is not a column. Hidden
// attributes give nil.
func (b *Builder) calculated(ctx context.Context, req admin.Request, base Base, a any) (Field, error) {
	var attr admin.Attribute
	if ar, ok := a.(admin.AttributeResolver); ok {
		attr, _ = ar.Attribute(base.Name)
	}
	base.PrettyName = base.Name

	if attr.Annotation == nil {
		if attr.Hidden {
			return nil, nil
		}
		return &CalculatedField{Base: base, Admin: a}, nil
	}

	orderField := attr.Annotation.OrderField
	ma, ok := a.(admin.ModelAdmin)
	if !ok {
		return nil, &ConfigError{Admin: adminName(a), Field: base.Name, Annotation: orderField, Reason: MissingAnnotation}
	}
	qs, err := ma.Queryset(ctx, req, []string{base.Name})
	if err != nil {
		return nil, fmt.Errorf("queryset for %s.%s: %w", adminName(a), base.Name, err)
	}
	ann, ok := qs.Annotations[orderField]
	if !ok {
		return nil, &ConfigError{Admin: adminName(a), Field: base.Name, Annotation: orderField, Reason: MissingAnnotation}
	}
	if ann.Output == nil {
		return nil, &ConfigError{Admin: adminName(a), Field: base.Name, Annotation: orderField, Reason: MissingOutput}
	}

	t, choices := b.fieldType(base.ModelName, orderField, ann.Output)
	return &AnnotatedField{
		Base:         base,
		Type:         t,
		StorageClass: ann.Output.Class,
		Admin:        a,
		OrderField:   orderField,
		Choices:      choices,
	}, nil
}

var classTypes = map[meta.Class]string{
	meta.BooleanField:          types.Boolean,
	meta.DurationField:         types.Duration,
	meta.NullBooleanField:      types.Boolean,
	meta.DateTimeField:         types.DateTime,
	meta.DateField:             types.Date,
	meta.CharField:             types.String,
	meta.TextField:             types.String,
	meta.GenericIPAddressField: types.String,
	meta.UUIDField:             types.String,
	meta.DecimalField:          types.Number,
	meta.FloatField:            types.Number,
	meta.IntegerField:          types.Number,
	meta.AutoField:             types.Number,
}

func classType(c meta.Class) (string, bool) {
	for _, a := range c.Ancestry() {
		if t, ok := classTypes[a]; ok {
			return t, true
		}
	}
	return "", false
}

func displayChoices(choices []meta.Choice) []types.Choice {
	if len(choices) == 0 {
		return nil
	}
	out := make([]types.Choice, len(choices))
	for i, c := range choices {
		out[i] = types.Choice{Value: c.Value, Label: fmt.Sprint(c.Label)}
	}
	return out
}

// fieldType maps a storage field to its type. Unknown classes are logged
// and typed as unknown.
func (b *Builder) fieldType(model, name string, f *meta.Field) (*types.Type, []types.Choice) {
	if f.Class.Is(meta.ArrayField) {
		switch base, _ := classType(f.Base); base {
		case types.String:
			return b.mustType(types.StringArray), displayChoices(f.Choices)
		case types.Number:
			return b.mustType(types.NumberArray), displayChoices(f.Choices)
		}
	}

	var res string
	if f.Class.Is(meta.JSONField) {
		res = types.JSON
	} else if t, ok := classType(f.Class); ok {
		res = t
	} else {
		logger.Debug("%s.%s unsupported type %s", model, name, f.Class)
		res = types.Unknown
	}

	switch {
	case res == types.String && len(f.Choices) > 0:
		return b.mustType(types.StringChoice), displayChoices(f.Choices)
	case res == types.Number && len(f.Choices) > 0:
		return b.mustType(types.NumberChoice), displayChoices(f.Choices)
	}
	return b.mustType(res), nil
}

var jsonPrimitives = map[string]string{
	"string":  types.String,
	"number":  types.Number,
	"boolean": types.Boolean,
}

// jsonSubModel is the JSON type's own fields plus one concrete field per
// declared sub-field.
func (b *Builder) jsonSubModel(model, field string, a any, declared map[string]string) (*Model, error) {
	fields := typeFields(b.types, b.mustType(types.JSON))
	for name, primitive := range declared {
		typeName, ok := jsonPrimitives[primitive]
		if !ok {
			return nil, &ConfigError{
				Admin:  adminName(a),
				Field:  field,
				Reason: BadJSONFieldType,
				Detail: fmt.Sprintf("%s is %q, expected string, number or boolean", name, primitive),
			}
		}
		t := b.mustType(typeName)
		fields[name] = &ConcreteField{
			Base:    Base{ModelName: model, Name: name, PrettyName: name},
			Type:    t,
			RelName: t.Name,
		}
	}
	return &Model{Fields: fields}, nil
}
