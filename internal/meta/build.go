package meta

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"databrowser/internal/introspect"
	"databrowser/internal/logger"
	"databrowser/pkg/config"
)

var title = cases.Title(language.English)

// VerboseName turns a column or table name into display text,
// "unit_price" becoming "unit price".
func VerboseName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
}

// FromSchema builds a catalog from an extracted database catalog. Each
// table becomes a model named by its qualified name. Single column
// foreign keys become ForeignKey fields (OneToOneField when the column is
// unique) plus a reverse relation on the target model. overrides are
// applied last.
func FromSchema(s introspect.Schema, overrides []config.ModelConfig) *Catalog {
	models := make(map[string]*Model, len(s.Tables))
	var ordered []*Model
	for _, t := range s.Tables {
		m := &Model{
			Name:        t.QualifiedName(),
			Table:       t.Name,
			VerboseName: title.String(VerboseName(t.Name)),
		}
		for _, c := range t.Columns {
			f := &Field{
				Name:        c.Name,
				Class:       ClassOf(c.Type, c.PK),
				VerboseName: VerboseName(c.Name),
				Column:      c.Name,
				PK:          c.PK,
				Unique:      c.Unique,
			}
			if f.Class == ArrayField {
				f.Base = ClassOf(c.Elem, false)
			}
			m.Fields = append(m.Fields, f)
		}
		models[m.Name] = m
		ordered = append(ordered, m)
	}

	for _, fk := range s.ForeignKeys {
		linkForeignKey(models, fk)
	}

	for _, o := range overrides {
		m, ok := models[o.Name]
		if !ok {
			logger.Warn("model override for unknown model %s", o.Name)
			continue
		}
		applyOverride(models, m, o)
	}

	return NewCatalog(ordered...)
}

func qualified(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

func linkForeignKey(models map[string]*Model, fk introspect.ForeignKey) {
	if strings.Contains(fk.FromColumn, ",") {
		logger.Debug("skipping composite foreign key %s on %s", fk.Constraint, fk.FromTable)
		return
	}
	from, ok := models[qualified(fk.FromSchema, fk.FromTable)]
	if !ok {
		return
	}
	to, ok := models[qualified(fk.ToSchema, fk.ToTable)]
	if !ok {
		logger.Debug("foreign key %s.%s points outside the catalog", from.Name, fk.FromColumn)
		return
	}

	var col *Field
	for _, f := range from.Fields {
		if f.Column == fk.FromColumn {
			col = f
			break
		}
	}
	if col == nil {
		logger.Debug("foreign key column %s.%s not found", from.Name, fk.FromColumn)
		return
	}

	name := strings.TrimSuffix(col.Column, "_id")
	if name == col.Column || name == "" {
		name = col.Column + "_ref"
	}
	if _, taken := from.Field(name); taken {
		logger.Debug("relation name %s.%s already taken", from.Name, name)
		return
	}

	class, rev := ForeignKey, ManyToOneRel
	if col.Unique || col.PK {
		class, rev = OneToOneField, OneToOneRel
	}
	from.Fields = append(from.Fields, &Field{
		Name:        name,
		Class:       class,
		VerboseName: VerboseName(name),
		Related:     to.Name,
		Column:      col.Column,
	})

	revName := from.Table
	if _, taken := to.Field(revName); taken {
		revName = from.Table + "_" + name
	}
	to.Fields = append(to.Fields, &Field{
		Name:        revName,
		Class:       rev,
		VerboseName: VerboseName(revName),
		Related:     from.Name,
	})
}

func applyOverride(models map[string]*Model, m *Model, o config.ModelConfig) {
	if o.VerboseName != "" {
		m.VerboseName = o.VerboseName
	}
	for _, a := range o.Attributes {
		m.AddAttribute(a)
	}
	for name, fo := range o.Fields {
		f, ok := m.Field(name)
		if !ok {
			if fo.Class == "" {
				logger.Warn("override for unknown field %s.%s has no class", m.Name, name)
				continue
			}
			f = &Field{Name: name, VerboseName: VerboseName(name)}
			m.Fields = append(m.Fields, f)
		}
		if fo.Class != "" {
			f.Class = Class(fo.Class)
		}
		if fo.Base != "" {
			f.Base = Class(fo.Base)
		}
		if fo.VerboseName != "" {
			f.VerboseName = fo.VerboseName
		}
		if fo.Related != "" {
			if _, ok := models[fo.Related]; !ok {
				logger.Warn("field %s.%s relates to unknown model %s", m.Name, name, fo.Related)
			}
			f.Related = fo.Related
		}
		for _, c := range fo.Choices {
			f.Choices = append(f.Choices, Choice{Value: normalizeChoice(c.Value), Label: c.Label})
		}
	}
}

// normalizeChoice makes YAML numbers compare equal to database numbers.
func normalizeChoice(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case nil, string, bool, float64:
		return v
	default:
		return fmt.Sprint(v)
	}
}
