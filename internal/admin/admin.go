// Package admin is the contract between the schema builder and whatever
// decides which models are exposed, which of their fields are shown and
// to whom. ModelAdmin is the required surface; the remaining interfaces
// are optional capabilities an admin may implement.
package admin

import (
	"context"

	"databrowser/internal/logger"
	"databrowser/internal/meta"
)

// OpenInAdmin is the name of the synthetic field linking a row to its
// admin page.
const OpenInAdmin = "admin"

// Request is the permission context of one schema build.
type Request struct {
	User      string
	Roles     []string
	Superuser bool
}

// HasAnyRole reports whether the request holds one of roles. "*" matches
// every request.
func (r Request) HasAnyRole(roles []string) bool {
	for _, want := range roles {
		if want == "*" {
			return true
		}
		for _, have := range r.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Fieldset is one titled group of fields on a detail page.
type Fieldset struct {
	Title  string
	Fields []string
}

// Flatten returns the field names of fieldsets in order.
func Flatten(fieldsets []Fieldset) []string {
	var out []string
	for _, fs := range fieldsets {
		out = append(out, fs.Fields...)
	}
	return out
}

// Annotation is a computed column a queryset adds. Output describes the
// storage field of its result; nil means the annotation does not declare
// one.
type Annotation struct {
	Expression string
	Output     *meta.Field
}

// Queryset is the permission scoped selection an admin would run.
type Queryset struct {
	Model       string
	Fields      []string
	Annotations map[string]Annotation
}

// ModelAdmin is the minimum an admin must implement to be considered.
type ModelAdmin interface {
	Model() string
	Fieldsets(req Request) []Fieldset
	ListDisplay(req Request) []string
	HasChangePermission(req Request) bool
	Queryset(ctx context.Context, req Request, fields []string) (*Queryset, error)
}

// ViewPermissioner grants read-only access.
type ViewPermissioner interface {
	HasViewPermission(req Request) bool
}

// Ignorer opts an admin out of the browser.
type Ignorer interface {
	Ignored() bool
}

// ExtraFielder exposes fields that are on no detail page.
type ExtraFielder interface {
	ExtraFields() []string
}

// HiddenFielder removes fields that would otherwise be exposed.
type HiddenFielder interface {
	HiddenFields() []string
}

// JSONFielder declares the sub fields of JSON columns, as field name to
// primitive type name ("string", "number" or "boolean").
type JSONFielder interface {
	JSONFields() map[string]map[string]string
}

// Annotator lists the annotated attributes of an admin.
type Annotator interface {
	Annotations() []string
}

// AnnotationDescriptor marks an attribute computed by a queryset
// annotation. OrderField is the annotation's key in the queryset.
type AnnotationDescriptor struct {
	OrderField string
}

// Attribute describes a non-column attribute of an admin.
type Attribute struct {
	Annotation *AnnotationDescriptor
	Hidden     bool
}

// AttributeResolver describes the admin's non-column attributes.
type AttributeResolver interface {
	Attribute(name string) (Attribute, bool)
}

// InlineProvider lists the child admins edited on the admin's page. The
// returned values are checked for the ModelAdmin surface like top-level
// admins.
type InlineProvider interface {
	Inlines(req Request) []any
}

// Inline marks a child admin. FKName picks the foreign key to the parent
// when the child has several.
type Inline interface {
	FKName() string
}

// ChangeFieldsetser gives the fieldsets of the change page where they
// differ from the add page.
type ChangeFieldsetser interface {
	ChangeFieldsets(req Request) []Fieldset
}

// Registration is one registered model and its admin. Admin is untyped:
// registries may hold objects that do not implement ModelAdmin.
type Registration struct {
	Model string
	Admin any
}

// Registry enumerates registered admins in registration order.
type Registry interface {
	Registered() []Registration
}

// VisibleFunc decides whether an admin or inline is exposed to req.
type VisibleFunc func(a any, req Request) bool

// DefaultVisible exposes admins that implement ModelAdmin, are not
// ignored and grant change permission, or view permission when they can
// express it.
func DefaultVisible(a any, req Request) bool {
	ma, ok := a.(ModelAdmin)
	if !ok {
		logger.Debug("%T instance does not look like a ModelAdmin or inline admin", a)
		return false
	}
	if ig, ok := a.(Ignorer); ok && ig.Ignored() {
		return false
	}
	if ma.HasChangePermission(req) {
		return true
	}
	if vp, ok := a.(ViewPermissioner); ok {
		return vp.HasViewPermission(req)
	}
	return false
}
