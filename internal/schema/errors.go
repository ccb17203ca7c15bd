package schema

import "fmt"

// Reasons a ConfigError is raised.
const (
	MissingAnnotation = "missing annotation"
	MissingOutput     = "missing output field"
	BadJSONFieldType  = "bad json field type"
)

// ConfigError is an admin authoring mistake found while building. It
// aborts the build.
type ConfigError struct {
	Admin      string
	Field      string
	Annotation string
	Reason     string
	Detail     string
}

func (e *ConfigError) Error() string {
	switch e.Reason {
	case MissingAnnotation:
		return fmt.Sprintf("Can't find annotation '%s' for %s.%s", e.Annotation, e.Admin, e.Field)
	case MissingOutput:
		return fmt.Sprintf("Annotation '%s' for %s.%s doesn't specify 'output_field'", e.Annotation, e.Admin, e.Field)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s.%s: %s: %s", e.Admin, e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s.%s: %s", e.Admin, e.Field, e.Reason)
}
