package meta

import (
	"regexp"
	"strings"
)

// Class is the storage class of a model field, named after the ORM field
// class it corresponds to. Classes form a single-inheritance chain so a
// class without its own mapping can be treated like its nearest ancestor.
type Class string

const (
	AutoField             Class = "AutoField"
	BigAutoField          Class = "BigAutoField"
	IntegerField          Class = "IntegerField"
	SmallIntegerField     Class = "SmallIntegerField"
	BigIntegerField       Class = "BigIntegerField"
	PositiveIntegerField  Class = "PositiveIntegerField"
	DecimalField          Class = "DecimalField"
	FloatField            Class = "FloatField"
	CharField             Class = "CharField"
	TextField             Class = "TextField"
	EmailField            Class = "EmailField"
	SlugField             Class = "SlugField"
	URLField              Class = "URLField"
	GenericIPAddressField Class = "GenericIPAddressField"
	UUIDField             Class = "UUIDField"
	BooleanField          Class = "BooleanField"
	NullBooleanField      Class = "NullBooleanField"
	DateField             Class = "DateField"
	DateTimeField         Class = "DateTimeField"
	TimeField             Class = "TimeField"
	DurationField         Class = "DurationField"
	BinaryField           Class = "BinaryField"
	JSONField             Class = "JSONField"
	ArrayField            Class = "ArrayField"
	FileField             Class = "FileField"
	ImageField            Class = "ImageField"
	ForeignKey            Class = "ForeignKey"
	OneToOneField         Class = "OneToOneField"
	ManyToManyField       Class = "ManyToManyField"
	ForeignObjectRel      Class = "ForeignObjectRel"
	ManyToOneRel          Class = "ManyToOneRel"
	OneToOneRel           Class = "OneToOneRel"
	ManyToManyRel         Class = "ManyToManyRel"
)

var parents = map[Class]Class{
	AutoField:            IntegerField,
	BigAutoField:         BigIntegerField,
	SmallIntegerField:    IntegerField,
	BigIntegerField:      IntegerField,
	PositiveIntegerField: IntegerField,
	EmailField:           CharField,
	SlugField:            CharField,
	URLField:             CharField,
	NullBooleanField:     BooleanField,
	DateTimeField:        DateField,
	ImageField:           FileField,
	OneToOneField:        ForeignKey,
	ManyToOneRel:         ForeignObjectRel,
	OneToOneRel:          ManyToOneRel,
	ManyToManyRel:        ForeignObjectRel,
}

// Parent returns the class c derives from, or "".
func (c Class) Parent() Class {
	return parents[c]
}

// Ancestry returns c followed by its ancestors, nearest first.
func (c Class) Ancestry() []Class {
	var out []Class
	for ; c != ""; c = c.Parent() {
		out = append(out, c)
	}
	return out
}

// Is reports whether c is other or derives from it.
func (c Class) Is(other Class) bool {
	for ; c != ""; c = c.Parent() {
		if c == other {
			return true
		}
	}
	return false
}

// IsRelation reports whether fields of class c point at another model.
func (c Class) IsRelation() bool {
	return c.Is(ForeignKey) || c.Is(ManyToManyField) || c.Is(ForeignObjectRel)
}

var typeArgs = regexp.MustCompile(`\s*\([^)]*\)`)

// ClassOf maps a catalog column type to a storage class. Unrecognised
// types come back as a class named after the normalised type, which
// nothing maps to.
func ClassOf(sqlType string, pk bool) Class {
	raw := strings.ToLower(strings.TrimSpace(sqlType))
	if raw == "tinyint(1)" || raw == "bit" {
		return BooleanField
	}
	t := strings.TrimSpace(typeArgs.ReplaceAllString(raw, ""))
	t = strings.TrimSuffix(t, " unsigned")

	if t == "array" || strings.HasSuffix(t, "[]") {
		return ArrayField
	}

	var c Class
	switch t {
	case "bool", "boolean":
		c = BooleanField
	case "smallint", "int2", "tinyint":
		c = SmallIntegerField
	case "integer", "int", "int4", "mediumint":
		c = IntegerField
	case "serial", "serial4":
		c = AutoField
	case "bigint", "int8":
		c = BigIntegerField
	case "bigserial", "serial8":
		c = BigAutoField
	case "numeric", "decimal", "money", "smallmoney", "number":
		c = DecimalField
	case "real", "float", "float4", "float8", "double", "double precision", "binary_float", "binary_double":
		c = FloatField
	case "char", "character", "nchar", "bpchar", "varchar", "character varying", "nvarchar", "varchar2", "nvarchar2":
		c = CharField
	case "text", "citext", "clob", "nclob", "ntext", "tinytext", "mediumtext", "longtext":
		c = TextField
	case "uuid", "uniqueidentifier":
		c = UUIDField
	case "inet", "cidr":
		c = GenericIPAddressField
	case "date":
		c = DateField
	case "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone",
		"timestamp with local time zone", "datetime", "datetime2", "datetimeoffset", "smalldatetime":
		c = DateTimeField
	case "time", "timetz", "time with time zone", "time without time zone":
		c = TimeField
	case "interval", "interval day to second":
		c = DurationField
	case "json", "jsonb":
		c = JSONField
	case "bytea", "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary", "image", "raw", "long raw":
		c = BinaryField
	default:
		c = affinity(t)
	}

	if pk {
		switch c {
		case IntegerField, SmallIntegerField:
			return AutoField
		case BigIntegerField:
			return BigAutoField
		}
	}
	return c
}

// affinity applies SQLite's column affinity rules to declared types no
// other dialect uses.
func affinity(t string) Class {
	switch {
	case t == "":
		return BinaryField
	case strings.Contains(t, "int"):
		return IntegerField
	case strings.Contains(t, "char"):
		return CharField
	case strings.Contains(t, "clob"), strings.Contains(t, "text"):
		return TextField
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"):
		return FloatField
	}
	return Class(t)
}
