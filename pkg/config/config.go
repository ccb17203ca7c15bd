package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Type         string `yaml:"type" json:"type"`
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	DatabaseName string `yaml:"database_name" json:"database_name"`
	DSN          string `yaml:"dsn" json:"dsn"` // optional explicit DSN
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

// BrowserConfig holds the settings of the reporting layer itself.
type BrowserConfig struct {
	Debug          bool     `yaml:"debug" json:"debug"`
	AuthUserCompat bool     `yaml:"auth_user_compat" json:"auth_user_compat"`
	Timezone       string   `yaml:"timezone" json:"timezone"`
	PublicRoles    []string `yaml:"public_roles" json:"public_roles"` // roles allowed to publish views
	PublicURL      string   `yaml:"public_url" json:"public_url"`
}

// FieldsetConfig is one titled group of fields on an admin detail page.
type FieldsetConfig struct {
	Title  string   `yaml:"title"`
	Fields []string `yaml:"fields"`
}

// AnnotationConfig declares a query-time computed column exposed as a field.
type AnnotationConfig struct {
	OrderField  string `yaml:"order_field"`
	Expression  string `yaml:"expression"`
	OutputClass string `yaml:"output_class"`
	OutputBase  string `yaml:"output_base"`
}

// InlineConfig declares a child model edited inside its parent's admin page.
type InlineConfig struct {
	Model        string           `yaml:"model"`
	FKName       string           `yaml:"fk_name"`
	Fieldsets    []FieldsetConfig `yaml:"fieldsets"`
	ExtraFields  []string         `yaml:"extra_fields"`
	HiddenFields []string         `yaml:"hidden_fields"`
	ChangeRoles  []string         `yaml:"change_roles"`
	ViewRoles    []string         `yaml:"view_roles"`
	Ignore       bool             `yaml:"ignore"`
}

type AdminConfig struct {
	Model           string                       `yaml:"model"`
	Fieldsets       []FieldsetConfig             `yaml:"fieldsets"`
	ChangeFieldsets []FieldsetConfig             `yaml:"change_fieldsets"`
	ListDisplay     []string                     `yaml:"list_display"`
	ExtraFields     []string                     `yaml:"extra_fields"`
	HiddenFields    []string                     `yaml:"hidden_fields"`
	JSONFields      map[string]map[string]string `yaml:"json_fields"`
	Calculated      map[string]bool              `yaml:"calculated"` // name -> hidden
	Annotations     map[string]AnnotationConfig  `yaml:"annotations"`
	ChangeRoles     []string                     `yaml:"change_roles"`
	ViewRoles       []string                     `yaml:"view_roles"`
	Ignore          bool                         `yaml:"ignore"`
	Inlines         []InlineConfig               `yaml:"inlines"`
}

// ChoiceConfig is one raw value / label pair of an enumerated column.
type ChoiceConfig struct {
	Value interface{} `yaml:"value"`
	Label string      `yaml:"label"`
}

// FieldOverride adjusts what the catalog reports for a single column.
type FieldOverride struct {
	Class       string         `yaml:"class"`
	Base        string         `yaml:"base"`
	VerboseName string         `yaml:"verbose_name"`
	Related     string         `yaml:"related"`
	Choices     []ChoiceConfig `yaml:"choices"`
}

type ModelConfig struct {
	Name        string                   `yaml:"name"`
	VerboseName string                   `yaml:"verbose_name"`
	Attributes  []string                 `yaml:"attributes"` // non-column attributes (properties, methods)
	Fields      map[string]FieldOverride `yaml:"fields"`
}

type AppConfig struct {
	Database DBConfig      `yaml:"database" json:"database"`
	Server   ServerConfig  `yaml:"server" json:"server"`
	Browser  BrowserConfig `yaml:"browser" json:"browser"`
	Admins   []AdminConfig `yaml:"admins" json:"-"`
	Models   []ModelConfig `yaml:"models" json:"-"`
}

// LoadFile loads YAML config from path.
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NormalizeDriver maps common aliases to canonical keys (keeps backwards compat).
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver":
		return "sqlserver"
	case "godror", "oracle":
		return "godror"
	default:
		return strings.ToLower(d)
	}
}

// BuildDriverAndDSN produces a driver name and DSN string for supported DB types.
func BuildDriverAndDSN(db DBConfig) (driver string, dsn string, err error) {
	t := NormalizeDriver(db.Type)

	if db.DSN != "" {
		return t, db.DSN, nil
	}

	switch t {
	case "postgres":
		driver = "postgres"
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "sqlite":
		driver = "sqlite"
		if db.DatabaseName == "" {
			return "", "", fmt.Errorf("sqlite needs a file path in database_name")
		}
		// read-write: regex probes open (and roll back) transactions
		dsn = fmt.Sprintf("file:%s", db.DatabaseName)
	case "sqlserver":
		driver = "sqlserver"
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "godror":
		driver = "godror"
		dsn = fmt.Sprintf("%s/%s@%s:%d/%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	default:
		err = fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return
}

// Admin returns the admin declaration for model, if any.
func (c AppConfig) Admin(model string) (AdminConfig, bool) {
	for _, a := range c.Admins {
		if a.Model == model {
			return a, true
		}
	}
	return AdminConfig{}, false
}

// CanMakePublic reports whether a user holding roles may publish views.
func (b BrowserConfig) CanMakePublic(superuser bool, roles []string) bool {
	if superuser {
		return true
	}
	for _, want := range b.PublicRoles {
		for _, r := range roles {
			if want == "*" || want == r {
				return true
			}
		}
	}
	return false
}
