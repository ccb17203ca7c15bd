// Package views reads and writes the JSON form of saved views.
package views

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"databrowser/internal/query"
)

const createdLayout = "2006-01-02 15:04:05"

// View is a saved query.
type View struct {
	ID          uuid.UUID
	Owner       string
	Name        string
	Description string
	Public      bool
	ModelName   string
	Fields      string
	Query       string
	Limit       int
	CreatedTime time.Time
}

// New returns an empty view owned by owner.
func New(owner string, now time.Time) *View {
	return &View{ID: uuid.New(), Owner: owner, Limit: 1000, CreatedTime: now}
}

// Parse reads the view's field and filter strings.
func (v *View) Parse() (*query.Query, error) {
	return query.Parse(v.ModelName, v.Fields, v.Query, v.Limit)
}

// Link is the browser URL that opens the view.
func (v *View) Link() string {
	return fmt.Sprintf("/query/%s/%s.html?%s&limit=%d", v.ModelName, v.Fields, v.Query, v.Limit)
}

// Update holds the view attributes present in a request body. Absent
// attributes are nil and left alone by Apply.
type Update struct {
	Name        *string
	Description *string
	Public      *bool
	ModelName   *string
	Fields      *string
	Query       *string
	Limit       *int
}

// Apply copies the present attributes onto v.
func (u *Update) Apply(v *View) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.Name, u.Name)
	set(&v.Description, u.Description)
	set(&v.ModelName, u.ModelName)
	set(&v.Fields, u.Fields)
	set(&v.Query, u.Query)
	if u.Public != nil {
		v.Public = *u.Public
	}
	if u.Limit != nil {
		v.Limit = *u.Limit
	}
}

type body struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Public      *bool           `json:"public"`
	Model       *string         `json:"model"`
	ModelName   *string         `json:"model_name"`
	Fields      *string         `json:"fields"`
	Query       *string         `json:"query"`
	Limit       json.RawMessage `json:"limit"`
}

// Deserialize reads a request body. "model" is accepted as the model
// name. A limit that is not an integer, or is below 1, becomes 1. Users
// who may not publish views always get public=false.
func Deserialize(data []byte, canMakePublic bool) (*Update, error) {
	var b body
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid view: %w", err)
	}
	u := &Update{
		Name:        b.Name,
		Description: b.Description,
		Public:      b.Public,
		ModelName:   b.ModelName,
		Fields:      b.Fields,
		Query:       b.Query,
	}
	if b.Model != nil {
		u.ModelName = b.Model
	}
	if len(b.Limit) > 0 {
		limit := coerceLimit(b.Limit)
		u.Limit = &limit
	}
	if !canMakePublic {
		f := false
		u.Public = &f
	}
	return u, nil
}

func coerceLimit(raw json.RawMessage) int {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 1
	}
	n := 1
	switch l := v.(type) {
	case float64:
		if !math.IsInf(l, 0) && !math.IsNaN(l) && math.Abs(l) < math.MaxInt32 {
			n = int(l)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(l)); err == nil {
			n = i
		}
	case bool:
		if l {
			n = 1
		} else {
			n = 0
		}
	}
	return max(n, 1)
}

// Serialized is the JSON form of a view.
type Serialized struct {
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Public              bool      `json:"public"`
	Model               string    `json:"model"`
	Fields              string    `json:"fields"`
	Query               string    `json:"query"`
	Limit               int       `json:"limit"`
	PublicLink          string    `json:"publicLink"`
	GoogleSheetsFormula string    `json:"googleSheetsFormula"`
	Link                string    `json:"link"`
	CreatedTime         string    `json:"createdTime"`
	PK                  uuid.UUID `json:"pk"`
}

// Serialize renders v. baseURL prefixes the public csv link, which is
// "N/A" for private views.
func Serialize(v *View, baseURL string) Serialized {
	publicLink, formula := "N/A", "N/A"
	if v.Public {
		publicLink = fmt.Sprintf("%s/view/%s.csv", strings.TrimSuffix(baseURL, "/"), v.ID)
		formula = fmt.Sprintf(`=importdata("%s")`, publicLink)
	}
	return Serialized{
		Name:                v.Name,
		Description:         v.Description,
		Public:              v.Public,
		Model:               v.ModelName,
		Fields:              v.Fields,
		Query:               v.Query,
		Limit:               v.Limit,
		PublicLink:          publicLink,
		GoogleSheetsFormula: formula,
		Link:                v.Link(),
		CreatedTime:         v.CreatedTime.Format(createdLayout),
		PK:                  v.ID,
	}
}
