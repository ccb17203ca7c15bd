package types

type variant struct {
	name    string
	def     any
	sort    Sort
	lookups [][2]string
	parse   parseFunc
	format  formatFunc
	hints   hintsFunc
}

var stringLookups = [][2]string{
	{"equals", String},
	{"contains", String},
	{"starts_with", String},
	{"ends_with", String},
	{"regex", Regex},
	{"not_equals", String},
	{"not_contains", String},
	{"not_starts_with", String},
	{"not_ends_with", String},
	{"not_regex", Regex},
	{"is_null", Boolean},
}

var numberLookups = ordered(Number)

// ordered is the lookup set of types with a total order.
func ordered(self string) [][2]string {
	return [][2]string{
		{"equals", self},
		{"not_equals", self},
		{"gt", self},
		{"gte", self},
		{"lt", self},
		{"lte", self},
		{"is_null", Boolean},
	}
}

// choiceOf keeps the lookups of base but compares equality against the
// choice type itself.
func choiceOf(base [][2]string, self string) [][2]string {
	out := make([][2]string, len(base))
	for i, l := range base {
		out[i] = l
		if l[0] == "equals" || l[0] == "not_equals" {
			out[i][1] = self
		}
	}
	return out
}

func arrayOf(choice string) [][2]string {
	return [][2]string{
		{"contains", choice},
		{"length", Number},
		{"not_contains", choice},
		{"not_length", Number},
		{"is_null", Boolean},
	}
}

var (
	weekDays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	months   = []string{"January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December"}
)

func (r *Registry) variants() []variant {
	return []variant{
		{name: String, def: "", lookups: stringLookups, parse: parseText, format: formatPlain},
		{name: StringChoice, lookups: choiceOf(stringLookups, StringChoice), parse: parseText, format: formatChoice},
		{name: StringArray, lookups: arrayOf(StringChoice), parse: parseText, format: formatArray},
		{name: Regex, def: ".*", parse: r.parseRegex, format: formatPlain},
		{name: Number, def: 0.0, lookups: numberLookups, parse: parseNumber, format: formatNumber, hints: numberHints},
		{name: NumberChoice, lookups: choiceOf(numberLookups, NumberChoice), parse: parseNumber, format: formatChoice},
		{name: NumberArray, lookups: arrayOf(NumberChoice), parse: parseText, format: formatArray},
		{name: Year, def: r.now().Year(), sort: Asc, lookups: ordered(Year), parse: parseYear, format: formatNumber, hints: numberHints},
		{name: Duration, def: "", lookups: ordered(Duration), parse: parseDuration, format: formatDuration},
		{name: DateTime, def: "now", sort: Asc, lookups: ordered(DateTime), parse: r.parseDateTime, format: r.formatDateTime},
		{name: Date, def: "today", sort: Asc, lookups: ordered(Date), parse: r.parseDate, format: formatDate},
		{name: WeekDay, def: "Monday", sort: Asc, lookups: [][2]string{{"equals", WeekDay}, {"not_equals", WeekDay}},
			parse: parseNamed(weekDays, "not a day of the week"), format: formatNamed(weekDays)},
		{name: Month, def: "January", sort: Asc, lookups: [][2]string{{"equals", Month}, {"not_equals", Month}},
			parse: parseNamed(months, "not a month"), format: formatNamed(months)},
		{name: HTML, def: "", lookups: stringLookups, parse: parseText, format: formatPlain},
		{name: Boolean, def: true, lookups: [][2]string{{"equals", Boolean}, {"not_equals", Boolean}, {"is_null", Boolean}},
			parse: parseBoolean, format: formatPlain},
		{name: IsNull, def: true, lookups: [][2]string{{"equals", Boolean}}, parse: parseBoolean, format: formatIsNull},
		{name: Unknown, lookups: [][2]string{{"is_null", Boolean}}, parse: parseText, format: formatUnknown},
		{name: JSONField, def: "|", parse: parseJSONField, format: formatPlain},
		{name: JSON, lookups: [][2]string{
			{"is_null", Boolean},
			{"has_key", String},
			{"field_equals", JSONField},
			{"not_has_key", String},
			{"not_field_equals", JSONField},
		}, parse: parseText, format: formatPlain},
	}
}

// declare builds every type, then links lookups once all types exist.
func (r *Registry) declare() {
	vs := r.variants()
	for _, v := range vs {
		t := &Type{
			Name:         v.name,
			DefaultValue: v.def,
			DefaultSort:  v.sort,
			parse:        v.parse,
			format:       v.format,
			hints:        v.hints,
		}
		r.types[t.Name] = t
		r.order = append(r.order, t)
	}
	for _, v := range vs {
		t := r.types[v.name]
		for _, l := range v.lookups {
			target, ok := r.types[l[1]]
			if !ok {
				panic("types: lookup " + v.name + "." + l[0] + " refers to undeclared type " + l[1])
			}
			t.lookups = append(t.lookups, Lookup{Name: l[0], Type: target})
		}
	}
}
