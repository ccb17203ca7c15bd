package schema

import (
	"databrowser/internal/types"
)

// functions applicable to values of a type, and their result types
var typeFunctions = map[string][][2]string{
	types.Date: {
		{"year", types.Year},
		{"quarter", types.Number},
		{"month", types.Month},
		{"day", types.Number},
		{"week_day", types.WeekDay},
		{"month_start", types.Date},
		{"week_start", types.Date},
	},
	types.DateTime: {
		{"year", types.Year},
		{"quarter", types.Number},
		{"month", types.Month},
		{"day", types.Number},
		{"week_day", types.WeekDay},
		{"hour", types.Number},
		{"minute", types.Number},
		{"second", types.Number},
		{"date", types.Date},
		{"month_start", types.Date},
		{"week_start", types.Date},
	},
}

// aggregates over values of a type; "" as result means the type itself
var typeAggregates = map[string][][2]string{
	types.Number: {
		{"average", types.Number},
		{"max", types.Number},
		{"min", types.Number},
		{"std_dev", types.Number},
		{"sum", types.Number},
		{"variance", types.Number},
	},
	types.Year:     {{"max", ""}, {"min", ""}},
	types.Date:     {{"max", ""}, {"min", ""}},
	types.DateTime: {{"max", ""}, {"min", ""}},
	types.Duration: {
		{"average", types.Duration},
		{"max", types.Duration},
		{"min", types.Duration},
		{"sum", types.Duration},
	},
	types.Boolean: {{"average", types.Number}, {"sum", types.Number}},
}

// typeFields is the pseudo-model of t: its functions and aggregates, a
// count, and is_null.
func typeFields(reg *types.Registry, t *types.Type) map[string]Field {
	fields := map[string]Field{}
	resolve := func(name string) *types.Type {
		if name == "" {
			return t
		}
		rt, _ := reg.Type(name)
		return rt
	}

	number, _ := reg.Type(types.Number)
	fields["count"] = &AggregateField{
		Base:      Base{ModelName: t.Name, Name: "count", PrettyName: "count"},
		Type:      number,
		Aggregate: "count",
	}
	for _, a := range typeAggregates[t.Name] {
		fields[a[0]] = &AggregateField{
			Base:      Base{ModelName: t.Name, Name: a[0], PrettyName: a[0]},
			Type:      resolve(a[1]),
			Aggregate: a[0],
		}
	}
	for _, fn := range typeFunctions[t.Name] {
		rt := resolve(fn[1])
		fields[fn[0]] = &FunctionField{
			Base:     Base{ModelName: t.Name, Name: fn[0], PrettyName: fn[0]},
			Type:     rt,
			RelName:  rt.Name,
			Function: fn[0],
		}
	}
	if t.Name != types.IsNull {
		isNull, _ := reg.Type(types.IsNull)
		fields["is_null"] = &FunctionField{
			Base:     Base{ModelName: t.Name, Name: "is_null", PrettyName: "is null"},
			Type:     isNull,
			RelName:  isNull.Name,
			Function: "is_null",
		}
	}
	return fields
}
