package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

var (
	errUnexpectedChoices = errors.New("choices given for a type without choices")
	errMissingChoices    = errors.New("choice type formatted without choices")
)

func formatPlain(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	return value, nil
}

// choiceKey makes numeric values of any width compare equal.
func choiceKey(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func label(value any, choices []Choice) (string, error) {
	key := choiceKey(value)
	for _, c := range choices {
		if choiceKey(c.Value) == key {
			return c.Label, nil
		}
	}
	return "", fmt.Errorf("%v is not one of the declared choices", value)
}

func formatChoice(value any, choices []Choice) (any, error) {
	if len(choices) == 0 {
		return nil, errMissingChoices
	}
	if value == nil {
		return nil, nil
	}
	return label(value, choices)
}

// formatArray joins the elements with ", ", labelling each when choices
// are given.
func formatArray(value any, choices []Choice) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("array value expected, got %T", value)
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		elem := rv.Index(i).Interface()
		if elem == nil {
			// NULL elements render as empty, not "None"
			continue
		}
		if len(choices) > 0 {
			l, err := label(elem, choices)
			if err != nil {
				return nil, err
			}
			parts[i] = l
			continue
		}
		parts[i] = fmt.Sprint(elem)
	}
	return strings.Join(parts, ", "), nil
}

// toFloat converts the numeric representations database drivers return.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case *decimal.Decimal:
		if n == nil {
			return 0, false
		}
		return n.InexactFloat64(), true
	}
	return 0, false
}

func formatNumber(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	if value == nil {
		return nil, nil
	}
	if f, ok := toFloat(value); ok {
		return f, nil
	}
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil, fmt.Errorf("number expected, got %T", value)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	return d.InexactFloat64(), nil
}

// formatDuration renders like "1 day, 2:03:04.500000"; zero is nil.
func formatDuration(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	d, ok := value.(time.Duration)
	if !ok {
		if value == nil {
			return nil, nil
		}
		return fmt.Sprint(value), nil
	}
	if d == 0 {
		return nil, nil
	}

	// days are floored so the clock part is never negative
	micros := d.Microseconds()
	const microsPerDay = int64(24 * time.Hour / time.Microsecond)
	days := micros / microsPerDay
	rest := micros % microsPerDay
	if rest < 0 {
		rest += microsPerDay
		days--
	}
	secs, frac := rest/1e6, rest%1e6

	var b strings.Builder
	if days != 0 {
		unit := "days"
		if days == 1 || days == -1 {
			unit = "day"
		}
		fmt.Fprintf(&b, "%d %s, ", days, unit)
	}
	fmt.Fprintf(&b, "%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	if frac != 0 {
		fmt.Fprintf(&b, ".%06d", frac)
	}
	return b.String(), nil
}

// naive renders t in loc without a zone, with microseconds when present.
func naive(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02 15:04:05.000000")
	}
	return t.Format("2006-01-02 15:04:05")
}

func (r *Registry) formatDateTime(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return naive(v, r.loc), nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil, nil
		}
		return naive(*v, r.loc), nil
	case civil.DateTime:
		return naive(v.In(r.loc), r.loc), nil
	}
	return fmt.Sprint(value), nil
}

const dateLayout = "02.01.2006"

func formatDate(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case civil.Date:
		return v.In(time.UTC).Format(dateLayout), nil
	case time.Time:
		// drivers return DATE columns as midnight in their own zone;
		// the wall clock is the stored day
		return civil.DateOf(v).In(time.UTC).Format(dateLayout), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return civil.DateOf(*v).In(time.UTC).Format(dateLayout), nil
	case string:
		d, err := civil.ParseDate(v)
		if err != nil {
			return nil, err
		}
		return d.In(time.UTC).Format(dateLayout), nil
	}
	return nil, fmt.Errorf("date expected, got %T", value)
}

// formatNamed indexes a 1-based value back into names; 0 and nil are nil.
func formatNamed(names []string) formatFunc {
	return func(value any, choices []Choice) (any, error) {
		if len(choices) > 0 {
			return nil, errUnexpectedChoices
		}
		f, ok := toFloat(value)
		if !ok || f == 0 {
			return nil, nil
		}
		i := int(f)
		if i < 1 || i > len(names) {
			return nil, fmt.Errorf("%v out of range 1..%d", value, len(names))
		}
		return names[i-1], nil
	}
}

func formatIsNull(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	if b, _ := value.(bool); b {
		return "IsNull", nil
	}
	return "NotNull", nil
}

func formatUnknown(value any, choices []Choice) (any, error) {
	if len(choices) > 0 {
		return nil, errUnexpectedChoices
	}
	if value == nil {
		return nil, nil
	}
	if b, ok := value.([]byte); ok {
		return string(b), nil
	}
	return fmt.Sprint(value), nil
}
