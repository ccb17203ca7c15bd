package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/golang-sql/civil"
)

func parseText(_ context.Context, value string) (any, error) {
	return value, nil
}

func parseNumber(_ context.Context, value string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("could not convert string to float: '%s'", value)
	}
	return f, nil
}

func parseYear(_ context.Context, value string) (any, error) {
	y, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid literal for int() with base 10: '%s'", value)
	}
	if y <= 1 {
		return nil, errors.New("Years must be > 1")
	}
	return y, nil
}

func parseBoolean(_ context.Context, value string) (any, error) {
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, errors.New("Expected 'true' or 'false'")
}

// durationPattern is "[D [days, ]][-][[H:]M:]S[.ffffff]".
var durationPattern = regexp.MustCompile(`^(?:(-?\d+) (?:days?, )?)?(-?)((?:\d+:){0,2}\d+)(?:[.,](\d{1,6})\d{0,6})?$`)

var errDuration = errors.New("Duration value should be 'DD HH:MM:SS'")

// parseDuration reads "DD HH:MM:SS". A bare "HH:MM" is read as hours and
// minutes, not minutes and seconds.
func parseDuration(_ context.Context, value string) (any, error) {
	if strings.Count(value, ":") == 1 {
		value += ":0"
	}
	m := durationPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, errDuration
	}

	var d time.Duration
	parts := strings.Split(m[3], ":")
	units := []time.Duration{time.Second, time.Minute, time.Hour}
	for i := range parts {
		n, err := strconv.ParseInt(parts[len(parts)-1-i], 10, 64)
		if err != nil {
			return nil, errDuration
		}
		if d, err = addScaled(d, n, units[i]); err != nil {
			return nil, err
		}
	}
	if m[4] != "" {
		micros, _ := strconv.ParseInt((m[4] + "00000")[:6], 10, 64)
		var err error
		if d, err = addScaled(d, micros, time.Microsecond); err != nil {
			return nil, err
		}
	}
	if m[2] == "-" {
		d = -d
	}
	if m[1] != "" {
		days, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, errDuration
		}
		if d, err = addScaled(d, days, 24*time.Hour); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// addScaled returns d + n*unit, or errDuration when that leaves the
// range of time.Duration.
func addScaled(d time.Duration, n int64, unit time.Duration) (time.Duration, error) {
	limit := math.MaxInt64 / int64(unit)
	if n > limit || n < -limit {
		return 0, errDuration
	}
	step := time.Duration(n) * unit
	sum := d + step
	if (step > 0 && sum < d) || (step < 0 && sum > d) {
		return 0, errDuration
	}
	return sum, nil
}

func isKeyword(value, keyword string) bool {
	return strings.ToLower(strings.TrimSpace(value)) == keyword
}

func (r *Registry) parseDateTime(_ context.Context, value string) (any, error) {
	if isKeyword(value, "now") {
		return r.now().In(r.loc), nil
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(value), r.loc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Registry) parseDate(_ context.Context, value string) (any, error) {
	if isKeyword(value, "today") {
		return civil.DateOf(r.now().In(r.loc)), nil
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(value), r.loc)
	if err != nil {
		return nil, err
	}
	return civil.DateOf(t), nil
}

func prefix3(s string) string {
	rs := []rune(strings.ToLower(s))
	if len(rs) > 3 {
		rs = rs[:3]
	}
	return string(rs)
}

// parseNamed matches the first three letters against names and returns
// the 1-based position.
func parseNamed(names []string, failure string) parseFunc {
	return func(_ context.Context, value string) (any, error) {
		want := prefix3(value)
		for i, n := range names {
			if prefix3(n) == want {
				return i + 1, nil
			}
		}
		return nil, errors.New(failure)
	}
}

var errNotPrimitive = errors.New("Not a JSON primitive")

// parseJSONField reads "field|literal" where literal is a JSON primitive.
func parseJSONField(_ context.Context, value string) (any, error) {
	value = strings.TrimSpace(value)
	field, literal, ok := strings.Cut(value, "|")
	if !ok {
		return nil, errors.New("Missing seperator '|'")
	}
	if field == "" {
		return nil, errors.New("Invalid field name")
	}
	if strings.HasPrefix(literal, "{") || strings.HasPrefix(literal, "[") {
		return nil, errNotPrimitive
	}
	var v any
	if err := json.Unmarshal([]byte(literal), &v); err != nil {
		return nil, errNotPrimitive
	}
	return []any{field, v}, nil
}

func (r *Registry) parseRegex(ctx context.Context, value string) (any, error) {
	if err := r.memo.Validate(ctx, value, r.checkRegex); err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Registry) checkRegex(ctx context.Context, pattern string) error {
	if r.checker != nil {
		return r.checker.CheckRegex(ctx, pattern)
	}
	_, err := regexp.Compile(pattern)
	return err
}
