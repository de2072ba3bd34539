package period

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// zonedLayouts carry their own offset; localLayouts are read in the range's location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999Z0700",
		time.RFC1123Z,
		time.RFC1123,
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02",
	}
)

// ParseDate converts a record attribute into an instant. Strings without an
// offset are interpreted in loc, date-only strings included: "2024-01-10" is
// midnight in loc, not UTC midnight. Numbers are Unix milliseconds and must lie
// within ±8.64e15. The boolean is false for nil, empty, a zero time.Time, out-of-range or
// unparseable values so callers can fail closed.
func ParseDate(value any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateString(v, loc)
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			return fromUnixMilli(ms, loc)
		}
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromMillis(f, loc)
	case float64:
		return fromMillis(v, loc)
	case int64:
		return fromUnixMilli(v, loc)
	case int:
		return fromUnixMilli(int64(v), loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// maxEpochMillis bounds epoch values to the ±100,000,000 days around 1970 that
// a millisecond timestamp is defined for.
const maxEpochMillis = 8.64e15

func fromMillis(ms float64, loc *time.Location) (time.Time, bool) {
	if math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).In(loc), true
}

func fromUnixMilli(ms int64, loc *time.Location) (time.Time, bool) {
	if ms > maxEpochMillis || ms < -maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).In(loc), true
}

// Field returns an accessor reading name from a map-shaped record.
func Field[M ~map[string]any](name string) func(M) any {
	return func(record M) any {
		if record == nil {
			return nil
		}
		return record[name]
	}
}

// Filter returns, in input order, the records whose date lies within r.
// Records with a missing or unparseable date are left out. Zone-less dates are
// read in r.From's location. The input is not modified.
func Filter[T any](records []T, dateOf func(T) any, r Range) []T {
	out := make([]T, 0, len(records))
	if dateOf == nil {
		return out
	}
	loc := r.From.Location()
	for _, record := range records {
		d, ok := ParseDate(dateOf(record), loc)
		if !ok {
			continue
		}
		if r.Contains(d.Truncate(time.Millisecond)) {
			out = append(out, record)
		}
	}
	return out
}

// FilterByField is Filter over map-shaped records keyed by dateField.
func FilterByField[M ~map[string]any](records []M, dateField string, r Range) []M {
	return Filter(records, Field[M](dateField), r)
}
