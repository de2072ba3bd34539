package period

import "time"

// Period names a calendar-anchored interval selectable on a dashboard page.
type Period string

const (
	Today     Period = "today"
	Yesterday Period = "yesterday"
	ThisWeek  Period = "this-week"
	LastWeek  Period = "last-week"
	ThisMonth Period = "this-month"
	LastMonth Period = "last-month"
	Custom    Period = "custom"
)

// SelectorOptions is the fixed option set offered by the period selector.
var SelectorOptions = []Period{Today, Yesterday, ThisWeek, LastWeek, ThisMonth, Custom}

// IsValid reports whether p is one of the known periods.
func (p Period) IsValid() bool {
	switch p {
	case Today, Yesterday, ThisWeek, LastWeek, ThisMonth, LastMonth, Custom:
		return true
	default:
		return false
	}
}

// String returns the raw tag.
func (p Period) String() string { return string(p) }

// Range is a closed interval; both From and To are inclusive.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies within [From, To].
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Equal reports whether both bounds denote the same instants.
func (r Range) Equal(v Range) bool {
	return r.From.Equal(v.From) && r.To.Equal(v.To)
}

// CustomRange carries user-supplied bounds; a nil bound is defaulted on resolve.
type CustomRange struct {
	From *time.Time
	To   *time.Time
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// endOfDayNanos keeps the inclusive end at millisecond precision (23:59:59.999).
const endOfDayNanos = int(999 * time.Millisecond)

// Resolve computes the concrete range for p anchored at now. Calendar boundaries
// are taken in now's location, and custom bounds are moved into it. custom is
// only consulted for Custom.
func Resolve(p Period, custom *CustomRange, now time.Time) Range {
	switch p {
	case Today:
		return dayRange(now)
	case Yesterday:
		return dayRange(now.AddDate(0, 0, -1))
	case ThisWeek:
		return weekRange(now)
	case LastWeek:
		return weekRange(now.AddDate(0, 0, -7))
	case ThisMonth:
		return monthRange(now)
	case LastMonth:
		// step back from the first of the month so month-end dates never overflow
		first := startOfMonth(now)
		return monthRange(first.AddDate(0, -1, 0))
	case Custom:
		r := monthRange(now)
		if custom != nil {
			if custom.From != nil {
				r.From = custom.From.In(now.Location())
			}
			if custom.To != nil {
				r.To = custom.To.In(now.Location())
			}
		}
		return r
	default:
		return monthRange(now)
	}
}

// Previous maps a selection to the period it is compared against.
func Previous(p Period) Period {
	switch p {
	case Today:
		return Yesterday
	case ThisWeek:
		return LastWeek
	case ThisMonth:
		return LastMonth
	default:
		return LastMonth
	}
}

// Resolver binds Resolve to a clock and a calendar location.
type Resolver struct {
	clock    Clock
	location *time.Location
}

// NewResolver constructs a Resolver. A nil clock uses the system clock and a nil
// location keeps the clock's own location.
func NewResolver(clock Clock, location *time.Location) *Resolver {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Resolver{clock: clock, location: location}
}

// Now returns the current instant in the resolver's location.
func (r *Resolver) Now() time.Time {
	now := r.clock.Now()
	if r.location != nil {
		now = now.In(r.location)
	}
	return now
}

// Location returns the location calendar boundaries are computed in.
func (r *Resolver) Location() *time.Location {
	if r.location != nil {
		return r.location
	}
	return r.clock.Now().Location()
}

// Resolve resolves p against the resolver's current instant.
func (r *Resolver) Resolve(p Period, custom *CustomRange) Range {
	return Resolve(p, custom, r.Now())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, endOfDayNanos, t.Location())
}

func dayRange(t time.Time) Range {
	return Range{From: startOfDay(t), To: endOfDay(t)}
}

// weekRange returns Monday 00:00 through Sunday 23:59:59.999 of t's week.
func weekRange(t time.Time) Range {
	offset := (int(t.Weekday()) + 6) % 7
	monday := startOfDay(t).AddDate(0, 0, -offset)
	return Range{From: monday, To: endOfDay(monday.AddDate(0, 0, 6))}
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func monthRange(t time.Time) Range {
	first := startOfMonth(t)
	last := first.AddDate(0, 1, -1)
	return Range{From: first, To: endOfDay(last)}
}
