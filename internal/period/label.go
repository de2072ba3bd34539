package period

import "time"

// Label returns the human name of p. Unknown periods read "All Time" even though
// Resolve falls back to the current month for them.
func Label(p Period) string {
	switch p {
	case Today:
		return "Today"
	case Yesterday:
		return "Yesterday"
	case ThisWeek:
		return "This Week"
	case LastWeek:
		return "Last Week"
	case ThisMonth:
		return "This Month"
	case LastMonth:
		return "Last Month"
	case Custom:
		return "Custom Range"
	default:
		return "All Time"
	}
}

// FormatRange renders r for display, e.g. "Monday, January 15, 2024" for a
// single day or "Jan 15 - Feb 3, 2024" otherwise. To is shown in From's location.
func FormatRange(r Range) string {
	from := r.From
	to := r.To.In(from.Location())
	if sameDay(from, to) {
		return from.Format("Monday, January 2, 2006")
	}
	return from.Format("Jan 2") + " - " + to.Format("Jan 2, 2006")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
