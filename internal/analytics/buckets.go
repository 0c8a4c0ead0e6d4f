package analytics

import (
	"sort"
	"time"
)

const dateKeyLayout = "2006-01-02"

// Engine runs the calculators against a fixed clock and calendar location.
// It holds no data and is safe for concurrent use.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the location used to derive local calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// midnight returns local midnight of the current day.
func (e *Engine) midnight() time.Time {
	n := e.now().In(e.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, e.loc)
}

// Today returns the current local date-key.
func (e *Engine) Today() string {
	return e.midnight().Format(dateKeyLayout)
}

// daysAgoKey returns the date-key n calendar days before today.
func (e *Engine) daysAgoKey(n int) string {
	return e.midnight().AddDate(0, 0, -n).Format(dateKeyLayout)
}

func (e *Engine) parseKey(key string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateKeyLayout, key, e.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseTimestamp accepts RFC 3339 timestamps, falling back to a bare date-key.
func (e *Engine) parseTimestamp(ts string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.In(e.loc), true
	}
	return e.parseKey(ts)
}

func validKey(key string) bool {
	_, err := time.Parse(dateKeyLayout, key)
	return err == nil
}

func addDays(key string, n int) string {
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(dateKeyLayout)
}

// dayDiff returns the number of calendar days from a to b.
func dayDiff(a, b string) (int, bool) {
	ta, err := time.Parse(dateKeyLayout, a)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse(dateKeyLayout, b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}

// isoWeekStart returns the Monday of the ISO week containing key.
func isoWeekStart(key string) string {
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return ""
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(dateKeyLayout)
}

// BucketDates returns the contiguous ascending date-keys covered by r. For
// RangeAll the first bucket is earliest, or a 7 day window when earliest is
// empty or invalid.
func (e *Engine) BucketDates(r TimeRange, earliest string) []string {
	today := e.midnight()
	days := r.Days()
	if days == 0 {
		days = fallbackDays
		if start, ok := e.parseKey(earliest); ok {
			days = 1
			if start.Before(today) {
				days = int(today.Sub(start).Hours()/24+0.5) + 1
			}
		}
	}
	keys := make([]string, days)
	for i := 0; i < days; i++ {
		keys[i] = today.AddDate(0, 0, i-days+1).Format(dateKeyLayout)
	}
	return keys
}

const fallbackDays = 7

// InRange reports whether key falls inside the window selected by r.
func (e *Engine) InRange(key string, r TimeRange) bool {
	days := r.Days()
	if days == 0 {
		return validKey(key)
	}
	if !validKey(key) {
		return false
	}
	return key >= e.daysAgoKey(days-1) && key <= e.Today()
}

// DateLabel formats a date-key as "Jan 5", adding the year when it differs
// from the current year.
func (e *Engine) DateLabel(key string) string {
	t, ok := e.parseKey(key)
	if !ok {
		return key
	}
	if t.Year() != e.now().In(e.loc).Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}

// earliestKey returns the smallest valid key, or "" when there is none.
func earliestKey(keys []string) string {
	earliest := ""
	for _, k := range keys {
		if !validKey(k) {
			continue
		}
		if earliest == "" || k < earliest {
			earliest = k
		}
	}
	return earliest
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
