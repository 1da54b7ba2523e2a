package dates

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// ISOLayout is the calendar-date layout used on the wire and in reports.
const ISOLayout = "2006-01-02"

var (
	zonedLayouts = []string{time.RFC3339Nano}
	// Single-digit months, days and hours are accepted, as "2024/1/5 9:30".
	localLayouts = []string{
		"2006-1-2T15:04:05.999999999",
		"2006-1-2 15:04:05.999999999",
		"2006-1-2T15:04",
		"2006-1-2 15:04",
	}
	midnightLayout = "2006-1-2T15:04:05"
)

// Normalizer turns DateLike values into calendar dates in the farm's time zone.
// It never fails: input it cannot read becomes today, with a warning.
type Normalizer struct {
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewNormalizer builds a Normalizer for the given location (UTC when nil).
func NewNormalizer(loc *time.Location, logger *zap.Logger) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{loc: loc, now: time.Now, logger: logger}
}

// WithClock returns a copy that reads "now" from the provided function.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	clone := *n
	clone.now = now
	return &clone
}

// Location returns the farm time zone.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Now returns the current instant in the farm time zone.
func (n *Normalizer) Now() time.Time { return n.now().In(n.loc) }

// Today returns midnight of the current calendar date.
func (n *Normalizer) Today() time.Time { return Midnight(n.Now()) }

// Calendar years outside this range cannot round-trip through ISODate.
const (
	minYear = 1
	maxYear = 9999
)

// Normalize returns midnight of the calendar date the input denotes.
func (n *Normalizer) Normalize(d DateLike) time.Time {
	if t, ok := n.resolve(d); ok {
		if local := t.In(n.loc); local.Year() >= minYear && local.Year() <= maxYear {
			return Midnight(local)
		}
	}
	n.logger.Warn("unreadable date, falling back to today",
		zap.String("kind", d.Kind().String()),
		zap.String("value", d.String()))
	return n.Today()
}

// ISODate formats the normalized calendar date as YYYY-MM-DD.
func (n *Normalizer) ISODate(d DateLike) string {
	return n.Normalize(d).Format(ISOLayout)
}

// DaysBetween returns the signed number of calendar days from a to b.
func (n *Normalizer) DaysBetween(a, b DateLike) int {
	return DaysBetween(n.Normalize(a), n.Normalize(b))
}

func (n *Normalizer) resolve(d DateLike) (time.Time, bool) {
	switch d.kind {
	case KindNative:
		if d.native.IsZero() {
			return time.Time{}, false
		}
		return d.native, true
	case KindEpoch:
		return time.Unix(d.seconds, d.nanos), true
	case KindISO:
		return n.parseString(d.value)
	default:
		return time.Time{}, false
	}
}

// parseString tries the value as given, then with a midnight time appended,
// then again with '/' separators rewritten to '-'.
func (n *Normalizer) parseString(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if t, ok := n.parseDirect(value); ok {
		return t, true
	}
	if t, err := time.ParseInLocation(midnightLayout, value+"T00:00:00", n.loc); err == nil {
		return t, true
	}

	normalized := strings.ReplaceAll(value, "/", "-")
	if normalized == value {
		return time.Time{}, false
	}
	if t, ok := n.parseDirect(normalized); ok {
		return t, true
	}
	if t, err := time.ParseInLocation(midnightLayout, normalized+"T00:00:00", n.loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (n *Normalizer) parseDirect(value string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, n.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Midnight truncates t to the start of its calendar day in t's own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the signed number of calendar days from a to b, reading
// b in a's location. Time of day never matters.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// AddDays shifts a calendar date by n days, keeping midnight across DST changes.
func AddDays(t time.Time, n int) time.Time {
	return Midnight(t).AddDate(0, 0, n)
}

// StartOfWeek returns midnight of the most recent weekStart day at or before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return AddDays(t, -offset)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfYear returns midnight of January 1 of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// ParseWeekday reads "sunday"/"monday" (any case); anything else is Sunday.
func ParseWeekday(value string) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "monday", "mon":
		return time.Monday
	default:
		return time.Sunday
	}
}
