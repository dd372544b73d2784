package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/agentstation/eventmap/pkg/events"
)

// dateLayouts are tried in order. US month/day precedes day/month, so an
// ambiguous 03/04/2023 reads as March 4.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"2-1-2006",
	"2006/1/2",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
	"2006-1",
	"2006/1",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Mon 02 Jan 2006 15:04:05 MST",
	"Mon 02 Jan 2006 15:04:05 -0700",
	"Mon 2 Jan 2006 15:04:05 MST",
	"Mon 2 Jan 2006 15:04:05 -0700",
}

var (
	leadingYear = regexp.MustCompile(`^(\d{4})\b`)
	sept        = regexp.MustCompile(`(?i)\bsept\b`)

	// quarters start on their first month: Q3 2021 is 2021-07-01
	quarterFirst = regexp.MustCompile(`(?i)^q([1-4]) (\d{4})$`)
	quarterLast  = regexp.MustCompile(`(?i)^(\d{4}) q([1-4])$`)
)

const (
	minYear = 1800
	maxYear = 2199
)

// ParseDate converts a free-form date to YYYY-MM-DD. When nothing matches
// it returns events.UnknownDate and false.
func ParseDate(s string) (string, bool) {
	s = strings.ReplaceAll(s, "·", " ")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return events.UnknownDate, false
	}
	s = sept.ReplaceAllString(s, "Sep")

	if d, ok := quarter(s); ok {
		return d, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil && inRange(t.Year()) {
			return t.Format(events.DateLayout), true
		}
	}

	if i := strings.IndexByte(s, 'T'); i > 0 {
		if t, err := time.Parse(events.DateLayout, s[:i]); err == nil && inRange(t.Year()) {
			return t.Format(events.DateLayout), true
		}
	}

	if m := leadingYear.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006", m[1]); err == nil && inRange(t.Year()) {
			return t.Format(events.DateLayout), true
		}
	}

	return events.UnknownDate, false
}

func quarter(s string) (string, bool) {
	var year, q string
	if m := quarterFirst.FindStringSubmatch(s); m != nil {
		q, year = m[1], m[2]
	} else if m := quarterLast.FindStringSubmatch(s); m != nil {
		year, q = m[1], m[2]
	} else {
		return "", false
	}
	y, err := time.Parse("2006", year)
	if err != nil || !inRange(y.Year()) {
		return "", false
	}
	month := time.Month(3*(int(q[0]-'0')-1) + 1)
	return time.Date(y.Year(), month, 1, 0, 0, 0, 0, time.UTC).Format(events.DateLayout), true
}

// FromUnix formats a Unix timestamp in seconds or milliseconds.
func FromUnix(v float64) string {
	sec := int64(v)
	if v >= 1e12 {
		sec = int64(v / 1000)
	}
	return time.Unix(sec, 0).UTC().Format(events.DateLayout)
}

func inRange(year int) bool {
	return year >= minYear && year <= maxYear
}
