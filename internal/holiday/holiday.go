// Package holiday supplies public holidays for a region and date range.
package holiday

import (
	"context"
	"time"
)

// DateLayout is the calendar date format used for holiday keys.
const DateLayout = "2006-01-02"

// Holiday is a single public holiday.
type Holiday struct {
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	LocalName string    `json:"local_name,omitempty"`
}

// Provider looks up public holidays for a country between start and end,
// both inclusive.
type Provider interface {
	Holidays(ctx context.Context, country string, start, end time.Time) ([]Holiday, error)
}

// Set is an exact-date holiday lookup keyed by DateLayout.
type Set map[string]string

// NewSet indexes holidays by calendar date. When two holidays share a
// date the first name wins.
func NewSet(holidays []Holiday) Set {
	s := make(Set, len(holidays))
	for _, h := range holidays {
		key := h.Date.Format(DateLayout)
		if _, ok := s[key]; !ok {
			s[key] = h.Name
		}
	}
	return s
}

// Lookup returns the holiday name on the given date.
func (s Set) Lookup(date time.Time) (string, bool) {
	name, ok := s[date.Format(DateLayout)]
	return name, ok
}

func inRange(d, start, end time.Time) bool {
	day := truncate(d)
	return !day.Before(truncate(start)) && !day.After(truncate(end))
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// filter keeps holidays within [start, end], preserving order.
func filter(holidays []Holiday, start, end time.Time) []Holiday {
	out := make([]Holiday, 0, len(holidays))
	for _, h := range holidays {
		if inRange(h.Date, start, end) {
			out = append(out, h)
		}
	}
	return out
}
