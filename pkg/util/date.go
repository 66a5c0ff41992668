package util

import (
	"strconv"
	"strings"
	"time"
)

// fallbackLayouts are tried, in order, when a provider's configured date
// layout fails. Providers mix ISO dates, US-style dates, and timestamps.
var fallbackLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"20060102",
}

// ParseObservationDate parses a provider date cell. The configured layout is
// tried first, then the common fallbacks, then unix seconds.
func ParseObservationDate(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, l := range fallbackLayouts {
		if l == layout {
			continue
		}
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 1e9 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseObservationValue parses a provider value cell. Empty cells and
// provider NA markers report ok=false; they must stay NA downstream.
func ParseObservationValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", ".", "NA", "N/A", "NAN", "NULL", "-":
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
