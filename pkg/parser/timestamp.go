package parser

import (
	"fmt"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// generalLayouts are tried after the exact date-only form, in order.
// All layouts without an explicit zone are interpreted as UTC.
var generalLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// parseTimestamp parses a vendor timestamp as UTC. The exact
// yyyy-MM-dd form is tried first, then the general layouts.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if ts, err := time.ParseInLocation(dateOnlyLayout, s, time.UTC); err == nil {
		return ts, nil
	}
	for _, layout := range generalLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
