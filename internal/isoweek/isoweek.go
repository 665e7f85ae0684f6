// Package isoweek provides ISO 8601 week calendar conversions used for all
// time bucketing in the analytics core.
package isoweek

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// SentinelLabel is returned for dates that cannot be resolved to an ISO week.
const SentinelLabel = "0000-W00"

// Week returns the ISO 8601 year and week number for t (Monday start, week 1
// contains the first Thursday of the year). A zero time yields the (0, 0)
// sentinel instead of an error.
func Week(t time.Time) (int, int) {
	if t.IsZero() {
		log.Warn().Msg("ISO week requested for zero date, returning sentinel")
		return 0, 0
	}
	return t.ISOWeek()
}

// Format renders an ISO (year, week) pair as "YYYY-Www". The (0, 0) sentinel
// formats to SentinelLabel.
func Format(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Label is shorthand for Format(Week(t)).
func Label(t time.Time) string {
	return Format(Week(t))
}

// Parse splits a "YYYY-Www" label back into its (year, week) pair.
// The sentinel label and malformed input yield ok=false.
func Parse(label string) (year, week int, ok bool) {
	if label == SentinelLabel {
		return 0, 0, false
	}
	var y, w int
	if _, err := fmt.Sscanf(label, "%d-W%d", &y, &w); err != nil {
		return 0, 0, false
	}
	if y <= 0 || w < 1 || w > 53 {
		return 0, 0, false
	}
	return y, w, true
}

// StartDate returns the Monday of the given ISO week.
// January 4th is always inside week 1, which anchors the calculation.
func StartDate(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday -> 7
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// EndDate returns the Sunday of the given ISO week.
func EndDate(year, week int) time.Time {
	return StartDate(year, week).AddDate(0, 0, 6)
}

// Range produces the ordered, deduplicated list of week labels spanning two
// calendar dates. When includePartialCurrent is false the label matching
// today's ISO week is dropped even if it falls inside the range, so that
// incomplete weeks do not dilute aggregates.
func Range(from, to time.Time, includePartialCurrent bool) []string {
	return rangeAt(from, to, includePartialCurrent, time.Now())
}

// rangeAt is the clock-injected worker behind Range.
func rangeAt(from, to time.Time, includePartialCurrent bool, now time.Time) []string {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil
	}

	currentLabel := Label(now)

	var labels []string
	seen := make(map[string]bool)

	// Walk Monday to Monday so every week in the span appears exactly once.
	cursor := StartDate(Week(from))
	last := StartDate(Week(to))
	for !cursor.After(last) {
		label := Label(cursor)
		if !seen[label] {
			if includePartialCurrent || label != currentLabel {
				labels = append(labels, label)
				seen[label] = true
			}
		}
		cursor = cursor.AddDate(0, 0, 7)
	}

	return labels
}
