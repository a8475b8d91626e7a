package records

import (
	"strings"
	"time"

	"irtracker/lib/models"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-Jan-06 03:04 PM",
	"02-Jan-2006 03:04 PM",
	"02 Jan 2006",
	"2006-01-02",
}

// ParseTime parses the timestamp formats the IR API has emitted over time
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReferenceTime is the timestamp a record is dated by: sentAt, then createdAt, then updatedAt
func ReferenceTime(r models.Record) (time.Time, bool) {
	for _, candidate := range []string{r.SentAt, r.CreatedAt, r.UpdatedAt} {
		if candidate == "" {
			continue
		}
		return ParseTime(candidate)
	}
	return time.Time{}, false
}
