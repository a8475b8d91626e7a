package query

import (
	"sort"
	"strings"
	"time"

	"irtracker/lib/models"
	"irtracker/lib/records"
)

// Sort keys
const (
	SortDate    = "date"
	SortIRNo    = "irNo"
	SortProject = "project"
	SortUser    = "user"
)

// Sort directions
const (
	Ascending  = "asc"
	Descending = "desc"
)

// Sort returns a stably sorted copy. Unknown keys sort by date; anything other
// than "asc" sorts descending. Unparsable dates are the lowest value.
func Sort(list []models.Record, key, direction string) []models.Record {
	out := make([]models.Record, len(list))
	copy(out, list)

	desc := !strings.EqualFold(direction, Ascending)

	var less func(a, b int) bool
	switch key {
	case SortIRNo:
		less = byString(out, func(r models.Record) string { return r.ID })
	case SortProject:
		less = byString(out, func(r models.Record) string { return r.Project })
	case SortUser:
		less = byString(out, func(r models.Record) string { return r.User })
	default:
		dates := make([]time.Time, len(out))
		for i, r := range out {
			dates[i], _ = records.ReferenceTime(r)
		}
		// dates swap alongside their records; the zero time is the lowest value
		sortable := &dated{records: out, dates: dates, desc: desc}
		sort.Stable(sortable)
		return out
	}

	if desc {
		asc := less
		less = func(a, b int) bool { return asc(b, a) }
	}
	sort.SliceStable(out, less)
	return out
}

func byString(list []models.Record, field func(models.Record) string) func(a, b int) bool {
	return func(a, b int) bool { return field(list[a]) < field(list[b]) }
}

type dated struct {
	records []models.Record
	dates   []time.Time
	desc    bool
}

func (d *dated) Len() int { return len(d.records) }

func (d *dated) Less(i, j int) bool {
	if d.desc {
		return d.dates[j].Before(d.dates[i])
	}
	return d.dates[i].Before(d.dates[j])
}

func (d *dated) Swap(i, j int) {
	d.records[i], d.records[j] = d.records[j], d.records[i]
	d.dates[i], d.dates[j] = d.dates[j], d.dates[i]
}
