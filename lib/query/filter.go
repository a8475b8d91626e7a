// Package query filters, sorts, groups and summarizes normalized records for the
// DC and engineer listings.
package query

import (
	"strings"
	"time"

	"irtracker/lib/ircodec"
	"irtracker/lib/models"
	"irtracker/lib/records"

	"golang.org/x/text/cases"
)

// All disables a criterion
const All = "all"

// Record types accepted by Criteria.Type
const (
	TypeIR       = "IR"
	TypeCPR      = "CPR"
	TypeRevision = "REV"
)

// Date ranges accepted by Criteria.DateRange
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
)

// Criteria is a set of independent predicates. Empty or "all" fields do not constrain.
type Criteria struct {
	Project    string
	Department string
	Type       string
	Status     string
	DateRange  string
	Search     string
	// Now anchors date ranges. Zero means the wall clock.
	Now time.Time
}

type predicate func(models.Record) bool

// Filter keeps the records matching every criterion, preserving input order
func Filter(list []models.Record, criteria Criteria) []models.Record {
	predicates := criteria.predicates()
	out := make([]models.Record, 0, len(list))

	for _, record := range list {
		if matchesAll(record, predicates) {
			out = append(out, record)
		}
	}
	return out
}

func matchesAll(record models.Record, predicates []predicate) bool {
	for _, p := range predicates {
		if !p(record) {
			return false
		}
	}
	return true
}

func unconstrained(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, All)
}

func (c Criteria) predicates() []predicate {
	var out []predicate

	if !unconstrained(c.Project) {
		project := strings.TrimSpace(c.Project)
		out = append(out, func(r models.Record) bool { return r.Project == project })
	}

	if !unconstrained(c.Department) {
		want := ircodec.DeptAbbr(strings.TrimSpace(c.Department))
		out = append(out, func(r models.Record) bool { return r.DeptAbbr == want })
	}

	if !unconstrained(c.Type) {
		kind := strings.ToUpper(strings.TrimSpace(c.Type))
		out = append(out, func(r models.Record) bool { return matchesType(r, kind) })
	}

	if !unconstrained(c.Status) {
		status := models.Status(strings.ToLower(strings.TrimSpace(c.Status)))
		out = append(out, func(r models.Record) bool { return matchesStatus(r, status) })
	}

	if !unconstrained(c.DateRange) {
		now := c.Now
		if now.IsZero() {
			now = time.Now()
		}
		dateRange := strings.ToLower(strings.TrimSpace(c.DateRange))
		out = append(out, func(r models.Record) bool { return inRange(r, dateRange, now) })
	}

	if term := strings.TrimSpace(c.Search); term != "" {
		caser := cases.Fold()
		folded := caser.String(term)
		out = append(out, func(r models.Record) bool { return matchesSearch(r, folded, caser) })
	}

	return out
}

func matchesType(r models.Record, kind string) bool {
	switch kind {
	case TypeRevision:
		return r.IsRevision
	case TypeCPR:
		return r.IsCPR && !r.IsRevision
	case TypeIR:
		return !r.IsCPR && !r.IsRevision
	default:
		return false
	}
}

func matchesStatus(r models.Record, status models.Status) bool {
	switch status {
	case models.StatusArchived:
		return r.IsArchived
	case models.StatusPending:
		return !r.IsArchived && r.Status == models.StatusPending
	case models.StatusCompleted:
		return !r.IsArchived && r.Status == models.StatusCompleted
	case models.StatusRejected:
		return !r.IsArchived && r.Status == models.StatusRejected
	default:
		return false
	}
}

// inRange excludes records whose reference date cannot be parsed
func inRange(r models.Record, dateRange string, now time.Time) bool {
	ts, ok := records.ReferenceTime(r)
	if !ok {
		return false
	}

	switch dateRange {
	case RangeToday:
		y1, m1, d1 := ts.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case RangeWeek:
		return !ts.Before(now.AddDate(0, 0, -7))
	case RangeMonth:
		return !ts.Before(now.AddDate(0, -1, 0))
	default:
		return false
	}
}

func matchesSearch(r models.Record, folded string, caser cases.Caser) bool {
	fields := []string{
		r.ID,
		r.ShortID,
		r.DisplayNumber,
		r.Desc,
		r.Project,
		r.User,
		r.Floor,
		r.ConcreteGrade,
		r.DownloadedBy,
		r.Location,
	}
	for _, field := range fields {
		if field != "" && strings.Contains(caser.String(field), folded) {
			return true
		}
	}
	return false
}
