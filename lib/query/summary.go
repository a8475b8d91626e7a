package query

import (
	"sort"
	"strings"

	"irtracker/lib/models"
)

// Stats are the dashboard counters shown above a listing
type Stats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Revisions    int `json:"revisions"`
	CPR          int `json:"cpr"`
	CPRRevisions int `json:"cpr_revisions"`
	Completed    int `json:"completed"`
	Rejected     int `json:"rejected"`
	Archived     int `json:"archived"`
}

// Summarize counts records by kind and state. Archived records only count as archived.
func Summarize(list []models.Record) Stats {
	var stats Stats
	for _, r := range list {
		stats.Total++
		if r.IsArchived {
			stats.Archived++
			continue
		}

		switch {
		case r.IsRevision && r.IsCPRRevision:
			stats.CPRRevisions++
		case r.IsRevision:
			stats.Revisions++
		case r.IsCPR:
			stats.CPR++
		}

		switch r.Status {
		case models.StatusPending:
			if !r.IsRevision {
				stats.Pending++
			}
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}

// Group is the records of one project and department abbreviation
type Group struct {
	Project    string          `json:"project"`
	Department string          `json:"department"`
	Records    []models.Record `json:"records"`
}

// GroupByProjectDept buckets records by project, then department abbreviation.
// Groups are ordered by name; records keep their input order.
func GroupByProjectDept(list []models.Record) []Group {
	index := make(map[[2]string]int)
	var groups []Group

	for _, r := range list {
		key := [2]string{r.Project, r.DeptAbbr}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Project: r.Project, Department: r.DeptAbbr})
		}
		groups[pos].Records = append(groups[pos].Records, r)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Project != groups[b].Project {
			return groups[a].Project < groups[b].Project
		}
		return groups[a].Department < groups[b].Department
	})
	return groups
}

// Projects lists the distinct non-empty projects, sorted
func Projects(list []models.Record) []string {
	return distinct(list, func(r models.Record) string { return r.Project })
}

// Departments lists the distinct non-empty department abbreviations, sorted
func Departments(list []models.Record) []string {
	return distinct(list, func(r models.Record) string { return r.DeptAbbr })
}

func distinct(list []models.Record, field func(models.Record) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range list {
		value := field(r)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

// Listing is a filter plus sort request decoded from query parameters
type Listing struct {
	Criteria  Criteria
	SortKey   string
	Direction string
}

// ListingFromQuery reads project, department, type, status, date_range, search,
// sort and direction. Missing values mean no constraint and newest first.
func ListingFromQuery(params map[string]string) Listing {
	get := func(key string) string { return strings.TrimSpace(params[key]) }

	listing := Listing{
		Criteria: Criteria{
			Project:    get("project"),
			Department: get("department"),
			Type:       get("type"),
			Status:     get("status"),
			DateRange:  get("date_range"),
			Search:     get("search"),
		},
		SortKey:   get("sort"),
		Direction: get("direction"),
	}
	if listing.SortKey == "" {
		listing.SortKey = SortDate
	}
	if listing.Direction == "" {
		listing.Direction = Descending
	}
	return listing
}

// Apply filters then sorts
func (l Listing) Apply(list []models.Record) []models.Record {
	return Sort(Filter(list, l.Criteria), l.SortKey, l.Direction)
}
