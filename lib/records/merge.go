package records

import (
	"errors"
	"fmt"

	"irtracker/lib/models"
)

// Source is one collection fetched from the IR API
type Source struct {
	Name     string
	Records  []models.ServerRecord
	Archived bool
}

// Merge normalizes and deduplicates several sources by identifier. When an
// identifier appears both active and archived the archived variant wins, since
// archival is terminal. Records keep the position of their first appearance.
// Documents that cannot be normalized are skipped and reported in the returned error.
func Merge(sources ...Source) ([]models.Record, error) {
	merged := make([]models.Record, 0)
	index := make(map[string]int)
	var errs []error

	for _, source := range sources {
		for i, raw := range source.Records {
			record, err := Normalize(raw, source.Archived)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", source.Name, i, err))
				continue
			}

			pos, seen := index[record.ID]
			if !seen {
				index[record.ID] = len(merged)
				merged = append(merged, record)
				continue
			}
			if record.IsArchived && !merged[pos].IsArchived {
				merged[pos] = record
			}
		}
	}

	return merged, errors.Join(errs...)
}
