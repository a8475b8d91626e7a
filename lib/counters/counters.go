// Package counters predicts the next IR/CPR identifier of a project from a
// snapshot of its per-department counters. The IR API allocates the real serial;
// a prediction can be overtaken by a concurrent submission.
package counters

import (
	"fmt"
	"sort"
	"strings"

	"irtracker/lib/ircodec"
	"irtracker/lib/models"
)

// Keys lists the counters every project carries
var Keys = []string{"ARCH", "ST", "ELECT", "MECH", "SURV", "CPR"}

// aliases maps counter keys that address the same counter
var aliases = map[string]string{
	"MEP":  "MECH",
	"MECH": "MEP",
}

// Key returns the counter a submission draws its serial from
func Key(department, requestType string) string {
	if strings.EqualFold(requestType, models.RequestTypeCPR) {
		return "CPR"
	}
	return ircodec.CounterDept(department)
}

// Current returns the stored value of a counter, honoring MEP/MECH aliasing.
// Missing counters read as zero.
func Current(c models.Counters, key string) int {
	if value, ok := c[key]; ok {
		return value
	}
	if alias, ok := aliases[key]; ok {
		return c[alias]
	}
	return 0
}

// NextSerial returns the serial the next allocation on key would receive
func NextSerial(c models.Counters, key string) int {
	return Current(c, key) + 1
}

// PredictID renders the identifier the next submission is expected to receive.
// CPRs keep the department segment (always ST).
func PredictID(project, department, requestType string, c models.Counters) string {
	return ircodec.Format(project, ircodec.CounterDept(department), requestType, NextSerial(c, Key(department, requestType)))
}

// Predict builds the full next-number answer for a submission form
func Predict(project, department, requestType string, c models.Counters) models.NextNumberResponse {
	if requestType == "" {
		requestType = models.RequestTypeIR
	}
	requestType = strings.ToUpper(requestType)
	predicted := PredictID(project, department, requestType, c)

	return models.NextNumberResponse{
		Project:     project,
		Department:  department,
		RequestType: requestType,
		CounterKey:  Key(department, requestType),
		NextSerial:  NextSerial(c, Key(department, requestType)),
		PredictedID: predicted,
		ShortID:     ircodec.FormatShort(predicted),
	}
}

// Validate checks that every counter is non-negative. Admins may otherwise set any value.
func Validate(c models.Counters) error {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if c[key] < 0 {
			return fmt.Errorf("counter %s must be non-negative, got %d", key, c[key])
		}
	}
	return nil
}

// Set returns a copy of c with one counter changed
func Set(c models.Counters, key string, value int) (models.Counters, error) {
	if value < 0 {
		return nil, fmt.Errorf("counter %s must be non-negative, got %d", key, value)
	}

	updated := make(models.Counters, len(c)+1)
	for k, v := range c {
		updated[k] = v
	}
	if alias, ok := aliases[key]; ok {
		if _, exists := updated[alias]; exists {
			key = alias
		}
	}
	updated[key] = value
	return updated, nil
}

// Reset returns a counter set with every known key at zero
func Reset(c models.Counters) models.Counters {
	reset := make(models.Counters, len(Keys))
	for _, key := range Keys {
		reset[key] = 0
	}
	for key := range c {
		reset[key] = 0
	}
	return reset
}

// Observe raises the counter a confirmed identifier was drawn from, mirroring the
// IR API's own bookkeeping so the next prediction stays in step
func Observe(c models.Counters, id string) models.Counters {
	parsed, ok := ircodec.Parse(id)
	if !ok {
		return c
	}

	key := parsed.Dept
	if parsed.Kind == ircodec.KindCPR {
		key = "CPR"
	}
	if parsed.Serial <= Current(c, key) {
		return c
	}

	updated, _ := Set(c, key, parsed.Serial)
	return updated
}
