package store

import (
	"errors"
	"fmt"

	"irtracker/lib/models"
)

// ErrInvalidTransition is returned when an action does not apply to a record's state
var ErrInvalidTransition = errors.New("invalid transition")

// Action is a record mutation a user can request
type Action string

// Record actions
const (
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
	ActionDelete    Action = "delete"
	ActionRenumber  Action = "renumber"
)

// Transition names the states an action may start from
type Transition struct {
	Action Action
	From   []models.Status
	To     models.Status
}

// Transitions is the record state machine. Unarchive resolves its target from
// the IR API response. Delete leaves no state behind.
var Transitions = []Transition{
	{Action: ActionApprove, From: []models.Status{models.StatusPending}, To: models.StatusCompleted},
	{Action: ActionReject, From: []models.Status{models.StatusPending}, To: models.StatusRejected},
	{Action: ActionArchive, From: []models.Status{models.StatusPending, models.StatusCompleted, models.StatusRejected}, To: models.StatusArchived},
	{Action: ActionUnarchive, From: []models.Status{models.StatusArchived}},
	{Action: ActionDelete, From: []models.Status{models.StatusPending, models.StatusCompleted, models.StatusRejected, models.StatusArchived}},
	{Action: ActionRenumber, From: []models.Status{models.StatusPending, models.StatusCompleted}},
}

// ParseAction validates an action name
func ParseAction(name string) (Action, error) {
	for _, t := range Transitions {
		if string(t.Action) == name {
			return t.Action, nil
		}
	}
	return "", fmt.Errorf("unknown action %q: %w", name, ErrInvalidTransition)
}

// Allowed lists the actions applicable to a record
func Allowed(r models.Record) []Action {
	var out []Action
	for _, t := range Transitions {
		if CanApply(r, t.Action) == nil {
			out = append(out, t.Action)
		}
	}
	return out
}

// CanApply checks an action against the transition table without side effects
func CanApply(r models.Record, action Action) error {
	if action == ActionRenumber && r.IsRevision {
		return fmt.Errorf("%s: revisions cannot be renumbered: %w", r.ID, ErrInvalidTransition)
	}

	for _, t := range Transitions {
		if t.Action != action {
			continue
		}
		for _, from := range t.From {
			if r.Status == from {
				return nil
			}
		}
		return fmt.Errorf("%s: cannot %s a %s record: %w", r.ID, action, r.Status, ErrInvalidTransition)
	}
	return fmt.Errorf("unknown action %q: %w", action, ErrInvalidTransition)
}
