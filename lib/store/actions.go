package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"irtracker/lib/ircodec"
	"irtracker/lib/models"
	"irtracker/lib/records"

	"github.com/sirupsen/logrus"
)

// ErrReasonRequired is returned when rejecting without a reason
var ErrReasonRequired = errors.New("rejection reason is required")

// Result is the outcome of one item of a bulk action
type Result struct {
	ID      string
	Success bool
	Err     error
}

// prepare looks up a record and checks the transition under the read lock
func (s *Store) prepare(id string, action Action) (models.Record, error) {
	record, err := s.Get(id)
	if err != nil {
		return models.Record{}, err
	}
	if err := CanApply(record, action); err != nil {
		return models.Record{}, err
	}
	return record, nil
}

// apply mutates a record in place if it is still held
func (s *Store) apply(id string, mutate func(r *models.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos := s.indexOf(id); pos >= 0 {
		mutate(&s.records[pos])
	}
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Store) logFailure(operation, id string, err error) {
	s.logger().WithFields(logrus.Fields{
		"operation": operation,
		"id":        id,
		"error":     err.Error(),
	}).Error("IR API rejected mutation")
}

// Approve marks a pending record done and records the actor as downloader
func (s *Store) Approve(ctx context.Context, id string) error {
	record, err := s.prepare(id, ActionApprove)
	if err != nil {
		return err
	}

	req := models.MarkDoneRequest{IrNo: record.ID, Role: s.Role, DownloadedBy: s.Actor}
	if err := s.Gateway.MarkDone(ctx, record.IsRevision, req); err != nil {
		s.logFailure("Approve", id, err)
		return fmt.Errorf("failed to approve %s: %w", id, err)
	}

	ts := s.stamp()
	s.apply(id, func(r *models.Record) {
		r.IsDone = true
		r.Status = models.StatusCompleted
		r.DownloadedBy = s.Actor
		r.DownloadedAt = ts
		r.UpdatedAt = ts
	})
	return nil
}

// Reject closes a pending record with a reason
func (s *Store) Reject(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	record, err := s.prepare(id, ActionReject)
	if err != nil {
		return err
	}

	if err := s.Gateway.RejectRecord(ctx, record.IsRevision, record.ID, reason); err != nil {
		s.logFailure("Reject", id, err)
		return fmt.Errorf("failed to reject %s: %w", id, err)
	}

	ts := s.stamp()
	s.apply(id, func(r *models.Record) {
		r.IsDone = true
		r.Status = models.StatusRejected
		r.RejectionReason = reason
		r.UpdatedAt = ts
	})
	return nil
}

// Archive moves a record into the role's archive
func (s *Store) Archive(ctx context.Context, id string) error {
	record, err := s.prepare(id, ActionArchive)
	if err != nil {
		return err
	}

	req := models.ArchiveRequest{IrNo: record.ID, Role: s.Role, IsRevision: record.IsRevision}
	if err := s.Gateway.Archive(ctx, req); err != nil {
		s.logFailure("Archive", id, err)
		return fmt.Errorf("failed to archive %s: %w", id, err)
	}

	ts := s.stamp()
	s.apply(id, func(r *models.Record) {
		r.IsArchived = true
		r.Status = models.StatusArchived
		r.ArchivedAt = ts
		r.ArchivedBy = s.Role
		r.UpdatedAt = ts
	})
	return nil
}

// Unarchive restores an archived record. The restored document returned by the
// IR API is trusted; without it the record goes back to completed when it was
// done and to pending otherwise.
func (s *Store) Unarchive(ctx context.Context, id string) error {
	record, err := s.prepare(id, ActionUnarchive)
	if err != nil {
		return err
	}

	req := models.ArchiveRequest{IrNo: record.ID, Role: s.Role, IsRevision: record.IsRevision}
	item, err := s.Gateway.Unarchive(ctx, req)
	if err != nil {
		s.logFailure("Unarchive", id, err)
		return fmt.Errorf("failed to unarchive %s: %w", id, err)
	}

	var restored *models.Record
	if item != nil {
		if normalized, err := records.Normalize(*item, false); err == nil && normalized.ID == record.ID {
			restored = &normalized
		}
	}

	ts := s.stamp()
	s.apply(id, func(r *models.Record) {
		if restored != nil {
			*r = *restored
			return
		}
		r.IsArchived = false
		r.ArchivedAt = ""
		r.ArchivedBy = ""
		r.UpdatedAt = ts
		r.Status = models.StatusPending
		if r.IsDone {
			r.Status = models.StatusCompleted
		}
	})
	return nil
}

// Delete removes a record permanently
func (s *Store) Delete(ctx context.Context, id string) error {
	record, err := s.prepare(id, ActionDelete)
	if err != nil {
		return err
	}

	req := models.DeleteRecordRequest{Role: s.Role}
	if record.IsRevision {
		req.RevNo = record.ID
	} else {
		req.IrNo = record.ID
	}
	if err := s.Gateway.DeleteRecord(ctx, record.IsRevision, req); err != nil {
		s.logFailure("Delete", id, err)
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pos := s.indexOf(id); pos >= 0 {
		s.records = append(s.records[:pos], s.records[pos+1:]...)
	}
	delete(s.customNumbers, id)
	return nil
}

// Renumber gives an IR a new serial. newID may be a full identifier, a short id
// or a bare serial; the identifier confirmed by the IR API is returned.
func (s *Store) Renumber(ctx context.Context, id, newID string) (string, error) {
	record, err := s.prepare(id, ActionRenumber)
	if err != nil {
		return "", err
	}

	serial, err := ircodec.ParseSerial(newID)
	if err != nil {
		return "", err
	}
	target := ircodec.Format(record.Project, ircodec.CounterDept(record.Department), record.RequestType, serial)
	if err := ircodec.CheckNumber(newID, target); err != nil {
		return "", err
	}
	// the IR API writes the new document then deletes the old one, so the same
	// number would delete the record
	if target == id {
		s.mu.Lock()
		s.customNumbers[id] = id
		s.mu.Unlock()
		return id, nil
	}

	req := models.UpdateIRNumberRequest{
		IrNo:        record.ID,
		NewSerial:   serial,
		Project:     record.Project,
		Department:  record.Department,
		RequestType: record.RequestType,
		Role:        s.Role,
	}
	resp, err := s.Gateway.UpdateIRNumber(ctx, req)
	if err != nil {
		s.logFailure("Renumber", id, err)
		return "", fmt.Errorf("failed to renumber %s: %w", id, err)
	}

	confirmed := resp.NewIrNo
	if confirmed == "" {
		confirmed = target
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if confirmed != id {
		if pos := s.indexOf(confirmed); pos >= 0 {
			s.records = append(s.records[:pos], s.records[pos+1:]...)
		}
	}
	if pos := s.indexOf(id); pos >= 0 {
		r := &s.records[pos]
		r.ID = confirmed
		r.ShortID = ircodec.FormatShort(confirmed)
		r.DisplayNumber = r.ShortID
	}
	delete(s.customNumbers, id)
	s.customNumbers[confirmed] = confirmed

	s.logger().WithFields(logrus.Fields{
		"operation": "Renumber",
		"old_id":    id,
		"new_id":    confirmed,
	}).Info("Record renumbered")
	return confirmed, nil
}

// Apply runs one action by name. reason is only used by reject.
func (s *Store) Apply(ctx context.Context, action Action, id, reason string) error {
	switch action {
	case ActionApprove:
		return s.Approve(ctx, id)
	case ActionReject:
		return s.Reject(ctx, id, reason)
	case ActionArchive:
		return s.Archive(ctx, id)
	case ActionUnarchive:
		return s.Unarchive(ctx, id)
	case ActionDelete:
		return s.Delete(ctx, id)
	default:
		return fmt.Errorf("action %q cannot be applied without arguments: %w", action, ErrInvalidTransition)
	}
}

// BulkAction applies one action to each id in order. It is best effort: a failure
// is recorded and the next item is attempted. Cancelling ctx fails the remaining items.
func (s *Store) BulkAction(ctx context.Context, action Action, ids []string, reason string) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Err: err})
			continue
		}
		err := s.Apply(ctx, action, id, reason)
		results = append(results, Result{ID: id, Success: err == nil, Err: err})
	}

	s.logger().WithFields(logrus.Fields{
		"operation": "BulkAction",
		"action":    action,
		"count":     len(ids),
		"failed":    countFailed(results),
	}).Info("Bulk action finished")
	return results
}

func countFailed(results []Result) int {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	return failed
}

// ToResponse converts bulk results to their wire shape
func ToResponse(action Action, results []Result) models.BulkActionResponse {
	resp := models.BulkActionResponse{Action: string(action), Results: make([]models.BulkActionResult, 0, len(results))}
	for _, r := range results {
		item := models.BulkActionResult{ID: r.ID, Success: r.Success}
		if r.Err != nil {
			item.Error = r.Err.Error()
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
