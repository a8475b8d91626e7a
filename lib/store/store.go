// Package store owns the normalized record list of one user and reconciles it
// with the IR API. Local state only changes after the IR API accepted a mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"irtracker/lib/models"
	"irtracker/lib/records"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned for identifiers the store does not hold
var ErrNotFound = errors.New("record not found")

// ErrReloadInProgress is returned by TryReload when another reload is running
var ErrReloadInProgress = errors.New("reload already in progress")

// Gateway is the subset of the IR API the store reconciles against
type Gateway interface {
	ListIRs(ctx context.Context) ([]models.ServerRecord, error)
	ListRevisions(ctx context.Context) ([]models.ServerRecord, error)
	ListArchive(ctx context.Context, role, user string) ([]models.ServerRecord, error)
	MarkDone(ctx context.Context, isRevision bool, req models.MarkDoneRequest) error
	RejectRecord(ctx context.Context, isRevision bool, id, reason string) error
	Archive(ctx context.Context, req models.ArchiveRequest) error
	Unarchive(ctx context.Context, req models.ArchiveRequest) (*models.ServerRecord, error)
	DeleteRecord(ctx context.Context, isRevision bool, req models.DeleteRecordRequest) error
	UpdateIRNumber(ctx context.Context, req models.UpdateIRNumberRequest) (models.UpdateIRNumberResponse, error)
}

// Store is the reconciling view of the records visible to one actor
type Store struct {
	Gateway Gateway
	Role    string
	Actor   string
	Logger  *logrus.Logger
	Now     func() time.Time

	mu            sync.RWMutex
	records       []models.Record
	customNumbers map[string]string
	loadedAt      time.Time

	reloadMu  sync.Mutex
	reloading bool
}

// New creates an empty store for actor acting as role
func New(gateway Gateway, role, actor string, logger *logrus.Logger) *Store {
	return &Store{
		Gateway:       gateway,
		Role:          role,
		Actor:         actor,
		Logger:        logger,
		Now:           time.Now,
		customNumbers: make(map[string]string),
	}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) logger() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *Store) ownsAll() bool {
	return s.Role == models.RoleDC || s.Role == models.RoleAdmin
}

// Reload fetches active IRs, active revisions and the role's archive concurrently,
// merges them and replaces the local state. Custom numbers are reseeded.
func (s *Store) Reload(ctx context.Context) error {
	var (
		wg                 sync.WaitGroup
		irs, revs, archive []models.ServerRecord
		irsErr, revsErr    error
		archiveErr         error
	)

	archiveUser := ""
	if !s.ownsAll() {
		archiveUser = s.Actor
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		irs, irsErr = s.Gateway.ListIRs(ctx)
	}()
	go func() {
		defer wg.Done()
		revs, revsErr = s.Gateway.ListRevisions(ctx)
	}()
	go func() {
		defer wg.Done()
		archive, archiveErr = s.Gateway.ListArchive(ctx, s.Role, archiveUser)
	}()
	wg.Wait()

	if err := errors.Join(irsErr, revsErr, archiveErr); err != nil {
		s.logger().WithFields(logrus.Fields{
			"operation": "Reload",
			"role":      s.Role,
			"error":     err.Error(),
		}).Error("Failed to fetch records")
		return fmt.Errorf("failed to fetch records: %w", err)
	}

	merged, err := records.Merge(
		records.Source{Name: "irs", Records: irs},
		records.Source{Name: "revs", Records: revs},
		records.Source{Name: "archive", Records: archive, Archived: true},
	)
	if err != nil {
		s.logger().WithFields(logrus.Fields{
			"operation": "Reload",
			"error":     err.Error(),
		}).Warn("Skipped malformed records")
	}

	if !s.ownsAll() {
		merged = ownedBy(merged, s.Actor)
	}

	custom := make(map[string]string)
	for _, r := range merged {
		if !r.IsRevision {
			custom[r.ID] = r.ID
		}
	}

	s.mu.Lock()
	s.records = merged
	s.customNumbers = custom
	s.loadedAt = s.now()
	s.mu.Unlock()

	s.logger().WithFields(logrus.Fields{
		"operation": "Reload",
		"role":      s.Role,
		"count":     len(merged),
	}).Debug("Records reloaded")
	return nil
}

// TryReload reloads unless a reload is already running
func (s *Store) TryReload(ctx context.Context) error {
	s.reloadMu.Lock()
	if s.reloading {
		s.reloadMu.Unlock()
		return ErrReloadInProgress
	}
	s.reloading = true
	s.reloadMu.Unlock()

	defer func() {
		s.reloadMu.Lock()
		s.reloading = false
		s.reloadMu.Unlock()
	}()
	return s.Reload(ctx)
}

func ownedBy(list []models.Record, user string) []models.Record {
	out := make([]models.Record, 0, len(list))
	for _, r := range list {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

// Records returns a copy of the current records
func (s *Store) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// LoadedAt is the time of the last successful reload
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Get returns a copy of one record
func (s *Store) Get(id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos := s.indexOf(id)
	if pos < 0 {
		return models.Record{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return s.records[pos], nil
}

// indexOf must be called with mu held
func (s *Store) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// CustomNumber returns the pending custom-number edit for an IR
func (s *Store) CustomNumber(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.customNumbers[id]
	return value, ok
}

// CustomNumbers returns a copy of the custom-number edit buffer
func (s *Store) CustomNumbers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.customNumbers))
	for k, v := range s.customNumbers {
		out[k] = v
	}
	return out
}

// SetCustomNumber edits the custom number of a non-revision record
func (s *Store) SetCustomNumber(id, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.indexOf(id)
	if pos < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if s.records[pos].IsRevision {
		return fmt.Errorf("%s: revisions have no custom number: %w", id, ErrInvalidTransition)
	}
	s.customNumbers[id] = value
	return nil
}
