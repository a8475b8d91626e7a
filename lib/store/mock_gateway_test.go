package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"irtracker/lib/models"
)

var errBackend = errors.New("backend unavailable")

type mockGateway struct {
	mu sync.Mutex

	irs     []models.ServerRecord
	revs    []models.ServerRecord
	archive []models.ServerRecord

	listErr      error
	listDelay    time.Duration
	failFor      map[string]bool
	unarchived   *models.ServerRecord
	renumberedTo string

	calls       []string
	archiveRole string
	archiveUser string
}

func (m *mockGateway) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockGateway) fail(id string) error {
	if m.failFor[id] {
		return errBackend
	}
	return nil
}

func (m *mockGateway) ListIRs(ctx context.Context) ([]models.ServerRecord, error) {
	m.record("ListIRs")
	time.Sleep(m.listDelay)
	return m.irs, m.listErr
}

func (m *mockGateway) ListRevisions(ctx context.Context) ([]models.ServerRecord, error) {
	m.record("ListRevisions")
	return m.revs, nil
}

func (m *mockGateway) ListArchive(ctx context.Context, role, user string) ([]models.ServerRecord, error) {
	m.record("ListArchive")
	m.mu.Lock()
	m.archiveRole, m.archiveUser = role, user
	m.mu.Unlock()
	return m.archive, nil
}

func (m *mockGateway) MarkDone(ctx context.Context, isRevision bool, req models.MarkDoneRequest) error {
	m.record("MarkDone " + req.IrNo)
	return m.fail(req.IrNo)
}

func (m *mockGateway) RejectRecord(ctx context.Context, isRevision bool, id, reason string) error {
	m.record("RejectRecord " + id)
	return m.fail(id)
}

func (m *mockGateway) Archive(ctx context.Context, req models.ArchiveRequest) error {
	m.record("Archive " + req.IrNo)
	return m.fail(req.IrNo)
}

func (m *mockGateway) Unarchive(ctx context.Context, req models.ArchiveRequest) (*models.ServerRecord, error) {
	m.record("Unarchive " + req.IrNo)
	if err := m.fail(req.IrNo); err != nil {
		return nil, err
	}
	return m.unarchived, nil
}

func (m *mockGateway) DeleteRecord(ctx context.Context, isRevision bool, req models.DeleteRecordRequest) error {
	id := req.IrNo
	if isRevision {
		id = req.RevNo
	}
	m.record("DeleteRecord " + id)
	return m.fail(id)
}

func (m *mockGateway) UpdateIRNumber(ctx context.Context, req models.UpdateIRNumberRequest) (models.UpdateIRNumberResponse, error) {
	m.record("UpdateIRNumber " + req.IrNo)
	if err := m.fail(req.IrNo); err != nil {
		return models.UpdateIRNumberResponse{}, err
	}
	return models.UpdateIRNumberResponse{Success: true, OldIrNo: req.IrNo, NewIrNo: m.renumberedTo}, nil
}
