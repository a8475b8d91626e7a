// Package documents issues the Word document of an IR or CPR. Issuing applies a
// pending custom number first, so the document and the record agree, and marks
// the record done afterwards.
package documents

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"irtracker/lib/ircodec"
	"irtracker/lib/models"
	"irtracker/lib/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContentType of generated documents
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DefaultExpiry is how long a published download link stays valid
const DefaultExpiry = 15 * time.Minute

// ErrNoDocument is returned for revisions, which have no Word document
var ErrNoDocument = errors.New("revision items have no Word document")

// WordGenerator renders the Word document of a record
type WordGenerator interface {
	GenerateWord(ctx context.Context, req models.GenerateWordRequest) ([]byte, error)
}

// FileStore keeps issued documents for download
type FileStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Document is an issued Word file
type Document struct {
	ID       string
	OldID    string
	FileName string
	Content  []byte
	Approved bool
	// Warning is set when the document was produced but the record could not be marked done
	Warning string
}

// Issuer generates documents for the records held by a store
type Issuer struct {
	Store     *store.Store
	Generator WordGenerator
	Logger    *logrus.Logger
	Now       func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// Issue produces the document of id. customNumber overrides the store's edit
// buffer; when it names another serial than id the record is renumbered before
// the document is generated. Another spelling of the same serial keeps id.
func (i *Issuer) Issue(ctx context.Context, id, customNumber string) (Document, error) {
	record, err := i.Store.Get(id)
	if err != nil {
		return Document{}, err
	}
	if record.IsRevision {
		return Document{}, ErrNoDocument
	}

	final := strings.TrimSpace(customNumber)
	if final == "" {
		final, _ = i.Store.CustomNumber(id)
		final = strings.TrimSpace(final)
	}
	if final == "" || final == id {
		final = id
	} else {
		if final, err = i.Store.Renumber(ctx, id, final); err != nil {
			return Document{}, err
		}
	}

	content, err := i.Generator.GenerateWord(ctx, models.GenerateWordRequest{
		IrNo:           final,
		OldIrNo:        id,
		Desc:           record.Desc,
		ReceivedDate:   i.now().Format("02 Jan 2006"),
		Project:        record.Project,
		Department:     record.Department,
		DownloadedBy:   i.Store.Actor,
		RequestType:    record.RequestType,
		Floor:          record.Floor,
		ConcreteGrade:  record.ConcreteGrade,
		PouringElement: record.PouringElement,
	})
	if err != nil {
		return Document{}, fmt.Errorf("failed to generate document for %s: %w", final, err)
	}

	doc := Document{ID: final, OldID: id, FileName: ircodec.DocumentFilename(final), Content: content}
	if record.Status != models.StatusPending {
		return doc, nil
	}

	if err := i.Store.Approve(ctx, final); err != nil {
		i.Logger.WithFields(logrus.Fields{
			"operation": "Issue",
			"id":        final,
			"error":     err.Error(),
		}).Warn("Document generated but record not marked done")
		doc.Warning = fmt.Sprintf("document generated but failed to mark as done: %v", err)
		return doc, nil
	}
	doc.Approved = true
	return doc, nil
}

// ObjectKey is where a document is stored; the random segment keeps links unguessable
func ObjectKey(project, fileName string) string {
	return path.Join("documents", ircodec.CleanProject(project), uuid.New().String(), fileName)
}

// Publish uploads a document and returns a presigned download link
func Publish(ctx context.Context, files FileStore, key, contentType string, body []byte, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if err := files.PutObject(ctx, key, contentType, body); err != nil {
		return "", err
	}
	url, err := files.GenerateDownloadURL(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return url, nil
}
