// Package records maps the heterogeneous IR, CPR and revision documents returned
// by the IR API onto one models.Record shape.
package records

import (
	"errors"
	"fmt"
	"strings"

	"irtracker/lib/ircodec"
	"irtracker/lib/models"
)

// ErrMissingIdentifier is returned when a document carries neither irNo nor revNo
var ErrMissingIdentifier = errors.New("record has no irNo or revNo")

// IsRevisionDocument reports whether a raw document describes a revision
func IsRevisionDocument(raw models.ServerRecord) bool {
	return raw.IsRevision || raw.RevNo != "" || raw.RevisionType != ""
}

// Normalize maps a raw document onto the unified record shape. It only fails when
// the identity of the document cannot be established.
func Normalize(raw models.ServerRecord, archived bool) (models.Record, error) {
	isRevision := IsRevisionDocument(raw)

	id := raw.IrNo
	if isRevision && raw.RevNo != "" {
		id = raw.RevNo
	}
	if id == "" {
		id = raw.RevNo
	}
	if id == "" {
		return models.Record{}, ErrMissingIdentifier
	}

	record := models.Record{
		ID:              id,
		ShortID:         ircodec.FormatShort(id),
		OldID:           raw.OldIrNo,
		Project:         raw.Project,
		Department:      raw.Department,
		DeptAbbr:        ircodec.DeptAbbr(raw.Department),
		User:            raw.User,
		Desc:            raw.Desc,
		Location:        raw.Location,
		Floor:           raw.Floor,
		RequestType:     strings.ToUpper(raw.RequestType),
		ConcreteGrade:   raw.ConcreteGrade,
		PouringElement:  raw.PouringElement,
		Tags:            models.Tags{Engineer: []string{}, SD: []string{}},
		EngineerNote:    raw.EngineerNote,
		SDNote:          raw.SDNote,
		RejectionReason: raw.RejectionReason,
		IsRevision:      isRevision,
		IsDone:          raw.IsDone,
		IsArchived:      raw.IsArchived || archived,
		SentAt:          raw.SentAt,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
		DownloadedAt:    raw.DownloadedAt,
		DownloadedBy:    raw.DownloadedBy,
		ArchivedAt:      raw.ArchivedAt,
		ArchivedBy:      raw.ArchivedBy,
	}

	if raw.Tags != nil {
		if raw.Tags.Engineer != nil {
			record.Tags.Engineer = raw.Tags.Engineer
		}
		if raw.Tags.SD != nil {
			record.Tags.SD = raw.Tags.SD
		}
	}
	if record.RequestType == "" {
		record.RequestType = models.RequestTypeIR
	}
	if record.Department == "" && isRevision {
		record.Department = "UNKNOWN"
		record.DeptAbbr = ircodec.DeptAbbr(record.Department)
	}

	if isRevision {
		record.RevisionType = raw.RevisionType
		if record.RevisionType == "" {
			record.RevisionType = models.RevisionTypeIR
		}
		record.ParentRequestType = raw.ParentRequestType
		if record.ParentRequestType == "" {
			record.ParentRequestType = models.RequestTypeIR
		}
		record.UserRevNumber = raw.UserRevNumber
		if record.UserRevNumber == "" {
			record.UserRevNumber = raw.RevText
		}
		record.RevNote = raw.RevNote
		if record.Desc == "" {
			record.Desc = raw.RevNote
		}
		record.IsCPRRevision = record.RevisionType == models.RevisionTypeCPR || raw.IsCPRRevision
		record.DisplayNumber = raw.DisplayNumber
		if record.DisplayNumber == "" {
			record.DisplayNumber = ircodec.RevisionDisplayNumber(record.RevisionType, record.UserRevNumber, raw.RevText, raw.RevNo)
		}
	} else {
		record.IsCPR = record.RequestType == models.RequestTypeCPR
		record.DisplayNumber = record.ShortID
	}

	record.Status = deriveStatus(raw.Status, record.IsDone, record.IsArchived)
	return record, nil
}

func deriveStatus(status string, isDone, isArchived bool) models.Status {
	switch {
	case isArchived:
		return models.StatusArchived
	case strings.EqualFold(status, string(models.StatusRejected)):
		return models.StatusRejected
	case isDone:
		return models.StatusCompleted
	default:
		return models.StatusPending
	}
}

// ItemTypeText labels a record as IR, CPR, IR REVISION or CPR REVISION
func ItemTypeText(r models.Record) string {
	if r.IsRevision {
		if r.IsCPRRevision {
			return "CPR REVISION"
		}
		return "IR REVISION"
	}
	if r.IsCPR {
		return "CPR"
	}
	return "IR"
}

// Describe renders a one-line label for logs and toasts
func Describe(r models.Record) string {
	return fmt.Sprintf("%s %s", ItemTypeText(r), r.DisplayNumber)
}
