package records

import (
	"testing"

	"irtracker/lib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Normalize_IRDefaults(t *testing.T) {
	//Arrange
	raw := models.ServerRecord{
		IrNo:        "BADYA-CON-D6-IR-ST-005",
		Project:     "D6",
		Department:  "Civil",
		User:        "omar",
		RequestType: "IR",
	}

	//Act
	record, err := Normalize(raw, false)

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", record.ID)
	assert.Equal(t, "D6-ST-005", record.ShortID)
	assert.Equal(t, "D6-ST-005", record.DisplayNumber)
	assert.Equal(t, "ST", record.DeptAbbr)
	assert.Equal(t, "", record.Floor)
	assert.Equal(t, []string{}, record.Tags.Engineer)
	assert.Equal(t, []string{}, record.Tags.SD)
	assert.False(t, record.IsRevision)
	assert.False(t, record.IsCPR)
	assert.Equal(t, models.StatusPending, record.Status)
}

func Test_Normalize_CPR(t *testing.T) {
	raw := models.ServerRecord{
		IrNo:          "BADYA-CON-D6-CPR-ST-002",
		RequestType:   "cpr",
		ConcreteGrade: "C35",
		IsDone:        true,
		Tags:          &models.Tags{Engineer: []string{"dwg-12"}},
	}

	record, err := Normalize(raw, false)

	require.NoError(t, err)
	assert.True(t, record.IsCPR)
	assert.Equal(t, "CPR", record.RequestType)
	assert.Equal(t, []string{"dwg-12"}, record.Tags.Engineer)
	assert.Equal(t, []string{}, record.Tags.SD)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.Equal(t, "CPR", ItemTypeText(record))
}

func Test_Normalize_Revision(t *testing.T) {
	raw := models.ServerRecord{
		RevNo:        "REV-D6-CPRREV-001",
		IrNo:         "REV-D6-CPRREV-001",
		RevisionType: "CPR_REVISION",
		RevText:      "R3",
		RevNote:      "slab edge",
	}

	record, err := Normalize(raw, false)

	require.NoError(t, err)
	assert.True(t, record.IsRevision)
	assert.True(t, record.IsCPRRevision)
	assert.False(t, record.IsCPR)
	assert.Equal(t, "R3", record.UserRevNumber)
	assert.Equal(t, "REV-CPR-R3", record.DisplayNumber)
	assert.Equal(t, "slab edge", record.Desc)
	assert.Equal(t, "UNKNOWN", record.Department)
	assert.Equal(t, "CPR REVISION", ItemTypeText(record))
}

func Test_Normalize_ArchivedAndRejected(t *testing.T) {
	archived, err := Normalize(models.ServerRecord{IrNo: "A"}, true)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	assert.Equal(t, models.StatusArchived, archived.Status)

	rejected, err := Normalize(models.ServerRecord{IrNo: "B", Status: "rejected", IsDone: true, RejectionReason: "wrong floor"}, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "wrong floor", rejected.RejectionReason)
}

func Test_Normalize_MissingIdentifier(t *testing.T) {
	_, err := Normalize(models.ServerRecord{ID: "doc-id", Project: "D6"}, false)

	assert.ErrorIs(t, err, ErrMissingIdentifier)
}
