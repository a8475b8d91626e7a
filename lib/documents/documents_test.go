package documents

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"irtracker/lib/clients/irapitest"
	"irtracker/lib/models"
	"irtracker/lib/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setup(t *testing.T) (*irapitest.Fake, *Issuer) {
	t.Helper()
	fake := irapitest.New()
	fake.ProjectList["D6"] = models.Project{Name: "D6", Counters: models.Counters{"ST": 6}}
	fake.IRs = []models.ServerRecord{
		{IrNo: "BADYA-CON-D6-IR-ST-005", Project: "D6", Department: "Civil", User: "omar", RequestType: "IR", Desc: "Rebar"},
		{IrNo: "BADYA-CON-D6-IR-ST-006", Project: "D6", Department: "Civil", User: "omar", RequestType: "IR", IsDone: true},
	}
	fake.Revisions = []models.ServerRecord{
		{RevNo: "REV-D6-IRREV-001", Project: "D6", User: "omar", IsRevision: true, RevisionType: "IR_REVISION"},
	}

	s := store.New(fake, models.RoleDC, "mona", quietLogger())
	require.NoError(t, s.Reload(context.Background()))

	issuer := &Issuer{
		Store:     s,
		Generator: fake,
		Logger:    quietLogger(),
		Now:       func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) },
	}
	return fake, issuer
}

func Test_Issue_ApprovesPendingRecord(t *testing.T) {
	//Arrange
	fake, issuer := setup(t)

	//Act
	doc, err := issuer.Issue(context.Background(), "BADYA-CON-D6-IR-ST-005", "")

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005.docx", doc.FileName)
	assert.True(t, doc.Approved)
	assert.NotEmpty(t, doc.Content)
	assert.False(t, fake.Called("UpdateIRNumber"))

	record, err := issuer.Store.Get("BADYA-CON-D6-IR-ST-005")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.Equal(t, "mona", record.DownloadedBy)
}

func Test_Issue_RenumbersBeforeGenerating(t *testing.T) {
	fake, issuer := setup(t)
	require.NoError(t, issuer.Store.SetCustomNumber("BADYA-CON-D6-IR-ST-005", "D6-ST-012"))

	doc, err := issuer.Issue(context.Background(), "BADYA-CON-D6-IR-ST-005", "")

	require.NoError(t, err)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-012", doc.ID)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", doc.OldID)
	assert.Equal(t, []string{"ListIRs", "ListRevisions", "ListArchive", "UpdateIRNumber", "GenerateWord", "MarkDone"}, sortedTail(fake.Calls))
	assert.Equal(t, 12, fake.ProjectList["D6"].Counters["ST"])

	_, err = issuer.Store.Get("BADYA-CON-D6-IR-ST-005")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_Issue_ShortFormOfOwnNumberKeepsRecord(t *testing.T) {
	//Arrange
	fake, issuer := setup(t)

	//Act
	doc, err := issuer.Issue(context.Background(), "BADYA-CON-D6-IR-ST-005", "D6-ST-005")

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", doc.ID)
	assert.False(t, fake.Called("UpdateIRNumber"))
	assert.True(t, doc.Approved)

	require.NoError(t, issuer.Store.Reload(context.Background()))
	record, err := issuer.Store.Get("BADYA-CON-D6-IR-ST-005")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, record.Status)
}

// sortedTail puts the concurrent reload calls in a fixed order
func sortedTail(calls []string) []string {
	head := map[string]bool{}
	for _, c := range calls[:3] {
		head[c] = true
	}
	out := []string{}
	for _, name := range []string{"ListIRs", "ListRevisions", "ListArchive"} {
		if head[name] {
			out = append(out, name)
		}
	}
	return append(out, calls[3:]...)
}

func Test_Issue_CompletedRecordIsNotApprovedAgain(t *testing.T) {
	fake, issuer := setup(t)

	doc, err := issuer.Issue(context.Background(), "BADYA-CON-D6-IR-ST-006", "")

	require.NoError(t, err)
	assert.False(t, doc.Approved)
	assert.False(t, fake.Called("MarkDone"))
}

func Test_Issue_RevisionHasNoDocument(t *testing.T) {
	_, issuer := setup(t)

	_, err := issuer.Issue(context.Background(), "REV-D6-IRREV-001", "")

	assert.ErrorIs(t, err, ErrNoDocument)
}

func Test_Issue_MarkDoneFailureIsAWarning(t *testing.T) {
	fake, issuer := setup(t)
	fake.Errors["MarkDone"] = errors.New("firestore down")

	doc, err := issuer.Issue(context.Background(), "BADYA-CON-D6-IR-ST-005", "")

	require.NoError(t, err)
	assert.False(t, doc.Approved)
	assert.Contains(t, doc.Warning, "firestore down")
}

func Test_Issue_GenerationFailureLeavesRecordPending(t *testing.T) {
	fake, issuer := setup(t)
	fake.Errors["GenerateWord"] = errors.New("template missing")

	_, err := issuer.Issue(context.Background(), "BADYA-CON-D6-IR-ST-005", "")

	require.Error(t, err)
	record, _ := issuer.Store.Get("BADYA-CON-D6-IR-ST-005")
	assert.Equal(t, models.StatusPending, record.Status)
}

type memoryFiles struct {
	objects map[string][]byte
}

func (m *memoryFiles) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	m.objects[key] = body
	return nil
}

func (m *memoryFiles) GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://files.example.com/" + key + "?expires=" + expiry.String(), nil
}

func Test_Publish_UploadsAndPresigns(t *testing.T) {
	files := &memoryFiles{objects: map[string][]byte{}}
	key := ObjectKey("new city", "X.docx")

	url, err := Publish(context.Background(), files, key, ContentType, []byte("doc"), 0)

	require.NoError(t, err)
	assert.Contains(t, key, "documents/NEW-CITY/")
	assert.Equal(t, []byte("doc"), files.objects[key])
	assert.Contains(t, url, "expires=15m0s")
}
