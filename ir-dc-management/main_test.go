package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"irtracker/lib/clients/irapitest"
	"irtracker/lib/models"
	"irtracker/lib/session"
	"irtracker/lib/store"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFiles struct {
	objects map[string][]byte
}

func (m *memoryFiles) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	m.objects[key] = body
	return nil
}

func (m *memoryFiles) GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

// setup wires the handler globals to an in-memory IR API and logs in a DC
func setup(t *testing.T) (*irapitest.Fake, *memoryFiles, string) {
	t.Helper()
	logger = logrus.New()
	logger.SetOutput(io.Discard)

	fake := irapitest.New()
	fake.AddUser(models.User{Username: "mona", Department: "Document Control", Role: models.RoleDC}, "secret")
	fake.AddUser(models.User{Username: "omar", Department: "Civil", Role: models.RoleEngineer}, "secret")
	fake.ProjectList["D6"] = models.Project{Name: "D6", Counters: models.Counters{"ST": 6}}
	fake.IRs = []models.ServerRecord{
		{IrNo: "BADYA-CON-D6-IR-ST-005", Project: "D6", Department: "Civil", User: "omar", RequestType: "IR", Desc: "Rebar", SentAt: "2026-10-01T08:00:00Z"},
		{IrNo: "BADYA-CON-D6-IR-ST-006", Project: "D6", Department: "Civil", User: "omar", RequestType: "IR", Desc: "Shuttering", SentAt: "2026-10-02T08:00:00Z"},
	}
	fake.Archived = []models.ServerRecord{
		{IrNo: "BADYA-CON-D6-IR-ARCH-001", Project: "D6", Department: "Architectural", User: "lina", RequestType: "IR", IsDone: true, IsArchived: true},
	}

	files := &memoryFiles{objects: map[string][]byte{}}
	irAPI = fake
	documentStore = files
	sessions = session.NewManager(session.NewMemoryStorage(), fake, logger)

	s, err := sessions.Login(context.Background(), "mona", "secret")
	require.NoError(t, err)
	return fake, files, s.ID
}

func request(sessionID, method, resource string, pathParams map[string]string, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod:     method,
		Resource:       resource,
		PathParameters: pathParams,
		Headers:        map[string]string{"Authorization": "Bearer " + sessionID},
		Body:           body,
	}
}

func Test_Handler_RequiresSession(t *testing.T) {
	setup(t)

	resp, err := Handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Resource: "/dc/records"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", resp.Headers["Location"])
}

func Test_Handler_EngineerIsRedirectedHome(t *testing.T) {
	setup(t)
	s, err := sessions.Login(context.Background(), "omar", "secret")
	require.NoError(t, err)

	resp, _ := Handler(context.Background(), request(s.ID, http.MethodGet, "/dc/records", nil, ""))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/engineer", resp.Headers["Location"])
}

func Test_ListRecords_FiltersAndSorts(t *testing.T) {
	//Arrange
	_, _, sid := setup(t)
	req := request(sid, http.MethodGet, "/dc/records", nil, "")
	req.QueryStringParameters = map[string]string{"status": "pending", "sort": "date", "direction": "asc"}

	//Act
	resp, err := Handler(context.Background(), req)

	//Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body models.RecordListResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, 2, body.TotalCount)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", body.Records[0].ID)
	assert.Equal(t, "D6-ST-005", body.Records[0].ShortID)
}

func Test_ListArchive(t *testing.T) {
	_, _, sid := setup(t)

	resp, _ := Handler(context.Background(), request(sid, http.MethodGet, "/dc/archive", nil, ""))

	var body models.RecordListResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, 1, body.TotalCount)
	assert.Equal(t, models.StatusArchived, body.Records[0].Status)
}

func Test_Stats(t *testing.T) {
	_, _, sid := setup(t)

	resp, _ := Handler(context.Background(), request(sid, http.MethodGet, "/dc/stats", nil, ""))

	var body statsResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, 3, body.Stats.Total)
	assert.Equal(t, 2, body.Stats.Pending)
	assert.Equal(t, 1, body.Stats.Archived)
	assert.Equal(t, []string{"D6"}, body.Projects)
}

func Test_RejectRequiresReason(t *testing.T) {
	fake, _, sid := setup(t)
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-005", "action": "reject"}

	resp, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/{action}", params, `{"reason":""}`))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, fake.Called("RejectRecord"))
}

func Test_ApproveThenApproveAgainConflicts(t *testing.T) {
	fake, _, sid := setup(t)
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-005", "action": "approve"}

	first, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/{action}", params, ""))
	second, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/{action}", params, ""))

	assert.Equal(t, http.StatusOK, first.StatusCode)
	var record models.Record
	require.NoError(t, json.Unmarshal([]byte(first.Body), &record))
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.Equal(t, "mona", record.DownloadedBy)

	assert.Equal(t, http.StatusConflict, second.StatusCode)
	assert.True(t, fake.IRs[0].IsDone)
}

func Test_Renumber(t *testing.T) {
	fake, _, sid := setup(t)
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-006", "action": "renumber"}

	resp, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/{action}", params, `{"new_id":"D6-ST-020"}`))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body renumberResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "BADYA-CON-D6-IR-ST-020", body.NewID)
	assert.Equal(t, 20, fake.ProjectList["D6"].Counters["ST"])
}

func Test_Delete_UnknownRecord(t *testing.T) {
	_, _, sid := setup(t)

	resp, _ := Handler(context.Background(), request(sid, http.MethodDelete, "/dc/records/{id}", map[string]string{"id": "nope"}, ""))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_Bulk_ReportsPerItem(t *testing.T) {
	//Arrange
	_, _, sid := setup(t)
	body := `{"action":"approve","ids":["BADYA-CON-D6-IR-ST-005","missing","BADYA-CON-D6-IR-ST-006"]}`

	//Act
	resp, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/bulk", nil, body))

	//Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result models.BulkActionResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &result))
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Results[1].Success)
}

func Test_Document_StoresAndLinks(t *testing.T) {
	fake, files, sid := setup(t)
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-005"}

	resp, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/document", params, `{"custom_number":"7"}`))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body models.DocumentResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "BADYA-CON-D6-IR-ST-007", body.ID)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-007.docx", body.FileName)
	assert.Len(t, files.objects, 1)
	require.Len(t, fake.IRs, 2)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-007", fake.IRs[1].IrNo)
	assert.True(t, fake.IRs[1].IsDone)
}

func Test_Document_SameSerialKeepsRecord(t *testing.T) {
	fake, _, sid := setup(t)
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-005"}

	resp, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/document", params, `{"custom_number":"D6-ST-005"}`))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, fake.Called("UpdateIRNumber"))
	require.Len(t, fake.IRs, 2)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", fake.IRs[0].IrNo)
	assert.True(t, fake.IRs[0].IsDone)
}

func Test_Renumber_ForeignNumberIsBadRequest(t *testing.T) {
	fake, _, sid := setup(t)
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-006", "action": "renumber"}

	resp, _ := Handler(context.Background(), request(sid, http.MethodPost, "/dc/records/{id}/{action}", params, `{"new_id":"BADYA-CON-X-IR-ARCH-007"}`))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, fake.Called("UpdateIRNumber"))
}

func Test_Export_TSVInline(t *testing.T) {
	_, _, sid := setup(t)
	req := request(sid, http.MethodGet, "/dc/records/export", nil, "")
	req.QueryStringParameters = map[string]string{"format": "tsv", "status": "pending"}

	resp, _ := Handler(context.Background(), req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, "BADYA-CON-D6-IR-ST-005")
	assert.NotContains(t, resp.Body, "ARCH-001")
}

func Test_Export_XLSXIsLinked(t *testing.T) {
	_, files, sid := setup(t)
	req := request(sid, http.MethodGet, "/dc/records/export", nil, "")
	req.QueryStringParameters = map[string]string{"format": "xlsx"}

	resp, _ := Handler(context.Background(), req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, files.objects, 1)
}

func Test_GetRecord_ListsAllowedActions(t *testing.T) {
	_, _, sid := setup(t)

	resp, err := Handler(context.Background(), request(sid, http.MethodGet, "/dc/records/{id}", map[string]string{"id": "BADYA-CON-D6-IR-ARCH-001"}, ""))

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body recordResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, models.StatusArchived, body.Record.Status)
	assert.Equal(t, []store.Action{store.ActionUnarchive, store.ActionDelete}, body.Actions)
}

func Test_Export_XLSXInline(t *testing.T) {
	_, files, sid := setup(t)
	req := request(sid, http.MethodGet, "/dc/records/export", nil, "")
	req.QueryStringParameters = map[string]string{"format": "xlsx", "inline": "true"}

	resp, _ := Handler(context.Background(), req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Contains(t, resp.Headers["Content-Disposition"], ".xlsx")
	assert.Empty(t, files.objects)
}
