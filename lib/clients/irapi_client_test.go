package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"irtracker/lib/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *IRAPIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewIRAPIClient(server.URL+"/", ttl, quietLogger())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func Test_ListIRs_MissingCollectionIsEmpty(t *testing.T) {
	//Arrange
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/irs", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	}, 0)

	//Act
	irs, err := client.ListIRs(context.Background())

	//Assert
	require.NoError(t, err)
	assert.NotNil(t, irs)
	assert.Empty(t, irs)
}

func Test_ListArchive_RoutesByRole(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		writeJSON(w, http.StatusOK, map[string]interface{}{"archive": []map[string]interface{}{{"irNo": "A"}}})
	}, 0)

	dc, err := client.ListArchive(context.Background(), models.RoleDC, "")
	require.NoError(t, err)
	_, err = client.ListArchive(context.Background(), models.RoleEngineer, "omar")
	require.NoError(t, err)

	assert.Equal(t, "A", dc[0].IrNo)
	assert.Equal(t, []string{"/archive/dc", "/archive/engineer?user=omar"}, paths)
}

func Test_Send_JSONErrorField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "IR X not found"})
	}, 0)

	err := client.MarkDone(context.Background(), false, models.MarkDoneRequest{IrNo: "X"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "IR X not found", apiErr.Message)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func Test_Send_TextError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<h1>Bad Gateway</h1>"))
	}, 0)

	_, err := client.ListRevisions(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "<h1>Bad Gateway</h1>", apiErr.Message)
}

func Test_Send_NetworkFailure(t *testing.T) {
	client := NewIRAPIClient("http://127.0.0.1:1", 0, quietLogger())

	_, err := client.ListIRs(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func Test_RejectRecord_SendsPut(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/revs/REV-D6-IRREV-001", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}, 0)

	err := client.RejectRecord(context.Background(), true, "REV-D6-IRREV-001", "missing drawings")

	require.NoError(t, err)
	assert.Equal(t, "rejected", body["status"])
	assert.Equal(t, "missing drawings", body["rejectionReason"])
	assert.Equal(t, true, body["isDone"])
}

func Test_Unarchive_ReturnsItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.ArchiveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "A", req.IrNo)
		assert.Equal(t, "dc", req.Role)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "item": map[string]interface{}{"irNo": "A", "isDone": true, "status": "completed"}})
	}, 0)

	item, err := client.Unarchive(context.Background(), models.ArchiveRequest{IrNo: "A", Role: "dc"})

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.IsDone)
}

func Test_DeleteRecord_RoutesRevisions(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}, 0)

	require.NoError(t, client.DeleteRecord(context.Background(), true, models.DeleteRecordRequest{RevNo: "REV-1"}))
	assert.Equal(t, "/revs/delete", path)
}

func Test_GenerateWord(t *testing.T) {
	var mode atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch mode.Load() {
		case 0:
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
			_, _ = w.Write([]byte("PK\x03\x04docx"))
		case 1:
			writeJSON(w, http.StatusOK, map[string]string{"error": "template missing"})
		default:
			w.Header().Set("Content-Type", "application/octet-stream")
		}
	}, 0)

	doc, err := client.GenerateWord(context.Background(), models.GenerateWordRequest{IrNo: "A"})
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04docx"), doc)

	mode.Store(1)
	_, err = client.GenerateWord(context.Background(), models.GenerateWordRequest{IrNo: "A"})
	assert.ErrorContains(t, err, "template missing")

	mode.Store(2)
	_, err = client.GenerateWord(context.Background(), models.GenerateWordRequest{IrNo: "A"})
	assert.ErrorContains(t, err, "empty document")
}

func Test_Projects_CachedUntilWrite(t *testing.T) {
	//Arrange
	var gets atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			writeJSON(w, http.StatusOK, map[string]interface{}{"projects": map[string]interface{}{
				"D6": map[string]interface{}{"description": "Tower", "counters": map[string]int{"ST": 4}},
			}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}, time.Minute)

	//Act
	first, err := client.Projects(context.Background())
	require.NoError(t, err)
	_, err = client.Projects(context.Background())
	require.NoError(t, err)
	require.NoError(t, client.SaveProject(context.Background(), models.Project{Name: "D6"}))
	_, err = client.Projects(context.Background())
	require.NoError(t, err)

	//Assert
	assert.Equal(t, int32(2), gets.Load())
	assert.Equal(t, "D6", first["D6"].Name)
	assert.Equal(t, 4, first["D6"].Counters["ST"])
}

func Test_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": map[string]string{"username": req.Username, "role": "dc"}})
	}, 0)

	user, err := client.Login(context.Background(), "mona", "secret")
	require.NoError(t, err)
	assert.Equal(t, "dc", user.Role)

	_, err = client.Login(context.Background(), "mona", "wrong")
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func Test_DescriptionOptions_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Civil", r.URL.Query().Get("dept"))
		assert.Equal(t, "CPR", r.URL.Query().Get("requestType"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"base": []string{"Slab pour"}, "grades": []string{"C35"}})
	}, 0)

	options, err := client.DescriptionOptions(context.Background(), "", "Civil", "CPR")

	require.NoError(t, err)
	assert.Equal(t, []string{"Slab pour"}, options.Base)
	assert.Equal(t, []string{}, options.Floors)
	assert.Equal(t, []string{"C35"}, options.Grades)
}
