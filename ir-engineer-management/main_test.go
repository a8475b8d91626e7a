package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"irtracker/lib/clients/irapitest"
	"irtracker/lib/models"
	"irtracker/lib/session"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, department string) (*irapitest.Fake, string) {
	t.Helper()
	logger = logrus.New()
	logger.SetOutput(io.Discard)

	fake := irapitest.New()
	fake.AddUser(models.User{Username: "omar", Department: department, Role: models.RoleEngineer}, "secret")
	fake.ProjectList["D6"] = models.Project{Name: "D6", Locations: []string{"Block A"}, Counters: models.Counters{"ST": 4, "ARCH": 1}}
	fake.Rules["D6"] = map[string]models.LocationRule{"Block A": {Type: "building", Floors: []string{"GF", "1"}}}
	fake.IRs = []models.ServerRecord{
		{IrNo: "BADYA-CON-D6-IR-ST-004", Project: "D6", Department: "Civil", User: "omar", RequestType: "IR", Desc: "Rebar"},
		{IrNo: "BADYA-CON-D6-IR-ARCH-001", Project: "D6", Department: "Architectural", User: "lina", RequestType: "IR"},
	}

	irAPI = fake
	sessions = session.NewManager(session.NewMemoryStorage(), fake, logger)
	s, err := sessions.Login(context.Background(), "omar", "secret")
	require.NoError(t, err)
	return fake, s.ID
}

func call(t *testing.T, sid, method, resource string, params map[string]string, body string) events.APIGatewayProxyResponse {
	t.Helper()
	req := events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Resource:   resource,
		Headers:    map[string]string{"Authorization": "Bearer " + sid},
		Body:       body,
	}
	if method == http.MethodGet {
		req.QueryStringParameters = params
	} else {
		req.PathParameters = params
	}
	resp, err := Handler(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func Test_NextNumber_PredictsFromCounters(t *testing.T) {
	_, sid := setup(t, "Civil")

	resp := call(t, sid, http.MethodGet, "/engineer/next-number", map[string]string{"project": "D6", "requestType": "IR"}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var next models.NextNumberResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &next))
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", next.PredictedID)
	assert.Equal(t, "D6-ST-005", next.ShortID)
}

func Test_CreateIR_ThenPredictionAdvances(t *testing.T) {
	//Arrange
	_, sid := setup(t, "Civil")
	body := `{"project":"D6","location":"Block A","floor":"GF","desc":"Column rebar","requestType":"IR","tags":{"engineer":[],"sd":[]}}`

	//Act
	created := call(t, sid, http.MethodPost, "/engineer/irs", nil, body)
	next := call(t, sid, http.MethodGet, "/engineer/next-number", map[string]string{"project": "D6"}, "")

	//Assert
	require.Equal(t, http.StatusCreated, created.StatusCode)
	var record models.Record
	require.NoError(t, json.Unmarshal([]byte(created.Body), &record))
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", record.ID)
	assert.Equal(t, "omar", record.User)

	var prediction models.NextNumberResponse
	require.NoError(t, json.Unmarshal([]byte(next.Body), &prediction))
	assert.Equal(t, "BADYA-CON-D6-IR-ST-006", prediction.PredictedID)
}

func Test_CreateIR_CPRRejectedForNonCivil(t *testing.T) {
	fake, sid := setup(t, "Architectural")
	body := `{"project":"D6","location":"Block A","desc":"Slab pour","requestType":"CPR","tags":{"engineer":[],"sd":[]}}`

	resp := call(t, sid, http.MethodPost, "/engineer/irs", nil, body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, fake.Called("CreateIR"))
}

func Test_CreateIR_FloorRequired(t *testing.T) {
	_, sid := setup(t, "Civil")
	body := `{"project":"D6","location":"Block A","desc":"Column rebar","requestType":"IR","tags":{"engineer":[],"sd":[]}}`

	resp := call(t, sid, http.MethodPost, "/engineer/irs", nil, body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_CreateRevision(t *testing.T) {
	_, sid := setup(t, "Civil")

	resp := call(t, sid, http.MethodPost, "/engineer/revisions", nil, `{"project":"D6","revText":"R1","parentRequestType":"CPR"}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var record models.Record
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &record))
	assert.True(t, record.IsRevision)
	assert.True(t, record.IsCPRRevision)
	assert.Equal(t, "REV-CPR-R1", record.DisplayNumber)
}

func Test_Records_OnlyOwn(t *testing.T) {
	_, sid := setup(t, "Civil")

	resp := call(t, sid, http.MethodGet, "/engineer/records", nil, "")

	var body models.RecordListResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, 1, body.TotalCount)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-004", body.Records[0].ID)
}

func Test_ArchiveAndSummary(t *testing.T) {
	fake, sid := setup(t, "Civil")
	params := map[string]string{"id": "BADYA-CON-D6-IR-ST-004"}

	summary, err := Handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		Resource:       "/engineer/records/{id}/summary",
		PathParameters: params,
		Headers:        map[string]string{"Authorization": "Bearer " + sid},
	})
	require.NoError(t, err)
	archived := call(t, sid, http.MethodPost, "/engineer/records/{id}/archive", params, "")

	require.Equal(t, http.StatusOK, summary.StatusCode)
	assert.Contains(t, summary.Body, "BADYA-CON-D6-IR-ST-004 - Rebar - D6")
	require.Equal(t, http.StatusOK, archived.StatusCode)
	assert.Len(t, fake.Archived, 1)
}

func Test_FormOptions(t *testing.T) {
	_, sid := setup(t, "Civil")

	resp := call(t, sid, http.MethodGet, "/engineer/form-options", map[string]string{"project": "D6", "requestType": "IR"}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var options models.FormOptions
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &options))
	assert.Equal(t, []string{"GF", "1"}, options.Rules["Block A"].Floors)
	assert.Equal(t, "BADYA-CON-D6-IR-ST-005", options.Next.PredictedID)
}
