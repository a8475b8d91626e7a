package main

import (
	"context"
	"encoding/json"
	"errors"
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

func setup(t *testing.T) (*irapitest.Fake, string) {
	t.Helper()
	logger = logrus.New()
	logger.SetOutput(io.Discard)

	fake := irapitest.New()
	fake.AddUser(models.User{Username: "root", Department: "IT", Role: models.RoleAdmin}, "secret")
	fake.AddUser(models.User{Username: "omar", Department: "Civil", Role: models.RoleEngineer}, "secret")
	fake.ProjectList["D6"] = models.Project{Name: "D6", Locations: []string{"Block A"}, Counters: models.Counters{"ST": 4, "MECH": 2}}
	fake.IRs = []models.ServerRecord{{IrNo: "BADYA-CON-D6-IR-ST-004", Project: "D6", Department: "Civil", User: "omar", RequestType: "IR"}}

	irAPI = fake
	sessions = session.NewManager(session.NewMemoryStorage(), fake, logger)
	s, err := sessions.Login(context.Background(), "root", "secret")
	require.NoError(t, err)
	return fake, s.ID
}

func call(t *testing.T, sid, method, resource string, pathParams map[string]string, body string) events.APIGatewayProxyResponse {
	t.Helper()
	resp, err := Handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     method,
		Resource:       resource,
		PathParameters: pathParams,
		Headers:        map[string]string{"Authorization": "Bearer " + sid},
		Body:           body,
	})
	require.NoError(t, err)
	return resp
}

func Test_OnlyAdminsAllowed(t *testing.T) {
	setup(t)
	s, err := sessions.Login(context.Background(), "omar", "secret")
	require.NoError(t, err)

	resp := call(t, s.ID, http.MethodGet, "/admin/users", nil, "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/engineer", resp.Headers["Location"])
}

func Test_Users_UpsertAndDelete(t *testing.T) {
	//Arrange
	fake, sid := setup(t)

	//Act
	saved := call(t, sid, http.MethodPost, "/admin/users", nil, `{"username":"mona","fullname":"Mona","department":"DC","role":"dc","password":"pass1"}`)
	invalid := call(t, sid, http.MethodPost, "/admin/users", nil, `{"username":"x","fullname":"X","department":"DC","role":"owner"}`)
	self := call(t, sid, http.MethodDelete, "/admin/users/{username}", map[string]string{"username": "root"}, "")
	deleted := call(t, sid, http.MethodDelete, "/admin/users/{username}", map[string]string{"username": "omar"}, "")

	//Assert
	assert.Equal(t, http.StatusOK, saved.StatusCode)
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)
	assert.Equal(t, http.StatusBadRequest, self.StatusCode)
	assert.Equal(t, http.StatusNoContent, deleted.StatusCode)
	assert.Len(t, fake.UserList, 2)
	assert.Equal(t, "pass1", fake.Passwords["mona"])
}

func Test_SetCounter_HonorsMEPAlias(t *testing.T) {
	fake, sid := setup(t)

	resp := call(t, sid, http.MethodPut, "/admin/projects/{name}/counters", map[string]string{"name": "D6"}, `{"key":"MEP","value":9}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 9, fake.ProjectList["D6"].Counters["MECH"])
	_, hasMEP := fake.ProjectList["D6"].Counters["MEP"]
	assert.False(t, hasMEP)
}

func Test_SetCounter_RejectsNegative(t *testing.T) {
	_, sid := setup(t)

	resp := call(t, sid, http.MethodPut, "/admin/projects/{name}/counters", map[string]string{"name": "D6"}, `{"key":"ST","value":-1}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_ResetCounters(t *testing.T) {
	fake, sid := setup(t)

	resp := call(t, sid, http.MethodPost, "/admin/projects/{name}/counters/reset", map[string]string{"name": "D6"}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, fake.ProjectList["D6"].Counters["ST"])
	assert.Equal(t, 0, fake.ProjectList["D6"].Counters["CPR"])
}

func Test_SaveProject_KeepsExistingCounters(t *testing.T) {
	fake, sid := setup(t)

	resp := call(t, sid, http.MethodPost, "/admin/projects", nil, `{"name":"D6","description":"Phase 6","locations":["Block A","Block B"]}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, fake.ProjectList["D6"].Counters["ST"])
	assert.Equal(t, []string{"Block A", "Block B"}, fake.ProjectList["D6"].Locations)
}

func Test_LocationRules_UnknownProject(t *testing.T) {
	_, sid := setup(t)

	resp := call(t, sid, http.MethodPost, "/admin/location-rules", nil, `{"project":"X","rules":{"Block A":{"type":"building","floors":["GF"]}}}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_Descriptions_SaveAndDelete(t *testing.T) {
	fake, sid := setup(t)

	saved := call(t, sid, http.MethodPost, "/admin/descriptions", nil, `{"department":"Civil","descriptions":{"base":["Rebar"]}}`)
	deleted := call(t, sid, http.MethodDelete, "/admin/descriptions/{department}", map[string]string{"department": "Civil"}, "")
	missing := call(t, sid, http.MethodDelete, "/admin/descriptions/{department}", map[string]string{"department": "Civil"}, "")

	assert.Equal(t, http.StatusOK, saved.StatusCode)
	assert.Equal(t, http.StatusNoContent, deleted.StatusCode)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Empty(t, fake.Descriptions.Descriptions)
}

func Test_Health_ReportsDegradedIRAPI(t *testing.T) {
	fake, sid := setup(t)
	fake.Errors["Health"] = errors.New("connection refused")

	resp := call(t, sid, http.MethodGet, "/admin/health", nil, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body healthResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "degraded", body.Status)
}

func Test_Dashboard(t *testing.T) {
	_, sid := setup(t)

	resp := call(t, sid, http.MethodGet, "/admin/dashboard", nil, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dashboardResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, 1, body.Stats.Pending)
	assert.Equal(t, 2, body.Users)
	assert.Equal(t, []string{"D6"}, body.Projects)
}
