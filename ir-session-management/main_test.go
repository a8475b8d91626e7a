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

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *session.MemoryStorage {
	t.Helper()
	logger = logrus.New()
	logger.SetOutput(io.Discard)

	fake := irapitest.New()
	fake.AddUser(models.User{Username: "omar", Fullname: "Omar", Department: "Civil", Role: models.RoleEngineer}, "secret")
	storage := session.NewMemoryStorage()
	sessions = session.NewManager(storage, fake, logger)
	return storage
}

func login(t *testing.T, password string) events.APIGatewayProxyResponse {
	t.Helper()
	resp, err := Handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Resource:   "/sessions",
		Body:       `{"username":"omar","password":"` + password + `"}`,
	})
	require.NoError(t, err)
	return resp
}

func Test_Login_OpensSession(t *testing.T) {
	//Arrange
	setup(t)

	//Act
	resp := login(t, "secret")

	//Assert
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body models.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, "/engineer", body.HomePath)
	assert.Equal(t, "Civil", body.User.Department)
}

func Test_Login_InvalidCredentials(t *testing.T) {
	setup(t)

	resp := login(t, "wrong")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Body, "Invalid credentials")
}

func Test_Login_MissingFields(t *testing.T) {
	setup(t)

	resp, _ := Handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/sessions", Body: `{"username":"omar"}`})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_Current_ThenLogout(t *testing.T) {
	setup(t)
	var opened models.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(login(t, "secret").Body), &opened))
	headers := map[string]string{"Authorization": "Bearer " + opened.SessionID}

	current, _ := Handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Resource: "/sessions/current", Headers: headers})
	logout, _ := Handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodDelete, Resource: "/sessions/current", Headers: headers})
	after, _ := Handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Resource: "/sessions/current", Headers: headers})

	assert.Equal(t, http.StatusOK, current.StatusCode)
	assert.Equal(t, http.StatusNoContent, logout.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, after.StatusCode)
}

func Test_Current_ExpiredSession(t *testing.T) {
	storage := setup(t)
	stale := time.Now().UTC().Add(-25 * time.Hour)
	require.NoError(t, storage.Save(context.Background(), models.Session{
		ID:           "old",
		User:         models.User{Username: "omar", Role: models.RoleEngineer},
		CreatedAt:    stale,
		LastActivity: stale,
	}))

	resp, _ := Handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Resource:   "/sessions/current",
		Headers:    map[string]string{"Authorization": "Bearer old"},
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Body, "session expired")
	_, err := storage.Load(context.Background(), "old")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
