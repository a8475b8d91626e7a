package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"irtracker/lib/clients"
	"irtracker/lib/session"
	"irtracker/lib/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FailureResponse_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("approve: %w", store.ErrNotFound), http.StatusNotFound},
		{"transition", store.ErrInvalidTransition, http.StatusConflict},
		{"reason", store.ErrReasonRequired, http.StatusBadRequest},
		{"api client error", &clients.APIError{StatusCode: 409, Message: "IR already exists"}, http.StatusConflict},
		{"api server error", &clients.APIError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"network", &url.Error{Op: "Get", URL: "http://ir", Err: errors.New("refused")}, http.StatusBadGateway},
		{"unknown", errors.New("bug"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := FailureResponse(tc.err, quietLogger())
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func Test_FailureResponse_Redirects(t *testing.T) {
	//Arrange
	expired := &session.RedirectError{Reason: session.ErrSessionExpired, Path: session.LoginPath}
	forbidden := &session.RedirectError{Reason: session.ErrForbidden, Path: "/engineer"}

	//Act
	expiredResp := FailureResponse(expired, quietLogger())
	forbiddenResp := FailureResponse(forbidden, quietLogger())

	//Assert
	assert.Equal(t, http.StatusUnauthorized, expiredResp.StatusCode)
	assert.Equal(t, "/login", expiredResp.Headers["Location"])
	assert.Equal(t, http.StatusForbidden, forbiddenResp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(forbiddenResp.Body), &body))
	assert.Equal(t, "/engineer", body["redirect"])
}

func Test_FailureResponse_KeepsAPIMessage(t *testing.T) {
	resp := FailureResponse(&clients.APIError{StatusCode: 401, Message: "Invalid credentials"}, quietLogger())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "Invalid credentials", body["message"])
}
