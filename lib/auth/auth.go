package auth

import (
	"context"
	"errors"
	"strings"

	"irtracker/lib/models"
	"irtracker/lib/session"

	"github.com/aws/aws-lambda-go/events"
)

// SessionHeader is an alternative to the Authorization header for clients that cannot set it
const SessionHeader = "X-Session-Id"

// ErrMissingSession is returned when a request carries no session id
var ErrMissingSession = errors.New("session id not found in request headers")

// header looks a header up case-insensitively; API Gateway preserves the client's casing
func header(request events.APIGatewayProxyRequest, name string) string {
	for key, value := range request.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	for key, values := range request.MultiValueHeaders {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// ExtractSessionID reads "Authorization: Bearer <id>", falling back to X-Session-Id
func ExtractSessionID(request events.APIGatewayProxyRequest) (string, error) {
	if value := strings.TrimSpace(header(request, "Authorization")); value != "" {
		scheme, token, found := strings.Cut(value, " ")
		if found && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}

	if value := strings.TrimSpace(header(request, SessionHeader)); value != "" {
		return value, nil
	}
	return "", ErrMissingSession
}

// Origin returns the request's Origin header
func Origin(request events.APIGatewayProxyRequest) (string, bool) {
	value := header(request, "Origin")
	return value, value != ""
}

// Authorize resolves the request's session and checks it against roles. A request
// without a session id is sent to the login page.
func Authorize(ctx context.Context, request events.APIGatewayProxyRequest, manager *session.Manager, roles ...string) (models.Session, error) {
	id, err := ExtractSessionID(request)
	if err != nil {
		return models.Session{}, &session.RedirectError{Reason: err, Path: session.LoginPath}
	}
	return manager.Authorize(ctx, id, roles...)
}
