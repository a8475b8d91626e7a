package main

import (
	"context"
	"errors"
	"net/http"

	"irtracker/lib/api"
	"irtracker/lib/auth"
	"irtracker/lib/bootstrap"
	"irtracker/lib/clients"
	"irtracker/lib/models"
	"irtracker/lib/session"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger   *logrus.Logger
	sessions *session.Manager
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Session request received")

	switch {
	case request.Resource == "/sessions" && request.HTTPMethod == http.MethodPost:
		return handleLogin(ctx, request.Body), nil
	case request.Resource == "/sessions/current" && request.HTTPMethod == http.MethodGet:
		return handleCurrent(ctx, request), nil
	case request.Resource == "/sessions/current" && request.HTTPMethod == http.MethodDelete:
		return handleLogout(ctx, request), nil
	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleLogin handles POST /sessions
func handleLogin(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var req models.LoginRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Username and password are required", errs, logger)
	}

	s, err := sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		if clients.StatusCode(err) == http.StatusUnauthorized {
			return api.ErrorResponse(http.StatusUnauthorized, "Invalid credentials", logger)
		}
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusCreated, sessions.Response(ctx, s), logger)
}

// handleCurrent handles GET /sessions/current
func handleCurrent(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	s, err := auth.Authorize(ctx, request, sessions)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, sessions.Response(ctx, s), logger)
}

// handleLogout handles DELETE /sessions/current
func handleLogout(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	id, err := auth.ExtractSessionID(request)
	if errors.Is(err, auth.ErrMissingSession) {
		return api.SuccessResponse(http.StatusNoContent, nil, logger)
	}
	if err := sessions.Logout(ctx, id); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusNoContent, nil, logger)
}

func main() {
	rt := bootstrap.MustLoad("ir-session-management")
	logger = rt.Logger
	sessions = rt.Sessions

	lambda.Start(Handler)
}
