package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"irtracker/lib/clients"
	"irtracker/lib/documents"
	"irtracker/lib/ircodec"
	"irtracker/lib/session"
	"irtracker/lib/store"
	"irtracker/lib/submission"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
)

// badRequests are domain errors caused by the caller's input
var badRequests = []error{
	store.ErrReasonRequired,
	ircodec.ErrInvalidSerial,
	documents.ErrNoDocument,
	submission.ErrCPRNotAllowed,
	submission.ErrFloorRequired,
	submission.ErrUnknownProject,
	submission.ErrUnknownLocation,
	session.ErrInvalidCredentials,
}

// FailureResponse maps a service-layer error onto an HTTP response. IR API
// client errors keep their status; IR API server errors and network failures
// become 502.
func FailureResponse(err error, logger *logrus.Logger) events.APIGatewayProxyResponse {
	var redirect *session.RedirectError
	if errors.As(err, &redirect) {
		status := http.StatusUnauthorized
		if errors.Is(redirect.Reason, session.ErrForbidden) {
			status = http.StatusForbidden
		}
		return RedirectResponse(status, redirect.Reason.Error(), redirect.Path, logger)
	}

	for _, target := range badRequests {
		if errors.Is(err, target) {
			return ErrorResponse(http.StatusBadRequest, err.Error(), logger)
		}
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, err.Error(), logger)
	case errors.Is(err, store.ErrInvalidTransition):
		return ErrorResponse(http.StatusConflict, err.Error(), logger)
	case errors.Is(err, store.ErrReloadInProgress):
		return ErrorResponse(http.StatusServiceUnavailable, err.Error(), logger)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusGatewayTimeout, "IR API did not respond in time", logger)
	}

	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return ErrorResponse(apiErr.StatusCode, apiErr.Message, logger)
		}
		logger.WithFields(logrus.Fields{
			"operation": "FailureResponse",
			"status":    apiErr.StatusCode,
			"error":     err.Error(),
		}).Error("IR API failed")
		return ErrorResponse(http.StatusBadGateway, apiErr.Message, logger)
	}

	var netErr *url.Error
	if errors.As(err, &netErr) {
		logger.WithFields(logrus.Fields{
			"operation": "FailureResponse",
			"error":     err.Error(),
		}).Error("IR API unreachable")
		return ErrorResponse(http.StatusBadGateway, "IR API is unreachable", logger)
	}

	logger.WithFields(logrus.Fields{
		"operation": "FailureResponse",
		"error":     err.Error(),
	}).Error("Unhandled error")
	return ErrorResponse(http.StatusInternalServerError, "Internal server error", logger)
}
