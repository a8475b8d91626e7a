package main

import (
	"context"
	"net/http"

	"irtracker/lib/api"
	"irtracker/lib/auth"
	"irtracker/lib/bootstrap"
	"irtracker/lib/clients"
	"irtracker/lib/export"
	"irtracker/lib/models"
	"irtracker/lib/query"
	"irtracker/lib/records"
	"irtracker/lib/session"
	"irtracker/lib/store"
	"irtracker/lib/submission"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger   *logrus.Logger
	irAPI    clients.IRAPIClientInterface
	sessions *session.Manager
)

// summaryResponse is the copy-to-clipboard text of a record
type summaryResponse struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Engineer request received")

	sess, err := auth.Authorize(ctx, request, sessions, models.RoleEngineer, models.RoleHead)
	if err != nil {
		return api.FailureResponse(err, logger), nil
	}
	user := sess.User
	params := request.QueryStringParameters
	id, _ := api.PathParameter(request, "id")

	switch {
	case request.Resource == "/engineer/projects" && request.HTTPMethod == http.MethodGet:
		return handleProjects(ctx), nil
	case request.Resource == "/engineer/next-number" && request.HTTPMethod == http.MethodGet:
		return handleNextNumber(ctx, user, params["project"], params["requestType"]), nil
	case request.Resource == "/engineer/form-options" && request.HTTPMethod == http.MethodGet:
		return handleFormOptions(ctx, user, params["project"], params["requestType"]), nil
	case request.Resource == "/engineer/irs" && request.HTTPMethod == http.MethodPost:
		return handleCreateIR(ctx, user, request.Body), nil
	case request.Resource == "/engineer/revisions" && request.HTTPMethod == http.MethodPost:
		return handleCreateRevision(ctx, user, request.Body), nil
	}

	s := store.New(irAPI, user.Role, user.Username, logger)
	if err := s.Reload(ctx); err != nil {
		return api.FailureResponse(err, logger), nil
	}

	switch {
	case request.Resource == "/engineer/records" && request.HTTPMethod == http.MethodGet:
		list := query.ListingFromQuery(params).Apply(s.Records())
		return api.SuccessResponse(http.StatusOK, models.RecordListResponse{Records: list, TotalCount: len(list)}, logger), nil
	case request.Resource == "/engineer/records/{id}/summary" && request.HTTPMethod == http.MethodGet:
		return handleSummary(s, id), nil
	case request.Resource == "/engineer/records/{id}/archive" && request.HTTPMethod == http.MethodPost:
		return handleArchive(ctx, s, id, store.ActionArchive), nil
	case request.Resource == "/engineer/records/{id}/unarchive" && request.HTTPMethod == http.MethodPost:
		return handleArchive(ctx, s, id, store.ActionUnarchive), nil
	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleProjects handles GET /engineer/projects
func handleProjects(ctx context.Context) events.APIGatewayProxyResponse {
	projects, err := irAPI.Projects(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string][]string{"projects": submission.ProjectNames(projects)}, logger)
}

// handleNextNumber handles GET /engineer/next-number
func handleNextNumber(ctx context.Context, user models.User, project, requestType string) events.APIGatewayProxyResponse {
	if project == "" {
		return api.ErrorResponse(http.StatusBadRequest, "project is required", logger)
	}
	next, err := submission.NextNumber(ctx, irAPI, project, user.Department, requestType)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, next, logger)
}

// handleFormOptions handles GET /engineer/form-options
func handleFormOptions(ctx context.Context, user models.User, project, requestType string) events.APIGatewayProxyResponse {
	if project == "" {
		return api.ErrorResponse(http.StatusBadRequest, "project is required", logger)
	}
	options, err := submission.Options(ctx, irAPI, project, user.Department, requestType, logger)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, options, logger)
}

// handleCreateIR handles POST /engineer/irs
func handleCreateIR(ctx context.Context, user models.User, body string) events.APIGatewayProxyResponse {
	var req models.CreateIRRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}

	projects, err := irAPI.Projects(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	req, err = submission.PrepareIR(req, user, projects)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid submission", errs, logger)
	}

	resp, err := irAPI.CreateIR(ctx, req)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	record, err := records.Normalize(resp.IR, false)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "handleCreateIR",
			"error":     err.Error(),
		}).Error("IR API returned a record without identifier")
		return api.ErrorResponse(http.StatusBadGateway, "IR API returned an invalid record", logger)
	}

	logger.WithFields(logrus.Fields{
		"operation": "handleCreateIR",
		"id":        record.ID,
		"user":      user.Username,
	}).Info("Request submitted")
	return api.SuccessResponse(http.StatusCreated, record, logger)
}

// handleCreateRevision handles POST /engineer/revisions
func handleCreateRevision(ctx context.Context, user models.User, body string) events.APIGatewayProxyResponse {
	var req models.CreateRevisionRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}

	req, err := submission.PrepareRevision(req, user)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid revision", errs, logger)
	}

	resp, err := irAPI.CreateRevision(ctx, req)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	record, err := records.Normalize(resp.Rev, false)
	if err != nil {
		return api.ErrorResponse(http.StatusBadGateway, "IR API returned an invalid revision", logger)
	}
	return api.SuccessResponse(http.StatusCreated, record, logger)
}

// handleSummary handles GET /engineer/records/{id}/summary
func handleSummary(s *store.Store, id string) events.APIGatewayProxyResponse {
	record, err := s.Get(id)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, summaryResponse{ID: record.ID, Summary: export.Summary(record)}, logger)
}

// handleArchive handles POST /engineer/records/{id}/archive and /unarchive
func handleArchive(ctx context.Context, s *store.Store, id string, action store.Action) events.APIGatewayProxyResponse {
	if err := s.Apply(ctx, action, id, ""); err != nil {
		return api.FailureResponse(err, logger)
	}
	record, err := s.Get(id)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, record, logger)
}

func main() {
	rt := bootstrap.MustLoad("ir-engineer-management")
	logger = rt.Logger
	irAPI = rt.IRAPI
	sessions = rt.Sessions

	lambda.Start(Handler)
}
