package main

import (
	"context"
	"net/http"
	"time"

	"irtracker/lib/api"
	"irtracker/lib/auth"
	"irtracker/lib/bootstrap"
	"irtracker/lib/clients"
	"irtracker/lib/counters"
	"irtracker/lib/models"
	"irtracker/lib/query"
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

// healthResponse is the body of GET /admin/health
type healthResponse struct {
	Status        string `json:"status"`
	IRAPI         string `json:"ir_api"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CheckedAt     string `json:"checked_at"`
}

// dashboardResponse is the body of GET /admin/dashboard
type dashboardResponse struct {
	Stats    query.Stats `json:"stats"`
	Users    int         `json:"users"`
	Projects []string    `json:"projects"`
}

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Admin request received")

	sess, err := auth.Authorize(ctx, request, sessions, models.RoleAdmin)
	if err != nil {
		return api.FailureResponse(err, logger), nil
	}

	switch request.Resource {
	case "/admin/users":
		switch request.HTTPMethod {
		case http.MethodGet:
			return handleListUsers(ctx), nil
		case http.MethodPost:
			return handleSaveUser(ctx, request.Body), nil
		}
	case "/admin/users/{username}":
		if request.HTTPMethod == http.MethodDelete {
			username, _ := api.PathParameter(request, "username")
			return handleDeleteUser(ctx, sess, username), nil
		}
	case "/admin/projects":
		switch request.HTTPMethod {
		case http.MethodGet:
			return handleListProjects(ctx), nil
		case http.MethodPost:
			return handleSaveProject(ctx, request.Body), nil
		}
	case "/admin/projects/{name}/counters":
		if request.HTTPMethod == http.MethodPut {
			name, _ := api.PathParameter(request, "name")
			return handleSetCounter(ctx, name, request.Body), nil
		}
	case "/admin/projects/{name}/counters/reset":
		if request.HTTPMethod == http.MethodPost {
			name, _ := api.PathParameter(request, "name")
			return handleResetCounters(ctx, name), nil
		}
	case "/admin/location-rules":
		switch request.HTTPMethod {
		case http.MethodGet:
			return handleGetLocationRules(ctx), nil
		case http.MethodPost:
			return handleSaveLocationRules(ctx, request.Body), nil
		}
	case "/admin/descriptions":
		switch request.HTTPMethod {
		case http.MethodGet:
			return handleGetDescriptions(ctx), nil
		case http.MethodPost:
			return handleSaveDescription(ctx, request.Body), nil
		}
	case "/admin/descriptions/{department}":
		if request.HTTPMethod == http.MethodDelete {
			department, _ := api.PathParameter(request, "department")
			return handleDeleteDescription(ctx, department), nil
		}
	case "/admin/health":
		if request.HTTPMethod == http.MethodGet {
			return handleHealth(ctx), nil
		}
	case "/admin/dashboard":
		if request.HTTPMethod == http.MethodGet {
			return handleDashboard(ctx, sess), nil
		}
	}
	return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
}

// handleListUsers handles GET /admin/users
func handleListUsers(ctx context.Context) events.APIGatewayProxyResponse {
	users, err := irAPI.Users(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, models.UsersResponse{Users: users}, logger)
}

// handleSaveUser handles POST /admin/users (create or update by username)
func handleSaveUser(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var req models.UpsertUserRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid user", errs, logger)
	}

	if err := irAPI.SaveUser(ctx, req); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, models.User{
		Username:   req.Username,
		Fullname:   req.Fullname,
		Department: req.Department,
		Role:       req.Role,
	}, logger)
}

// handleDeleteUser handles DELETE /admin/users/{username}
func handleDeleteUser(ctx context.Context, sess models.Session, username string) events.APIGatewayProxyResponse {
	if username == sess.User.Username {
		return api.ErrorResponse(http.StatusBadRequest, "You cannot delete your own account", logger)
	}
	if err := irAPI.DeleteUser(ctx, username); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusNoContent, nil, logger)
}

// handleListProjects handles GET /admin/projects
func handleListProjects(ctx context.Context) events.APIGatewayProxyResponse {
	projects, err := irAPI.Projects(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, models.ProjectsResponse{Projects: projects}, logger)
}

// handleSaveProject handles POST /admin/projects. Counters of an existing project
// are kept unless the payload carries them.
func handleSaveProject(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var project models.Project
	if err := api.ParseJSONBody(body, &project); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(project); errs != nil {
		return api.ValidationErrorResponse("Invalid project", errs, logger)
	}
	if err := counters.Validate(project.Counters); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}

	existing, err := irAPI.Projects(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	if project.Counters == nil {
		if current, ok := existing[project.Name]; ok && current.Counters != nil {
			project.Counters = current.Counters
		} else {
			project.Counters = counters.Reset(nil)
		}
	}
	if project.Locations == nil {
		project.Locations = []string{}
	}

	if err := irAPI.SaveProject(ctx, project); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, project, logger)
}

// loadProject fetches one project by name
func loadProject(ctx context.Context, name string) (models.Project, events.APIGatewayProxyResponse, bool) {
	projects, err := irAPI.Projects(ctx)
	if err != nil {
		return models.Project{}, api.FailureResponse(err, logger), false
	}
	project, ok := projects[name]
	if !ok {
		return models.Project{}, api.ErrorResponse(http.StatusNotFound, "Project not found", logger), false
	}
	return project, events.APIGatewayProxyResponse{}, true
}

// handleSetCounter handles PUT /admin/projects/{name}/counters
func handleSetCounter(ctx context.Context, name, body string) events.APIGatewayProxyResponse {
	var req models.SetCounterRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid counter", errs, logger)
	}

	project, failure, ok := loadProject(ctx, name)
	if !ok {
		return failure
	}
	updated, err := counters.Set(project.Counters, req.Key, req.Value)
	if err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	project.Counters = updated

	if err := irAPI.SaveProject(ctx, project); err != nil {
		return api.FailureResponse(err, logger)
	}
	logger.WithFields(logrus.Fields{
		"operation": "handleSetCounter",
		"project":   name,
		"key":       req.Key,
		"value":     req.Value,
	}).Info("Counter updated")
	return api.SuccessResponse(http.StatusOK, project, logger)
}

// handleResetCounters handles POST /admin/projects/{name}/counters/reset
func handleResetCounters(ctx context.Context, name string) events.APIGatewayProxyResponse {
	project, failure, ok := loadProject(ctx, name)
	if !ok {
		return failure
	}
	project.Counters = counters.Reset(project.Counters)

	if err := irAPI.SaveProject(ctx, project); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, project, logger)
}

// handleGetLocationRules handles GET /admin/location-rules
func handleGetLocationRules(ctx context.Context) events.APIGatewayProxyResponse {
	rules, err := irAPI.LocationRules(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, models.LocationRulesResponse{Rules: rules}, logger)
}

// handleSaveLocationRules handles POST /admin/location-rules
func handleSaveLocationRules(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var req models.SaveLocationRulesRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid location rules", errs, logger)
	}
	if _, failure, ok := loadProject(ctx, req.Project); !ok {
		return failure
	}

	if err := irAPI.SaveLocationRules(ctx, req); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, req, logger)
}

// handleGetDescriptions handles GET /admin/descriptions
func handleGetDescriptions(ctx context.Context) events.APIGatewayProxyResponse {
	descriptions, err := irAPI.GeneralDescriptions(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, descriptions, logger)
}

// handleSaveDescription handles POST /admin/descriptions
func handleSaveDescription(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var req models.SaveGeneralDescriptionRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid description", errs, logger)
	}
	if req.Descriptions.Base == nil {
		req.Descriptions.Base = []string{}
	}
	if req.Descriptions.Floors == nil {
		req.Descriptions.Floors = []string{}
	}

	if err := irAPI.SaveGeneralDescription(ctx, req); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, req, logger)
}

// handleDeleteDescription handles DELETE /admin/descriptions/{department}
func handleDeleteDescription(ctx context.Context, department string) events.APIGatewayProxyResponse {
	if err := irAPI.DeleteGeneralDescription(ctx, department); err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusNoContent, nil, logger)
}

// handleHealth handles GET /admin/health. An unreachable IR API is reported, not failed.
func handleHealth(ctx context.Context) events.APIGatewayProxyResponse {
	resp := healthResponse{Status: "ok", IRAPI: "ok", CheckedAt: time.Now().UTC().Format(time.RFC3339)}
	if err := irAPI.Health(ctx); err != nil {
		logger.WithError(err).Warn("IR API health check failed")
		resp.Status = "degraded"
		resp.IRAPI = err.Error()
	}
	if uptime, err := sessions.Uptime(ctx); err == nil {
		resp.UptimeSeconds = int64(uptime.Seconds())
	}
	return api.SuccessResponse(http.StatusOK, resp, logger)
}

// handleDashboard handles GET /admin/dashboard
func handleDashboard(ctx context.Context, sess models.Session) events.APIGatewayProxyResponse {
	s := store.New(irAPI, sess.User.Role, sess.User.Username, logger)
	if err := s.Reload(ctx); err != nil {
		return api.FailureResponse(err, logger)
	}
	users, err := irAPI.Users(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	projects, err := irAPI.Projects(ctx)
	if err != nil {
		return api.FailureResponse(err, logger)
	}

	return api.SuccessResponse(http.StatusOK, dashboardResponse{
		Stats:    query.Summarize(s.Records()),
		Users:    len(users),
		Projects: submission.ProjectNames(projects),
	}, logger)
}

func main() {
	rt := bootstrap.MustLoad("ir-admin-management")
	logger = rt.Logger
	irAPI = rt.IRAPI
	sessions = rt.Sessions

	lambda.Start(Handler)
}
