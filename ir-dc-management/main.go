package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"irtracker/lib/api"
	"irtracker/lib/auth"
	"irtracker/lib/bootstrap"
	"irtracker/lib/clients"
	"irtracker/lib/constants"
	"irtracker/lib/documents"
	"irtracker/lib/export"
	"irtracker/lib/models"
	"irtracker/lib/query"
	"irtracker/lib/session"
	"irtracker/lib/store"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Global variables for Lambda cold start optimization
var (
	logger        *logrus.Logger
	irAPI         clients.IRAPIClientInterface
	documentStore documents.FileStore
	sessions      *session.Manager
	linkExpiry    = documents.DefaultExpiry
)

// statsResponse is the body of GET /dc/stats
type statsResponse struct {
	Stats       query.Stats   `json:"stats"`
	Groups      []query.Group `json:"groups"`
	Projects    []string      `json:"projects"`
	Departments []string      `json:"departments"`
	LoadedAt    string        `json:"loaded_at"`
}

// recordResponse is the body of GET /dc/records/{id}
type recordResponse struct {
	Record  models.Record  `json:"record"`
	Actions []store.Action `json:"actions"`
}

// renumberResponse is the body of POST /dc/records/{id}/renumber
type renumberResponse struct {
	OldID string `json:"old_id"`
	NewID string `json:"new_id"`
}

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("DC management request received")

	sess, err := auth.Authorize(ctx, request, sessions, models.RoleDC, models.RoleAdmin)
	if err != nil {
		return api.FailureResponse(err, logger), nil
	}

	s := store.New(irAPI, sess.User.Role, sess.User.Username, logger)
	if err := s.Reload(ctx); err != nil {
		return api.FailureResponse(err, logger), nil
	}

	id, _ := api.PathParameter(request, "id")

	switch {
	case request.Resource == "/dc/records" && request.HTTPMethod == http.MethodGet:
		return handleListRecords(s, request.QueryStringParameters, false), nil
	case request.Resource == "/dc/archive" && request.HTTPMethod == http.MethodGet:
		return handleListRecords(s, request.QueryStringParameters, true), nil
	case request.Resource == "/dc/stats" && request.HTTPMethod == http.MethodGet:
		return handleStats(s), nil
	case request.Resource == "/dc/records/export" && request.HTTPMethod == http.MethodGet:
		return handleExport(ctx, s, request.QueryStringParameters), nil
	case request.Resource == "/dc/records/bulk" && request.HTTPMethod == http.MethodPost:
		return handleBulk(ctx, s, request.Body), nil
	case request.Resource == "/dc/records/{id}" && request.HTTPMethod == http.MethodGet:
		return handleGetRecord(s, id), nil
	case request.Resource == "/dc/records/{id}" && request.HTTPMethod == http.MethodDelete:
		return handleAction(ctx, s, store.ActionDelete, id, ""), nil
	case request.Resource == "/dc/records/{id}/document" && request.HTTPMethod == http.MethodPost:
		return handleDocument(ctx, s, id, request.Body), nil
	case request.Resource == "/dc/records/{id}/{action}" && request.HTTPMethod == http.MethodPost:
		action, _ := api.PathParameter(request, "action")
		return handleRecordAction(ctx, s, id, action, request.Body), nil
	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleListRecords handles GET /dc/records and GET /dc/archive
func handleListRecords(s *store.Store, params map[string]string, archiveOnly bool) events.APIGatewayProxyResponse {
	listing := query.ListingFromQuery(params)
	if archiveOnly {
		listing.Criteria.Status = string(models.StatusArchived)
	}

	list := listing.Apply(s.Records())
	return api.SuccessResponse(http.StatusOK, models.RecordListResponse{
		Records:    list,
		TotalCount: len(list),
	}, logger)
}

// handleGetRecord handles GET /dc/records/{id}
func handleGetRecord(s *store.Store, id string) events.APIGatewayProxyResponse {
	record, err := s.Get(id)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, recordResponse{Record: record, Actions: store.Allowed(record)}, logger)
}

// handleStats handles GET /dc/stats
func handleStats(s *store.Store) events.APIGatewayProxyResponse {
	list := s.Records()
	return api.SuccessResponse(http.StatusOK, statsResponse{
		Stats:       query.Summarize(list),
		Groups:      query.GroupByProjectDept(query.Filter(list, query.Criteria{Status: string(models.StatusPending)})),
		Projects:    query.Projects(list),
		Departments: query.Departments(list),
		LoadedAt:    s.LoadedAt().UTC().Format(time.RFC3339),
	}, logger)
}

// handleRecordAction handles POST /dc/records/{id}/{action}
func handleRecordAction(ctx context.Context, s *store.Store, id, name, body string) events.APIGatewayProxyResponse {
	action, err := store.ParseAction(name)
	if err != nil {
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger)
	}

	switch action {
	case store.ActionReject:
		var req models.RejectRecordRequest
		if err := api.ParseJSONBody(body, &req); err != nil {
			return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
		}
		if errs := api.Validate(req); errs != nil {
			return api.ValidationErrorResponse("Invalid reject request", errs, logger)
		}
		return handleAction(ctx, s, action, id, req.Reason)

	case store.ActionRenumber:
		var req models.RenumberRecordRequest
		if err := api.ParseJSONBody(body, &req); err != nil {
			return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
		}
		if errs := api.Validate(req); errs != nil {
			return api.ValidationErrorResponse("Invalid renumber request", errs, logger)
		}
		newID, err := s.Renumber(ctx, id, req.NewID)
		if err != nil {
			return api.FailureResponse(err, logger)
		}
		return api.SuccessResponse(http.StatusOK, renumberResponse{OldID: id, NewID: newID}, logger)

	default:
		return handleAction(ctx, s, action, id, "")
	}
}

// handleAction applies one transition and returns the record's new state
func handleAction(ctx context.Context, s *store.Store, action store.Action, id, reason string) events.APIGatewayProxyResponse {
	if err := s.Apply(ctx, action, id, reason); err != nil {
		return api.FailureResponse(err, logger)
	}

	if action == store.ActionDelete {
		return api.SuccessResponse(http.StatusNoContent, nil, logger)
	}
	record, err := s.Get(id)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	return api.SuccessResponse(http.StatusOK, recordResponse{Record: record, Actions: store.Allowed(record)}, logger)
}

// handleBulk handles POST /dc/records/bulk
func handleBulk(ctx context.Context, s *store.Store, body string) events.APIGatewayProxyResponse {
	var req models.BulkActionRequest
	if err := api.ParseJSONBody(body, &req); err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if errs := api.Validate(req); errs != nil {
		return api.ValidationErrorResponse("Invalid bulk request", errs, logger)
	}

	action, err := store.ParseAction(req.Action)
	if err != nil {
		return api.FailureResponse(err, logger)
	}
	if action == store.ActionReject && strings.TrimSpace(req.Reason) == "" {
		return api.FailureResponse(store.ErrReasonRequired, logger)
	}

	results := s.BulkAction(ctx, action, req.IDs, req.Reason)
	return api.SuccessResponse(http.StatusOK, store.ToResponse(action, results), logger)
}

// handleDocument handles POST /dc/records/{id}/document
func handleDocument(ctx context.Context, s *store.Store, id, body string) events.APIGatewayProxyResponse {
	var req models.DocumentRequest
	if strings.TrimSpace(body) != "" {
		if err := api.ParseJSONBody(body, &req); err != nil {
			return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
		}
	}

	issuer := &documents.Issuer{Store: s, Generator: irAPI, Logger: logger}
	doc, err := issuer.Issue(ctx, id, req.CustomNumber)
	if err != nil {
		return api.FailureResponse(err, logger)
	}

	record, _ := s.Get(doc.ID)
	key := documents.ObjectKey(record.Project, doc.FileName)
	url, err := documents.Publish(ctx, documentStore, key, documents.ContentType, doc.Content, linkExpiry)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "handleDocument",
			"id":        doc.ID,
			"error":     err.Error(),
		}).Error("Failed to publish document")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to store document", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.DocumentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		DownloadURL: url,
		ExpiresIn:   int(linkExpiry.Seconds()),
		Warning:     doc.Warning,
	}, logger)
}

// handleExport handles GET /dc/records/export?format=tsv|xlsx. TSV is returned
// inline; XLSX is stored and linked unless inline=true asks for the file itself.
func handleExport(ctx context.Context, s *store.Store, params map[string]string) events.APIGatewayProxyResponse {
	list := query.ListingFromQuery(params).Apply(s.Records())
	format := strings.ToLower(strings.TrimSpace(params["format"]))

	body, contentType, err := export.Render(format, list)
	if err != nil {
		return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger)
	}
	if format != export.FormatXLSX {
		return api.TextResponse(http.StatusOK, contentType, string(body))
	}

	fileName := "ir-records-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	if params["inline"] == "true" {
		return api.FileResponse(contentType, fileName, body)
	}
	key := "exports/" + uuid.New().String() + "/" + fileName
	url, err := documents.Publish(ctx, documentStore, key, contentType, body, linkExpiry)
	if err != nil {
		logger.WithError(err).Error("Failed to publish export")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to store export", logger)
	}
	return api.SuccessResponse(http.StatusOK, models.DocumentResponse{
		FileName:    fileName,
		DownloadURL: url,
		ExpiresIn:   int(linkExpiry.Seconds()),
	}, logger)
}

// main is the Lambda function entry point
func main() {
	rt := bootstrap.MustLoad("ir-dc-management")
	logger = rt.Logger
	irAPI = rt.IRAPI
	sessions = rt.Sessions
	documentStore = clients.NewS3Client(rt.IsLocal, rt.Params[constants.DOCUMENT_BUCKET])

	lambda.Start(Handler)
}
