package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"irtracker/lib/models"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	cacheKeyProjects      = "projects"
	cacheKeyLocationRules = "location-rules"
	cacheKeyDescriptions  = "general-descriptions"
)

// APIError is a non-2xx response from the IR API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("IR API returned %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status of an *APIError, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IRAPIClientInterface is the full IR API surface used by the lambdas and the console
type IRAPIClientInterface interface {
	Login(ctx context.Context, username, password string) (models.User, error)
	Health(ctx context.Context) error

	ListIRs(ctx context.Context) ([]models.ServerRecord, error)
	ListRevisions(ctx context.Context) ([]models.ServerRecord, error)
	ListArchive(ctx context.Context, role, user string) ([]models.ServerRecord, error)
	ListUserRecords(ctx context.Context, user, department string) ([]models.ServerRecord, []models.ServerRecord, error)
	CreateIR(ctx context.Context, req models.CreateIRRequest) (models.CreateIRResponse, error)
	CreateRevision(ctx context.Context, req models.CreateRevisionRequest) (models.CreateRevisionResponse, error)
	MarkDone(ctx context.Context, isRevision bool, req models.MarkDoneRequest) error
	RejectRecord(ctx context.Context, isRevision bool, id, reason string) error
	Archive(ctx context.Context, req models.ArchiveRequest) error
	Unarchive(ctx context.Context, req models.ArchiveRequest) (*models.ServerRecord, error)
	DeleteRecord(ctx context.Context, isRevision bool, req models.DeleteRecordRequest) error
	UpdateIRNumber(ctx context.Context, req models.UpdateIRNumberRequest) (models.UpdateIRNumberResponse, error)
	GenerateWord(ctx context.Context, req models.GenerateWordRequest) ([]byte, error)

	Projects(ctx context.Context) (map[string]models.Project, error)
	SaveProject(ctx context.Context, project models.Project) error
	Users(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, req models.UpsertUserRequest) error
	DeleteUser(ctx context.Context, username string) error
	LocationRules(ctx context.Context) (models.LocationRules, error)
	SaveLocationRules(ctx context.Context, req models.SaveLocationRulesRequest) error
	GeneralDescriptions(ctx context.Context) (models.GeneralDescriptionsResponse, error)
	SaveGeneralDescription(ctx context.Context, req models.SaveGeneralDescriptionRequest) error
	DeleteGeneralDescription(ctx context.Context, department string) error
	DescriptionOptions(ctx context.Context, project, department, requestType string) (models.DescriptionOptions, error)
}

// IRAPIClient talks JSON over HTTP to the IR API. It never retries; failures are
// returned to the caller as-is or as *APIError.
type IRAPIClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
	cache      *cache.Cache
}

// NewIRAPIClient creates a client. Reference data is cached for cacheTTL; zero disables caching.
func NewIRAPIClient(baseURL string, cacheTTL time.Duration, logger *logrus.Logger) *IRAPIClient {
	client := &IRAPIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
	if cacheTTL > 0 {
		client.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return client
}

func (c *IRAPIClient) fromCache(key string) (interface{}, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *IRAPIClient) toCache(key string, value interface{}) {
	if c.cache != nil {
		c.cache.SetDefault(key, value)
	}
}

func (c *IRAPIClient) invalidate(key string) {
	if c.cache != nil {
		c.cache.Delete(key)
	}
}

// send performs one request and returns the body of a 2xx response
func (c *IRAPIClient) send(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, string, error) {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.WithFields(logrus.Fields{
			"operation": "send",
			"method":    method,
			"path":      path,
			"error":     err.Error(),
		}).Error("IR API request failed")
		return nil, "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(contentType, raw, resp.StatusCode)}
		c.Logger.WithFields(logrus.Fields{
			"operation":   "send",
			"method":      method,
			"path":        path,
			"status_code": resp.StatusCode,
			"message":     apiErr.Message,
		}).Warn("IR API returned an error")
		return nil, contentType, apiErr
	}

	if c.Logger.IsLevelEnabled(logrus.DebugLevel) {
		c.Logger.WithFields(logrus.Fields{
			"operation":   "send",
			"method":      method,
			"path":        path,
			"status_code": resp.StatusCode,
			"bytes":       len(raw),
		}).Debug("IR API request completed")
	}
	return raw, contentType, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "json")
	}
	return strings.HasSuffix(mediaType, "json")
}

// errorMessage prefers the JSON "error" field, then the raw text, then the status text
func errorMessage(contentType string, raw []byte, statusCode int) string {
	if isJSON(contentType) {
		var payload struct {
			Error   interface{} `json:"error"`
			Message string      `json:"message"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil {
			if text, ok := payload.Error.(string); ok && text != "" {
				return text
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(statusCode)
}

func (c *IRAPIClient) doJSON(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	raw, _, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func collection(isRevision bool) string {
	if isRevision {
		return "revs"
	}
	return "irs"
}

func orEmpty(list []models.ServerRecord) []models.ServerRecord {
	if list == nil {
		return []models.ServerRecord{}
	}
	return list
}

// Login verifies credentials and returns the account
func (c *IRAPIClient) Login(ctx context.Context, username, password string) (models.User, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/login", nil, models.LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return models.User{}, err
	}
	if resp.User.Username == "" {
		return models.User{}, errors.New("login response carries no user")
	}
	return resp.User, nil
}

// Health probes GET /health
func (c *IRAPIClient) Health(ctx context.Context) error {
	_, _, err := c.send(ctx, http.MethodGet, "/health", nil, nil)
	return err
}

// ListIRs fetches every active IR and CPR
func (c *IRAPIClient) ListIRs(ctx context.Context) ([]models.ServerRecord, error) {
	var resp struct {
		IRs []models.ServerRecord `json:"irs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/irs", nil, nil, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.IRs), nil
}

// ListRevisions fetches every active revision
func (c *IRAPIClient) ListRevisions(ctx context.Context) ([]models.ServerRecord, error) {
	var resp struct {
		Revs []models.ServerRecord `json:"revs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/revs", nil, nil, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.Revs), nil
}

// ListArchive fetches the DC archive for dc and admin, otherwise the engineer archive filtered by user
func (c *IRAPIClient) ListArchive(ctx context.Context, role, user string) ([]models.ServerRecord, error) {
	path := "/archive/engineer"
	var query url.Values
	if role == models.RoleDC || role == models.RoleAdmin {
		path = "/archive/dc"
	} else if user != "" {
		query = url.Values{"user": {user}}
	}

	var resp struct {
		Archive []models.ServerRecord `json:"archive"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.Archive), nil
}

// ListUserRecords fetches the active IRs and revisions of one engineer in one department
func (c *IRAPIClient) ListUserRecords(ctx context.Context, user, department string) ([]models.ServerRecord, []models.ServerRecord, error) {
	var resp struct {
		IRs  []models.ServerRecord `json:"irs"`
		Revs []models.ServerRecord `json:"revs"`
	}
	query := url.Values{"user": {user}, "dept": {department}}
	if err := c.doJSON(ctx, http.MethodGet, "/irs-by-user-and-dept", query, nil, &resp); err != nil {
		return nil, nil, err
	}
	return orEmpty(resp.IRs), orEmpty(resp.Revs), nil
}

// CreateIR submits an IR or CPR; the server allocates the identifier
func (c *IRAPIClient) CreateIR(ctx context.Context, req models.CreateIRRequest) (models.CreateIRResponse, error) {
	var resp models.CreateIRResponse
	if err := c.doJSON(ctx, http.MethodPost, "/irs", nil, req, &resp); err != nil {
		return models.CreateIRResponse{}, err
	}
	if resp.IR.IrNo == "" {
		return resp, errors.New("create response carries no irNo")
	}
	c.invalidate(cacheKeyProjects)
	return resp, nil
}

// CreateRevision submits a revision
func (c *IRAPIClient) CreateRevision(ctx context.Context, req models.CreateRevisionRequest) (models.CreateRevisionResponse, error) {
	var resp models.CreateRevisionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/revs", nil, req, &resp); err != nil {
		return models.CreateRevisionResponse{}, err
	}
	return resp, nil
}

// MarkDone approves an IR or revision
func (c *IRAPIClient) MarkDone(ctx context.Context, isRevision bool, req models.MarkDoneRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/"+collection(isRevision)+"/mark-done", nil, req, nil)
}

// RejectRecord closes an IR or revision as rejected
func (c *IRAPIClient) RejectRecord(ctx context.Context, isRevision bool, id, reason string) error {
	payload := map[string]interface{}{
		"status":          string(models.StatusRejected),
		"rejectionReason": reason,
		"isDone":          true,
		"updatedAt":       time.Now().UTC().Format(time.RFC3339),
	}
	return c.doJSON(ctx, http.MethodPut, "/"+collection(isRevision)+"/"+url.PathEscape(id), nil, payload, nil)
}

// Archive moves a record into the archive of req.Role
func (c *IRAPIClient) Archive(ctx context.Context, req models.ArchiveRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/archive", nil, req, nil)
}

// Unarchive restores a record and returns the restored document when the server sends it
func (c *IRAPIClient) Unarchive(ctx context.Context, req models.ArchiveRequest) (*models.ServerRecord, error) {
	var resp models.UnarchiveResponse
	if err := c.doJSON(ctx, http.MethodPost, "/unarchive", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// DeleteRecord removes an IR or revision, active or archived
func (c *IRAPIClient) DeleteRecord(ctx context.Context, isRevision bool, req models.DeleteRecordRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/"+collection(isRevision)+"/delete", nil, req, nil)
}

// UpdateIRNumber renumbers an IR; the server also raises the project counter
func (c *IRAPIClient) UpdateIRNumber(ctx context.Context, req models.UpdateIRNumberRequest) (models.UpdateIRNumberResponse, error) {
	var resp models.UpdateIRNumberResponse
	if err := c.doJSON(ctx, http.MethodPost, "/irs/update-ir-number", nil, req, &resp); err != nil {
		return models.UpdateIRNumberResponse{}, err
	}
	c.invalidate(cacheKeyProjects)
	return resp, nil
}

// GenerateWord renders the Word document of a record. A JSON or empty success
// body means the server did not produce a document.
func (c *IRAPIClient) GenerateWord(ctx context.Context, req models.GenerateWordRequest) ([]byte, error) {
	raw, contentType, err := c.send(ctx, http.MethodPost, "/generate-word", nil, req)
	if err != nil {
		return nil, err
	}
	if isJSON(contentType) {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: errorMessage(contentType, raw, http.StatusBadGateway)}
	}
	if len(raw) == 0 {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: "empty document"}
	}
	return raw, nil
}

// Projects returns every project keyed by name
func (c *IRAPIClient) Projects(ctx context.Context) (map[string]models.Project, error) {
	if cached, ok := c.fromCache(cacheKeyProjects); ok {
		return cached.(map[string]models.Project), nil
	}

	var resp models.ProjectsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, nil, &resp); err != nil {
		return nil, err
	}
	projects := make(map[string]models.Project, len(resp.Projects))
	for name, project := range resp.Projects {
		if project.Name == "" {
			project.Name = name
		}
		if project.Counters == nil {
			project.Counters = models.Counters{}
		}
		projects[name] = project
	}
	c.toCache(cacheKeyProjects, projects)
	return projects, nil
}

// SaveProject creates or replaces a project, counters included
func (c *IRAPIClient) SaveProject(ctx context.Context, project models.Project) error {
	defer c.invalidate(cacheKeyProjects)
	return c.doJSON(ctx, http.MethodPost, "/projects", nil, project, nil)
}

// Users lists every account
func (c *IRAPIClient) Users(ctx context.Context) ([]models.User, error) {
	var resp models.UsersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Users == nil {
		return []models.User{}, nil
	}
	return resp.Users, nil
}

// SaveUser creates or updates an account keyed by username
func (c *IRAPIClient) SaveUser(ctx context.Context, req models.UpsertUserRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/users", nil, req, nil)
}

// DeleteUser removes an account
func (c *IRAPIClient) DeleteUser(ctx context.Context, username string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(username), nil, nil, nil)
}

// LocationRules returns the location rules of every project
func (c *IRAPIClient) LocationRules(ctx context.Context) (models.LocationRules, error) {
	if cached, ok := c.fromCache(cacheKeyLocationRules); ok {
		return cached.(models.LocationRules), nil
	}

	var resp models.LocationRulesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/location-rules", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Rules == nil {
		resp.Rules = models.LocationRules{}
	}
	c.toCache(cacheKeyLocationRules, resp.Rules)
	return resp.Rules, nil
}

// SaveLocationRules replaces the rules of one project
func (c *IRAPIClient) SaveLocationRules(ctx context.Context, req models.SaveLocationRulesRequest) error {
	defer c.invalidate(cacheKeyLocationRules)
	return c.doJSON(ctx, http.MethodPost, "/location-rules", nil, req, nil)
}

// GeneralDescriptions returns the admin view of every department's descriptions
func (c *IRAPIClient) GeneralDescriptions(ctx context.Context) (models.GeneralDescriptionsResponse, error) {
	if cached, ok := c.fromCache(cacheKeyDescriptions); ok {
		return cached.(models.GeneralDescriptionsResponse), nil
	}

	var resp models.GeneralDescriptionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/admin/general-descriptions", nil, nil, &resp); err != nil {
		return models.GeneralDescriptionsResponse{}, err
	}
	if resp.Descriptions == nil {
		resp.Descriptions = map[string]models.GeneralDescription{}
	}
	c.toCache(cacheKeyDescriptions, resp)
	return resp, nil
}

// SaveGeneralDescription replaces the descriptions of one department
func (c *IRAPIClient) SaveGeneralDescription(ctx context.Context, req models.SaveGeneralDescriptionRequest) error {
	defer c.invalidate(cacheKeyDescriptions)
	return c.doJSON(ctx, http.MethodPost, "/admin/general-descriptions", nil, req, nil)
}

// DeleteGeneralDescription removes the descriptions of one department
func (c *IRAPIClient) DeleteGeneralDescription(ctx context.Context, department string) error {
	defer c.invalidate(cacheKeyDescriptions)
	return c.doJSON(ctx, http.MethodDelete, "/admin/general-descriptions/"+url.PathEscape(department), nil, nil, nil)
}

// DescriptionOptions returns the submission-form descriptions of one department and request type
func (c *IRAPIClient) DescriptionOptions(ctx context.Context, project, department, requestType string) (models.DescriptionOptions, error) {
	query := url.Values{"dept": {department}, "requestType": {requestType}}
	if project != "" {
		query.Set("project", project)
	}

	var resp models.DescriptionOptions
	if err := c.doJSON(ctx, http.MethodGet, "/general-descriptions", query, nil, &resp); err != nil {
		return models.DescriptionOptions{}, err
	}
	if resp.Base == nil {
		resp.Base = []string{}
	}
	if resp.Floors == nil {
		resp.Floors = []string{}
	}
	return resp, nil
}
