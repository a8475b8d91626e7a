// Package submission prepares engineer IR, CPR and revision submissions and the
// reference data the submission form is built from
package submission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"irtracker/lib/counters"
	"irtracker/lib/ircodec"
	"irtracker/lib/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrCPRNotAllowed   = errors.New("CPR requests are only available for Civil/Structure engineers")
	ErrFloorRequired   = errors.New("please select a floor for IR requests")
	ErrUnknownProject  = errors.New("unknown project")
	ErrUnknownLocation = errors.New("location is not defined for this project")
)

// ReferenceSource is the reference data the form draws from
type ReferenceSource interface {
	Projects(ctx context.Context) (map[string]models.Project, error)
	LocationRules(ctx context.Context) (models.LocationRules, error)
	DescriptionOptions(ctx context.Context, project, department, requestType string) (models.DescriptionOptions, error)
}

// PrepareIR stamps the submitting engineer onto an IR/CPR request and enforces
// the form rules. projects may be nil to skip the project and location checks.
func PrepareIR(req models.CreateIRRequest, user models.User, projects map[string]models.Project) (models.CreateIRRequest, error) {
	req.User = user.Username
	req.Department = user.Department
	req.RequestType = strings.ToUpper(strings.TrimSpace(req.RequestType))
	if req.RequestType == "" {
		req.RequestType = models.RequestTypeIR
	}
	req.Desc = strings.TrimSpace(req.Desc)
	req.Floor = strings.TrimSpace(req.Floor)

	switch req.RequestType {
	case models.RequestTypeCPR:
		if !ircodec.IsCivil(user.Department) {
			return req, ErrCPRNotAllowed
		}
		req.Floor = ""
	case models.RequestTypeIR:
		if req.Floor == "" {
			return req, ErrFloorRequired
		}
		req.ConcreteGrade = ""
		req.PouringElement = ""
	}

	if projects != nil {
		project, ok := projects[req.Project]
		if !ok {
			return req, fmt.Errorf("%q: %w", req.Project, ErrUnknownProject)
		}
		if len(project.Locations) > 0 && !contains(project.Locations, req.Location) {
			return req, fmt.Errorf("%q: %w", req.Location, ErrUnknownLocation)
		}
	}

	if req.Tags.Engineer == nil {
		req.Tags.Engineer = []string{}
	}
	if req.Tags.SD == nil {
		req.Tags.SD = []string{}
	}
	return req, nil
}

// PrepareRevision stamps the engineer onto a revision and derives its type from the parent request type
func PrepareRevision(req models.CreateRevisionRequest, user models.User) (models.CreateRevisionRequest, error) {
	req.User = user.Username
	req.Department = user.Department
	req.RevText = strings.TrimSpace(req.RevText)
	req.ParentRequestType = strings.ToUpper(strings.TrimSpace(req.ParentRequestType))
	if req.ParentRequestType == "" {
		req.ParentRequestType = models.RequestTypeIR
	}

	req.RevisionType = models.RevisionTypeIR
	if req.ParentRequestType == models.RequestTypeCPR {
		if !ircodec.IsCivil(user.Department) {
			return req, ErrCPRNotAllowed
		}
		req.RevisionType = models.RevisionTypeCPR
	}
	return req, nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// ProjectNames lists project names alphabetically
func ProjectNames(projects map[string]models.Project) []string {
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options gathers locations, floor rules, descriptions and the predicted next
// number for one project. A failing descriptions lookup is reported in
// Descriptions.Error rather than failing the whole form.
func Options(ctx context.Context, source ReferenceSource, project, department, requestType string, logger *logrus.Logger) (models.FormOptions, error) {
	projects, err := source.Projects(ctx)
	if err != nil {
		return models.FormOptions{}, fmt.Errorf("failed to load projects: %w", err)
	}
	p, ok := projects[project]
	if !ok {
		return models.FormOptions{}, fmt.Errorf("%q: %w", project, ErrUnknownProject)
	}

	rules, err := source.LocationRules(ctx)
	if err != nil {
		return models.FormOptions{}, fmt.Errorf("failed to load location rules: %w", err)
	}
	projectRules := make(map[string]models.LocationRule, len(rules[project]))
	for location, rule := range rules[project] {
		projectRules[location] = rule
	}

	descriptions, err := source.DescriptionOptions(ctx, project, department, requestType)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation":  "Options",
			"project":    project,
			"department": department,
			"error":      err.Error(),
		}).Warn("Failed to load general descriptions")
		descriptions = models.DescriptionOptions{Base: []string{}, Floors: []string{}, Error: err.Error()}
	}

	locations := append([]string{}, p.Locations...)
	if locations == nil {
		locations = []string{}
	}

	return models.FormOptions{
		Project:      project,
		Locations:    locations,
		Rules:        projectRules,
		Descriptions: descriptions,
		Next:         counters.Predict(project, department, requestType, p.Counters),
	}, nil
}

// NextNumber predicts the identifier of the next submission on a project
func NextNumber(ctx context.Context, source ReferenceSource, project, department, requestType string) (models.NextNumberResponse, error) {
	projects, err := source.Projects(ctx)
	if err != nil {
		return models.NextNumberResponse{}, fmt.Errorf("failed to load projects: %w", err)
	}
	p, ok := projects[project]
	if !ok {
		return models.NextNumberResponse{}, fmt.Errorf("%q: %w", project, ErrUnknownProject)
	}
	return counters.Predict(project, department, requestType, p.Counters), nil
}
