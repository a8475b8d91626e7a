package models

// GeneralDescription is the per-department reference list of work descriptions
type GeneralDescription struct {
	Base   []string `json:"base"`
	Floors []string `json:"floors"`
}

// CPRDescription is the CPR-specific reference table (keyed by Civil)
type CPRDescription struct {
	Base     []string `json:"base"`
	Grades   []string `json:"grades"`
	Elements []string `json:"elements"`
}

// GeneralDescriptionsResponse is the body of GET /admin/general-descriptions
type GeneralDescriptionsResponse struct {
	Descriptions    map[string]GeneralDescription `json:"general_descriptions"`
	CPRDescriptions map[string]CPRDescription     `json:"general_descriptions_cpr,omitempty"`
}

// SaveGeneralDescriptionRequest is the body of POST /admin/general-descriptions
type SaveGeneralDescriptionRequest struct {
	Department   string             `json:"department" validate:"required"`
	Descriptions GeneralDescription `json:"descriptions"`
	Type         string             `json:"type,omitempty" validate:"omitempty,oneof=regular cpr"`
}

// DescriptionOptions is the body of GET /general-descriptions for one department
// and request type. Grades and elements are only filled for CPRs.
type DescriptionOptions struct {
	Base     []string `json:"base"`
	Floors   []string `json:"floors"`
	Grades   []string `json:"grades,omitempty"`
	Elements []string `json:"elements,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// FormOptions gathers everything the submission form needs for one project
type FormOptions struct {
	Project      string                  `json:"project"`
	Locations    []string                `json:"locations"`
	Rules        map[string]LocationRule `json:"rules"`
	Descriptions DescriptionOptions      `json:"descriptions"`
	Next         NextNumberResponse      `json:"next"`
}
