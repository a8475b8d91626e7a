package models

// LocationRule describes one location of a project: its type and the floors an
// engineer may pick when submitting an IR there
type LocationRule struct {
	Type   string   `json:"type"`
	Floors []string `json:"floors"`
}

// LocationRules maps project -> location -> rule
type LocationRules map[string]map[string]LocationRule

// LocationRulesResponse is the body of GET /location-rules
type LocationRulesResponse struct {
	Rules LocationRules `json:"location_rules"`
}

// SaveLocationRulesRequest is the body of POST /location-rules
type SaveLocationRulesRequest struct {
	Project string                  `json:"project" validate:"required"`
	Rules   map[string]LocationRule `json:"rules" validate:"required"`
}
