package models

// Counters maps a department code (ARCH, ST, ELECT, MECH, SURV) or CPR to the last
// serial allocated for it within a project
type Counters map[string]int

// Project represents a construction project as stored by the IR API, keyed by name
type Project struct {
	Name        string   `json:"name" validate:"required,max=50"` // Primary key
	Description string   `json:"description,omitempty"`           // Optional free text
	Locations   []string `json:"locations"`                       // Location names offered during submission
	Counters    Counters `json:"counters"`                        // Per-department serial counters
}

// ProjectsResponse is the body of GET /projects
type ProjectsResponse struct {
	Projects map[string]Project `json:"projects"`
}

// SetCounterRequest represents an admin edit of a single project counter
type SetCounterRequest struct {
	Key   string `json:"key" validate:"required,oneof=ARCH ST ELECT MEP MECH SURV CPR"`
	Value int    `json:"value" validate:"gte=0"`
}

// NextNumberResponse carries the predicted next identifier for a submission form
type NextNumberResponse struct {
	Project     string `json:"project"`
	Department  string `json:"department"`
	RequestType string `json:"request_type"`
	CounterKey  string `json:"counter_key"`
	NextSerial  int    `json:"next_serial"`
	PredictedID string `json:"predicted_id"`
	ShortID     string `json:"short_id"`
}
