package models

// CreateIRRequest is the body of POST /irs (IR or CPR submission)
type CreateIRRequest struct {
	Project        string `json:"project" validate:"required"`
	Department     string `json:"department" validate:"required"`
	User           string `json:"user" validate:"required"`
	Desc           string `json:"desc" validate:"required,max=2000"`
	Location       string `json:"location" validate:"required"`
	Floor          string `json:"floor,omitempty" validate:"required_if=RequestType IR"` // IR only
	RequestType    string `json:"requestType" validate:"required,oneof=IR CPR"`
	EngineerNote   string `json:"engineerNote,omitempty"`
	SDNote         string `json:"sdNote,omitempty"`
	Tags           Tags   `json:"tags"`
	ConcreteGrade  string `json:"concreteGrade,omitempty"`  // CPR only
	PouringElement string `json:"pouringElement,omitempty"` // CPR only
	IsEdited       bool   `json:"isEdited,omitempty"`
}

// CreateIRResponse is returned by POST /irs
type CreateIRResponse struct {
	Success bool         `json:"success"`
	IR      ServerRecord `json:"ir"`
	Message string       `json:"message,omitempty"`
	Counter int          `json:"counter,omitempty"`
}

// CreateRevisionRequest is the body of POST /revs
type CreateRevisionRequest struct {
	Project           string `json:"project" validate:"required"`
	RevText           string `json:"revText" validate:"required,max=50"`
	RevNote           string `json:"revNote,omitempty"`
	User              string `json:"user" validate:"required"`
	Department        string `json:"department" validate:"required"`
	RevisionType      string `json:"revisionType" validate:"required,oneof=IR_REVISION CPR_REVISION"`
	ParentRequestType string `json:"parentRequestType" validate:"required,oneof=IR CPR"`
}

// CreateRevisionResponse is returned by POST /revs
type CreateRevisionResponse struct {
	Success bool         `json:"success"`
	Rev     ServerRecord `json:"rev"`
	Message string       `json:"message,omitempty"`
}

// MarkDoneRequest is the body of POST /irs/mark-done and POST /revs/mark-done
type MarkDoneRequest struct {
	IrNo         string `json:"irNo"`
	Role         string `json:"role,omitempty"`
	DownloadedBy string `json:"downloadedBy,omitempty"`
}

// UpdateIRNumberRequest is the body of POST /irs/update-ir-number
type UpdateIRNumberRequest struct {
	IrNo        string `json:"irNo"`
	NewSerial   int    `json:"newSerial"`
	Project     string `json:"project"`
	Department  string `json:"department"`
	RequestType string `json:"requestType"`
	Role        string `json:"role,omitempty"`
}

// UpdateIRNumberResponse is returned by POST /irs/update-ir-number
type UpdateIRNumberResponse struct {
	Success bool   `json:"success"`
	OldIrNo string `json:"oldIrNo"`
	NewIrNo string `json:"newIrNo"`
}

// DeleteRecordRequest is the body of POST /irs/delete and POST /revs/delete
type DeleteRecordRequest struct {
	IrNo  string `json:"irNo,omitempty"`
	RevNo string `json:"revNo,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ArchiveRequest is the body of POST /archive and POST /unarchive
type ArchiveRequest struct {
	IrNo       string `json:"irNo"`
	Role       string `json:"role"`
	IsRevision bool   `json:"isRevision"`
}

// UnarchiveResponse is returned by POST /unarchive; Item carries the restored document
type UnarchiveResponse struct {
	Success bool          `json:"success"`
	Item    *ServerRecord `json:"item,omitempty"`
}

// GenerateWordRequest is the body of POST /generate-word
type GenerateWordRequest struct {
	IrNo           string `json:"irNo"`
	OldIrNo        string `json:"oldIrNo,omitempty"`
	Desc           string `json:"desc"`
	ReceivedDate   string `json:"receivedDate"`
	Project        string `json:"project"`
	Department     string `json:"department"`
	DownloadedBy   string `json:"downloadedBy"`
	RequestType    string `json:"requestType"`
	Floor          string `json:"floor,omitempty"`
	ConcreteGrade  string `json:"concreteGrade,omitempty"`
	PouringElement string `json:"pouringElement,omitempty"`
}

// RejectRecordRequest is the body a DC sends to reject a record
type RejectRecordRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RenumberRecordRequest is the body a DC sends to renumber an IR
type RenumberRecordRequest struct {
	NewID string `json:"new_id" validate:"required"`
}

// BulkActionRequest applies one action to several records in sequence
type BulkActionRequest struct {
	Action string   `json:"action" validate:"required,oneof=approve reject archive unarchive delete"`
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Reason string   `json:"reason,omitempty"`
}

// BulkActionResponse reports the per-item outcome of a bulk action
type BulkActionResponse struct {
	Action    string             `json:"action"`
	Results   []BulkActionResult `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// BulkActionResult is the outcome for one item of a bulk action
type BulkActionResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DocumentRequest asks for the Word document of a record, optionally under a custom number
type DocumentRequest struct {
	CustomNumber string `json:"custom_number,omitempty"`
}

// DocumentResponse points at a generated document or export
type DocumentResponse struct {
	ID          string `json:"id,omitempty"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
	Warning     string `json:"warning,omitempty"`
}
