package models

// Tags holds the free-form attachment tags an engineer adds to a submission
type Tags struct {
	Engineer []string `json:"engineer"`
	SD       []string `json:"sd"`
}

// ServerRecord is the raw IR, CPR or revision document as returned by the IR API.
// Active and archived variants share the same shape.
type ServerRecord struct {
	ID                string `json:"id,omitempty"`
	IrNo              string `json:"irNo,omitempty"`
	RevNo             string `json:"revNo,omitempty"`
	OldIrNo           string `json:"oldIrNo,omitempty"`
	Project           string `json:"project,omitempty"`
	Department        string `json:"department,omitempty"`
	DeptAbbr          string `json:"deptAbbr,omitempty"`
	User              string `json:"user,omitempty"`
	Desc              string `json:"desc,omitempty"`
	Location          string `json:"location,omitempty"`
	Floor             string `json:"floor,omitempty"`
	RequestType       string `json:"requestType,omitempty"`
	ConcreteGrade     string `json:"concreteGrade,omitempty"`
	PouringElement    string `json:"pouringElement,omitempty"`
	Tags              *Tags  `json:"tags,omitempty"`
	EngineerNote      string `json:"engineerNote,omitempty"`
	SDNote            string `json:"sdNote,omitempty"`
	Status            string `json:"status,omitempty"`
	RejectionReason   string `json:"rejectionReason,omitempty"`
	IsDone            bool   `json:"isDone"`
	IsArchived        bool   `json:"isArchived"`
	IsRevision        bool   `json:"isRevision,omitempty"`
	IsCPRRevision     bool   `json:"isCPRRevision,omitempty"`
	ArchivedByDC      bool   `json:"archivedByDC,omitempty"`
	ArchivedByEngr    bool   `json:"archivedByEngineer,omitempty"`
	SentAt            string `json:"sentAt,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
	CompletedAt       string `json:"completedAt,omitempty"`
	DownloadedAt      string `json:"downloadedAt,omitempty"`
	DownloadedBy      string `json:"downloadedBy,omitempty"`
	ArchivedAt        string `json:"archivedAt,omitempty"`
	ArchivedBy        string `json:"archivedBy,omitempty"`
	RevisionType      string `json:"revisionType,omitempty"`
	ParentRequestType string `json:"parentRequestType,omitempty"`
	UserRevNumber     string `json:"userRevNumber,omitempty"`
	RevText           string `json:"revText,omitempty"`
	DisplayNumber     string `json:"displayNumber,omitempty"`
	RevNote           string `json:"revNote,omitempty"`
}

// Record is the unified view-model shape every IR, CPR and revision is normalized into
type Record struct {
	ID                string `json:"id"`
	ShortID           string `json:"shortId"`
	DisplayNumber     string `json:"displayNumber"`
	OldID             string `json:"oldId,omitempty"`
	Project           string `json:"project"`
	Department        string `json:"department"`
	DeptAbbr          string `json:"deptAbbr"`
	User              string `json:"user"`
	Desc              string `json:"desc"`
	Location          string `json:"location"`
	Floor             string `json:"floor"`
	RequestType       string `json:"requestType"`
	ConcreteGrade     string `json:"concreteGrade,omitempty"`
	PouringElement    string `json:"pouringElement,omitempty"`
	Tags              Tags   `json:"tags"`
	EngineerNote      string `json:"engineerNote,omitempty"`
	SDNote            string `json:"sdNote,omitempty"`
	RevisionType      string `json:"revisionType,omitempty"`
	ParentRequestType string `json:"parentRequestType,omitempty"`
	UserRevNumber     string `json:"userRevNumber,omitempty"`
	RevNote           string `json:"revNote,omitempty"`
	Status            Status `json:"status"`
	RejectionReason   string `json:"rejectionReason,omitempty"`
	IsRevision        bool   `json:"isRevision"`
	IsCPR             bool   `json:"isCPR"`
	IsCPRRevision     bool   `json:"isCPRRevision"`
	IsDone            bool   `json:"isDone"`
	IsArchived        bool   `json:"isArchived"`
	SentAt            string `json:"sentAt,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
	DownloadedAt      string `json:"downloadedAt,omitempty"`
	DownloadedBy      string `json:"downloadedBy,omitempty"`
	ArchivedAt        string `json:"archivedAt,omitempty"`
	ArchivedBy        string `json:"archivedBy,omitempty"`
}

// Status is the lifecycle state of a record as seen by the service layer
type Status string

// Record lifecycle states
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

// Request type constants
const (
	RequestTypeIR  = "IR"
	RequestTypeCPR = "CPR"
)

// Revision type constants
const (
	RevisionTypeIR  = "IR_REVISION"
	RevisionTypeCPR = "CPR_REVISION"
)

// RecordListResponse is returned by the record listing endpoints
type RecordListResponse struct {
	Records    []Record `json:"records"`
	TotalCount int      `json:"total_count"`
}
