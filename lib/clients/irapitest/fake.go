// Package irapitest provides an in-memory IR API for tests of the lambdas and
// the console. It keeps the IR API's bookkeeping: serial allocation, archive
// moves and renumbering raise the project counters.
package irapitest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"irtracker/lib/clients"
	"irtracker/lib/counters"
	"irtracker/lib/ircodec"
	"irtracker/lib/models"
)

// Fake implements clients.IRAPIClientInterface
type Fake struct {
	mu sync.Mutex

	IRs          []models.ServerRecord
	Revisions    []models.ServerRecord
	Archived     []models.ServerRecord
	ProjectList  map[string]models.Project
	Rules        models.LocationRules
	Descriptions models.GeneralDescriptionsResponse
	Options      models.DescriptionOptions
	UserList     []models.User
	Passwords    map[string]string
	Word         []byte

	// Errors forces a method, by name, to fail
	Errors map[string]error
	Calls  []string
}

var _ clients.IRAPIClientInterface = (*Fake)(nil)

// New returns an empty fake
func New() *Fake {
	return &Fake{
		ProjectList:  map[string]models.Project{},
		Rules:        models.LocationRules{},
		Descriptions: models.GeneralDescriptionsResponse{Descriptions: map[string]models.GeneralDescription{}},
		Passwords:    map[string]string{},
		Errors:       map[string]error{},
		Word:         []byte("PK\x03\x04docx"),
	}
}

// AddUser registers an account that can log in
func (f *Fake) AddUser(user models.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UserList = append(f.UserList, user)
	f.Passwords[user.Username] = password
}

func (f *Fake) enter(method string) error {
	f.Calls = append(f.Calls, method)
	return f.Errors[method]
}

func notFound(id string) error {
	return &clients.APIError{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("%s not found", id)}
}

func recordID(r models.ServerRecord) string {
	if r.IrNo != "" {
		return r.IrNo
	}
	return r.RevNo
}

func find(list []models.ServerRecord, id string) int {
	for i, r := range list {
		if recordID(r) == id {
			return i
		}
	}
	return -1
}

func (f *Fake) active(isRevision bool) *[]models.ServerRecord {
	if isRevision {
		return &f.Revisions
	}
	return &f.IRs
}

func (f *Fake) Login(ctx context.Context, username, password string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Login"); err != nil {
		return models.User{}, err
	}
	if stored, ok := f.Passwords[username]; ok && stored == password {
		for _, u := range f.UserList {
			if u.Username == username {
				return u, nil
			}
		}
	}
	return models.User{}, &clients.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
}

func (f *Fake) Health(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Health")
}

func (f *Fake) ListIRs(ctx context.Context) ([]models.ServerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListIRs"); err != nil {
		return nil, err
	}
	return append([]models.ServerRecord{}, f.IRs...), nil
}

func (f *Fake) ListRevisions(ctx context.Context) ([]models.ServerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListRevisions"); err != nil {
		return nil, err
	}
	return append([]models.ServerRecord{}, f.Revisions...), nil
}

func (f *Fake) ListArchive(ctx context.Context, role, user string) ([]models.ServerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListArchive"); err != nil {
		return nil, err
	}
	out := []models.ServerRecord{}
	for _, r := range f.Archived {
		if role == models.RoleDC || role == models.RoleAdmin || r.User == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) ListUserRecords(ctx context.Context, user, department string) ([]models.ServerRecord, []models.ServerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListUserRecords"); err != nil {
		return nil, nil, err
	}
	irs, revs := []models.ServerRecord{}, []models.ServerRecord{}
	for _, r := range f.IRs {
		if r.User == user {
			irs = append(irs, r)
		}
	}
	for _, r := range f.Revisions {
		if r.User == user {
			revs = append(revs, r)
		}
	}
	return irs, revs, nil
}

func (f *Fake) CreateIR(ctx context.Context, req models.CreateIRRequest) (models.CreateIRResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateIR"); err != nil {
		return models.CreateIRResponse{}, err
	}

	project := f.ProjectList[req.Project]
	key := counters.Key(req.Department, req.RequestType)
	serial := counters.NextSerial(project.Counters, key)
	id := counters.PredictID(req.Project, req.Department, req.RequestType, project.Counters)
	project.Counters, _ = counters.Set(project.Counters, key, serial)
	f.ProjectList[req.Project] = project

	record := models.ServerRecord{
		IrNo:           id,
		Project:        req.Project,
		Department:     req.Department,
		User:           req.User,
		Desc:           req.Desc,
		Location:       req.Location,
		Floor:          req.Floor,
		RequestType:    req.RequestType,
		ConcreteGrade:  req.ConcreteGrade,
		PouringElement: req.PouringElement,
		Tags:           &models.Tags{Engineer: req.Tags.Engineer, SD: req.Tags.SD},
		EngineerNote:   req.EngineerNote,
		SDNote:         req.SDNote,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}
	f.IRs = append(f.IRs, record)
	return models.CreateIRResponse{Success: true, IR: record, Counter: serial}, nil
}

func (f *Fake) CreateRevision(ctx context.Context, req models.CreateRevisionRequest) (models.CreateRevisionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateRevision"); err != nil {
		return models.CreateRevisionResponse{}, err
	}

	kind := ircodec.KindIRRev
	if req.RevisionType == models.RevisionTypeCPR {
		kind = ircodec.KindCPRRev
	}
	record := models.ServerRecord{
		RevNo:             fmt.Sprintf("REV-%s-%s-%03d", ircodec.CleanProject(req.Project), kind, len(f.Revisions)+1),
		Project:           req.Project,
		Department:        req.Department,
		User:              req.User,
		RevText:           req.RevText,
		RevNote:           req.RevNote,
		RevisionType:      req.RevisionType,
		ParentRequestType: req.ParentRequestType,
		UserRevNumber:     req.RevText,
		IsRevision:        true,
		SentAt:            time.Now().UTC().Format(time.RFC3339),
	}
	f.Revisions = append(f.Revisions, record)
	return models.CreateRevisionResponse{Success: true, Rev: record}, nil
}

func (f *Fake) MarkDone(ctx context.Context, isRevision bool, req models.MarkDoneRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("MarkDone"); err != nil {
		return err
	}
	list := f.active(isRevision)
	pos := find(*list, req.IrNo)
	if pos < 0 {
		return notFound(req.IrNo)
	}
	(*list)[pos].IsDone = true
	(*list)[pos].DownloadedBy = req.DownloadedBy
	return nil
}

func (f *Fake) RejectRecord(ctx context.Context, isRevision bool, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RejectRecord"); err != nil {
		return err
	}
	list := f.active(isRevision)
	pos := find(*list, id)
	if pos < 0 {
		return notFound(id)
	}
	(*list)[pos].Status = string(models.StatusRejected)
	(*list)[pos].RejectionReason = reason
	(*list)[pos].IsDone = true
	return nil
}

func (f *Fake) Archive(ctx context.Context, req models.ArchiveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Archive"); err != nil {
		return err
	}
	list := f.active(req.IsRevision)
	pos := find(*list, req.IrNo)
	if pos < 0 {
		return notFound(req.IrNo)
	}
	item := (*list)[pos]
	item.IsArchived = true
	item.ArchivedBy = req.Role
	*list = append((*list)[:pos], (*list)[pos+1:]...)
	f.Archived = append(f.Archived, item)
	return nil
}

func (f *Fake) Unarchive(ctx context.Context, req models.ArchiveRequest) (*models.ServerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Unarchive"); err != nil {
		return nil, err
	}
	pos := find(f.Archived, req.IrNo)
	if pos < 0 {
		return nil, notFound(req.IrNo)
	}
	item := f.Archived[pos]
	item.IsArchived = false
	f.Archived = append(f.Archived[:pos], f.Archived[pos+1:]...)
	list := f.active(req.IsRevision)
	*list = append(*list, item)
	return &item, nil
}

func (f *Fake) DeleteRecord(ctx context.Context, isRevision bool, req models.DeleteRecordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteRecord"); err != nil {
		return err
	}
	id := req.IrNo
	if isRevision {
		id = req.RevNo
	}
	for _, list := range []*[]models.ServerRecord{f.active(isRevision), &f.Archived} {
		if pos := find(*list, id); pos >= 0 {
			*list = append((*list)[:pos], (*list)[pos+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func (f *Fake) UpdateIRNumber(ctx context.Context, req models.UpdateIRNumberRequest) (models.UpdateIRNumberResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateIRNumber"); err != nil {
		return models.UpdateIRNumberResponse{}, err
	}
	pos := find(f.IRs, req.IrNo)
	if pos < 0 {
		return models.UpdateIRNumberResponse{}, notFound(req.IrNo)
	}

	newID := ircodec.Format(req.Project, ircodec.CounterDept(req.Department), req.RequestType, req.NewSerial)
	renumbered := f.IRs[pos]
	renumbered.OldIrNo = req.IrNo
	renumbered.IrNo = newID

	// set the new document, then delete the old one, as the server does
	if at := find(f.IRs, newID); at >= 0 {
		f.IRs[at] = renumbered
	} else {
		f.IRs = append(f.IRs, renumbered)
	}
	if old := find(f.IRs, req.IrNo); old >= 0 {
		f.IRs = append(f.IRs[:old], f.IRs[old+1:]...)
	}

	project := f.ProjectList[req.Project]
	project.Counters = counters.Observe(project.Counters, newID)
	f.ProjectList[req.Project] = project
	return models.UpdateIRNumberResponse{Success: true, OldIrNo: req.IrNo, NewIrNo: newID}, nil
}

func (f *Fake) GenerateWord(ctx context.Context, req models.GenerateWordRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GenerateWord"); err != nil {
		return nil, err
	}
	return append([]byte{}, f.Word...), nil
}

func (f *Fake) Projects(ctx context.Context) (map[string]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Projects"); err != nil {
		return nil, err
	}
	out := make(map[string]models.Project, len(f.ProjectList))
	for name, p := range f.ProjectList {
		out[name] = p
	}
	return out, nil
}

func (f *Fake) SaveProject(ctx context.Context, project models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SaveProject"); err != nil {
		return err
	}
	f.ProjectList[project.Name] = project
	return nil
}

func (f *Fake) Users(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Users"); err != nil {
		return nil, err
	}
	return append([]models.User{}, f.UserList...), nil
}

func (f *Fake) SaveUser(ctx context.Context, req models.UpsertUserRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SaveUser"); err != nil {
		return err
	}
	user := models.User{Username: req.Username, Fullname: req.Fullname, Department: req.Department, Role: req.Role}
	if req.Password != "" {
		f.Passwords[req.Username] = req.Password
	}
	for i, u := range f.UserList {
		if u.Username == req.Username {
			f.UserList[i] = user
			return nil
		}
	}
	f.UserList = append(f.UserList, user)
	return nil
}

func (f *Fake) DeleteUser(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteUser"); err != nil {
		return err
	}
	for i, u := range f.UserList {
		if u.Username == username {
			f.UserList = append(f.UserList[:i], f.UserList[i+1:]...)
			delete(f.Passwords, username)
			return nil
		}
	}
	return notFound(username)
}

func (f *Fake) LocationRules(ctx context.Context) (models.LocationRules, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("LocationRules"); err != nil {
		return nil, err
	}
	out := make(models.LocationRules, len(f.Rules))
	for project, rules := range f.Rules {
		out[project] = rules
	}
	return out, nil
}

func (f *Fake) SaveLocationRules(ctx context.Context, req models.SaveLocationRulesRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SaveLocationRules"); err != nil {
		return err
	}
	f.Rules[req.Project] = req.Rules
	return nil
}

func (f *Fake) GeneralDescriptions(ctx context.Context) (models.GeneralDescriptionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GeneralDescriptions"); err != nil {
		return models.GeneralDescriptionsResponse{}, err
	}
	return f.Descriptions, nil
}

func (f *Fake) SaveGeneralDescription(ctx context.Context, req models.SaveGeneralDescriptionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SaveGeneralDescription"); err != nil {
		return err
	}
	f.Descriptions.Descriptions[req.Department] = req.Descriptions
	return nil
}

func (f *Fake) DeleteGeneralDescription(ctx context.Context, department string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteGeneralDescription"); err != nil {
		return err
	}
	if _, ok := f.Descriptions.Descriptions[department]; !ok {
		return notFound(department)
	}
	delete(f.Descriptions.Descriptions, department)
	return nil
}

func (f *Fake) DescriptionOptions(ctx context.Context, project, department, requestType string) (models.DescriptionOptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DescriptionOptions"); err != nil {
		return models.DescriptionOptions{}, err
	}
	return f.Options, nil
}

// Called reports whether method was invoked
func (f *Fake) Called(method string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == method {
			return true
		}
	}
	return false
}
