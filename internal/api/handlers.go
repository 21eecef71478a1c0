package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leadstream/leadstream/internal/database"
	"github.com/leadstream/leadstream/internal/types"
	"github.com/teris-io/shortid"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateAccountRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateLeadRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Company       string `json:"company"`
	Source        string `json:"source"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	Score         int    `json:"score"`
	ExpectedValue int    `json:"expected_value"`
	AssignedTo    int    `json:"assigned_to"`
}

type UpdateLeadRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Company       string `json:"company"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	Score         int    `json:"score"`
	ExpectedValue int    `json:"expected_value"`
	AssignedTo    int    `json:"assigned_to"`
}

type CreateNoteRequest struct {
	Content string `json:"content"`
}

type CreateDealRequest struct {
	LeadId int    `json:"lead_id"`
	Title  string `json:"title"`
	Stage  string `json:"stage"`
	Value  int    `json:"value"`
}

type UpdateDealRequest struct {
	Stage string `json:"stage"`
}

type CreateTaskRequest struct {
	LeadId      int       `json:"lead_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	AssignedTo  int       `json:"assigned_to"`
	DueAt       time.Time `json:"due_at"`
}

type UpdateTaskRequest struct {
	Status string `json:"status"`
}

var (
	leadStatuses   = []string{"new", "contacted", "qualified", "proposal", "negotiation", "closed_won", "closed_lost"}
	leadSources    = []string{"website", "referral", "social", "email", "phone", "event", "other"}
	priorities     = []string{"low", "medium", "high", "urgent"}
	dealStages     = []string{"qualified", "proposal", "negotiation", "closed_won", "closed_lost"}
	taskTypes      = []string{"call", "email", "meeting", "follow_up", "demo", "other"}
	taskStatuses   = []string{"open", "in_progress", "done", "cancelled"}
	defaultLeadCap = 100
)

func (s *LeadStreamApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func userFromDb(u database.User) types.User {
	return types.User{
		Id:           u.Id,
		Name:         u.Name,
		EmailAddress: u.EmailAddress,
		Role:         types.ParseRole(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func leadFromDb(l database.Lead) types.Lead {
	return types.Lead{
		Id:              l.Id,
		ExternalId:      l.ExternalId,
		Name:            l.Name,
		EmailAddress:    l.EmailAddress,
		Phone:           l.Phone,
		Company:         l.Company,
		Source:          l.Source,
		Status:          l.Status,
		Priority:        l.Priority,
		Score:           l.Score,
		ExpectedValue:   l.ExpectedValue,
		AssignedTo:      l.AssignedTo,
		CreatedBy:       l.CreatedBy,
		LastContactedAt: l.LastContactedAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func noteFromDb(n database.Note) types.Note {
	return types.Note{
		Id:        n.Id,
		LeadId:    n.LeadId,
		Content:   n.Content,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
	}
}

func dealFromDb(d database.Deal) types.Deal {
	return types.Deal{
		Id:        d.Id,
		LeadId:    d.LeadId,
		Title:     d.Title,
		Stage:     d.Stage,
		Value:     d.Value,
		OwnerId:   d.OwnerId,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func taskFromDb(t database.Task) types.Task {
	return types.Task{
		Id:          t.Id,
		LeadId:      t.LeadId,
		Title:       t.Title,
		Description: t.Description,
		Type:        t.Type,
		Priority:    t.Priority,
		Status:      t.Status,
		AssignedTo:  t.AssignedTo,
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s *LeadStreamApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *LeadStreamApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Name:         req.Name,
		EmailAddress: req.Email,
		Role:         string(types.RoleMember),
		PasswordHash: pwdHash,
	}

	newUser, err := s.db.CreateAccount(params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, userFromDb(newUser))
}

func (s *LeadStreamApp) account(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userId, ok := UserId(r.Context())
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		user, err := s.db.GetAccountById(userId)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, userFromDb(user))
	case http.MethodPut:
		userId, ok := UserId(r.Context())
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		var updateAccountReq UpdateAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&updateAccountReq); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if updateAccountReq.Name == "" || updateAccountReq.Password == "" {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		pwdHash, err := hashPassword(updateAccountReq.Password)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		params := database.UpdateAccountParams{
			UserId:       userId,
			Name:         updateAccountReq.Name,
			PasswordHash: pwdHash,
		}

		dbUser, err := s.db.UpdateAccount(params)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, userFromDb(dbUser))
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *LeadStreamApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userFromDb(user))
}

func (s *LeadStreamApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultExp)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.UpdateLastActive(dbUser.Id); err != nil {
		s.log.Printf("update last active: %v", err)
	}

	http.SetCookie(w, createJwtCookie(token, defaultExp))

	s.writeJson(w, http.StatusOK, userFromDb(dbUser))
}

func (s *LeadStreamApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired one
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeadStreamApp) listLeads(w http.ResponseWriter, r *http.Request) {
	assignedTo, _ := strconv.Atoi(r.URL.Query().Get("assigned_to"))
	status := r.URL.Query().Get("status")

	dbLeads, err := s.db.ListLeads(assignedTo, status, defaultLeadCap)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	leads := make([]types.Lead, len(dbLeads))
	for i, l := range dbLeads {
		leads[i] = leadFromDb(l)
	}

	s.writeJson(w, http.StatusOK, leads)
}

func (s *LeadStreamApp) createLead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" || req.Email == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Source == "" {
		req.Source = "website"
	}
	if req.Status == "" {
		req.Status = "new"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if req.Score == 0 {
		req.Score = 50
	}
	if req.AssignedTo == 0 {
		req.AssignedTo = userId
	}

	if !slices.Contains(leadSources, req.Source) ||
		!slices.Contains(leadStatuses, req.Status) ||
		!slices.Contains(priorities, req.Priority) ||
		req.Score < 0 || req.Score > 100 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId, err := shortid.Generate()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbLead, err := s.db.CreateLead(database.CreateLeadParams{
		ExternalId:    externalId,
		Name:          req.Name,
		EmailAddress:  req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Source:        req.Source,
		Status:        req.Status,
		Priority:      req.Priority,
		Score:         req.Score,
		ExpectedValue: req.ExpectedValue,
		AssignedTo:    req.AssignedTo,
		CreatedBy:     userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	lead := leadFromDb(dbLead)
	s.rt.NotifyAll("newLead", map[string]any{
		"lead":        lead,
		"assigned_to": lead.AssignedTo,
	})

	s.log.Printf("new lead created: %d", lead.Id)
	s.writeJson(w, http.StatusCreated, lead)
}

func (s *LeadStreamApp) getLead(w http.ResponseWriter, r *http.Request) {
	leadId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbLead, err := s.db.GetLeadById(leadId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, leadFromDb(dbLead))
}

func (s *LeadStreamApp) updateLead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	leadId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	curLead, err := s.db.GetLeadById(leadId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	req := UpdateLeadRequest{
		Name:          curLead.Name,
		Email:         curLead.EmailAddress,
		Phone:         curLead.Phone,
		Company:       curLead.Company,
		Status:        curLead.Status,
		Priority:      curLead.Priority,
		Score:         curLead.Score,
		ExpectedValue: curLead.ExpectedValue,
		AssignedTo:    curLead.AssignedTo,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !slices.Contains(leadStatuses, req.Status) ||
		!slices.Contains(priorities, req.Priority) ||
		req.Score < 0 || req.Score > 100 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbLead, err := s.db.UpdateLead(database.UpdateLeadParams{
		LeadId:        leadId,
		Name:          req.Name,
		EmailAddress:  req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Status:        req.Status,
		Priority:      req.Priority,
		Score:         req.Score,
		ExpectedValue: req.ExpectedValue,
		AssignedTo:    req.AssignedTo,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	lead := leadFromDb(dbLead)
	s.rt.NotifyAll("leadUpdated", map[string]any{
		"lead_id":    lead.Id,
		"lead":       lead,
		"updated_by": userId,
	})

	s.writeJson(w, http.StatusOK, lead)
}

func (s *LeadStreamApp) deleteLead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	leadId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteLead(leadId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.rt.NotifyAll("leadDeleted", map[string]any{
		"lead_id":    leadId,
		"deleted_by": userId,
	})

	s.log.Printf("lead deleted: %d by user %d", leadId, userId)
	w.WriteHeader(http.StatusNoContent)
}

func (s *LeadStreamApp) listNotes(w http.ResponseWriter, r *http.Request) {
	leadId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbNotes, err := s.db.ListNotesByLeadId(leadId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notes := make([]types.Note, len(dbNotes))
	for i, n := range dbNotes {
		notes[i] = noteFromDb(n)
	}

	s.writeJson(w, http.StatusOK, notes)
}

func (s *LeadStreamApp) createNote(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	leadId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetLeadById(leadId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbNote, err := s.db.CreateNote(database.CreateNoteParams{
		LeadId:    leadId,
		Content:   req.Content,
		CreatedBy: userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	note := noteFromDb(dbNote)
	s.rt.NotifyAll("leadNoteAdded", map[string]any{
		"lead_id":  leadId,
		"note":     note,
		"added_by": userId,
	})

	s.writeJson(w, http.StatusCreated, note)
}

func (s *LeadStreamApp) listDeals(w http.ResponseWriter, _ *http.Request) {
	dbDeals, err := s.db.ListDeals()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	deals := make([]types.Deal, len(dbDeals))
	for i, d := range dbDeals {
		deals[i] = dealFromDb(d)
	}

	s.writeJson(w, http.StatusOK, deals)
}

func (s *LeadStreamApp) createDeal(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Stage == "" {
		req.Stage = "qualified"
	}
	if !slices.Contains(dealStages, req.Stage) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbDeal, err := s.db.CreateDeal(database.CreateDealParams{
		LeadId:  req.LeadId,
		Title:   req.Title,
		Stage:   req.Stage,
		Value:   req.Value,
		OwnerId: userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	deal := dealFromDb(dbDeal)
	s.rt.NotifyAll("dealCreated", map[string]any{
		"deal":       deal,
		"created_by": userId,
	})

	s.writeJson(w, http.StatusCreated, deal)
}

func (s *LeadStreamApp) updateDealStage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dealId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !slices.Contains(dealStages, req.Stage) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbDeal, err := s.db.UpdateDealStage(dealId, req.Stage)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	deal := dealFromDb(dbDeal)
	s.rt.NotifyAll("dealUpdated", map[string]any{
		"deal_id":    deal.Id,
		"stage":      deal.Stage,
		"updated_by": userId,
	})

	s.writeJson(w, http.StatusOK, deal)
}

func (s *LeadStreamApp) listTasks(w http.ResponseWriter, r *http.Request) {
	assignedTo, _ := strconv.Atoi(r.URL.Query().Get("assigned_to"))

	dbTasks, err := s.db.ListTasks(assignedTo)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tasks := make([]types.Task, len(dbTasks))
	for i, t := range dbTasks {
		tasks[i] = taskFromDb(t)
	}

	s.writeJson(w, http.StatusOK, tasks)
}

func (s *LeadStreamApp) createTask(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Type == "" {
		req.Type = "other"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if req.AssignedTo == 0 {
		req.AssignedTo = userId
	}

	if !slices.Contains(taskTypes, req.Type) || !slices.Contains(priorities, req.Priority) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbTask, err := s.db.CreateTask(database.CreateTaskParams{
		LeadId:      req.LeadId,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		DueAt:       req.DueAt,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	task := taskFromDb(dbTask)
	s.rt.NotifyAll("taskCreated", map[string]any{
		"task":       task,
		"created_by": userId,
	})

	s.writeJson(w, http.StatusCreated, task)
}

func (s *LeadStreamApp) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	taskId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !slices.Contains(taskStatuses, req.Status) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbTask, err := s.db.UpdateTaskStatus(taskId, req.Status)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	task := taskFromDb(dbTask)
	s.rt.NotifyAll("taskUpdated", map[string]any{
		"task_id":    task.Id,
		"status":     task.Status,
		"updated_by": userId,
	})

	s.writeJson(w, http.StatusOK, task)
}

// serveWs authenticates the connection attempt, resolves the user
// identity and hands the upgraded connection to the realtime hub. A
// failed token check rejects the attempt before any realtime state is
// created.
func (s *LeadStreamApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	if err := s.db.UpdateLastActive(user.Id); err != nil {
		s.log.Printf("update last active: %v", err)
	}

	s.rt.ServeConn(userFromDb(user), conn)
}
