// Package apitest provides an in-memory fake of the task-management REST
// API for tests. It enforces the same lifecycle rules as the real backend
// so clients can be exercised end to end over HTTP.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/nhle/facultyflow/internal/model"
)

var signingKey = []byte("apitest-secret")

// Claims is the token payload issued by the fake backend.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Call is one request observed by the server.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type account struct {
	user     model.User
	password string
}

type canned struct {
	status int
	body   string
}

// Server is a fake backend. All mutating helpers are safe for concurrent
// use with in-flight requests.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	accounts    map[int64]*account
	revoked     map[string]bool
	tasks       map[int64]*model.Task
	submissions map[int64][]model.Submission
	portfolios  map[int64]*model.Portfolio
	summary     model.PerformanceSummary
	trends      []model.TaskTrend
	overrides   map[string]canned
	gates       map[string]chan struct{}
	calls       []Call
	nextTaskID  int64
	nextSubID   int64
	nextPortID  int64
	clock       time.Time
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts:    make(map[int64]*account),
		revoked:     make(map[string]bool),
		tasks:       make(map[int64]*model.Task),
		submissions: make(map[int64][]model.Submission),
		portfolios:  make(map[int64]*model.Portfolio),
		overrides:   make(map[string]canned),
		gates:       make(map[string]chan struct{}),
		trends:      []model.TaskTrend{},
		nextTaskID:  1,
		nextSubID:   1,
		nextPortID:  1,
		clock:       time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API root (server URL plus /api).
func (s *Server) URL() string { return s.srv.URL + "/api" }

// Close shuts the server down so later requests fail at the transport.
func (s *Server) Close() { s.srv.Close() }

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.record, s.override, s.gate)

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authenticate)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	authed.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/by-user/{userID:[0-9]+}", s.handleTasksByUser).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{id:[0-9]+}", s.handleGetTask).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{id:[0-9]+}/start", s.handleStart).Methods(http.MethodPatch)
	authed.HandleFunc("/tasks/{id:[0-9]+}/submit", s.handleSubmit).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{id:[0-9]+}/review", s.handleReview).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{id:[0-9]+}/submissions", s.handleSubmissions).Methods(http.MethodGet)

	authed.HandleFunc("/portfolio/me", s.handleGetMyPortfolio).Methods(http.MethodGet)
	authed.HandleFunc("/portfolio/me", s.handleSaveMyPortfolio).Methods(http.MethodPost)
	authed.HandleFunc("/portfolio/me", s.handleDeleteMyPortfolio).Methods(http.MethodDelete)
	authed.HandleFunc("/portfolio/all", s.handleAllPortfolios).Methods(http.MethodGet)
	authed.HandleFunc("/portfolio/user/{userID:[0-9]+}", s.handleGetUserPortfolio).Methods(http.MethodGet)
	authed.HandleFunc("/portfolio/user/{userID:[0-9]+}", s.handleSaveUserPortfolio).Methods(http.MethodPost)
	authed.HandleFunc("/portfolio/user/{userID:[0-9]+}", s.handleDeleteUserPortfolio).Methods(http.MethodDelete)

	authed.HandleFunc("/analytics/faculty-performance", s.handlePerformance).Methods(http.MethodGet)
	authed.HandleFunc("/analytics/task-trends", s.handleTrends).Methods(http.MethodGet)

	return r
}

// --- seeding and inspection ---

// AddUser registers an account that can log in with password.
func (s *Server) AddUser(u model.User, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// Token issues a valid bearer token for a registered user.
func (s *Server) Token(t testing.TB, userID int64) string {
	t.Helper()
	s.mu.Lock()
	acc, ok := s.accounts[userID]
	s.mu.Unlock()
	if !ok {
		t.Fatalf("apitest: unknown user %d", userID)
	}
	tok, err := issueToken(acc.user, time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("apitest: issuing token: %v", err)
	}
	return tok
}

// ExpiredToken issues a token for userID whose exp claim is in the past.
func (s *Server) ExpiredToken(t testing.TB, userID int64) string {
	t.Helper()
	s.mu.Lock()
	acc := s.accounts[userID]
	s.mu.Unlock()
	if acc == nil {
		t.Fatalf("apitest: unknown user %d", userID)
	}
	tok, err := issueToken(acc.user, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("apitest: issuing token: %v", err)
	}
	return tok
}

// Revoke makes the server answer 401 for token from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// AddTask stores a task. Zero IDs and timestamps are filled in.
func (s *Server) AddTask(t model.Task) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextTaskID
	}
	if t.ID >= s.nextTaskID {
		s.nextTaskID = t.ID + 1
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.Links == nil {
		t.Links = []string{}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.tick()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	cp := t
	s.tasks[t.ID] = &cp
	return cp
}

// AddSubmission appends a submission to a task's history.
func (s *Server) AddSubmission(taskID int64, sub model.Submission) model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == 0 {
		sub.ID = s.nextSubID
		s.nextSubID++
	}
	sub.TaskID = taskID
	if sub.Decision == "" {
		sub.Decision = model.DecisionPending
	}
	if sub.Links == nil {
		sub.Links = []string{}
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.tick()
	}
	s.submissions[taskID] = append(s.submissions[taskID], sub)
	return sub
}

// SetPortfolio stores a portfolio for p.UserID.
func (s *Server) SetPortfolio(p model.Portfolio) model.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextPortID
		s.nextPortID++
	}
	cp := p
	s.portfolios[p.UserID] = &cp
	return cp
}

// SetAnalytics sets the analytics payloads.
func (s *Server) SetAnalytics(summary model.PerformanceSummary, trends []model.TaskTrend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	if trends == nil {
		trends = []model.TaskTrend{}
	}
	s.trends = trends
}

// Respond makes every request matching method and path (without the /api
// prefix) answer with status and the raw body.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = canned{status: status, body: body}
}

// Hold blocks requests matching method and path until the returned
// release function is called or the request is cancelled.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[method+" "+path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, method+" "+path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Task returns the server's copy of a task.
func (s *Server) Task(id int64) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return *t, true
}

// SubmissionsFor returns the submission history of a task.
func (s *Server) SubmissionsFor(taskID int64) []model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Submission(nil), s.submissions[taskID]...)
}

// Calls returns every request seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts requests with the given method and path.
func (s *Server) CallCount(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// LastCall returns the most recent request with the given method and path.
func (s *Server) LastCall(method, path string) (Call, bool) {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method && calls[i].Path == path {
			return calls[i], true
		}
	}
	return Call{}, false
}

// tick advances the fake clock by one minute. Callers hold s.mu.
func (s *Server) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func issueToken(u model.User, exp time.Time) (string, error) {
	claims := &Claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func apiPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api")
}

// --- middleware ---

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   apiPath(r),
			Query:  r.URL.RawQuery,
			Body:   string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		c, ok := s.overrides[r.Method+" "+apiPath(r)]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(c.status)
		_, _ = w.Write([]byte(c.body))
	})
}

func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ch, ok := s.gates[r.Method+" "+apiPath(r)]
		s.mu.Unlock()
		if ok {
			select {
			case <-ch:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return signingKey, nil
		})
		if err != nil || !tok.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		id, _ := strconv.ParseInt(claims.Subject, 10, 64)

		s.mu.Lock()
		acc, ok := s.accounts[id]
		revoked := s.revoked[raw]
		s.mu.Unlock()
		if !ok || revoked {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), acc.user)))
	})
}

// --- handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	var found *account
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) && acc.password == req.Password {
			found = acc
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	tok, err := issueToken(found.user, time.Now().Add(2*time.Hour))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) visibleTasks(u model.User, status string, assignee int64) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if u.Role == model.RoleFaculty && t.AssignedTo.ID != u.ID {
			continue
		}
		if assignee != 0 && t.AssignedTo.ID != assignee {
			continue
		}
		if status != "" && string(t.Status) != status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	writeJSON(w, http.StatusOK, s.visibleTasks(u, r.URL.Query().Get("status"), 0))
}

func (s *Server) handleTasksByUser(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	id := pathID(r, "userID")
	if u.Role == model.RoleFaculty && u.ID != id {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeJSON(w, http.StatusOK, s.visibleTasks(u, r.URL.Query().Get("status"), id))
}

func (s *Server) lookupTask(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	t, ok := s.tasks[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return nil, false
	}
	u := userFrom(r.Context())
	if u.Role == model.RoleFaculty && t.AssignedTo.ID != u.ID {
		writeError(w, http.StatusForbidden, "Access denied")
		return nil, false
	}
	return t, true
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.lookupTask(w, r)
	var cp model.Task
	if ok {
		cp = *t
	}
	s.mu.Unlock()
	if ok {
		writeJSON(w, http.StatusOK, cp)
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	if !u.Role.In(model.RoleHOD, model.RoleAdmin) {
		writeError(w, http.StatusForbidden, "Only HOD or ADMIN can create tasks")
		return
	}
	var in model.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	s.mu.Lock()
	assignee, ok := s.accounts[in.AssignedToUserID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "Assignee not found")
		return
	}
	priority := in.Priority
	if priority == 0 {
		priority = model.DefaultPriority
	}
	t := s.AddTask(model.Task{
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
		Priority:    priority,
		Status:      model.StatusPending,
		Links:       in.Links,
		AssignedTo:  assignee.user.Ref(),
		AssignedBy:  u.Ref(),
	})
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTask(w, r)
	if !ok {
		return
	}
	if u.Role != model.RoleFaculty || t.AssignedTo.ID != u.ID {
		writeError(w, http.StatusForbidden, "Only the assignee can start this task")
		return
	}
	if t.Status != model.StatusPending && t.Status != model.StatusOverdue {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Task cannot be started from %s", t.Status))
		return
	}
	t.Status = model.StatusInProgress
	t.UpdatedAt = s.tick()
	writeJSON(w, http.StatusOK, *t)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	var req struct {
		Summary string   `json:"summary"`
		Links   []string `json:"links"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTask(w, r)
	if !ok {
		return
	}
	if u.Role != model.RoleFaculty || t.AssignedTo.ID != u.ID {
		writeError(w, http.StatusForbidden, "Only the assignee can submit this task")
		return
	}
	if t.Status != model.StatusInProgress {
		writeError(w, http.StatusBadRequest, "Task must be in progress to submit")
		return
	}
	if strings.TrimSpace(req.Summary) == "" {
		writeError(w, http.StatusBadRequest, "Summary is required")
		return
	}
	if req.Links == nil {
		req.Links = []string{}
	}
	now := s.tick()
	s.submissions[t.ID] = append(s.submissions[t.ID], model.Submission{
		ID:          s.nextSubID,
		TaskID:      t.ID,
		Summary:     req.Summary,
		Links:       req.Links,
		SubmittedAt: now,
		Decision:    model.DecisionPending,
	})
	s.nextSubID++
	t.Status = model.StatusSubmitted
	t.UpdatedAt = now
	writeJSON(w, http.StatusOK, *t)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	var req struct {
		Decision string `json:"decision"`
		Note     string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTask(w, r)
	if !ok {
		return
	}
	if u.Role != model.RoleHOD {
		writeError(w, http.StatusForbidden, "Only HOD can review submissions")
		return
	}
	if t.Status != model.StatusSubmitted {
		writeError(w, http.StatusBadRequest, "Task has no submission awaiting review")
		return
	}
	decision, ok := model.ParseDecision(req.Decision)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid decision")
		return
	}
	subs := s.submissions[t.ID]
	idx := -1
	for i := range subs {
		if subs[i].Decision == model.DecisionPending {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusBadRequest, "No pending submission")
		return
	}

	now := s.tick()
	ref := u.Ref()
	subs[idx].Decision = decision
	subs[idx].Note = req.Note
	subs[idx].ReviewedAt = now
	subs[idx].ReviewedBy = &ref
	if decision == model.DecisionApproved {
		t.Status = model.StatusCompleted
	} else {
		t.Status = model.StatusInProgress
	}
	t.UpdatedAt = now
	writeJSON(w, http.StatusOK, subs[idx])
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.lookupTask(w, r)
	var subs []model.Submission
	if ok {
		subs = append([]model.Submission{}, s.submissions[t.ID]...)
	}
	s.mu.Unlock()
	if ok {
		writeJSON(w, http.StatusOK, subs)
	}
}

func (s *Server) portfolioFor(w http.ResponseWriter, userID int64) {
	s.mu.Lock()
	p, ok := s.portfolios[userID]
	var cp model.Portfolio
	if ok {
		cp = *p
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) savePortfolio(w http.ResponseWriter, r *http.Request, userID int64) {
	var in model.PortfolioInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[userID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	now := s.tick()
	p, exists := s.portfolios[userID]
	if !exists {
		p = &model.Portfolio{ID: s.nextPortID, UserID: userID, CreatedAt: now}
		s.nextPortID++
		s.portfolios[userID] = p
	}
	p.UserName = acc.user.Name
	p.UserEmail = acc.user.Email
	p.UserRole = acc.user.Role
	p.UserDepartment = acc.user.Department
	p.Bio = in.Bio
	p.ResearchInterests = in.ResearchInterests
	p.Achievements = in.Achievements
	p.Education = in.Education
	p.Experience = in.Experience
	p.WebsiteURL = in.WebsiteURL
	p.LinkedinURL = in.LinkedinURL
	p.GithubURL = in.GithubURL
	p.TwitterURL = in.TwitterURL
	p.UpdatedAt = now
	cp := *p
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) deletePortfolio(w http.ResponseWriter, userID int64) {
	s.mu.Lock()
	_, ok := s.portfolios[userID]
	delete(s.portfolios, userID)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMyPortfolio(w http.ResponseWriter, r *http.Request) {
	s.portfolioFor(w, userFrom(r.Context()).ID)
}

func (s *Server) handleSaveMyPortfolio(w http.ResponseWriter, r *http.Request) {
	s.savePortfolio(w, r, userFrom(r.Context()).ID)
}

func (s *Server) handleDeleteMyPortfolio(w http.ResponseWriter, r *http.Request) {
	s.deletePortfolio(w, userFrom(r.Context()).ID)
}

func requireManager(w http.ResponseWriter, r *http.Request) bool {
	if !userFrom(r.Context()).Role.In(model.RoleHOD, model.RoleAdmin) {
		writeError(w, http.StatusForbidden, "Access denied")
		return false
	}
	return true
}

func (s *Server) handleGetUserPortfolio(w http.ResponseWriter, r *http.Request) {
	s.portfolioFor(w, pathID(r, "userID"))
}

func (s *Server) handleSaveUserPortfolio(w http.ResponseWriter, r *http.Request) {
	if requireManager(w, r) {
		s.savePortfolio(w, r, pathID(r, "userID"))
	}
}

func (s *Server) handleDeleteUserPortfolio(w http.ResponseWriter, r *http.Request) {
	if requireManager(w, r) {
		s.deletePortfolio(w, pathID(r, "userID"))
	}
}

func (s *Server) handleAllPortfolios(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	s.mu.Lock()
	out := make([]model.Portfolio, 0, len(s.portfolios))
	for _, p := range s.portfolios {
		out = append(out, *p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	s.mu.Lock()
	summary := s.summary
	s.mu.Unlock()
	if summary.FacultyPerformances == nil {
		summary.FacultyPerformances = []model.FacultyPerformance{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if !requireManager(w, r) {
		return
	}
	s.mu.Lock()
	trends := s.trends
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, trends)
}
