package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/facultyflow/internal/model"
)

// Wire types mirror the backend's JSON. They are decoded exactly once, here,
// into the non-nullable view-models in package model; nothing downstream
// re-derives defaults.

// number decodes any JSON value into a finite float64. Missing, null,
// non-numeric and non-finite values become 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = number(f)
	return nil
}

// timestamp decodes the backend's date formats. Unparseable values
// become the zero time.
type timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	*t = timestamp{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return nil
}

func (t timestamp) time() time.Time { return time.Time(t) }

type wireUserRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type wireUser struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

type wireTask struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueAt       timestamp    `json:"dueAt"`
	Priority    number       `json:"priority"`
	Status      string       `json:"status"`
	Locked      bool         `json:"locked"`
	Links       []string     `json:"links"`
	AssignedTo  *wireUserRef `json:"assignedTo"`
	AssignedBy  *wireUserRef `json:"assignedBy"`
	CreatedAt   timestamp    `json:"createdAt"`
	UpdatedAt   timestamp    `json:"updatedAt"`
}

type wireSubmission struct {
	ID          int64        `json:"id"`
	TaskID      int64        `json:"taskId"`
	Summary     string       `json:"summary"`
	Links       []string     `json:"links"`
	SubmittedAt timestamp    `json:"submittedAt"`
	Decision    string       `json:"decision"`
	Note        string       `json:"note"`
	ReviewNote  string       `json:"reviewNote"`
	ReviewedAt  timestamp    `json:"reviewedAt"`
	ReviewedBy  *wireUserRef `json:"reviewedBy"`
}

type wirePortfolio struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"userId"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
	UserRole          string    `json:"userRole"`
	UserDepartment    string    `json:"userDepartment"`
	Bio               string    `json:"bio"`
	WebsiteURL        string    `json:"websiteUrl"`
	LinkedinURL       string    `json:"linkedinUrl"`
	GithubURL         string    `json:"githubUrl"`
	TwitterURL        string    `json:"twitterUrl"`
	ResearchInterests string    `json:"researchInterests"`
	Achievements      string    `json:"achievements"`
	Education         string    `json:"education"`
	Experience        string    `json:"experience"`
	CreatedAt         timestamp `json:"createdAt"`
	UpdatedAt         timestamp `json:"updatedAt"`
}

type wireFacultyPerformance struct {
	FacultyID             int64     `json:"facultyId"`
	FacultyName           string    `json:"facultyName"`
	FacultyEmail          string    `json:"facultyEmail"`
	Department            string    `json:"department"`
	TasksAssigned         number    `json:"tasksAssigned"`
	TasksCompleted        number    `json:"tasksCompleted"`
	TasksInProgress       number    `json:"tasksInProgress"`
	TasksOverdue          number    `json:"tasksOverdue"`
	AverageCompletionTime number    `json:"averageCompletionTime"`
	PerformanceScore      number    `json:"performanceScore"`
	LastActiveDate        timestamp `json:"lastActiveDate"`
}

type wirePerformanceSummary struct {
	TotalFaculty            number                    `json:"totalFaculty"`
	TotalTasksAssigned      number                    `json:"totalTasksAssigned"`
	TotalTasksCompleted     number                    `json:"totalTasksCompleted"`
	AveragePerformanceScore number                    `json:"averagePerformanceScore"`
	FacultyPerformances     []*wireFacultyPerformance `json:"facultyPerformances"`
}

type wireTaskTrend struct {
	Month     string `json:"month"`
	Assigned  number `json:"assigned"`
	Completed number `json:"completed"`
	Overdue   number `json:"overdue"`
}

func decodeUserRef(w *wireUserRef) model.UserRef {
	if w == nil {
		return model.UserRef{}
	}
	return model.UserRef{ID: w.ID, Name: w.Name, Email: w.Email, Department: w.Department}
}

func decodeUser(w wireUser) model.User {
	role, ok := model.ParseRole(w.Role)
	if !ok {
		role = model.Role(strings.ToUpper(strings.TrimSpace(w.Role)))
	}
	return model.User{
		ID:         w.ID,
		Name:       w.Name,
		Email:      w.Email,
		Department: w.Department,
		Role:       role,
	}
}

func decodeLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func decodeTask(w wireTask) model.Task {
	status, ok := model.ParseStatus(w.Status)
	if !ok {
		status = model.TaskStatus(strings.ToUpper(strings.TrimSpace(w.Status)))
	}
	return model.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		DueAt:       w.DueAt.time(),
		Priority:    int(w.Priority),
		Status:      status,
		Locked:      w.Locked,
		Links:       decodeLinks(w.Links),
		AssignedTo:  decodeUserRef(w.AssignedTo),
		AssignedBy:  decodeUserRef(w.AssignedBy),
		CreatedAt:   w.CreatedAt.time(),
		UpdatedAt:   w.UpdatedAt.time(),
	}
}

func decodeTasks(ws []*wireTask) []model.Task {
	out := make([]model.Task, 0, len(ws))
	for _, w := range ws {
		if w == nil {
			continue
		}
		out = append(out, decodeTask(*w))
	}
	return out
}

func decodeSubmission(w wireSubmission) model.Submission {
	decision := model.Decision(strings.ToUpper(strings.TrimSpace(w.Decision)))
	if decision == "" {
		decision = model.DecisionPending
	}
	note := w.Note
	if note == "" {
		note = w.ReviewNote
	}
	s := model.Submission{
		ID:          w.ID,
		TaskID:      w.TaskID,
		Summary:     w.Summary,
		Links:       decodeLinks(w.Links),
		SubmittedAt: w.SubmittedAt.time(),
		Decision:    decision,
		Note:        note,
		ReviewedAt:  w.ReviewedAt.time(),
	}
	if w.ReviewedBy != nil {
		ref := decodeUserRef(w.ReviewedBy)
		s.ReviewedBy = &ref
	}
	return s
}

func decodeSubmissions(ws []*wireSubmission) []model.Submission {
	out := make([]model.Submission, 0, len(ws))
	for _, w := range ws {
		if w == nil {
			continue
		}
		out = append(out, decodeSubmission(*w))
	}
	return out
}

func decodePortfolio(w wirePortfolio) model.Portfolio {
	role, _ := model.ParseRole(w.UserRole)
	return model.Portfolio{
		ID:                w.ID,
		UserID:            w.UserID,
		UserName:          w.UserName,
		UserEmail:         w.UserEmail,
		UserRole:          role,
		UserDepartment:    w.UserDepartment,
		Bio:               w.Bio,
		ResearchInterests: w.ResearchInterests,
		Achievements:      w.Achievements,
		Education:         w.Education,
		Experience:        w.Experience,
		WebsiteURL:        w.WebsiteURL,
		LinkedinURL:       w.LinkedinURL,
		GithubURL:         w.GithubURL,
		TwitterURL:        w.TwitterURL,
		CreatedAt:         w.CreatedAt.time(),
		UpdatedAt:         w.UpdatedAt.time(),
	}
}

func decodePerformanceSummary(w wirePerformanceSummary) model.PerformanceSummary {
	rows := make([]model.FacultyPerformance, 0, len(w.FacultyPerformances))
	for _, f := range w.FacultyPerformances {
		if f == nil {
			continue
		}
		rows = append(rows, model.FacultyPerformance{
			FacultyID:             f.FacultyID,
			FacultyName:           f.FacultyName,
			FacultyEmail:          f.FacultyEmail,
			Department:            f.Department,
			TasksAssigned:         float64(f.TasksAssigned),
			TasksCompleted:        float64(f.TasksCompleted),
			TasksInProgress:       float64(f.TasksInProgress),
			TasksOverdue:          float64(f.TasksOverdue),
			AverageCompletionTime: float64(f.AverageCompletionTime),
			PerformanceScore:      float64(f.PerformanceScore),
			LastActiveDate:        f.LastActiveDate.time(),
		})
	}
	return model.PerformanceSummary{
		TotalFaculty:            float64(w.TotalFaculty),
		TotalTasksAssigned:      float64(w.TotalTasksAssigned),
		TotalTasksCompleted:     float64(w.TotalTasksCompleted),
		AveragePerformanceScore: float64(w.AveragePerformanceScore),
		FacultyPerformances:     rows,
	}
}

func decodeTaskTrends(ws []*wireTaskTrend) []model.TaskTrend {
	out := make([]model.TaskTrend, 0, len(ws))
	for _, w := range ws {
		if w == nil {
			continue
		}
		out = append(out, model.TaskTrend{
			Month:     w.Month,
			Assigned:  float64(w.Assigned),
			Completed: float64(w.Completed),
			Overdue:   float64(w.Overdue),
		})
	}
	return out
}
