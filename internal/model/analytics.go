package model

import "time"

// FacultyPerformance is one faculty member's server-computed metrics.
type FacultyPerformance struct {
	FacultyID             int64     `json:"facultyId"`
	FacultyName           string    `json:"facultyName"`
	FacultyEmail          string    `json:"facultyEmail"`
	Department            string    `json:"department"`
	TasksAssigned         float64   `json:"tasksAssigned"`
	TasksCompleted        float64   `json:"tasksCompleted"`
	TasksInProgress       float64   `json:"tasksInProgress"`
	TasksOverdue          float64   `json:"tasksOverdue"`
	AverageCompletionTime float64   `json:"averageCompletionTime"`
	PerformanceScore      float64   `json:"performanceScore"`
	LastActiveDate        time.Time `json:"lastActiveDate"`
}

// PerformanceSummary is the aggregate returned by the analytics endpoint.
// All numbers are finite; missing values are zero.
type PerformanceSummary struct {
	TotalFaculty            float64              `json:"totalFaculty"`
	TotalTasksAssigned      float64              `json:"totalTasksAssigned"`
	TotalTasksCompleted     float64              `json:"totalTasksCompleted"`
	AveragePerformanceScore float64              `json:"averagePerformanceScore"`
	FacultyPerformances     []FacultyPerformance `json:"facultyPerformances"`
}

// TaskTrend is one month of the task trend series.
type TaskTrend struct {
	Month     string  `json:"month"`
	Assigned  float64 `json:"assigned"`
	Completed float64 `json:"completed"`
	Overdue   float64 `json:"overdue"`
}

// AnalyticsFilters narrows analytics queries. Dates are YYYY-MM-DD.
type AnalyticsFilters struct {
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	Department string `json:"department,omitempty"`
}
