package model

import (
	"strings"
	"time"
)

// Decision is the outcome of a review.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// ParseDecision accepts only the two decisions a reviewer may choose.
func ParseDecision(s string) (Decision, bool) {
	d := Decision(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DecisionApproved, DecisionRejected:
		return d, true
	}
	return "", false
}

// Submission is a faculty member's completion evidence for a task.
type Submission struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"taskId"`
	Summary     string    `json:"summary"`
	Links       []string  `json:"links"`
	SubmittedAt time.Time `json:"submittedAt"`
	Decision    Decision  `json:"decision"`
	Note        string    `json:"note,omitempty"`
	ReviewedAt  time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy  *UserRef  `json:"reviewedBy,omitempty"`
}

// IsPending reports whether the submission still awaits review.
func (s Submission) IsPending() bool { return s.Decision == DecisionPending }
