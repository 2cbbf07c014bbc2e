package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBandForPriority(t *testing.T) {
	cases := map[int]PriorityBand{
		0:  PriorityLow,
		4:  PriorityLow,
		5:  PriorityMedium,
		7:  PriorityMedium,
		8:  PriorityHigh,
		10: PriorityHigh,
		12: PriorityHigh,
	}
	for p, want := range cases {
		assert.Equal(t, want, BandForPriority(p), "priority %d", p)
	}
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, Task{DueAt: past, Status: StatusInProgress}.IsOverdue(now))
	assert.True(t, Task{DueAt: past, Status: StatusSubmitted}.IsOverdue(now))
	assert.False(t, Task{DueAt: past, Status: StatusCompleted}.IsOverdue(now))
	assert.False(t, Task{DueAt: future, Status: StatusPending}.IsOverdue(now))
	assert.False(t, Task{Status: StatusPending}.IsOverdue(now), "zero due date is never overdue")
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" in_progress ")
	assert.True(t, ok)
	assert.Equal(t, StatusInProgress, st)

	_, ok = ParseStatus("archived")
	assert.False(t, ok)

	assert.Equal(t, "IN PROGRESS", StatusInProgress.Label())
}

func TestParseDecisionRejectsPending(t *testing.T) {
	d, ok := ParseDecision("approved")
	assert.True(t, ok)
	assert.Equal(t, DecisionApproved, d)

	_, ok = ParseDecision("PENDING")
	assert.False(t, ok, "a reviewer cannot choose PENDING")

	_, ok = ParseDecision("")
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("hod")
	assert.True(t, ok)
	assert.Equal(t, RoleHOD, r)
	assert.True(t, r.In(RoleHOD, RoleAdmin))
	assert.False(t, r.In(RoleFaculty))

	_, ok = ParseRole("STUDENT")
	assert.False(t, ok)
}
