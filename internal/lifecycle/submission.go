package lifecycle

import (
	"sort"

	"github.com/nhle/facultyflow/internal/model"
)

// SortedSubmissions returns a copy of subs ordered by submittedAt, newest
// first. Submissions with equal times keep their history order.
func SortedSubmissions(subs []model.Submission) []model.Submission {
	out := append([]model.Submission(nil), subs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// SelectRelevantSubmission picks the submission to show for a task in
// status. For COMPLETED tasks the newest APPROVED one is preferred, for
// SUBMITTED tasks the newest PENDING one; otherwise, or when no match
// exists, the newest overall. ok is false only when subs is empty.
func SelectRelevantSubmission(status model.TaskStatus, subs []model.Submission) (model.Submission, bool) {
	if len(subs) == 0 {
		return model.Submission{}, false
	}
	sorted := SortedSubmissions(subs)

	var want model.Decision
	switch status {
	case model.StatusCompleted:
		want = model.DecisionApproved
	case model.StatusSubmitted:
		want = model.DecisionPending
	default:
		return sorted[0], true
	}

	for _, s := range sorted {
		if s.Decision == want {
			return s, true
		}
	}
	return sorted[0], true
}

// PendingSubmission returns the first submission in history order still
// awaiting review.
func PendingSubmission(subs []model.Submission) (model.Submission, bool) {
	for _, s := range subs {
		if s.IsPending() {
			return s, true
		}
	}
	return model.Submission{}, false
}
