package forms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/facultyflow/internal/model"
)

// Assignees collects the people seen on tasks and portfolios, one entry
// per user ID, sorted by label. There is no directory endpoint, so these
// are the only names the client knows.
func Assignees(tasks []model.Task, portfolios []model.Portfolio) []Assignee {
	seen := make(map[int64]string)
	add := func(id int64, name, email string) {
		if id <= 0 {
			return
		}
		label := strings.TrimSpace(name)
		if label == "" {
			label = email
		}
		if label == "" {
			label = fmt.Sprintf("User #%d", id)
		}
		if _, ok := seen[id]; !ok {
			seen[id] = label
		}
	}
	for _, t := range tasks {
		add(t.AssignedTo.ID, t.AssignedTo.Name, t.AssignedTo.Email)
	}
	for _, p := range portfolios {
		add(p.UserID, p.UserName, p.UserEmail)
	}

	out := make([]Assignee, 0, len(seen))
	for id, label := range seen {
		out = append(out, Assignee{ID: id, Label: fmt.Sprintf("%s (#%d)", label, id)})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Label), strings.ToLower(out[j].Label)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}
