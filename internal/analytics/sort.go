package analytics

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nhle/facultyflow/internal/model"
)

// UnknownName stands in for a faculty member the server sent without a
// name.
const UnknownName = "Unknown"

// DisplayName returns the row's name, or UnknownName when it is blank.
func DisplayName(row model.FacultyPerformance) string {
	if name := strings.TrimSpace(row.FacultyName); name != "" {
		return name
	}
	return UnknownName
}

// SortKey is a sortable column of the performance table.
type SortKey string

const (
	SortName           SortKey = "facultyName"
	SortEmail          SortKey = "facultyEmail"
	SortDepartment     SortKey = "department"
	SortAssigned       SortKey = "tasksAssigned"
	SortCompleted      SortKey = "tasksCompleted"
	SortInProgress     SortKey = "tasksInProgress"
	SortOverdue        SortKey = "tasksOverdue"
	SortCompletionTime SortKey = "averageCompletionTime"
	SortScore          SortKey = "performanceScore"
	SortLastActive     SortKey = "lastActiveDate"
)

// SortKeys lists every column in table order.
var SortKeys = []SortKey{
	SortName, SortEmail, SortDepartment, SortAssigned, SortCompleted,
	SortInProgress, SortOverdue, SortCompletionTime, SortScore, SortLastActive,
}

// ParseSortKey accepts a column name, case-insensitively.
func ParseSortKey(s string) (SortKey, bool) {
	for _, k := range SortKeys {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, true
		}
	}
	return "", false
}

// Order is a sort direction.
type Order int

const (
	Desc Order = iota
	Asc
)

func (o Order) String() string {
	if o == Asc {
		return "asc"
	}
	return "desc"
}

// value is one cell as the sort sees it: a string, a number, or missing.
type value struct {
	str     string
	num     float64
	isNum   bool
	missing bool
}

func cell(row model.FacultyPerformance, key SortKey) value {
	text := func(s string) value {
		s = strings.TrimSpace(s)
		return value{str: s, missing: s == ""}
	}
	num := func(f float64) value { return value{num: finite(f), isNum: true} }

	switch key {
	case SortName:
		return text(DisplayName(row))
	case SortEmail:
		return text(row.FacultyEmail)
	case SortDepartment:
		return text(row.Department)
	case SortAssigned:
		return num(row.TasksAssigned)
	case SortCompleted:
		return num(row.TasksCompleted)
	case SortInProgress:
		return num(row.TasksInProgress)
	case SortOverdue:
		return num(row.TasksOverdue)
	case SortCompletionTime:
		return num(row.AverageCompletionTime)
	case SortScore:
		return num(row.PerformanceScore)
	case SortLastActive:
		if row.LastActiveDate.IsZero() {
			return value{missing: true}
		}
		return value{num: float64(row.LastActiveDate.Unix()), isNum: true}
	}
	return value{missing: true}
}

// SortFaculty returns rows ordered by key. Numbers compare numerically
// and strings by English collation. A missing value compares greater
// than any present one, so it sorts last ascending and first
// descending. Ties keep their input order.
func SortFaculty(rows []model.FacultyPerformance, key SortKey, order Order) []model.FacultyPerformance {
	out := append([]model.FacultyPerformance(nil), rows...)
	col := collate.New(language.English, collate.Loose)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := cell(out[i], key), cell(out[j], key)

		var c int
		switch {
		case a.missing && b.missing:
			return false
		case a.missing:
			c = 1
		case b.missing:
			c = -1
		case a.isNum && b.isNum:
			switch {
			case a.num < b.num:
				c = -1
			case a.num > b.num:
				c = 1
			}
		default:
			c = col.CompareString(a.str, b.str)
		}
		if order == Desc {
			c = -c
		}
		return c < 0
	})
	return out
}

// Table is the sort state of the performance table. The zero value
// sorts by score, highest first.
type Table struct {
	Key   SortKey
	Order Order
}

// SortBy selects key. Selecting the current key flips the direction; a
// new key starts descending.
func (t *Table) SortBy(key SortKey) {
	if t.key() == key {
		if t.Order == Asc {
			t.Order = Desc
		} else {
			t.Order = Asc
		}
		return
	}
	t.Key = key
	t.Order = Desc
}

// Rows returns rows in the table's order.
func (t Table) Rows(rows []model.FacultyPerformance) []model.FacultyPerformance {
	return SortFaculty(rows, t.key(), t.Order)
}

func (t Table) key() SortKey {
	if t.Key == "" {
		return SortScore
	}
	return t.Key
}
