package command

import (
	"fmt"
	"sort"
	"strings"
)

// Name identifies a palette command.
type Name string

const (
	Refresh   Name = "refresh"
	Quit      Name = "quit"
	Goto      Name = "goto"
	Filter    Name = "filter"
	Search    Name = "search"
	Clear     Name = "clear"
	Completed Name = "completed"
	NewTask   Name = "new-task"
	Sort      Name = "sort"
	Order     Name = "order"
	MarkRead  Name = "read"
	Theme     Name = "theme"
	Logout    Name = "logout"
)

// Command is a parsed palette entry. Sort and Order accept an optional
// argument; without one they cycle.
type Command struct {
	Name Name
	Arg  string
}

var aliases = map[string]Name{
	"refresh":          Refresh,
	"sync":             Refresh,
	"quit":             Quit,
	"q":                Quit,
	"filter":           Filter,
	"status":           Filter,
	"search":           Search,
	"find":             Search,
	"clear":            Clear,
	"clear filters":    Clear,
	"completed":        Completed,
	"toggle completed": Completed,
	"new task":         NewTask,
	"new":              NewTask,
	"sort":             Sort,
	"order":            Order,
	"read":             MarkRead,
	"mark read":        MarkRead,
	"theme":            Theme,
	"logout":           Logout,
	"sign out":         Logout,
}

var areas = map[string]bool{
	"dashboard": true,
	"tasks":     true,
	"portfolio": true,
	"analytics": true,
	"settings":  true,
}

// Parse reads a palette entry. The verb is case-insensitive; the
// argument keeps its case.
func Parse(s string) (Command, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Command{}, fmt.Errorf("empty command")
	}
	lower := strings.ToLower(s)

	if n, ok := aliases[lower]; ok {
		if requiresArg(n) {
			return Command{}, fmt.Errorf("%s needs an argument", lower)
		}
		return Command{Name: n}, nil
	}
	if areas[lower] {
		return Command{Name: Goto, Arg: lower}, nil
	}

	verb, arg, _ := strings.Cut(s, " ")
	arg = strings.TrimSpace(arg)
	switch v := strings.ToLower(verb); v {
	case "goto", "open":
		if !areas[strings.ToLower(arg)] {
			return Command{}, fmt.Errorf("unknown area %q", arg)
		}
		return Command{Name: Goto, Arg: strings.ToLower(arg)}, nil
	default:
		n, ok := aliases[v]
		if !ok || arg == "" {
			return Command{}, fmt.Errorf("unknown command %q", s)
		}
		switch n {
		case Filter, Search, Sort, Order, Theme:
			return Command{Name: n, Arg: arg}, nil
		}
		return Command{}, fmt.Errorf("%s takes no argument", v)
	}
}

func requiresArg(n Name) bool {
	return n == Filter || n == Search || n == Theme
}

// Suggest returns the verbs and areas starting with prefix, shortest
// first.
func Suggest(prefix string) []string {
	p := strings.ToLower(strings.TrimLeft(prefix, " "))
	if p == "" {
		return nil
	}
	var out []string
	for k := range aliases {
		if strings.HasPrefix(k, p) && k != p {
			out = append(out, k)
		}
	}
	for k := range areas {
		if strings.HasPrefix(k, p) && k != p {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
