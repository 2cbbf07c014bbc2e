package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"sync", Command{Name: Refresh}},
		{"  Analytics ", Command{Name: Goto, Arg: "analytics"}},
		{"open portfolio", Command{Name: Goto, Arg: "portfolio"}},
		{"filter in progress", Command{Name: Filter, Arg: "in progress"}},
		{"search Lab Safety", Command{Name: Search, Arg: "Lab Safety"}},
		{"new task", Command{Name: NewTask}},
		{"sort lastActiveDate", Command{Name: Sort, Arg: "lastActiveDate"}},
		{"order", Command{Name: Order}},
		{"sort", Command{Name: Sort}},
		{"mark read", Command{Name: MarkRead}},
		{"theme light", Command{Name: Theme, Arg: "light"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "launch", "open reports", "logout now", "filter"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"sort", "sync", "search", "status", "settings", "sign out"}, Suggest("s"))
	assert.Equal(t, []string{"analytics"}, Suggest("ana"))
	assert.Empty(t, Suggest(""))
	assert.Empty(t, Suggest("analytics"))
}
