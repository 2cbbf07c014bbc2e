package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown("   \n", 40))
}

func TestRenderMarkdownKeepsText(t *testing.T) {
	SetMarkdownStyle("notty")
	t.Cleanup(func() { SetMarkdownStyle("dark") })

	out := RenderMarkdown("Grade the **midterm** papers", 60)
	assert.Contains(t, out, "midterm")
	assert.False(t, strings.HasPrefix(out, "\n"))
}

func TestSetMarkdownStyleFallsBack(t *testing.T) {
	SetMarkdownStyle("neon")
	t.Cleanup(func() { SetMarkdownStyle("dark") })

	mdMu.Lock()
	defer mdMu.Unlock()
	assert.Equal(t, "dark", mdStyle)
}

func TestContentHeightNeverNegative(t *testing.T) {
	assert.Equal(t, 0, NewLayout(80, 2).ContentHeight())
	assert.Equal(t, 21, NewLayout(80, 24).ContentHeight())
}
