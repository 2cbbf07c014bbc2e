package ui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	mdMu sync.Mutex
	// Renderers are cached by style and wrap width. A fixed style avoids
	// the terminal background query WithAutoStyle performs.
	mdRenderers = map[string]*glamour.TermRenderer{}
	mdStyle     = "dark"
)

// SetMarkdownStyle selects the glamour style ("dark", "light", "notty").
func SetMarkdownStyle(style string) {
	style = strings.ToLower(strings.TrimSpace(style))
	switch style {
	case "dark", "light", "notty", "ascii":
	default:
		style = "dark"
	}
	mdMu.Lock()
	mdStyle = style
	mdMu.Unlock()
}

// RenderMarkdown renders free text written by users (task descriptions,
// submission summaries, portfolio sections). On any rendering error the
// input is returned unchanged.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	mdMu.Lock()
	key := mdStyle + ":" + strconv.Itoa(width)
	r := mdRenderers[key]
	style := mdStyle
	mdMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
