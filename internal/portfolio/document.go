package portfolio

import (
	"fmt"
	"strings"

	"github.com/nhle/facultyflow/internal/model"
)

// Markdown renders p as a markdown document. Empty sections are left out.
func Markdown(p model.Portfolio) string {
	var b strings.Builder

	name := strings.TrimSpace(p.UserName)
	if name == "" {
		name = fmt.Sprintf("User #%d", p.UserID)
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	var meta []string
	for _, s := range []string{p.UserEmail, string(p.UserRole), p.UserDepartment} {
		if s = strings.TrimSpace(s); s != "" {
			meta = append(meta, s)
		}
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))
	}

	sections := []struct{ title, body string }{
		{"Bio", p.Bio},
		{"Research Interests", p.ResearchInterests},
		{"Achievements", p.Achievements},
		{"Education", p.Education},
		{"Experience", p.Experience},
	}
	for _, s := range sections {
		if body := strings.TrimSpace(s.body); body != "" {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.title, body)
		}
	}

	links := []struct{ label, url string }{
		{"Website", p.WebsiteURL},
		{"LinkedIn", p.LinkedinURL},
		{"GitHub", p.GithubURL},
		{"Twitter", p.TwitterURL},
	}
	var lines []string
	for _, l := range links {
		if u := strings.TrimSpace(l.url); u != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", l.label, u))
		}
	}
	if len(lines) > 0 {
		b.WriteString("## Links\n\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
