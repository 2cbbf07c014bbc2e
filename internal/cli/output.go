package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/theme"
)

// writeOut prints v as indented JSON with --json, otherwise runs human.
func writeOut(cmd *cobra.Command, app *App, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if app.JSON || human == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

// renderTable draws rows under headers with a rounded border. Colors are
// dropped when w is not a terminal.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, theme.DimmedStyle.Render("(none)"))
		return
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// renderFields prints label/value pairs aligned on the label column.
func renderFields(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		if len(f[0]) > width {
			width = len(f[0])
		}
	}
	label := lipgloss.NewStyle().Bold(true).Width(width + 2)
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintln(w, label.Render(f[0]+":")+f[1])
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
