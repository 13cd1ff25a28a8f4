package console

import (
	"fmt"
	"io"
	"strings"

	"grinkit/internal/output"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"

	labelWidth = 22
	noteWidth  = 40
)

// Print renders the report view to the writer in a compact format.
func Print(w io.Writer, view output.ReportView) {
	title := "GRINKIT REPORT"
	if view.Title != "" {
		title += " " + view.Title
	}
	fmt.Fprintf(w, "%s■ %s%s\n", colorCyan, title, colorReset)

	for _, sec := range view.Sections {
		fmt.Fprintf(w, "%s─ %s%s\n", colorCyan, sec.Title, colorReset)
		for _, it := range sec.Items {
			printItem(w, it)
		}
	}

	status := ""
	if view.Status != "" {
		status = fmt.Sprintf(" | Status: %s%s%s", colorFor(view.Status), view.Status, colorReset)
	}
	fmt.Fprintf(w, "%s─ Summary%s: Vertices: %d | Edges: %d%s\n\n", colorCyan, colorReset, view.VertexNum, view.EdgeNum, status)
}

func printItem(w io.Writer, it output.Item) {
	label := truncate(it.Label, labelWidth-2)
	dots := strings.Repeat("·", labelWidth-len(label))

	val := ""
	switch {
	case it.Unit != "":
		val = fmt.Sprintf("%.1f%s", it.Value, it.Unit)
	case it.Value != 0 || it.Status != "" || it.Note == "":
		val = fmt.Sprintf("%g", it.Value)
	}

	note := ""
	if it.Note != "" {
		note = "  " + truncate(it.Note, noteWidth)
	}

	fmt.Fprintf(w, "  %s%s%s%s %10s%s%s\n", label, colorCyan, dots, colorReset, val, statusMarker(it.Status), note)
}

func statusMarker(status string) string {
	color := colorFor(status)
	switch status {
	case "":
		return ""
	case "OK":
		return fmt.Sprintf(" %s✓%s", color, colorReset)
	case "WARN":
		return fmt.Sprintf(" %s!%s", color, colorReset)
	case "CRIT":
		return fmt.Sprintf(" %sX%s", color, colorReset)
	default:
		return fmt.Sprintf(" %s%s%s", color, status[:1], colorReset)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func colorFor(status string) string {
	switch status {
	case "WARN":
		return colorYellow
	case "CRIT":
		return colorRed
	default:
		return colorGreen
	}
}
