package views

import (
	"fmt"
	"strings"

	"grinkit/ui/tui/state"
	"grinkit/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleView shows the activity log.
type ConsoleView struct{}

func (v ConsoleView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Activity Log")

	availableHeight := max(props.Height-lipgloss.Height(header)-4, 1)
	totalLines := len(s.ConsoleLogs)
	scrollY := clamp(props.ScrollY, 0, max(totalLines-availableHeight, 0))
	end := min(scrollY+availableHeight, totalLines)

	box := lipgloss.NewStyle().
		Width(max(props.Width-4, 10)).
		Height(availableHeight).
		Padding(0, 1).
		Render(strings.Join(s.ConsoleLogs[scrollY:end], "\n"))

	footerText := fmt.Sprintf("Scroll: %d/%d • Press 'b' to go back", scrollY, totalLines)
	if totalLines > availableHeight {
		footerText += " • Use ↑/↓ to scroll"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 2).Render(box),
		styles.HintStyle.Render(footerText),
	)
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
