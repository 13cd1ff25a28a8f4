package views

import (
	"fmt"

	"grinkit/internal/engine"
	"grinkit/internal/output"
	"grinkit/ui/tui/state"
	"grinkit/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// ChecksView shows the health check results.
type ChecksView struct{}

func (v ChecksView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Health Checks")

	var body string
	switch {
	case s.Checking:
		body = lipgloss.NewStyle().Padding(1, 2).Render(props.SpinnerView + " running checks...")
	case s.Err != nil:
		body = lipgloss.NewStyle().Padding(1, 2).Render(fmt.Sprintf("Error: %v", s.Err))
	case s.Results == nil:
		body = lipgloss.NewStyle().Padding(1, 2).Render("No checks run yet.")
	default:
		sec := output.CheckSection(s.Results)
		worst := engine.Worst(s.Results)
		status := styles.ColorForStatus(worst).Render(worst)
		body = lipgloss.JoinVertical(lipgloss.Left,
			card("Checks", &sec),
			lipgloss.NewStyle().PaddingLeft(2).Render(fmt.Sprintf("Overall: %s • Last run: %s", status, s.LastCheck.Format("15:04:05"))),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		styles.HintStyle.Render("[R] Run again • Press 'b' to go back"),
	)
}
