package components

import (
	"fmt"

	"grinkit/ui/tui/styles"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"
)

// DegreeWidget plots how many vertices have each degree.
type DegreeWidget struct {
	Chart  linechart.Model
	Counts []float64
	Width  int
	Height int
}

func NewDegreeWidget(width, height int) *DegreeWidget {
	// width, height, minX, maxX, minY, maxY
	return &DegreeWidget{
		Chart:  linechart.New(width, height, 0, 1, 0, 1),
		Width:  width,
		Height: height,
	}
}

// SetCounts replaces the histogram and rescales both axes to fit it.
func (d *DegreeWidget) SetCounts(counts []float64) {
	d.Counts = counts
	maxY := 1.0
	for _, c := range counts {
		maxY = max(maxY, c)
	}
	maxX := float64(max(len(counts)-1, 1))
	d.Chart = linechart.New(d.Width, d.Height, 0, maxX, 0, maxY)
}

func (d *DegreeWidget) Resize(w, h int) {
	d.Width = w
	d.Height = h
	d.Chart.Resize(w, h)
}

// MaxDegree is the largest degree with at least one vertex.
func (d *DegreeWidget) MaxDegree() int {
	for i := len(d.Counts) - 1; i >= 0; i-- {
		if d.Counts[i] > 0 {
			return i
		}
	}
	return 0
}

func (d *DegreeWidget) View() string {
	d.Chart.Clear()
	for i := 0; i < len(d.Counts)-1; i++ {
		d.Chart.DrawBrailleLine(
			canvas.Float64Point{X: float64(i), Y: d.Counts[i]},
			canvas.Float64Point{X: float64(i + 1), Y: d.Counts[i+1]},
		)
	}
	d.Chart.DrawXYAxisAndLabel()

	return styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Vertices by degree (max %d)", d.MaxDegree())),
			d.Chart.View(),
		),
	)
}
