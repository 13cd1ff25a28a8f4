package views

import (
	"grinkit/ui/tui/state"
)

func RenderMenu(s state.AppState, width, height, cursor int, animCursor float64, mouseX, mouseY int) string {
	v := MenuView{}
	return v.Render(s, ViewProps{
		Width:      width,
		Height:     height,
		MenuCursor: cursor,
		AnimCursor: animCursor,
		MouseX:     mouseX,
		MouseY:     mouseY,
	})
}

func RenderSchema(s state.AppState, spinnerView string) string {
	v := SchemaView{}
	return v.Render(s, ViewProps{SpinnerView: spinnerView})
}

func RenderVertices(s state.AppState, width, cursor int) string {
	v := VerticesView{}
	return v.Render(s, ViewProps{Width: width, RowCursor: cursor})
}

func RenderVertex(s state.AppState, width, cursor int) string {
	v := VertexView{}
	return v.Render(s, ViewProps{Width: width, RowCursor: cursor})
}

func RenderChecks(s state.AppState, spinnerView string, width int) string {
	v := ChecksView{}
	return v.Render(s, ViewProps{Width: width, SpinnerView: spinnerView})
}

func RenderDegrees(s state.AppState, chartView string, width int) string {
	v := DegreesView{}
	return v.Render(s, ViewProps{Width: width, ChartView: chartView})
}

func RenderRawConsole(s state.AppState, width, height, scrollY int) string {
	v := ConsoleView{}
	return v.Render(s, ViewProps{
		Width:   width,
		Height:  height,
		ScrollY: scrollY,
	})
}
