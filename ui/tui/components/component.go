package components

// Widget is a resizable piece of a page. The model owns its data and
// asks for a fresh rendering on every frame.
type Widget interface {
	Resize(w, h int)
	View() string
}

var _ Widget = (*DegreeWidget)(nil)
