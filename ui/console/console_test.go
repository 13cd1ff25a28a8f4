package console

import (
	"bytes"
	"strings"
	"testing"

	"grinkit/internal/output"
)

func TestColorFor(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"WARN", colorYellow},
		{"CRIT", colorRed},
		{"OK", colorGreen},
		{"", colorGreen},
		{"UNKNOWN", colorGreen},
	}

	for _, tt := range tests {
		result := colorFor(tt.status)
		if result != tt.expected {
			t.Errorf("colorFor(%q) = %q; want %q", tt.status, result, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		n        int
		expected string
	}{
		{"person", 10, "person"},
		{"Relation Violations", 10, "Relatio..."},
		{"exactly10!", 10, "exactly10!"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.n, got, tt.expected)
		}
	}
}

func TestPrint(t *testing.T) {
	view := output.ReportView{
		Title: "memory",
		Sections: []output.Section{
			{
				Title: "Checks",
				Items: []output.Item{
					{Label: "Dangling Edges", Value: 0, Status: "OK"},
					{Label: "Empty Types", Value: 2, Status: "WARN", Note: "vertex type tag"},
					{Label: "Relation Violations", Value: 3, Status: "CRIT"},
					{Label: "Isolated Vertices", Value: 12.5, Unit: "%", Status: "OK"},
					{Label: "Capabilities", Note: "directed,row"},
				},
			},
		},
		VertexNum: 6,
		EdgeNum:   9,
		Status:    "CRIT",
	}

	var buf bytes.Buffer
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Print panicked: %v", r)
		}
	}()
	Print(&buf, view)

	out := buf.String()
	for _, want := range []string{
		"GRINKIT REPORT memory",
		"─ Checks",
		"12.5%",
		"vertex type tag",
		"directed,row",
		"Vertices: 6 | Edges: 9",
		colorRed + "CRIT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
