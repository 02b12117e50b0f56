package report

import (
	"testing"
	"time"
)

func TestFilename(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		sessionID string
		want      string
	}{
		{"sess-42", "roadeye_sess-42_2026-03-14_to_2026-03-15_report.pdf"},
		{"a/b c", "roadeye_a_b_c_2026-03-14_to_2026-03-15_report.pdf"},
		{"", "roadeye_unknown_2026-03-14_to_2026-03-15_report.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.sessionID, start, end); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.sessionID, got, tt.want)
		}
	}
}

func TestPlotFilename(t *testing.T) {
	got := PlotFilename("roadeye_sess-42_2026-03-14_to_2026-03-15_report.pdf")
	want := "roadeye_sess-42_2026-03-14_to_2026-03-15_route.png"
	if got != want {
		t.Errorf("PlotFilename = %q, want %q", got, want)
	}
}
