package report

import (
	"strings"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/security"
)

// Filename returns the report PDF filename for a session:
// roadeye_<sessionID>_<start>_to_<end>_report.pdf with YYYY-MM-DD dates.
// The session id is sanitized before embedding.
func Filename(sessionID string, start, end time.Time) string {
	return "roadeye_" + security.SanitizeFilename(sessionID) +
		"_" + start.Format("2006-01-02") +
		"_to_" + end.Format("2006-01-02") +
		"_report.pdf"
}

// PlotFilename returns the sibling route-plot filename for a report PDF.
func PlotFilename(pdfName string) string {
	return strings.TrimSuffix(pdfName, "_report.pdf") + "_route.png"
}
