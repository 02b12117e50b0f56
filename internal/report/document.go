package report

import (
	"bytes"
	"fmt"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/units"
)

// DefaultRowsPerPage is the default pagination for the sample table.
const DefaultRowsPerPage = 30

// DocumentOptions configures PDF rendering.
type DocumentOptions struct {
	// RowsPerPage paginates the sample table; defaults to DefaultRowsPerPage.
	RowsPerPage int
	// Units is the distance unit label for the summary ("km" or "mi").
	Units string
	// Timezone renders timestamps; defaults to UTC.
	Timezone *time.Location
	// SkipRoute omits the route-visualization page.
	SkipRoute bool
}

func (o DocumentOptions) normalize() DocumentOptions {
	if o.RowsPerPage <= 0 {
		o.RowsPerPage = DefaultRowsPerPage
	}
	if o.Units == "" {
		o.Units = units.Kilometers
	}
	if o.Timezone == nil {
		o.Timezone = time.UTC
	}
	return o
}

// segment colors, RGB
var qualityColors = map[road.QualityLabel][3]int{
	road.QualityGood: {46, 160, 67},
	road.QualityFair: {212, 167, 44},
	road.QualityPoor: {207, 34, 46},
}

// Document renders the session report as a multi-page PDF: cover, summary,
// optional route drawing, and the paginated sample table. An empty report
// still yields a valid document.
func Document(r *SessionReport, opts DocumentOptions) ([]byte, error) {
	opts = opts.normalize()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("RoadEye Session Report", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	coverPage(pdf, r, opts)
	summaryPage(pdf, r, opts)
	if !opts.SkipRoute && len(r.Segments) > 0 {
		routePage(pdf, r)
	}
	tablePages(pdf, r, opts)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func coverPage(pdf *fpdf.Fpdf, r *SessionReport, opts DocumentOptions) {
	pdf.AddPage()
	pdf.SetY(80)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 14, "Road Quality Report", "", 1, "C", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Session %s", r.SessionID), "", 1, "C", false, 0, "")
	if r.Operator != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("Captured by %s", r.Operator), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Generated %s", r.GeneratedAt.In(opts.Timezone).Format("2006-01-02 15:04:05 MST")),
		"", 1, "C", false, 0, "")
}

func summaryPage(pdf *fpdf.Fpdf, r *SessionReport, opts DocumentOptions) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Summary", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	if r.TotalSamples == 0 {
		pdf.CellFormat(0, 8, "No samples were captured in this session.", "", 1, "L", false, 0, "")
		return
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(60, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	row("Total samples", fmt.Sprintf("%d", r.TotalSamples))
	row("Overall assessment", string(r.Overall))
	row("Total distance", units.FormatDistance(r.TotalDistanceMeters, opts.Units))
	if r.Start != nil {
		row("Start", r.Start.String())
	}
	if r.End != nil {
		row("End", r.End.String())
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Quality distribution", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, label := range road.QualityLabels {
		share := r.Distribution[label]
		setQualityFill(pdf, label)
		pdf.CellFormat(8, 7, "", "1", 0, "", true, 0, "")
		pdf.CellFormat(30, 7, " "+string(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, fmt.Sprintf("%d samples (%d%%)", share.Count, share.Percent), "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Detection statistics", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	row("Mean defects per sample", fmt.Sprintf("%.2f", r.MeanDefectCount))
	if r.MeanConfidence > 0 {
		row("Mean confidence", fmt.Sprintf("%.2f", r.MeanConfidence))
	}
	if r.P50GapSeconds > 0 {
		row("Sample gap p50 / p85", fmt.Sprintf("%.1fs / %.1fs", r.P50GapSeconds, r.P85GapSeconds))
	}
}

// routePage draws the route segments projected into a square viewport,
// colored by each segment's arrival quality.
func routePage(pdf *fpdf.Fpdf, r *SessionReport) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Route", "", 1, "L", false, 0, "")

	coords := make([]geo.Coordinate, 0, len(r.Segments)+1)
	coords = append(coords, r.Segments[0].From)
	for _, s := range r.Segments {
		coords = append(coords, s.To)
	}
	bounds, ok := geo.BoundsOf(coords)
	if !ok {
		return
	}
	bounds = bounds.Pad(0.1)

	const originX, originY = 20.0, 35.0
	const size = 170.0

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	pdf.Rect(originX, originY, size, size, "D")

	pdf.SetLineWidth(1.2)
	for _, seg := range r.Segments {
		x1, y1 := bounds.Project(seg.From, size, size)
		x2, y2 := bounds.Project(seg.To, size, size)
		c := qualityColors[seg.Quality]
		pdf.SetDrawColor(c[0], c[1], c[2])
		pdf.Line(originX+x1, originY+y1, originX+x2, originY+y2)
	}

	// Legend below the drawing.
	pdf.SetY(originY + size + 8)
	pdf.SetFont("Helvetica", "", 10)
	for _, label := range road.QualityLabels {
		setQualityFill(pdf, label)
		pdf.CellFormat(6, 6, "", "1", 0, "", true, 0, "")
		pdf.CellFormat(28, 6, " "+string(label), "", 0, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func tablePages(pdf *fpdf.Fpdf, r *SessionReport, opts DocumentOptions) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Samples", "", 1, "L", false, 0, "")

	if len(r.Rows) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, "No samples.", "", 1, "L", false, 0, "")
		return
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(15, 7, "#", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Latitude", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Longitude", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 7, "Quality", "1", 0, "C", true, 0, "")
		pdf.CellFormat(55, 7, "Time", "1", 1, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	header()

	for i, row := range r.Rows {
		if i > 0 && i%opts.RowsPerPage == 0 {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", row.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%.6f", row.Lat), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%.6f", row.Lng), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, string(row.Quality), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 7, row.Time.In(opts.Timezone).Format("2006-01-02 15:04:05"), "1", 1, "C", false, 0, "")
	}
}

func setQualityFill(pdf *fpdf.Fpdf, label road.QualityLabel) {
	c := qualityColors[label]
	pdf.SetFillColor(c[0], c[1], c[2])
}
