package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

var plotColors = map[road.QualityLabel]color.RGBA{
	road.QualityGood: {R: 46, G: 160, B: 67, A: 255},
	road.QualityFair: {R: 212, G: 167, B: 44, A: 255},
	road.QualityPoor: {R: 207, G: 34, B: 46, A: 255},
}

// RoutePlot writes a standalone PNG chart of the route, one line per
// segment colored by arrival quality. Written next to the PDF so map-less
// consumers can eyeball the route.
func RoutePlot(r *SessionReport, path string) error {
	if len(r.Segments) == 0 {
		return fmt.Errorf("cannot plot a route with no segments")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s route", r.SessionID)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	for _, seg := range r.Segments {
		line, err := plotter.NewLine(plotter.XYs{
			{X: seg.From.Lng, Y: seg.From.Lat},
			{X: seg.To.Lng, Y: seg.To.Lat},
		})
		if err != nil {
			return fmt.Errorf("failed to build route segment line: %w", err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotColors[seg.Quality]
		p.Add(line)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save route plot: %w", err)
	}
	return nil
}
