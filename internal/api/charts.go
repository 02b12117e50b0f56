package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// ratingScore orders quality labels for the timeline axis: higher is better.
var ratingScore = map[string]int{
	string(road.QualityPoor): 1,
	string(road.QualityFair): 2,
	string(road.QualityGood): 3,
}

// qualityCharts renders a quick operator dashboard (HTML) of the archive
// using go-echarts: a bar of the rating distribution plus a scatter timeline
// of recent samples. Debugging-only endpoint, no auth, no map UI required.
// Query params:
//   - max_points (optional; default 1000) to reduce payload size
func (s *Server) qualityCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	maxPoints := 1000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 0 && v <= 50000 {
			maxPoints = v
		}
	}

	counts, err := s.db.CountSamplesByRating()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to count samples: %v", err))
		return
	}

	barData := make([]opts.BarData, 0, len(road.QualityLabels))
	labels := make([]string, 0, len(road.QualityLabels))
	total := 0
	for _, label := range road.QualityLabels {
		labels = append(labels, string(label))
		n := counts[string(label)]
		total += n
		barData = append(barData, opts.BarData{Value: n})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Road Quality Archive", Theme: "dark", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Rating distribution", Subtitle: fmt.Sprintf("samples=%d", total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("samples", barData)

	samples, err := s.db.ListSamples(maxPoints)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list samples: %v", err))
		return
	}

	// ListSamples is newest-first; the timeline reads left to right.
	scatterData := make([]opts.ScatterData, 0, len(samples))
	for i := len(samples) - 1; i >= 0; i-- {
		sample := samples[i]
		scatterData = append(scatterData, opts.ScatterData{
			Value: []interface{}{sample.CapturedAt.Format("2006-01-02 15:04:05"), ratingScore[sample.Rating]},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sample timeline", Subtitle: fmt.Sprintf("points=%d (poor=1 fair=2 good=3)", len(scatterData))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "captured at"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 4, Name: "rating"}),
	)
	scatter.AddSeries("ratings", scatterData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	page := components.NewPage()
	page.AddCharts(bar, scatter)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render charts: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
