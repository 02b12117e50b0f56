// Package report derives session statistics from a captured track and
// renders them as a paginated PDF document plus a route plot.
package report

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// QualityShare is one slice of the quality distribution.
type QualityShare struct {
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

// RouteSegment is a directed pair of consecutive samples. Quality is the
// second sample's label: a segment reflects the road quality observed when
// arriving at its endpoint.
type RouteSegment struct {
	From    geo.Coordinate    `json:"from"`
	To      geo.Coordinate    `json:"to"`
	Quality road.QualityLabel `json:"quality"`
}

// SampleRow is the tabular projection of one sample.
type SampleRow struct {
	Index   int               `json:"index"`
	Lat     float64           `json:"latitude"`
	Lng     float64           `json:"longitude"`
	Quality road.QualityLabel `json:"quality"`
	Time    time.Time         `json:"time"`
}

// SessionReport is the derived summary of one capture session. It is
// recomputed per build and never stored directly.
type SessionReport struct {
	SessionID   string    `json:"session_id"`
	Operator    string    `json:"operator"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalSamples        int                                `json:"total_samples"`
	Distribution        map[road.QualityLabel]QualityShare `json:"distribution"`
	Overall             road.QualityLabel                  `json:"overall"`
	TotalDistanceMeters float64                            `json:"total_distance_meters"`
	Start               *geo.Coordinate                    `json:"start,omitempty"`
	End                 *geo.Coordinate                    `json:"end,omitempty"`
	Segments            []RouteSegment                     `json:"segments"`
	Rows                []SampleRow                        `json:"rows"`

	// Extended statistics over the classified samples.
	MeanDefectCount float64 `json:"mean_defect_count"`
	MeanConfidence  float64 `json:"mean_confidence"`
	P50GapSeconds   float64 `json:"p50_gap_seconds"`
	P85GapSeconds   float64 `json:"p85_gap_seconds"`
}

// Options configures a report build.
type Options struct {
	SessionID   string
	Operator    string
	GeneratedAt time.Time
}

// BuildError reports samples dropped for corrupt data, either out-of-range
// coordinates or a rating outside the good/fair/poor vocabulary. The partial
// report covers the remaining valid samples; a partial report is preferable
// to none.
type BuildError struct {
	Report       *SessionReport
	InvalidCount int
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("report built with %d sample(s) dropped for invalid coordinates or rating", e.InvalidCount)
}

// Build computes a session report from the samples of a frozen track. It is
// a pure function over the input: samples are read, never mutated. An empty
// track produces a valid report with overall assessment "unknown". Samples
// with out-of-range coordinates or an unassignable quality label are
// excluded from the statistics and reported via *BuildError alongside the
// partial report, so the distribution always buckets every counted sample.
func Build(samples []road.Sample, opts Options) (*SessionReport, error) {
	r := &SessionReport{
		SessionID:    opts.SessionID,
		Operator:     opts.Operator,
		GeneratedAt:  opts.GeneratedAt,
		Distribution: make(map[road.QualityLabel]QualityShare),
		Overall:      road.QualityUnknown,
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}

	valid := make([]road.Sample, 0, len(samples))
	invalid := 0
	for _, s := range samples {
		if !s.Coordinate.Valid() || !s.Quality.Valid() {
			invalid++
			continue
		}
		valid = append(valid, s)
	}

	r.TotalSamples = len(valid)
	r.Distribution = countByQuality(valid)
	r.Overall = overallAssessment(r.Distribution, len(valid))

	coords := make([]geo.Coordinate, len(valid))
	for i, s := range valid {
		coords[i] = s.Coordinate
	}
	r.TotalDistanceMeters = geo.TrackLength(coords)

	if len(valid) > 0 {
		start, end := valid[0].Coordinate, valid[len(valid)-1].Coordinate
		r.Start, r.End = &start, &end
	}

	for i := 1; i < len(valid); i++ {
		r.Segments = append(r.Segments, RouteSegment{
			From:    valid[i-1].Coordinate,
			To:      valid[i].Coordinate,
			Quality: valid[i].Quality,
		})
	}

	r.Rows = make([]SampleRow, len(valid))
	for i, s := range valid {
		r.Rows[i] = SampleRow{
			Index:   i + 1,
			Lat:     s.Coordinate.Lat,
			Lng:     s.Coordinate.Lng,
			Quality: s.Quality,
			Time:    s.CapturedAt,
		}
	}

	extendedStats(r, valid)

	if invalid > 0 {
		return r, &BuildError{Report: r, InvalidCount: invalid}
	}
	return r, nil
}

// countByQuality tallies samples per label and apportions integer
// percentages by largest remainder so they always sum to exactly 100 for a
// non-empty input (and 0 for an empty one), with each share within one
// point of its exact rounded value.
func countByQuality(samples []road.Sample) map[road.QualityLabel]QualityShare {
	dist := make(map[road.QualityLabel]QualityShare, len(road.QualityLabels))
	total := len(samples)

	counts := make(map[road.QualityLabel]int, len(road.QualityLabels))
	for _, s := range samples {
		counts[s.Quality]++
	}

	if total == 0 {
		for _, label := range road.QualityLabels {
			dist[label] = QualityShare{}
		}
		return dist
	}

	type share struct {
		label     road.QualityLabel
		floor     int
		remainder float64
	}
	shares := make([]share, 0, len(road.QualityLabels))
	assigned := 0
	for _, label := range road.QualityLabels {
		exact := float64(counts[label]) / float64(total) * 100
		floor := int(exact)
		shares = append(shares, share{label: label, floor: floor, remainder: exact - float64(floor)})
		assigned += floor
	}

	// Hand the leftover points to the largest remainders, label order
	// breaking ties for determinism.
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].remainder > shares[j].remainder })
	for i := 0; i < 100-assigned && i < len(shares); i++ {
		shares[i].floor++
	}

	for _, s := range shares {
		dist[s.label] = QualityShare{Count: counts[s.label], Percent: s.floor}
	}
	return dist
}

// overallAssessment computes the weighted score (3*good + 2*fair + 1*poor)
// / (3*total): > 0.8 grades good, > 0.5 fair, otherwise poor. An empty
// track grades unknown.
func overallAssessment(dist map[road.QualityLabel]QualityShare, total int) road.QualityLabel {
	if total == 0 {
		return road.QualityUnknown
	}
	score := float64(3*dist[road.QualityGood].Count+2*dist[road.QualityFair].Count+dist[road.QualityPoor].Count) /
		float64(3*total)
	switch {
	case score > 0.8:
		return road.QualityGood
	case score > 0.5:
		return road.QualityFair
	default:
		return road.QualityPoor
	}
}

func extendedStats(r *SessionReport, samples []road.Sample) {
	if len(samples) == 0 {
		return
	}

	defectCounts := make([]float64, len(samples))
	var confidences []float64
	for i, s := range samples {
		defectCounts[i] = float64(len(s.Defects))
		for _, d := range s.Defects {
			confidences = append(confidences, d.Confidence)
		}
	}
	r.MeanDefectCount = stat.Mean(defectCounts, nil)
	if len(confidences) > 0 {
		r.MeanConfidence = stat.Mean(confidences, nil)
	}

	if len(samples) > 1 {
		gaps := make([]float64, 0, len(samples)-1)
		for i := 1; i < len(samples); i++ {
			gaps = append(gaps, samples[i].CapturedAt.Sub(samples[i-1].CapturedAt).Seconds())
		}
		sort.Float64s(gaps)
		r.P50GapSeconds = stat.Quantile(0.50, stat.Empirical, gaps, nil)
		r.P85GapSeconds = stat.Quantile(0.85, stat.Empirical, gaps, nil)
	}
}
