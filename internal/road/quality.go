// Package road defines the road-quality data model: defect detections,
// quality labels derived from defect counts, and the session track of
// captured samples.
package road

import "fmt"

// QualityLabel classifies the road surface condition observed in one sample.
type QualityLabel string

const (
	// QualityUnknown is the zero label, used for empty aggregates.
	QualityUnknown QualityLabel = "unknown"
	QualityGood    QualityLabel = "good"
	QualityFair    QualityLabel = "fair"
	QualityPoor    QualityLabel = "poor"
)

// QualityLabels lists the assignable labels in best-to-worst order.
var QualityLabels = []QualityLabel{QualityGood, QualityFair, QualityPoor}

// Valid reports whether the label is one of the assignable labels.
func (q QualityLabel) Valid() bool {
	return q == QualityGood || q == QualityFair || q == QualityPoor
}

// ParseQuality converts a string into a QualityLabel.
func ParseQuality(s string) (QualityLabel, error) {
	q := QualityLabel(s)
	if !q.Valid() {
		return QualityUnknown, fmt.Errorf("invalid quality label %q: expected good, fair, or poor", s)
	}
	return q, nil
}

// Thresholds holds the defect-count boundaries used to derive a quality
// label. Counts at or below GoodMaxDefects grade as good, counts at or
// below FairMaxDefects grade as fair, anything above grades as poor.
type Thresholds struct {
	GoodMaxDefects int `json:"good_max_defects"`
	FairMaxDefects int `json:"fair_max_defects"`
}

// DefaultThresholds returns the standard grading boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{GoodMaxDefects: 2, FairMaxDefects: 5}
}

// Validate checks that the thresholds are ordered and non-negative.
func (t Thresholds) Validate() error {
	if t.GoodMaxDefects < 0 {
		return fmt.Errorf("good_max_defects must be non-negative, got %d", t.GoodMaxDefects)
	}
	if t.FairMaxDefects < t.GoodMaxDefects {
		return fmt.Errorf("fair_max_defects (%d) must be >= good_max_defects (%d)",
			t.FairMaxDefects, t.GoodMaxDefects)
	}
	return nil
}

// Grade derives a quality label from a defect count.
func (t Thresholds) Grade(defectCount int) QualityLabel {
	switch {
	case defectCount <= t.GoodMaxDefects:
		return QualityGood
	case defectCount <= t.FairMaxDefects:
		return QualityFair
	default:
		return QualityPoor
	}
}
