package road

// DefectClasses is the fixed vocabulary of surface defect types produced by
// the RDD detection model. The D-prefix encodes the damage category number.
var DefectClasses = []string{
	"D00-Longitudinal",
	"D10-Transverse",
	"D20-Alligator",
	"D30-Pothole",
	"D40-Rutting",
}

// BoundingBox locates a defect in source-image pixel space.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Defect is one detected surface defect.
type Defect struct {
	Type       string      `json:"type"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// Detection is the result of classifying one frame.
type Detection struct {
	DefectCount int          `json:"defect_count"`
	Defects     []Defect     `json:"defects"`
	Quality     QualityLabel `json:"quality"`
}
