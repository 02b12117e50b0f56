package classify

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/httputil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

func testFrame() *framesource.Frame {
	return &framesource.Frame{
		Data:       []byte{0xff, 0xd8, 0xff, 0xd9}, // minimal JPEG marker pair
		Width:      640,
		Height:     480,
		CapturedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestSimulatedDeterministic(t *testing.T) {
	th := road.DefaultThresholds()
	a := NewSimulated(42, th)
	b := NewSimulated(42, th)

	for i := 0; i < 5; i++ {
		da, err := a.Classify(context.Background(), testFrame())
		require.NoError(t, err)
		db, err := b.Classify(context.Background(), testFrame())
		require.NoError(t, err)

		assert.Equal(t, da.DefectCount, db.DefectCount, "tick %d", i)
		assert.Equal(t, da.Quality, db.Quality, "tick %d", i)
	}
}

func TestSimulatedGradesWithThresholds(t *testing.T) {
	th := road.DefaultThresholds()
	sim := NewSimulated(7, th)

	for i := 0; i < 20; i++ {
		d, err := sim.Classify(context.Background(), testFrame())
		require.NoError(t, err)
		assert.Equal(t, th.Grade(d.DefectCount), d.Quality)
		assert.Len(t, d.Defects, d.DefectCount)
		for _, def := range d.Defects {
			assert.Contains(t, road.DefectClasses, def.Type)
			assert.GreaterOrEqual(t, def.Confidence, 0.5)
			assert.LessOrEqual(t, def.Confidence, 1.0)
			assert.GreaterOrEqual(t, def.Box.X, 0.0)
			assert.LessOrEqual(t, def.Box.X+def.Box.Width, float64(640))
		}
	}
}

func TestHTTPClassifierDecodesModelResponse(t *testing.T) {
	// Fixture mirrors the model service's /analyze response shape.
	body := `{
		"success": true,
		"defects": [
			{"bbox": [120.5, 80.0, 64.0, 32.0], "confidence": 0.91, "type": "D30-Pothole"},
			{"bbox": [10.0, 20.0, 30.0, 40.0], "confidence": 0.77, "type": "D00-Longitudinal"},
			{"bbox": [50.0, 60.0, 70.0, 80.0], "confidence": 0.65, "type": "D20-Alligator"}
		],
		"defectCount": 3
	}`
	mock := httputil.NewMockHTTPClient().AddResponse(200, body)
	c := NewHTTPClassifier("http://model:5000", mock, road.DefaultThresholds(), time.Second)

	det, err := c.Classify(context.Background(), testFrame())
	require.NoError(t, err)

	assert.Equal(t, 3, det.DefectCount)
	assert.Equal(t, road.QualityFair, det.Quality, "3 defects with default thresholds grade fair")
	require.Len(t, det.Defects, 3)
	assert.Equal(t, "D30-Pothole", det.Defects[0].Type)
	assert.Equal(t, 0.91, det.Defects[0].Confidence)
	assert.Equal(t, road.BoundingBox{X: 120.5, Y: 80, Width: 64, Height: 32}, det.Defects[0].Box)

	// Request carries the data-URL image payload.
	req := mock.GetRequest(0)
	require.NotNil(t, req)
	assert.Equal(t, "http://model:5000/analyze", req.URL.String())
	reqBody, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(reqBody, &decoded))
	assert.Contains(t, decoded["image"], "data:image/jpeg;base64,")
}

func TestHTTPClassifierServerFailure(t *testing.T) {
	mock := httputil.NewMockHTTPClient().AddResponse(500, `{"success": false, "error": "model exploded"}`)
	c := NewHTTPClassifier("http://model:5000", mock, road.DefaultThresholds(), time.Second)

	_, err := c.Classify(context.Background(), testFrame())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")
}

func TestHTTPClassifierSuccessFalse(t *testing.T) {
	mock := httputil.NewMockHTTPClient().AddResponse(200, `{"success": false, "error": "no image"}`)
	c := NewHTTPClassifier("http://model:5000", mock, road.DefaultThresholds(), time.Second)

	_, err := c.Classify(context.Background(), testFrame())
	require.Error(t, err)
}

func TestHTTPClassifierRejectsEmptyFrame(t *testing.T) {
	c := NewHTTPClassifier("http://model:5000", httputil.NewMockHTTPClient(), road.DefaultThresholds(), time.Second)
	_, err := c.Classify(context.Background(), &framesource.Frame{})
	require.Error(t, err)
}
