package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

func buildTestReport(t *testing.T, n int) *SessionReport {
	t.Helper()
	labels := []road.QualityLabel{road.QualityGood, road.QualityFair, road.QualityPoor}
	samples := make([]road.Sample, n)
	for i := range samples {
		samples[i] = sampleAt(28.6+float64(i)*0.0005, 77.2, labels[i%len(labels)], time.Duration(i)*2*time.Second)
	}
	r, err := Build(samples, Options{SessionID: "sess-doc", Operator: "op-1", GeneratedAt: buildBase})
	require.NoError(t, err)
	return r
}

func TestDocumentProducesPDF(t *testing.T) {
	r := buildTestReport(t, 5)
	data, err := Document(r, DocumentOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output must start with the PDF magic")
	assert.Greater(t, len(data), 1000)
}

func TestDocumentEmptyReport(t *testing.T) {
	r, err := Build(nil, Options{SessionID: "empty", GeneratedAt: buildBase})
	require.NoError(t, err)

	data, err := Document(r, DocumentOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestDocumentPaginatesTable(t *testing.T) {
	// 7 rows at 3 per page needs 3 table pages; more rows means a longer
	// document.
	small := buildTestReport(t, 3)
	large := buildTestReport(t, 95)

	smallDoc, err := Document(small, DocumentOptions{RowsPerPage: 3, SkipRoute: true})
	require.NoError(t, err)
	largeDoc, err := Document(large, DocumentOptions{RowsPerPage: 30, SkipRoute: true})
	require.NoError(t, err)
	assert.Greater(t, len(largeDoc), len(smallDoc))
}

func TestDocumentSkipRoute(t *testing.T) {
	r := buildTestReport(t, 5)
	with, err := Document(r, DocumentOptions{})
	require.NoError(t, err)
	without, err := Document(r, DocumentOptions{SkipRoute: true})
	require.NoError(t, err)
	assert.NotEqual(t, len(with), len(without))
}

func TestRoutePlotWritesPNG(t *testing.T) {
	r := buildTestReport(t, 5)
	path := t.TempDir() + "/route.png"
	require.NoError(t, RoutePlot(r, path))
}

func TestRoutePlotRejectsEmptyRoute(t *testing.T) {
	r, err := Build(nil, Options{GeneratedAt: buildBase})
	require.NoError(t, err)
	assert.Error(t, RoutePlot(r, t.TempDir()+"/route.png"))
}
