// Package geo provides coordinate types and geodesic helpers for road tracks.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the Earth's mean radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether the coordinate is within the WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lng)
}

// Distance returns the great-circle distance between two coordinates in meters.
// The central angle between the two points is the haversine angle, so the
// result is symmetric and zero for identical points.
func Distance(a, b Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// TrackLength sums the great-circle distance between each consecutive pair of
// coordinates. Tracks of length <= 1 have zero length.
func TrackLength(points []Coordinate) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Destination returns the coordinate reached by travelling the given distance
// in meters from c along the initial bearing in degrees (0 = north, 90 = east).
func Destination(c Coordinate, bearingDeg, distanceMeters float64) Coordinate {
	bearing := bearingDeg * math.Pi / 180
	angular := distanceMeters / EarthRadiusMeters

	lat1 := c.Lat * math.Pi / 180
	lng1 := c.Lng * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))

	return Coordinate{Lat: lat2 * 180 / math.Pi, Lng: lng2 * 180 / math.Pi}
}

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundsOf returns the bounding box of the given coordinates. The second
// return value is false when the slice is empty.
func BoundsOf(points []Coordinate) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lng))
	}
	minLng := rect.Lng.Lo * 180 / math.Pi
	maxLng := rect.Lng.Hi * 180 / math.Pi
	// A route crossing the antimeridian yields a wrapped s2 interval with
	// Lo > Hi. Unwrap eastward so the box stays monotonic for Project.
	if minLng > maxLng {
		maxLng += 360
	}
	return Bounds{
		MinLat: rect.Lat.Lo * 180 / math.Pi,
		MaxLat: rect.Lat.Hi * 180 / math.Pi,
		MinLng: minLng,
		MaxLng: maxLng,
	}, true
}

// Pad expands the bounds by ratio on every side. A degenerate single-point
// box gets a small fixed margin so that projection never divides by zero.
func (b Bounds) Pad(ratio float64) Bounds {
	latSpan := b.MaxLat - b.MinLat
	lngSpan := b.MaxLng - b.MinLng
	const minSpan = 0.0005 // about 50m of latitude
	if latSpan < minSpan {
		latSpan = minSpan
	}
	if lngSpan < minSpan {
		lngSpan = minSpan
	}
	return Bounds{
		MinLat: b.MinLat - latSpan*ratio,
		MaxLat: b.MaxLat + latSpan*ratio,
		MinLng: b.MinLng - lngSpan*ratio,
		MaxLng: b.MaxLng + lngSpan*ratio,
	}
}

// Project maps a coordinate into a width x height viewport using an
// equirectangular projection of the bounds. The y axis is inverted so that
// north is up in drawing coordinate systems where y grows downward.
func (b Bounds) Project(c Coordinate, width, height float64) (x, y float64) {
	latSpan := b.MaxLat - b.MinLat
	lngSpan := b.MaxLng - b.MinLng
	if latSpan <= 0 || lngSpan <= 0 {
		return width / 2, height / 2
	}
	// Unwrapped antimeridian boxes extend past 180; shift western-hemisphere
	// points onto the same continuous axis.
	lng := c.Lng
	if lng < b.MinLng {
		lng += 360
	}
	x = (lng - b.MinLng) / lngSpan * width
	y = height - (c.Lat-b.MinLat)/latSpan*height
	return x, y
}
