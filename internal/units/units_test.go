package units

import (
	"math"
	"testing"
)

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		name     string
		meters   float64
		units    string
		expected float64
	}{
		{"1000 m to km", 1000.0, Kilometers, 1.0},
		{"1609.344 m to mi", 1609.344, Miles, 1.0},
		{"500 m to m", 500.0, Meters, 500.0},
		{"unknown units default to meters", 500.0, "furlong", 500.0},
		{"zero", 0.0, Kilometers, 0.0},
		{"5k run in miles", 5000.0, Miles, 3.10686},
		{"marathon in km", 42195.0, Kilometers, 42.195},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertDistance(tt.meters, tt.units)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("ConvertDistance(%f, %s) = %f, want %f", tt.meters, tt.units, result, tt.expected)
			}
		})
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters   float64
		units    string
		expected string
	}{
		{1234.0, Kilometers, "1.23 km"},
		{1609.344, Miles, "1.00 mi"},
		{152.4, Meters, "152 m"},
		{152.4, "bogus", "152 m"},
	}

	for _, tt := range tests {
		if got := FormatDistance(tt.meters, tt.units); got != tt.expected {
			t.Errorf("FormatDistance(%f, %s) = %q, want %q", tt.meters, tt.units, got, tt.expected)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%s) = false, want true", u)
		}
	}
	for _, u := range []string{"", "kmph", "KM", "feet"} {
		if IsValid(u) {
			t.Errorf("IsValid(%s) = true, want false", u)
		}
	}
}
