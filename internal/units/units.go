// Package units provides shared constants and validation for distance units
package units

import "fmt"

// Unit constants
const (
	Meters     = "m"
	Kilometers = "km"
	Miles      = "mi"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Kilometers, Miles}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, km, mi"
}

// ConvertDistance converts a distance from meters to the target units
// Distances are stored in meters
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Kilometers:
		return meters / 1000
	case Miles:
		return meters / 1609.344
	case Meters:
		return meters
	default:
		return meters // default to meters if unknown unit
	}
}

// FormatDistance renders a distance in meters as a display string in the
// target units, e.g. "1.23 km" or "152 m".
func FormatDistance(meters float64, targetUnits string) string {
	v := ConvertDistance(meters, targetUnits)
	switch targetUnits {
	case Kilometers, Miles:
		return fmt.Sprintf("%.2f %s", v, targetUnits)
	default:
		return fmt.Sprintf("%.0f m", v)
	}
}
