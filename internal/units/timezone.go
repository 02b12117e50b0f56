package units

import "time"

// IsTimezoneValid reports whether tz names a zone in the system tz database.
// Report timestamps are stored in UTC and rendered in the requested zone, so
// the name has to resolve before a report is generated.
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
