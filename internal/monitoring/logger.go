// Package monitoring carries the diagnostic logger used by the GPS ingest
// paths, where per-sentence logging is too chatty for some deployments.
package monitoring

import "log"

// Logf emits a diagnostic line. It defaults to log.Printf; replay and serial
// readers call it for malformed sentences and progress counts.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger swaps the diagnostic sink. nil mutes diagnostics entirely.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
