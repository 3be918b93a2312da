// Package monitoring holds the diagnostic logger and the reconstruction
// metrics shared by every stage.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Stagef logs a line tagged with the reconstruction stage and event that
// produced it.
func Stagef(stage, eventID, format string, v ...interface{}) {
	args := append([]interface{}{stage, eventID}, v...)
	Logf("[%s] event=%s "+format, args...)
}
