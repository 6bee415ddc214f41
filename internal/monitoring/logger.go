// Package monitoring is the pipeline's diagnostic logging hook. Stages tag
// their progress lines ([scene], [store], [cache], ...) so interleaved runs
// stay readable.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// SetLogger swaps it, and the CLI's -quiet flag mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
