// Package logger is the pluggable logging seam every other package in
// this module writes through. Embedding applications can call
// WithLogger to route output at their own sink; absent that, Log
// writes each line to stderr. NewZap builds a structured
// go.uber.org/zap Logger from the config package's log.* keys, which
// takes effect once passed to WithLogger.
package logger

import (
	"fmt"
	"os"
)

// Logger is a simple interface for logging output during the execution
// of a supervision tree. Note that in an attempt at making this package
// agnostic, the function signatures are amongst the most common in the
// main logging packages.
type Logger interface {
	// Println is the standard level.
	Println(string)
}

var logger Logger

// WithLogger sets the `Logger` for this package. Until called, Log
// falls back to writing directly to stderr.
func WithLogger(l Logger) {
	logger = l
}

func Log(msg string) {
	if logger != nil {
		logger.Println(msg)
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

// Logf formats msg and logs it, the way most call sites in this module
// actually want to use Log.
func Logf(format string, args ...any) {
	Log(fmt.Sprintf(format, args...))
}
