package ui

import (
	"io"

	"github.com/pterm/pterm"
)

// Logger is the structured diagnostic logger. It writes to stderr so tool
// output on stdout stays machine readable.
var Logger = NewLogger(Err, false)

// NewLogger builds a pterm logger writing to w. verbose enables debug
// records.
func NewLogger(w io.Writer, verbose bool) *pterm.Logger {
	level := pterm.LogLevelInfo
	if verbose {
		level = pterm.LogLevelDebug
	}
	return pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(level).
		WithTime(false)
}

// SetVerbose replaces Logger with one at the requested level.
func SetVerbose(verbose bool) {
	Logger = NewLogger(Err, verbose)
}
