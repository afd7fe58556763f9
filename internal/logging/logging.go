// Where: internal/logging/logging.go
// What: Structured diagnostic logger construction.
// Why: One place to configure verbosity and formatting for every
//      component's diagnostics.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New builds the diagnostic logger. Verbose enables debug level along
// with timestamps and caller reporting.
func New(verbose bool) *log.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter builds a logger against an explicit writer, used by
// tests to capture output.
func NewWithWriter(writer io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(writer, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
		ReportCaller:    verbose,
	})
}
