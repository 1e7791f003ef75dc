// Package logger provides process-wide logging for the segmenter.
// Debug, Info and Section output is printed only in verbose mode (--verbose);
// Warn and Error are always printed because workers run unattended.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, level+" "+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "[DEBUG]", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "[INFO]", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write(true, "[WARN]", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write(true, "[ERROR]", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Component prefixes every message with a component name, e.g. "[worker:tasks]".
type Component string

// For returns a Component logger.
func For(name string) Component {
	return Component(name)
}

// Debug prints a prefixed debug message.
func (c Component) Debug(format string, args ...any) {
	Debug("[%s] "+format, c.args(args)...)
}

// Info prints a prefixed informational message.
func (c Component) Info(format string, args ...any) {
	Info("[%s] "+format, c.args(args)...)
}

// Warn prints a prefixed warning.
func (c Component) Warn(format string, args ...any) {
	Warn("[%s] "+format, c.args(args)...)
}

// Error prints a prefixed error.
func (c Component) Error(format string, args ...any) {
	Error("[%s] "+format, c.args(args)...)
}

func (c Component) args(args []any) []any {
	return append([]any{string(c)}, args...)
}
