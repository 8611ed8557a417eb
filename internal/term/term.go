// Package term resolves whether ANSI color output should be used.
//
// The decision is made once during startup by [UseColor] and handed to the
// logger and banner; nothing here holds global state.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/shrinkwebm/internal/config"
)

// UseColor determines whether colors should be enabled based on the
// configured mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func UseColor(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
