// Package logging builds the process logger: leveled, timestamped,
// optionally colored, with an optional append-only file sink.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/backmassage/shrinkwebm/internal/config"
	"github.com/backmassage/shrinkwebm/internal/term"
)

// TimeFormat is the timestamp layout used on every log line.
const TimeFormat = "2006-01-02 15:04:05"

// Logger is an hclog.Logger that also owns the optional log file.
// Components receive it (or a Named child) as a plain hclog.Logger.
type Logger struct {
	hclog.InterceptLogger
	file *os.File
	sink hclog.SinkAdapter
}

// Options controls where NewLogger writes. Zero values mean os.Stdout and
// os.Stderr.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewLogger builds the root logger from cfg. ERROR lines go to stderr and
// everything else to stdout. When cfg.LogFile is set, plain (uncolored)
// lines are also appended to that file. Call Close() when done.
func NewLogger(cfg *config.Config, opts Options) (*Logger, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	color := hclog.ColorOff
	if term.UseColor(cfg.ColorMode) {
		color = hclog.ForceColor
	}

	level := hclog.Info
	if cfg.Verbose {
		level = hclog.Debug
	}

	l := &Logger{}
	l.InterceptLogger = hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:            "shrinkwebm",
		Level:           level,
		Output:          hclog.NewLeveledWriter(stdout, map[hclog.Level]io.Writer{hclog.Error: stderr}),
		TimeFormat:      TimeFormat,
		Color:           color,
		ColorHeaderOnly: true,
	})

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		l.sink = hclog.NewSinkAdapter(&hclog.LoggerOptions{
			Level:      level,
			Output:     f,
			TimeFormat: TimeFormat,
			Color:      hclog.ColorOff,
		})
		l.RegisterSink(l.sink)
	}
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	l.DeregisterSink(l.sink)
	err := l.file.Close()
	l.file = nil
	return err
}
