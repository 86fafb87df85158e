package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColoredLogger renders log levels in colour when the output is a terminal.
type ColoredLogger struct {
	*StandardLogger
}

// NewColoredLogger returns a logger configured for colourful terminal output when possible.
func NewColoredLogger(options ...Option) *ColoredLogger {
	std := NewStandardLogger(options...)

	std.formatter = &ColoredFormatter{
		timestampFormat: "15:04:05",
		enableColors:    SupportsColor(std.output),
		colors: map[Level]*color.Color{
			LevelDebug: color.New(color.FgCyan),
			LevelInfo:  color.New(color.FgBlue),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed),
		},
	}

	return &ColoredLogger{StandardLogger: std}
}

// ColoredFormatter renders log entries with coloured levels when enabled.
type ColoredFormatter struct {
	timestampFormat string
	colors          map[Level]*color.Color
	enableColors    bool
}

// Format converts the Entry into a coloured textual representation.
func (f *ColoredFormatter) Format(entry *Entry) ([]byte, error) {
	level := entry.Level.String()
	if !f.enableColors {
		return formatEntry(entry, entry.Time.Format(f.timestampFormat), level, nil), nil
	}

	if c := f.colors[entry.Level]; c != nil {
		level = c.Sprint(level)
	}
	faint := color.New(color.Faint)
	return formatEntry(entry, entry.Time.Format(f.timestampFormat), level, func(field Field) string {
		return faint.Sprint(fmt.Sprintf("%s=%v", field.Key, field.Value))
	}), nil
}

// SupportsColor reports whether w is a terminal and NO_COLOR is unset.
func SupportsColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
