package ui

import (
	"fmt"
	"io"
	"os"

	"mautic-installer/internal/logger"
)

// Console coordinates logger output, progress indicators, and plain text UI writes.
type Console struct {
	logger   logger.Logger
	progress logger.Progress
	printer  *Printer
	output   io.Writer
}

// NewConsole builds a Console bound to the provided logger. A spinner is
// used only when output is a terminal.
func NewConsole(log logger.Logger, output io.Writer) *Console {
	if output == nil {
		output = os.Stdout
	}
	if log == nil {
		log = logger.NewStandardLogger()
	}

	c := &Console{
		logger:  log,
		output:  output,
		printer: NewPrinter(output),
	}
	if logger.SupportsColor(output) {
		c.progress = logger.NewSpinnerProgress(output)
	} else {
		c.progress = logger.NewLineProgress(output)
	}

	return c
}

// Logger exposes the underlying logger.
func (c *Console) Logger() logger.Logger {
	return c.logger
}

// Printer exposes the message printer.
func (c *Console) Printer() *Printer {
	return c.printer
}

// StartProgress starts the underlying progress indicator.
func (c *Console) StartProgress(operation string) {
	c.progress.Start(operation)
}

// StopProgress marks operation as done.
func (c *Console) StopProgress(operation string) {
	c.progress.Stop(operation)
}

// FailProgress marks operation as failed.
func (c *Console) FailProgress(operation string) {
	c.progress.Fail(operation)
}

// WriteLine outputs formatted text without involving the logger.
func (c *Console) WriteLine(format string, args ...interface{}) {
	fmt.Fprintf(c.output, format+"\n", args...)
}

// WriteLines outputs each line as-is.
func (c *Console) WriteLines(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(c.output, line)
	}
}
