package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	runewidth "github.com/mattn/go-runewidth"

	"mautic-installer/internal/logger"
)

// Severity selects the colour used for a labelled line.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// Line is a single labelled message, rendered as "[label] text".
type Line struct {
	Label    string
	Text     string
	Severity Severity
}

// Printer renders terminal UI fragments used by the installer CLI.
type Printer struct {
	output  io.Writer
	success *color.Color
	info    *color.Color
	warn    *color.Color
	error   *color.Color
}

// NewPrinter constructs a Printer with colour enabled only for terminals.
func NewPrinter(output io.Writer) *Printer {
	p := &Printer{
		output:  output,
		success: color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgBlue, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		error:   color.New(color.FgRed, color.Bold),
	}

	if logger.SupportsColor(output) {
		for _, c := range []*color.Color{p.success, p.info, p.warn, p.error} {
			c.EnableColor()
		}
	} else {
		for _, c := range []*color.Color{p.success, p.info, p.warn, p.error} {
			c.DisableColor()
		}
	}

	return p
}

// PrintHeading renders title underlined with '='.
func (p *Printer) PrintHeading(title string) {
	p.success.Fprintln(p.output, title)
	fmt.Fprintln(p.output, strings.Repeat("=", runewidth.StringWidth(title)))
	fmt.Fprintln(p.output)
}

// PrintBanner renders title framed by '=' lines.
func (p *Printer) PrintBanner(title string) {
	rule := strings.Repeat("=", runewidth.StringWidth(title)+4)
	fmt.Fprintln(p.output)
	fmt.Fprintln(p.output, rule)
	p.success.Fprintln(p.output, "  "+title)
	fmt.Fprintln(p.output, rule)
}

// PrintLines renders labelled lines with labels padded to a common width.
func (p *Printer) PrintLines(lines []Line) {
	width := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line.Label); w > width {
			width = w
		}
	}

	for _, line := range lines {
		label := "[" + line.Label + "]" + strings.Repeat(" ", width-runewidth.StringWidth(line.Label))
		fmt.Fprintf(p.output, "%s %s\n", p.colorFor(line.Severity).Sprint(label), line.Text)
	}
}

func (p *Printer) colorFor(severity Severity) *color.Color {
	switch severity {
	case SeverityWarning:
		return p.warn
	case SeverityInfo:
		return p.info
	default:
		return p.error
	}
}
