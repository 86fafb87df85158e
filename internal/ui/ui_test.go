package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mautic-installer/internal/logger"
)

func TestPrinterPadsLabels(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLines([]Line{
		{Label: "requirements", Text: "config directory is not writable"},
		{Label: "optional", Text: "site URL should use https", Severity: SeverityWarning},
	})

	assert.Equal(t,
		"[requirements] config directory is not writable\n"+
			"[optional]     site URL should use https\n",
		buf.String())
}

func TestPrinterHeading(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHeading("Mautic Install")

	assert.Equal(t, "Mautic Install\n==============\n\n", buf.String())
}

func TestConsoleUsesLineProgressOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(logger.NewMockLogger(), &buf)

	c.StartProgress("Creating database")
	c.StopProgress("Creating database")
	c.WriteLine("Ready to %s!", "Install")

	assert.Equal(t, "Creating database...\n✓ Creating database\nReady to Install!\n", buf.String())
}

func TestPromptConfirmerDeclinesWithoutTerminal(t *testing.T) {
	c := &PromptConfirmer{isTTY: func() bool { return false }}

	ok, err := c.Confirm("Continue with install anyway?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmFunc(t *testing.T) {
	var asked string
	c := ConfirmFunc(func(q string) (bool, error) {
		asked = q
		return true, nil
	})

	ok, err := c.Confirm("proceed?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "proceed?", asked)
}
