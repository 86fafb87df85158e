package ui

import (
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(question string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(question string) (bool, error) {
	return f(question)
}

// PromptConfirmer asks through promptui. When stdin is not a terminal the
// answer is always no, matching the default of the question.
type PromptConfirmer struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
	isTTY  func() bool
}

// NewPromptConfirmer builds a confirmer bound to the process stdin/stdout.
func NewPromptConfirmer() *PromptConfirmer {
	return &PromptConfirmer{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		isTTY: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// Confirm implements Confirmer.
func (c *PromptConfirmer) Confirm(question string) (bool, error) {
	if c.isTTY != nil && !c.isTTY() {
		return false, nil
	}

	prompt := promptui.Prompt{
		Label:     strings.TrimSuffix(strings.TrimSpace(question), "?"),
		IsConfirm: true,
		Stdin:     c.stdin,
		Stdout:    c.stdout,
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, errors.Wrap(err, "confirmation interrupted")
	default:
		return false, errors.Wrap(err, "confirmation prompt failed")
	}
}
