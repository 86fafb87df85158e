package install

import "strings"

// Category classifies a failure message.
type Category string

const (
	// CategoryRequirements marks unmet hard requirements. Always fatal.
	CategoryRequirements Category = "requirements"
	// CategoryOptional marks unmet recommendations. Fatal unless confirmed or forced.
	CategoryOptional Category = "optional"
	// CategoryValidation marks rejected input fields.
	CategoryValidation Category = "validation"
	// CategoryGeneral marks opaque collaborator failures.
	CategoryGeneral Category = "general"
)

// Message is one entry of a failure report.
type Message struct {
	Category Category
	Field    string
	Text     string
}

// Label is the tag printed in front of the message text.
func (m Message) Label() string {
	return string(m.Category)
}

// Detail is the message text, prefixed with the field it concerns.
func (m Message) Detail() string {
	if m.Field != "" {
		return m.Field + ": " + m.Text
	}
	return m.Text
}

func (m Message) String() string {
	return "[" + m.Label() + "] " + m.Detail()
}

// Messages is an ordered failure report. An empty report means success.
type Messages []Message

// Add appends a message and returns the extended report.
func (ms Messages) Add(category Category, field, text string) Messages {
	return append(ms, Message{Category: category, Field: field, Text: text})
}

// Has reports whether any message carries category.
func (ms Messages) Has(category Category) bool {
	for _, m := range ms {
		if m.Category == category {
			return true
		}
	}
	return false
}

// Only reports whether every message carries category. False for an empty report.
func (ms Messages) Only(category Category) bool {
	if len(ms) == 0 {
		return false
	}
	for _, m := range ms {
		if m.Category != category {
			return false
		}
	}
	return true
}

func (ms Messages) String() string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, "\n")
}

type resultKind int

const (
	kindSuccess resultKind = iota
	kindFailure
	kindFinalize
)

// StepResult is the outcome of one phase: Success, Failure or Finalize.
type StepResult struct {
	kind     resultKind
	messages Messages
}

// Success reports a phase that completed.
func Success() StepResult {
	return StepResult{kind: kindSuccess}
}

// Finalize reports a completed phase that requires the finalization tail.
func Finalize() StepResult {
	return StepResult{kind: kindFinalize}
}

// Failure reports a failed phase. An empty report collapses into Success so
// that callers may pass collected messages unconditionally.
func Failure(messages Messages) StepResult {
	if len(messages) == 0 {
		return Success()
	}
	return StepResult{kind: kindFailure, messages: append(Messages(nil), messages...)}
}

// Failed reports whether the result carries messages.
func (r StepResult) Failed() bool {
	return len(r.messages) > 0
}

// NeedsFinalize reports whether the finalization tail must run.
func (r StepResult) NeedsFinalize() bool {
	return r.kind == kindFinalize
}

// Messages returns the failure report, empty on success.
func (r StepResult) Messages() Messages {
	return r.messages
}
