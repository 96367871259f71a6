package diag

import (
	"statepatch/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit is a single span replacement. OldText, when non-empty, is asserted
// against the current content before the edit is applied.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a named group of edits attached to a diagnostic.
type Fix struct {
	ID    string
	Title string
	Edits []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
