package patch

import (
	"statepatch/internal/diag"
	"statepatch/internal/scan"
)

// MergeReturn builds the edit rewriting a bare mapping-literal return into
// its merged form, spreading variable ahead of the original pairs. old is
// the current span text, asserted before application.
func MergeReturn(m scan.Match, variable, old string) diag.TextEdit {
	text := m.Indent + "return {**" + variable
	if m.Body != "" {
		text += ", " + m.Body
	}
	text += "}"
	return diag.TextEdit{
		Span:    m.Span,
		NewText: text,
		OldText: old,
	}
}
