// Package guard synthesizes definedness guards around returns that merge the
// final state variable. A guarded return can never raise a name-resolution
// failure: when the variable was never assigned on the executed path, the
// synthesized branch returns an explicit error payload instead.
package guard

import (
	"fmt"
	"strings"

	"statepatch/internal/diag"
	"statepatch/internal/scan"
	"statepatch/internal/scope"
	"statepatch/internal/source"
)

// Synthesizer rewrites guard-variable returns into guarded conditionals and
// inserts a placeholder initialization when the variable may be unassigned.
type Synthesizer struct {
	variable    string
	placeholder string
	resolver    *scope.Resolver
}

// NewSynthesizer builds a synthesizer for the given guard variable.
func NewSynthesizer(variable, placeholder string, resolver *scope.Resolver) *Synthesizer {
	if placeholder == "" {
		placeholder = "None"
	}
	return &Synthesizer{
		variable:    variable,
		placeholder: placeholder,
		resolver:    resolver,
	}
}

// Edits turns the matches (as produced by scan.ScanMerged for the guard
// variable) into text edits. Already-guarded returns are skipped, so the
// transformation is a fixed point. The returned diagnostics record guard
// synthesis, init insertions, and skips.
func (s *Synthesizer) Edits(file *source.File, matches []scan.Match) ([]diag.TextEdit, []diag.Diagnostic) {
	var edits []diag.TextEdit
	var diags []diag.Diagnostic

	// вставленные строки используют перевод строки самого файла
	eol := "\n"
	if file.Flags&source.FileHasCRLF != 0 {
		eol = "\r\n"
	}

	// одна и та же строка инициализации не вставляется дважды
	staged := make(map[string]struct{})

	for _, m := range matches {
		if s.alreadyGuarded(file.Content, m.Span.Start) {
			diags = append(diags, diag.NewInfo(diag.GuardAlreadyGuarded, m.Span,
				fmt.Sprintf("return at line %d is already guarded", m.Line)))
			continue
		}

		if !s.resolver.Defined(file.Content, m.Span.Start, s.variable) {
			if edit, line, ok := s.initEdit(file, m.Span.Start, staged, eol); ok {
				edits = append(edits, edit)
				staged[line] = struct{}{}
				diags = append(diags, diag.NewInfo(diag.GuardInitInserted, edit.Span.Cover(m.Span),
					fmt.Sprintf("inserted %q after enclosing function header", strings.TrimSpace(line))))
			}
		}

		old := string(file.Content[m.Span.Start:m.Span.End])
		replacement := diag.TextEdit{
			Span:    m.Span,
			NewText: s.guardBlock(m.Indent, m.Body, eol),
			OldText: old,
		}
		edits = append(edits, replacement)
		diags = append(diags, diag.NewInfo(diag.GuardSynthesized, m.Span,
			fmt.Sprintf("wrapped return at line %d in %s guard", m.Line, s.variable)).
			WithFix("guard "+s.variable, replacement))
	}
	return edits, diags
}

// guardBlock renders the four-line conditional replacing the original
// return. rest is the literal remainder after the spread, verbatim.
func (s *Synthesizer) guardBlock(indent, rest, eol string) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString("if ")
	b.WriteString(s.variable)
	b.WriteString(":")
	b.WriteString(eol)
	b.WriteString(indent)
	b.WriteString("    return {**")
	b.WriteString(s.variable)
	b.WriteString(rest)
	b.WriteString("}")
	b.WriteString(eol)
	b.WriteString(indent)
	b.WriteString("else:")
	b.WriteString(eol)
	b.WriteString(indent)
	b.WriteString(`    return {"error": "`)
	b.WriteString(s.variable)
	b.WriteString(` undefined", "status": "failed"}`)
	return b.String()
}

// alreadyGuarded reports whether the nearest preceding non-blank line is the
// guard check itself.
func (s *Synthesizer) alreadyGuarded(content []byte, offset uint32) bool {
	lines := strings.Split(string(content[:offset]), "\n")
	// последний элемент — пустой хвост перед строкой матча
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		return trimmed == "if "+s.variable+":"
	}
	return false
}

// initEdit builds the zero-length insertion placing
// `<header indent + 4 spaces><variable> = <placeholder>` on its own line
// right after the nearest enclosing function header. Returns ok=false when
// no enclosing header exists or the exact line is already present.
func (s *Synthesizer) initEdit(file *source.File, offset uint32, staged map[string]struct{}, eol string) (diag.TextEdit, string, bool) {
	headerEnd, headerIndent, found := enclosingHeader(file.Content, offset)
	if !found {
		return diag.TextEdit{}, "", false
	}

	line := headerIndent + "    " + s.variable + " = " + s.placeholder
	if _, ok := staged[line]; ok {
		return diag.TextEdit{}, "", false
	}
	if containsLine(file.Content, line) {
		return diag.TextEdit{}, "", false
	}

	at := source.Span{File: file.ID, Start: headerEnd, End: headerEnd}
	return diag.TextEdit{Span: at, NewText: line + eol}, line, true
}

// enclosingHeader finds the nearest function-definition line above offset
// (offset is always a line start) and returns the byte offset just past its
// trailing newline plus its indentation.
func enclosingHeader(content []byte, offset uint32) (end uint32, indent string, found bool) {
	if int(offset) > len(content) {
		offset = uint32(len(content))
	}
	lineStart := 0
	for i := 0; i < int(offset); i++ {
		if content[i] != '\n' {
			continue
		}
		line := string(content[lineStart:i])
		if scope.IsFuncDef(line) {
			end = uint32(i + 1)
			indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			found = true
		}
		lineStart = i + 1
	}
	return end, indent, found
}

// containsLine reports whether content already has the exact line.
func containsLine(content []byte, line string) bool {
	for _, have := range strings.Split(string(content), "\n") {
		if strings.TrimSuffix(have, "\r") == line {
			return true
		}
	}
	return false
}
