package scan

import (
	"testing"

	"statepatch/internal/source"
)

func virtualFile(t *testing.T, content string) *source.File {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.py", []byte(content))
	return fs.Get(id)
}

func TestScanFindsLiteralReturn(t *testing.T) {
	content := "def handler(state):\n" +
		"    state = transform(state)\n" +
		"    return {\"x\": 1, \"status\": \"done\"}\n" +
		"    return compute()\n"
	file := virtualFile(t, content)

	m := NewMatcher([]string{"final_state", "state"})
	matches := m.Scan(file)

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	got := matches[0]
	if got.Line != 3 {
		t.Fatalf("expected match on line 3, got %d", got.Line)
	}
	if got.Indent != "    " {
		t.Fatalf("expected four-space indent, got %q", got.Indent)
	}
	if got.Body != "\"x\": 1, \"status\": \"done\"" {
		t.Fatalf("unexpected body %q", got.Body)
	}
	spanText := string(file.Content[got.Span.Start:got.Span.End])
	if spanText != "    return {\"x\": 1, \"status\": \"done\"}" {
		t.Fatalf("unexpected span text %q", spanText)
	}
}

func TestScanMatchesEmptyLiteral(t *testing.T) {
	file := virtualFile(t, "def f():\n    return {}\n")

	matches := NewMatcher([]string{"state"}).Scan(file)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Body != "" {
		t.Fatalf("expected empty body, got %q", matches[0].Body)
	}
}

func TestScanSkipsReservedSpread(t *testing.T) {
	content := "def f():\n" +
		"    return {**state, \"x\": 1}\n" +
		"    return {**final_state}\n" +
		"    return {**other, \"x\": 1}\n"
	file := virtualFile(t, content)

	matches := NewMatcher([]string{"final_state", "state"}).Scan(file)
	if len(matches) != 1 {
		t.Fatalf("expected only the non-reserved spread to match, got %d matches", len(matches))
	}
	if matches[0].Line != 4 {
		t.Fatalf("expected line 4, got %d", matches[0].Line)
	}
}

func TestScanIgnoresNonReturnLines(t *testing.T) {
	content := "x = {\"a\": 1}\n" +
		"# return {\"a\": 1}\n" +
		"returned = {\"a\": 1}\n"
	file := virtualFile(t, content)

	matches := NewMatcher(nil).Scan(file)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestScanMergedExtractsRest(t *testing.T) {
	content := "def f():\n" +
		"    return {**final_state, \"y\": 2}\n" +
		"    return {**final_state}\n" +
		"    return {**state, \"y\": 2}\n"
	file := virtualFile(t, content)

	m := NewMatcher([]string{"final_state", "state"})
	matches := m.ScanMerged(file, "final_state")

	if len(matches) != 2 {
		t.Fatalf("expected 2 merged returns, got %d", len(matches))
	}
	if matches[0].Body != ", \"y\": 2" {
		t.Fatalf("unexpected rest %q", matches[0].Body)
	}
	if matches[1].Body != "" {
		t.Fatalf("expected empty rest, got %q", matches[1].Body)
	}
}
