package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"statepatch/internal/diag"
	"statepatch/internal/driver"
	"statepatch/internal/source"
)

func TestSummarize(t *testing.T) {
	results := []driver.FileResult{
		{Path: "a.py", Outcome: driver.OutcomePatched, EditCount: 2, Fallbacks: 1},
		{Path: "b.py", Outcome: driver.OutcomeUnchanged, CacheHit: true},
		{Path: "c.py", Outcome: driver.OutcomeError, Err: errors.New("boom")},
	}
	report := summarize(results)
	if report.Patched != 1 || report.Unchanged != 1 || report.Errors != 1 {
		t.Fatalf("unexpected totals %+v", report)
	}
	if report.Edits != 2 || report.Fallbacks != 1 || report.CacheHits != 1 {
		t.Fatalf("unexpected counters %+v", report)
	}
}

func TestRenderTextSummary(t *testing.T) {
	color.NoColor = true
	results := []driver.FileResult{
		{Path: "a.py", Outcome: driver.OutcomePatched, EditCount: 2},
		{Path: "b.py", Outcome: driver.OutcomeUnchanged},
		{Path: "c.py", Outcome: driver.OutcomeError, Err: errors.New("boom")},
	}
	report := summarize(results)

	var b strings.Builder
	renderText(&b, nil, false, results, report, renderOptions{})
	out := b.String()

	if !strings.Contains(out, "patched a.py (2 edits)") {
		t.Fatalf("patched line missing:\n%s", out)
	}
	if strings.Contains(out, "b.py") {
		t.Fatalf("unchanged files are verbose-only:\n%s", out)
	}
	if !strings.Contains(out, "error c.py: boom") {
		t.Fatalf("error line missing:\n%s", out)
	}
	if !strings.Contains(out, "1 patched, 1 unchanged, 1 error(s)") {
		t.Fatalf("summary missing:\n%s", out)
	}
}

func TestRenderTextCheckLabel(t *testing.T) {
	color.NoColor = true
	results := []driver.FileResult{
		{Path: "a.py", Outcome: driver.OutcomePatched, EditCount: 1},
	}
	var b strings.Builder
	renderText(&b, nil, true, results, summarize(results), renderOptions{})
	if !strings.Contains(b.String(), "would patch a.py") {
		t.Fatalf("check label missing:\n%s", b.String())
	}
}

func TestRenderDiagnosticsWithPositions(t *testing.T) {
	color.NoColor = true
	fs := source.NewFileSet()
	id := fs.AddVirtual("flow.py",
		[]byte("def handler():\n    return {\"x\": 1}\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.NewWarning(diag.ScopeFallback,
		source.Span{File: id, Start: 15, End: 33},
		"no merge candidate assigned").
		WithNote(source.Span{}, "window was 20 lines"))
	bag.Add(diag.NewError(diag.IOWriteBackupError, source.Span{}, "backup not written"))

	var b strings.Builder
	renderDiagnostics(&b, fs, bag)
	out := b.String()

	if !strings.Contains(out, "[SCOPE3002] flow.py:2:1 no merge candidate assigned") {
		t.Fatalf("warning must carry its position:\n%s", out)
	}
	if !strings.Contains(out, "note: window was 20 lines") {
		t.Fatalf("note missing:\n%s", out)
	}
	// диагностика без позиции печатается без location
	if !strings.Contains(out, "[IO1002] backup not written") {
		t.Fatalf("positionless diagnostic must render plainly:\n%s", out)
	}
}

func TestParseProgressMode(t *testing.T) {
	cases := []struct {
		value string
		want  progressMode
		ok    bool
	}{
		{"", progressAuto, true},
		{"auto", progressAuto, true},
		{"ON", progressOn, true},
		{" off ", progressOff, true},
		{"tui", progressAuto, false},
	}
	for _, tc := range cases {
		got, err := parseProgressMode(tc.value)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("parseProgressMode(%q) = %v, %v", tc.value, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("parseProgressMode(%q) must fail", tc.value)
		}
	}
}

func TestApplyColorMode(t *testing.T) {
	defer func() { color.NoColor = true }()

	if err := applyColorMode("on"); err != nil || color.NoColor {
		t.Fatalf("on must enable color, err=%v NoColor=%v", err, color.NoColor)
	}
	if err := applyColorMode("off"); err != nil || !color.NoColor {
		t.Fatalf("off must disable color, err=%v NoColor=%v", err, color.NoColor)
	}
	if err := applyColorMode("rainbow"); err == nil {
		t.Fatalf("invalid mode must fail")
	}
}
