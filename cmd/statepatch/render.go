package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"statepatch/internal/diag"
	"statepatch/internal/driver"
	"statepatch/internal/source"
)

var (
	patchedColor   = color.New(color.FgGreen)
	unchangedColor = color.New(color.FgHiBlack)
	errorColor     = color.New(color.FgRed, color.Bold)
	warningColor   = color.New(color.FgYellow)
	infoColor      = color.New(color.FgCyan)
)

// applyColorMode maps the --color flag onto the global color switch.
func applyColorMode(value string) error {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on", "always":
		color.NoColor = false
	case "off", "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	return nil
}

type runReport struct {
	Patched   int
	Unchanged int
	Errors    int
	Edits     int
	Fallbacks int
	CacheHits int
}

func summarize(results []driver.FileResult) runReport {
	var report runReport
	for _, res := range results {
		switch res.Outcome {
		case driver.OutcomePatched:
			report.Patched++
		case driver.OutcomeUnchanged:
			report.Unchanged++
		case driver.OutcomeError:
			report.Errors++
		}
		report.Edits += res.EditCount
		report.Fallbacks += res.Fallbacks
		if res.CacheHit {
			report.CacheHits++
		}
	}
	return report
}

type renderOptions struct {
	quiet   bool
	verbose bool
}

func renderText(out io.Writer, fs *source.FileSet, check bool, results []driver.FileResult, report runReport, opts renderOptions) {
	patchedLabel := "patched"
	if check {
		patchedLabel = "would patch"
	}

	for _, res := range results {
		switch res.Outcome {
		case driver.OutcomePatched:
			if opts.quiet {
				continue
			}
			line := fmt.Sprintf("%s %s (%d edits)", patchedColor.Sprint(patchedLabel), res.Path, res.EditCount)
			if res.BackupPath != "" && opts.verbose {
				line += fmt.Sprintf(" [backup %s]", res.BackupPath)
			}
			fmt.Fprintln(out, line)
		case driver.OutcomeUnchanged:
			if opts.quiet || !opts.verbose {
				continue
			}
			suffix := ""
			if res.CacheHit {
				suffix = " (cached)"
			}
			fmt.Fprintf(out, "%s %s%s\n", unchangedColor.Sprint("unchanged"), res.Path, suffix)
		case driver.OutcomeError:
			fmt.Fprintf(out, "%s %s: %v\n", errorColor.Sprint("error"), res.Path, res.Err)
		}
		if opts.verbose {
			renderDiagnostics(out, fs, res.Bag)
		}
	}

	if opts.quiet {
		return
	}
	summary := fmt.Sprintf("%d %s, %d unchanged, %d error(s)", report.Patched, patchedLabel, report.Unchanged, report.Errors)
	if report.Fallbacks > 0 {
		summary += fmt.Sprintf(", %d fallback resolution(s)", report.Fallbacks)
	}
	fmt.Fprintln(out, summary)
}

func renderDiagnostics(out io.Writer, fs *source.FileSet, bag *diag.Bag) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	bag.Sort()
	for _, d := range bag.Items() {
		var painter *color.Color
		switch d.Severity {
		case diag.SevError:
			painter = errorColor
		case diag.SevWarning:
			painter = warningColor
		default:
			painter = infoColor
		}
		fmt.Fprintf(out, "  %s [%s]%s %s\n",
			painter.Sprint(d.Severity.String()), d.Code.ID(), spanLocation(fs, d.Primary), d.Message)
		for _, note := range d.Notes {
			fmt.Fprintf(out, "      note: %s\n", note.Msg)
		}
		for _, fix := range d.Fixes {
			fmt.Fprintf(out, "      fix: %s (%d edit(s))\n", fix.Title, len(fix.Edits))
		}
	}
}

// spanLocation renders " path:line:col" for a real span; diagnostics without
// a position (I/O failures) carry a zero span and get no location.
func spanLocation(fs *source.FileSet, span source.Span) string {
	if fs == nil || span == (source.Span{}) {
		return ""
	}
	start, _ := fs.Resolve(span)
	file := fs.Get(span.File)
	return fmt.Sprintf(" %s:%d:%d", file.FormatPath("auto", fs.BaseDir()), start.Line, start.Col)
}

type fileReportPayload struct {
	Path       string            `json:"path"`
	Outcome    string            `json:"outcome"`
	Edits      int               `json:"edits,omitempty"`
	Backup     string            `json:"backup,omitempty"`
	Fallbacks  int               `json:"fallbacks,omitempty"`
	CacheHit   bool              `json:"cache_hit,omitempty"`
	Error      string            `json:"error,omitempty"`
	Diagnostic []diagnosticEntry `json:"diagnostics,omitempty"`
}

type diagnosticEntry struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Line     uint32 `json:"line,omitempty"`
	Col      uint32 `json:"col,omitempty"`
}

type reportPayload struct {
	Tool      string              `json:"tool"`
	Mode      string              `json:"mode"`
	Check     bool                `json:"check"`
	Patched   int                 `json:"patched"`
	Unchanged int                 `json:"unchanged"`
	Errors    int                 `json:"errors"`
	Edits     int                 `json:"edits"`
	Fallbacks int                 `json:"fallbacks"`
	Files     []fileReportPayload `json:"files"`
}

func renderJSON(out io.Writer, fs *source.FileSet, mode driver.Mode, check bool, results []driver.FileResult, report runReport) error {
	payload := reportPayload{
		Tool:      "statepatch",
		Mode:      mode.String(),
		Check:     check,
		Patched:   report.Patched,
		Unchanged: report.Unchanged,
		Errors:    report.Errors,
		Edits:     report.Edits,
		Fallbacks: report.Fallbacks,
		Files:     make([]fileReportPayload, 0, len(results)),
	}
	for _, res := range results {
		entry := fileReportPayload{
			Path:      res.Path,
			Outcome:   string(res.Outcome),
			Edits:     res.EditCount,
			Backup:    res.BackupPath,
			Fallbacks: res.Fallbacks,
			CacheHit:  res.CacheHit,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		if res.Bag != nil {
			res.Bag.Sort()
			for _, d := range res.Bag.Items() {
				de := diagnosticEntry{
					Severity: d.Severity.String(),
					Code:     d.Code.ID(),
					Message:  d.Message,
				}
				if fs != nil && d.Primary != (source.Span{}) {
					start, _ := fs.Resolve(d.Primary)
					de.Line, de.Col = start.Line, start.Col
				}
				entry.Diagnostic = append(entry.Diagnostic, de)
			}
		}
		payload.Files = append(payload.Files, entry)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
