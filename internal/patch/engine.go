// Package patch applies span edits to a file and persists the result behind
// a backup. The backup is the durability point of a two-phase commit: the
// original content is written to the derived backup path first, and only
// after that write succeeds is the original file overwritten. A failure in
// between leaves the backup as the recovery path and the original untouched.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"statepatch/internal/diag"
)

// ErrNoEdits is returned when a file produced no applicable edits.
var ErrNoEdits = errors.New("no applicable edits")

// ErrBackupWriteFailed marks a failed backup write; the original file was
// not touched.
var ErrBackupWriteFailed = errors.New("backup not written")

// ErrMainWriteFailed marks a failure after the backup was already written;
// the error text names the surviving backup.
var ErrMainWriteFailed = errors.New("patched content not written")

// Result summarises what happened to one file.
type Result struct {
	Path       string
	Changed    bool
	BackupPath string // set once the backup write succeeded
	EditCount  int
}

// Render applies the edits against content and returns the candidate new
// bytes. Edits are applied highest-offset-first so earlier spans stay valid;
// overlapping spans or a failed OldText assertion abort with an error and
// nothing is written anywhere.
func Render(content []byte, edits []diag.TextEdit) ([]byte, error) {
	if len(edits) == 0 {
		return nil, ErrNoEdits
	}
	if i, j, conflict := findConflict(edits); conflict {
		return nil, fmt.Errorf("conflicting edits %s and %s", edits[i].Span, edits[j].Span)
	}

	sorted := append([]diag.TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Start == sorted[j].Span.Start {
			return sorted[i].Span.End > sorted[j].Span.End
		}
		return sorted[i].Span.Start > sorted[j].Span.Start
	})

	working := append([]byte(nil), content...)
	for _, edit := range sorted {
		start, end := int(edit.Span.Start), int(edit.Span.End)
		if start < 0 || end < start || end > len(working) {
			return nil, fmt.Errorf("edit span %s out of range", edit.Span)
		}
		if edit.OldText != "" && string(working[start:end]) != edit.OldText {
			return nil, fmt.Errorf("edit span %s: existing text does not match expected content", edit.Span)
		}
		suffix := append([]byte(nil), working[end:]...)
		working = append(append(working[:start], []byte(edit.NewText)...), suffix...)
	}
	return working, nil
}

// Apply renders the edits and, when the result differs from the original,
// persists it: backup first, then the rewritten file, both with the original
// file mode. check=true renders without touching the filesystem.
func Apply(path string, original []byte, edits []diag.TextEdit, backupSuffix string, check bool) (Result, error) {
	result := Result{Path: path, EditCount: len(edits)}

	rendered, err := Render(original, edits)
	if err != nil {
		if errors.Is(err, ErrNoEdits) {
			result.EditCount = 0
			return result, nil
		}
		return result, err
	}

	if bytes.Equal(original, rendered) {
		return result, nil
	}
	result.Changed = true

	if check {
		return result, nil
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	backupPath := path + backupSuffix
	if err := os.WriteFile(backupPath, original, mode); err != nil {
		result.Changed = false
		return result, fmt.Errorf("%w: %s: %v", ErrBackupWriteFailed, backupPath, err)
	}
	result.BackupPath = backupPath

	if err := os.WriteFile(path, rendered, mode); err != nil {
		result.Changed = false
		return result, fmt.Errorf("%w: %v (original preserved in %s)", ErrMainWriteFailed, err, backupPath)
	}
	return result, nil
}

// findConflict returns the first pair of overlapping edits.
func findConflict(edits []diag.TextEdit) (int, int, bool) {
	for i := 0; i < len(edits); i++ {
		for j := i + 1; j < len(edits); j++ {
			if spansConflict(edits[i], edits[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// spansConflict reports whether two edits' spans overlap. Spans are
// half-open intervals [Start, End). Two zero-length edits never conflict; a
// zero-length edit conflicts with a non-zero span only when its position
// falls strictly inside it.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}
