package diag

import (
	"testing"

	"statepatch/internal/source"
)

func TestBagRespectsLimit(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(NewInfo(ScanReturnLiteral, source.Span{}, "one")) {
		t.Fatalf("first add must succeed")
	}
	if !bag.Add(NewInfo(ScanReturnLiteral, source.Span{}, "two")) {
		t.Fatalf("second add must succeed")
	}
	if bag.Add(NewInfo(ScanReturnLiteral, source.Span{}, "three")) {
		t.Fatalf("add beyond the limit must be rejected")
	}
	if bag.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", bag.Len())
	}
}

func TestBagSeverityQueries(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewInfo(ScopeResolved, source.Span{}, "info"))
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatalf("info only: no errors or warnings expected")
	}
	bag.Add(NewWarning(ScopeFallback, source.Span{}, "warn"))
	if bag.HasErrors() {
		t.Fatalf("warning is not an error")
	}
	if !bag.HasWarnings() {
		t.Fatalf("warning not detected")
	}
	bag.Add(NewError(IOWriteFileError, source.Span{}, "boom"))
	if !bag.HasErrors() {
		t.Fatalf("error not detected")
	}
}

func TestBagSortIsPositional(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewInfo(ScanReturnLiteral, source.Span{Start: 30, End: 40}, "late"))
	bag.Add(NewInfo(ScanReturnLiteral, source.Span{Start: 5, End: 10}, "early"))
	bag.Sort()

	items := bag.Items()
	if items[0].Message != "early" || items[1].Message != "late" {
		t.Fatalf("unexpected order: %q then %q", items[0].Message, items[1].Message)
	}
}

func TestBagDedup(t *testing.T) {
	bag := NewBag(10)
	span := source.Span{Start: 5, End: 10}
	bag.Add(NewInfo(ScanReturnLiteral, span, "a"))
	bag.Add(NewInfo(ScanReturnLiteral, span, "a again"))
	bag.Add(NewInfo(ScopeResolved, span, "b"))
	bag.Dedup()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 items after dedup, got %d", bag.Len())
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(NewInfo(ScanReturnLiteral, source.Span{}, "a"))
	b := NewBag(1)
	b.Add(NewInfo(ScopeResolved, source.Span{}, "b"))

	a.Merge(b)
	if a.Len() != 2 {
		t.Fatalf("merge must keep every item, got %d", a.Len())
	}
	if a.Cap() < 2 {
		t.Fatalf("merge must grow the limit, cap=%d", a.Cap())
	}
}

func TestCodeIDs(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{IOLoadFileError, "IO1001"},
		{ScanReturnLiteral, "SCAN2001"},
		{ScopeFallback, "SCOPE3002"},
		{GuardSynthesized, "GUARD4001"},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.want {
			t.Fatalf("ID for %d = %q, want %q", tc.code, got, tc.want)
		}
	}
}
