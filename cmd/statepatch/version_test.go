package main

import (
	"strings"
	"testing"
)

func TestRenderVersionPretty(t *testing.T) {
	info := versionInfo{Version: "1.2.3", GitCommit: "abc1234"}

	var b strings.Builder
	renderVersionPretty(&b, info, versionOptions{showHash: true})
	out := b.String()

	if !strings.HasPrefix(out, "statepatch 1.2.3: "+versionTagline+"\n") {
		t.Fatalf("unexpected header line:\n%s", out)
	}
	if !strings.Contains(out, "commit: abc1234") {
		t.Fatalf("commit line missing:\n%s", out)
	}
}

func TestRenderVersionPrettyHintsWithoutFlags(t *testing.T) {
	var b strings.Builder
	renderVersionPretty(&b, versionInfo{Version: "dev"}, versionOptions{})
	if !strings.Contains(b.String(), "--full") {
		t.Fatalf("hint line missing:\n%s", b.String())
	}
}
