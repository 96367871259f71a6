package guard

import (
	"testing"

	"statepatch/internal/diag"
	"statepatch/internal/patch"
	"statepatch/internal/scan"
	"statepatch/internal/scope"
	"statepatch/internal/source"
)

func newSynth() (*scan.Matcher, *Synthesizer) {
	candidates := []string{"final_state", "state"}
	resolver := scope.NewResolver(candidates, 20)
	return scan.NewMatcher(candidates), NewSynthesizer("final_state", "None", resolver)
}

func synthEdits(t *testing.T, content string) ([]byte, []diag.TextEdit, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("wf.py", []byte(content))
	file := fs.Get(id)

	matcher, synth := newSynth()
	matches := matcher.ScanMerged(file, "final_state")
	edits, diags := synth.Edits(file, matches)
	return file.Content, edits, diags
}

func TestGuardWrapsDefinedReturn(t *testing.T) {
	content := "def run(cfg):\n" +
		"    final_state = invoke(cfg)\n" +
		"    return {**final_state, \"count\": 2}\n"
	original, edits, _ := synthEdits(t, content)

	if len(edits) != 1 {
		t.Fatalf("expected a single replacement, got %d edits", len(edits))
	}

	got, err := patch.Render(original, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := "def run(cfg):\n" +
		"    final_state = invoke(cfg)\n" +
		"    if final_state:\n" +
		"        return {**final_state, \"count\": 2}\n" +
		"    else:\n" +
		"        return {\"error\": \"final_state undefined\", \"status\": \"failed\"}\n"
	if string(got) != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestGuardInsertsInitWhenUndefined(t *testing.T) {
	content := "def run(cfg):\n" +
		"    result = invoke(cfg)\n" +
		"    return {**final_state}\n"
	original, edits, diags := synthEdits(t, content)

	if len(edits) != 2 {
		t.Fatalf("expected init + replacement, got %d edits", len(edits))
	}

	got, err := patch.Render(original, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := "def run(cfg):\n" +
		"    final_state = None\n" +
		"    result = invoke(cfg)\n" +
		"    if final_state:\n" +
		"        return {**final_state}\n" +
		"    else:\n" +
		"        return {\"error\": \"final_state undefined\", \"status\": \"failed\"}\n"
	if string(got) != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}

	var sawInit bool
	for _, d := range diags {
		if d.Code == diag.GuardInitInserted {
			sawInit = true
		}
	}
	if !sawInit {
		t.Fatalf("expected an init-inserted diagnostic")
	}
}

func TestGuardInitInsertedOnce(t *testing.T) {
	content := "def run():\n" +
		"    if early:\n" +
		"        return {**final_state}\n" +
		"    return {**final_state, \"done\": True}\n"
	original, edits, _ := synthEdits(t, content)

	// один init и два guard-блока
	if len(edits) != 3 {
		t.Fatalf("expected 3 edits, got %d", len(edits))
	}

	got, err := patch.Render(original, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if countOccurrences(string(got), "final_state = None") != 1 {
		t.Fatalf("init line must appear exactly once:\n%s", got)
	}
}

func TestGuardInitBeforeAdjacentReturn(t *testing.T) {
	// return сразу после заголовка: вставка и замена делят смещение
	content := "def run():\n" +
		"    return {**final_state}\n"
	original, edits, _ := synthEdits(t, content)

	if len(edits) != 2 {
		t.Fatalf("expected init + replacement, got %d edits", len(edits))
	}
	got, err := patch.Render(original, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := "def run():\n" +
		"    final_state = None\n" +
		"    if final_state:\n" +
		"        return {**final_state}\n" +
		"    else:\n" +
		"        return {\"error\": \"final_state undefined\", \"status\": \"failed\"}\n"
	if string(got) != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestGuardSkipsAlreadyGuarded(t *testing.T) {
	content := "def run():\n" +
		"    final_state = build()\n" +
		"    if final_state:\n" +
		"        return {**final_state}\n"
	_, edits, diags := synthEdits(t, content)

	if len(edits) != 0 {
		t.Fatalf("guarded return must not be rewritten, got %d edits", len(edits))
	}
	if len(diags) != 1 || diags[0].Code != diag.GuardAlreadyGuarded {
		t.Fatalf("expected a single already-guarded diagnostic, got %+v", diags)
	}
}

func TestGuardIsFixedPoint(t *testing.T) {
	content := "def run(cfg):\n" +
		"    final_state = invoke(cfg)\n" +
		"    return {**final_state, \"count\": 2}\n"
	original, edits, _ := synthEdits(t, content)

	once, err := patch.Render(original, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	_, secondEdits, _ := synthEdits(t, string(once))
	if len(secondEdits) != 0 {
		t.Fatalf("second pass must produce no edits, got %d", len(secondEdits))
	}
}

func TestGuardSkipsInitWhenLinePresent(t *testing.T) {
	content := "def run():\n" +
		"    final_state = None\n" +
		"    return {**final_state}\n"
	original, edits, _ := synthEdits(t, content)

	// инициализация считается присваиванием, init не нужен
	if len(edits) != 1 {
		t.Fatalf("expected only the replacement, got %d edits", len(edits))
	}
	got, err := patch.Render(original, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if countOccurrences(string(got), "final_state = None") != 1 {
		t.Fatalf("init line duplicated:\n%s", got)
	}
}

func TestGuardKeepsCRLFEndings(t *testing.T) {
	content := "def run(cfg):\r\n" +
		"    result = invoke(cfg)\r\n" +
		"    return {**final_state}\r\n"

	fs := source.NewFileSet()
	id := fs.Add("wf.py", []byte(content), source.FileHasCRLF)
	file := fs.Get(id)

	matcher, synth := newSynth()
	matches := matcher.ScanMerged(file, "final_state")
	edits, _ := synth.Edits(file, matches)
	if len(edits) != 2 {
		t.Fatalf("expected init + replacement, got %d edits", len(edits))
	}

	got, err := patch.Render(file.Content, edits)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := "def run(cfg):\r\n" +
		"    final_state = None\r\n" +
		"    result = invoke(cfg)\r\n" +
		"    if final_state:\r\n" +
		"        return {**final_state}\r\n" +
		"    else:\r\n" +
		"        return {\"error\": \"final_state undefined\", \"status\": \"failed\"}\r\n"
	if string(got) != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}
