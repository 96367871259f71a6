// Package scope infers which previously-computed state variable a rewritten
// return should merge. This is an approximation, not static analysis: only a
// bounded window of preceding lines is examined, and the window is cut at the
// nearest function-definition marker. A window that happens to span into an
// unrelated enclosing function can pick the wrong variable; that limitation
// is documented and surfaced as a low-confidence result, not corrected.
package scope

import (
	"regexp"
	"strings"
)

// DefaultWindow is the number of preceding lines examined.
const DefaultWindow = 20

// Resolution is the outcome of one merge-variable lookup.
type Resolution struct {
	// Variable is the chosen merge variable.
	Variable string
	// Fallback is true when nothing was found inside the window and the
	// lowest-priority candidate was used. Low confidence.
	Fallback bool
}

var reFuncDef = regexp.MustCompile(`^\s*(async\s+)?def\s+[A-Za-z_][A-Za-z0-9_]*\s*\(`)

// IsFuncDef reports whether the line is a function-definition marker.
func IsFuncDef(line string) bool {
	return reFuncDef.MatchString(line)
}

// Resolver picks a merge variable from a fixed priority-ordered candidate
// set. Identical content, offset, and configuration always yield the same
// choice.
type Resolver struct {
	candidates []string
	assign     map[string]*regexp.Regexp
	window     int
}

// NewResolver builds a resolver over the priority-ordered candidates. The
// last candidate doubles as the fallback. window <= 0 selects DefaultWindow.
func NewResolver(candidates []string, window int) *Resolver {
	if window <= 0 {
		window = DefaultWindow
	}
	assign := make(map[string]*regexp.Regexp, len(candidates))
	for _, name := range candidates {
		assign[name] = assignmentPattern(name)
	}
	return &Resolver{
		candidates: candidates,
		assign:     assign,
		window:     window,
	}
}

// Window returns the configured window size.
func (r *Resolver) Window() int {
	return r.window
}

// Fallback returns the lowest-priority candidate.
func (r *Resolver) Fallback() string {
	if len(r.candidates) == 0 {
		return ""
	}
	return r.candidates[len(r.candidates)-1]
}

// Resolve examines the window of lines preceding offset and returns the
// first candidate, in priority order, with an assignment inside it. The
// window is truncated at the nearest function-definition marker so that an
// assignment above the enclosing def header is not (usually) consulted.
func (r *Resolver) Resolve(content []byte, offset uint32) Resolution {
	region := r.windowLines(content, offset)
	for _, name := range r.candidates {
		re := r.assign[name]
		for _, line := range region {
			if re.MatchString(line) {
				return Resolution{Variable: name}
			}
		}
	}
	return Resolution{Variable: r.Fallback(), Fallback: true}
}

// Defined reports whether name is assigned inside the window preceding
// offset, bounded by the nearest enclosing function header. Used by the
// guard synthesizer's definedness check.
func (r *Resolver) Defined(content []byte, offset uint32, name string) bool {
	re, ok := r.assign[name]
	if !ok {
		re = assignmentPattern(name)
	}
	for _, line := range r.windowLines(content, offset) {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// windowLines returns the last window lines before offset, cut at the
// nearest def marker (the def line itself stays in the region; it cannot
// carry an assignment that the pattern matches).
func (r *Resolver) windowLines(content []byte, offset uint32) []string {
	if int(offset) > len(content) {
		offset = uint32(len(content))
	}
	lines := strings.Split(string(content[:offset]), "\n")
	start := len(lines) - r.window
	if start < 0 {
		start = 0
	}
	win := lines[start:]

	for i := len(win) - 1; i >= 0; i-- {
		if reFuncDef.MatchString(win[i]) {
			return win[i:]
		}
	}
	return win
}

// assignmentPattern matches `name =` but not `name ==`, and not attribute
// or suffix forms like `self.name =` / `other_name =`.
func assignmentPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^.\w])` + regexp.QuoteMeta(name) + `\s*=([^=]|$)`)
}
