// Package scan locates return statements that build a mapping literal.
//
// Matching is textual and line-scoped: a literal is captured only up to the
// first closing brace on the line, nesting is not tracked. That keeps the
// matcher a bounded lexical heuristic rather than a parser, and it is what
// makes the rewrite a fixed point: a return that already spreads one of the
// reserved merge variables is never matched again.
package scan

import (
	"regexp"

	"statepatch/internal/source"
)

// Match is one located occurrence of the target return pattern.
type Match struct {
	// Span covers the text from the start of the line's indentation through
	// the first closing brace. Trailing text on the line is not included.
	Span source.Span
	// Indent is the captured leading whitespace, preserved verbatim.
	Indent string
	// Body is the literal's inner contents (key/value pairs), unmodified.
	Body string
	// Line is the 1-based line number of the match.
	Line uint32
}

var (
	reReturnLiteral = regexp.MustCompile(`^([ \t]*)return\s*\{\s*([^}]*)\}`)
	reSpreadHead    = regexp.MustCompile(`^\*\*([A-Za-z_][A-Za-z0-9_]*)`)
)

// Matcher scans file contents for rewrite candidates.
type Matcher struct {
	reserved map[string]struct{}
}

// NewMatcher builds a matcher that treats the given names as reserved merge
// variables: a return already spreading one of them is excluded.
func NewMatcher(reserved []string) *Matcher {
	set := make(map[string]struct{}, len(reserved))
	for _, name := range reserved {
		set[name] = struct{}{}
	}
	return &Matcher{reserved: set}
}

// Scan returns every bare mapping-literal return in the file, excluding
// returns that already merge a reserved variable. Zero matches is a valid
// result and means the file is left untouched.
func (m *Matcher) Scan(file *source.File) []Match {
	var matches []Match
	forEachLine(file.Content, func(lineStart int, lineNum uint32, line string) {
		idx := reReturnLiteral.FindStringSubmatchIndex(line)
		if idx == nil {
			return
		}
		body := line[idx[4]:idx[5]]
		if name, ok := spreadHead(body); ok {
			if _, reserved := m.reserved[name]; reserved {
				return
			}
		}
		matches = append(matches, Match{
			Span: source.Span{
				File:  file.ID,
				Start: uint32(lineStart + idx[0]),
				End:   uint32(lineStart + idx[1]),
			},
			Indent: line[idx[2]:idx[3]],
			Body:   body,
			Line:   lineNum,
		})
	})
	return matches
}

// ScanMerged returns the returns that already spread exactly the given
// variable. The guard synthesizer targets these. Body holds the remainder of
// the literal after the spread, verbatim (e.g. `, "y": 2`, or empty).
func (m *Matcher) ScanMerged(file *source.File, variable string) []Match {
	var matches []Match
	forEachLine(file.Content, func(lineStart int, lineNum uint32, line string) {
		idx := reReturnLiteral.FindStringSubmatchIndex(line)
		if idx == nil {
			return
		}
		body := line[idx[4]:idx[5]]
		name, ok := spreadHead(body)
		if !ok || name != variable {
			return
		}
		matches = append(matches, Match{
			Span: source.Span{
				File:  file.ID,
				Start: uint32(lineStart + idx[0]),
				End:   uint32(lineStart + idx[1]),
			},
			Indent: line[idx[2]:idx[3]],
			Body:   body[2+len(name):],
			Line:   lineNum,
		})
	})
	return matches
}

// spreadHead reports whether the literal body begins with a `**name` spread.
func spreadHead(body string) (string, bool) {
	sub := reSpreadHead.FindStringSubmatch(body)
	if sub == nil {
		return "", false
	}
	return sub[1], true
}

// forEachLine walks content line by line, reporting the byte offset of each
// line's start. Line numbers are 1-based.
func forEachLine(content []byte, fn func(lineStart int, lineNum uint32, line string)) {
	lineStart := 0
	lineNum := uint32(1)
	for i := 0; i <= len(content); i++ {
		if i == len(content) || content[i] == '\n' {
			fn(lineStart, lineNum, string(content[lineStart:i]))
			lineStart = i + 1
			lineNum++
		}
	}
}
