// Package inline splits a single line of markdown text into ordered
// formatted runs (plain, bold, italic, code span, link).
package inline

import "regexp"

// Run is a contiguous span of text sharing one formatting state.
// At most one of Bold, Italic, Code is set; Link carries the target URL
// for link runs and is empty otherwise.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Link   string
}

// maxIterations bounds the scan loop against pathological input.
// When the cap is hit the whole line degrades to one plain run.
const maxIterations = 1000

// spanPattern matches the four inline constructs in one alternation.
// Order encodes priority: code span, then bold, then italic, then link.
// Go's regexp prefers earlier alternatives at the same start position, so
// a ** bold delimiter is never consumed by the single-* italic branch.
//
// Capture groups: 1 code body, 2 bold body, 3 italic body,
// 4 link text, 5 link URL.
var spanPattern = regexp.MustCompile(
	"`([^`\n]+)`" +
		`|\*\*([^*\n]+)\*\*` +
		`|\*([^*\n]+)\*` +
		`|\[([^\]\n]*)\]\(([^)\n]+)\)`,
)

// Segment scans line left to right and returns its ordered runs.
// Unmatched stretches between constructs become plain runs. Segmentation
// never fails: on an empty line or when the iteration cap is reached the
// entire line is returned as a single plain run.
func Segment(line string) []Run {
	if line == "" {
		return []Run{{Text: line}}
	}

	var runs []Run
	rest := line
	for i := 0; ; i++ {
		if i >= maxIterations {
			// Degrade: discard partial segmentation, no formatting detected.
			return []Run{{Text: line}}
		}

		loc := spanPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}

		if loc[0] > 0 {
			runs = append(runs, Run{Text: rest[:loc[0]]})
		}

		runs = append(runs, matchToRun(rest, loc))
		rest = rest[loc[1]:]
	}

	if rest != "" {
		runs = append(runs, Run{Text: rest})
	}
	if len(runs) == 0 {
		return []Run{{Text: line}}
	}
	return runs
}

// matchToRun converts one spanPattern match into its run.
func matchToRun(s string, loc []int) Run {
	group := func(n int) (string, bool) {
		if loc[2*n] < 0 {
			return "", false
		}
		return s[loc[2*n]:loc[2*n+1]], true
	}

	if body, ok := group(1); ok {
		return Run{Text: body, Code: true}
	}
	if body, ok := group(2); ok {
		return Run{Text: body, Bold: true}
	}
	if body, ok := group(3); ok {
		return Run{Text: body, Italic: true}
	}
	text, _ := group(4)
	url, _ := group(5)
	return Run{Text: text, Link: url}
}
