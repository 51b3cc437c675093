// Package plaintext renders markdown as readable plain text by
// stripping markup rather than interpreting it.
package plaintext

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	crlfOrCR       = regexp.MustCompile(`\r\n?`)
	imagePattern   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	codeSpan       = regexp.MustCompile("`([^`]*)`")
	boldMarkers    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarkers  = regexp.MustCompile(`\*([^*]+)\*`)
	headingMarker  = regexp.MustCompile(`^#{1,6}\s+`)
	quoteMarker    = regexp.MustCompile(`^\s*(>\s?)+`)
	fenceDelimiter = regexp.MustCompile("^```\\s*(\\S*)\\s*$")
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// Render converts markdown content to plain text: code fences become a
// bracketed placeholder, inline markers are stripped, links collapse to
// their text, images to their alt text, and runs of blank lines are
// compressed.
func Render(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")

	var out []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if m := fenceDelimiter.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if inFence {
				inFence = false
				continue
			}
			inFence = true
			if m[1] != "" {
				out = append(out, "["+m[1]+" code]")
			} else {
				out = append(out, "[code]")
			}
			continue
		}
		if inFence {
			continue
		}
		out = append(out, renderLine(line))
	}

	result := strings.Join(out, "\n")
	result = blankRuns.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result) + "\n"
}

// renderLine strips the inline and line-prefix markup of one line.
func renderLine(line string) string {
	line = headingMarker.ReplaceAllString(line, "")
	line = quoteMarker.ReplaceAllString(line, "")
	line = imagePattern.ReplaceAllString(line, "[image: $1]")
	line = linkPattern.ReplaceAllString(line, "$1")
	line = codeSpan.ReplaceAllString(line, "$1")
	line = boldMarkers.ReplaceAllString(line, "$1")
	line = italicMarkers.ReplaceAllString(line, "$1")
	return line
}
