// Package assemble walks raw markdown line by line and builds the
// ordered block-level document model.
//
// This is a second, independent pass over the same content the
// structural parser already saw: line-level control is what preserves
// the exact source ordering of interleaved block types, which the AST
// alone does not expose in a serializer-friendly order. The assembler is
// the sole source of truth for block order and content.
package assemble

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/diagram"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/document"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/inline"
)

// Precompiled line patterns.
var (
	crlfOrCR       = regexp.MustCompile(`\r\n?`)
	headingLine    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	fenceLine      = regexp.MustCompile("^```\\s*(\\S*)\\s*$")
	orderedItem    = regexp.MustCompile(`^(\s*)\d+[.)]\s+(.*)$`)
	bulletItem     = regexp.MustCompile(`^(\s*)[-*]\s+(.*)$`)
	separatorRow   = regexp.MustCompile(`^[\s|:\-]+$`)
	blockquoteMark = regexp.MustCompile(`^\s*(>\s?)+`)
)

// diagramLanguage is the fence tag whose body is replaced by a
// pre-rendered image instead of a code block.
const diagramLanguage = "mermaid"

// placeholderColor is the run color of render-failure placeholders.
const placeholderColor = "FF0000"

// assembler holds the state machine: NORMAL, inside a code fence, or
// inside a table. It scans strictly forward with no backtracking.
type assembler struct {
	model *document.Model

	// open paragraph
	para []inline.Run

	// code fence state
	inFence    bool
	fenceLang  string
	fenceLines []string

	// open table
	tableCols int
	tableRows []document.Row

	// diagram results, consumed as mermaid fences close
	results  []diagram.Result
	consumed []bool
}

// Assemble builds the document model for rawContent, substituting
// entries of diagramResults for mermaid fences as they close. Results
// are consumed in discovery order; each fence takes the next unconsumed
// entry, preferring one whose source hash matches the fence body.
func Assemble(rawContent string, diagramResults []diagram.Result) *document.Model {
	a := &assembler{
		model:    &document.Model{},
		results:  diagramResults,
		consumed: make([]bool, len(diagramResults)),
	}

	normalized := crlfOrCR.ReplaceAllString(rawContent, "\n")
	for _, line := range strings.Split(normalized, "\n") {
		a.feed(line)
	}
	a.finish()
	return a.model
}

// feed advances the state machine by one line.
func (a *assembler) feed(line string) {
	if a.inFence {
		a.feedFenced(line)
		return
	}

	trimmed := strings.TrimSpace(line)

	// Heading detection takes precedence over every other line pattern.
	if m := headingLine.FindStringSubmatch(trimmed); m != nil {
		a.flushParagraph()
		a.flushTable()
		a.model.Append(document.Heading{
			Level: len(m[1]),
			Runs:  inline.Segment(m[2]),
		})
		return
	}

	if m := fenceLine.FindStringSubmatch(trimmed); m != nil {
		a.flushParagraph()
		a.flushTable()
		a.inFence = true
		a.fenceLang = strings.ToLower(m[1])
		a.fenceLines = nil
		return
	}

	if m := orderedItem.FindStringSubmatch(line); m != nil {
		a.appendListItem(document.ListOrdered, m[1], m[2])
		return
	}
	if m := bulletItem.FindStringSubmatch(line); m != nil {
		a.appendListItem(document.ListUnordered, m[1], m[2])
		return
	}

	if strings.Count(line, "|") >= 2 {
		a.feedTableRow(line)
		return
	}
	a.flushTable()

	if trimmed == "" {
		a.flushParagraph()
		return
	}

	// Plain paragraph line. The block grammar is flat, so blockquote
	// markers are stripped and the text joins the current paragraph.
	text := blockquoteMark.ReplaceAllString(trimmed, "")
	if len(a.para) > 0 {
		a.para = append(a.para, inline.Run{Text: " "})
	}
	a.para = append(a.para, inline.Segment(text)...)
}

// feedFenced handles lines while inside a code fence.
func (a *assembler) feedFenced(line string) {
	if m := fenceLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil && m[1] == "" {
		a.closeFence()
		return
	}
	a.fenceLines = append(a.fenceLines, line)
}

// closeFence emits the buffered fence: a code block, or for diagram
// fences the next pre-rendered image (or its failure placeholder).
func (a *assembler) closeFence() {
	a.inFence = false
	body := strings.Join(a.fenceLines, "\n")
	a.fenceLines = nil

	if a.fenceLang != diagramLanguage {
		a.model.Append(document.CodeBlock{
			Language: a.fenceLang,
			Text:     body,
		})
		return
	}

	a.consumeDiagram(body)
}

// consumeDiagram attaches a render result to the fence that just closed.
// Consumption is positional, but the source hash carried on each result
// is cross-checked first: on a mismatch the unconsumed remainder is
// searched for the matching hash before falling back to position, so a
// reordering between extraction and assembly cannot silently attach the
// wrong image.
func (a *assembler) consumeDiagram(source string) {
	idx := -1
	for i, used := range a.consumed {
		if !used {
			idx = i
			break
		}
	}
	if idx < 0 {
		a.appendPlaceholder("no rendered diagram available for this block")
		return
	}

	want := diagram.SourceHash(source)
	if a.results[idx].SourceHash != want {
		for i := idx + 1; i < len(a.results); i++ {
			if !a.consumed[i] && a.results[i].SourceHash == want {
				idx = i
				break
			}
		}
	}
	a.consumed[idx] = true
	res := a.results[idx]

	if !res.OK {
		reason := "unknown error"
		if res.Err != nil {
			reason = res.Err.Error()
		}
		a.appendPlaceholder(reason)
		return
	}

	a.model.Append(document.Image{
		Data:   res.Image,
		Width:  res.Width,
		Height: res.Height,
	})
}

// appendPlaceholder emits the visible red-text stand-in for a diagram
// that could not be rendered. Assembly continues with the next block.
func (a *assembler) appendPlaceholder(reason string) {
	a.model.Append(document.Paragraph{
		Runs:  []inline.Run{{Text: fmt.Sprintf("[diagram could not be rendered: %s]", reason)}},
		Color: placeholderColor,
	})
}

// appendListItem emits one list item. Indent level is derived from
// leading whitespace, two columns per level.
func (a *assembler) appendListItem(kind document.ListKind, leading, text string) {
	a.flushParagraph()
	a.flushTable()
	a.model.Append(document.ListItem{
		Kind:   kind,
		Indent: len(leading) / 2,
		Runs:   inline.Segment(text),
	})
}

// feedTableRow handles a line with two or more pipes. Separator rows are
// skipped. The first data row fixes the column count; a row with a
// different cell count flushes the current table and starts a new one.
func (a *assembler) feedTableRow(line string) {
	a.flushParagraph()

	trimmed := strings.TrimSpace(line)
	if separatorRow.MatchString(trimmed) {
		return
	}

	cells := splitCells(trimmed)
	if a.tableCols != 0 && len(cells) != a.tableCols {
		a.flushTable()
	}
	if a.tableCols == 0 {
		a.tableCols = len(cells)
	}

	row := make(document.Row, len(cells))
	for i, cell := range cells {
		row[i] = inline.Segment(cell)
	}
	a.tableRows = append(a.tableRows, row)
}

// splitCells breaks a table line into trimmed cell texts.
func splitCells(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// flushParagraph closes the open paragraph, if any.
func (a *assembler) flushParagraph() {
	if len(a.para) == 0 {
		return
	}
	a.model.Append(document.Paragraph{Runs: a.para})
	a.para = nil
}

// flushTable closes the open table, if any.
func (a *assembler) flushTable() {
	if a.tableCols == 0 {
		return
	}
	a.model.Append(document.Table{
		Columns: a.tableCols,
		Rows:    a.tableRows,
	})
	a.tableCols = 0
	a.tableRows = nil
}

// finish flushes whatever remains open at end of input. An unterminated
// fence is emitted as a code block rather than dropped.
func (a *assembler) finish() {
	if a.inFence {
		a.closeFence()
	}
	a.flushParagraph()
	a.flushTable()
}
