// Package markdown derives a read-only structural summary from raw
// markdown using a goldmark AST traversal.
//
// The summary is advisory: it reports what the content contains (links,
// headers, code and diagram blocks, tables, lists, blockquotes, script
// hints) in document order, and it is how diagram sources are discovered
// before rendering. Block order and content for serialization come from
// the line-level assembler, not from this package.
package markdown

import (
	"bytes"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrEmptyInput reports content that is empty or whitespace-only.
var ErrEmptyInput = errors.New("markdown content is empty or whitespace-only")

// diagramLanguage is the fence tag routed to DiagramBlocks instead of
// CodeBlocks. This is the single point where code and diagram content
// diverge.
const diagramLanguage = "mermaid"

// Link is an inline or auto link found in the content.
type Link struct {
	Text     string
	URL      string
	Title    string
	Sequence int
}

// Header is an ATX heading, level 1-6.
type Header struct {
	Level    int
	Text     string
	Sequence int
}

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	Language string
	Code     string
	Sequence int
}

// DiagramBlock is a fenced block carrying diagram source.
type DiagramBlock struct {
	Source   string
	Sequence int
}

// Table is a pipe table flattened to a header row plus data rows.
type Table struct {
	Headers  []string
	Rows     [][]string
	Sequence int
}

// ListBlock is one list with its item texts in order.
type ListBlock struct {
	Ordered  bool
	Items    []string
	Sequence int
}

// Blockquote is the flattened text of one quoted region.
type Blockquote struct {
	Text     string
	Sequence int
}

// Document is the structural summary of one piece of content.
//
// Sequence values are assigned in node-visitation order by a single
// depth-first walk: across all categories they are strictly increasing
// when sorted by document position, with no duplicates.
type Document struct {
	Links         []Link
	Headers       []Header
	CodeBlocks    []CodeBlock
	DiagramBlocks []DiagramBlock
	Tables        []Table
	Lists         []ListBlock
	Blockquotes   []Blockquote

	// Advisory script flags; they steer font fallback at the serializer
	// boundary, never acceptance.
	HasEmoji          bool
	HasNonLatinScript bool
}

// DiagramSources returns the diagram source texts in discovery order.
func (d *Document) DiagramSources() []string {
	sources := make([]string, len(d.DiagramBlocks))
	for i, b := range d.DiagramBlocks {
		sources[i] = b.Source
	}
	return sources
}

// newParser builds the goldmark instance shared by all Parse calls.
// GFM covers the subset this pipeline cares about (pipe tables,
// autolinks); everything else rides on the CommonMark core.
func newParser() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
}

var md = newParser()

// Parse builds the structural summary for content.
// It fails only on empty or whitespace-only input.
func Parse(content string) (*Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyInput
	}

	source := []byte(content)
	root := md.Parser().Parse(text.NewReader(source))

	doc := &Document{
		HasEmoji:          containsEmoji(content),
		HasNonLatinScript: containsNonLatinScript(content),
	}

	seq := 0
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		seq++

		switch node := n.(type) {
		case *ast.Heading:
			doc.Headers = append(doc.Headers, Header{
				Level:    node.Level,
				Text:     nodeText(node, source),
				Sequence: seq,
			})

		case *ast.Link:
			doc.Links = append(doc.Links, Link{
				Text:     nodeText(node, source),
				URL:      string(node.Destination),
				Title:    string(node.Title),
				Sequence: seq,
			})

		case *ast.AutoLink:
			url := string(node.URL(source))
			doc.Links = append(doc.Links, Link{
				Text:     string(node.Label(source)),
				URL:      url,
				Sequence: seq,
			})

		case *ast.FencedCodeBlock:
			lang := string(node.Language(source))
			code := blockLines(node, source)
			if strings.EqualFold(lang, diagramLanguage) {
				doc.DiagramBlocks = append(doc.DiagramBlocks, DiagramBlock{
					Source:   code,
					Sequence: seq,
				})
			} else {
				doc.CodeBlocks = append(doc.CodeBlocks, CodeBlock{
					Language: lang,
					Code:     code,
					Sequence: seq,
				})
			}

		case *ast.CodeBlock:
			doc.CodeBlocks = append(doc.CodeBlocks, CodeBlock{
				Code:     blockLines(node, source),
				Sequence: seq,
			})

		case *east.Table:
			doc.Tables = append(doc.Tables, flattenTable(node, source, seq))

		case *ast.List:
			doc.Lists = append(doc.Lists, ListBlock{
				Ordered:  node.IsOrdered(),
				Items:    listItems(node, source),
				Sequence: seq,
			})

		case *ast.Blockquote:
			doc.Blockquotes = append(doc.Blockquotes, Blockquote{
				Text:     nodeText(node, source),
				Sequence: seq,
			})
		}

		return ast.WalkContinue, nil
	})

	return doc, nil
}

// flattenTable turns a table node into headers plus data rows.
// Well-formed tables always lead with their header row; malformed ones
// are not specially detected.
func flattenTable(node *east.Table, source []byte, seq int) Table {
	t := Table{Sequence: seq}
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, nodeText(cell, source))
		}
		_, isHeader := row.(*east.TableHeader)
		if isHeader || (t.Headers == nil && len(t.Rows) == 0) {
			t.Headers = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// listItems collects the flattened text of each direct list item.
func listItems(node *ast.List, source []byte) []string {
	var items []string
	for item := node.FirstChild(); item != nil; item = item.NextSibling() {
		items = append(items, nodeText(item, source))
	}
	return items
}

// blockLines joins the raw line segments of a code or diagram block.
func blockLines(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// nodeText collects the plain text beneath a node, skipping any nested
// list so sibling structures don't bleed into each other's text.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
		case *ast.String:
			buf.Write(node.Value)
		case *ast.List:
			if c != n {
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// Unicode ranges scanned for the advisory flags. Coverage is deliberately
// coarse: these feed font-fallback hints, not correctness.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F900, 0x1FAFF}, // supplemental symbols
	{0x2600, 0x27BF},   // misc symbols, dingbats
}

var nonLatinRanges = [][2]rune{
	{0x0590, 0x05FF}, // Hebrew
	{0x0600, 0x06FF}, // Arabic
	{0x3040, 0x30FF}, // Hiragana, Katakana
	{0x4E00, 0x9FFF}, // CJK unified ideographs
	{0xAC00, 0xD7AF}, // Hangul syllables
}

func containsEmoji(s string) bool {
	return containsRange(s, emojiRanges)
}

func containsNonLatinScript(s string) bool {
	return containsRange(s, nonLatinRanges)
}

func containsRange(s string, ranges [][2]rune) bool {
	for _, r := range s {
		for _, rr := range ranges {
			if r >= rr[0] && r <= rr[1] {
				return true
			}
		}
	}
	return false
}
