// Package document defines the block-level model produced by assembly
// and consumed by the DOCX serializer.
//
// The grammar is deliberately flat: blocks never nest beyond the indent
// level carried by list items. Keeping the model a closed set of tagged
// variants is what lets the serializer do exact column-width and indent
// math without walking a recursive tree.
package document

import "github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/inline"

// ListKind distinguishes bullet from numbered list items.
type ListKind string

const (
	ListUnordered ListKind = "unordered"
	ListOrdered   ListKind = "ordered"
)

// Block is one structural document unit in final layout order.
type Block interface {
	block()
}

// Heading is a level 1-6 heading with its formatted runs.
type Heading struct {
	Level int
	Runs  []inline.Run
}

// Paragraph is a sequence of formatted runs. Color, when set, is an RRGGBB
// override applied to every run; it is used for render-failure placeholders.
type Paragraph struct {
	Runs  []inline.Run
	Color string
}

// ListItem is a single list entry. Indent is the nesting level (0-based);
// the serializer maps it onto one of three predefined numbering levels.
type ListItem struct {
	Kind   ListKind
	Indent int
	Runs   []inline.Run
}

// Row is one table row: a cell per column, each cell holding its runs.
type Row [][]inline.Run

// Table is a grid with a fixed column count. Every row has exactly
// Columns cells; the assembler starts a new Table when a source row
// disagrees with the established count.
type Table struct {
	Columns int
	Rows    []Row
}

// Image is a pre-rendered raster with its intrinsic pixel dimensions.
// The serializer computes display size from these, preserving aspect ratio.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// CodeBlock is the verbatim body of a non-diagram fence.
type CodeBlock struct {
	Language string
	Text     string
}

func (Heading) block()   {}
func (Paragraph) block() {}
func (ListItem) block()  {}
func (Table) block()     {}
func (Image) block()     {}
func (CodeBlock) block() {}

// Model is the ordered block sequence for one export. It is built
// append-only by the assembler and never edited after a block is added.
type Model struct {
	Blocks []Block
}

// Append adds a block to the end of the model.
func (m *Model) Append(b Block) {
	m.Blocks = append(m.Blocks, b)
}
