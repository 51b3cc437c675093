package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/document"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/inline"
)

func serialize(t *testing.T, model *document.Model) []byte {
	t.Helper()
	var s Serializer
	data, err := s.Serialize(model, "Test Document")
	require.NoError(t, err)
	return data
}

// readPart extracts one file from the produced package.
func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("part %s not found in package", name)
	return ""
}

func TestSerializePackageLayout(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Paragraph{Runs: []inline.Run{{Text: "hello"}}})

	data := serialize(t, model)

	for _, part := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/styles.xml",
		"word/numbering.xml",
		"word/_rels/document.xml.rels",
		"docProps/core.xml",
	} {
		readPart(t, data, part)
	}

	body := readPart(t, data, "word/document.xml")
	assert.Contains(t, body, `<w:t xml:space="preserve">hello</w:t>`)
	assert.Contains(t, body, `<w:pgSz w:w="12240" w:h="15840"/>`)

	core := readPart(t, data, "docProps/core.xml")
	assert.Contains(t, core, "<dc:title>Test Document</dc:title>")
}

func TestColumnWidthsSumExactly(t *testing.T) {
	for cols := 1; cols <= 12; cols++ {
		widths := ColumnWidths(cols)
		require.Len(t, widths, cols)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		assert.Equal(t, ContentWidthTwips, sum, "cols=%d", cols)
	}
}

func TestSerializeTableWidths(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Table{
		Columns: 3,
		Rows: []document.Row{
			{{{Text: "a"}}, {{Text: "b"}}, {{Text: "c"}}},
		},
	})

	body := readPart(t, serialize(t, model), "word/document.xml")

	// 9360/3 divides evenly.
	assert.Equal(t, 3, strings.Count(body, `<w:gridCol w:w="3120"/>`))
	assert.Contains(t, body, `<w:tblW w:w="9360" w:type="dxa"/>`)
}

func TestSerializeTableUnevenWidths(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Table{
		Columns: 7,
		Rows:    []document.Row{make(document.Row, 7)},
	})

	body := readPart(t, serialize(t, model), "word/document.xml")

	// 9360/7 = 1337 truncated; the last column absorbs the remainder.
	assert.Equal(t, 6, strings.Count(body, `<w:gridCol w:w="1337"/>`))
	assert.Equal(t, 1, strings.Count(body, `<w:gridCol w:w="1338"/>`))
}

func TestSerializeZeroColumnTableFatal(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Table{Columns: 0})

	var s Serializer
	_, err := s.Serialize(model, "")
	require.ErrorIs(t, err, ErrMalformedModel)
}

func TestScaleImage(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1600, 900, 624, 351},
		{624, 624, 624, 624},
		{100, 50, 100, 50},
		{1000, 1000, 624, 624},
		{3000, 1000, 624, 208},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.w, tt.h), func(t *testing.T) {
			gotW, gotH := ScaleImage(tt.w, tt.h)
			assert.Equal(t, tt.wantW, gotW)
			assert.Equal(t, tt.wantH, gotH)
		})
	}
}

func TestSerializeImage(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Image{Data: []byte("fake-png"), Width: 1600, Height: 900})

	data := serialize(t, model)
	body := readPart(t, data, "word/document.xml")

	// 624px and 351px at 9525 EMU per pixel.
	assert.Contains(t, body, `<wp:extent cx="5943600" cy="3343275"/>`)
	assert.Equal(t, "fake-png", readPart(t, data, "word/media/image1.png"))

	rels := readPart(t, data, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Target="media/image1.png"`)
}

func TestSerializeImageWithoutDimensionsFatal(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Image{Data: []byte("x"), Width: 0, Height: 10})

	var s Serializer
	_, err := s.Serialize(model, "")
	require.ErrorIs(t, err, ErrMalformedModel)
}

func TestSerializeHeadingStyles(t *testing.T) {
	model := &document.Model{}
	for level := 1; level <= 6; level++ {
		model.Append(document.Heading{Level: level, Runs: []inline.Run{{Text: "h"}}})
	}

	body := readPart(t, serialize(t, model), "word/document.xml")
	for level := 1; level <= 6; level++ {
		assert.Contains(t, body, fmt.Sprintf(`<w:pStyle w:val="Heading%d"/>`, level))
	}
}

func TestSerializeInvalidHeadingLevelFatal(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Heading{Level: 7})

	var s Serializer
	_, err := s.Serialize(model, "")
	require.ErrorIs(t, err, ErrMalformedModel)
}

func TestSerializeListNumbering(t *testing.T) {
	model := &document.Model{}
	model.Append(document.ListItem{Kind: document.ListUnordered, Indent: 0, Runs: []inline.Run{{Text: "a"}}})
	model.Append(document.ListItem{Kind: document.ListOrdered, Indent: 1, Runs: []inline.Run{{Text: "b"}}})
	model.Append(document.ListItem{Kind: document.ListOrdered, Indent: 9, Runs: []inline.Run{{Text: "clamped"}}})

	body := readPart(t, serialize(t, model), "word/document.xml")

	assert.Contains(t, body, `<w:ilvl w:val="0"/><w:numId w:val="1"/>`)
	assert.Contains(t, body, `<w:ilvl w:val="1"/><w:numId w:val="2"/>`)
	// Indent beyond the three predefined levels clamps to the deepest.
	assert.Contains(t, body, `<w:ilvl w:val="2"/><w:numId w:val="2"/>`)

	numbering := readPart(t, serialize(t, model), "word/numbering.xml")
	assert.Contains(t, numbering, `<w:ind w:left="720" w:hanging="360"/>`)
	assert.Contains(t, numbering, `<w:ind w:left="1440" w:hanging="360"/>`)
	assert.Contains(t, numbering, `<w:ind w:left="2160" w:hanging="360"/>`)
}

func TestSerializeHyperlink(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Paragraph{Runs: []inline.Run{
		{Text: "visit "},
		{Text: "example", Link: "https://example.com/?a=1&b=2"},
	}})

	data := serialize(t, model)
	body := readPart(t, data, "word/document.xml")
	rels := readPart(t, data, "word/_rels/document.xml.rels")

	assert.Contains(t, body, `<w:hyperlink r:id="rId3">`)
	assert.Contains(t, body, `<w:rStyle w:val="Hyperlink"/>`)
	assert.Contains(t, rels, `Target="https://example.com/?a=1&amp;b=2" TargetMode="External"`)

	styles := readPart(t, data, "word/styles.xml")
	assert.Contains(t, styles, `<w:color w:val="0000FF"/><w:u w:val="single"/>`)
}

func TestSerializeFormattedRuns(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Paragraph{Runs: []inline.Run{
		{Text: "b", Bold: true},
		{Text: "i", Italic: true},
		{Text: "c", Code: true},
	}})

	body := readPart(t, serialize(t, model), "word/document.xml")

	assert.Contains(t, body, `<w:rPr><w:b/></w:rPr><w:t xml:space="preserve">b</w:t>`)
	assert.Contains(t, body, `<w:rPr><w:i/></w:rPr><w:t xml:space="preserve">i</w:t>`)
	assert.Contains(t, body, `w:ascii="Consolas"`)
}

func TestSerializePlaceholderColor(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Paragraph{
		Runs:  []inline.Run{{Text: "[diagram could not be rendered: boom]"}},
		Color: "FF0000",
	})

	body := readPart(t, serialize(t, model), "word/document.xml")
	assert.Contains(t, body, `<w:color w:val="FF0000"/>`)
}

func TestSerializeCodeBlock(t *testing.T) {
	model := &document.Model{}
	model.Append(document.CodeBlock{Language: "go", Text: "package main\n\nvar x = 1"})

	body := readPart(t, serialize(t, model), "word/document.xml")

	assert.Equal(t, 3, strings.Count(body, `<w:pStyle w:val="CodeBlock"/>`))
	// Keyword coloring from chroma.
	assert.Contains(t, body, `<w:color w:val=`)
	assert.Contains(t, body, `<w:t xml:space="preserve">package</w:t>`)
}

func TestSerializeCodeBlockUnknownLanguage(t *testing.T) {
	model := &document.Model{}
	model.Append(document.CodeBlock{Language: "no-such-lang", Text: "a\nb"})

	body := readPart(t, serialize(t, model), "word/document.xml")
	assert.Equal(t, 2, strings.Count(body, `<w:pStyle w:val="CodeBlock"/>`))
	assert.Contains(t, body, `<w:t xml:space="preserve">a</w:t>`)
}

func TestSerializeEscapesXML(t *testing.T) {
	model := &document.Model{}
	model.Append(document.Paragraph{Runs: []inline.Run{{Text: `a < b & "c"`}}})

	body := readPart(t, serialize(t, model), "word/document.xml")
	assert.Contains(t, body, "a &lt; b &amp;")
	assert.NotContains(t, body, `<w:t xml:space="preserve">a < b`)
}

func TestSerializeNilModelFatal(t *testing.T) {
	var s Serializer
	_, err := s.Serialize(nil, "")
	require.ErrorIs(t, err, ErrMalformedModel)
}
