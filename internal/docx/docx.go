// Package docx serializes the block-level document model into an OOXML
// word-processing package.
//
// A .docx file is a ZIP archive of XML parts; the main body lives at
// word/document.xml with styles, numbering, relationships, and media as
// sibling parts. The serializer walks the block sequence once, emitting
// paragraph, run, table, and drawing markup with exact layout units:
// twips for widths and indents, EMUs for image extents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/document"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/inline"
)

// ErrMalformedModel reports an internally inconsistent document model.
// This is a programming defect in assembly, not a user-input problem,
// and it fails the whole export.
var ErrMalformedModel = errors.New("malformed document model")

// Layout constants. One inch is 1440 twips, 96 pixels, or 914400 EMUs.
const (
	// ContentWidthTwips is the usable width between one-inch margins on a
	// US Letter page: 6.5in. Table column widths always sum to exactly this.
	ContentWidthTwips = 9360

	// ContentWidthPixels is the same 6.5in span at 96dpi; it caps image
	// display width.
	ContentWidthPixels = 624

	// emuPerPixel converts 96dpi pixels to English Metric Units.
	emuPerPixel = 9525

	// maxNumberingLevel is the deepest predefined list level (0-based).
	maxNumberingLevel = 2

	bulletNumID  = 1
	decimalNumID = 2
)

// Serializer turns document models into DOCX bytes. The zero value is
// usable; CodeStyle selects the chroma style for code-block coloring.
type Serializer struct {
	CodeStyle string
}

// Serialize emits the complete DOCX package for model. A malformed model
// (zero-column table, image without dimensions) is fatal: no partial
// output is ever returned.
func (s *Serializer) Serialize(model *document.Model, title string) ([]byte, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrMalformedModel)
	}

	body, media, rels, err := s.buildBody(model)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"docProps/core.xml", []byte(corePropsXML(title))},
		{"docProps/app.xml", []byte(appPropsXML)},
		{"word/document.xml", body},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/_rels/document.xml.rels", rels},
	}
	for i, m := range media {
		parts = append(parts, struct {
			name string
			data []byte
		}{fmt.Sprintf("word/media/image%d.png", i+1), m})
	}

	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("creating package part %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("writing package part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing package: %w", err)
	}
	return buf.Bytes(), nil
}

// relationship is one entry of word/_rels/document.xml.rels.
type relationship struct {
	id     string
	relTyp string
	target string
	mode   string
}

// bodyWriter accumulates the document body along with the media parts
// and relationships the body refers to.
type bodyWriter struct {
	sb    strings.Builder
	media [][]byte
	rels  []relationship
}

// addImageRel registers a media part and returns its relationship ID.
func (w *bodyWriter) addImageRel(data []byte) string {
	w.media = append(w.media, data)
	id := fmt.Sprintf("rId%d", len(w.rels)+1)
	w.rels = append(w.rels, relationship{
		id:     id,
		relTyp: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image",
		target: fmt.Sprintf("media/image%d.png", len(w.media)),
	})
	return id
}

// addHyperlinkRel registers an external hyperlink target and returns its
// relationship ID.
func (w *bodyWriter) addHyperlinkRel(url string) string {
	id := fmt.Sprintf("rId%d", len(w.rels)+1)
	w.rels = append(w.rels, relationship{
		id:     id,
		relTyp: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink",
		target: url,
		mode:   "External",
	})
	return id
}

// buildBody walks the blocks and produces document.xml, the media parts,
// and the relationships part.
func (s *Serializer) buildBody(model *document.Model) ([]byte, [][]byte, []byte, error) {
	w := &bodyWriter{}
	w.rels = append(w.rels,
		relationship{
			id:     "rId1",
			relTyp: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles",
			target: "styles.xml",
		},
		relationship{
			id:     "rId2",
			relTyp: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering",
			target: "numbering.xml",
		},
	)

	w.sb.WriteString(documentHeader)
	for i, block := range model.Blocks {
		if err := s.writeBlock(w, block); err != nil {
			return nil, nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	w.sb.WriteString(documentFooter)

	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + "\n")
	for _, r := range w.rels {
		rels.WriteString(`<Relationship Id="` + r.id + `" Type="` + r.relTyp + `" Target="` + escapeXML(r.target) + `"`)
		if r.mode != "" {
			rels.WriteString(` TargetMode="` + r.mode + `"`)
		}
		rels.WriteString("/>\n")
	}
	rels.WriteString("</Relationships>\n")

	return []byte(w.sb.String()), w.media, []byte(rels.String()), nil
}

// writeBlock dispatches one block to its emitter.
func (s *Serializer) writeBlock(w *bodyWriter, block document.Block) error {
	switch b := block.(type) {
	case document.Heading:
		return writeHeading(w, b)
	case document.Paragraph:
		return writeParagraph(w, b)
	case document.ListItem:
		return writeListItem(w, b)
	case document.Table:
		return writeTable(w, b)
	case document.Image:
		return writeImage(w, b)
	case document.CodeBlock:
		return s.writeCodeBlock(w, b)
	default:
		return fmt.Errorf("%w: unknown block type %T", ErrMalformedModel, block)
	}
}

func writeHeading(w *bodyWriter, h document.Heading) error {
	if h.Level < 1 || h.Level > 6 {
		return fmt.Errorf("%w: heading level %d", ErrMalformedModel, h.Level)
	}
	w.sb.WriteString("<w:p>")
	fmt.Fprintf(&w.sb, `<w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>`, h.Level)
	writeRuns(w, h.Runs, "")
	w.sb.WriteString("</w:p>\n")
	return nil
}

func writeParagraph(w *bodyWriter, p document.Paragraph) error {
	w.sb.WriteString("<w:p>")
	writeRuns(w, p.Runs, p.Color)
	w.sb.WriteString("</w:p>\n")
	return nil
}

func writeListItem(w *bodyWriter, li document.ListItem) error {
	numID := bulletNumID
	if li.Kind == document.ListOrdered {
		numID = decimalNumID
	}
	level := li.Indent
	if level > maxNumberingLevel {
		level = maxNumberingLevel
	}
	if level < 0 {
		return fmt.Errorf("%w: negative list indent %d", ErrMalformedModel, li.Indent)
	}

	w.sb.WriteString("<w:p>")
	fmt.Fprintf(&w.sb,
		`<w:pPr><w:numPr><w:ilvl w:val="%d"/><w:numId w:val="%d"/></w:numPr></w:pPr>`,
		level, numID)
	writeRuns(w, li.Runs, "")
	w.sb.WriteString("</w:p>\n")
	return nil
}

// ColumnWidths divides the fixed content width over cols columns in
// twips. Integer truncation is absorbed by the last column so the sum is
// always exactly ContentWidthTwips.
func ColumnWidths(cols int) []int {
	base := ContentWidthTwips / cols
	widths := make([]int, cols)
	for i := range widths {
		widths[i] = base
	}
	widths[cols-1] = ContentWidthTwips - base*(cols-1)
	return widths
}

func writeTable(w *bodyWriter, t document.Table) error {
	if t.Columns <= 0 {
		return fmt.Errorf("%w: table with %d columns", ErrMalformedModel, t.Columns)
	}

	widths := ColumnWidths(t.Columns)

	w.sb.WriteString("<w:tbl>")
	fmt.Fprintf(&w.sb,
		`<w:tblPr><w:tblW w:w="%d" w:type="dxa"/><w:tblBorders>`+
			`<w:top w:val="single" w:sz="4" w:color="auto"/>`+
			`<w:left w:val="single" w:sz="4" w:color="auto"/>`+
			`<w:bottom w:val="single" w:sz="4" w:color="auto"/>`+
			`<w:right w:val="single" w:sz="4" w:color="auto"/>`+
			`<w:insideH w:val="single" w:sz="4" w:color="auto"/>`+
			`<w:insideV w:val="single" w:sz="4" w:color="auto"/>`+
			`</w:tblBorders></w:tblPr>`,
		ContentWidthTwips)

	w.sb.WriteString("<w:tblGrid>")
	for _, width := range widths {
		fmt.Fprintf(&w.sb, `<w:gridCol w:w="%d"/>`, width)
	}
	w.sb.WriteString("</w:tblGrid>")

	for _, row := range t.Rows {
		w.sb.WriteString("<w:tr>")
		for col := 0; col < t.Columns; col++ {
			var runs []inline.Run
			if col < len(row) {
				runs = row[col]
			}
			fmt.Fprintf(&w.sb, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr><w:p>`, widths[col])
			writeRuns(w, runs, "")
			w.sb.WriteString("</w:p></w:tc>")
		}
		w.sb.WriteString("</w:tr>")
	}
	w.sb.WriteString("</w:tbl>\n")

	// A paragraph after a table keeps adjacent tables from merging.
	w.sb.WriteString("<w:p/>\n")
	return nil
}

// ScaleImage computes display dimensions for an image of intrinsic size
// w by h: width capped at the page content width, height scaled to
// preserve aspect ratio, rounded to nearest.
func ScaleImage(w, h int) (int, int) {
	renderW := w
	if renderW > ContentWidthPixels {
		renderW = ContentWidthPixels
	}
	renderH := int(math.Round(float64(renderW) * float64(h) / float64(w)))
	return renderW, renderH
}

func writeImage(w *bodyWriter, img document.Image) error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: image with dimensions %dx%d", ErrMalformedModel, img.Width, img.Height)
	}
	if len(img.Data) == 0 {
		return fmt.Errorf("%w: image with no data", ErrMalformedModel)
	}

	renderW, renderH := ScaleImage(img.Width, img.Height)
	cx := renderW * emuPerPixel
	cy := renderH * emuPerPixel

	relID := w.addImageRel(img.Data)
	picID := len(w.media)

	w.sb.WriteString("<w:p><w:r><w:drawing>")
	fmt.Fprintf(&w.sb,
		`<wp:inline distT="0" distB="0" distL="0" distR="0">`+
			`<wp:extent cx="%d" cy="%d"/>`+
			`<wp:docPr id="%d" name="Diagram %d"/>`+
			`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic>`+
			`<pic:nvPicPr><pic:cNvPr id="%d" name="Diagram %d"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic>`+
			`</a:graphicData></a:graphic>`+
			`</wp:inline>`,
		cx, cy, picID, picID, picID, picID, relID, cx, cy)
	w.sb.WriteString("</w:drawing></w:r></w:p>\n")
	return nil
}

// writeCodeBlock emits one paragraph per source line in the code-block
// style, with chroma token colors when the language is recognized.
func (s *Serializer) writeCodeBlock(w *bodyWriter, cb document.CodeBlock) error {
	lines := highlightLines(cb.Language, cb.Text, s.CodeStyle)
	for _, line := range lines {
		w.sb.WriteString(`<w:p><w:pPr><w:pStyle w:val="CodeBlock"/></w:pPr>`)
		for _, tok := range line {
			w.sb.WriteString("<w:r><w:rPr>")
			if tok.Color != "" {
				fmt.Fprintf(&w.sb, `<w:color w:val="%s"/>`, tok.Color)
			}
			if tok.Bold {
				w.sb.WriteString("<w:b/>")
			}
			if tok.Italic {
				w.sb.WriteString("<w:i/>")
			}
			w.sb.WriteString("</w:rPr>")
			writeText(&w.sb, tok.Text)
			w.sb.WriteString("</w:r>")
		}
		w.sb.WriteString("</w:p>\n")
	}
	return nil
}

// writeRuns emits the runs of one paragraph-like container. colorOverride,
// when non-empty, is applied to every run.
func writeRuns(w *bodyWriter, runs []inline.Run, colorOverride string) {
	for _, run := range runs {
		if run.Link != "" {
			relID := w.addHyperlinkRel(run.Link)
			fmt.Fprintf(&w.sb, `<w:hyperlink r:id="%s">`, relID)
			w.sb.WriteString(`<w:r><w:rPr><w:rStyle w:val="Hyperlink"/></w:rPr>`)
			writeText(&w.sb, run.Text)
			w.sb.WriteString("</w:r></w:hyperlink>")
			continue
		}

		w.sb.WriteString("<w:r><w:rPr>")
		if run.Bold {
			w.sb.WriteString("<w:b/>")
		}
		if run.Italic {
			w.sb.WriteString("<w:i/>")
		}
		if run.Code {
			w.sb.WriteString(`<w:rFonts w:ascii="Consolas" w:hAnsi="Consolas" w:cs="Consolas"/>` +
				`<w:shd w:val="clear" w:color="auto" w:fill="F5F5F5"/>`)
		}
		if colorOverride != "" {
			fmt.Fprintf(&w.sb, `<w:color w:val="%s"/>`, colorOverride)
		}
		w.sb.WriteString("</w:rPr>")
		writeText(&w.sb, run.Text)
		w.sb.WriteString("</w:r>")
	}
}

// writeText emits a text element preserving leading/trailing spaces.
func writeText(sb *strings.Builder, text string) {
	sb.WriteString(`<w:t xml:space="preserve">`)
	sb.WriteString(escapeXML(text))
	sb.WriteString("</w:t>")
}

// escapeXML escapes text for embedding in XML character data.
func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// corePropsXML builds docProps/core.xml carrying the document title.
func corePropsXML(title string) string {
	now := time.Now().UTC().Format(time.RFC3339)
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>` + escapeXML(title) + `</dc:title>
<dcterms:created xsi:type="dcterms:W3CDTF">` + now + `</dcterms:created>
<dcterms:modified xsi:type="dcterms:W3CDTF">` + now + `</dcterms:modified>
</cp:coreProperties>
`
}
