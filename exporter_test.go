package chatexport

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/diagram"
)

// stubBackend renders every diagram to a fixed fake bitmap, or fails
// each compile when failCompile is set.
type stubBackend struct {
	failCompile bool
	closed      bool
}

func (b *stubBackend) Compile(_ context.Context, source string) (*diagram.Vector, error) {
	if b.failCompile {
		return nil, errors.New("stub compile failure")
	}
	return &diagram.Vector{Data: []byte("<svg/>"), Width: 400, Height: 300}, nil
}

func (b *stubBackend) Rasterize(_ context.Context, _ *diagram.Vector) ([]byte, error) {
	return []byte("fake-png-bytes"), nil
}

func (b *stubBackend) Close() error {
	b.closed = true
	return nil
}

const sampleChat = "# Meeting Notes\n" +
	"\n" +
	"Some **bold** intro with a [link](https://example.com).\n" +
	"\n" +
	"```mermaid\n" +
	"graph TD; A-->B;\n" +
	"```\n" +
	"\n" +
	"- first point\n" +
	"- second point\n"

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part %s: %v", name, err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read part %s: %v", name, err)
		}
		return string(body)
	}
	t.Fatalf("part %s not found in docx", name)
	return ""
}

func TestExportDocx(t *testing.T) {
	backend := &stubBackend{}
	e := NewExporter(WithBackend(backend))
	defer e.Close()

	result, err := e.Export(context.Background(), Input{
		Markdown: sampleChat,
		Title:    "Meeting Notes 2026",
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if result.Filename != "Meeting-Notes-2026.docx" {
		t.Errorf("Filename = %q, want %q", result.Filename, "Meeting-Notes-2026.docx")
	}
	if len(result.Diagrams) != 1 {
		t.Fatalf("len(Diagrams) = %d, want 1", len(result.Diagrams))
	}
	if !result.Diagrams[0].OK {
		t.Errorf("diagram result not OK: %v", result.Diagrams[0].Err)
	}
	if result.Parsed == nil {
		t.Fatal("Parsed summary is nil for docx export")
	}

	body := readZipPart(t, result.Data, "word/document.xml")
	if !strings.Contains(body, "Meeting Notes") {
		t.Error("document body missing heading text")
	}
	if !strings.Contains(body, "<wp:inline") {
		t.Error("document body missing inline image for rendered diagram")
	}
	readZipPart(t, result.Data, "word/media/image1.png")
}

func TestExportMarkdownPassthrough(t *testing.T) {
	e := NewExporter(WithBackend(&stubBackend{}))
	defer e.Close()

	result, err := e.Export(context.Background(), Input{
		Markdown: sampleChat,
		Title:    "notes",
		Format:   FormatMarkdown,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.Equal(result.Data, []byte(sampleChat)) {
		t.Error("markdown output is not byte-for-byte identical to input")
	}
	if result.Filename != "notes.md" {
		t.Errorf("Filename = %q, want notes.md", result.Filename)
	}
	if result.Parsed != nil || result.Diagrams != nil {
		t.Error("markdown passthrough must not parse or render")
	}
}

func TestExportPlainText(t *testing.T) {
	e := NewExporter(WithBackend(&stubBackend{}))
	defer e.Close()

	result, err := e.Export(context.Background(), Input{
		Markdown: "# Title\n\nHello **world**.\n",
		Format:   FormatText,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	text := string(result.Data)
	if strings.Contains(text, "#") || strings.Contains(text, "**") {
		t.Errorf("plain text still contains markdown markers: %q", text)
	}
	if !strings.Contains(text, "Hello world.") {
		t.Errorf("plain text missing content: %q", text)
	}
	if result.Filename != "chat-export.txt" {
		t.Errorf("Filename = %q, want fallback stem", result.Filename)
	}
}

func TestExportEmptyMarkdown(t *testing.T) {
	e := NewExporter(WithBackend(&stubBackend{}))
	defer e.Close()

	_, err := e.Export(context.Background(), Input{Markdown: ""})
	if !errors.Is(err, ErrEmptyMarkdown) {
		t.Errorf("Export() error = %v, want ErrEmptyMarkdown", err)
	}
}

func TestExportInvalidFormat(t *testing.T) {
	e := NewExporter(WithBackend(&stubBackend{}))
	defer e.Close()

	_, err := e.Export(context.Background(), Input{
		Markdown: "# Hi\n",
		Format:   "pdf",
	})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Export() error = %v, want ErrInvalidFormat", err)
	}
}

func TestExportDiagramFailureDegrades(t *testing.T) {
	e := NewExporter(WithBackend(&stubBackend{failCompile: true}))
	defer e.Close()

	result, err := e.Export(context.Background(), Input{
		Markdown: sampleChat,
		Title:    "broken diagram",
	})
	if err != nil {
		t.Fatalf("Export() error = %v, want success with placeholder", err)
	}
	if len(result.Diagrams) != 1 || result.Diagrams[0].OK {
		t.Fatalf("expected one failed diagram result, got %+v", result.Diagrams)
	}

	body := readZipPart(t, result.Data, "word/document.xml")
	if !strings.Contains(body, "diagram could not be rendered") {
		t.Error("document body missing failure placeholder text")
	}
	if strings.Contains(body, "<wp:inline") {
		t.Error("failed diagram must not produce an embedded image")
	}
}

func TestCloseReleasesBackend(t *testing.T) {
	backend := &stubBackend{}
	e := NewExporter(WithBackend(backend))
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !backend.closed {
		t.Error("Close() did not close the backend")
	}
}
