// Package chatexport converts chat-produced Markdown into Word documents.
//
// # Quick Start
//
// Create an exporter, export content, and close when done:
//
//	exp := chatexport.NewExporter()
//	defer exp.Close()
//
//	result, err := exp.Export(ctx, chatexport.Input{
//	    Markdown: "# Hello\n\nWorld",
//	    Title:    "Greeting",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.Data, 0644)
//
// # Export Pipeline
//
// A binary-document export runs these stages:
//
//  1. Structural parse via Goldmark: an advisory summary of links,
//     headers, code/diagram blocks, tables, and script hints, which is
//     also how diagram sources are discovered.
//  2. Diagram rendering: mermaid sources rendered to PNG one at a time
//     through headless Chrome (go-rod) or the mermaid.ink HTTP service.
//  3. Line-by-line assembly of the block-level document model, with
//     rendered images substituted for their fences.
//  4. DOCX serialization: OOXML paragraphs, runs, tables, numbering,
//     and drawings with exact twip/EMU layout units.
//
// Markdown and plain-text output modes skip stages 2-4.
//
// # Diagram Failure Handling
//
// A diagram that fails to render - bad grammar, an oversized drawing,
// a backend fault - degrades to a visible red placeholder paragraph in
// the produced document. Diagram failures never fail the export; parse
// and serialization errors do, and a failed export returns no bytes.
//
// # Configuration
//
// Use functional options to customize the exporter:
//
//	exp := chatexport.NewExporter(
//	    chatexport.WithBackend(diagram.NewInkBackend("", "dark")),
//	    chatexport.WithMaxRasterDim(2048),
//	    chatexport.WithCodeStyle("monokai"),
//	)
//
// # Browser Requirements
//
// The default rendering backend requires Chrome/Chromium; go-rod
// downloads a managed Chromium on first run. Set ROD_BROWSER_BIN to use
// a pre-installed browser, or switch to the ink backend where no
// browser is available.
package chatexport
