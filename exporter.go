package chatexport

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/diagram"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/assemble"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/docx"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/fileutil"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/plaintext"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/markdown"
)

// Exporter converts chat markdown into downloadable documents.
// Construct with NewExporter; the zero value is not usable.
type Exporter struct {
	backend diagram.Backend
	logger  *zap.Logger
	cfg     exporterConfig
}

// NewExporter creates a ready-to-use Exporter. Without options it
// renders diagrams in a local Chromium via the rod backend and writes
// DOCX with default styling.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{
		logger: zap.NewNop(),
		cfg: exporterConfig{
			maxRasterDim: diagram.DefaultMaxRasterDim,
			theme:        "default",
			codeStyle:    "github",
			timeout:      defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backend == nil {
		e.backend = diagram.NewRodBackend(e.cfg.theme)
	}
	return e
}

// Export runs the full pipeline for one conversation. The returned
// Result carries the output bytes, a suggested filename, and per-diagram
// outcomes. Individual diagram failures degrade to placeholders; only
// empty input, an unknown format, or serialization problems fail the
// export, and a failed export returns no bytes.
func (e *Exporter) Export(ctx context.Context, in Input) (result *Result, err error) {
	// The pipeline trusts its own stages past this boundary; a panic
	// below means a defect, surfaced as an error rather than a crash.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("export: internal error: %v", r)
			e.logger.Error("export panicked", zap.Any("panic", r))
		}
	}()

	if in.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}
	format, ok := normalizeFormat(in.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, in.Format)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	base := fileutil.SanitizeFilename(in.Title, defaultBaseName)

	switch format {
	case FormatMarkdown:
		return &Result{
			Data:     []byte(in.Markdown),
			Filename: base + ".md",
		}, nil
	case FormatText:
		return &Result{
			Data:     []byte(plaintext.Render(in.Markdown)),
			Filename: base + ".txt",
		}, nil
	}

	return e.exportDocx(ctx, in, base)
}

func (e *Exporter) exportDocx(ctx context.Context, in Input, base string) (*Result, error) {
	parsed, err := markdown.Parse(in.Markdown)
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}

	sources := parsed.DiagramSources()
	coord := diagram.NewCoordinator(e.backend, e.cfg.maxRasterDim, e.logger)
	results := coord.RenderAll(ctx, sources, e.cfg.onProgress)

	model := assemble.Assemble(in.Markdown, results)

	ser := &docx.Serializer{CodeStyle: e.cfg.codeStyle}
	data, err := ser.Serialize(model, in.Title)
	if err != nil {
		return nil, fmt.Errorf("serialize docx: %w", err)
	}

	e.logger.Info("export complete",
		zap.Int("diagrams", len(sources)),
		zap.Int("bytes", len(data)))

	return &Result{
		Data:     data,
		Filename: base + ".docx",
		Parsed:   parsed,
		Diagrams: results,
	}, nil
}

// Close releases the rendering backend. Safe to call when no browser
// was ever started.
func (e *Exporter) Close() error {
	if e.backend == nil {
		return nil
	}
	return e.backend.Close()
}
