package chatexport

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/diagram"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/markdown"
)

// Output format constants.
const (
	FormatDocx     = "docx"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// defaultBaseName is the filename stem used when no title is given.
const defaultBaseName = "chat-export"

// Input contains export parameters.
type Input struct {
	Markdown string // Markdown content (required)
	Title    string // Document title, also drives the filename (optional)
	Format   string // Output format (optional, empty = FormatDocx)
}

// Result is a completed export.
type Result struct {
	Data     []byte // produced bytes in the requested format
	Filename string // suggested filename, derived from the title

	// Parsed is the advisory structural summary; nil for markdown and
	// text modes, which never parse.
	Parsed *markdown.Document

	// Diagrams holds the per-diagram render outcomes, in discovery
	// order; failures correspond to placeholder paragraphs in the output.
	Diagrams []diagram.Result
}

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds internal configuration for Exporter.
type exporterConfig struct {
	maxRasterDim int
	theme        string
	codeStyle    string
	timeout      time.Duration
	onProgress   diagram.ProgressFunc
}

// defaultTimeout bounds one whole export.
const defaultTimeout = 2 * time.Minute

// WithBackend sets the diagram rendering backend. The Exporter takes
// ownership and closes it on Close.
func WithBackend(b diagram.Backend) Option {
	return func(e *Exporter) {
		e.backend = b
	}
}

// WithMaxRasterDim sets the single-axis pixel ceiling for diagram
// rasterization. Panics if n < 0 (programmer error).
func WithMaxRasterDim(n int) Option {
	if n < 0 {
		panic("chatexport: WithMaxRasterDim must not be negative")
	}
	return func(e *Exporter) {
		e.cfg.maxRasterDim = n
	}
}

// WithDiagramTheme sets the mermaid theme for the default backend.
func WithDiagramTheme(theme string) Option {
	return func(e *Exporter) {
		e.cfg.theme = theme
	}
}

// WithCodeStyle sets the chroma style used to color code blocks.
func WithCodeStyle(style string) Option {
	return func(e *Exporter) {
		e.cfg.codeStyle = style
	}
}

// WithTimeout sets the export timeout. Panics if d <= 0 (programmer
// error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("chatexport: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithLogger sets the structured logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProgress registers a per-diagram progress callback.
func WithProgress(fn diagram.ProgressFunc) Option {
	return func(e *Exporter) {
		e.cfg.onProgress = fn
	}
}

// normalizeFormat resolves the requested format, defaulting to docx.
func normalizeFormat(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "":
		return FormatDocx, true
	case FormatDocx, FormatMarkdown, FormatText:
		return strings.ToLower(format), true
	}
	return "", false
}
