package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/config"
)

// cliFlags holds all command-line options for chat-export.
type cliFlags struct {
	output       string
	format       string
	title        string
	configPath   string
	backend      string
	theme        string
	codeStyle    string
	inkBaseURL   string
	maxRasterDim int
	verbose      bool

	fs *flag.FlagSet
}

// parseFlags parses argv and returns the flags plus positional input
// paths.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("chat-export", flag.ContinueOnError)
	fs.SortFlags = false
	fs.Usage = func() { printUsage(fs) }

	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: alongside input)")
	fs.StringVarP(&f.format, "format", "f", "", "output format: docx, markdown, or text")
	fs.StringVarP(&f.title, "title", "t", "", "document title (default: derived from filename)")
	fs.StringVarP(&f.configPath, "config", "c", "", "config file path")
	fs.StringVar(&f.backend, "backend", "", "diagram backend: browser or ink")
	fs.StringVar(&f.theme, "theme", "", "mermaid diagram theme")
	fs.StringVar(&f.codeStyle, "code-style", "", "chroma style for code-block coloring")
	fs.StringVar(&f.inkBaseURL, "ink-base-url", "", "override the ink backend endpoint")
	fs.IntVar(&f.maxRasterDim, "max-raster-dim", 0, "single-axis pixel ceiling for diagram rasters")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging to stderr")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}
	f.fs = fs
	return f, fs.Args(), nil
}

// mergeConfig overlays explicitly set flags onto a loaded config, so
// flags always win over the config file.
func (f *cliFlags) mergeConfig(cfg *config.Config) {
	if f.fs.Changed("output") {
		cfg.Output.Dir = f.output
	}
	if f.fs.Changed("format") {
		cfg.Output.Format = f.format
	}
	if f.fs.Changed("backend") {
		cfg.Diagram.Backend = f.backend
	}
	if f.fs.Changed("theme") {
		cfg.Diagram.Theme = f.theme
	}
	if f.fs.Changed("max-raster-dim") {
		cfg.Diagram.MaxRasterDim = f.maxRasterDim
	}
	if f.fs.Changed("ink-base-url") {
		cfg.Diagram.InkBaseURL = f.inkBaseURL
	}
	if f.fs.Changed("code-style") {
		cfg.Code.Style = f.codeStyle
	}
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: chat-export [flags] <input.md> [input.md...]\n\n")
	fmt.Fprintf(out, "Convert chat markdown transcripts to DOCX, markdown, or plain text.\n\n")
	fmt.Fprintf(out, "Flags:\n%s", fs.FlagUsages())
}
