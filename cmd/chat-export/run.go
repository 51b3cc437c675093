package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	chatexport "github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/diagram"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/config"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput      = errors.New("no input file specified")
	ErrReadMarkdown = errors.New("failed to read markdown file")
	ErrWriteOutput  = errors.New("failed to write output file")
)

// run executes one CLI invocation end to end.
func run(flags *cliFlags, inputs []string, logger *zap.Logger) error {
	if len(inputs) == 0 {
		return ErrNoInput
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	flags.mergeConfig(cfg)

	exporter := chatexport.NewExporter(buildOptions(flags, cfg, logger)...)
	defer func() {
		if cerr := exporter.Close(); cerr != nil {
			logger.Warn("backend close failed", zap.Error(cerr))
		}
	}()

	ctx := context.Background()
	for _, input := range inputs {
		if err := exportOne(ctx, exporter, cfg, flags, input, logger); err != nil {
			return err
		}
	}
	return nil
}

// buildOptions translates CLI configuration into exporter options.
func buildOptions(flags *cliFlags, cfg *config.Config, logger *zap.Logger) []chatexport.Option {
	opts := []chatexport.Option{
		chatexport.WithLogger(logger),
		chatexport.WithDiagramTheme(cfg.Diagram.Theme),
		chatexport.WithCodeStyle(cfg.Code.Style),
	}
	if cfg.Diagram.MaxRasterDim > 0 {
		opts = append(opts, chatexport.WithMaxRasterDim(cfg.Diagram.MaxRasterDim))
	}
	if strings.EqualFold(cfg.Diagram.Backend, "ink") {
		opts = append(opts, chatexport.WithBackend(
			diagram.NewInkBackend(cfg.Diagram.InkBaseURL, cfg.Diagram.Theme)))
	}
	if flags.verbose {
		opts = append(opts, chatexport.WithProgress(func(index, total int, r diagram.Result) {
			if r.OK {
				logger.Info("diagram rendered",
					zap.Int("index", index+1), zap.Int("total", total))
			} else {
				logger.Warn("diagram failed",
					zap.Int("index", index+1), zap.Int("total", total), zap.Error(r.Err))
			}
		}))
	}
	return opts
}

func exportOne(ctx context.Context, exporter *chatexport.Exporter, cfg *config.Config, flags *cliFlags, input string, logger *zap.Logger) error {
	if err := fileutil.ValidateMarkdownExtension(input); err != nil {
		return err
	}

	data, err := os.ReadFile(input) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadMarkdown, input, err)
	}

	title := flags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	result, err := exporter.Export(ctx, chatexport.Input{
		Markdown: string(data),
		Title:    title,
		Format:   cfg.Output.Format,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", input, err)
	}

	outPath := cfg.OutputPath(input, result.Filename)
	if err := fileutil.WriteFileAtomic(outPath, result.Data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, outPath, err)
	}

	failed := 0
	for _, d := range result.Diagrams {
		if !d.OK {
			failed++
		}
	}
	logger.Info("wrote output",
		zap.String("path", outPath),
		zap.Int("bytes", len(result.Data)),
		zap.Int("diagrams", len(result.Diagrams)),
		zap.Int("diagramsFailed", failed))
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d diagram(s) could not be rendered; see placeholders in %s\n", failed, outPath)
	}
	return nil
}
