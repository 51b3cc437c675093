package main

import (
	"errors"
	"os"
	"testing"

	chatexport "github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/config"
)

func TestParseFlags(t *testing.T) {
	flags, inputs, err := parseFlags([]string{
		"chat-export",
		"--format", "text",
		"-o", "/tmp/out",
		"--theme", "dark",
		"--max-raster-dim", "2048",
		"-v",
		"chat.md", "other.md",
	})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if flags.format != "text" {
		t.Errorf("format = %q, want text", flags.format)
	}
	if flags.output != "/tmp/out" {
		t.Errorf("output = %q, want /tmp/out", flags.output)
	}
	if flags.maxRasterDim != 2048 {
		t.Errorf("maxRasterDim = %d, want 2048", flags.maxRasterDim)
	}
	if !flags.verbose {
		t.Error("verbose not set")
	}
	if len(inputs) != 2 || inputs[0] != "chat.md" || inputs[1] != "other.md" {
		t.Errorf("inputs = %v, want [chat.md other.md]", inputs)
	}
}

func TestMergeConfigFlagsWin(t *testing.T) {
	flags, _, err := parseFlags([]string{
		"chat-export", "--format", "markdown", "--backend", "ink", "chat.md",
	})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	cfg := config.Default()
	cfg.Output.Format = "docx"
	cfg.Diagram.Theme = "forest"
	flags.mergeConfig(cfg)

	if cfg.Output.Format != "markdown" {
		t.Errorf("Format = %q, want flag value markdown", cfg.Output.Format)
	}
	if cfg.Diagram.Backend != "ink" {
		t.Errorf("Backend = %q, want flag value ink", cfg.Diagram.Backend)
	}
	// Unset flags must not clobber config values.
	if cfg.Diagram.Theme != "forest" {
		t.Errorf("Theme = %q, want config value forest", cfg.Diagram.Theme)
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"no input", ErrNoInput, ExitUsage},
		{"empty markdown", chatexport.ErrEmptyMarkdown, ExitUsage},
		{"config missing", config.ErrConfigNotFound, ExitUsage},
		{"read failure", ErrReadMarkdown, ExitIO},
		{"file missing", os.ErrNotExist, ExitIO},
		{"unknown", errors.New("boom"), ExitGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
