package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	chatexport "github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/config"
	"github.com/GT-Edge-AI-Internal/gt-ai-os-community-sub004/internal/fileutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes, following Unix conventions: 0=success, 1=general, 2=usage.
const (
	ExitSuccess = 0
	ExitGeneral = 1
	ExitUsage   = 2
	ExitIO      = 3
)

// exitCodeFor maps an error to the process exit code. Callers wrap with
// %w so errors.Is sees through the chain.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}
	if errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidFormat) ||
		errors.Is(err, config.ErrInvalidBackend) ||
		errors.Is(err, fileutil.ErrInvalidExtension) ||
		errors.Is(err, chatexport.ErrEmptyMarkdown) ||
		errors.Is(err, chatexport.ErrInvalidFormat) {
		return ExitUsage
	}
	return ExitGeneral
}

// newLogger builds the CLI logger: human-readable to stderr, info level
// only when verbose.
func newLogger(verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.InfoLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

func main() {
	flags, inputs, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsage)
	}

	logger := newLogger(flags.verbose)
	defer func() { _ = logger.Sync() }()

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS
	// env value, in which case runtime defaults apply.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if err := run(flags, inputs, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
