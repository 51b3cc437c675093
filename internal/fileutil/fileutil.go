// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrInvalidExtension = errors.New("file must have .md or .markdown extension")
	ErrEmptyFilename    = errors.New("filename cannot be empty")
)

// unsafeFilenameChars matches characters stripped from derived filenames.
var unsafeFilenameChars = regexp.MustCompile(`[\x00-\x1f/\\:*?"<>|]+`)

// ValidateMarkdownExtension checks that path names a markdown file.
func ValidateMarkdownExtension(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidExtension, path)
}

// SanitizeFilename turns a free-form title into a safe filename stem.
// Unsafe characters are removed and whitespace collapses to hyphens;
// fallback is used when nothing survives.
func SanitizeFilename(title, fallback string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(title, "")
	cleaned = strings.Join(strings.Fields(cleaned), "-")
	cleaned = strings.Trim(cleaned, ".-")
	if cleaned == "" {
		return fallback
	}
	const maxStem = 120
	if len(cleaned) > maxStem {
		cleaned = cleaned[:maxStem]
	}
	return cleaned
}

// WriteFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, so a failed export never leaves a
// partial file at the destination.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyFilename
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
