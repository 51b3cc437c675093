package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateMarkdownExtension(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"notes.md", false},
		{"NOTES.MD", false},
		{"doc.markdown", false},
		{"doc.txt", true},
		{"doc", true},
	}
	for _, tt := range tests {
		err := ValidateMarkdownExtension(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMarkdownExtension(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error should wrap ErrInvalidExtension, got %v", err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Weekly Report", "Weekly-Report"},
		{"a/b\\c:d", "abcd"},
		{"  spaced   out  ", "spaced-out"},
		{"", "fallback"},
		{"///", "fallback"},
		{"...", "fallback"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.title, "fallback"); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.docx")

	if err := WriteFileAtomic(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteFileAtomicEmptyPath(t *testing.T) {
	if err := WriteFileAtomic("", []byte("x"), 0o644); !errors.Is(err, ErrEmptyFilename) {
		t.Errorf("error = %v, want ErrEmptyFilename", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.md")
	if FileExists(path) {
		t.Error("missing file reported as existing")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("existing file reported as missing")
	}
	if FileExists(dir) {
		t.Error("directory reported as regular file")
	}
}
