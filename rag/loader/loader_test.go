package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFileMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "guide.md", "# Guide\n\nSome content.")

	docs, err := LoadFile(path, "guide.md")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Source != "guide.md" {
		t.Fatalf("unexpected source %q", docs[0].Source)
	}
	if docs[0].Content == "" {
		t.Fatal("expected non-empty content")
	}
}

func TestLoadFileRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.docx", "binary-ish")

	_, err := LoadFile(path, "report.docx")
	if err == nil {
		t.Fatal("expected error for .docx")
	}
	if !errors.Is(err, docqaerrors.ErrUnsupportedInput) {
		t.Fatalf("expected ErrUnsupportedInput, got %v", err)
	}
}

func TestLoadDirectorySkipsUnrecognizedTypes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha document")
	writeFile(t, dir, "b.txt", "bravo document")
	writeFile(t, dir, "c.docx", "should be skipped")

	docs, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		if doc.Source == "c.docx" {
			t.Fatal("unrecognized file type leaked into directory load")
		}
	}
}

func TestLoadDirectoryEmpty(t *testing.T) {
	docs, err := LoadDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDirectory error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}
