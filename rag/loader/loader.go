// Package loader reads source files into documents ready for chunking.
// PDF pages become one document each so page numbers survive into chunk
// provenance; Markdown and plain text load as a single document.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/rag/document"
)

// SupportedExtension reports whether the loader recognizes the file type.
func SupportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".md", ".txt":
		return true
	}
	return false
}

// LoadFile loads a single file strictly: an unsupported extension is an
// ErrUnsupportedInput, not a silent skip. The source recorded on the
// returned documents is the provided name (typically the original filename),
// not the path read from, so uploads keep their user-facing identifier.
func LoadFile(path, source string) ([]document.Document, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if source == "" {
		source = filepath.Base(path)
		ext = strings.ToLower(filepath.Ext(path))
	}
	switch ext {
	case ".pdf":
		return loadPDF(path, source)
	case ".md", ".txt":
		return loadText(path, source)
	default:
		return nil, fmt.Errorf("file type %q: %w", ext, docqaerrors.ErrUnsupportedInput)
	}
}

// LoadDirectory walks the directory recursively in sorted order and loads
// every recognized file. Unrecognized types and unreadable files are skipped
// with a log line; the scan is best-effort by contract.
func LoadDirectory(dir string) ([]document.Document, error) {
	logger := logging.WithComponent("loader")

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if SupportedExtension(filepath.Ext(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []document.Document
	for _, path := range paths {
		loaded, err := LoadFile(path, filepath.Base(path))
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func loadText(path, source string) ([]document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}
	return []document.Document{{
		Source:  source,
		Content: content,
	}}, nil
}

func loadPDF(path, source string) ([]document.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var docs []document.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d of %s: %w", i, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		docs = append(docs, document.Document{
			Source:  source,
			Page:    strconv.Itoa(i),
			Content: text,
		})
	}
	return docs, nil
}
