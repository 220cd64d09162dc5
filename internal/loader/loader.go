// Package loader reads PDF files from the knowledge-base directory and turns
// them into normalized document records.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdfchat/internal/domain"
)

const sampleLen = 200

// Loader scans a directory for PDFs and extracts their text.
type Loader struct {
	log *slog.Logger
}

// New creates a Loader that reports per-file progress to the given logger.
func New(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log}
}

// Load scans dir for *.pdf files (case-insensitive) and returns one document
// per file that yielded non-empty normalized text. The directory is created
// if it does not exist. Files that cannot be opened or parsed are skipped
// with a warning; they never fail the whole load.
func (l *Loader) Load(dir string) ([]domain.Document, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge dir %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge dir %s: %w", dir, err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		text, err := extractText(path)
		if err != nil {
			l.log.Warn("skipping unreadable pdf", "file", entry.Name(), "error", err)
			continue
		}
		if text == "" {
			l.log.Warn("no text content extracted", "file", entry.Name())
			continue
		}
		docs = append(docs, domain.Document{
			ID:   hashString(path),
			Text: text,
			Metadata: domain.Metadata{
				FileName: entry.Name(),
				FilePath: path,
				Type:     "pdf",
			},
		})
		l.log.Info("loaded document",
			"file", entry.Name(),
			"chars", len(text),
			"sample", sample(text))
	}
	l.log.Info("load complete", "dir", dir, "documents", len(docs))
	return docs, nil
}

// extractText pulls the plain text of every page, labels surviving pages with
// "Page <n>:" markers, and normalizes the result. Pages that yield nothing
// are skipped silently.
func extractText(path string) (text string, err error) {
	// The pdf package panics on some malformed files; a single bad file must
	// not take the session down.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parsing %s: %v", filepath.Base(path), r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		cleaned := Normalize(raw)
		if cleaned == "" {
			continue
		}
		fmt.Fprintf(&b, "Page %d: %s\n\n", i, cleaned)
	}
	return Normalize(b.String()), nil
}

// Normalize strips every character outside the 7-bit ASCII range, collapses
// whitespace runs (including newlines) into single spaces, and trims. It is
// idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func sample(s string) string {
	if len(s) <= sampleLen {
		return s
	}
	return s[:sampleLen]
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
