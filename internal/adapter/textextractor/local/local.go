// Package local extracts plain text from resume files on the local disk.
//
// Dispatch is by file extension: PDF and DOCX are decoded in process, plain
// text accepts UTF-8 with a Latin-1 fallback, and legacy DOC files are
// delegated to an Apache Tika backend when one is configured.
package local

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

// DocExtractor decodes document formats the local extractor cannot handle
// itself. A nil backend disables those formats.
type DocExtractor interface {
	ExtractPath(ctx domain.Context, fileName, path string) (string, error)
}

// Extractor implements domain.TextExtractor.
type Extractor struct {
	doc DocExtractor
}

// New creates an Extractor. doc may be nil when no Tika backend is
// configured; legacy .doc files then fail with a missing dependency error.
func New(doc DocExtractor) *Extractor {
	return &Extractor{doc: doc}
}

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
	".rtf":  true,
}

// Extract returns the plain text of the resume at path.
func (e *Extractor) Extract(ctx domain.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("op=local.Extract path=%s: %w", path, domain.ErrFileNotFound)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("op=local.Extract format=%s: %w", ext, domain.ErrUnsupportedFormat)
	}

	switch ext {
	case ".pdf":
		return pdfText(ctx, path)
	case ".docx":
		return docxText(path)
	case ".doc":
		if e.doc == nil {
			return "", fmt.Errorf("op=local.Extract format=.doc: no tika backend configured: %w", domain.ErrMissingDependency)
		}
		text, err := e.doc.ExtractPath(ctx, filepath.Base(path), path)
		if err != nil {
			return "", fmt.Errorf("op=local.Extract format=.doc: %w", err)
		}
		return text, nil
	default:
		return textFile(path)
	}
}

// pdfText joins per-page plain text. Pages the decoder rejects are skipped,
// not fatal; a resume with one bad page still yields the rest.
func pdfText(ctx domain.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("op=local.pdfText path=%s: %w: %w", path, err, domain.ErrDecode)
	}
	defer func() { _ = f.Close() }()

	var chunks []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			observability.LoggerFromContext(ctx).Debug("skipping pdf page",
				slog.String("path", path),
				slog.Int("page", i),
				slog.Any("error", err))
			continue
		}
		chunks = append(chunks, strings.TrimSpace(text))
	}
	text := strings.TrimSpace(strings.Join(chunks, "\n"))
	if text == "" {
		return "", fmt.Errorf("op=local.pdfText path=%s: no extractable text: %w", path, domain.ErrDecode)
	}
	return text, nil
}

// docxText pulls the paragraph text out of word/document.xml.
func docxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("op=local.docxText path=%s: %w: %w", path, err, domain.ErrDecode)
	}
	defer func() { _ = zr.Close() }()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("op=local.docxText path=%s: word/document.xml missing: %w", path, domain.ErrDecode)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("op=local.docxText path=%s: %w: %w", path, err, domain.ErrDecode)
	}
	defer func() { _ = rc.Close() }()

	return decodeDocumentXML(rc)
}

// decodeDocumentXML walks WordprocessingML, collecting run text and emitting
// one line per paragraph.
func decodeDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("op=local.decodeDocumentXML: %w: %w", err, domain.ErrDecode)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write([]byte(t))
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// textFile reads a plain-text or RTF resume, accepting UTF-8 and falling
// back to Latin-1, whose bytes map one-to-one onto code points.
func textFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("op=local.textFile path=%s: %w", path, err)
	}
	if utf8.Valid(data) {
		return strings.TrimSpace(string(data)), nil
	}
	runes := make([]rune, len(data))
	for i, c := range data {
		runes[i] = rune(c)
	}
	return strings.TrimSpace(string(runes)), nil
}
