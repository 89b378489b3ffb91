package extractor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const DefaultMaxChars = 50000

const (
	BackendPDF     = "pdf"
	BackendText    = "text"
	BackendHTML    = "html"
	BackendUnknown = "unsupported"
)

// PageExtractor returns the text of each page of a paged document.
// gcp.DocumentAI satisfies it.
type PageExtractor interface {
	ExtractPages(ctx context.Context, mimeType string, data []byte) ([]string, error)
}

type Result struct {
	Text      string
	Pages     *int
	Truncated bool
	Backend   string
}

type Extractor struct {
	log      *logger.Logger
	maxChars int
	pdf      PageExtractor
	html     *md.Converter
}

type Option func(*Extractor)

func WithMaxChars(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxChars = n
		}
	}
}

// WithPDFBackend replaces the built-in PDF text reader.
func WithPDFBackend(p PageExtractor) Option {
	return func(e *Extractor) {
		if p != nil {
			e.pdf = p
		}
	}
}

func New(log *logger.Logger, opts ...Option) *Extractor {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	e := &Extractor{
		log:      log.With("service", "TextExtractor"),
		maxChars: DefaultMaxChars,
		pdf:      pdfReader{},
		html:     conv,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails. Unreadable PDFs and unknown types come back as a
// marker text so the upload is still recorded as processed.
func (e *Extractor) Extract(ctx context.Context, mimeType string, data []byte) Result {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "application/pdf":
		return e.extractPDF(ctx, mimeType, data)
	case mt == "text/html" || mt == "application/xhtml+xml":
		return e.extractHTML(data)
	case IsTextLike(mt):
		text, cut := Truncate(decodeLossy(data), e.maxChars)
		return Result{Text: text, Truncated: cut, Backend: BackendText}
	default:
		return Result{Text: UnsupportedMarker(mimeType), Backend: BackendUnknown}
	}
}

func (e *Extractor) extractPDF(ctx context.Context, mimeType string, data []byte) Result {
	pages, err := e.pdf.ExtractPages(ctx, "application/pdf", data)
	if err != nil {
		e.log.Warn("PDF extraction failed", "mime_type", mimeType, "size_bytes", len(data), "error", err)
		return Result{Text: fmt.Sprintf("[PDF extraction failed: %v]", err), Backend: BackendPDF}
	}
	n := len(pages)
	text, cut := Truncate(strings.Join(pages, "\n"), e.maxChars)
	return Result{Text: text, Pages: &n, Truncated: cut, Backend: BackendPDF}
}

func (e *Extractor) extractHTML(data []byte) Result {
	raw := decodeLossy(data)
	out, err := e.html.ConvertString(raw)
	if err != nil {
		e.log.Warn("HTML conversion failed, keeping raw text", "error", err)
		out = raw
	}
	text, cut := Truncate(strings.TrimSpace(out), e.maxChars)
	return Result{Text: text, Truncated: cut, Backend: BackendHTML}
}

// IsTextLike matches any content type mentioning "text" plus the
// structured text formats uploads commonly declare.
func IsTextLike(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	if strings.Contains(mt, "text") {
		return true
	}
	switch mt {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml", "application/x-ndjson":
		return true
	}
	return false
}

func UnsupportedMarker(mimeType string) string {
	return "Unsupported file type: " + mimeType
}

// Truncate cuts s to at most max characters (runes).
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

func decodeLossy(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
