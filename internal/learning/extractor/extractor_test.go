package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type fakePages struct {
	pages []string
	err   error
}

func (f fakePages) ExtractPages(context.Context, string, []byte) ([]string, error) {
	return f.pages, f.err
}

func TestExtractPDFJoinsPages(t *testing.T) {
	e := New(logger.Nop(), WithPDFBackend(fakePages{pages: []string{"page one", "page two"}}))
	res := e.Extract(context.Background(), "application/pdf", []byte("%PDF"))
	if res.Text != "page one\npage two" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Pages == nil || *res.Pages != 2 {
		t.Fatalf("pages = %v", res.Pages)
	}
	if res.Backend != BackendPDF {
		t.Fatalf("backend = %q", res.Backend)
	}
}

func TestExtractPDFTruncates(t *testing.T) {
	long := strings.Repeat("a", DefaultMaxChars)
	e := New(logger.Nop(), WithPDFBackend(fakePages{pages: []string{long, "tail"}}))
	res := e.Extract(context.Background(), "application/pdf", nil)
	if len(res.Text) != DefaultMaxChars || !res.Truncated {
		t.Fatalf("len = %d truncated = %v", len(res.Text), res.Truncated)
	}
}

func TestExtractPDFFailureIsMarker(t *testing.T) {
	e := New(logger.Nop(), WithPDFBackend(fakePages{err: errors.New("bad xref")}))
	res := e.Extract(context.Background(), "application/pdf", nil)
	if res.Text != "[PDF extraction failed: bad xref]" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Pages != nil {
		t.Fatalf("pages should be unset on failure")
	}
}

func TestExtractBuiltinPDFRejectsGarbage(t *testing.T) {
	res := New(logger.Nop()).Extract(context.Background(), "application/pdf", []byte("not a pdf"))
	if !strings.HasPrefix(res.Text, "[PDF extraction failed:") {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtractTextIsLossy(t *testing.T) {
	data := append([]byte("Cells "), 0xff, 0xfe)
	data = append(data, []byte("divide")...)
	res := New(logger.Nop()).Extract(context.Background(), "text/plain; charset=utf-8", data)
	if res.Text != "Cells divide" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Pages != nil {
		t.Fatalf("text uploads have no page count")
	}
}

func TestExtractTextTruncatesByCharacter(t *testing.T) {
	e := New(logger.Nop(), WithMaxChars(3))
	res := e.Extract(context.Background(), "text/markdown", []byte("héllo"))
	if res.Text != "hél" || !res.Truncated {
		t.Fatalf("text = %q truncated = %v", res.Text, res.Truncated)
	}
}

func TestExtractHTMLBecomesMarkdown(t *testing.T) {
	res := New(logger.Nop()).Extract(context.Background(), "text/html", []byte("<h1>Osmosis</h1><p>Water moves.</p>"))
	if !strings.Contains(res.Text, "# Osmosis") || !strings.Contains(res.Text, "Water moves.") {
		t.Fatalf("text = %q", res.Text)
	}
	if strings.Contains(res.Text, "<h1>") {
		t.Fatalf("html tags left in %q", res.Text)
	}
}

func TestExtractUnsupported(t *testing.T) {
	res := New(logger.Nop()).Extract(context.Background(), "image/png", []byte{0x89, 'P', 'N', 'G'})
	if res.Text != "Unsupported file type: image/png" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Backend != BackendUnknown {
		t.Fatalf("backend = %q", res.Backend)
	}
}
