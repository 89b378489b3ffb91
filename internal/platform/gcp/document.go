package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

func DocumentAIConfigFromEnv() DocumentAIConfig {
	loc := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if loc == "" {
		loc = "us"
	}
	return DocumentAIConfig{
		ProjectID:        strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID")),
		Location:         loc,
		ProcessorID:      strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID")),
		ProcessorVersion: strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION")),
	}
}

// Enabled reports whether enough is configured to address a processor.
func (c DocumentAIConfig) Enabled() bool {
	return processorName(c) != ""
}

// DocumentAI turns a paginated document into per-page text using a
// Document AI OCR processor.
type DocumentAI struct {
	log    *logger.Logger
	cfg    DocumentAIConfig
	client *documentai.DocumentProcessorClient
}

func NewDocumentAI(log *logger.Logger, cfg DocumentAIConfig) (*DocumentAI, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("documentai: project, location and processor id required")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	slog := log.With("service", "DocumentAI")
	slog.Info("Document AI initialized", "endpoint", endpoint, "processor", processorName(cfg))
	return &DocumentAI{log: slog, cfg: cfg, client: c}, nil
}

func (d *DocumentAI) ExtractPages(ctx context.Context, mimeType string, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	resp, err := d.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: processorName(d.cfg),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	return pagesFromDocument(resp.GetDocument()), nil
}

func (d *DocumentAI) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func pagesFromDocument(doc *documentaipb.Document) []string {
	if doc == nil {
		return nil
	}
	pages := make([]string, 0, len(doc.GetPages()))
	for _, p := range doc.GetPages() {
		var b strings.Builder
		for _, para := range p.GetParagraphs() {
			t := strings.TrimSpace(textFromAnchor(doc.GetText(), para.GetLayout().GetTextAnchor()))
			if t == "" {
				continue
			}
			b.WriteString(t)
			b.WriteString("\n")
		}
		pages = append(pages, strings.TrimSpace(b.String()))
	}
	return pages
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
		if end > len(full) {
			end = len(full)
		}
		if start < 0 || start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func processorName(c DocumentAIConfig) string {
	if c.ProjectID == "" || c.Location == "" || c.ProcessorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		return base + "/processorVersions/" + c.ProcessorVersion
	}
	return base
}
