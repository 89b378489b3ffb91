package app

import (
	"fmt"

	"github.com/yungbote/gemeos-pipeline/internal/platform/bus"
	"github.com/yungbote/gemeos-pipeline/internal/platform/gcp"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/openai"
)

type Clients struct {
	Blobs gcp.BlobStore
	Model openai.Client
	Bus   bus.Bus
	// Nil unless a Document AI processor is configured.
	DocumentAI *gcp.DocumentAI
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Gcs
	blobs, err := gcp.NewBlobStore(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init blob store: %w", err)
	}
	c.Blobs = blobs

	// Openai
	model, err := openai.NewClient(log)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	c.Model = model

	// Trigger bus
	b, err := bus.New(log)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init trigger bus: %w", err)
	}
	c.Bus = b

	// Document AI (optional)
	if cfg := gcp.DocumentAIConfigFromEnv(); cfg.Enabled() {
		doc, err := gcp.NewDocumentAI(log, cfg)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init document ai: %w", err)
		}
		c.DocumentAI = doc
	} else {
		log.Info("Document AI not configured, PDFs use the local text extractor")
	}
	return c, nil
}

func (c Clients) Close() {
	if c.Blobs != nil {
		_ = c.Blobs.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.DocumentAI != nil {
		_ = c.DocumentAI.Close()
	}
}
