package preprocess

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/stagekit"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/ctxutil"
)

const placeholderSuffix = ".keep"

const defaultMimeType = "application/octet-stream"

func (p *Pipeline) Run(jc *jobrt.Context) error {
	bucket, err := jc.PayloadString("bucket")
	if err != nil {
		return err
	}
	name, err := jc.PayloadString("name")
	if err != nil {
		return err
	}
	log := jc.Log.With("bucket", bucket, "object", name)

	if strings.HasSuffix(name, placeholderSuffix) {
		log.Info("Skipping placeholder object")
		jc.Succeed("skip", map[string]any{"skipped": true})
		return nil
	}

	obj, err := p.blobs.ReadObject(jc.Ctx, bucket, name)
	if err != nil {
		return stagekit.ReadErr("object_not_found", err)
	}
	mimeType := strings.TrimSpace(obj.ContentType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	res := p.extractor.Extract(jc.Ctx, mimeType, obj.Data)
	hash := ContentHash(obj.Data)
	log.Info("Extracted text", "mime_type", mimeType, "size_bytes", len(obj.Data), "chars", len(res.Text), "backend", res.Backend, "truncated", res.Truncated)

	doc, err := p.docs.GetByBucketPath(jc.DBC(), name)
	if err != nil {
		return stagekit.ReadErr("document_not_found", err)
	}

	now := p.now()
	meta := types.ExtractionMetadata{
		MimeType:            mimeType,
		SizeBytes:           int64(len(obj.Data)),
		ExtractionTimestamp: now.Format(time.RFC3339Nano),
		Pages:               res.Pages,
		Truncated:           res.Truncated,
		Extractor:           res.Backend,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := p.docs.UpdateExtraction(jc.DBC(), doc.ID, repos.ExtractionUpdate{
		ContentHash:   hash,
		ExtractedText: res.Text,
		Metadata:      metaJSON,
		ExtractedAt:   now,
		Status:        types.DocumentProcessed,
	}); err != nil {
		return stagekit.WriteErr(err)
	}
	log.Info("Updated document", "record_id", doc.ID, "content_hash", hash)

	slug := doc.DomainSlug
	if slug == "" {
		slug = SlugFromPath(name)
	}
	followUp := map[string]any{
		"record_id":      doc.ID.String(),
		"file_id":        doc.ID.String(),
		"domain_id":      doc.DomainID.String(),
		"domain_slug":    slug,
		"file_path":      fmt.Sprintf("gs://%s/%s", bucket, name),
		"extracted_text": res.Text,
		"content_hash":   hash,
		"metadata":       meta,
		"timestamp":      now.Format(time.RFC3339Nano),
	}
	messageIDs := p.emit(jc, followUp)

	result := map[string]any{
		"record_id":    doc.ID.String(),
		"content_hash": hash,
		"message_id":   nil,
	}
	if len(messageIDs) > 0 {
		result["message_id"] = messageIDs[0]
	}
	jc.Succeed("done", result)
	return nil
}

// emit publishes to every non-gated follow-up. Failures are logged only;
// the document write stands.
func (p *Pipeline) emit(jc *jobrt.Context, payload map[string]any) []string {
	var ids []string
	attrs := map[string]string{}
	if td := ctxutil.GetTraceData(jc.Ctx); td != nil && td.TraceID != "" {
		attrs["trace_id"] = td.TraceID
	}
	for _, edge := range jc.Stage.FollowUps() {
		log := jc.Log.With("topic", edge.Topic, "next_stage", edge.Stage)
		env, err := trigger.Encode(edge.Topic, edge.Stage, payload, attrs)
		if err != nil {
			log.Error("Failed to encode follow-up trigger", "error", err)
			p.metrics.IncPublish(edge.Topic, "error")
			continue
		}
		if err := p.pub.Publish(jc.Ctx, edge.Topic, env); err != nil {
			log.Error("Failed to publish follow-up trigger", "error", err)
			p.metrics.IncPublish(edge.Topic, "error")
			continue
		}
		p.metrics.IncPublish(edge.Topic, "ok")
		log.Info("Published follow-up trigger", "message_id", env.Message.MessageID)
		ids = append(ids, env.Message.MessageID)
	}
	return ids
}

// ContentHash is the hex SHA-256 of the raw object bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SlugFromPath returns the first segment of an object path; uploads live
// under "<domain_slug>/...".
func SlugFromPath(name string) string {
	name = strings.TrimPrefix(name, "/")
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return ""
}
