package preprocess

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	"github.com/yungbote/gemeos-pipeline/internal/data/repos/testutil"
	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/pipelinetest"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/learning/extractor"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
)

const uploads = "gemeos-uploads"

type harness struct {
	db    *gorm.DB
	blobs *pipelinetest.Blobs
	pub   *pipelinetest.Publisher
	docs  repos.DocumentRepo
	d     *jobrt.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := testutil.Logger(t)
	h := &harness{
		db:    testutil.DB(t),
		blobs: pipelinetest.NewBlobs(),
		pub:   &pipelinetest.Publisher{},
	}
	h.docs = repos.NewDocumentRepo(h.db, log)
	p := New(h.db, log, h.blobs, extractor.New(log), h.docs, h.pub, observability.New())
	h.d = pipelinetest.Dispatcher(t, h.db, p)
	return h
}

func (h *harness) seedDoc(t *testing.T, path, slug string) *types.Document {
	t.Helper()
	doc := &types.Document{DomainID: uuid.New(), DomainSlug: slug, BucketPath: path, Status: types.DocumentUploaded}
	require.NoError(t, h.docs.Create(dbctx.New(context.Background()), doc))
	return doc
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *types.Document {
	t.Helper()
	doc, err := h.docs.GetByID(dbctx.New(context.Background()), id)
	require.NoError(t, err)
	return doc
}

func TestPreprocessTextUpload(t *testing.T) {
	h := newHarness(t)
	doc := h.seedDoc(t, "biology/cells.txt", "")
	body := []byte("Cells are the basic unit of life.")
	h.blobs.Put(uploads, "biology/cells.txt", "text/plain", body)

	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads, "name": "biology/cells.txt"})
	require.Equal(t, http.StatusOK, out.Status, "%+v", out)
	require.Equal(t, doc.ID.String(), out.Body["record_id"])

	got := h.reload(t, doc.ID)
	require.Equal(t, string(body), got.ExtractedText)
	require.Equal(t, ContentHash(body), got.ContentHash)
	require.Equal(t, types.DocumentProcessed, got.Status)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(got.Metadata, &meta))
	require.Equal(t, "text/plain", meta["mime_type"])
	require.EqualValues(t, len(body), meta["size_bytes"])
	require.Contains(t, meta, "pages")
	require.Nil(t, meta["pages"])

	require.Len(t, h.pub.Sent, 1)
	sent := h.pub.Sent[0]
	require.Equal(t, "content-extraction-requests", sent.Topic)
	require.Equal(t, "concept_extraction", sent.Trigger.Stage())
	require.Equal(t, out.Body["message_id"], sent.Envelope.Message.MessageID)
	payload := sent.Trigger.Payload
	require.Equal(t, doc.ID.String(), payload["record_id"])
	require.Equal(t, doc.ID.String(), payload["file_id"])
	require.Equal(t, doc.DomainID.String(), payload["domain_id"])
	require.Equal(t, "biology", payload["domain_slug"])
	require.Equal(t, "gs://gemeos-uploads/biology/cells.txt", payload["file_path"])
	require.Equal(t, string(body), payload["extracted_text"])
	require.Equal(t, ContentHash(body), payload["content_hash"])
	require.Contains(t, payload, "metadata")
	require.Contains(t, payload, "timestamp")
}

func TestPreprocessIsIdempotent(t *testing.T) {
	h := newHarness(t)
	doc := h.seedDoc(t, "chem/atoms.md", "chem")
	h.blobs.Put(uploads, "chem/atoms.md", "text/markdown", []byte("# Atoms\nProtons and neutrons."))
	payload := map[string]any{"bucket": uploads, "name": "chem/atoms.md"}

	require.True(t, pipelinetest.Dispatch(t, h.d, Stage, payload).OK())
	first := h.reload(t, doc.ID)
	require.True(t, pipelinetest.Dispatch(t, h.d, Stage, payload).OK())
	second := h.reload(t, doc.ID)

	require.Equal(t, first.ExtractedText, second.ExtractedText)
	require.Equal(t, first.ContentHash, second.ContentHash)
	require.Len(t, h.pub.Sent, 2)
}

func TestPreprocessSkipsPlaceholder(t *testing.T) {
	h := newHarness(t)
	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads, "name": "biology/.keep"})
	require.Equal(t, http.StatusOK, out.Status)
	require.Equal(t, true, out.Body["skipped"])
	require.Zero(t, h.blobs.Reads)
	require.Empty(t, h.pub.Sent)
}

func TestPreprocessUnsupportedTypeStillProcessed(t *testing.T) {
	h := newHarness(t)
	doc := h.seedDoc(t, "art/photo.png", "art")
	h.blobs.Put(uploads, "art/photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'})

	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads, "name": "art/photo.png"})
	require.True(t, out.OK(), "%+v", out)
	got := h.reload(t, doc.ID)
	require.Equal(t, "Unsupported file type: image/png", got.ExtractedText)
	require.Equal(t, types.DocumentProcessed, got.Status)
}

func TestPreprocessNoMatchingRecord(t *testing.T) {
	h := newHarness(t)
	h.blobs.Put(uploads, "biology/orphan.txt", "text/plain", []byte("orphan"))

	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads, "name": "biology/orphan.txt"})
	require.Equal(t, http.StatusNotFound, out.Status)
	require.Equal(t, "document_not_found", out.Code)
	require.Empty(t, h.pub.Sent)
}

func TestPreprocessMissingObject(t *testing.T) {
	h := newHarness(t)
	h.seedDoc(t, "biology/gone.txt", "biology")
	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads, "name": "biology/gone.txt"})
	require.Equal(t, http.StatusNotFound, out.Status)
}

func TestPreprocessPublishFailureKeepsWrite(t *testing.T) {
	h := newHarness(t)
	h.pub.Err = errors.New("broker down")
	doc := h.seedDoc(t, "biology/cells.txt", "biology")
	h.blobs.Put(uploads, "biology/cells.txt", "text/plain", []byte("Mitochondria"))

	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads, "name": "biology/cells.txt"})
	require.Equal(t, http.StatusOK, out.Status)
	require.Nil(t, out.Body["message_id"])
	require.Equal(t, "Mitochondria", h.reload(t, doc.ID).ExtractedText)
}

func TestPreprocessRejectsIncompleteTrigger(t *testing.T) {
	h := newHarness(t)
	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"bucket": uploads})
	require.Equal(t, http.StatusBadRequest, out.Status)
	require.Zero(t, h.blobs.Reads)
	require.Empty(t, h.pub.Sent)
}

func TestSlugFromPath(t *testing.T) {
	cases := map[string]string{
		"biology/cells.pdf":   "biology",
		"/chem/a/b.txt":       "chem",
		"loose.txt":           "",
		"physics/sub/dir.pdf": "physics",
	}
	for in, want := range cases {
		require.Equal(t, want, SlugFromPath(in), in)
	}
}
