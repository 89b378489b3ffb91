package concept_structure

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	"github.com/yungbote/gemeos-pipeline/internal/data/repos/testutil"
	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/pipelinetest"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
)

const guidancePath = "biology/guidance/concepts/concept-structuring_guidance.md"

type harness struct {
	blobs       *pipelinetest.Blobs
	model       *pipelinetest.Model
	concepts    repos.ConceptRepo
	suggestions repos.HierarchySuggestionRepo
	d           *jobrt.Dispatcher
	domainID    uuid.UUID
}

func newHarness(t *testing.T, replies ...pipelinetest.Reply) *harness {
	t.Helper()
	return newHarnessFor(t, pipelinetest.Pipeline(t), replies...)
}

func newHarnessFor(t *testing.T, pl *orchestrator.Pipeline, replies ...pipelinetest.Reply) *harness {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		blobs:       pipelinetest.NewBlobs(),
		model:       pipelinetest.NewModel(replies...),
		concepts:    repos.NewConceptRepo(gdb, log),
		suggestions: repos.NewHierarchySuggestionRepo(gdb, log),
		domainID:    uuid.New(),
	}
	p := New(gdb, log, h.concepts, h.suggestions, pipelinetest.Guidance(t, h.blobs), pipelinetest.Invoker(h.model), observability.New())
	h.d = pipelinetest.DispatcherFor(t, gdb, pl, p)
	return h
}

func (h *harness) approve(t *testing.T, names ...string) {
	t.Helper()
	rows := make([]*types.Concept, 0, len(names))
	for _, n := range names {
		rows = append(rows, &types.Concept{DomainID: h.domainID, Name: n, Status: types.StatusApproved})
	}
	_, err := h.concepts.Create(dbctx.New(context.Background()), rows, false)
	require.NoError(t, err)
}

func (h *harness) withGuidance() {
	h.blobs.Put(guidance.DefaultBucket, guidancePath, "text/markdown", []byte("Organise from organism level down to cell level."))
}

func (h *harness) payload() map[string]any {
	return map[string]any{"domain_id": h.domainID.String(), "domain_slug": "biology"}
}

func (h *harness) pending(t *testing.T) []*types.HierarchySuggestion {
	t.Helper()
	rows, err := h.suggestions.ListByDomain(dbctx.New(context.Background()), h.domainID, types.HierarchyPending)
	require.NoError(t, err)
	return rows
}

func hierarchy() pipelinetest.Reply {
	return pipelinetest.JSON(map[string]any{"hierarchy": []map[string]any{
		{"concept": "Cell", "parent": nil},
		{"concept": "Mitochondria", "parent": "Cell"},
	}})
}

func TestStructuringWritesPendingSuggestion(t *testing.T) {
	h := newHarness(t, hierarchy())
	h.approve(t, "Cell", "Mitochondria")
	h.withGuidance()

	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusOK, out.Status, "%+v", out)
	require.Equal(t, true, out.Body["written"])

	rows := h.pending(t)
	require.Len(t, rows, 1)
	var pairs []types.HierarchyPair
	require.NoError(t, json.Unmarshal(rows[0].SuggestedStructure, &pairs))
	require.Len(t, pairs, 2)
	require.Nil(t, pairs[0].Parent)
	require.Equal(t, "Cell", *pairs[1].Parent)

	req := h.model.Requests[0]
	require.Equal(t, "Organise from organism level down to cell level.", req.System)
	require.Contains(t, req.User, "LIST OF CONCEPTS:\n")
	require.Contains(t, req.User, "Mitochondria")
}

func TestStructuringNoApprovedConceptsIsNoop(t *testing.T) {
	h := newHarness(t, hierarchy())
	h.withGuidance()
	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusOK, out.Status)
	require.Zero(t, h.model.Calls())
	require.Zero(t, h.blobs.Reads)
	require.Empty(t, h.pending(t))
}

func TestStructuringWithoutGuidanceFails(t *testing.T) {
	h := newHarness(t, hierarchy())
	h.approve(t, "Cell")
	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusInternalServerError, out.Status)
	require.Equal(t, "guidance_missing", out.Code)
	require.Zero(t, h.model.Calls())
	require.Empty(t, h.pending(t))
}

func TestStructuringOptionalGuidanceFallsBackToDefault(t *testing.T) {
	pl := pipelinetest.PipelineWith(t, Stage, func(s *orchestrator.Stage) {
		s.Guidance.Required = false
		s.DefaultInstruction = "Order concepts from general to specific."
	})
	h := newHarnessFor(t, pl, hierarchy())
	h.approve(t, "Cell", "Mitochondria")

	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusOK, out.Status, "%+v", out)
	require.Equal(t, true, out.Body["written"])
	require.Equal(t, "Order concepts from general to specific.", h.model.Requests[0].System)
	require.Len(t, h.pending(t), 1)
}

func TestStructuringOptionalGuidanceWithoutDefaultFails(t *testing.T) {
	pl := pipelinetest.PipelineWith(t, Stage, func(s *orchestrator.Stage) { s.Guidance.Required = false })
	h := newHarnessFor(t, pl, hierarchy())
	h.approve(t, "Cell")

	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusInternalServerError, out.Status)
	require.Equal(t, "guidance_missing", out.Code)
	require.Zero(t, h.model.Calls())
}

func TestStructuringMalformedOutputWritesNothing(t *testing.T) {
	h := newHarness(t, pipelinetest.Reply{Text: `{"hierarchy": "Cell > Mitochondria"}`})
	h.approve(t, "Cell", "Mitochondria")
	h.withGuidance()
	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusOK, out.Status)
	require.Equal(t, false, out.Body["written"])
	require.Empty(t, h.pending(t))
}

func TestStructuringRejectsIncompleteTrigger(t *testing.T) {
	h := newHarness(t, hierarchy())
	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"domain_slug": "biology"})
	require.Equal(t, http.StatusBadRequest, out.Status)
	require.Zero(t, h.model.Calls())
}
