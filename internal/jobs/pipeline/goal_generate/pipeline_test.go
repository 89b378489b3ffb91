package goal_generate

import (
	"context"
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
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
)

type harness struct {
	db       *gorm.DB
	blobs    *pipelinetest.Blobs
	model    *pipelinetest.Model
	docs     repos.DocumentRepo
	concepts repos.ConceptRepo
	goals    repos.LearningGoalRepo
	d        *jobrt.Dispatcher
	concept  *types.Concept
}

func newHarness(t *testing.T, replies ...pipelinetest.Reply) *harness {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:       gdb,
		blobs:    pipelinetest.NewBlobs(),
		model:    pipelinetest.NewModel(replies...),
		docs:     repos.NewDocumentRepo(gdb, log),
		concepts: repos.NewConceptRepo(gdb, log),
		goals:    repos.NewLearningGoalRepo(gdb, log),
	}
	p := New(gdb, log, h.docs, h.concepts, h.goals, pipelinetest.Guidance(t, h.blobs), pipelinetest.Invoker(h.model), observability.New())
	h.d = pipelinetest.Dispatcher(t, gdb, p)

	doc := testutil.SeedDocument(t, gdb, uuid.New(), "biology/transport.pdf", "Osmosis is the diffusion of water across a membrane.")
	h.concept = testutil.SeedConcepts(t, gdb, doc.DomainID, types.StatusApproved, "Osmosis")[0]
	h.concept.SourceFileID = &doc.ID
	require.NoError(t, gdb.Save(h.concept).Error)
	return h
}

func (h *harness) payload() map[string]any {
	return map[string]any{"concept_id": h.concept.ID.String(), "domain_slug": "biology"}
}

func (h *harness) seedGoal(t *testing.T, desc, status string) {
	t.Helper()
	require.NoError(t, h.goals.Create(dbctx.New(context.Background()), []*types.LearningGoal{{
		ConceptID: h.concept.ID, GoalDescription: desc, Status: status,
	}}))
}

func (h *harness) suggested(t *testing.T) []*types.LearningGoal {
	t.Helper()
	rows, err := h.goals.ListByConcept(dbctx.New(context.Background()), h.concept.ID, types.StatusSuggested)
	require.NoError(t, err)
	return rows
}

func goals(items ...map[string]any) pipelinetest.Reply {
	return pipelinetest.JSON(map[string]any{"learning_goals": items})
}

func goal(desc string, order int) map[string]any {
	return map[string]any{"goal_description": desc, "bloom_level": "understand", "goal_type": "conceptual", "sequence_order": order}
}

func TestGoalsWrittenAsSuggested(t *testing.T) {
	h := newHarness(t, goals(goal("Explain osmosis", 1), goal("Predict water movement", 2)))
	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusOK, out.Status, "%+v", out)

	rows := h.suggested(t)
	require.Len(t, rows, 2)
	byOrder := map[int]*types.LearningGoal{}
	for _, r := range rows {
		byOrder[r.SequenceOrder] = r
	}
	require.Equal(t, "Explain osmosis", byOrder[1].GoalDescription)
	require.Equal(t, "understand", byOrder[1].BloomLevel)
	require.Equal(t, "conceptual", byOrder[2].GoalType)

	req := h.model.Requests[0]
	require.Equal(t, prompts.DefaultLearningGoalsSystem, req.System)
	require.InDelta(t, 0.3, *req.Temperature, 1e-9)
}

func TestGoalsFeedbackInRequest(t *testing.T) {
	h := newHarness(t, goals(goal("Compare osmosis and diffusion", 1)))
	h.seedGoal(t, "Define osmosis", types.StatusRejected)
	h.seedGoal(t, "Explain tonicity", types.StatusApproved)

	require.True(t, pipelinetest.Dispatch(t, h.d, Stage, h.payload()).OK())
	user := h.model.Requests[0].User
	require.Contains(t, user, "Define osmosis")
	require.Contains(t, user, "IMPORTANT: Do NOT suggest any of the following goals, as they have been rejected")
	require.Contains(t, user, `approved: ["Explain tonicity"]`)
}

func TestGoalsNoDedup(t *testing.T) {
	h := newHarness(t, goals(goal("Define osmosis", 1), goal("Define osmosis", 2)))
	h.seedGoal(t, "Define osmosis", types.StatusSuggested)
	require.True(t, pipelinetest.Dispatch(t, h.d, Stage, h.payload()).OK())
	require.Len(t, h.suggested(t), 3)
}

func TestGoalsUseGuidanceExamples(t *testing.T) {
	h := newHarness(t, goals(goal("Explain osmosis", 1)))
	h.blobs.Put(guidance.DefaultBucket, "biology/guidance/learning_goals/learning_goals_guidance.md", "text/markdown",
		[]byte("Write goals for year 9 students."))
	h.blobs.Put(guidance.DefaultBucket, "biology/guidance/learning_goals/learning_goals_examples.jsonl", "application/jsonl",
		[]byte(`{"snippet":"Cells divide.","learning_goals":[{"goal_description":"Describe mitosis","sequence_order":1}]}`+"\n"))

	require.True(t, pipelinetest.Dispatch(t, h.d, Stage, h.payload()).OK())
	req := h.model.Requests[0]
	require.Equal(t, "Write goals for year 9 students.", req.System)
	require.Contains(t, req.User, "EXAMPLE INPUT:\nCells divide.\nEXAMPLE OUTPUT:\n")
	require.Contains(t, req.User, `{"learning_goals":[{"goal_description":"Describe mitosis","sequence_order":1}]}`)
}

func TestGoalsMalformedOutputIsSuccess(t *testing.T) {
	h := newHarness(t, pipelinetest.JSON(map[string]any{"learning_goals": []map[string]any{{"goal_description": "x", "sequence_order": "first"}}}))
	out := pipelinetest.Dispatch(t, h.d, Stage, h.payload())
	require.Equal(t, http.StatusOK, out.Status)
	require.Empty(t, h.suggested(t))
}

func TestGoalsMissingSource(t *testing.T) {
	h := newHarness(t, goals(goal("x", 1)))
	orphan := testutil.SeedConcepts(t, h.db, h.concept.DomainID, types.StatusApproved, "Orphan")[0]

	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"concept_id": orphan.ID.String(), "domain_slug": "biology"})
	require.Equal(t, http.StatusNotFound, out.Status)
	out = pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"concept_id": uuid.NewString(), "domain_slug": "biology"})
	require.Equal(t, http.StatusNotFound, out.Status)
	require.Zero(t, h.model.Calls())
}

func TestGoalsRejectIncompleteTrigger(t *testing.T) {
	h := newHarness(t, goals(goal("x", 1)))
	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"concept_id": h.concept.ID.String()})
	require.Equal(t, http.StatusBadRequest, out.Status)
	require.Zero(t, h.model.Calls())
	require.Zero(t, h.blobs.Reads)
}

func TestGoalsNeedExtractedText(t *testing.T) {
	h := newHarness(t, goals(goal("x", 1)))
	empty := testutil.SeedDocument(t, h.db, h.concept.DomainID, "biology/blank.pdf", "")
	c := testutil.SeedConcepts(t, h.db, h.concept.DomainID, types.StatusApproved, "Turgor")[0]
	c.SourceFileID = &empty.ID
	require.NoError(t, h.db.Save(c).Error)

	out := pipelinetest.Dispatch(t, h.d, Stage, map[string]any{"concept_id": c.ID.String(), "domain_slug": "biology"})
	require.Equal(t, http.StatusNotFound, out.Status)
	require.Equal(t, "no_extracted_text", out.Code)
	require.Zero(t, h.model.Calls())
}
