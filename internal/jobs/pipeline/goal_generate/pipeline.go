package goal_generate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/stagekit"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// goalItem is one element of the model's learning_goals list.
type goalItem struct {
	GoalDescription string `json:"goal_description"`
	BloomLevel      string `json:"bloom_level"`
	GoalType        string `json:"goal_type"`
	SequenceOrder   int    `json:"sequence_order"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	conceptID, err := jc.PayloadUUID("concept_id")
	if err != nil {
		return err
	}
	slug, err := jc.PayloadString("domain_slug")
	if err != nil {
		return err
	}
	log := jc.Log.With("concept_id", conceptID, "domain_slug", slug)

	concept, err := p.concepts.GetByID(jc.DBC(), conceptID)
	if err != nil {
		return stagekit.ReadErr("concept_not_found", err)
	}
	if concept.SourceFileID == nil || *concept.SourceFileID == uuid.Nil {
		return apierr.NotFound("source_file_missing", fmt.Errorf("concept %s has no source file: %w", conceptID, apierr.ErrNotFound))
	}
	doc, err := p.docs.GetByID(jc.DBC(), *concept.SourceFileID)
	if err != nil {
		return stagekit.ReadErr("document_not_found", err)
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return apierr.NotFound("no_extracted_text", fmt.Errorf("document %s: %w", doc.ID, apierr.ErrNotFound))
	}

	bundle, err := stagekit.LoadGuidance(jc.Ctx, p.guidance, jc.Stage, slug)
	if err != nil {
		return err
	}
	approved, rejected := p.feedback(jc.DBC(), log, conceptID)
	in := stagekit.PromptInput(jc.Stage, bundle, slug, doc.ExtractedText)
	in.Feedback = prompts.GoalFeedback(approved, rejected)
	prompt, err := stagekit.BuildPrompt(jc.Stage, in)
	if err != nil {
		return err
	}

	items, err := llm.Generate[goalItem](jc.Ctx, p.invoker, prompt)
	if err != nil {
		log.Warn("No usable learning goals from model, continuing with none", "error", err, "kind", llm.KindOf(err))
	}
	if len(items) == 0 {
		jc.Succeed("done", map[string]any{"inserted": 0})
		return nil
	}

	rows := make([]*curriculum.LearningGoal, 0, len(items))
	for _, it := range items {
		rows = append(rows, &curriculum.LearningGoal{
			ConceptID:       conceptID,
			GoalDescription: it.GoalDescription,
			BloomLevel:      it.BloomLevel,
			GoalType:        it.GoalType,
			SequenceOrder:   it.SequenceOrder,
			Status:          curriculum.StatusSuggested,
		})
	}
	if err := p.goals.Create(jc.DBC(), rows); err != nil {
		return stagekit.WriteErr(err)
	}
	p.metrics.AddSuggestions("learning_goal", len(rows))
	log.Info("Saved suggested learning goals", "inserted", len(rows), "approved_feedback", len(approved), "rejected_feedback", len(rejected))
	jc.Succeed("done", map[string]any{"inserted": len(rows)})
	return nil
}

// feedback reads prior reviewer decisions. A read failure only costs the
// steering text, so it degrades to empty lists.
func (p *Pipeline) feedback(dbc dbctx.Context, log *logger.Logger, conceptID uuid.UUID) (approved, rejected []string) {
	approved, err := p.goals.ListDescriptionsByStatus(dbc, conceptID, curriculum.StatusApproved)
	if err != nil {
		log.Warn("Could not read approved goals, continuing without feedback", "error", err)
		return nil, nil
	}
	rejected, err = p.goals.ListDescriptionsByStatus(dbc, conceptID, curriculum.StatusRejected)
	if err != nil {
		log.Warn("Could not read rejected goals, continuing without feedback", "error", err)
		return nil, nil
	}
	return approved, rejected
}
