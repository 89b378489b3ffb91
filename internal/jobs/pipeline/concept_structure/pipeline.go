package concept_structure

import (
	"encoding/json"
	"fmt"

	"github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/stagekit"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	domainID, err := jc.PayloadUUID("domain_id")
	if err != nil {
		return err
	}
	slug, err := jc.PayloadString("domain_slug")
	if err != nil {
		return err
	}
	log := jc.Log.With("domain_id", domainID, "domain_slug", slug)

	approved, err := p.concepts.ListNamesByStatus(jc.DBC(), domainID, curriculum.StatusApproved)
	if err != nil {
		return apierr.Internal("store_read_failed", err)
	}
	if len(approved) == 0 {
		log.Info("No approved concepts to structure")
		jc.Succeed("done", map[string]any{"concepts": 0, "written": false})
		return nil
	}

	bundle, err := stagekit.LoadGuidance(jc.Ctx, p.guidance, jc.Stage, slug)
	if err != nil {
		return err
	}
	prompt, err := stagekit.BuildPrompt(jc.Stage, stagekit.PromptInput(jc.Stage, bundle, slug, prompts.ConceptList(approved)))
	if err != nil {
		return err
	}

	pairs, err := llm.Generate[curriculum.HierarchyPair](jc.Ctx, p.invoker, prompt)
	if err != nil {
		log.Warn("No usable hierarchy from model, continuing with none", "error", err, "kind", llm.KindOf(err))
	}
	if len(pairs) == 0 {
		jc.Succeed("done", map[string]any{"concepts": len(approved), "written": false})
		return nil
	}

	structure, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("encode hierarchy: %w", err)
	}
	row := &curriculum.HierarchySuggestion{
		DomainID:           domainID,
		SuggestedStructure: structure,
		Status:             curriculum.HierarchyPending,
	}
	if err := p.suggestions.Create(jc.DBC(), row); err != nil {
		return stagekit.WriteErr(err)
	}
	p.metrics.AddSuggestions("hierarchy", 1)
	log.Info("Saved hierarchy suggestion", "suggestion_id", row.ID, "pairs", len(pairs))
	jc.Succeed("done", map[string]any{
		"concepts":      len(approved),
		"pairs":         len(pairs),
		"written":       true,
		"suggestion_id": row.ID.String(),
	})
	return nil
}
