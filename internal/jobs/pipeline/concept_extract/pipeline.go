package concept_extract

import (
	"strings"

	"github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/stagekit"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	fileID, err := trigger.FirstUUID(jc.Payload(), "file_id", "record_id")
	if err != nil {
		return err
	}
	domainID, err := jc.PayloadUUID("domain_id")
	if err != nil {
		return err
	}
	slug, err := jc.PayloadString("domain_slug")
	if err != nil {
		return err
	}
	log := jc.Log.With("file_id", fileID, "domain_id", domainID, "domain_slug", slug)

	doc, err := p.docs.GetByID(jc.DBC(), fileID)
	if err != nil {
		return stagekit.ReadErr("document_not_found", err)
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return apierr.NotFound("no_extracted_text", apierr.ErrNotFound)
	}

	bundle, err := stagekit.LoadGuidance(jc.Ctx, p.guidance, jc.Stage, slug)
	if err != nil {
		return err
	}
	prompt, err := stagekit.BuildPrompt(jc.Stage, stagekit.PromptInput(jc.Stage, bundle, slug, doc.ExtractedText))
	if err != nil {
		return err
	}

	proposed, err := llm.Generate[string](jc.Ctx, p.invoker, prompt)
	if err != nil {
		log.Warn("No usable concepts from model, continuing with none", "error", err, "kind", llm.KindOf(err))
	}
	if len(proposed) == 0 {
		jc.Succeed("done", map[string]any{"proposed": 0, "inserted": 0})
		return nil
	}

	approved, err := p.concepts.ListNamesByStatus(jc.DBC(), domainID, curriculum.StatusApproved)
	if err != nil {
		return apierr.Internal("store_read_failed", err)
	}
	accepted := Dedup(approved, proposed)
	log.Info("Deduplicated concepts", "proposed", len(proposed), "approved_existing", len(approved), "accepted", len(accepted))
	if len(accepted) == 0 {
		jc.Succeed("done", map[string]any{"proposed": len(proposed), "inserted": 0})
		return nil
	}

	rows := make([]*curriculum.Concept, 0, len(accepted))
	for _, name := range accepted {
		rows = append(rows, &curriculum.Concept{
			DomainID:     domainID,
			Name:         name,
			SourceFileID: &fileID,
			Status:       curriculum.StatusSuggested,
			TeacherID:    p.opts.PrincipalID,
		})
	}
	n, err := p.concepts.Create(jc.DBC(), rows, p.opts.SkipConflicts)
	if err != nil {
		return stagekit.WriteErr(err)
	}
	p.metrics.AddSuggestions("concept", int(n))
	log.Info("Saved suggested concepts", "inserted", n)
	jc.Succeed("done", map[string]any{"proposed": len(proposed), "inserted": n})
	return nil
}

// Dedup keeps proposed names whose case-folded form is neither approved nor
// already accepted earlier in the batch. Blank names are dropped; kept names
// are trimmed but otherwise unchanged.
func Dedup(approved, proposed []string) []string {
	seen := make(map[string]struct{}, len(approved)+len(proposed))
	for _, name := range approved {
		seen[stagekit.FoldName(name)] = struct{}{}
	}
	var out []string
	for _, name := range proposed {
		key := stagekit.FoldName(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(name))
	}
	return out
}
