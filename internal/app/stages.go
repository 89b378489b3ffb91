package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/concept_extract"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/concept_structure"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/goal_generate"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/pipeline/preprocess"
	jobrt "github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/learning/extractor"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// wireStages builds the shared learning collaborators and registers one
// handler per stage the pipeline definition names.
func wireStages(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	pipeline *orchestrator.Pipeline,
	clients Clients,
	r Repos,
	metrics *observability.Metrics,
) (*jobrt.Registry, error) {
	log.Info("Wiring stages...")

	extOpts := []extractor.Option{extractor.WithMaxChars(cfg.PreprocessMaxChars)}
	if clients.DocumentAI != nil {
		extOpts = append(extOpts, extractor.WithPDFBackend(clients.DocumentAI))
	}
	ext := extractor.New(log, extOpts...)

	guide := guidance.NewLoader(log, clients.Blobs, cfg.GuidanceBucket, pipeline.GuidanceLocations())

	invOpts := []llm.Option{llm.WithRetry(cfg.ModelRetry)}
	if metrics != nil {
		invOpts = append(invOpts, llm.WithObserver(metrics))
	}
	if cfg.ModelRequestsPerSecond > 0 {
		invOpts = append(invOpts, llm.WithRateLimit(cfg.ModelRequestsPerSecond))
	}
	invoker := llm.NewInvoker(log, clients.Model, invOpts...)

	reg := jobrt.NewRegistry()
	handlers := []jobrt.Handler{
		preprocess.New(db, log, clients.Blobs, ext, r.Documents, clients.Bus, metrics),
		concept_extract.New(db, log, r.Documents, r.Concepts, guide, invoker, metrics, concept_extract.Options{
			PrincipalID:   cfg.SystemPrincipalID,
			SkipConflicts: cfg.ConceptUniqueIndex,
		}),
		concept_structure.New(db, log, r.Concepts, r.Hierarchies, guide, invoker, metrics),
		goal_generate.New(db, log, r.Documents, r.Concepts, r.Goals, guide, invoker, metrics),
	}
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return nil, err
		}
	}
	if err := checkStages(pipeline, reg); err != nil {
		return nil, err
	}
	log.Info("Stages wired", "stages", reg.Types())
	return reg, nil
}

// checkStages requires a one-to-one match between pipeline stages and
// registered handlers.
func checkStages(pipeline *orchestrator.Pipeline, reg *jobrt.Registry) error {
	for _, id := range pipeline.Order() {
		if _, ok := reg.Get(id); !ok {
			return fmt.Errorf("pipeline stage %q has no handler", id)
		}
	}
	for _, typ := range reg.Types() {
		if _, ok := pipeline.Stage(typ); !ok {
			return fmt.Errorf("handler %q is not a pipeline stage", typ)
		}
	}
	return nil
}
