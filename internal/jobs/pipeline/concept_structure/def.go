package concept_structure

import (
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const Stage = "concept_structuring"

type Pipeline struct {
	db          *gorm.DB
	log         *logger.Logger
	concepts    repos.ConceptRepo
	suggestions repos.HierarchySuggestionRepo
	guidance    *guidance.Loader
	invoker     *llm.Invoker
	metrics     *observability.Metrics
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	concepts repos.ConceptRepo,
	suggestions repos.HierarchySuggestionRepo,
	guide *guidance.Loader,
	invoker *llm.Invoker,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		db:          db,
		log:         baseLog.With("job", Stage),
		concepts:    concepts,
		suggestions: suggestions,
		guidance:    guide,
		invoker:     invoker,
		metrics:     metrics,
	}
}

func (p *Pipeline) Type() string { return Stage }
