package concept_extract

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const Stage = "concept_extraction"

type Options struct {
	// Principal owning suggested rows.
	PrincipalID uuid.UUID
	// SkipConflicts drops rows rejected by the (domain, lower(name)) unique
	// index instead of failing the insert.
	SkipConflicts bool
}

type Pipeline struct {
	db       *gorm.DB
	log      *logger.Logger
	docs     repos.DocumentRepo
	concepts repos.ConceptRepo
	guidance *guidance.Loader
	invoker  *llm.Invoker
	metrics  *observability.Metrics
	opts     Options
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	concepts repos.ConceptRepo,
	guide *guidance.Loader,
	invoker *llm.Invoker,
	metrics *observability.Metrics,
	opts Options,
) *Pipeline {
	if opts.PrincipalID == uuid.Nil {
		opts.PrincipalID = types.SystemPrincipalID
	}
	return &Pipeline{
		db:       db,
		log:      baseLog.With("job", Stage),
		docs:     docs,
		concepts: concepts,
		guidance: guide,
		invoker:  invoker,
		metrics:  metrics,
		opts:     opts,
	}
}

func (p *Pipeline) Type() string { return Stage }
