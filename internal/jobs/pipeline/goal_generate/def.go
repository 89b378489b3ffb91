package goal_generate

import (
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const Stage = "learning_goal_generation"

type Pipeline struct {
	db       *gorm.DB
	log      *logger.Logger
	docs     repos.DocumentRepo
	concepts repos.ConceptRepo
	goals    repos.LearningGoalRepo
	guidance *guidance.Loader
	invoker  *llm.Invoker
	metrics  *observability.Metrics
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	concepts repos.ConceptRepo,
	goals repos.LearningGoalRepo,
	guide *guidance.Loader,
	invoker *llm.Invoker,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		db:       db,
		log:      baseLog.With("job", Stage),
		docs:     docs,
		concepts: concepts,
		goals:    goals,
		guidance: guide,
		invoker:  invoker,
		metrics:  metrics,
	}
}

func (p *Pipeline) Type() string { return Stage }
