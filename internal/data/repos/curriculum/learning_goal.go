package curriculum

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type LearningGoalRepo interface {
	Create(dbc dbctx.Context, rows []*types.LearningGoal) error
	ListByConcept(dbc dbctx.Context, conceptID uuid.UUID, status string) ([]*types.LearningGoal, error)
	ListDescriptionsByStatus(dbc dbctx.Context, conceptID uuid.UUID, status string) ([]string, error)
}

type learningGoalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningGoalRepo(db *gorm.DB, baseLog *logger.Logger) LearningGoalRepo {
	return &learningGoalRepo{db: db, log: baseLog.With("repo", "LearningGoalRepo")}
}

func (r *learningGoalRepo) Create(dbc dbctx.Context, rows []*types.LearningGoal) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *learningGoalRepo) ListByConcept(dbc dbctx.Context, conceptID uuid.UUID, status string) ([]*types.LearningGoal, error) {
	q := dbc.DB(r.db).Where("concept_id = ?", conceptID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.LearningGoal
	if err := q.Order("sequence_order ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningGoalRepo) ListDescriptionsByStatus(dbc dbctx.Context, conceptID uuid.UUID, status string) ([]string, error) {
	var out []string
	if err := dbc.DB(r.db).Model(&types.LearningGoal{}).
		Where("concept_id = ? AND status = ?", conceptID, status).
		Order("created_at ASC").
		Pluck("goal_description", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
