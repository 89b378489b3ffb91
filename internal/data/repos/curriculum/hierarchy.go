package curriculum

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type HierarchySuggestionRepo interface {
	Create(dbc dbctx.Context, row *types.HierarchySuggestion) error
	ListByDomain(dbc dbctx.Context, domainID uuid.UUID, status string) ([]*types.HierarchySuggestion, error)
}

type hierarchySuggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHierarchySuggestionRepo(db *gorm.DB, baseLog *logger.Logger) HierarchySuggestionRepo {
	return &hierarchySuggestionRepo{db: db, log: baseLog.With("repo", "HierarchySuggestionRepo")}
}

func (r *hierarchySuggestionRepo) Create(dbc dbctx.Context, row *types.HierarchySuggestion) error {
	if row == nil {
		return fmt.Errorf("hierarchy suggestion required")
	}
	return dbc.DB(r.db).Create(row).Error
}

// ListByDomain returns suggestions newest first; an empty status matches all.
func (r *hierarchySuggestionRepo) ListByDomain(dbc dbctx.Context, domainID uuid.UUID, status string) ([]*types.HierarchySuggestion, error) {
	q := dbc.DB(r.db).Where("domain_id = ?", domainID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.HierarchySuggestion
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
