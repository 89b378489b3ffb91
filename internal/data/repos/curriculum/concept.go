package curriculum

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type ConceptRepo interface {
	// Create inserts rows. With skipConflicts, rows rejected by a uniqueness
	// constraint are dropped silently; the returned count is rows written.
	Create(dbc dbctx.Context, rows []*types.Concept, skipConflicts bool) (int64, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Concept, error)
	ListByStatus(dbc dbctx.Context, domainID uuid.UUID, status string) ([]*types.Concept, error)
	ListNamesByStatus(dbc dbctx.Context, domainID uuid.UUID, status string) ([]string, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{db: db, log: baseLog.With("repo", "ConceptRepo")}
}

func (r *conceptRepo) Create(dbc dbctx.Context, rows []*types.Concept, skipConflicts bool) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q := dbc.DB(r.db)
	if skipConflicts {
		q = q.Clauses(clause.OnConflict{DoNothing: true})
	}
	res := q.Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *conceptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Concept, error) {
	var out types.Concept
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("concept %s: %w", id, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conceptRepo) ListByStatus(dbc dbctx.Context, domainID uuid.UUID, status string) ([]*types.Concept, error) {
	var out []*types.Concept
	if err := dbc.DB(r.db).
		Where("domain_id = ? AND status = ?", domainID, status).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) ListNamesByStatus(dbc dbctx.Context, domainID uuid.UUID, status string) ([]string, error) {
	var out []string
	if err := dbc.DB(r.db).Model(&types.Concept{}).
		Where("domain_id = ? AND status = ?", domainID, status).
		Order("created_at ASC").
		Pluck("name", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	res := dbc.DB(r.db).Model(&types.Concept{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("concept %s: %w", id, apierr.ErrNotFound)
	}
	return nil
}
