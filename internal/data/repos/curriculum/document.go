package curriculum

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/dbctx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// ExtractionUpdate is everything preprocess writes onto a document.
type ExtractionUpdate struct {
	ContentHash   string
	ExtractedText string
	Metadata      datatypes.JSON
	ExtractedAt   time.Time
	Status        string
}

type DocumentRepo interface {
	Create(dbc dbctx.Context, row *types.Document) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	GetByBucketPath(dbc dbctx.Context, bucketPath string) (*types.Document, error)
	UpdateExtraction(dbc dbctx.Context, id uuid.UUID, upd ExtractionUpdate) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, row *types.Document) error {
	if row == nil {
		return fmt.Errorf("document required")
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	var out types.Document
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s: %w", id, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByBucketPath matches the object path relative to its bucket. When
// several rows share the path the most recently created wins.
func (r *documentRepo) GetByBucketPath(dbc dbctx.Context, bucketPath string) (*types.Document, error) {
	var out types.Document
	err := dbc.DB(r.db).
		Where("bucket_path = ?", bucketPath).
		Order("created_at DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document at %q: %w", bucketPath, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *documentRepo) UpdateExtraction(dbc dbctx.Context, id uuid.UUID, upd ExtractionUpdate) error {
	extractedAt := upd.ExtractedAt
	res := dbc.DB(r.db).Model(&types.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content_hash":   upd.ContentHash,
			"extracted_text": upd.ExtractedText,
			"metadata_json":  upd.Metadata,
			"extracted_at":   &extractedAt,
			"status":         upd.Status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, apierr.ErrNotFound)
	}
	return nil
}
