package preprocess

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	"github.com/yungbote/gemeos-pipeline/internal/learning/extractor"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/bus"
	"github.com/yungbote/gemeos-pipeline/internal/platform/gcp"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const Stage = "preprocess"

type Pipeline struct {
	db        *gorm.DB
	log       *logger.Logger
	blobs     gcp.BlobStore
	extractor *extractor.Extractor
	docs      repos.DocumentRepo
	pub       bus.Publisher
	metrics   *observability.Metrics
	now       func() time.Time
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	blobs gcp.BlobStore,
	ext *extractor.Extractor,
	docs repos.DocumentRepo,
	pub bus.Publisher,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		db:        db,
		log:       baseLog.With("job", Stage),
		blobs:     blobs,
		extractor: ext,
		docs:      docs,
		pub:       pub,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (p *Pipeline) Type() string { return Stage }
