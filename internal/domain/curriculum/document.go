package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is an uploaded file of a knowledge domain and the text the
// preprocess stage derived from it.
type Document struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DomainID   uuid.UUID `gorm:"type:uuid;not null;index" json:"domain_id"`
	DomainSlug string    `gorm:"column:domain_slug" json:"domain_slug,omitempty"`

	FileName   string `gorm:"column:file_name" json:"file_name"`
	BucketPath string `gorm:"column:bucket_path;not null;index" json:"bucket_path"`
	Status     string `gorm:"column:status;not null;default:'uploaded'" json:"status"`

	ContentHash   string         `gorm:"column:content_hash;index" json:"content_hash,omitempty"`
	ExtractedText string         `gorm:"column:extracted_text;type:text" json:"extracted_text,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata_json;type:jsonb" json:"metadata_json,omitempty"`
	ExtractedAt   *time.Time     `gorm:"column:extracted_at" json:"extracted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string { return "domain_extracted_files" }

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ExtractionMetadata is stored as metadata_json.
type ExtractionMetadata struct {
	MimeType            string `json:"mime_type"`
	SizeBytes           int64  `json:"size_bytes"`
	ExtractionTimestamp string `json:"extraction_timestamp"`
	Pages               *int   `json:"pages"`
	Truncated           bool   `json:"truncated,omitempty"`
	Extractor           string `json:"extractor,omitempty"`
}
