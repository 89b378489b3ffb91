package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HierarchyPair places Concept under Parent; a nil Parent marks a root.
type HierarchyPair struct {
	Concept string  `json:"concept"`
	Parent  *string `json:"parent"`
}

// HierarchySuggestion is a proposed concept tree awaiting review. It is
// never applied by the pipeline.
type HierarchySuggestion struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DomainID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"domain_id"`
	SuggestedStructure datatypes.JSON `gorm:"column:suggested_structure;type:jsonb;not null" json:"suggested_structure"`
	Status             string         `gorm:"column:status;not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (HierarchySuggestion) TableName() string { return "suggested_concept_hierarchies" }

func (h *HierarchySuggestion) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
