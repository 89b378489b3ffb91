package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Concept struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DomainID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"domain_id"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	SourceFileID *uuid.UUID `gorm:"type:uuid;column:source_file_id;index" json:"source_file_id,omitempty"`
	Status       string     `gorm:"column:status;not null;index" json:"status"`
	// Owning principal; SystemPrincipalID for pipeline suggestions.
	TeacherID uuid.UUID `gorm:"type:uuid;column:teacher_id;not null" json:"teacher_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Concept) TableName() string { return "concepts" }

func (c *Concept) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
