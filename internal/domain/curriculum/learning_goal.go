package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LearningGoal struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptID       uuid.UUID `gorm:"type:uuid;not null;index" json:"concept_id"`
	GoalDescription string    `gorm:"column:goal_description;type:text;not null" json:"goal_description"`
	BloomLevel      string    `gorm:"column:bloom_level" json:"bloom_level"`
	GoalType        string    `gorm:"column:goal_type" json:"goal_type"`
	SequenceOrder   int       `gorm:"column:sequence_order" json:"sequence_order"`
	Status          string    `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearningGoal) TableName() string { return "learning_goals" }

func (g *LearningGoal) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
