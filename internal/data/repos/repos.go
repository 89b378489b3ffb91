package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos/curriculum"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type DocumentRepo = curriculum.DocumentRepo
type ConceptRepo = curriculum.ConceptRepo
type HierarchySuggestionRepo = curriculum.HierarchySuggestionRepo
type LearningGoalRepo = curriculum.LearningGoalRepo

type ExtractionUpdate = curriculum.ExtractionUpdate

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return curriculum.NewDocumentRepo(db, baseLog)
}
func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return curriculum.NewConceptRepo(db, baseLog)
}
func NewHierarchySuggestionRepo(db *gorm.DB, baseLog *logger.Logger) HierarchySuggestionRepo {
	return curriculum.NewHierarchySuggestionRepo(db, baseLog)
}
func NewLearningGoalRepo(db *gorm.DB, baseLog *logger.Logger) LearningGoalRepo {
	return curriculum.NewLearningGoalRepo(db, baseLog)
}
