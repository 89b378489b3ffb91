package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/data/repos"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type Repos struct {
	Documents   repos.DocumentRepo
	Concepts    repos.ConceptRepo
	Hierarchies repos.HierarchySuggestionRepo
	Goals       repos.LearningGoalRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Documents:   repos.NewDocumentRepo(db, log),
		Concepts:    repos.NewConceptRepo(db, log),
		Hierarchies: repos.NewHierarchySuggestionRepo(db, log),
		Goals:       repos.NewLearningGoalRepo(db, log),
	}
}
