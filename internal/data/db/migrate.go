package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
)

type MigrateOptions struct {
	// Enforce one concept per (domain, case-folded name) at the store level.
	ConceptUniqueIndex bool
}

const conceptUniqueIndex = "idx_concepts_domain_lower_name"

func AutoMigrateAll(db *gorm.DB, opts MigrateOptions) error {
	if err := db.AutoMigrate(
		&curriculum.Document{},
		&curriculum.Concept{},
		&curriculum.HierarchySuggestion{},
		&curriculum.LearningGoal{},
	); err != nil {
		return err
	}
	if opts.ConceptUniqueIndex {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON concepts (domain_id, lower(name))", conceptUniqueIndex)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", conceptUniqueIndex, err)
		}
	}
	return nil
}
