package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gemeos-pipeline/internal/domain/curriculum"
)

// SeedDocument inserts a processed document. An empty text leaves the
// document in the uploaded state.
func SeedDocument(tb testing.TB, db *gorm.DB, domainID uuid.UUID, bucketPath, text string) *types.Document {
	tb.Helper()
	doc := &types.Document{
		DomainID:      domainID,
		BucketPath:    bucketPath,
		Status:        types.DocumentProcessed,
		ExtractedText: text,
	}
	if text == "" {
		doc.Status = types.DocumentUploaded
	}
	if err := db.Create(doc).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return doc
}

// SeedConcepts inserts one concept per name with the given status.
func SeedConcepts(tb testing.TB, db *gorm.DB, domainID uuid.UUID, status string, names ...string) []*types.Concept {
	tb.Helper()
	rows := make([]*types.Concept, 0, len(names))
	for _, n := range names {
		rows = append(rows, &types.Concept{DomainID: domainID, Name: n, Status: status, TeacherID: types.SystemPrincipalID})
	}
	if len(rows) == 0 {
		return rows
	}
	if err := db.Create(&rows).Error; err != nil {
		tb.Fatalf("seed concepts: %v", err)
	}
	return rows
}
