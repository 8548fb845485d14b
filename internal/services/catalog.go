package services

import (
	"context"
	"fmt"
	"log/slog"
)

// CatalogScanner reads the full catalog collection into a snapshot keyed by
// the embedded study_id field. The document key is an implementation detail
// of the catalog and is retained only so orphans can be deleted by key.
type CatalogScanner struct {
	catalog Catalog
}

// NewCatalogScanner creates a scanner over the catalog collection.
func NewCatalogScanner(catalog Catalog) *CatalogScanner {
	return &CatalogScanner{catalog: catalog}
}

// Scan reads every catalog document. A document without a study_id, or two
// documents claiming the same study_id, is a fatal integrity error: dropping
// such a document silently would make its study permanently "missing" and
// endlessly recreated.
func (s *CatalogScanner) Scan(ctx context.Context) (CatalogSnapshot, error) {
	docs, err := s.catalog.ListStudies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog: %w", err)
	}

	snapshot := CatalogSnapshot{}
	for _, doc := range docs {
		if doc.Study == nil || doc.Study.StudyID == "" {
			return nil, fmt.Errorf("catalog integrity error: document %s has no study_id", doc.DocID)
		}
		if prev, ok := snapshot[doc.Study.StudyID]; ok {
			return nil, fmt.Errorf("catalog integrity error: documents %s and %s both claim study %s",
				prev.DocID, doc.DocID, doc.Study.StudyID)
		}
		snapshot[doc.Study.StudyID] = doc
	}

	slog.Info("Scanned catalog.", "studies", len(snapshot))
	return snapshot, nil
}
