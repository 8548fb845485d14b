// Package services implements the core of the tool: scanning storage and
// catalog, building study metadata, planning and applying reconciliation,
// and the ingestion pipeline.
package services

import (
	"context"
	"io"

	"github.com/lstvlab/dicomsync/internal/dicom"
	"github.com/lstvlab/dicomsync/internal/models"
)

// ObjectRef identifies one listed object by its full storage name.
type ObjectRef struct {
	Name string
	Size int64
}

// ObjectStore is the narrow view of blob storage the services consume.
type ObjectStore interface {
	// List returns every object under prefix.
	List(ctx context.Context, prefix string) ([]ObjectRef, error)
	// Exists reports whether an object is present at name.
	Exists(ctx context.Context, name string) (bool, error)
	// Upload writes the object unless it already exists. It returns false
	// with a nil error when the object was already present.
	Upload(ctx context.Context, name string, r io.Reader, contentType string) (bool, error)
	// Read returns the full contents of the object at name.
	Read(ctx context.Context, name string) ([]byte, error)
}

// CatalogDoc pairs a catalog document with its storage key. The key is an
// implementation detail of the catalog; the embedded study_id is the join
// key against storage.
type CatalogDoc struct {
	DocID string
	Study *models.StudyDocument
}

// Catalog is the narrow view of the document catalog the services consume.
type Catalog interface {
	ListStudies(ctx context.Context) ([]CatalogDoc, error)
	// SetStudy fully overwrites the document at key, never merges.
	SetStudy(ctx context.Context, key string, doc *models.StudyDocument) error
	DeleteStudy(ctx context.Context, key string) error
}

// HeaderExtractor parses the catalog-relevant fields out of DICOM bytes.
type HeaderExtractor interface {
	Extract(data []byte) (dicom.Header, error)
}

// StorageSnapshot maps study ID to series ID to the files observed under
// that series, as listed from the object store.
type StorageSnapshot map[string]map[string][]ObjectRef

// FileCount returns the number of files recorded for one study.
func (s StorageSnapshot) FileCount(studyID string) int {
	n := 0
	for _, files := range s[studyID] {
		n += len(files)
	}
	return n
}

// CatalogSnapshot maps study ID to the catalog document claiming it.
type CatalogSnapshot map[string]CatalogDoc
