package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DicomExtension is the only file extension the scanners recognize.
const DicomExtension = ".dcm"

// StorageScanner lists the object store and groups DICOM objects by study
// and series.
type StorageScanner struct {
	store  ObjectStore
	prefix string
}

// NewStorageScanner creates a scanner over the objects below prefix.
func NewStorageScanner(store ObjectStore, prefix string) *StorageScanner {
	return &StorageScanner{store: store, prefix: prefix}
}

// Scan lists every object under the prefix and aggregates them into a
// study → series → files snapshot. Objects whose path does not parse as
// <prefix>/<study>/<series>/<file>.dcm are skipped, never an error; foreign
// or malformed objects are invisible to reconciliation.
func (s *StorageScanner) Scan(ctx context.Context) (StorageSnapshot, error) {
	refs, err := s.store.List(ctx, s.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to scan storage: %w", err)
	}

	snapshot := StorageSnapshot{}
	skipped := 0
	for _, ref := range refs {
		parts := strings.Split(ref.Name, "/")
		if len(parts) != 4 || !strings.HasSuffix(parts[3], DicomExtension) {
			skipped++
			continue
		}
		studyID, seriesID, filename := parts[1], parts[2], parts[3]
		if studyID == "" || seriesID == "" {
			skipped++
			continue
		}

		series, ok := snapshot[studyID]
		if !ok {
			series = map[string][]ObjectRef{}
			snapshot[studyID] = series
		}
		series[seriesID] = append(series[seriesID], ObjectRef{Name: filename, Size: ref.Size})
	}

	slog.Info("Scanned storage.", "prefix", s.prefix, "studies", len(snapshot), "skippedObjects", skipped)
	return snapshot, nil
}
