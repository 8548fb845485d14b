package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lstvlab/dicomsync/internal/models"
)

// DicomContentType is the MIME type recorded on uploaded objects.
const DicomContentType = "application/dicom"

// ReportVersion is the schema version written into run report files.
const ReportVersion = "1.0"

// Ingestor walks a local study/series/file directory tree, uploads every
// DICOM file that is not already in the object store, and writes one
// catalog document per study. Re-running against a partially uploaded tree
// is safe: present objects are skipped and the catalog document is rebuilt
// in full either way.
type Ingestor struct {
	store   ObjectStore
	catalog Catalog
	extract HeaderExtractor
	prefix  string
}

// NewIngestor creates an ingestion pipeline.
func NewIngestor(store ObjectStore, catalog Catalog, extract HeaderExtractor, prefix string) *Ingestor {
	return &Ingestor{store: store, catalog: catalog, extract: extract, prefix: prefix}
}

// ListStudyDirs returns the immediate subdirectory names of root, in
// directory iteration order. The ingest command also uses it to size trial
// runs before touching anything.
func ListStudyDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs, nil
}

// Run ingests up to limit study directories from root (all of them when
// limit is 0). A failure inside one study is recorded and does not stop the
// run; ingestion makes independent per-study progress.
func (ing *Ingestor) Run(ctx context.Context, root string, limit int) (*models.RunReport, error) {
	studyDirs, err := ListStudyDirs(root)
	if err != nil {
		return nil, err
	}
	if len(studyDirs) == 0 {
		return nil, fmt.Errorf("no study directories found in %s", root)
	}
	if limit > 0 && limit < len(studyDirs) {
		studyDirs = studyDirs[:limit]
	}

	builder := NewBuilder(ing.extract, localReader(root), ing.prefix)
	report := &models.RunReport{}
	start := time.Now()

	for i, studyID := range studyDirs {
		logCtx := slog.With("studyId", studyID, "index", i+1, "total", len(studyDirs))
		logCtx.Info("Processing study.")

		doc, uploaded, skipped, err := ing.ingestStudy(ctx, builder, root, studyID)
		if err != nil {
			logCtx.Error("Study failed.", "error", err)
			report.Failed = append(report.Failed, studyID)
			continue
		}

		report.Uploaded = append(report.Uploaded, doc)
		report.FilesUploaded += uploaded
		report.FilesSkipped += skipped
		logCtx.Info("Study complete.",
			"series", doc.TotalSeries,
			"uploaded", uploaded,
			"skipped", skipped,
		)
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// ingestStudy uploads every file of one study and persists its catalog
// document. The document is written even when every file was skipped, so an
// interrupted earlier run leaves nothing stale behind.
func (ing *Ingestor) ingestStudy(ctx context.Context, builder *Builder, root, studyID string) (*models.StudyDocument, int, int, error) {
	seriesDirs, err := ListStudyDirs(filepath.Join(root, studyID))
	if err != nil {
		return nil, 0, 0, err
	}
	if len(seriesDirs) == 0 {
		return nil, 0, 0, fmt.Errorf("study %s has no series directories", studyID)
	}

	seriesMap := map[string][]ObjectRef{}
	uploaded, skipped := 0, 0
	for _, seriesID := range seriesDirs {
		files, up, sk, err := ing.uploadSeries(ctx, root, studyID, seriesID)
		if err != nil {
			return nil, 0, 0, err
		}
		if len(files) == 0 {
			continue
		}
		seriesMap[seriesID] = files
		uploaded += up
		skipped += sk
	}

	doc, err := builder.Build(ctx, studyID, seriesMap)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := ing.catalog.SetStudy(ctx, studyID, doc); err != nil {
		return nil, 0, 0, err
	}
	return doc, uploaded, skipped, nil
}

// uploadSeries uploads the .dcm files of one series directory, skipping
// objects that already exist at their destination path.
func (ing *Ingestor) uploadSeries(ctx context.Context, root, studyID, seriesID string) ([]ObjectRef, int, int, error) {
	dir := filepath.Join(root, studyID, seriesID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read series directory %s: %w", dir, err)
	}

	var files []ObjectRef
	uploaded, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), DicomExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		dest := fmt.Sprintf("%s/%s/%s/%s", ing.prefix, studyID, seriesID, entry.Name())
		exists, err := ing.store.Exists(ctx, dest)
		if err != nil {
			return nil, 0, 0, err
		}
		if exists {
			skipped++
		} else {
			created, err := ing.uploadFile(ctx, filepath.Join(dir, entry.Name()), dest)
			if err != nil {
				return nil, 0, 0, err
			}
			if created {
				uploaded++
			} else {
				skipped++
			}
		}

		files = append(files, ObjectRef{Name: entry.Name(), Size: info.Size()})
	}
	return files, uploaded, skipped, nil
}

func (ing *Ingestor) uploadFile(ctx context.Context, localPath, dest string) (bool, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()
	return ing.store.Upload(ctx, dest, f, DicomContentType)
}

// localReader is the BlobReader over the source directory tree.
func localReader(root string) BlobReader {
	return func(_ context.Context, studyID, seriesID, filename string) ([]byte, error) {
		return os.ReadFile(filepath.Join(root, studyID, seriesID, filename))
	}
}

// WriteReport persists the run report as a JSON artifact.
func WriteReport(path string, report *models.RunReport) error {
	file := models.ReportFile{
		Version:      ReportVersion,
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		TotalStudies: len(report.Uploaded),
		TotalSeries:  report.TotalSeries(),
		TotalSlices:  report.TotalSlices(),
		Studies:      report.Uploaded,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
