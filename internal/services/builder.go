package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/lstvlab/dicomsync/internal/dicom"
	"github.com/lstvlab/dicomsync/internal/models"
)

// BlobReader fetches the bytes of one study file, wherever it lives: the
// object store during reconciliation, the local filesystem during ingestion.
type BlobReader func(ctx context.Context, studyID, seriesID, filename string) ([]byte, error)

// Builder assembles the canonical catalog document for a study from its
// series → files mapping. The document is always recomputed in full from the
// current file set, never merged with prior state, so it can never drift
// from storage even if an earlier document was corrupt.
type Builder struct {
	extract HeaderExtractor
	read    BlobReader
	prefix  string
}

// NewBuilder creates a metadata builder. prefix is the storage path root
// recorded in the emitted records.
func NewBuilder(extract HeaderExtractor, read BlobReader, prefix string) *Builder {
	return &Builder{extract: extract, read: read, prefix: prefix}
}

// Build computes the full StudyDocument for one study. A study with no
// series is not representable and returns an error; a file whose header
// cannot be read is still included with fallback field values.
func (b *Builder) Build(ctx context.Context, studyID string, series map[string][]ObjectRef) (*models.StudyDocument, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("study %s has no series, refusing to build an empty document", studyID)
	}

	seriesIDs := make([]string, 0, len(series))
	for id := range series {
		seriesIDs = append(seriesIDs, id)
	}
	sort.Strings(seriesIDs)

	doc := &models.StudyDocument{
		StudyID:    studyID,
		UploadDate: time.Now().UTC(),
		Status:     models.StudyStatusReady,
	}
	for _, seriesID := range seriesIDs {
		record := b.buildSeries(ctx, studyID, seriesID, series[seriesID])
		doc.Series = append(doc.Series, record)
		doc.TotalSlices += record.SliceCount
	}
	doc.TotalSeries = len(doc.Series)
	return doc, nil
}

// buildSeries orders the files of one series and extracts per-file header
// metadata. The list order is always the numeric-filename order; the
// header's own instance number is stored per file but never re-sorts the
// list, which keeps ordering stable when header metadata is missing or
// inconsistent across files.
func (b *Builder) buildSeries(ctx context.Context, studyID, seriesID string, files []ObjectRef) models.SeriesRecord {
	logCtx := slog.With("studyId", studyID, "seriesId", seriesID)

	sorted := make([]ObjectRef, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return lessByDigitKey(sorted[i].Name, sorted[j].Name)
	})

	record := models.SeriesRecord{
		SeriesID:    seriesID,
		SliceCount:  len(sorted),
		StoragePath: fmt.Sprintf("%s/%s/%s/", b.prefix, studyID, seriesID),
	}
	for i, ref := range sorted {
		header := b.readHeader(ctx, logCtx, studyID, seriesID, ref.Name)
		if i == 0 {
			record.Description = header.SeriesDescription
		}
		record.Files = append(record.Files, models.FileRecord{
			Filename:       ref.Name,
			InstanceNumber: header.InstanceNumber,
			SliceLocation:  header.SliceLocation,
			FileSize:       ref.Size,
			StoragePath:    fmt.Sprintf("%s/%s/%s/%s", b.prefix, studyID, seriesID, ref.Name),
		})
	}
	return record
}

// readHeader fetches and parses one file's header. Failures degrade to the
// zero Header; the file still appears in the document.
func (b *Builder) readHeader(ctx context.Context, logCtx *slog.Logger, studyID, seriesID, filename string) dicom.Header {
	data, err := b.read(ctx, studyID, seriesID, filename)
	if err != nil {
		logCtx.Warn("Could not read file, using fallback metadata.", "filename", filename, "error", err)
		return dicom.Header{}
	}
	header, err := b.extract.Extract(data)
	if err != nil {
		logCtx.Warn("Could not parse header, using fallback metadata.", "filename", filename, "error", err)
		return dicom.Header{}
	}
	return header
}

// StoreReader adapts an object store into a BlobReader rooted at prefix,
// for rebuilding documents from what is physically in storage.
func StoreReader(store ObjectStore, prefix string) BlobReader {
	return func(ctx context.Context, studyID, seriesID, filename string) ([]byte, error) {
		return store.Read(ctx, fmt.Sprintf("%s/%s/%s/%s", prefix, studyID, seriesID, filename))
	}
}

// digitKey returns the concatenation of all digit runs in name with leading
// zeros stripped. "img10.dcm" yields "10", "scout.dcm" yields "".
func digitKey(name string) string {
	var digits []byte
	for i := 0; i < len(name); i++ {
		if name[i] >= '0' && name[i] <= '9' {
			digits = append(digits, name[i])
		}
	}
	i := 0
	for i < len(digits) && digits[i] == '0' {
		i++
	}
	return string(digits[i:])
}

// lessByDigitKey orders filenames by their numeric key, ties broken by the
// plain filename. Comparing normalized digit strings by length first gives
// numeric order without overflowing on long digit runs.
func lessByDigitKey(a, b string) bool {
	ka, kb := digitKey(a), digitKey(b)
	if len(ka) != len(kb) {
		return len(ka) < len(kb)
	}
	if ka != kb {
		return ka < kb
	}
	return a < b
}
