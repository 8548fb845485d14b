package models

import "time"

// StudyStatusReady is the only status a catalog document can carry. A study
// is either fully represented in the catalog or absent; there is no partial
// state.
const StudyStatusReady = "ready"

// FileRecord describes one DICOM object in storage. Field names match the
// catalog documents on the wire so existing catalogs stay readable.
type FileRecord struct {
	Filename       string  `firestore:"filename" json:"filename"`
	InstanceNumber int     `firestore:"instance_number" json:"instance_number"`
	SliceLocation  float64 `firestore:"slice_location" json:"slice_location"`
	FileSize       int64   `firestore:"file_size" json:"file_size"`
	StoragePath    string  `firestore:"storage_path" json:"storage_path"`
}

// SeriesRecord groups the files of one series, ordered by the numeric key
// derived from their filenames.
type SeriesRecord struct {
	SeriesID    string       `firestore:"series_id" json:"series_id"`
	Description string       `firestore:"description" json:"description"`
	SliceCount  int          `firestore:"slice_count" json:"slice_count"`
	Files       []FileRecord `firestore:"files" json:"files"`
	StoragePath string       `firestore:"storage_path" json:"storage_path"`
}

// StudyDocument is the catalog document for one study. It is always rebuilt
// wholesale from the current object set, never patched field by field.
type StudyDocument struct {
	StudyID     string         `firestore:"study_id" json:"study_id"`
	Series      []SeriesRecord `firestore:"series" json:"series"`
	TotalSeries int            `firestore:"total_series" json:"total_series"`
	TotalSlices int            `firestore:"total_slices" json:"total_slices"`
	UploadDate  time.Time      `firestore:"upload_date" json:"upload_date"`
	Status      string         `firestore:"status" json:"status"`
}

// FileCount returns the number of files across all series.
func (d *StudyDocument) FileCount() int {
	n := 0
	for _, s := range d.Series {
		n += len(s.Files)
	}
	return n
}
