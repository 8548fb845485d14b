package models

import "time"

// RunReport aggregates the outcome of one ingestion run.
type RunReport struct {
	Uploaded      []*StudyDocument
	Failed        []string
	FilesUploaded int
	FilesSkipped  int
	Elapsed       time.Duration
}

// TotalSeries sums total_series across all uploaded studies.
func (r *RunReport) TotalSeries() int {
	n := 0
	for _, s := range r.Uploaded {
		n += s.TotalSeries
	}
	return n
}

// TotalSlices sums total_slices across all uploaded studies.
func (r *RunReport) TotalSlices() int {
	n := 0
	for _, s := range r.Uploaded {
		n += s.TotalSlices
	}
	return n
}

// ReportFile is the JSON artifact optionally written after a full ingestion
// run.
type ReportFile struct {
	Version      string           `json:"version"`
	RunID        string           `json:"run_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	TotalStudies int              `json:"total_studies"`
	TotalSeries  int              `json:"total_series"`
	TotalSlices  int              `json:"total_slices"`
	Studies      []*StudyDocument `json:"studies"`
}
