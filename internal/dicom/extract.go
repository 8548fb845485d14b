// Package dicom extracts the handful of header fields the catalog needs
// from DICOM byte streams.
package dicom

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	suyash "github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Header holds the fields of interest. The zero value is the documented
// fallback for unreadable files.
type Header struct {
	InstanceNumber    int
	SliceLocation     float64
	SeriesDescription string
}

// Extractor parses DICOM headers. It reads only metadata, never pixel data.
type Extractor struct{}

// NewExtractor returns a header extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the header fields from a DICOM byte stream. Each field
// defaults independently when absent. A stream that does not parse at all
// returns the zero Header and an error; callers are expected to log the
// error and keep the fallback values.
func (e *Extractor) Extract(data []byte) (Header, error) {
	ds, err := suyash.Parse(bytes.NewReader(data), int64(len(data)), nil, suyash.SkipPixelData())
	if err != nil {
		return Header{}, fmt.Errorf("failed to parse dicom header: %w", err)
	}

	var h Header
	if s, ok := firstString(ds, tag.InstanceNumber); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			h.InstanceNumber = n
		}
	}
	if s, ok := firstString(ds, tag.SliceLocation); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			h.SliceLocation = f
		}
	}
	if s, ok := firstString(ds, tag.SeriesDescription); ok {
		h.SeriesDescription = strings.TrimSpace(s)
	}
	return h, nil
}

// firstString returns the first string value of the element with the given
// tag, if present. InstanceNumber (IS), SliceLocation (DS) and
// SeriesDescription (LO) are all string-valued on the wire.
func firstString(ds suyash.Dataset, t tag.Tag) (string, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return "", false
	}
	vals, ok := el.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
