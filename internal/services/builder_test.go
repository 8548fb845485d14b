package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/lstvlab/dicomsync/internal/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapReader serves blob bytes from a filename-keyed map.
func mapReader(contents map[string][]byte) BlobReader {
	return func(_ context.Context, _, _, filename string) ([]byte, error) {
		data, ok := contents[filename]
		if !ok {
			return nil, fmt.Errorf("no blob for %s", filename)
		}
		return data, nil
	}
}

func refs(names ...string) []ObjectRef {
	out := make([]ObjectRef, 0, len(names))
	for _, name := range names {
		out = append(out, ObjectRef{Name: name, Size: 100})
	}
	return out
}

func TestBuild_OrdersFilesNumerically(t *testing.T) {
	ctx := context.Background()
	builder := NewBuilder(newFakeExtractor(), mapReader(map[string][]byte{
		"img3.dcm":  []byte("a"),
		"img10.dcm": []byte("b"),
		"img1.dcm":  []byte("c"),
	}), "dicoms")

	doc, err := builder.Build(ctx, "101", map[string][]ObjectRef{
		"1": refs("img3.dcm", "img10.dcm", "img1.dcm"),
	})
	require.NoError(t, err)
	require.Len(t, doc.Series, 1)

	var names []string
	for _, f := range doc.Series[0].Files {
		names = append(names, f.Filename)
	}
	assert.Equal(t, []string{"img1.dcm", "img3.dcm", "img10.dcm"}, names)
}

func TestBuild_InstanceNumberDoesNotResort(t *testing.T) {
	ctx := context.Background()
	extract := newFakeExtractor()
	extract.headers["one"] = dicom.Header{InstanceNumber: 9, SliceLocation: 4.5, SeriesDescription: "T2 SAG"}
	extract.headers["two"] = dicom.Header{InstanceNumber: 1, SliceLocation: -2.5}

	builder := NewBuilder(extract, mapReader(map[string][]byte{
		"img1.dcm": []byte("one"),
		"img2.dcm": []byte("two"),
	}), "dicoms")

	doc, err := builder.Build(ctx, "101", map[string][]ObjectRef{
		"1": refs("img2.dcm", "img1.dcm"),
	})
	require.NoError(t, err)

	series := doc.Series[0]
	// List order follows the filename key even though img1's header claims a
	// later instance number.
	assert.Equal(t, "img1.dcm", series.Files[0].Filename)
	assert.Equal(t, 9, series.Files[0].InstanceNumber)
	assert.Equal(t, 4.5, series.Files[0].SliceLocation)
	assert.Equal(t, "img2.dcm", series.Files[1].Filename)
	assert.Equal(t, 1, series.Files[1].InstanceNumber)
	// Description comes from the first file in numeric order.
	assert.Equal(t, "T2 SAG", series.Description)
}

func TestBuild_FallbackOnBadHeader(t *testing.T) {
	ctx := context.Background()
	builder := NewBuilder(newFakeExtractor(), mapReader(map[string][]byte{
		"img1.dcm": []byte("garbage"),
	}), "dicoms")

	doc, err := builder.Build(ctx, "101", map[string][]ObjectRef{"1": refs("img1.dcm")})
	require.NoError(t, err)

	f := doc.Series[0].Files[0]
	assert.Equal(t, "img1.dcm", f.Filename)
	assert.Equal(t, 0, f.InstanceNumber)
	assert.Equal(t, 0.0, f.SliceLocation)
	assert.Equal(t, "", doc.Series[0].Description)
}

func TestBuild_UnreadableBlobStillIncluded(t *testing.T) {
	ctx := context.Background()
	builder := NewBuilder(newFakeExtractor(), mapReader(map[string][]byte{}), "dicoms")

	doc, err := builder.Build(ctx, "101", map[string][]ObjectRef{"1": refs("img1.dcm")})
	require.NoError(t, err)
	require.Len(t, doc.Series[0].Files, 1)
	assert.Equal(t, 0, doc.Series[0].Files[0].InstanceNumber)
}

func TestBuild_TotalsAndPaths(t *testing.T) {
	ctx := context.Background()
	builder := NewBuilder(newFakeExtractor(), mapReader(map[string][]byte{}), "dicoms")

	doc, err := builder.Build(ctx, "101", map[string][]ObjectRef{
		"2": refs("a1.dcm", "a2.dcm"),
		"1": refs("b1.dcm", "b2.dcm", "b3.dcm"),
	})
	require.NoError(t, err)

	assert.Equal(t, "101", doc.StudyID)
	assert.Equal(t, 2, doc.TotalSeries)
	assert.Equal(t, 5, doc.TotalSlices)
	assert.Equal(t, "ready", doc.Status)
	assert.False(t, doc.UploadDate.IsZero())

	// Series come out in sorted ID order.
	assert.Equal(t, "1", doc.Series[0].SeriesID)
	assert.Equal(t, 3, doc.Series[0].SliceCount)
	assert.Equal(t, "dicoms/101/1/", doc.Series[0].StoragePath)
	assert.Equal(t, "dicoms/101/1/b1.dcm", doc.Series[0].Files[0].StoragePath)
	assert.Equal(t, int64(100), doc.Series[0].Files[0].FileSize)
}

func TestBuild_Idempotent(t *testing.T) {
	ctx := context.Background()
	extract := newFakeExtractor()
	extract.headers["x"] = dicom.Header{InstanceNumber: 3, SliceLocation: 1.5, SeriesDescription: "AX"}
	builder := NewBuilder(extract, mapReader(map[string][]byte{
		"img2.dcm": []byte("x"),
		"img1.dcm": []byte("x"),
	}), "dicoms")

	series := map[string][]ObjectRef{"1": refs("img2.dcm", "img1.dcm")}
	first, err := builder.Build(ctx, "101", series)
	require.NoError(t, err)
	second, err := builder.Build(ctx, "101", series)
	require.NoError(t, err)

	assert.Equal(t, first.Series, second.Series)
	assert.Equal(t, first.TotalSeries, second.TotalSeries)
	assert.Equal(t, first.TotalSlices, second.TotalSlices)
}

func TestBuild_EmptySeriesMap(t *testing.T) {
	builder := NewBuilder(newFakeExtractor(), mapReader(nil), "dicoms")
	_, err := builder.Build(context.Background(), "101", map[string][]ObjectRef{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "101")
}

func TestLessByDigitKey(t *testing.T) {
	cases := []struct {
		a, b string
		less bool
	}{
		{"img1.dcm", "img3.dcm", true},
		{"img3.dcm", "img10.dcm", true},
		{"img10.dcm", "img3.dcm", false},
		{"scout.dcm", "img1.dcm", true},   // no digits sorts as zero
		{"a2b0.dcm", "img21.dcm", true},   // digit runs concatenate: 20 vs 21
		{"img002.dcm", "img10.dcm", true}, // leading zeros stripped
	}
	for _, c := range cases {
		assert.Equal(t, c.less, lessByDigitKey(c.a, c.b), "%s < %s", c.a, c.b)
	}
}
