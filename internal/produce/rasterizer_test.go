package produce

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		want        Format
	}{
		{"image/png", "scan.png", FormatImage},
		{"image/tiff; charset=binary", "scan.tif", FormatImage},
		{"application/pdf", "contract.pdf", FormatPDF},
		{"application/octet-stream", "contract.PDF", FormatPDF},
		{"application/octet-stream", "photo.JPG", FormatImage},
		{"application/vnd.ms-excel", "model.xlsx", FormatPlaceholder},
		{"", "", FormatPlaceholder},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.contentType, tt.filename),
			"contentType=%q filename=%q", tt.contentType, tt.filename)
	}
}

func TestRasterizeImagePassthrough(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	result := NewRasterizer().Rasterize(buf.Bytes(), FormatImage, "scan.png")

	require.False(t, result.IsPlaceholder)
	require.Len(t, result.Pages, 1)
	require.Equal(t, 64, result.Pages[0].Bounds().Dx())
	require.Equal(t, 48, result.Pages[0].Bounds().Dy())
}

func TestRasterizeCorruptImageFallsBackToPlaceholder(t *testing.T) {
	result := NewRasterizer().Rasterize([]byte("not an image"), FormatImage, "scan.png")

	require.True(t, result.IsPlaceholder)
	require.Len(t, result.Pages, 1)
	require.Equal(t, placeholderWidth, result.Pages[0].Bounds().Dx())
	require.Equal(t, placeholderHeight, result.Pages[0].Bounds().Dy())
}

func TestRasterizeCorruptPDFFallsBackToPlaceholder(t *testing.T) {
	result := NewRasterizer().Rasterize([]byte("%PDF-garbage"), FormatPDF, "contract.pdf")

	require.True(t, result.IsPlaceholder)
	require.Len(t, result.Pages, 1)
}

func TestRasterizePlaceholderFormat(t *testing.T) {
	result := NewRasterizer().Rasterize([]byte("spreadsheet bytes"), FormatPlaceholder, "model.xlsx")

	require.True(t, result.IsPlaceholder)
	require.Len(t, result.Pages, 1)
}

func TestPlaceholderPageDimensions(t *testing.T) {
	page := PlaceholderPage("model.xlsx")

	require.Equal(t, placeholderWidth, page.Bounds().Dx())
	require.Equal(t, placeholderHeight, page.Bounds().Dy())
}
