package produce

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litigo/ediscovery-api/internal/models"
)

func whitePage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, white)
		}
	}
	return img
}

func TestBurnInNormalizedCoordinates(t *testing.T) {
	img := whitePage(1000, 800)

	BurnIn(img, []models.Redaction{
		{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1},
	})

	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	// Rectangle covers x [100,300) and y [80,160).
	require.Equal(t, black, img.RGBAAt(100, 80))
	require.Equal(t, black, img.RGBAAt(299, 159))
	require.Equal(t, black, img.RGBAAt(200, 120))

	require.Equal(t, white, img.RGBAAt(99, 80))
	require.Equal(t, white, img.RGBAAt(300, 80))
	require.Equal(t, white, img.RGBAAt(100, 79))
	require.Equal(t, white, img.RGBAAt(100, 160))
}

func TestBurnInPixelCoordinates(t *testing.T) {
	img := whitePage(200, 200)

	BurnIn(img, []models.Redaction{
		{X: 50, Y: 60, Width: 30, Height: 20},
	})

	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	require.Equal(t, black, img.RGBAAt(50, 60))
	require.Equal(t, black, img.RGBAAt(79, 79))
	require.Equal(t, white, img.RGBAAt(49, 60))
	require.Equal(t, white, img.RGBAAt(80, 60))
}

func TestBurnInClampsToBounds(t *testing.T) {
	img := whitePage(100, 100)

	BurnIn(img, []models.Redaction{
		{X: 0.9, Y: 0.9, Width: 0.5, Height: 0.5},
	})

	black := color.RGBA{A: 255}
	require.Equal(t, black, img.RGBAAt(99, 99))
	require.Equal(t, black, img.RGBAAt(90, 90))
}

func TestBurnInMinimumOnePixel(t *testing.T) {
	img := whitePage(100, 100)

	BurnIn(img, []models.Redaction{
		{X: 0.5, Y: 0.5, Width: 0, Height: 0},
	})

	require.Equal(t, color.RGBA{A: 255}, img.RGBAAt(50, 50))
}

func TestNormalizeRedactionsDoesNotMutateInput(t *testing.T) {
	redactions := []models.Redaction{
		{X: 100, Y: 200, Width: 50, Height: 25},
	}

	normalized := NormalizeRedactions(redactions, 1000, 1000)

	require.Equal(t, float64(100), redactions[0].X)
	require.InDelta(t, 0.1, normalized[0].X, 1e-9)
	require.InDelta(t, 0.2, normalized[0].Y, 1e-9)
	require.InDelta(t, 0.05, normalized[0].Width, 1e-9)
	require.InDelta(t, 0.025, normalized[0].Height, 1e-9)
}

func TestNormalizeRedactionsLeavesNormalizedSetAlone(t *testing.T) {
	redactions := []models.Redaction{
		{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1},
	}

	normalized := NormalizeRedactions(redactions, 1000, 800)

	require.Equal(t, redactions, normalized)
}
