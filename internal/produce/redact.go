package produce

import (
	"image"
	"image/draw"

	"github.com/litigo/ediscovery-api/internal/models"
)

// NormalizeRedactions returns the redaction set in normalized [0,1]
// coordinates. Redactions are stored normalized by convention, but some
// clients historically wrote pixel-scale values; the set is inspected via
// its first rectangle: all four fields <= 1 means already normalized,
// anything else is treated as pixel coordinates relative to the given image
// dimensions. Known limitation: a genuine normalized rectangle cannot be
// distinguished from a 1×1-pixel one, so the coordinate system should
// eventually become an explicit stored field.
func NormalizeRedactions(redactions []models.Redaction, width, height int) []models.Redaction {
	if len(redactions) == 0 || width <= 0 || height <= 0 {
		return redactions
	}

	first := redactions[0]
	if first.X <= 1 && first.Y <= 1 && first.Width <= 1 && first.Height <= 1 {
		return redactions
	}

	normalized := make([]models.Redaction, len(redactions))
	for i, r := range redactions {
		r.X /= float64(width)
		r.Y /= float64(height)
		r.Width /= float64(width)
		r.Height /= float64(height)
		normalized[i] = r
	}
	return normalized
}

// BurnIn composites an opaque black rectangle for every redaction, scaling
// normalized coordinates against the image's actual pixel dimensions.
// Rectangles are clamped to at least 1×1 px. Burn-in runs before the Bates
// stamp so the stamp is never redacted. The source image passed in is a
// derived raster; original stored bytes are never touched.
func BurnIn(img *image.RGBA, redactions []models.Redaction) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	redactions = NormalizeRedactions(redactions, width, height)

	for _, r := range redactions {
		x0 := int(r.X * float64(width))
		y0 := int(r.Y * float64(height))
		w := int(r.Width * float64(width))
		h := int(r.Height * float64(height))
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		rect := image.Rect(x0, y0, x0+w, y0+h).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		draw.Draw(img, rect, image.Black, image.Point{}, draw.Src)
	}
}
