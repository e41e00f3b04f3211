package produce

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultPadLength is the zero-padding applied to the Bates sequence
// component, e.g. PROD000001.
const DefaultPadLength = 6

// SanitizePrefix strips everything but alphanumerics from a Bates prefix.
func SanitizePrefix(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatBates renders one Bates number: sanitized prefix plus the
// zero-padded sequence.
func FormatBates(prefix string, sequence, padLength int) string {
	if padLength <= 0 {
		padLength = DefaultPadLength
	}
	return fmt.Sprintf("%s%0*d", SanitizePrefix(prefix), padLength, sequence)
}

// BatesCounter is the single monotonically increasing sequence owned by one
// production job and threaded through its sequential document loop. It is
// deliberately not safe for concurrent use: parallel page numbering would
// need a range pre-allocation protocol instead.
type BatesCounter struct {
	prefix    string
	next      int
	padLength int
}

// NewBatesCounter seeds a counter at the production's start number.
func NewBatesCounter(prefix string, start int) *BatesCounter {
	if start < 1 {
		start = 1
	}
	return &BatesCounter{prefix: SanitizePrefix(prefix), next: start, padLength: DefaultPadLength}
}

// Next consumes and formats the next Bates number.
func (c *BatesCounter) Next() string {
	number := FormatBates(c.prefix, c.next, c.padLength)
	c.next++
	return number
}

// StampBates overlays the formatted control number near the bottom-right
// corner, sized relative to the image height and drawn after redaction
// burn-in so it is always visible on top.
func StampBates(img *image.RGBA, bates string) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, bates).Ceil()
	textHeight := face.Metrics().Height.Ceil()

	label := image.NewRGBA(image.Rect(0, 0, textWidth, textHeight))
	draw.Draw(label, label.Bounds(), image.White, image.Point{}, draw.Src)
	drawer := font.Drawer{
		Dst:  label,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(bates)

	bounds := img.Bounds()
	scale := bounds.Dy() / 600
	if scale < 1 {
		scale = 1
	}
	dstW := textWidth * scale
	dstH := textHeight * scale
	margin := 10 * scale

	x1 := bounds.Max.X - margin
	y1 := bounds.Max.Y - margin
	x0 := x1 - dstW
	y0 := y1 - dstH
	if x0 < bounds.Min.X {
		x0 = bounds.Min.X
	}
	if y0 < bounds.Min.Y {
		y0 = bounds.Min.Y
	}

	draw.NearestNeighbor.Scale(img, image.Rect(x0, y0, x1, y1), label, label.Bounds(), draw.Over, nil)
}
