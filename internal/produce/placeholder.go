package produce

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder pages use US letter dimensions at 72 DPI.
const (
	placeholderWidth  = 612
	placeholderHeight = 792
)

// PlaceholderPage generates the stand-in page for documents that cannot be
// rasterized: a fixed-size sheet stating that the document was produced in
// native format, plus the native filename so the page stays traceable. The
// Bates number is applied afterwards by the stamp stage like any other page.
func PlaceholderPage(nativeFilename string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	border := color.RGBA{A: 255}
	for x := 40; x < placeholderWidth-40; x++ {
		img.Set(x, 300, border)
		img.Set(x, 440, border)
	}
	for y := 300; y <= 440; y++ {
		img.Set(40, y, border)
		img.Set(placeholderWidth-41, y, border)
	}

	drawCenteredLine(img, "DOCUMENT PRODUCED IN NATIVE FORMAT", 350)
	drawCenteredLine(img, nativeFilename, 390)

	return img
}

func drawCenteredLine(img *image.RGBA, text string, baseline int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	x := (img.Bounds().Dx() - width) / 2
	if x < 0 {
		x = 0
	}
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(text)
}
