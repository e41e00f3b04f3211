package produce

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// RasterResult is one document converted to the canonical page-image
// representation: one RGBA raster per page, or a single placeholder page
// when conversion was impossible.
type RasterResult struct {
	Pages         []*image.RGBA
	IsPlaceholder bool
}

// Rasterizer converts a source document into page images. Image sources
// pass through as a single page; PDFs explode into one image per page by
// lifting the scanned page image out of each page; everything else, and any
// conversion failure, yields a placeholder page so Bates continuity is
// preserved.
type Rasterizer struct{}

// NewRasterizer constructs a rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize never fails: any per-document conversion error degrades to a
// placeholder result.
func (r *Rasterizer) Rasterize(data []byte, format Format, nativeFilename string) *RasterResult {
	switch format {
	case FormatImage:
		if page, err := decodeRGBA(data); err == nil {
			return &RasterResult{Pages: []*image.RGBA{page}}
		}
	case FormatPDF:
		if pages, err := r.rasterizePDF(data); err == nil {
			return &RasterResult{Pages: pages}
		}
	}
	return &RasterResult{
		Pages:         []*image.RGBA{PlaceholderPage(nativeFilename)},
		IsPlaceholder: true,
	}
}

// rasterizePDF extracts the embedded page image from every page. Scanned
// litigation documents carry exactly one full-page image per page; PDFs
// where any page has no extractable image cannot be rasterized here and the
// whole document falls back to a single placeholder page.
func (r *Rasterizer) rasterizePDF(data []byte) ([]*image.RGBA, error) {
	tmpDir, err := os.MkdirTemp("", "raster-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	srcPath := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCountFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("pdf page count: %w", err)
	}
	if pageCount < 1 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages := make([]*image.RGBA, 0, pageCount)
	for p := 1; p <= pageCount; p++ {
		pageDir := filepath.Join(tmpDir, strconv.Itoa(p))
		if err := os.MkdirAll(pageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create page dir: %w", err)
		}
		if err := api.ExtractImagesFile(srcPath, pageDir, []string{strconv.Itoa(p)}, cfg); err != nil {
			return nil, fmt.Errorf("extract page %d image: %w", p, err)
		}
		page, err := largestImageIn(pageDir)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// largestImageIn decodes the biggest extracted file, which for scanned input
// is the full-page image rather than an inline logo or signature.
func largestImageIn(dir string) (*image.RGBA, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read extract dir: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no page image extracted")
	}

	sort.Slice(entries, func(i, j int) bool {
		ii, errI := entries[i].Info()
		ji, errJ := entries[j].Info()
		if errI != nil || errJ != nil {
			return false
		}
		return ii.Size() > ji.Size()
	})

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		return nil, fmt.Errorf("read page image: %w", err)
	}
	return decodeRGBA(data)
}

func decodeRGBA(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	return rgba, nil
}
