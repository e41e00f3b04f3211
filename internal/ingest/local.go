package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LocalExtractor is the in-process fallback backend: plain text passthrough,
// PDF properties via pdfcpu and image dimension probing. It never performs
// OCR.
type LocalExtractor struct{}

// NewLocalExtractor constructs the fallback extractor.
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract dispatches on the declared content type.
func (l *LocalExtractor) Extract(ctx context.Context, data []byte, contentType, filename string) (*ExtractResult, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))

	switch {
	case strings.HasPrefix(ct, "text/"):
		return &ExtractResult{
			Text:     strings.TrimSpace(string(data)),
			Metadata: map[string]string{"extractor": "local"},
		}, nil
	case ct == "application/pdf":
		return l.extractPDF(data)
	case strings.HasPrefix(ct, "image/"):
		return l.extractImage(data)
	default:
		return &ExtractResult{Metadata: map[string]string{"extractor": "local"}}, nil
	}
}

func (l *LocalExtractor) extractPDF(data []byte) (*ExtractResult, error) {
	tmp, err := os.CreateTemp("", "extract-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp pdf: %w", err)
	}

	pageCount, err := api.PageCountFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("pdf page count: %w", err)
	}

	return &ExtractResult{
		Metadata: map[string]string{
			"extractor": "local",
			"pageCount": strconv.Itoa(pageCount),
		},
	}, nil
}

func (l *LocalExtractor) extractImage(data []byte) (*ExtractResult, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("probe image: %w", err)
	}
	return &ExtractResult{
		Metadata: map[string]string{
			"extractor":   "local",
			"imageFormat": format,
			"imageWidth":  strconv.Itoa(cfg.Width),
			"imageHeight": strconv.Itoa(cfg.Height),
		},
	}, nil
}
