package ingest

import (
	"context"
	"strings"
)

// ExtractResult carries whatever an extractor backend could pull from a
// document buffer. Either field may be empty.
type ExtractResult struct {
	Metadata map[string]string
	Text     string
}

// Extractor pulls structured metadata and, where possible, body text from a
// document buffer. Implementations: TikaExtractor (remote content-analysis
// server) and LocalExtractor (per-format fallback). The backend is chosen by
// configuration at startup.
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType, filename string) (*ExtractResult, error)
}

// FallbackExtractor tries a primary backend and falls back to a secondary
// when the primary errors. The primary error is surfaced only when both fail.
type FallbackExtractor struct {
	primary  Extractor
	fallback Extractor
}

// NewFallbackExtractor chains two backends.
func NewFallbackExtractor(primary, fallback Extractor) *FallbackExtractor {
	return &FallbackExtractor{primary: primary, fallback: fallback}
}

// Extract delegates to the primary backend, retrying locally on error.
func (f *FallbackExtractor) Extract(ctx context.Context, data []byte, contentType, filename string) (*ExtractResult, error) {
	result, err := f.primary.Extract(ctx, data, contentType, filename)
	if err == nil {
		return result, nil
	}
	if result, ferr := f.fallback.Extract(ctx, data, contentType, filename); ferr == nil {
		return result, nil
	}
	return nil, err
}

// OCREngine runs image-to-text recognition. It is consulted only when no
// extractable text exists and the format is image-like, or when a re-run is
// forced.
type OCREngine interface {
	Recognize(ctx context.Context, data []byte, contentType string) (string, error)
}

// IsImageLike reports whether the declared type is an image format OCR can
// operate on.
func IsImageLike(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return strings.HasPrefix(ct, "image/")
}
