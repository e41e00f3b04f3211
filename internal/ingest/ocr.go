package ingest

import (
	"context"
	"errors"
)

// ErrOCRDisabled is returned by the stub engine; the orchestrator treats it
// as "no engine configured" and lets the document complete without text.
var ErrOCRDisabled = errors.New("ocr is not enabled")

// DisabledOCR is the engine used when no OCR backend is configured.
type DisabledOCR struct{}

// NewDisabledOCR constructs the stub.
func NewDisabledOCR() *DisabledOCR {
	return &DisabledOCR{}
}

// Recognize always reports that OCR is unavailable.
func (d *DisabledOCR) Recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	return "", ErrOCRDisabled
}
