package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TikaExtractor talks to an Apache Tika content-analysis server: the /tika
// endpoint yields plain text, /meta yields structured metadata. It also
// serves as the OCR engine since Tika delegates image input to its OCR
// backend when one is configured server-side.
type TikaExtractor struct {
	baseURL string
	client  *http.Client
}

// NewTikaExtractor constructs a client for the given server URL.
func NewTikaExtractor(baseURL string, timeout time.Duration) *TikaExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TikaExtractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Extract fetches text and metadata in two calls. A metadata failure does
// not discard successfully extracted text.
func (t *TikaExtractor) Extract(ctx context.Context, data []byte, contentType, filename string) (*ExtractResult, error) {
	text, err := t.put(ctx, "/tika", data, contentType, "text/plain")
	if err != nil {
		return nil, fmt.Errorf("tika text extraction: %w", err)
	}

	result := &ExtractResult{
		Text:     strings.TrimSpace(string(text)),
		Metadata: map[string]string{},
	}

	raw, err := t.put(ctx, "/meta", data, contentType, "application/json")
	if err != nil {
		return result, nil
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return result, nil
	}
	for k, v := range meta {
		result.Metadata[k] = flatten(v)
	}
	return result, nil
}

// Recognize implements OCREngine by routing the image through /tika.
func (t *TikaExtractor) Recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	text, err := t.put(ctx, "/tika", data, contentType, "text/plain")
	if err != nil {
		return "", fmt.Errorf("tika ocr: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

func (t *TikaExtractor) put(ctx context.Context, path string, data []byte, contentType, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", accept)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func flatten(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, flatten(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", val)
	}
}
