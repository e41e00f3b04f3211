package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	result *ExtractResult
	err    error
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte, contentType, filename string) (*ExtractResult, error) {
	s.calls++
	return s.result, s.err
}

func TestFallbackExtractorUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubExtractor{result: &ExtractResult{Text: "primary"}}
	fallback := &stubExtractor{result: &ExtractResult{Text: "fallback"}}

	result, err := NewFallbackExtractor(primary, fallback).Extract(context.Background(), []byte("x"), "text/plain", "a.txt")
	require.NoError(t, err)
	require.Equal(t, "primary", result.Text)
	require.Zero(t, fallback.calls)
}

func TestFallbackExtractorRetriesOnPrimaryError(t *testing.T) {
	primary := &stubExtractor{err: errors.New("server unreachable")}
	fallback := &stubExtractor{result: &ExtractResult{Text: "fallback"}}

	result, err := NewFallbackExtractor(primary, fallback).Extract(context.Background(), []byte("x"), "text/plain", "a.txt")
	require.NoError(t, err)
	require.Equal(t, "fallback", result.Text)
}

func TestFallbackExtractorSurfacesPrimaryErrorWhenBothFail(t *testing.T) {
	primaryErr := errors.New("server unreachable")
	primary := &stubExtractor{err: primaryErr}
	fallback := &stubExtractor{err: errors.New("unsupported format")}

	_, err := NewFallbackExtractor(primary, fallback).Extract(context.Background(), []byte("x"), "application/zip", "a.zip")
	require.ErrorIs(t, err, primaryErr)
}

func TestIsImageLike(t *testing.T) {
	require.True(t, IsImageLike("image/png"))
	require.True(t, IsImageLike("IMAGE/TIFF; charset=binary"))
	require.False(t, IsImageLike("application/pdf"))
	require.False(t, IsImageLike(""))
}
