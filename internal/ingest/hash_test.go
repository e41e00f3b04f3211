package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeFingerprintDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")

	first := ComputeFingerprint(data)
	second := ComputeFingerprint(data)

	require.Equal(t, first, second)
	require.Len(t, first.MD5, 32)
	require.Len(t, first.SHA1, 40)
}

func TestComputeFingerprintDistinguishesContent(t *testing.T) {
	a := ComputeFingerprint([]byte("exhibit A"))
	b := ComputeFingerprint([]byte("exhibit B"))

	require.NotEqual(t, a.MD5, b.MD5)
	require.NotEqual(t, a.SHA1, b.SHA1)
}
