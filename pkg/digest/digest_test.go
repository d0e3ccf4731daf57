package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumMatchesIncremental(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")

	h := New()
	_, err := h.Write(payload[:10])
	require.NoError(t, err)
	_, err = h.Write(payload[10:])
	require.NoError(t, err)

	assert.Equal(t, Sum(payload), Hex(h))
	assert.Len(t, Sum(payload), Size)
}

func TestVerify(t *testing.T) {
	payload := []byte("chunk payload")
	sum := Sum(payload)

	assert.True(t, Verify(payload, sum))
	assert.False(t, Verify([]byte("chunk payloae"), sum))
	assert.False(t, Verify(payload, ""))
	assert.True(t, Verify(nil, Sum(nil)))
}
