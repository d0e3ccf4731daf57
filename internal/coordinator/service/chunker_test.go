package service

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/pkg/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBufPool(chunkSize int64) *sync.Pool {
	return &sync.Pool{
		New: func() interface{} {
			b := make([]byte, chunkSize)
			return &b
		},
	}
}

func TestChunkerSplit(t *testing.T) {
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i % 251)
	}

	c := newChunker(256, testBufPool(256))

	var got []chunkPayload
	fileDigest, err := c.split(bytes.NewReader(data), int64(len(data)), func(p chunkPayload) error {
		// The buffer is reused between yields; copy what we keep.
		cp := make([]byte, len(p.Data))
		copy(cp, p.Data)
		got = append(got, chunkPayload{Number: p.Number, Data: cp, Digest: p.Digest})
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{got[0].Number, got[1].Number, got[2].Number})
	assert.Len(t, got[0].Data, 256)
	assert.Len(t, got[1].Data, 256)
	assert.Len(t, got[2].Data, 88)

	var reassembled []byte
	for _, p := range got {
		assert.Equal(t, digest.Sum(p.Data), p.Digest)
		reassembled = append(reassembled, p.Data...)
	}
	assert.Equal(t, data, reassembled)
	assert.Equal(t, digest.Sum(data), fileDigest)
}

func TestChunkerSplit_ExactMultiple(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 512)

	c := newChunker(256, testBufPool(256))
	count := 0
	_, err := c.split(bytes.NewReader(data), 512, func(p chunkPayload) error {
		count++
		assert.Len(t, p.Data, 256)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChunkerSplit_SizeMismatch(t *testing.T) {
	tests := []struct {
		name     string
		payload  int
		declared int64
	}{
		{name: "StreamShorterThanDeclared", payload: 500, declared: 1000},
		{name: "StreamLongerThanDeclared", payload: 1000, declared: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChunker(256, testBufPool(256))
			_, err := c.split(bytes.NewReader(make([]byte, tt.payload)), tt.declared, func(chunkPayload) error {
				return nil
			})
			assert.ErrorIs(t, err, domain.ErrSizeMismatch)
		})
	}
}

func TestChunkerSplit_YieldErrorStops(t *testing.T) {
	boom := errors.New("boom")
	c := newChunker(256, testBufPool(256))

	calls := 0
	_, err := c.split(bytes.NewReader(make([]byte, 1024)), 1024, func(chunkPayload) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkCountFor(t *testing.T) {
	tests := []struct {
		size      int64
		chunkSize int64
		want      int
	}{
		{size: 0, chunkSize: 256, want: 0},
		{size: 1, chunkSize: 256, want: 1},
		{size: 256, chunkSize: 256, want: 1},
		{size: 257, chunkSize: 256, want: 2},
		{size: 1280, chunkSize: 256, want: 5},
		{size: 100, chunkSize: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chunkCountFor(tt.size, tt.chunkSize), "size=%d chunkSize=%d", tt.size, tt.chunkSize)
	}
}
