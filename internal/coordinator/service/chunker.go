package service

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/pkg/digest"
)

// chunkPayload is one chunk as it comes off the stream: number, bytes and
// the digest of those bytes. The bytes are only valid until the yield
// callback returns; consumers copy or write them out before returning.
type chunkPayload struct {
	Number int
	Data   []byte
	Digest string
}

// chunker splits a byte stream into ordered fixed-size chunks, computing
// a digest per chunk and an incremental digest over the whole stream. A
// chunker instance is consumed once and not restartable.
type chunker struct {
	chunkSize int64
	pool      *sync.Pool
}

func newChunker(chunkSize int64, pool *sync.Pool) *chunker {
	return &chunker{chunkSize: chunkSize, pool: pool}
}

// split reads r to EOF, yielding chunks in order. It returns the
// whole-file digest, or domain.ErrSizeMismatch when the bytes actually
// read differ from declaredSize.
func (c *chunker) split(r io.Reader, declaredSize int64, yield func(chunkPayload) error) (string, error) {
	bufPtr := c.pool.Get().(*[]byte)
	defer c.pool.Put(bufPtr)
	buf := *bufPtr
	if int64(len(buf)) < c.chunkSize {
		buf = make([]byte, c.chunkSize)
	}
	buf = buf[:c.chunkSize]

	fileHash := digest.New()
	var read int64
	number := 0

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			read += int64(n)
			if read > declaredSize {
				return "", fmt.Errorf("%w: declared %d, got at least %d", domain.ErrSizeMismatch, declaredSize, read)
			}

			data := buf[:n]
			fileHash.Write(data)
			payload := chunkPayload{Number: number, Data: data, Digest: digest.Sum(data)}
			if yieldErr := yield(payload); yieldErr != nil {
				return "", yieldErr
			}
			number++
		}

		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read upload stream: %w", err)
		}
	}

	if read != declaredSize {
		return "", fmt.Errorf("%w: declared %d, got %d", domain.ErrSizeMismatch, declaredSize, read)
	}
	return digest.Hex(fileHash), nil
}

// chunkCountFor mirrors the ceil(size/chunkSize) contract the chunker
// delivers.
func chunkCountFor(size, chunkSize int64) int {
	if chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}
