package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInsufficientNodes gates uploads before any byte is written.
	ErrInsufficientNodes = errors.New("insufficient active storage nodes")

	// ErrSizeMismatch is returned when the bytes actually read differ
	// from the declared file size.
	ErrSizeMismatch = errors.New("stream size does not match declared size")

	// ErrIntegrityMismatch is a digest mismatch at chunk or whole-file
	// level.
	ErrIntegrityMismatch = errors.New("digest mismatch")

	// ErrNodeUnavailable covers timeouts and connection failures; both
	// are treated identically for failover.
	ErrNodeUnavailable = errors.New("storage node unavailable")

	ErrFileNotFound  = errors.New("file not found")
	ErrNodeNotFound  = errors.New("node not found")
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrNodeHoldsInstances refuses node removal while instances still
	// live on it and no migration happened.
	ErrNodeHoldsInstances = errors.New("node still holds chunk instances")
)

// ValidationError reports malformed input on the store path.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RecoveryError names every chunk number that had no viable instance
// during retrieval. Reconstruction aborts rather than returning partial
// output.
type RecoveryError struct {
	FileID       string
	ChunkNumbers []int
}

func (e *RecoveryError) Error() string {
	nums := make([]string, 0, len(e.ChunkNumbers))
	sort.Ints(e.ChunkNumbers)
	for _, n := range e.ChunkNumbers {
		nums = append(nums, fmt.Sprintf("%d", n))
	}
	return fmt.Sprintf("file %s unrecoverable: no viable instance for chunk(s) %s",
		e.FileID, strings.Join(nums, ", "))
}
