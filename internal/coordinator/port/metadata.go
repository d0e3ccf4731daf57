// Package port defines the boundaries between the placement engine and
// its external collaborators.
package port

import (
	"context"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
)

//go:generate mockgen -destination=../service/mocks/metadata_mock.go -package=mocks -source=metadata.go

// MetadataStore is the transactional persistence capability for File,
// Chunk, ChunkInstance and Node records. Metadata corruption is the one
// condition the engine treats as unrecoverable.
type MetadataStore interface {
	// CreateFile registers a file with all of its chunks and instances in
	// one transaction. Either everything becomes visible or nothing does.
	CreateFile(ctx context.Context, file *domain.File, chunks []domain.Chunk, instances []domain.ChunkInstance) error

	GetFile(ctx context.Context, fileID string) (*domain.File, error)
	ListFiles(ctx context.Context) ([]domain.File, error)
	DeleteFile(ctx context.Context, fileID string) error

	// ChunksByFile returns the file's chunks ordered by chunk number.
	ChunksByFile(ctx context.Context, fileID string) ([]domain.Chunk, error)

	// EachChunk streams every chunk record through fn without loading the
	// whole set; iteration stops on the first error.
	EachChunk(ctx context.Context, fn func(domain.Chunk) error) error

	// CompareAndSetChunkStatus transitions a chunk from one status to
	// another atomically. It reports false when the chunk was not in the
	// expected status, which makes repair single-flight per chunk.
	CompareAndSetChunkStatus(ctx context.Context, chunkID string, from, to domain.ChunkStatus) (bool, error)

	InstancesByChunk(ctx context.Context, chunkID string) ([]domain.ChunkInstance, error)
	InstancesByNode(ctx context.Context, nodeID string) ([]domain.ChunkInstance, error)
	CreateInstance(ctx context.Context, instance *domain.ChunkInstance) error
	UpdateInstance(ctx context.Context, instance *domain.ChunkInstance) error

	UpsertNode(ctx context.Context, node *domain.Node) error
	GetNode(ctx context.Context, nodeID string) (*domain.Node, error)
	ListNodes(ctx context.Context) ([]domain.Node, error)
	DeleteNode(ctx context.Context, nodeID string) error
}
