package port

import (
	"context"
	"io"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
)

// StoreRequest carries the declared properties of an upload.
type StoreRequest struct {
	Name              string
	Size              int64
	ChunkSize         int64
	ReplicationFactor int
	Owner             string
}

// RepairScope selects what a verify or repair pass covers.
type RepairScope struct {
	// FileID limits the pass to one file; empty means the whole system.
	FileID string
}

// CoreService is the engine surface consumed by the API layer.
type CoreService interface {
	// Store splits the stream into chunks, places primary and replica
	// instances on distinct nodes and registers the file atomically.
	Store(ctx context.Context, req StoreRequest, r io.Reader) (*domain.File, error)

	// Retrieve reconstructs the file in chunk order, failing over across
	// instances per chunk, and writes the verified bytes to w.
	Retrieve(ctx context.Context, fileID string, w io.Writer) (*domain.File, error)

	// Verify checksum-validates stored instances and reports aggregate
	// health.
	Verify(ctx context.Context, scope RepairScope) (*domain.HealthReport, error)

	// Repair drives replica counts up to target for every chunk in scope.
	Repair(ctx context.Context, scope RepairScope, target int) (*domain.RepairResult, error)

	FileHealth(ctx context.Context, fileID string) (*domain.FileHealth, error)
	NodeHealth(ctx context.Context, nodeID string) (*domain.NodeHealth, error)

	AddNode(ctx context.Context, node domain.Node) error
	RemoveNode(ctx context.Context, nodeID string) error
	SetNodeStatus(ctx context.Context, nodeID string, status domain.NodeStatus) error
	ListNodes(ctx context.Context) ([]domain.Node, error)
}
