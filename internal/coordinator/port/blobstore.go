package port

import (
	"context"
	"time"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
)

//go:generate mockgen -destination=../service/mocks/blobstore_mock.go -package=mocks -source=blobstore.go

// BlobStore is the per-node byte capability. Every call carries the
// caller's context; implementations must enforce a per-call timeout and
// surface timeouts and connection errors as domain.ErrNodeUnavailable.
type BlobStore interface {
	Put(ctx context.Context, node *domain.Node, key string, data []byte) error
	Get(ctx context.Context, node *domain.Node, key string) ([]byte, error)
	Delete(ctx context.Context, node *domain.Node, key string) error
}

// AccessTracker records file access events. Calls are fire-and-forget:
// store and retrieve never fail because tracking did.
type AccessTracker interface {
	RecordAccess(ctx context.Context, fileID string, at time.Time)
	AccessStat(ctx context.Context, fileID string) (*domain.AccessStat, error)
}
