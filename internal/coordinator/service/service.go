// Package service implements the chunk placement, redundancy,
// integrity-verification and failover-retrieval engine.
package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/chunkvault/chunkvault/internal/coordinator/config"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/internal/coordinator/registry"
	"github.com/chunkvault/chunkvault/pkg/resilience"
)

//go:generate mockgen -destination=mocks/dependencies_mock.go -package=mocks -source=service.go

// IDGenerator defines file ID allocation capability.
type IDGenerator interface {
	Next() (int64, error)
}

// CoreServiceImpl is the facade that wires the engine's use-case
// services.
type CoreServiceImpl struct {
	cfg      *config.Config
	meta     port.MetadataStore
	blobs    port.BlobStore
	access   port.AccessTracker
	registry *registry.Registry
	idGen    IDGenerator
	pool     *sync.Pool

	selector *nodeSelector

	uploadUseCase     *uploadService
	retrievalUseCase  *retrievalService
	redundancyUseCase *redundancyService
	verifierUseCase   *verifierService
	healthUseCase     *healthService
}

// Ensure CoreServiceImpl implements port.CoreService.
var _ port.CoreService = (*CoreServiceImpl)(nil)

// NewCoreService builds the engine facade and all use-case services.
func NewCoreService(
	cfg *config.Config,
	meta port.MetadataStore,
	blobs port.BlobStore,
	access port.AccessTracker,
	reg *registry.Registry,
	idGen IDGenerator,
) *CoreServiceImpl {
	svc := &CoreServiceImpl{
		cfg:      cfg,
		meta:     meta,
		blobs:    blobs,
		access:   access,
		registry: reg,
		idGen:    idGen,
		selector: newNodeSelector(cfg.Engine.MinActiveNodes),
		pool: &sync.Pool{
			New: func() interface{} {
				b := make([]byte, cfg.Engine.DefaultChunkSize)
				return &b
			},
		},
	}

	svc.verifierUseCase = newVerifierService(svc)
	svc.healthUseCase = newHealthService(svc)
	svc.uploadUseCase = newUploadService(svc)
	svc.retrievalUseCase = newRetrievalService(svc)
	svc.redundancyUseCase = newRedundancyService(svc)

	return svc
}

// Store delegates upload orchestration to the upload use-case service.
func (s *CoreServiceImpl) Store(ctx context.Context, req port.StoreRequest, r io.Reader) (*domain.File, error) {
	return s.uploadUseCase.store(ctx, req, r)
}

// Retrieve delegates reconstruction to the retrieval use-case service.
func (s *CoreServiceImpl) Retrieve(ctx context.Context, fileID string, w io.Writer) (*domain.File, error) {
	return s.retrievalUseCase.retrieve(ctx, fileID, w)
}

// Verify delegates to the integrity verifier.
func (s *CoreServiceImpl) Verify(ctx context.Context, scope port.RepairScope) (*domain.HealthReport, error) {
	return s.verifierUseCase.verifyScope(ctx, scope)
}

// Repair delegates to the redundancy manager.
func (s *CoreServiceImpl) Repair(ctx context.Context, scope port.RepairScope, target int) (*domain.RepairResult, error) {
	return s.redundancyUseCase.ensureReplicas(ctx, scope, target)
}

// FileHealth classifies one file from current instance statuses.
func (s *CoreServiceImpl) FileHealth(ctx context.Context, fileID string) (*domain.FileHealth, error) {
	return s.healthUseCase.fileHealth(ctx, fileID)
}

// NodeHealth classifies one node from the instances it holds.
func (s *CoreServiceImpl) NodeHealth(ctx context.Context, nodeID string) (*domain.NodeHealth, error) {
	return s.healthUseCase.nodeHealth(ctx, nodeID)
}

// AddNode registers a storage node with the registry.
func (s *CoreServiceImpl) AddNode(ctx context.Context, node domain.Node) error {
	if node.ID == "" {
		return &domain.ValidationError{Field: "node_id", Reason: "must not be empty"}
	}
	if node.Host == "" {
		return &domain.ValidationError{Field: "host", Reason: "must not be empty"}
	}
	if node.Port <= 0 || node.Port > 65535 {
		return &domain.ValidationError{Field: "port", Reason: "must be in 1..65535"}
	}
	return s.registry.Add(ctx, node)
}

// RemoveNode deletes a node; refused while it still holds instances.
func (s *CoreServiceImpl) RemoveNode(ctx context.Context, nodeID string) error {
	return s.registry.Remove(ctx, nodeID)
}

// SetNodeStatus applies an administrative status transition.
func (s *CoreServiceImpl) SetNodeStatus(ctx context.Context, nodeID string, status domain.NodeStatus) error {
	if !status.Valid() {
		return &domain.ValidationError{Field: "status", Reason: "must be active, inactive or maintenance"}
	}
	return s.registry.SetStatus(ctx, nodeID, status)
}

// ListNodes returns the current registry snapshot.
func (s *CoreServiceImpl) ListNodes(ctx context.Context) ([]domain.Node, error) {
	return s.registry.Snapshot(), nil
}

// callTimeout is the per-node-call bound shared by all use-cases.
func (s *CoreServiceImpl) callTimeout() time.Duration {
	ms := s.cfg.Engine.NodeCallTimeoutMS
	if ms <= 0 {
		ms = 5000
	}
	return time.Duration(ms) * time.Millisecond
}

// newWorkerPool sizes a fan-out pool to min(active nodes, configured cap).
func (s *CoreServiceImpl) newWorkerPool() *resilience.WorkerPool {
	size := resilience.PoolSize(s.registry.ActiveCount(), s.cfg.Engine.WorkerCap)
	return resilience.NewWorkerPool(size, size*2)
}
