package service

import (
	"context"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
)

// healthService derives node and file health from current instance
// statuses. Nothing here is stored; every call classifies fresh.
type healthService struct {
	core *CoreServiceImpl
}

func newHealthService(core *CoreServiceImpl) *healthService {
	return &healthService{core: core}
}

// nodeHealth classifies a node by the corrupt+failed fraction among the
// instances it holds. Non-active nodes classify offline regardless.
func (s *healthService) nodeHealth(ctx context.Context, nodeID string) (*domain.NodeHealth, error) {
	node, ok := s.core.registry.Get(nodeID)
	if !ok {
		return nil, domain.ErrNodeNotFound
	}

	instances, err := s.core.meta.InstancesByNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	health := &domain.NodeHealth{NodeID: nodeID, Instances: len(instances)}
	for _, inst := range instances {
		switch inst.Status {
		case domain.ChunkCorrupt:
			health.Corrupt++
		case domain.ChunkFailed:
			health.Failed++
		}
	}
	if len(instances) > 0 {
		health.BadFraction = float64(health.Corrupt+health.Failed) / float64(len(instances))
	}

	threshold := s.core.cfg.Engine.NodeCriticalThreshold
	if threshold <= 0 {
		threshold = 0.10
	}

	switch {
	case node.Status != domain.NodeActive:
		health.State = domain.HealthOffline
	case health.BadFraction == 0:
		health.State = domain.HealthHealthy
	case health.BadFraction < threshold:
		health.State = domain.HealthWarning
	default:
		health.State = domain.HealthCritical
	}
	return health, nil
}

// fileHealth classifies a file: healthy when every chunk has a verified
// healthy instance, warning when some chunk survives only on replicas,
// critical when any chunk has no viable instance at all.
func (s *healthService) fileHealth(ctx context.Context, fileID string) (*domain.FileHealth, error) {
	file, err := s.core.meta.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.core.meta.ChunksByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	health := &domain.FileHealth{FileID: fileID, Chunks: file.ChunkCount(), CanRecover: true}

	present := make(map[int]bool, len(chunks))
	for _, chunk := range chunks {
		present[chunk.Number] = true

		instances, err := s.core.meta.InstancesByChunk(ctx, chunk.ID)
		if err != nil {
			return nil, err
		}

		primaryOK := false
		anyViable := false
		for _, inst := range instances {
			if !inst.Status.Viable() {
				continue
			}
			anyViable = true
			if !inst.Replica && inst.Status == domain.ChunkUploaded {
				primaryOK = true
			}
		}

		switch {
		case !anyViable:
			health.DeadChunks = append(health.DeadChunks, chunk.Number)
			health.CanRecover = false
		case !primaryOK:
			health.DegradedChunks = append(health.DegradedChunks, chunk.Number)
		}
	}

	// Declared chunks without records are as dead as exhausted ones.
	for number := 0; number < file.ChunkCount(); number++ {
		if !present[number] {
			health.DeadChunks = append(health.DeadChunks, number)
			health.CanRecover = false
		}
	}

	switch {
	case len(health.DeadChunks) > 0:
		health.State = domain.HealthCritical
	case len(health.DegradedChunks) > 0:
		health.State = domain.HealthWarning
	default:
		health.State = domain.HealthHealthy
	}
	return health, nil
}
