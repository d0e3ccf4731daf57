package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/pkg/digest"
)

// verifierService fetches and checksum-validates chunk instances,
// classifying their health and persisting the classification as a side
// effect.
type verifierService struct {
	core *CoreServiceImpl
}

func newVerifierService(core *CoreServiceImpl) *verifierService {
	return &verifierService{core: core}
}

// fetchVerified fetches the instance's bytes and validates them against
// the chunk digest. The instance status is updated as a side effect:
// failed on timeout/connection error, missing when the node no longer
// has the key, corrupt on digest mismatch, uploaded on success. The
// verified bytes are returned so retrieval reuses a single fetch.
func (v *verifierService) fetchVerified(ctx context.Context, chunk domain.Chunk, inst domain.ChunkInstance) ([]byte, error) {
	node, ok := v.core.registry.Get(inst.NodeID)
	if !ok {
		v.setStatus(ctx, inst, domain.ChunkFailed)
		return nil, fmt.Errorf("%w: node %s is gone", domain.ErrNodeUnavailable, inst.NodeID)
	}

	data, err := v.core.blobs.Get(ctx, &node, inst.Key())
	if err != nil {
		// Timeouts, connection errors and open breakers all classify
		// failed; only a clean "key not there" classifies missing.
		if errors.Is(err, domain.ErrChunkNotFound) {
			v.setStatus(ctx, inst, domain.ChunkMissing)
		} else {
			v.setStatus(ctx, inst, domain.ChunkFailed)
		}
		return nil, err
	}

	if !digest.Verify(data, chunk.Digest) {
		v.setStatus(ctx, inst, domain.ChunkCorrupt)
		return nil, fmt.Errorf("%w: instance %s of chunk %d", domain.ErrIntegrityMismatch, inst.ID, chunk.Number)
	}

	v.setStatus(ctx, inst, domain.ChunkUploaded)
	return data, nil
}

// verifyInstance classifies one instance and returns its new status.
func (v *verifierService) verifyInstance(ctx context.Context, chunk domain.Chunk, inst domain.ChunkInstance) domain.ChunkStatus {
	_, err := v.fetchVerified(ctx, chunk, inst)
	switch {
	case err == nil:
		return domain.ChunkUploaded
	case errors.Is(err, domain.ErrIntegrityMismatch):
		return domain.ChunkCorrupt
	case errors.Is(err, domain.ErrChunkNotFound):
		return domain.ChunkMissing
	default:
		return domain.ChunkFailed
	}
}

// setStatus persists the classification with a fresh verification
// timestamp. Status history is how health derivation and repair source
// selection see the world, so failures to persist are logged loudly.
func (v *verifierService) setStatus(ctx context.Context, inst domain.ChunkInstance, status domain.ChunkStatus) {
	inst.Status = status
	inst.LastVerified = time.Now().UTC()
	if err := v.core.meta.UpdateInstance(context.WithoutCancel(ctx), &inst); err != nil {
		logger.Errorw("Failed to persist instance status",
			"instance_id", inst.ID, "status", string(status), "error", err.Error())
	}
}

// verifyScope sweeps all instances in scope through the worker pool and
// aggregates a health report. Chunks stream out of the metadata store;
// the whole dataset is never held in memory.
func (v *verifierService) verifyScope(ctx context.Context, scope port.RepairScope) (*domain.HealthReport, error) {
	report := &domain.HealthReport{GeneratedAt: time.Now().UTC()}
	var mu sync.Mutex

	pool := v.core.newWorkerPool()
	defer func() {
		pool.Close()
		pool.Wait()
	}()
	var wg sync.WaitGroup

	tally := func(status domain.ChunkStatus) {
		mu.Lock()
		defer mu.Unlock()
		report.InstancesTotal++
		switch status {
		case domain.ChunkUploaded:
			report.Healthy++
		case domain.ChunkCorrupt:
			report.Corrupt++
		case domain.ChunkMissing:
			report.Missing++
		default:
			report.Failed++
		}
	}

	visit := func(chunk domain.Chunk) error {
		mu.Lock()
		report.ChunksTotal++
		mu.Unlock()

		instances, err := v.core.meta.InstancesByChunk(ctx, chunk.ID)
		if err != nil {
			return err
		}
		if len(instances) == 0 {
			mu.Lock()
			report.InstancesTotal++
			report.Missing++
			mu.Unlock()
			return nil
		}

		for _, inst := range instances {
			chunk, inst := chunk, inst
			wg.Add(1)
			job := func() {
				defer wg.Done()
				tally(v.verifyInstance(ctx, chunk, inst))
			}
			if err := pool.Submit(ctx, job); err != nil {
				wg.Done()
				return err
			}
		}
		return nil
	}

	var err error
	if scope.FileID != "" {
		var chunks []domain.Chunk
		chunks, err = v.core.meta.ChunksByFile(ctx, scope.FileID)
		if err == nil && len(chunks) == 0 {
			if _, fileErr := v.core.meta.GetFile(ctx, scope.FileID); fileErr != nil {
				err = fileErr
			}
		}
		for _, c := range chunks {
			if err != nil {
				break
			}
			err = visit(c)
		}
	} else {
		err = v.core.meta.EachChunk(ctx, visit)
	}

	wg.Wait()
	if err != nil {
		return nil, err
	}

	report.Status = reportState(report)
	logger.Infow("Verification sweep completed",
		"chunks", report.ChunksTotal, "instances", report.InstancesTotal,
		"healthy", report.Healthy, "corrupt", report.Corrupt,
		"failed", report.Failed, "missing", report.Missing)
	return report, nil
}

// reportState maps instance health percentages onto an overall state.
func reportState(r *domain.HealthReport) domain.HealthState {
	pct := r.HealthPercentage()
	switch {
	case pct < 80:
		return domain.HealthCritical
	case pct < 95:
		return domain.HealthWarning
	default:
		return domain.HealthHealthy
	}
}
