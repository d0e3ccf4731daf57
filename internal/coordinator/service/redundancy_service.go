package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/pkg/digest"
	"github.com/google/uuid"
)

// redundancyService drives replica creation and repair toward a target
// replication factor. Distinct chunks repair concurrently; the same
// chunk is single-flight, claimed through an atomic uploaded->repairing
// status transition.
type redundancyService struct {
	core *CoreServiceImpl
}

func newRedundancyService(core *CoreServiceImpl) *redundancyService {
	return &redundancyService{core: core}
}

// ensureReplicas scans chunks in scope and creates replicas wherever the
// viable instance count is below target. A placement that exhausts its
// alternates becomes an unresolved deficiency in the result; it never
// aborts the pass. Re-running with unchanged topology performs no copies
// because every recomputed deficit is zero.
func (s *redundancyService) ensureReplicas(ctx context.Context, scope port.RepairScope, target int) (*domain.RepairResult, error) {
	if target <= 0 {
		target = s.core.cfg.Engine.DefaultReplication
	}

	result := &domain.RepairResult{}
	var mu sync.Mutex

	pool := s.core.newWorkerPool()
	defer func() {
		pool.Close()
		pool.Wait()
	}()
	var wg sync.WaitGroup

	visit := func(chunk domain.Chunk) error {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			outcome := s.repairChunk(ctx, chunk, target)

			mu.Lock()
			defer mu.Unlock()
			result.Scanned++
			switch {
			case outcome.skipped || outcome.deficit == 0:
				result.AlreadySufficient++
			case outcome.deficiency != nil:
				result.Unresolved = append(result.Unresolved, *outcome.deficiency)
			default:
				result.Resolved++
			}
		}
		if err := pool.Submit(ctx, job); err != nil {
			wg.Done()
			return err
		}
		return nil
	}

	var err error
	if scope.FileID != "" {
		var chunks []domain.Chunk
		chunks, err = s.core.meta.ChunksByFile(ctx, scope.FileID)
		if err == nil && len(chunks) == 0 {
			if _, fileErr := s.core.meta.GetFile(ctx, scope.FileID); fileErr != nil {
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
		err = s.core.meta.EachChunk(ctx, visit)
	}

	wg.Wait()
	if err != nil {
		return nil, err
	}

	logger.Infow("Repair pass completed",
		"scanned", result.Scanned, "resolved", result.Resolved,
		"already_sufficient", result.AlreadySufficient,
		"unresolved", len(result.Unresolved), "target", target)
	return result, nil
}

// repairOutcome is the per-chunk result of one repair attempt.
type repairOutcome struct {
	skipped    bool
	deficit    int
	deficiency *domain.Deficiency
}

// repairChunk recomputes the chunk's deficit and creates that many new
// replicas on nodes not already holding an instance of it.
func (s *redundancyService) repairChunk(ctx context.Context, chunk domain.Chunk, target int) repairOutcome {
	instances, err := s.core.meta.InstancesByChunk(ctx, chunk.ID)
	if err != nil {
		return repairOutcome{deficit: target, deficiency: &domain.Deficiency{
			FileID: chunk.FileID, ChunkNumber: chunk.Number,
			Want: target, Have: 0, Reason: fmt.Sprintf("failed to list instances: %v", err),
		}}
	}

	viable := 0
	holders := make(map[string]bool, len(instances))
	for _, inst := range instances {
		// Replaced instances stay behind as history, but their node is
		// still occupied: no second instance of this chunk may land there.
		holders[inst.NodeID] = true
		if inst.Status.Viable() {
			viable++
		}
	}

	deficit := target - viable
	if deficit <= 0 {
		return repairOutcome{deficit: 0}
	}

	// Single-flight: exactly one pass claims the chunk. Losing the race
	// means someone else is repairing it right now.
	claimed, err := s.core.meta.CompareAndSetChunkStatus(ctx, chunk.ID, domain.ChunkUploaded, domain.ChunkRepairing)
	if err != nil || !claimed {
		return repairOutcome{skipped: true}
	}
	defer func() {
		if _, err := s.core.meta.CompareAndSetChunkStatus(context.WithoutCancel(ctx), chunk.ID, domain.ChunkRepairing, domain.ChunkUploaded); err != nil {
			logger.Errorw("Failed to release repair claim", "chunk_id", chunk.ID, "error", err.Error())
		}
	}()

	data, sourceErr := s.readRepairSource(ctx, chunk, instances)
	if sourceErr != nil {
		return repairOutcome{deficit: deficit, deficiency: &domain.Deficiency{
			FileID: chunk.FileID, ChunkNumber: chunk.Number,
			Want: target, Have: viable,
			Reason: fmt.Sprintf("no verified source instance: %v", sourceErr),
		}}
	}

	created := s.placeReplicas(ctx, chunk, data, deficit, holders)
	if created < deficit {
		return repairOutcome{deficit: deficit, deficiency: &domain.Deficiency{
			FileID: chunk.FileID, ChunkNumber: chunk.Number,
			Want: target, Have: viable + created,
			Reason: "alternate nodes exhausted",
		}}
	}

	logger.Infow("Chunk repaired",
		"file_id", chunk.FileID, "chunk", chunk.Number, "new_replicas", created)
	return repairOutcome{deficit: deficit}
}

// readRepairSource returns verified chunk bytes, preferring the primary
// instance, then any instance whose verification passes right now.
func (s *redundancyService) readRepairSource(ctx context.Context, chunk domain.Chunk, instances []domain.ChunkInstance) ([]byte, error) {
	ordered := make([]domain.ChunkInstance, 0, len(instances))
	for _, inst := range instances {
		if !inst.Replica && inst.Status.Viable() {
			ordered = append(ordered, inst)
		}
	}
	for _, inst := range instances {
		if inst.Replica && inst.Status.Viable() {
			ordered = append(ordered, inst)
		}
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("chunk %d has no viable instance", chunk.Number)
	}

	var lastErr error
	for _, inst := range ordered {
		data, err := s.core.verifierUseCase.fetchVerified(ctx, chunk, inst)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// placeReplicas writes data to deficit new nodes. Every placement gets a
// bounded number of alternate candidates; each write is read back and
// digest-checked on the destination before the instance is registered.
func (s *redundancyService) placeReplicas(ctx context.Context, chunk domain.Chunk, data []byte, deficit int, holders map[string]bool) int {
	alternates := s.core.cfg.Engine.RepairAlternates
	if alternates <= 0 {
		alternates = 3
	}

	exclude := make(map[string]bool, len(holders))
	for id := range holders {
		exclude[id] = true
	}

	created := 0
	for created < deficit {
		// Ask for one target plus its alternates in ranked order.
		candidates := s.core.selector.pick(s.core.registry.Snapshot(), 1+alternates, exclude)
		if len(candidates) == 0 {
			break
		}

		placed := false
		for _, node := range candidates {
			if err := s.copyTo(ctx, chunk, data, node); err != nil {
				logger.Warnw("Replica placement failed, trying alternate",
					"file_id", chunk.FileID, "chunk", chunk.Number,
					"node_id", node.ID, "error", err.Error())
				exclude[node.ID] = true
				continue
			}
			exclude[node.ID] = true
			created++
			placed = true
			break
		}
		if !placed {
			break
		}
	}
	return created
}

// copyTo writes the bytes to node, reads them back and compares digests
// on the destination, then registers the new replica instance.
func (s *redundancyService) copyTo(ctx context.Context, chunk domain.Chunk, data []byte, node domain.Node) error {
	inst := domain.ChunkInstance{
		ID:           uuid.NewString(),
		ChunkID:      chunk.ID,
		NodeID:       node.ID,
		Replica:      true,
		Status:       domain.ChunkUploaded,
		LastVerified: time.Now().UTC(),
	}

	if err := s.core.blobs.Put(ctx, &node, inst.Key(), data); err != nil {
		return err
	}

	echoed, err := s.core.blobs.Get(ctx, &node, inst.Key())
	if err != nil {
		return fmt.Errorf("destination read-back failed: %w", err)
	}
	if !digest.Verify(echoed, chunk.Digest) {
		_ = s.core.blobs.Delete(ctx, &node, inst.Key())
		return fmt.Errorf("%w: destination copy on node %s", domain.ErrIntegrityMismatch, node.ID)
	}

	if err := s.core.meta.CreateInstance(ctx, &inst); err != nil {
		_ = s.core.blobs.Delete(ctx, &node, inst.Key())
		return fmt.Errorf("failed to register replica instance: %w", err)
	}
	s.core.registry.AdjustLoad(ctx, node.ID, 1)
	return nil
}
