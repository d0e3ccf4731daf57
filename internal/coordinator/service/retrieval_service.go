package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/pkg/digest"
)

// retrievalService reconstructs files, failing over across instances per
// chunk. Chunks are fetched concurrently but written strictly in chunk
// number order; within one chunk, candidate attempts are sequential
// because the first success short-circuits the rest.
type retrievalService struct {
	core *CoreServiceImpl
}

func newRetrievalService(core *CoreServiceImpl) *retrievalService {
	return &retrievalService{core: core}
}

// chunkFetch is the outcome of reconstructing one chunk.
type chunkFetch struct {
	number int
	data   []byte
	err    error
}

// retrieve streams the verified file content to w. It either writes the
// complete, digest-checked content or writes nothing and returns an
// error naming the unrecoverable chunk numbers.
func (s *retrievalService) retrieve(ctx context.Context, fileID string, w io.Writer) (*domain.File, error) {
	file, err := s.core.meta.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.core.meta.ChunksByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	logger.Infow("Retrieve started", "file_id", fileID, "chunks", len(chunks))

	results, err := s.fetchAll(ctx, file, chunks)
	if err != nil {
		return nil, err
	}

	var failed []int
	declared := file.ChunkCount()
	present := make(map[int]bool, len(chunks))
	for _, c := range chunks {
		present[c.Number] = true
	}
	for number := 0; number < declared; number++ {
		if !present[number] {
			failed = append(failed, number)
		}
	}
	for _, res := range results {
		if res.err != nil {
			failed = append(failed, res.number)
		}
	}
	if len(failed) > 0 {
		logger.Warnw("Retrieve unrecoverable", "file_id", fileID, "failed_chunks", failed)
		return nil, &domain.RecoveryError{FileID: fileID, ChunkNumbers: failed}
	}

	// The assembled stream must hash to the stored file digest even when
	// every chunk verified individually.
	fileHash := digest.New()
	out := io.MultiWriter(w, fileHash)
	for _, res := range results {
		if _, err := out.Write(res.data); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}
	if got := digest.Hex(fileHash); got != file.Digest {
		logger.Errorw("Retrieve assembled digest diverged",
			"file_id", fileID, "want", file.Digest, "got", got)
		return nil, fmt.Errorf("%w: assembled file digest diverged for %s", domain.ErrIntegrityMismatch, fileID)
	}

	s.core.access.RecordAccess(ctx, fileID, time.Now().UTC())

	logger.Infow("Retrieve completed", "file_id", fileID, "bytes", file.Size)
	return file, nil
}

// fetchAll reconstructs every chunk concurrently, bounded by the worker
// pool, and returns results ordered by chunk number.
func (s *retrievalService) fetchAll(ctx context.Context, file *domain.File, chunks []domain.Chunk) ([]chunkFetch, error) {
	pool := s.core.newWorkerPool()
	defer func() {
		pool.Close()
		pool.Wait()
	}()

	results := make([]chunkFetch, len(chunks))
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		i, chunk := i, chunk
		wg.Add(1)
		job := func() {
			defer wg.Done()
			data, err := s.fetchChunk(ctx, chunk)
			results[i] = chunkFetch{number: chunk.Number, data: data, err: err}
		}
		if err := pool.Submit(ctx, job); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].number < results[b].number })
	return results, nil
}

// fetchChunk tries the chunk's candidate instances in order and returns
// the first digest-verified payload. Instance status updates are a side
// effect of each attempt.
func (s *retrievalService) fetchChunk(ctx context.Context, chunk domain.Chunk) ([]byte, error) {
	candidates, err := s.orderCandidates(ctx, chunk)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("chunk %d has no instances", chunk.Number)
	}

	var lastErr error
	for _, inst := range candidates {
		data, attemptErr := s.core.verifierUseCase.fetchVerified(ctx, chunk, inst)
		if attemptErr == nil {
			return data, nil
		}
		lastErr = attemptErr
		logger.Warnw("Chunk instance failed over",
			"file_id", chunk.FileID, "chunk", chunk.Number,
			"instance_id", inst.ID, "node_id", inst.NodeID, "error", attemptErr.Error())

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("all %d instances of chunk %d exhausted: %w", len(candidates), chunk.Number, lastErr)
}

// orderCandidates builds the failover order: primary first, then
// replicas with healthy last-known status before degraded ones, lower
// node load first.
func (s *retrievalService) orderCandidates(ctx context.Context, chunk domain.Chunk) ([]domain.ChunkInstance, error) {
	instances, err := s.core.meta.InstancesByChunk(ctx, chunk.ID)
	if err != nil {
		return nil, err
	}

	load := func(inst domain.ChunkInstance) int64 {
		if node, ok := s.core.registry.Get(inst.NodeID); ok {
			return node.Load
		}
		return int64(^uint64(0) >> 1)
	}

	sort.SliceStable(instances, func(a, b int) bool {
		ia, ib := instances[a], instances[b]
		if ia.Replica != ib.Replica {
			return !ia.Replica
		}
		if va, vb := ia.Status.Viable(), ib.Status.Viable(); va != vb {
			return va
		}
		return load(ia) < load(ib)
	})
	return instances, nil
}
