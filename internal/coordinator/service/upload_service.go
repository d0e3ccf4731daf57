package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/google/uuid"
)

// uploadService orchestrates chunking, placement and atomic metadata
// registration for store operations.
type uploadService struct {
	core *CoreServiceImpl
}

func newUploadService(core *CoreServiceImpl) *uploadService {
	return &uploadService{core: core}
}

// placement is one instance write staged during upload.
type placement struct {
	instance domain.ChunkInstance
	node     domain.Node
}

// store performs the full upload workflow. Nothing is persisted and no
// partial file becomes visible unless every chunk lands: on any failure
// written blobs are released and metadata is untouched.
func (s *uploadService) store(ctx context.Context, req port.StoreRequest, r io.Reader) (*domain.File, error) {
	req = s.applyDefaults(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	// Pre-upload gate: refuse before any byte is written.
	if err := s.core.selector.gate(s.core.registry.Snapshot()); err != nil {
		return nil, err
	}

	fileID, err := s.nextFileID()
	if err != nil {
		return nil, err
	}

	logger.Infow("Store started",
		"file_id", fileID, "name", req.Name, "size", req.Size,
		"chunk_size", req.ChunkSize, "replication", req.ReplicationFactor)

	staged, fileDigest, err := s.placeChunks(ctx, fileID, req, r)
	if err != nil {
		s.release(staged)
		logger.Errorw("Store failed", "file_id", fileID, "error", err.Error())
		return nil, err
	}

	file := &domain.File{
		ID:                fileID,
		Name:              req.Name,
		Size:              req.Size,
		ChunkSize:         req.ChunkSize,
		Digest:            fileDigest,
		ReplicationFactor: req.ReplicationFactor,
		Owner:             req.Owner,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.core.meta.CreateFile(ctx, file, staged.chunks, staged.instances()); err != nil {
		s.release(staged)
		logger.Errorw("Store metadata registration failed", "file_id", fileID, "error", err.Error())
		return nil, fmt.Errorf("failed to register file metadata: %w", err)
	}

	logger.Infow("Store completed", "file_id", fileID, "chunks", len(staged.chunks), "instances", len(staged.placements))
	return file, nil
}

// stagedUpload accumulates records while chunks stream in.
type stagedUpload struct {
	mu         sync.Mutex
	chunks     []domain.Chunk
	placements []placement
}

func (st *stagedUpload) addChunk(c domain.Chunk) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.chunks = append(st.chunks, c)
}

func (st *stagedUpload) addPlacement(p placement) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.placements = append(st.placements, p)
}

func (st *stagedUpload) instances() []domain.ChunkInstance {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]domain.ChunkInstance, 0, len(st.placements))
	for _, p := range st.placements {
		out = append(out, p.instance)
	}
	return out
}

// placeChunks streams the reader chunk by chunk, selecting nodes per
// chunk and fanning the instance writes out through the worker pool.
func (s *uploadService) placeChunks(ctx context.Context, fileID string, req port.StoreRequest, r io.Reader) (*stagedUpload, string, error) {
	pool := s.core.newWorkerPool()
	defer func() {
		pool.Close()
		pool.Wait()
	}()

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	staged := &stagedUpload{}
	var uploadErr error
	var errOnce sync.Once
	reportErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() {
			uploadErr = err
			cancelWorkers()
		})
	}

	chunker := newChunker(req.ChunkSize, s.core.pool)
	fileDigest, err := chunker.split(r, req.Size, func(p chunkPayload) error {
		if ctxErr := workerCtx.Err(); ctxErr != nil {
			return ctxErr
		}

		chunk := domain.Chunk{
			ID:     uuid.NewString(),
			FileID: fileID,
			Number: p.Number,
			Size:   int64(len(p.Data)),
			Digest: p.Digest,
			Status: domain.ChunkUploaded,
		}
		staged.addChunk(chunk)

		// Fresh snapshot per chunk so this pass already sees the load
		// the previous chunks added.
		targets := s.core.selector.pick(s.core.registry.Snapshot(), req.ReplicationFactor, nil)
		if len(targets) == 0 {
			return fmt.Errorf("%w: no active node accepted chunk %d", domain.ErrInsufficientNodes, p.Number)
		}

		// The chunker's buffer is reused; copy once for all writers of
		// this chunk.
		data := make([]byte, len(p.Data))
		copy(data, p.Data)

		for i, target := range targets {
			inst := domain.ChunkInstance{
				ID:      uuid.NewString(),
				ChunkID: chunk.ID,
				NodeID:  target.ID,
				Replica: i > 0,
				Status:  domain.ChunkUploaded,
			}
			staged.addPlacement(placement{instance: inst, node: target})
			s.core.registry.AdjustLoad(workerCtx, target.ID, 1)

			node := target
			job := func() {
				if workerCtx.Err() != nil {
					return
				}
				if err := s.core.blobs.Put(workerCtx, &node, inst.Key(), data); err != nil {
					reportErr(fmt.Errorf("chunk %d write to node %s failed: %w", chunk.Number, node.ID, err))
				}
			}
			if err := pool.Submit(workerCtx, job); err != nil {
				reportErr(err)
				return err
			}
		}
		return nil
	})

	pool.Close()
	pool.Wait()

	// A worker failure cancels the context; report the root cause, not
	// the cancellation it triggered.
	if uploadErr != nil {
		err = uploadErr
	}
	if err != nil {
		return staged, "", err
	}
	return staged, fileDigest, nil
}

// release undoes a failed upload: best-effort blob deletion and load
// rollback. Metadata was never written.
func (s *uploadService) release(staged *stagedUpload) {
	if staged == nil {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	staged.mu.Lock()
	placements := append([]placement(nil), staged.placements...)
	staged.mu.Unlock()

	for _, p := range placements {
		node := p.node
		if err := s.core.blobs.Delete(cleanupCtx, &node, p.instance.Key()); err != nil {
			logger.Warnw("Upload cleanup could not delete blob",
				"node_id", node.ID, "key", p.instance.Key(), "error", err.Error())
		}
		s.core.registry.AdjustLoad(cleanupCtx, node.ID, -1)
	}
}

func (s *uploadService) applyDefaults(req port.StoreRequest) port.StoreRequest {
	if req.ChunkSize == 0 {
		req.ChunkSize = s.core.cfg.Engine.DefaultChunkSize
	}
	if req.ReplicationFactor == 0 {
		req.ReplicationFactor = s.core.cfg.Engine.DefaultReplication
	}
	return req
}

func (s *uploadService) validate(req port.StoreRequest) error {
	if req.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if req.Size <= 0 {
		return &domain.ValidationError{Field: "size", Reason: "must be positive"}
	}
	if max := s.core.cfg.Engine.MaxFileSize; max > 0 && req.Size > max {
		return &domain.ValidationError{Field: "size", Reason: fmt.Sprintf("exceeds maximum of %d bytes", max)}
	}
	if req.ChunkSize <= 0 {
		return &domain.ValidationError{Field: "chunk_size", Reason: "must be positive"}
	}
	if req.ReplicationFactor < 1 {
		return &domain.ValidationError{Field: "replication_factor", Reason: "must be at least 1"}
	}
	return nil
}

func (s *uploadService) nextFileID() (string, error) {
	id, err := s.core.idGen.Next()
	if err != nil {
		return "", fmt.Errorf("failed to allocate file ID: %w", err)
	}
	return fmt.Sprintf("%d", id), nil
}
