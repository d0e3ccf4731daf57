package service

import (
	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/node/adapter/outbound/disk"
)

// ChunkService is the node-local byte capability: write, read and delete
// replicas by opaque key. Placement, verification and repair decisions
// all live on the coordinator.
type ChunkService struct {
	store  *disk.Store
	nodeID string
}

func NewChunkService(store *disk.Store, nodeID string) *ChunkService {
	return &ChunkService{store: store, nodeID: nodeID}
}

func (s *ChunkService) Write(key string, data []byte) error {
	if err := s.store.Write(key, data); err != nil {
		logger.Errorw("chunk write failed", "node", s.nodeID, "key", key, "error", err.Error())
		return err
	}
	logger.Debugw("chunk written", "node", s.nodeID, "key", key, "bytes", len(data))
	return nil
}

func (s *ChunkService) Read(key string) ([]byte, error) {
	data, err := s.store.Read(key)
	if err != nil {
		if err != disk.ErrNotFound {
			logger.Errorw("chunk read failed", "node", s.nodeID, "key", key, "error", err.Error())
		}
		return nil, err
	}
	return data, nil
}

func (s *ChunkService) Delete(key string) error {
	if err := s.store.Delete(key); err != nil {
		logger.Errorw("chunk delete failed", "node", s.nodeID, "key", key, "error", err.Error())
		return err
	}
	return nil
}

// Health reports whether the disk is usable plus what the node holds.
type Health struct {
	NodeID   string `json:"node_id"`
	Writable bool   `json:"writable"`
	Replicas int64  `json:"replicas"`
	Bytes    int64  `json:"bytes"`
}

func (s *ChunkService) Health() Health {
	h := Health{NodeID: s.nodeID, Writable: true}
	if err := s.store.Probe(); err != nil {
		logger.Warnw("disk probe failed", "node", s.nodeID, "error", err.Error())
		h.Writable = false
	}
	count, bytes, err := s.store.Stats()
	if err != nil {
		logger.Warnw("disk stats failed", "node", s.nodeID, "error", err.Error())
		return h
	}
	h.Replicas = count
	h.Bytes = bytes
	return h
}
