// Package metadata persists File, Chunk, ChunkInstance and Node records
// in a local BoltDB file. Bolt gives us the transactional create/read/
// update the engine requires: a file and all of its chunk records become
// visible in one commit or not at all.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
)

var (
	bucketFiles          = []byte("files")
	bucketChunks         = []byte("chunks")
	bucketFileChunks     = []byte("file_chunks")
	bucketInstances      = []byte("instances")
	bucketChunkInstances = []byte("chunk_instances")
	bucketNodeInstances  = []byte("node_instances")
	bucketNodes          = []byte("nodes")
)

// BoltStore implements port.MetadataStore on a single bolt database.
type BoltStore struct {
	db *bolt.DB
}

var _ port.MetadataStore = (*BoltStore)(nil)

// Open opens (or creates) the database at path and ensures all buckets
// exist.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketFiles, bucketChunks, bucketFileChunks,
			bucketInstances, bucketChunkInstances, bucketNodeInstances,
			bucketNodes,
		}
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// fileChunkKey orders a file's chunks by number under one prefix so a
// prefix scan yields them already sorted.
func fileChunkKey(fileID string, number int) []byte {
	return []byte(fmt.Sprintf("%s/%010d", fileID, number))
}

func indexKey(parentID, childID string) []byte {
	return []byte(parentID + "/" + childID)
}

// CreateFile registers the file, its chunks and their instances in one
// transaction.
func (s *BoltStore) CreateFile(ctx context.Context, file *domain.File, chunks []domain.Chunk, instances []domain.ChunkInstance) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := putJSON(tx.Bucket(bucketFiles), []byte(file.ID), file); err != nil {
			return err
		}
		for i := range chunks {
			c := &chunks[i]
			if err := putJSON(tx.Bucket(bucketChunks), []byte(c.ID), c); err != nil {
				return err
			}
			if err := tx.Bucket(bucketFileChunks).Put(fileChunkKey(c.FileID, c.Number), []byte(c.ID)); err != nil {
				return err
			}
		}
		for i := range instances {
			if err := putInstance(tx, &instances[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetFile(ctx context.Context, fileID string) (*domain.File, error) {
	var file domain.File
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketFiles), []byte(fileID), &file, domain.ErrFileNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *BoltStore) ListFiles(ctx context.Context) ([]domain.File, error) {
	var files []domain.File
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			var f domain.File
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("corrupt file record %s: %w", k, err)
			}
			files = append(files, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteFile removes the file with all chunk and instance records. The
// caller is responsible for having migrated or released the bytes.
func (s *BoltStore) DeleteFile(ctx context.Context, fileID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketFiles).Get([]byte(fileID)) == nil {
			return domain.ErrFileNotFound
		}

		prefix := []byte(fileID + "/")
		cur := tx.Bucket(bucketFileChunks).Cursor()
		for k, chunkID := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, chunkID = cur.Next() {
			if err := deleteChunk(tx, string(chunkID)); err != nil {
				return err
			}
			if err := cur.Delete(); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketFiles).Delete([]byte(fileID))
	})
}

func (s *BoltStore) ChunksByFile(ctx context.Context, fileID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := []byte(fileID + "/")
		chunkBucket := tx.Bucket(bucketChunks)
		cur := tx.Bucket(bucketFileChunks).Cursor()
		for k, chunkID := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, chunkID = cur.Next() {
			var c domain.Chunk
			if err := getJSON(chunkBucket, chunkID, &c, domain.ErrChunkNotFound); err != nil {
				return err
			}
			chunks = append(chunks, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// EachChunk streams chunk records through fn without materializing the
// full record set. Only the key list is held; each record is re-read in
// its own transaction so fn may write back through the store while the
// sweep runs.
func (s *BoltStore) EachChunk(ctx context.Context, fn func(domain.Chunk) error) error {
	var keys [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(k, _ []byte) error {
			key := make([]byte, len(k))
			copy(key, k)
			keys = append(keys, key)
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		var c domain.Chunk
		found := true
		err := s.db.View(func(tx *bolt.Tx) error {
			data := tx.Bucket(bucketChunks).Get(key)
			if data == nil {
				// Deleted mid-sweep; skip.
				found = false
				return nil
			}
			if err := json.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("corrupt chunk record %s: %w", key, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// CompareAndSetChunkStatus is the single-flight guard for repair: bolt
// serializes write transactions, so only one caller wins the transition.
func (s *BoltStore) CompareAndSetChunkStatus(ctx context.Context, chunkID string, from, to domain.ChunkStatus) (bool, error) {
	swapped := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		var c domain.Chunk
		if err := getJSON(b, []byte(chunkID), &c, domain.ErrChunkNotFound); err != nil {
			return err
		}
		if c.Status != from {
			return nil
		}
		c.Status = to
		swapped = true
		return putJSON(b, []byte(chunkID), &c)
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

func (s *BoltStore) InstancesByChunk(ctx context.Context, chunkID string) ([]domain.ChunkInstance, error) {
	return s.instancesByIndex(bucketChunkInstances, chunkID)
}

func (s *BoltStore) InstancesByNode(ctx context.Context, nodeID string) ([]domain.ChunkInstance, error) {
	return s.instancesByIndex(bucketNodeInstances, nodeID)
}

func (s *BoltStore) instancesByIndex(indexBucket []byte, parentID string) ([]domain.ChunkInstance, error) {
	var instances []domain.ChunkInstance
	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := []byte(parentID + "/")
		instBucket := tx.Bucket(bucketInstances)
		cur := tx.Bucket(indexBucket).Cursor()
		for k, instID := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, instID = cur.Next() {
			var inst domain.ChunkInstance
			if err := getJSON(instBucket, instID, &inst, domain.ErrChunkNotFound); err != nil {
				return err
			}
			instances = append(instances, inst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *BoltStore) CreateInstance(ctx context.Context, instance *domain.ChunkInstance) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putInstance(tx, instance)
	})
}

func (s *BoltStore) UpdateInstance(ctx context.Context, instance *domain.ChunkInstance) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketInstances).Get([]byte(instance.ID)) == nil {
			return domain.ErrChunkNotFound
		}
		return putInstance(tx, instance)
	})
}

func (s *BoltStore) UpsertNode(ctx context.Context, node *domain.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketNodes), []byte(node.ID), node)
	})
}

func (s *BoltStore) GetNode(ctx context.Context, nodeID string) (*domain.Node, error) {
	var node domain.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketNodes), []byte(nodeID), &node, domain.ErrNodeNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *BoltStore) ListNodes(ctx context.Context) ([]domain.Node, error) {
	var nodes []domain.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var n domain.Node
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("corrupt node record %s: %w", k, err)
			}
			nodes = append(nodes, n)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *BoltStore) DeleteNode(ctx context.Context, nodeID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketNodes).Get([]byte(nodeID)) == nil {
			return domain.ErrNodeNotFound
		}
		return tx.Bucket(bucketNodes).Delete([]byte(nodeID))
	})
}

func putInstance(tx *bolt.Tx, inst *domain.ChunkInstance) error {
	if err := putJSON(tx.Bucket(bucketInstances), []byte(inst.ID), inst); err != nil {
		return err
	}
	if err := tx.Bucket(bucketChunkInstances).Put(indexKey(inst.ChunkID, inst.ID), []byte(inst.ID)); err != nil {
		return err
	}
	return tx.Bucket(bucketNodeInstances).Put(indexKey(inst.NodeID, inst.ID), []byte(inst.ID))
}

func deleteChunk(tx *bolt.Tx, chunkID string) error {
	prefix := []byte(chunkID + "/")
	cur := tx.Bucket(bucketChunkInstances).Cursor()
	for k, instID := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, instID = cur.Next() {
		var inst domain.ChunkInstance
		if err := getJSON(tx.Bucket(bucketInstances), instID, &inst, domain.ErrChunkNotFound); err == nil {
			_ = tx.Bucket(bucketNodeInstances).Delete(indexKey(inst.NodeID, inst.ID))
		}
		if err := tx.Bucket(bucketInstances).Delete(instID); err != nil {
			return err
		}
		if err := cur.Delete(); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketChunks).Delete([]byte(chunkID))
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bolt.Bucket, key []byte, v any, notFound error) error {
	data := b.Get(key)
	if data == nil {
		return notFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupt metadata record %s: %w", key, err)
	}
	return nil
}
