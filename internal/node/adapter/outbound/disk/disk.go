// Package disk stores chunk replicas as individual files under a fanned
// out directory tree. Keys hash to one of 256 buckets so no single
// directory accumulates every replica on the node.
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chunkvault/chunkvault/internal/node/config"
	"github.com/spaolacci/murmur3"
)

var ErrNotFound = errors.New("chunk not found on disk")

const fanout = 256

type Store struct {
	// writeMu serializes temp-file renames per store. Writes of distinct
	// keys could proceed in parallel, but replica traffic per node is low
	// enough that a single lock keeps recovery after crash simple.
	writeMu sync.Mutex

	dirPath string
	fsync   bool
}

func NewStore(cfg config.DiskConfig) (*Store, error) {
	dir := filepath.Clean(cfg.DataDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dirPath: dir, fsync: cfg.FSync}, nil
}

// pathFor maps a key into its fanout bucket. Keys arrive as
// "<chunk_id>/<instance_id>" and must not escape the data dir.
func (s *Store) pathFor(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid chunk key %q", key)
	}
	bucket := murmur3.Sum32([]byte(key)) % fanout
	return filepath.Join(s.dirPath, fmt.Sprintf("%02x", bucket), sanitize(clean)), nil
}

// sanitize flattens the key into a single filename component.
func sanitize(key string) string {
	return strings.ReplaceAll(key, string(os.PathSeparator), "_")
}

// Write persists data under key atomically: the bytes land in a temp
// file first and only a successful rename makes them visible to reads.
func (s *Store) Write(key string, data []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create bucket dir: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	if s.fsync {
		if err := tmp.Sync(); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("failed to sync chunk: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish chunk: %w", err)
	}
	return nil
}

// Read returns the stored bytes for key.
func (s *Store) Read(key string) ([]byte, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read chunk: %w", err)
	}
	return data, nil
}

// Delete removes the stored bytes for key. Deleting an absent key is
// not an error.
func (s *Store) Delete(key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	return nil
}

// Stats walks the tree and reports replica count and total bytes held.
func (s *Store) Stats() (count int64, bytes int64, err error) {
	err = filepath.WalkDir(s.dirPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, os.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		count++
		bytes += info.Size()
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to walk data dir: %w", err)
	}
	return count, bytes, nil
}

// Probe verifies the data dir is writable.
func (s *Store) Probe() error {
	tmp, err := os.CreateTemp(s.dirPath, ".tmp-probe-*")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	return os.Remove(name)
}

var _ io.Closer = (*Store)(nil)

func (s *Store) Close() error { return nil }
