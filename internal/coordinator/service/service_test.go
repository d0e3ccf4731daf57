package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/access"
	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/metadata"
	"github.com/chunkvault/chunkvault/internal/coordinator/config"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/internal/coordinator/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlobStore keeps per-node chunk bytes in memory. Nodes can be taken
// down to simulate timeouts and bytes can be flipped to simulate disk
// corruption.
type fakeBlobStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
	down map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		data: make(map[string]map[string][]byte),
		down: make(map[string]bool),
	}
}

func (f *fakeBlobStore) Put(ctx context.Context, node *domain.Node, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[node.ID] {
		return fmt.Errorf("%w: node %s", domain.ErrNodeUnavailable, node.ID)
	}
	if f.data[node.ID] == nil {
		f.data[node.ID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.data[node.ID][key] = cp
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, node *domain.Node, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[node.ID] {
		return nil, fmt.Errorf("%w: node %s", domain.ErrNodeUnavailable, node.ID)
	}
	data, ok := f.data[node.ID][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s on node %s", domain.ErrChunkNotFound, key, node.ID)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, node *domain.Node, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[node.ID] {
		return fmt.Errorf("%w: node %s", domain.ErrNodeUnavailable, node.ID)
	}
	delete(f.data[node.ID], key)
	return nil
}

func (f *fakeBlobStore) setDown(nodeID string, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down[nodeID] = down
}

func (f *fakeBlobStore) corrupt(nodeID, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[nodeID][key]
	if !ok || len(data) == 0 {
		return false
	}
	data[0] ^= 0xFF
	return true
}

func (f *fakeBlobStore) blobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, byKey := range f.data {
		total += len(byKey)
	}
	return total
}

type stubIDGen struct {
	mu sync.Mutex
	n  int64
}

func (s *stubIDGen) Next() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n, nil
}

func newTestCore(t *testing.T, nodeCount int) (*CoreServiceImpl, *fakeBlobStore, *metadata.BoltStore) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Engine.DefaultChunkSize = 256
	cfg.Engine.MaxFileSize = 1 << 20
	cfg.Engine.DefaultReplication = 2
	cfg.Engine.MinActiveNodes = 2
	cfg.Engine.WorkerCap = 4

	store, err := metadata.Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg, err := registry.New(context.Background(), store)
	require.NoError(t, err)
	for i := 0; i < nodeCount; i++ {
		node := domain.Node{
			ID:   fmt.Sprintf("node-%c", 'a'+i),
			Host: "127.0.0.1",
			Port: 9001 + i,
		}
		require.NoError(t, reg.Add(context.Background(), node))
	}

	blobs := newFakeBlobStore()
	svc := NewCoreService(cfg, store, blobs, access.NopTracker{}, reg, &stubIDGen{})
	return svc, blobs, store
}

// payload returns size deterministic, non-repeating bytes.
func payload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*7 + i/251) % 256)
	}
	return data
}

func storeFile(t *testing.T, svc *CoreServiceImpl, name string, data []byte, replication int) *domain.File {
	t.Helper()
	file, err := svc.Store(context.Background(), port.StoreRequest{
		Name:              name,
		Size:              int64(len(data)),
		ChunkSize:         256,
		ReplicationFactor: replication,
		Owner:             "tester",
	}, bytes.NewReader(data))
	require.NoError(t, err)
	return file
}

func TestStoreAndRetrieve_RoundTrip(t *testing.T) {
	svc, _, store := newTestCore(t, 3)
	data := payload(1280) // five chunks

	file := storeFile(t, svc, "report.pdf", data, 2)
	assert.Equal(t, int64(1280), file.Size)
	assert.NotEmpty(t, file.Digest)

	chunks, err := store.ChunksByFile(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	instanceTotal := 0
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Number)
		instances, err := store.InstancesByChunk(context.Background(), chunk.ID)
		require.NoError(t, err)
		instanceTotal += len(instances)
	}
	assert.Equal(t, 10, instanceTotal)

	var out bytes.Buffer
	got, err := svc.Retrieve(context.Background(), file.ID, &out)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, data, out.Bytes())
}

func TestStore_InsufficientNodesWritesNothing(t *testing.T) {
	svc, blobs, store := newTestCore(t, 1)

	_, err := svc.Store(context.Background(), port.StoreRequest{
		Name: "a.bin", Size: 512, ChunkSize: 256, ReplicationFactor: 2,
	}, bytes.NewReader(payload(512)))
	assert.ErrorIs(t, err, domain.ErrInsufficientNodes)

	files, err := store.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Zero(t, blobs.blobCount())
}

func TestStore_SizeMismatchReleasesBlobs(t *testing.T) {
	svc, blobs, store := newTestCore(t, 3)

	_, err := svc.Store(context.Background(), port.StoreRequest{
		Name: "short.bin", Size: 1000, ChunkSize: 256, ReplicationFactor: 2,
	}, bytes.NewReader(payload(500)))
	assert.ErrorIs(t, err, domain.ErrSizeMismatch)

	files, err := store.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Zero(t, blobs.blobCount())
}

func TestStore_Validation(t *testing.T) {
	svc, _, _ := newTestCore(t, 3)

	tests := []struct {
		name string
		req  port.StoreRequest
	}{
		{name: "EmptyName", req: port.StoreRequest{Size: 100}},
		{name: "ZeroSize", req: port.StoreRequest{Name: "a", Size: 0}},
		{name: "NegativeSize", req: port.StoreRequest{Name: "a", Size: -1}},
		{name: "OverMax", req: port.StoreRequest{Name: "a", Size: 2 << 20}},
		{name: "NegativeChunkSize", req: port.StoreRequest{Name: "a", Size: 100, ChunkSize: -5}},
		{name: "NegativeReplication", req: port.StoreRequest{Name: "a", Size: 100, ReplicationFactor: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Store(context.Background(), tt.req, bytes.NewReader(nil))
			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestStore_InstancesOfChunkLandOnDistinctNodes(t *testing.T) {
	svc, _, store := newTestCore(t, 3)
	file := storeFile(t, svc, "spread.bin", payload(1280), 2)

	chunks, err := store.ChunksByFile(context.Background(), file.ID)
	require.NoError(t, err)
	for _, chunk := range chunks {
		instances, err := store.InstancesByChunk(context.Background(), chunk.ID)
		require.NoError(t, err)
		require.Len(t, instances, 2)

		nodes := map[string]bool{}
		primaries := 0
		for _, inst := range instances {
			assert.False(t, nodes[inst.NodeID], "chunk %d has two instances on %s", chunk.Number, inst.NodeID)
			nodes[inst.NodeID] = true
			if !inst.Replica {
				primaries++
			}
		}
		assert.Equal(t, 1, primaries, "chunk %d must have exactly one primary", chunk.Number)
	}
}

func TestRetrieve_FailsOverWhenNodeIsDown(t *testing.T) {
	svc, blobs, store := newTestCore(t, 3)
	data := payload(1280)
	file := storeFile(t, svc, "report.pdf", data, 2)

	blobs.setDown("node-a", true)

	var out bytes.Buffer
	_, err := svc.Retrieve(context.Background(), file.ID, &out)
	require.NoError(t, err)
	assert.Equal(t, data, out.Bytes())

	// Every instance on the dead node that was attempted is now failed.
	instances, err := store.InstancesByNode(context.Background(), "node-a")
	require.NoError(t, err)
	require.NotEmpty(t, instances)
	attempted := 0
	for _, inst := range instances {
		if inst.Status == domain.ChunkFailed {
			attempted++
		}
	}
	assert.Greater(t, attempted, 0, "at least one primary on node-a should have been attempted and marked failed")
}

func TestRetrieve_CorruptPrimaryFailsOverToReplica(t *testing.T) {
	svc, blobs, store := newTestCore(t, 3)
	data := payload(512)
	file := storeFile(t, svc, "c.bin", data, 2)

	chunks, err := store.ChunksByFile(context.Background(), file.ID)
	require.NoError(t, err)
	instances, err := store.InstancesByChunk(context.Background(), chunks[0].ID)
	require.NoError(t, err)

	var primary domain.ChunkInstance
	for _, inst := range instances {
		if !inst.Replica {
			primary = inst
		}
	}
	require.NotEmpty(t, primary.ID)
	require.True(t, blobs.corrupt(primary.NodeID, primary.Key()))

	var out bytes.Buffer
	_, err = svc.Retrieve(context.Background(), file.ID, &out)
	require.NoError(t, err)
	assert.Equal(t, data, out.Bytes())

	refreshed, err := store.InstancesByChunk(context.Background(), chunks[0].ID)
	require.NoError(t, err)
	for _, inst := range refreshed {
		if inst.ID == primary.ID {
			assert.Equal(t, domain.ChunkCorrupt, inst.Status)
		}
	}
}

func TestRetrieve_UnrecoverableNamesChunks(t *testing.T) {
	svc, blobs, _ := newTestCore(t, 2)
	data := payload(1280)
	file := storeFile(t, svc, "gone.bin", data, 2)

	blobs.setDown("node-a", true)
	blobs.setDown("node-b", true)

	var out bytes.Buffer
	_, err := svc.Retrieve(context.Background(), file.ID, &out)

	var recErr *domain.RecoveryError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, file.ID, recErr.FileID)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, recErr.ChunkNumbers)

	// Nothing was written: failed retrieval leaves the writer untouched.
	assert.Zero(t, out.Len())
}

func TestRetrieve_UnknownFile(t *testing.T) {
	svc, _, _ := newTestCore(t, 2)
	var out bytes.Buffer
	_, err := svc.Retrieve(context.Background(), "999", &out)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestVerify_ReportsCorruption(t *testing.T) {
	svc, blobs, store := newTestCore(t, 3)
	file := storeFile(t, svc, "v.bin", payload(1280), 2)

	chunks, err := store.ChunksByFile(context.Background(), file.ID)
	require.NoError(t, err)
	instances, err := store.InstancesByChunk(context.Background(), chunks[0].ID)
	require.NoError(t, err)
	victim := instances[0]
	require.True(t, blobs.corrupt(victim.NodeID, victim.Key()))

	report, err := svc.Verify(context.Background(), port.RepairScope{FileID: file.ID})
	require.NoError(t, err)

	assert.Equal(t, 5, report.ChunksTotal)
	assert.Equal(t, 10, report.InstancesTotal)
	assert.Equal(t, 9, report.Healthy)
	assert.Equal(t, 1, report.Corrupt)
	assert.Equal(t, domain.HealthWarning, report.Status)

	refreshed, err := store.InstancesByChunk(context.Background(), chunks[0].ID)
	require.NoError(t, err)
	for _, inst := range refreshed {
		if inst.ID == victim.ID {
			assert.Equal(t, domain.ChunkCorrupt, inst.Status)
			assert.False(t, inst.LastVerified.IsZero())
		}
	}
}

func TestRepair_RestoresReplicationAndIsIdempotent(t *testing.T) {
	svc, blobs, store := newTestCore(t, 3)
	file := storeFile(t, svc, "r.bin", payload(1280), 2)

	// Lose a node and let a verification sweep record the damage.
	blobs.setDown("node-a", true)
	_, err := svc.Verify(context.Background(), port.RepairScope{FileID: file.ID})
	require.NoError(t, err)

	result, err := svc.Repair(context.Background(), port.RepairScope{FileID: file.ID}, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Scanned)
	assert.True(t, result.Complete(), "unresolved: %+v", result.Unresolved)
	assert.Equal(t, 5, result.Resolved+result.AlreadySufficient)
	assert.Greater(t, result.Resolved, 0)

	// Every chunk is back at two viable instances on distinct nodes.
	chunks, err := store.ChunksByFile(context.Background(), file.ID)
	require.NoError(t, err)
	for _, chunk := range chunks {
		instances, err := store.InstancesByChunk(context.Background(), chunk.ID)
		require.NoError(t, err)

		viable := 0
		nodes := map[string]bool{}
		for _, inst := range instances {
			assert.False(t, nodes[inst.NodeID], "chunk %d doubled up on node %s", chunk.Number, inst.NodeID)
			nodes[inst.NodeID] = true
			if inst.Status.Viable() {
				viable++
			}
		}
		assert.GreaterOrEqual(t, viable, 2, "chunk %d", chunk.Number)
	}

	// With unchanged topology the second pass copies nothing.
	again, err := svc.Repair(context.Background(), port.RepairScope{FileID: file.ID}, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, again.Scanned)
	assert.Zero(t, again.Resolved)
	assert.Equal(t, 5, again.AlreadySufficient)

	// And the file retrieves cleanly without the lost node.
	var out bytes.Buffer
	_, err = svc.Retrieve(context.Background(), file.ID, &out)
	require.NoError(t, err)
	assert.Equal(t, payload(1280), out.Bytes())
}

func TestRepair_ReportsUnresolvedDeficiency(t *testing.T) {
	svc, blobs, _ := newTestCore(t, 2)
	file := storeFile(t, svc, "stuck.bin", payload(256), 2)

	// One chunk on both nodes; with node-b gone there is no third node to
	// place a replacement on.
	blobs.setDown("node-b", true)
	_, err := svc.Verify(context.Background(), port.RepairScope{FileID: file.ID})
	require.NoError(t, err)

	result, err := svc.Repair(context.Background(), port.RepairScope{FileID: file.ID}, 2)
	require.NoError(t, err)
	assert.False(t, result.Complete())
	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, file.ID, result.Unresolved[0].FileID)
	assert.Equal(t, 0, result.Unresolved[0].ChunkNumber)
	assert.Equal(t, 2, result.Unresolved[0].Want)
	assert.Equal(t, 1, result.Unresolved[0].Have)
}

func TestFileHealth_Classification(t *testing.T) {
	svc, blobs, _ := newTestCore(t, 3)
	file := storeFile(t, svc, "h.bin", payload(512), 2)

	health, err := svc.FileHealth(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthHealthy, health.State)
	assert.True(t, health.CanRecover)
	assert.Equal(t, 2, health.Chunks)

	// Knock out every replica host and re-verify: chunks survive only
	// where a replica still answers, so chunks whose primary was on the
	// dead node degrade.
	blobs.setDown("node-a", true)
	blobs.setDown("node-b", true)
	_, err = svc.Verify(context.Background(), port.RepairScope{FileID: file.ID})
	require.NoError(t, err)

	health, err = svc.FileHealth(context.Background(), file.ID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.HealthHealthy, health.State)
}

func TestNodeHealth_Classification(t *testing.T) {
	svc, blobs, _ := newTestCore(t, 3)
	file := storeFile(t, svc, "n.bin", payload(1280), 2)

	health, err := svc.NodeHealth(context.Background(), "node-a")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthHealthy, health.State)
	assert.Greater(t, health.Instances, 0)

	blobs.setDown("node-a", true)
	_, err = svc.Verify(context.Background(), port.RepairScope{FileID: file.ID})
	require.NoError(t, err)

	health, err = svc.NodeHealth(context.Background(), "node-a")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthCritical, health.State)
	assert.Equal(t, health.Instances, health.Failed)

	// Administrative transitions override the derived classification.
	require.NoError(t, svc.SetNodeStatus(context.Background(), "node-a", domain.NodeMaintenance))
	health, err = svc.NodeHealth(context.Background(), "node-a")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthOffline, health.State)

	_, err = svc.NodeHealth(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestRemoveNode_RefusedWhileHoldingInstances(t *testing.T) {
	svc, _, _ := newTestCore(t, 3)
	storeFile(t, svc, "pin.bin", payload(1280), 2)

	err := svc.RemoveNode(context.Background(), "node-a")
	assert.ErrorIs(t, err, domain.ErrNodeHoldsInstances)
}
