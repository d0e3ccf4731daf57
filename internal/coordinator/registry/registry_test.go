package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/metadata"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *metadata.BoltStore) {
	t.Helper()
	store, err := metadata.Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg, err := New(context.Background(), store)
	require.NoError(t, err)
	return reg, store
}

func TestAddAndSnapshot(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "b", Host: "h", Port: 2}))
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h", Port: 1}))

	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "b", snapshot[1].ID)
	// Status defaults to active when unset.
	assert.Equal(t, domain.NodeActive, snapshot[0].Status)
	assert.Equal(t, 2, reg.ActiveCount())
}

func TestAdd_ReAddPreservesLoad(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h", Port: 1}))

	reg.AdjustLoad(context.Background(), "a", 5)

	// A node re-announcing itself must not reset placement accounting.
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h2", Port: 7}))
	node, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(5), node.Load)
	assert.Equal(t, "h2", node.Host)
	assert.Equal(t, 7, node.Port)
}

func TestHydrateFromStore(t *testing.T) {
	reg, store := newTestRegistry(t)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h", Port: 1}))
	require.NoError(t, reg.SetStatus(context.Background(), "a", domain.NodeMaintenance))

	// A second registry over the same store sees the persisted state.
	reborn, err := New(context.Background(), store)
	require.NoError(t, err)
	node, ok := reborn.Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.NodeMaintenance, node.Status)
	assert.Equal(t, 0, reborn.ActiveCount())
}

func TestSetStatusAndCompareAndSet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h", Port: 1}))

	assert.ErrorIs(t, reg.SetStatus(context.Background(), "nope", domain.NodeInactive), domain.ErrNodeNotFound)

	swapped, err := reg.CompareAndSetStatus(context.Background(), "a", domain.NodeActive, domain.NodeInactive)
	require.NoError(t, err)
	assert.True(t, swapped)

	// Node is inactive now; the active->inactive transition no longer applies.
	swapped, err = reg.CompareAndSetStatus(context.Background(), "a", domain.NodeActive, domain.NodeInactive)
	require.NoError(t, err)
	assert.False(t, swapped)

	// An operator override is not silently undone by a stale leave event.
	require.NoError(t, reg.SetStatus(context.Background(), "a", domain.NodeMaintenance))
	swapped, err = reg.CompareAndSetStatus(context.Background(), "a", domain.NodeActive, domain.NodeInactive)
	require.NoError(t, err)
	assert.False(t, swapped)
	node, _ := reg.Get("a")
	assert.Equal(t, domain.NodeMaintenance, node.Status)
}

func TestAdjustLoad_FloorsAtZero(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h", Port: 1}))

	reg.AdjustLoad(context.Background(), "a", 2)
	reg.AdjustLoad(context.Background(), "a", -5)

	node, _ := reg.Get("a")
	assert.Zero(t, node.Load)
}

func TestRemove(t *testing.T) {
	reg, store := newTestRegistry(t)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "a", Host: "h", Port: 1}))

	assert.ErrorIs(t, reg.Remove(context.Background(), "nope"), domain.ErrNodeNotFound)

	// Holding a viable instance blocks removal.
	inst := domain.ChunkInstance{ID: "i1", ChunkID: "c1", NodeID: "a", Status: domain.ChunkUploaded}
	require.NoError(t, store.CreateInstance(context.Background(), &inst))
	assert.ErrorIs(t, reg.Remove(context.Background(), "a"), domain.ErrNodeHoldsInstances)

	// Once the instance is written off, removal proceeds.
	inst.Status = domain.ChunkFailed
	require.NoError(t, store.UpdateInstance(context.Background(), &inst))
	require.NoError(t, reg.Remove(context.Background(), "a"))

	_, ok := reg.Get("a")
	assert.False(t, ok)
}
