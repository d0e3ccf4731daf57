// Package registry is the authoritative view of the storage node set.
// All status and load mutations go through it so selection always reads
// a consistent snapshot.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
)

// Registry keeps the node set in memory and writes every change through
// to the metadata store. The in-memory copy is the one selection reads;
// the store copy survives restarts.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]domain.Node
	meta  port.MetadataStore
}

// New hydrates the registry from persisted node records.
func New(ctx context.Context, meta port.MetadataStore) (*Registry, error) {
	persisted, err := meta.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]domain.Node, len(persisted))
	for _, n := range persisted {
		nodes[n.ID] = n
	}
	return &Registry{nodes: nodes, meta: meta}, nil
}

// Snapshot returns a consistent copy of all nodes sorted by ID. Callers
// may rank and filter it freely without holding any lock.
func (r *Registry) Snapshot() []domain.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount returns the number of nodes currently accepting placements.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.nodes {
		if n.Status == domain.NodeActive {
			count++
		}
	}
	return count
}

// Get returns one node by ID.
func (r *Registry) Get(nodeID string) (domain.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[nodeID]
	return n, ok
}

// Add registers a node. Adding an existing ID updates its endpoint and
// priority but leaves load accounting alone.
func (r *Registry) Add(ctx context.Context, node domain.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nodes[node.ID]; ok {
		node.Load = existing.Load
	}
	if node.Status == "" {
		node.Status = domain.NodeActive
	}
	node.UpdatedAt = time.Now().UTC()

	if err := r.meta.UpsertNode(ctx, &node); err != nil {
		return err
	}
	r.nodes[node.ID] = node
	return nil
}

// Remove deletes a node. It refuses while the node still holds instances;
// migrate (repair with the node inactive) first.
func (r *Registry) Remove(ctx context.Context, nodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[nodeID]; !ok {
		return domain.ErrNodeNotFound
	}

	held, err := r.meta.InstancesByNode(ctx, nodeID)
	if err != nil {
		return err
	}
	for _, inst := range held {
		if inst.Status.Viable() {
			return domain.ErrNodeHoldsInstances
		}
	}

	if err := r.meta.DeleteNode(ctx, nodeID); err != nil {
		return err
	}
	delete(r.nodes, nodeID)
	return nil
}

// SetStatus transitions a node's administrative status atomically.
func (r *Registry) SetStatus(ctx context.Context, nodeID string, status domain.NodeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[nodeID]
	if !ok {
		return domain.ErrNodeNotFound
	}
	if node.Status == status {
		return nil
	}

	node.Status = status
	node.UpdatedAt = time.Now().UTC()
	if err := r.meta.UpsertNode(ctx, &node); err != nil {
		return err
	}
	r.nodes[nodeID] = node

	logger.Infow("Node status changed", "node_id", nodeID, "status", string(status))
	return nil
}

// CompareAndSetStatus transitions only when the node is currently in the
// expected status. It reports whether the swap happened.
func (r *Registry) CompareAndSetStatus(ctx context.Context, nodeID string, from, to domain.NodeStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[nodeID]
	if !ok {
		return false, domain.ErrNodeNotFound
	}
	if node.Status != from {
		return false, nil
	}

	node.Status = to
	node.UpdatedAt = time.Now().UTC()
	if err := r.meta.UpsertNode(ctx, &node); err != nil {
		return false, err
	}
	r.nodes[nodeID] = node
	return true, nil
}

// AdjustLoad moves a node's assigned-instance count by delta. Placement
// calls it as instances are assigned so ranking in the same pass already
// sees the new load.
func (r *Registry) AdjustLoad(ctx context.Context, nodeID string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[nodeID]
	if !ok {
		return
	}
	node.Load += delta
	if node.Load < 0 {
		node.Load = 0
	}
	node.UpdatedAt = time.Now().UTC()

	if err := r.meta.UpsertNode(ctx, &node); err != nil {
		logger.Warnw("Failed to persist node load", "node_id", nodeID, "error", err.Error())
	}
	r.nodes[nodeID] = node
}
