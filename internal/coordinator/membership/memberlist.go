// Package membership connects the gossip cluster to the node registry.
// Storage daemons join the cluster advertising their chunk endpoint; the
// adapter translates join/leave events into registry updates so placement
// and retrieval always see the live view.
package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/registry"
	"github.com/hashicorp/memberlist"
)

type GossipAdapter struct {
	list *memberlist.Memberlist
	conf *memberlist.Config
	reg  *registry.Registry

	nodeID string
	meta   NodeMeta
}

// NodeMeta is the payload each member gossips about itself. Storage
// daemons set ChunkPort to the port of their chunk HTTP server; the
// coordinator advertises no endpoint and is never registered.
type NodeMeta struct {
	Host      string `json:"host"`
	ChunkPort int    `json:"chunk_port"`
	Priority  int    `json:"priority"`
}

var _ memberlist.Delegate = (*GossipAdapter)(nil)
var _ memberlist.EventDelegate = (*GossipAdapter)(nil)

func NewGossipAdapter(nodeID string, bindAddr string, bindPort int, meta NodeMeta, reg *registry.Registry) (*GossipAdapter, error) {
	config := memberlist.DefaultLANConfig()
	config.Name = nodeID
	config.BindAddr = bindAddr
	config.BindPort = bindPort
	config.AdvertisePort = bindPort
	config.LogOutput = io.Discard

	adapter := &GossipAdapter{
		conf:   config,
		reg:    reg,
		nodeID: nodeID,
		meta:   meta,
	}

	config.Events = adapter
	config.Delegate = adapter

	list, err := memberlist.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	adapter.list = list

	return adapter, nil
}

// Join joins the cluster using seed nodes.
func (g *GossipAdapter) Join(seeds []string) error {
	if len(seeds) > 0 {
		if _, err := g.list.Join(seeds); err != nil {
			return fmt.Errorf("failed to join cluster: %w", err)
		}
	}
	return nil
}

// Leave gracefully leaves the cluster.
func (g *GossipAdapter) Leave() error {
	if err := g.list.Leave(time.Second * 5); err != nil {
		return err
	}
	return g.list.Shutdown()
}

// NodeMeta returns the local node metadata.
func (g *GossipAdapter) NodeMeta(limit int) []byte {
	data, err := json.Marshal(g.meta)
	if err != nil {
		logger.Warnw("failed to marshal gossip node meta", "error", err.Error())
		return nil
	}
	return data
}

// NotifyMsg, GetBroadcasts, LocalState, MergeRemoteState are not used here
// but required by Delegate.
func (g *GossipAdapter) NotifyMsg([]byte)                           {}
func (g *GossipAdapter) GetBroadcasts(overhead, limit int) [][]byte { return nil }
func (g *GossipAdapter) LocalState(join bool) []byte                { return nil }
func (g *GossipAdapter) MergeRemoteState(buf []byte, join bool)     {}

// NotifyJoin registers a storage daemon when it appears in the cluster.
// Members without a chunk endpoint (the coordinator itself) are skipped.
func (g *GossipAdapter) NotifyJoin(node *memberlist.Node) {
	if g.reg == nil {
		return
	}
	meta, ok := decodeMeta(node.Meta)
	if !ok || meta.ChunkPort <= 0 {
		return
	}

	host := meta.Host
	if host == "" {
		host = node.Addr.String()
	}

	n := domain.Node{
		ID:       node.Name,
		Host:     host,
		Port:     meta.ChunkPort,
		Priority: meta.Priority,
		Status:   domain.NodeActive,
	}
	logger.Infow("Node joined", "id", n.ID, "addr", n.Addr(), "priority", n.Priority)

	if err := g.reg.Add(context.Background(), n); err != nil {
		logger.Warnw("failed to register joined node", "id", n.ID, "error", err.Error())
	}
}

// NotifyLeave flips the departed node to inactive. Nodes parked in
// maintenance by an operator keep that status.
func (g *GossipAdapter) NotifyLeave(node *memberlist.Node) {
	if g.reg == nil {
		return
	}
	logger.Infow("Node left", "id", node.Name)
	if _, err := g.reg.CompareAndSetStatus(context.Background(), node.Name, domain.NodeActive, domain.NodeInactive); err != nil {
		logger.Debugw("leave event not applied", "id", node.Name, "error", err.Error())
	}
}

// NotifyUpdate re-registers to pick up changed metadata.
func (g *GossipAdapter) NotifyUpdate(node *memberlist.Node) {
	g.NotifyJoin(node)
}

func decodeMeta(meta []byte) (NodeMeta, bool) {
	if len(meta) == 0 {
		return NodeMeta{}, false
	}
	var m NodeMeta
	if err := json.Unmarshal(meta, &m); err != nil {
		logger.Warnw("failed to decode node metadata", "error", err.Error())
		return NodeMeta{}, false
	}
	return m, true
}
