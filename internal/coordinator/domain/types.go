// Package domain holds the records the placement and redundancy engine
// operates on.
package domain

import (
	"net"
	"strconv"
	"time"
)

// ChunkStatus tracks a chunk or chunk-instance through its lifecycle.
type ChunkStatus string

const (
	ChunkPending   ChunkStatus = "pending"
	ChunkUploading ChunkStatus = "uploading"
	ChunkUploaded  ChunkStatus = "uploaded"
	ChunkCorrupt   ChunkStatus = "corrupt"
	ChunkFailed    ChunkStatus = "failed"
	ChunkMissing   ChunkStatus = "missing"

	// ChunkRepairing is a transient marker claimed by exactly one repair
	// pass at a time; it reverts to uploaded when the pass finishes.
	ChunkRepairing ChunkStatus = "repairing"
)

// Viable reports whether an instance in this status may still serve reads
// or act as a repair source.
func (s ChunkStatus) Viable() bool {
	return s != ChunkCorrupt && s != ChunkFailed && s != ChunkMissing
}

// NodeStatus is the administrative state of a storage node.
type NodeStatus string

const (
	NodeActive      NodeStatus = "active"
	NodeInactive    NodeStatus = "inactive"
	NodeMaintenance NodeStatus = "maintenance"
)

func (s NodeStatus) Valid() bool {
	switch s {
	case NodeActive, NodeInactive, NodeMaintenance:
		return true
	}
	return false
}

// File is the metadata record for one stored file. It becomes visible
// only when every declared chunk is durably registered.
type File struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Size              int64     `json:"size"`
	ChunkSize         int64     `json:"chunk_size"`
	Digest            string    `json:"digest"`
	ReplicationFactor int       `json:"replication_factor"`
	Owner             string    `json:"owner"`
	CreatedAt         time.Time `json:"created_at"`
}

// ChunkCount returns the number of chunks the file was declared with.
func (f *File) ChunkCount() int {
	if f.ChunkSize <= 0 {
		return 0
	}
	return int((f.Size + f.ChunkSize - 1) / f.ChunkSize)
}

// Chunk is one fixed-size slice of a file, identified by file + number.
// Numbers are 0-based, dense and contiguous per file.
type Chunk struct {
	ID     string      `json:"id"`
	FileID string      `json:"file_id"`
	Number int         `json:"number"`
	Size   int64       `json:"size"`
	Digest string      `json:"digest"`
	Status ChunkStatus `json:"status"`
}

// ChunkInstance is one physical copy of a chunk on one node. Instances
// are never silently deleted; a failed instance stays as history until a
// repair pass replaces it.
type ChunkInstance struct {
	ID           string      `json:"id"`
	ChunkID      string      `json:"chunk_id"`
	NodeID       string      `json:"node_id"`
	Replica      bool        `json:"replica"`
	Status       ChunkStatus `json:"status"`
	LastVerified time.Time   `json:"last_verified,omitempty"`
}

// Key is the per-node storage key for this instance's bytes.
func (ci *ChunkInstance) Key() string {
	return ci.ChunkID + "/" + ci.ID
}

// Node is a storage node as the registry sees it. Load is the assigned
// instance count and feeds placement ranking.
type Node struct {
	ID        string     `json:"id"`
	Host      string     `json:"host"`
	Port      int        `json:"port"`
	Priority  int        `json:"priority"`
	Status    NodeStatus `json:"status"`
	Load      int64      `json:"load"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Addr returns the host:port the node's byte capability listens on.
func (n *Node) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// AccessStat is a read-only input to caching decisions made outside the
// core.
type AccessStat struct {
	FileID       string    `json:"file_id"`
	Count        int64     `json:"count"`
	LastAccessed time.Time `json:"last_accessed"`
}
