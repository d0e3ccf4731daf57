package domain

import "time"

// HealthState classifies nodes, files and the system as a whole. These
// are derived on demand, never stored.
type HealthState string

const (
	HealthHealthy  HealthState = "healthy"
	HealthWarning  HealthState = "warning"
	HealthCritical HealthState = "critical"
	HealthOffline  HealthState = "offline"
)

// HealthReport aggregates one verification sweep.
type HealthReport struct {
	GeneratedAt time.Time `json:"generated_at"`

	ChunksTotal    int `json:"chunks_total"`
	InstancesTotal int `json:"instances_total"`
	Healthy        int `json:"healthy"`
	Corrupt        int `json:"corrupt"`
	Failed         int `json:"failed"`
	Missing        int `json:"missing"`

	Status HealthState `json:"status"`
}

// HealthPercentage is the share of instances that verified healthy.
func (r *HealthReport) HealthPercentage() float64 {
	if r.InstancesTotal == 0 {
		return 100
	}
	return float64(r.Healthy) / float64(r.InstancesTotal) * 100
}

// NodeHealth is the derived classification for one node.
type NodeHealth struct {
	NodeID      string      `json:"node_id"`
	State       HealthState `json:"state"`
	Instances   int         `json:"instances"`
	Corrupt     int         `json:"corrupt"`
	Failed      int         `json:"failed"`
	BadFraction float64     `json:"bad_fraction"`
}

// FileHealth is the derived classification for one file.
type FileHealth struct {
	FileID         string      `json:"file_id"`
	State          HealthState `json:"state"`
	CanRecover     bool        `json:"can_recover"`
	Chunks         int         `json:"chunks"`
	DegradedChunks []int       `json:"degraded_chunks,omitempty"`
	DeadChunks     []int       `json:"dead_chunks,omitempty"`
}

// Deficiency is one chunk a repair pass could not bring up to the target
// replica count. It is reported, not raised, so other chunks proceed.
type Deficiency struct {
	FileID      string `json:"file_id"`
	ChunkNumber int    `json:"chunk_number"`
	Want        int    `json:"want"`
	Have        int    `json:"have"`
	Reason      string `json:"reason"`
}

// RepairResult summarizes one redundancy pass.
type RepairResult struct {
	Scanned           int          `json:"scanned"`
	AlreadySufficient int          `json:"already_sufficient"`
	Resolved          int          `json:"resolved"`
	Unresolved        []Deficiency `json:"unresolved,omitempty"`
}

// Complete reports whether the pass left no deficiencies behind.
func (r *RepairResult) Complete() bool {
	return len(r.Unresolved) == 0
}
