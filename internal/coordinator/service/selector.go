package service

import (
	"fmt"
	"sort"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
)

// nodeSelector ranks active nodes for a chunk's primary and replica
// placements. Selection runs per chunk against a fresh registry snapshot
// so placement spreads with load instead of clustering on one winner set.
type nodeSelector struct {
	minActive int
}

func newNodeSelector(minActive int) *nodeSelector {
	if minActive <= 0 {
		minActive = 2
	}
	return &nodeSelector{minActive: minActive}
}

// gate rejects an operation up front when fewer than the configured
// minimum of active nodes exist. It runs before any chunk is written so
// uploads either fully succeed or are refused before touching a node.
func (s *nodeSelector) gate(snapshot []domain.Node) error {
	active := 0
	for _, n := range snapshot {
		if n.Status == domain.NodeActive {
			active++
		}
	}
	if active < s.minActive {
		return fmt.Errorf("%w: need %d active nodes, have %d", domain.ErrInsufficientNodes, s.minActive, active)
	}
	return nil
}

// pick returns up to want distinct nodes ranked by (load asc, priority
// asc, ID asc), skipping excluded nodes. Exclusion guarantees no two
// instances of one chunk share a node. Fewer than want candidates is not
// an error here; the caller owns the resulting deficit.
func (s *nodeSelector) pick(snapshot []domain.Node, want int, exclude map[string]bool) []domain.Node {
	candidates := make([]domain.Node, 0, len(snapshot))
	for _, n := range snapshot {
		if n.Status != domain.NodeActive || exclude[n.ID] {
			continue
		}
		candidates = append(candidates, n)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Load != b.Load {
			return a.Load < b.Load
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})

	if want < len(candidates) {
		candidates = candidates[:want]
	}
	return candidates
}
