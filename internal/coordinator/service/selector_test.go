package service

import (
	"testing"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/stretchr/testify/assert"
)

func testNode(id string, status domain.NodeStatus, load int64, priority int) domain.Node {
	return domain.Node{ID: id, Host: "127.0.0.1", Port: 9000, Status: status, Load: load, Priority: priority}
}

func TestSelectorGate(t *testing.T) {
	s := newNodeSelector(2)

	tests := []struct {
		name    string
		nodes   []domain.Node
		wantErr bool
	}{
		{
			name:    "NoNodes",
			nodes:   nil,
			wantErr: true,
		},
		{
			name: "OneActive",
			nodes: []domain.Node{
				testNode("a", domain.NodeActive, 0, 0),
			},
			wantErr: true,
		},
		{
			name: "InactiveDoesNotCount",
			nodes: []domain.Node{
				testNode("a", domain.NodeActive, 0, 0),
				testNode("b", domain.NodeInactive, 0, 0),
				testNode("c", domain.NodeMaintenance, 0, 0),
			},
			wantErr: true,
		},
		{
			name: "TwoActive",
			nodes: []domain.Node{
				testNode("a", domain.NodeActive, 0, 0),
				testNode("b", domain.NodeActive, 0, 0),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.gate(tt.nodes)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInsufficientNodes)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectorPick_Ranking(t *testing.T) {
	s := newNodeSelector(2)
	snapshot := []domain.Node{
		testNode("c", domain.NodeActive, 5, 0),
		testNode("a", domain.NodeActive, 1, 2),
		testNode("b", domain.NodeActive, 1, 1),
		testNode("d", domain.NodeInactive, 0, 0),
	}

	picked := s.pick(snapshot, 3, nil)
	ids := make([]string, 0, len(picked))
	for _, n := range picked {
		ids = append(ids, n.ID)
	}

	// Load ascending, priority breaks the tie, inactive never selected.
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestSelectorPick_ExcludeAndDistinct(t *testing.T) {
	s := newNodeSelector(2)
	snapshot := []domain.Node{
		testNode("a", domain.NodeActive, 0, 0),
		testNode("b", domain.NodeActive, 0, 0),
		testNode("c", domain.NodeActive, 0, 0),
	}

	picked := s.pick(snapshot, 3, map[string]bool{"b": true})
	seen := map[string]bool{}
	for _, n := range picked {
		assert.False(t, seen[n.ID], "node %s picked twice", n.ID)
		seen[n.ID] = true
	}
	assert.Len(t, picked, 2)
	assert.False(t, seen["b"])
}

func TestSelectorPick_ShortfallIsNotAnError(t *testing.T) {
	s := newNodeSelector(2)
	snapshot := []domain.Node{
		testNode("a", domain.NodeActive, 0, 0),
		testNode("b", domain.NodeActive, 0, 0),
	}

	// Wanting more replicas than nodes returns what exists; the caller
	// records the deficit for repair to resolve later.
	picked := s.pick(snapshot, 5, nil)
	assert.Len(t, picked, 2)
}
