package network

import (
	"fmt"
	"sort"

	"github.com/anrusu/fueldist/core/model"
)

// ErrUnknownNode indicates an edge references a node id absent from the
// loaded node set.
var ErrUnknownNode = fmt.Errorf("unknown node reference")

// Model is the immutable transport graph: nodes, directed edges and the
// derived efficiency ranking. Build it once at run start with New.
type Model struct {
	nodes    map[string]model.Node
	outgoing map[string][]model.Edge // ranked by ratio desc, ties by destination id then edge id
	sources  []model.Node            // ascending id
	storages []model.Node            // ascending id
}

// New validates the node and edge sets and builds the graph. Edges referring
// to node ids outside the node set fail construction with ErrUnknownNode.
func New(nodes []model.Node, edges []model.Edge) (*Model, error) {
	m := &Model{
		nodes:    make(map[string]model.Node, len(nodes)),
		outgoing: make(map[string][]model.Edge),
	}
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %s", n.ID)
		}
		m.nodes[n.ID] = n
		switch n.Role {
		case model.RoleSource:
			m.sources = append(m.sources, n)
		case model.RoleStorage:
			m.storages = append(m.storages, n)
		}
	}
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, ok := m.nodes[e.From]; !ok {
			return nil, fmt.Errorf("edge %s from %s: %w", e.ID, e.From, ErrUnknownNode)
		}
		if _, ok := m.nodes[e.To]; !ok {
			return nil, fmt.Errorf("edge %s to %s: %w", e.ID, e.To, ErrUnknownNode)
		}
		m.outgoing[e.From] = append(m.outgoing[e.From], e)
	}
	// Fixed iteration order everywhere a "first qualifying" choice is made:
	// nodes ascending by id, edges by ratio descending with deterministic
	// tie-breaks.
	sort.Slice(m.sources, func(i, j int) bool { return m.sources[i].ID < m.sources[j].ID })
	sort.Slice(m.storages, func(i, j int) bool { return m.storages[i].ID < m.storages[j].ID })
	for id, out := range m.outgoing {
		sort.Slice(out, func(i, j int) bool {
			ri, rj := out[i].Ratio(), out[j].Ratio()
			if ri != rj {
				return ri > rj
			}
			if out[i].To != out[j].To {
				return out[i].To < out[j].To
			}
			return out[i].ID < out[j].ID
		})
		m.outgoing[id] = out
	}
	return m, nil
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (model.Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// HasCustomer reports whether the id names a customer node.
func (m *Model) HasCustomer(id string) bool {
	n, ok := m.nodes[id]
	return ok && n.Role == model.RoleCustomer
}

// RankedEdgesFrom returns the edges originating at the node, ordered by ratio
// descending with ties broken by ascending destination id. The returned slice
// is shared; callers must not mutate it.
func (m *Model) RankedEdgesFrom(id string) []model.Edge {
	return m.outgoing[id]
}

// BestReplenishmentEdge returns the highest-ratio outgoing edge whose
// destination is a storage node. Zero-ratio edges never qualify.
func (m *Model) BestReplenishmentEdge(id string) (model.Edge, bool) {
	for _, e := range m.outgoing[id] {
		if e.Ratio() <= 0 {
			break // ranked order: everything after is zero too
		}
		if n, ok := m.nodes[e.To]; ok && n.Role == model.RoleStorage {
			return e, true
		}
	}
	return model.Edge{}, false
}

// EdgeTo returns the edge connecting two specific nodes, used for direct
// matching. With parallel edges the ranked order decides: highest ratio wins.
func (m *Model) EdgeTo(from, to string) (model.Edge, bool) {
	for _, e := range m.outgoing[from] {
		if e.To == to {
			return e, true
		}
	}
	return model.Edge{}, false
}

// Sources returns the source nodes in ascending id order.
func (m *Model) Sources() []model.Node { return m.sources }

// Storages returns the storage nodes in ascending id order.
func (m *Model) Storages() []model.Node { return m.storages }

// NodeCount returns the number of nodes in the graph.
func (m *Model) NodeCount() int { return len(m.nodes) }
