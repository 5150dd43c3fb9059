package dag

import (
	"fmt"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. It reports whether
// the node was added; a node with the same ID that already exists is left
// untouched and false is returned.
func (g *Graph) AddNode(id string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return false
	}

	g.nodes[id] = &node{
		id:  id,
		seq: len(g.order),
	}
	g.order = append(g.order, id)
	return true
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an edge that already exists is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	for _, d := range toNode.deps {
		if d == fromNode {
			return nil
		}
	}

	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)

	return nil
}

// Dependencies returns the IDs of the nodes that the given node depends on,
// in the order the edges were added.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.deps), nil
}

// Dependents returns the IDs of the nodes that depend on the given node, in
// the order the edges were added.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.dependents), nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: in the recursion stack of the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true

		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}

		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	// Walk in insertion order so the reported node is deterministic.
	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}

	return nil
}

// TopologicalOrder returns every node ID such that each node appears after
// all of its dependencies. Ties are broken by insertion order, so the result
// is stable for a given sequence of AddNode/AddEdge calls.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	remaining := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		remaining[id] = len(n.deps)
	}

	out := make([]string, 0, len(g.order))
	emitted := make([]bool, len(g.order))
	for len(out) < len(g.order) {
		progressed := false
		for seq, id := range g.order {
			if emitted[seq] || remaining[id] > 0 {
				continue
			}
			emitted[seq] = true
			out = append(out, id)
			for _, dependent := range g.nodes[id].dependents {
				remaining[dependent.id]--
			}
			progressed = true
			// Restart from the lowest sequence number so that earlier
			// nodes unlocked by this one are emitted first.
			break
		}
		if !progressed {
			return nil, fmt.Errorf("cycle detected: %d node(s) could not be ordered", len(g.order)-len(out))
		}
	}
	return out, nil
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
