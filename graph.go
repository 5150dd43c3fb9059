package bbn

import (
	"fmt"

	"github.com/mhpishahang/bbn/internal/dag"
	"github.com/mhpishahang/bbn/internal/factorgraph"
)

// Graph is a belief network ready for inference. It holds the nodes in the
// order they were given, the parent/child structure, and the compiled
// factor graph.
type Graph struct {
	nodes []*Node
	ids   map[*Node]string
	byID  map[string]*Node
	byVar map[*factorgraph.Variable]*Node

	structure *dag.Graph
	model     *factorgraph.Graph
}

// NewGraph assembles nodes into a network. Every parent of every node must be
// among nodes, no node may appear twice, and the parent links must not form a
// cycle. The order of nodes fixes the order of Result.Marginals.
func NewGraph(nodes ...*Node) (*Graph, error) {
	g := &Graph{
		nodes:     make([]*Node, 0, len(nodes)),
		ids:       make(map[*Node]string, len(nodes)),
		byID:      make(map[string]*Node, len(nodes)),
		byVar:     make(map[*factorgraph.Variable]*Node, len(nodes)),
		structure: dag.New(),
	}

	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: position %d", ErrNilNode, i)
		}
		if _, dup := g.ids[n]; dup {
			return nil, &NodeError{Node: n.name, Err: ErrDuplicateNode}
		}
		// Names need not be unique, so the structural ID carries the position.
		id := fmt.Sprintf("%s#%d", n.name, i)
		g.ids[n] = id
		g.byID[id] = n
		g.byVar[n.variable] = n
		g.nodes = append(g.nodes, n)
		g.structure.AddNode(id)
	}

	for _, n := range g.nodes {
		for _, p := range n.parents {
			pid, ok := g.ids[p]
			if !ok {
				return nil, nodeErr(n.name, "%w: %q", ErrMissingParent, p.name)
			}
			if err := g.structure.AddEdge(pid, g.ids[n]); err != nil {
				return nil, &NodeError{Node: n.name, Err: err}
			}
		}
	}
	if err := g.structure.DetectCycles(); err != nil {
		return nil, err
	}

	vars := make([]*factorgraph.Variable, len(g.nodes))
	factors := make([]*factorgraph.EnumFactor, len(g.nodes))
	for i, n := range g.nodes {
		vars[i] = n.variable
		factors[i] = n.factor
	}
	model, err := factorgraph.New(vars...)
	if err != nil {
		return nil, fmt.Errorf("failed to build factor graph: %w", err)
	}
	if err := model.AddFactors(factors...); err != nil {
		return nil, fmt.Errorf("failed to build factor graph: %w", err)
	}
	g.model = model
	return g, nil
}

// Nodes returns the graph's nodes in construction order.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the first node with the given name.
func (g *Graph) Node(name string) (*Node, bool) {
	for _, n := range g.nodes {
		if n.name == name {
			return n, true
		}
	}
	return nil, false
}

// Parents returns n's parents in declaration order.
func (g *Graph) Parents(n *Node) ([]*Node, error) {
	id, ok := g.ids[n]
	if !ok {
		return nil, fmt.Errorf("node %v is not part of the graph", n)
	}
	ids, err := g.structure.Dependencies(id)
	if err != nil {
		return nil, err
	}
	return g.resolve(ids), nil
}

// Children returns the nodes that list n as a parent, in construction order.
func (g *Graph) Children(n *Node) ([]*Node, error) {
	id, ok := g.ids[n]
	if !ok {
		return nil, fmt.Errorf("node %v is not part of the graph", n)
	}
	ids, err := g.structure.Dependents(id)
	if err != nil {
		return nil, err
	}
	return g.resolve(ids), nil
}

// TopologicalOrder returns the nodes with every parent before its children.
// Ties are broken by construction order.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	ids, err := g.structure.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	return g.resolve(ids), nil
}

func (g *Graph) resolve(ids []string) []*Node {
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.byID[id]
	}
	return out
}
