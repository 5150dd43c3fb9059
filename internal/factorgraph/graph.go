package factorgraph

import (
	"fmt"
	"math"
)

// Graph aggregates variables and factors into one model. Variables are
// indexed in the order they were added; that index fixes where each
// variable's entries live in every flat vector exchanged with the graph.
type Graph struct {
	vars      []*Variable
	index     map[*Variable]int
	offsets   []int
	numStates int
	factors   []*EnumFactor
}

// New creates a graph over the given variables.
func New(vars ...*Variable) (*Graph, error) {
	g := &Graph{index: make(map[*Variable]int, len(vars))}
	for _, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("%w: nil variable", ErrUnknownVariable)
		}
		if _, dup := g.index[v]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVariable, v)
		}
		g.index[v] = len(g.vars)
		g.offsets = append(g.offsets, g.numStates)
		g.vars = append(g.vars, v)
		g.numStates += v.numStates
	}
	return g, nil
}

// AddFactors attaches factors to the graph. Every variable a factor touches
// must already belong to the graph. Either all factors are added or none.
func (g *Graph) AddFactors(factors ...*EnumFactor) error {
	for i, f := range factors {
		if f == nil {
			return fmt.Errorf("%w: factor %d is nil", ErrInvalidFactor, i)
		}
		for _, v := range f.vars {
			if _, ok := g.index[v]; !ok {
				return fmt.Errorf("%w: factor %d references %s", ErrUnknownVariable, i, v)
			}
		}
	}
	g.factors = append(g.factors, factors...)
	return nil
}

// NumStates returns the total number of states over all variables, which is
// the length of every flat per-state vector.
func (g *Graph) NumStates() int {
	return g.numStates
}

// Evidence is a flat vector of log-space unary potentials, laid out in the
// graph's variable order. A zero vector carries no information.
type Evidence []float64

// NewEvidence validates a pre-flattened evidence vector against g.
func NewEvidence(g *Graph, values []float64) (Evidence, error) {
	if len(values) != g.numStates {
		return nil, fmt.Errorf("%w: got %d values, graph has %d states", ErrEvidence, len(values), g.numStates)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %v", ErrEvidence, i, v)
		}
	}
	return append(Evidence(nil), values...), nil
}

// FlattenEvidence builds an evidence vector by asking for each variable's
// values in index order. A nil result for a variable leaves it at zero. This
// is the only ordering-safe way to build evidence from per-variable data.
func (g *Graph) FlattenEvidence(lookup func(v *Variable) []float64) (Evidence, error) {
	out := make([]float64, g.numStates)
	for i, v := range g.vars {
		values := lookup(v)
		if values == nil {
			continue
		}
		if len(values) != v.numStates {
			return nil, fmt.Errorf("%w: %s got %d values", ErrEvidence, v, len(values))
		}
		copy(out[g.offsets[i]:], values)
	}
	return NewEvidence(g, out)
}
