package bbn

import (
	"fmt"
	"math"
	"slices"

	"github.com/mhpishahang/bbn/internal/config"
	"github.com/mhpishahang/bbn/internal/factorgraph"
)

// DefaultEvidenceStrength is the log-space bonus Evidence gives the
// observed state.
const DefaultEvidenceStrength = config.DefaultEvidenceStrength

// NoEvidence is the EvidenceIndex of an unobserved node.
const NoEvidence = -1

// Node is one random variable of a belief network together with its
// conditional probability table. A node is compiled into a factor-graph
// variable and a factor when it is created.
type Node struct {
	name     string
	states   []string
	parents  []*Node
	cpt      CPT
	evidence int

	variable *factorgraph.Variable
	factor   *factorgraph.EnumFactor

	marginal []float64
}

type nodeOptions struct {
	evidence     int
	rowCheck     bool
	rowTolerance float64
}

// NodeOption configures NewNode.
type NodeOption func(*nodeOptions)

// WithEvidence marks the node as observed in the given state.
func WithEvidence(state int) NodeOption {
	return func(o *nodeOptions) {
		o.evidence = state
	}
}

// WithRowCheck makes NewNode reject a CPT whose probabilities, for some
// parent configuration, do not sum to 1 within tolerance.
func WithRowCheck(tolerance float64) NodeOption {
	return func(o *nodeOptions) {
		o.rowCheck = true
		o.rowTolerance = tolerance
	}
}

// NewNode declares a node with the given states, parents and table. The
// table must have one entry per joint configuration of the node's own state
// and its parents' states; see CPT for the layout.
func NewNode(name string, states []string, parents []*Node, cpt CPT, opts ...NodeOption) (*Node, error) {
	o := nodeOptions{evidence: NoEvidence}
	for _, opt := range opts {
		opt(&o)
	}

	if len(states) == 0 {
		return nil, &NodeError{Node: name, Err: ErrEmptyStates}
	}
	shape := []int{len(states)}
	vars := make([]*factorgraph.Variable, 0, len(parents)+1)
	for i, p := range parents {
		if p == nil {
			return nil, nodeErr(name, "%w: parent %d", ErrNilParent, i)
		}
		shape = append(shape, len(p.states))
	}

	bound, err := cpt.bind(shape)
	if err != nil {
		return nil, &NodeError{Node: name, Err: err}
	}
	for i, p := range bound.values {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, nodeErr(name, "%w: entry %d is %v", ErrInvalidProbability, i, p)
		}
	}
	if o.rowCheck {
		if err := checkRows(bound, o.rowTolerance); err != nil {
			return nil, &NodeError{Node: name, Err: err}
		}
	}
	if o.evidence != NoEvidence && (o.evidence < 0 || o.evidence >= len(states)) {
		return nil, nodeErr(name, "%w: %d not in [0, %d)", ErrEvidenceIndex, o.evidence, len(states))
	}

	v, err := factorgraph.NewVariable(len(states))
	if err != nil {
		return nil, &NodeError{Node: name, Err: err}
	}
	vars = append(vars, v)
	for _, p := range parents {
		vars = append(vars, p.variable)
	}
	logs := make([]float64, len(bound.values))
	for i, p := range bound.values {
		logs[i] = logProb(p)
	}
	factor, err := factorgraph.NewEnumFactor(vars, factorgraph.Configurations(shape...), logs)
	if err != nil {
		return nil, &NodeError{Node: name, Err: err}
	}

	return &Node{
		name:     name,
		states:   slices.Clone(states),
		parents:  slices.Clone(parents),
		cpt:      bound,
		evidence: o.evidence,
		variable: v,
		factor:   factor,
	}, nil
}

// checkRows verifies that P(. | parents = j) sums to 1 for every j.
func checkRows(c CPT, tol float64) error {
	own := c.shape[0]
	configs := len(c.values) / own
	for j := 0; j < configs; j++ {
		var sum float64
		for s := 0; s < own; s++ {
			sum += c.values[s*configs+j]
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: parent configuration %d sums to %v", ErrRowSum, j, sum)
		}
	}
	return nil
}

func logProb(p float64) float64 {
	if p == 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// String returns the node's name.
func (n *Node) String() string { return n.name }

// States returns a copy of the node's state labels.
func (n *Node) States() []string { return slices.Clone(n.states) }

// Cardinality returns the number of states.
func (n *Node) Cardinality() int { return len(n.states) }

// Parents returns the node's parents in declaration order.
func (n *Node) Parents() []*Node { return slices.Clone(n.parents) }

// CPT returns the node's table in canonical order with its full shape.
func (n *Node) CPT() CPT { return n.cpt }

// Configs returns the joint configurations enumerated by the node's factor.
// Each row is [own, parent_1, ..., parent_k].
func (n *Node) Configs() [][]int { return n.factor.Configs() }

// LogPotentials returns ln P for each row of Configs, with negative infinity
// for impossible configurations.
func (n *Node) LogPotentials() []float64 { return n.factor.LogPotentials() }

// EvidenceIndex returns the observed state, or NoEvidence.
func (n *Node) EvidenceIndex() int { return n.evidence }

// Observed reports whether the node carries evidence.
func (n *Node) Observed() bool { return n.evidence != NoEvidence }

// Evidence returns the node's log-space evidence vector: one entry per state,
// zero except for DefaultEvidenceStrength at the observed state. An
// unobserved node gets the zero vector.
func (n *Node) Evidence() []float64 {
	return n.evidenceVector(DefaultEvidenceStrength)
}

func (n *Node) evidenceVector(strength float64) []float64 {
	ev := make([]float64, len(n.states))
	if n.evidence != NoEvidence {
		ev[n.evidence] = strength
	}
	return ev
}

// Observe sets the node's evidence to state.
func (n *Node) Observe(state int) error {
	if state < 0 || state >= len(n.states) {
		return nodeErr(n.name, "%w: %d not in [0, %d)", ErrEvidenceIndex, state, len(n.states))
	}
	n.evidence = state
	return nil
}

// ObserveState sets the node's evidence by state label.
func (n *Node) ObserveState(label string) error {
	i := slices.Index(n.states, label)
	if i < 0 {
		return nodeErr(n.name, "%w: no state %q", ErrEvidenceIndex, label)
	}
	n.evidence = i
	return nil
}

// ClearEvidence removes any observation.
func (n *Node) ClearEvidence() { n.evidence = NoEvidence }

// Marginal returns a copy of the distribution stored by the last successful
// Run, or nil if the node has not been inferred yet.
func (n *Node) Marginal() []float64 { return slices.Clone(n.marginal) }
