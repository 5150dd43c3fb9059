package bbn

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStates is returned when a node is declared without states.
	ErrEmptyStates = errors.New("node must have at least one state")
	// ErrNilParent is returned when a node lists a nil parent.
	ErrNilParent = errors.New("parent is nil")
	// ErrShapeMismatch is returned when a CPT does not have one entry per
	// joint configuration of the node and its parents.
	ErrShapeMismatch = errors.New("cpt shape does not match node and parent states")
	// ErrInvalidProbability is returned for CPT entries outside [0, 1].
	ErrInvalidProbability = errors.New("probability must be in [0, 1]")
	// ErrRowSum is returned by WithRowCheck when a parent configuration's
	// probabilities do not sum to 1.
	ErrRowSum = errors.New("cpt probabilities do not sum to 1")
	// ErrEvidenceIndex is returned for an evidence index outside the node's states.
	ErrEvidenceIndex = errors.New("evidence index out of range")

	// ErrNilNode is returned when a graph is given a nil node.
	ErrNilNode = errors.New("node is nil")
	// ErrDuplicateNode is returned when a node is added to a graph twice.
	ErrDuplicateNode = errors.New("node added more than once")
	// ErrMissingParent is returned when a node's parent is not part of the graph.
	ErrMissingParent = errors.New("parent is not part of the graph")
	// ErrSharedNode is returned by RunAll when two graphs share a node.
	ErrSharedNode = errors.New("node is shared between graphs")

	// ErrDegenerateMarginal is returned when inference produces a marginal
	// that is not a probability distribution.
	ErrDegenerateMarginal = errors.New("marginal is not a probability distribution")
	// ErrNotConverged is returned when a convergence tolerance is set and
	// the final message residual exceeds it.
	ErrNotConverged = errors.New("belief propagation did not converge")
)

// NodeError ties an error to the node it concerns.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func nodeErr(name string, format string, args ...any) error {
	return &NodeError{Node: name, Err: fmt.Errorf(format, args...)}
}
