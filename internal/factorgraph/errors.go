package factorgraph

import "errors"

var (
	// ErrInvalidCardinality is returned when a variable is created with fewer than one state.
	ErrInvalidCardinality = errors.New("variable must have at least one state")
	// ErrInvalidFactor is returned when a factor's variables, configurations and
	// log-potentials are inconsistent with each other.
	ErrInvalidFactor = errors.New("invalid factor")
	// ErrDuplicateVariable is returned when a variable is added to a graph twice.
	ErrDuplicateVariable = errors.New("duplicate variable")
	// ErrUnknownVariable is returned when a factor references a variable that is
	// not part of the graph.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrEvidence is returned when an evidence vector does not match the graph.
	ErrEvidence = errors.New("invalid evidence")
	// ErrInvalidSettings is returned when solver settings are out of range.
	ErrInvalidSettings = errors.New("invalid solver settings")
)
