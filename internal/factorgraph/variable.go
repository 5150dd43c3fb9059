package factorgraph

import (
	"fmt"
	"sync/atomic"
)

var nextVariableID atomic.Uint64

// Variable is a categorical random variable. Variables are compared by
// identity: two variables with the same number of states are distinct.
type Variable struct {
	id        uint64
	numStates int
}

// NewVariable allocates a fresh variable with the given number of states.
func NewVariable(numStates int) (*Variable, error) {
	if numStates < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCardinality, numStates)
	}
	return &Variable{
		id:        nextVariableID.Add(1),
		numStates: numStates,
	}, nil
}

func (v *Variable) String() string {
	return fmt.Sprintf("var#%d(%d)", v.id, v.numStates)
}
