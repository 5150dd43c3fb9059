package factorgraph

import (
	"fmt"
	"math"
)

// EnumFactor is a factor defined by an explicit enumeration of the joint
// configurations of its variables. Configuration i assigns state
// configs[i][j] to variable j and carries log-potential logPotentials[i].
type EnumFactor struct {
	vars          []*Variable
	configs       [][]int
	logPotentials []float64
}

// NewEnumFactor validates and builds an enumerated factor. Every
// configuration must assign one in-range state per variable, and there must
// be exactly one log-potential per configuration. Log-potentials may be
// -Inf (impossible configuration) but not NaN or +Inf.
func NewEnumFactor(vars []*Variable, configs [][]int, logPotentials []float64) (*EnumFactor, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: factor requires at least one variable", ErrInvalidFactor)
	}
	seen := make(map[*Variable]struct{}, len(vars))
	for i, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("%w: variable %d is nil", ErrInvalidFactor, i)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: variable %s appears more than once", ErrInvalidFactor, v)
		}
		seen[v] = struct{}{}
	}
	if len(configs) != len(logPotentials) {
		return nil, fmt.Errorf("%w: %d configurations but %d log-potentials", ErrInvalidFactor, len(configs), len(logPotentials))
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: factor has no configurations", ErrInvalidFactor)
	}

	f := &EnumFactor{
		vars:          append([]*Variable(nil), vars...),
		configs:       make([][]int, len(configs)),
		logPotentials: append([]float64(nil), logPotentials...),
	}
	for i, cfg := range configs {
		if len(cfg) != len(vars) {
			return nil, fmt.Errorf("%w: configuration %d has %d entries, want %d", ErrInvalidFactor, i, len(cfg), len(vars))
		}
		for j, state := range cfg {
			if state < 0 || state >= vars[j].numStates {
				return nil, fmt.Errorf("%w: configuration %d assigns state %d to %s", ErrInvalidFactor, i, state, vars[j])
			}
		}
		f.configs[i] = append([]int(nil), cfg...)
	}
	for i, lp := range logPotentials {
		if math.IsNaN(lp) || math.IsInf(lp, 1) {
			return nil, fmt.Errorf("%w: log-potential %d is %v", ErrInvalidFactor, i, lp)
		}
	}
	return f, nil
}

// Configs returns a copy of the enumerated configurations.
func (f *EnumFactor) Configs() [][]int {
	out := make([][]int, len(f.configs))
	for i, cfg := range f.configs {
		out[i] = append([]int(nil), cfg...)
	}
	return out
}

// LogPotentials returns a copy of the log-potentials.
func (f *EnumFactor) LogPotentials() []float64 {
	return append([]float64(nil), f.logPotentials...)
}

// Configurations enumerates the Cartesian product of the given cardinalities.
// The first dimension varies slowest and the last fastest, so for cards
// (2, 3) the result is (0,0) (0,1) (0,2) (1,0) (1,1) (1,2).
func Configurations(cards ...int) [][]int {
	total := 1
	for _, c := range cards {
		if c < 1 {
			return nil
		}
		total *= c
	}

	out := make([][]int, total)
	cur := make([]int, len(cards))
	for i := range out {
		out[i] = append([]int(nil), cur...)
		for d := len(cards) - 1; d >= 0; d-- {
			cur[d]++
			if cur[d] < cards[d] {
				break
			}
			cur[d] = 0
		}
	}
	return out
}
