package factorgraph

import (
	"context"
	"fmt"
	"math"

	"github.com/mhpishahang/bbn/internal/ctxlog"
)

// NegInf is the floor applied to every message. Keeping messages finite
// avoids Inf-Inf arithmetic while still being indistinguishable from an
// impossible state after normalization.
const NegInf = -1e20

// Settings controls a BP run.
type Settings struct {
	// Iterations is the exact number of message-passing sweeps.
	Iterations int
	// Damping is the weight given to the previous message, in [0, 1).
	Damping float64
	// Temperature scales the log-sum-exp; 1 is sum-product, 0 is max-product.
	Temperature float64
}

// Validate checks that s is usable.
func (s Settings) Validate() error {
	switch {
	case s.Iterations < 1:
		return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidSettings, s.Iterations)
	case math.IsNaN(s.Damping) || s.Damping < 0 || s.Damping >= 1:
		return fmt.Errorf("%w: damping must be in [0, 1), got %v", ErrInvalidSettings, s.Damping)
	case math.IsNaN(s.Temperature) || math.IsInf(s.Temperature, 0) || s.Temperature < 0:
		return fmt.Errorf("%w: temperature must be a finite value >= 0, got %v", ErrInvalidSettings, s.Temperature)
	}
	return nil
}

// BP runs loopy belief propagation over a Graph. A BP holds no state
// between runs; each Run starts from zero messages.
type BP struct {
	graph *Graph
}

// NewBP creates a solver for g.
func NewBP(g *Graph) *BP {
	return &BP{graph: g}
}

// Run performs s.Iterations sweeps of damped message passing and returns the
// resulting beliefs. The context is checked between sweeps.
func (bp *BP) Run(ctx context.Context, ev Evidence, s Settings) (*Beliefs, error) {
	logger := ctxlog.FromContext(ctx)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(ev) != bp.graph.NumStates() {
		return nil, fmt.Errorf("%w: got %d values, graph has %d states", ErrEvidence, len(ev), bp.graph.NumStates())
	}
	logger.Debug("BP run starting.",
		"variables", len(bp.graph.vars),
		"factors", len(bp.graph.factors),
		"iterations", s.Iterations,
		"damping", s.Damping,
		"temperature", s.Temperature,
	)

	msgs := bp.initMessages()
	var residual float64
	for iter := 0; iter < s.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			logger.Debug("BP run cancelled.", "iteration", iter, "error", err)
			return nil, err
		}
		beliefs := bp.collect(ev, msgs)
		residual = 0
		for fi, f := range bp.graph.factors {
			if r := bp.updateFactor(f, msgs[fi], beliefs, s); r > residual {
				residual = r
			}
		}
	}

	logger.Debug("BP run finished.", "residual", residual)
	return &Beliefs{
		graph:      bp.graph,
		values:     bp.collect(ev, msgs),
		Residual:   residual,
		Iterations: s.Iterations,
	}, nil
}

// initMessages allocates zero factor-to-variable messages, indexed as
// msgs[factor][position][state].
func (bp *BP) initMessages() [][][]float64 {
	msgs := make([][][]float64, len(bp.graph.factors))
	for fi, f := range bp.graph.factors {
		msgs[fi] = make([][]float64, len(f.vars))
		for i, v := range f.vars {
			msgs[fi][i] = make([]float64, v.numStates)
		}
	}
	return msgs
}

// collect computes per-variable log beliefs: evidence plus the sum of all
// incoming factor-to-variable messages.
func (bp *BP) collect(ev Evidence, msgs [][][]float64) [][]float64 {
	g := bp.graph
	beliefs := make([][]float64, len(g.vars))
	for vi, v := range g.vars {
		off := g.offsets[vi]
		beliefs[vi] = append([]float64(nil), ev[off:off+v.numStates]...)
	}
	for fi, f := range g.factors {
		for i, v := range f.vars {
			b := beliefs[g.index[v]]
			for k, m := range msgs[fi][i] {
				b[k] += m
			}
		}
	}
	return beliefs
}

// updateFactor recomputes every outgoing message of f in place and returns
// the largest absolute change.
func (bp *BP) updateFactor(f *EnumFactor, out [][]float64, beliefs [][]float64, s Settings) float64 {
	// Variable-to-factor messages, from the beliefs of this sweep and the
	// factor's previous outgoing messages.
	in := make([][]float64, len(f.vars))
	for i, v := range f.vars {
		b := beliefs[bp.graph.index[v]]
		msg := make([]float64, v.numStates)
		for k := range msg {
			msg[k] = b[k] - out[i][k]
		}
		normalize(msg)
		in[i] = msg
	}

	scores := make([]float64, len(f.configs))
	for c, cfg := range f.configs {
		score := f.logPotentials[c]
		for i, state := range cfg {
			score += in[i][state]
		}
		scores[c] = score
	}

	var residual float64
	for i, v := range f.vars {
		next := marginalize(scores, f.configs, i, in[i], v.numStates, s.Temperature)
		normalize(next)
		for k, m := range next {
			updated := m
			if s.Damping > 0 {
				updated = s.Damping*out[i][k] + (1-s.Damping)*m
			}
			if d := math.Abs(updated - out[i][k]); d > residual {
				residual = d
			}
			out[i][k] = updated
		}
	}
	return residual
}

// marginalize reduces the configuration scores onto position pos, removing
// that variable's own incoming message so it does not echo back.
func marginalize(scores []float64, configs [][]int, pos int, own []float64, card int, temperature float64) []float64 {
	out := make([]float64, card)
	for k := range out {
		out[k] = math.Inf(-1)
	}

	if temperature == 0 {
		for c, cfg := range configs {
			k := cfg[pos]
			if v := scores[c] - own[k]; v > out[k] {
				out[k] = v
			}
		}
		return out
	}

	// Two passes per state: find the max, then sum shifted exponentials.
	peak := make([]float64, card)
	for k := range peak {
		peak[k] = math.Inf(-1)
	}
	for c, cfg := range configs {
		k := cfg[pos]
		if v := (scores[c] - own[k]) / temperature; v > peak[k] {
			peak[k] = v
		}
	}
	sums := make([]float64, card)
	for c, cfg := range configs {
		k := cfg[pos]
		if math.IsInf(peak[k], -1) {
			continue
		}
		sums[k] += math.Exp((scores[c]-own[k])/temperature - peak[k])
	}
	for k := range out {
		if math.IsInf(peak[k], -1) {
			continue
		}
		out[k] = temperature * (peak[k] + math.Log(sums[k]))
	}
	return out
}

// normalize shifts msg so its maximum is zero and clips it at NegInf. A
// message with no possible state becomes uniform.
func normalize(msg []float64) {
	peak := math.Inf(-1)
	for _, m := range msg {
		if m > peak {
			peak = m
		}
	}
	if math.IsInf(peak, -1) || math.IsNaN(peak) {
		for k := range msg {
			msg[k] = 0
		}
		return
	}
	for k := range msg {
		msg[k] = math.Max(msg[k]-peak, NegInf)
	}
}

// Beliefs holds the unnormalized log beliefs produced by a BP run.
type Beliefs struct {
	graph  *Graph
	values [][]float64

	// Residual is the largest message change during the final sweep.
	Residual float64
	// Iterations is the number of sweeps performed.
	Iterations int
}

// Marginals normalizes every variable's beliefs into a probability
// distribution (a softmax over states).
func (b *Beliefs) Marginals() *Marginals {
	probs := make([][]float64, len(b.values))
	for i, logb := range b.values {
		probs[i] = softmax(logb)
	}
	return &Marginals{graph: b.graph, probs: probs}
}

// Marginals holds one normalized distribution per variable.
type Marginals struct {
	graph *Graph
	probs [][]float64
}

// Of returns a copy of v's marginal, or nil if v is not in the graph.
func (m *Marginals) Of(v *Variable) []float64 {
	i, ok := m.graph.index[v]
	if !ok {
		return nil
	}
	return append([]float64(nil), m.probs[i]...)
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	peak := math.Inf(-1)
	for _, l := range logits {
		if l > peak {
			peak = l
		}
	}
	var sum float64
	for k, l := range logits {
		out[k] = math.Exp(l - peak)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
	return out
}
