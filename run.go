package bbn

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mhpishahang/bbn/internal/config"
	"github.com/mhpishahang/bbn/internal/ctxlog"
	"github.com/mhpishahang/bbn/internal/factorgraph"
)

// Options are the inference settings for Run. They can be loaded from HCL
// with the settings loader or built from DefaultOptions.
type Options = config.Inference

// DefaultOptions returns 100 iterations, damping 0.5, temperature 1,
// evidence strength 1000, 3 decimals and a sum tolerance of 0.01.
func DefaultOptions() Options {
	return config.Default()
}

// Result describes one inference run.
type Result struct {
	// RunID identifies the run in logs.
	RunID uuid.UUID
	// Iterations is the number of sweeps performed.
	Iterations int
	// Residual is the largest message change in the final sweep.
	Residual float64
	// Marginals holds one rounded distribution per node, aligned with
	// Graph.Nodes.
	Marginals [][]float64

	nodes []*Node
}

// Marginal returns the distribution of the first node with the given name.
func (r *Result) Marginal(name string) ([]float64, bool) {
	for i, n := range r.nodes {
		if n.name == name {
			return append([]float64(nil), r.Marginals[i]...), true
		}
	}
	return nil, false
}

// Run performs loopy belief propagation over the graph and stores each
// node's rounded marginal on the node. ctx must be non-nil; it is checked
// between sweeps.
//
// If any marginal fails the sum check, Run returns ErrDegenerateMarginal and
// no node is updated. If opts.ConvergenceTolerance is positive and the final
// residual exceeds it, the marginals are still stored and Run returns both
// the Result and an error wrapping ErrNotConverged.
func (g *Graph) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New()
	logger := ctxlog.FromContext(ctx).With("run_id", runID.String())
	ctx = ctxlog.WithLogger(ctx, logger)
	start := time.Now()
	logger.Debug("Inference starting.", "nodes", len(g.nodes), "observed", g.observed())

	ev, err := g.model.FlattenEvidence(func(v *factorgraph.Variable) []float64 {
		return g.byVar[v].evidenceVector(opts.EvidenceStrength)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build evidence: %w", err)
	}

	beliefs, err := factorgraph.NewBP(g.model).Run(ctx, ev, factorgraph.Settings{
		Iterations:  opts.Iterations,
		Damping:     opts.Damping,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("belief propagation failed: %w", err)
	}

	marginals := beliefs.Marginals()
	stored, err := g.storeMarginals(func(n *Node) []float64 {
		return marginals.Of(n.variable)
	}, opts)
	if err != nil {
		logger.Error("Degenerate marginal.", "error", err)
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		Iterations: beliefs.Iterations,
		Residual:   beliefs.Residual,
		Marginals:  stored,
		nodes:      g.Nodes(),
	}

	logger.Info("Inference complete.",
		"nodes", len(g.nodes),
		"iterations", res.Iterations,
		"residual", res.Residual,
		"duration", time.Since(start),
	)

	if opts.ConvergenceTolerance > 0 && res.Residual > opts.ConvergenceTolerance {
		logger.Warn("Inference did not converge.", "residual", res.Residual, "tolerance", opts.ConvergenceTolerance)
		return res, fmt.Errorf("%w: residual %g exceeds tolerance %g", ErrNotConverged, res.Residual, opts.ConvergenceTolerance)
	}
	return res, nil
}

// storeMarginals checks the marginal of every node before storing any, so a
// failed check leaves the previous results in place. Softmax output always
// passes; the check guards the stored values against whatever of yields. It
// returns copies of the rounded marginals aligned with g.nodes.
func (g *Graph) storeMarginals(of func(*Node) []float64, opts Options) ([][]float64, error) {
	raw := make([][]float64, len(g.nodes))
	for i, n := range g.nodes {
		m := of(n)
		if err := checkMarginal(m, opts.SumTolerance); err != nil {
			return nil, &NodeError{Node: n.name, Err: err}
		}
		raw[i] = m
	}

	out := make([][]float64, len(g.nodes))
	for i, n := range g.nodes {
		rounded := roundAll(raw[i], opts.Decimals)
		n.marginal = rounded
		out[i] = append([]float64(nil), rounded...)
	}
	return out, nil
}

func (g *Graph) observed() int {
	count := 0
	for _, n := range g.nodes {
		if n.Observed() {
			count++
		}
	}
	return count
}

// checkMarginal reports whether m is a distribution whose sum is within tol
// of 1.
func checkMarginal(m []float64, tol float64) error {
	if len(m) == 0 {
		return fmt.Errorf("%w: empty", ErrDegenerateMarginal)
	}
	var sum float64
	for k, p := range m {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("%w: entry %d is %v", ErrDegenerateMarginal, k, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > tol {
		return fmt.Errorf("%w: sums to %v", ErrDegenerateMarginal, sum)
	}
	return nil
}

func roundAll(m []float64, decimals int) []float64 {
	scale := math.Pow(10, float64(decimals))
	out := make([]float64, len(m))
	for k, p := range m {
		out[k] = math.Round(p*scale) / scale
	}
	return out
}
