package bbn

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mhpishahang/bbn/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sprinklerNetwork builds Cloudy -> {Sprinkler, Rain} -> WetGrass.
func sprinklerNetwork(t *testing.T) (cloudy, sprinkler, rain, wet *Node) {
	t.Helper()
	var err error
	cloudy, err = NewNode("Cloudy", binary, nil, FlatCPT(0.5, 0.5))
	require.NoError(t, err)
	sprinkler, err = NewNode("Sprinkler", []string{"off", "on"}, []*Node{cloudy},
		ConditionalCPT([][]float64{{0.5, 0.5}, {0.9, 0.1}}))
	require.NoError(t, err)
	rain, err = NewNode("Rain", binary, []*Node{cloudy},
		ConditionalCPT([][]float64{{0.8, 0.2}, {0.2, 0.8}}))
	require.NoError(t, err)
	wet, err = NewNode("WetGrass", []string{"dry", "wet"}, []*Node{sprinkler, rain},
		ConditionalCPT([][]float64{
			{1.0, 0.0},   // off, no rain
			{0.1, 0.9},   // off, rain
			{0.1, 0.9},   // on, no rain
			{0.01, 0.99}, // on, rain
		}))
	require.NoError(t, err)
	return cloudy, sprinkler, rain, wet
}

func TestNewGraph(t *testing.T) {
	cloudy, sprinkler, rain, wet := sprinklerNetwork(t)

	t.Run("structure queries", func(t *testing.T) {
		g, err := NewGraph(cloudy, sprinkler, rain, wet)
		require.NoError(t, err)

		assert.Equal(t, []*Node{cloudy, sprinkler, rain, wet}, g.Nodes())
		assert.Equal(t, 4, g.Len())

		n, ok := g.Node("Rain")
		require.True(t, ok)
		assert.Same(t, rain, n)
		_, ok = g.Node("Fog")
		assert.False(t, ok)

		children, err := g.Children(cloudy)
		require.NoError(t, err)
		assert.Equal(t, []*Node{sprinkler, rain}, children)

		children, err = g.Children(wet)
		require.NoError(t, err)
		assert.Empty(t, children)

		parents, err := g.Parents(wet)
		require.NoError(t, err)
		assert.Equal(t, []*Node{sprinkler, rain}, parents)

		parents, err = g.Parents(cloudy)
		require.NoError(t, err)
		assert.Empty(t, parents)
	})

	t.Run("topological order is independent of construction order", func(t *testing.T) {
		g, err := NewGraph(wet, rain, sprinkler, cloudy)
		require.NoError(t, err)
		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []*Node{cloudy, rain, sprinkler, wet}, order)

		parents, err := g.Parents(wet)
		require.NoError(t, err)
		assert.Equal(t, []*Node{sprinkler, rain}, parents, "parents keep declaration order")
	})

	t.Run("duplicate node", func(t *testing.T) {
		_, err := NewGraph(cloudy, cloudy)
		assert.ErrorIs(t, err, ErrDuplicateNode)
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := NewGraph(sprinkler)
		require.ErrorIs(t, err, ErrMissingParent)
		var nodeErr *NodeError
		require.ErrorAs(t, err, &nodeErr)
		assert.Equal(t, "Sprinkler", nodeErr.Node)
	})

	t.Run("nil node", func(t *testing.T) {
		_, err := NewGraph(cloudy, nil)
		assert.ErrorIs(t, err, ErrNilNode)
	})

	t.Run("foreign node", func(t *testing.T) {
		g, err := NewGraph(cloudy)
		require.NoError(t, err)
		_, err = g.Children(rain)
		assert.Error(t, err)
		_, err = g.Parents(rain)
		assert.Error(t, err)
	})

	t.Run("duplicate names are allowed", func(t *testing.T) {
		a, err := NewNode("Coin", binary, nil, FlatCPT(0.5, 0.5))
		require.NoError(t, err)
		b, err := NewNode("Coin", binary, nil, FlatCPT(0.1, 0.9))
		require.NoError(t, err)
		g, err := NewGraph(a, b)
		require.NoError(t, err)
		first, _ := g.Node("Coin")
		assert.Same(t, a, first)
	})
}

func TestRun_Scenarios(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()

	t.Run("root prior is recovered", func(t *testing.T) {
		rain, err := NewNode("Rain", binary, nil, FlatCPT(0.8, 0.2))
		require.NoError(t, err)
		g, err := NewGraph(rain)
		require.NoError(t, err)

		res, err := g.Run(ctx, opts)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.8, 0.2}, rain.Marginal(), 1e-9)
		assert.Equal(t, [][]float64{rain.Marginal()}, res.Marginals)
		assert.Equal(t, opts.Iterations, res.Iterations)
	})

	t.Run("observed parent selects a row", func(t *testing.T) {
		rain, err := NewNode("Rain", binary, nil, FlatCPT(0.8, 0.2), WithEvidence(0))
		require.NoError(t, err)
		sprinkler, err := NewNode("Sprinkler", []string{"off", "on"}, []*Node{rain},
			ConditionalCPT([][]float64{{0.6, 0.4}, {0.99, 0.01}}))
		require.NoError(t, err)
		g, err := NewGraph(rain, sprinkler)
		require.NoError(t, err)

		_, err = g.Run(ctx, opts)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.6, 0.4}, sprinkler.Marginal(), 1e-9)
		assert.InDeltaSlice(t, []float64{1, 0}, rain.Marginal(), 1e-9)
	})

	t.Run("wet grass raises the probability of rain", func(t *testing.T) {
		cloudy, sprinkler, rain, wet := sprinklerNetwork(t)
		g, err := NewGraph(cloudy, sprinkler, rain, wet)
		require.NoError(t, err)

		_, err = g.Run(ctx, opts)
		require.NoError(t, err)
		before := rain.Marginal()
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, before, 1e-9)

		require.NoError(t, wet.ObserveState("wet"))
		_, err = g.Run(ctx, opts)
		require.NoError(t, err)
		after := rain.Marginal()

		assert.Greater(t, after[1], before[1])
		if diff := cmp.Diff([]float64{0.5, 0.5}, cloudy.Marginal(), cmpopts.EquateApprox(0, 1e-9)); diff == "" {
			t.Errorf("evidence on WetGrass should move Cloudy away from its prior")
		}
		assert.GreaterOrEqual(t, wet.Marginal()[1], 0.99)
	})

	t.Run("impossible configurations receive no mass", func(t *testing.T) {
		rain, err := NewNode("Rain", binary, nil, FlatCPT(0.8, 0.2))
		require.NoError(t, err)
		alarm, err := NewNode("Alarm", []string{"off", "on"}, []*Node{rain},
			ConditionalCPT([][]float64{{1, 0}, {0, 1}}))
		require.NoError(t, err)
		g, err := NewGraph(rain, alarm)
		require.NoError(t, err)

		_, err = g.Run(ctx, opts)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.8, 0.2}, alarm.Marginal(), 1e-9)

		require.NoError(t, alarm.Observe(1))
		_, err = g.Run(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1}, rain.Marginal())
	})
}

func TestRun_Properties(t *testing.T) {
	ctx := context.Background()

	t.Run("marginals sum to one and are rounded", func(t *testing.T) {
		cloudy, sprinkler, rain, wet := sprinklerNetwork(t)
		require.NoError(t, sprinkler.Observe(1))
		g, err := NewGraph(cloudy, sprinkler, rain, wet)
		require.NoError(t, err)

		opts := DefaultOptions()
		res, err := g.Run(ctx, opts)
		require.NoError(t, err)
		for i, n := range g.Nodes() {
			m := n.Marginal()
			assert.Equal(t, m, res.Marginals[i])
			var sum float64
			for _, p := range m {
				sum += p
				assert.InDelta(t, p, math.Round(p*1000)/1000, 1e-12, "%s is rounded", n)
			}
			assert.InDelta(t, 1, sum, opts.SumTolerance, "%s sums to one", n)
		}
		assert.GreaterOrEqual(t, sprinkler.Marginal()[1], 0.99)
	})

	t.Run("runs are deterministic", func(t *testing.T) {
		cloudy, sprinkler, rain, wet := sprinklerNetwork(t)
		require.NoError(t, wet.Observe(1))
		g, err := NewGraph(cloudy, sprinkler, rain, wet)
		require.NoError(t, err)

		opts := DefaultOptions()
		opts.Decimals = 15
		first, err := g.Run(ctx, opts)
		require.NoError(t, err)
		second, err := g.Run(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, first.Marginals, second.Marginals)
		assert.Equal(t, first.Residual, second.Residual)
		assert.NotEqual(t, first.RunID, second.RunID)
	})

	t.Run("result lookup by name", func(t *testing.T) {
		cloudy, sprinkler, rain, wet := sprinklerNetwork(t)
		g, err := NewGraph(cloudy, sprinkler, rain, wet)
		require.NoError(t, err)
		res, err := g.Run(ctx, DefaultOptions())
		require.NoError(t, err)

		m, ok := res.Marginal("Cloudy")
		require.True(t, ok)
		assert.Equal(t, []float64{0.5, 0.5}, m)
		_, ok = res.Marginal("Fog")
		assert.False(t, ok)
	})

	t.Run("max-product keeps the mode", func(t *testing.T) {
		rain, err := NewNode("Rain", binary, nil, FlatCPT(0.8, 0.2))
		require.NoError(t, err)
		g, err := NewGraph(rain)
		require.NoError(t, err)

		opts := DefaultOptions()
		opts.Temperature = 0
		_, err = g.Run(ctx, opts)
		require.NoError(t, err)
		m := rain.Marginal()
		assert.Greater(t, m[0], m[1])
	})
}

func TestRun_Errors(t *testing.T) {
	rain, err := NewNode("Rain", binary, nil, FlatCPT(0.8, 0.2))
	require.NoError(t, err)
	g, err := NewGraph(rain)
	require.NoError(t, err)

	t.Run("invalid options", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Iterations = 0
		_, err := g.Run(context.Background(), opts)
		assert.ErrorContains(t, err, "iterations")
		assert.Nil(t, rain.Marginal())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Run(ctx, DefaultOptions())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, rain.Marginal())
	})

	t.Run("non-convergence is reported with the result", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Iterations = 1
		opts.ConvergenceTolerance = 1e-12
		res, err := g.Run(context.Background(), opts)
		require.ErrorIs(t, err, ErrNotConverged)
		require.NotNil(t, res)
		assert.Greater(t, res.Residual, opts.ConvergenceTolerance)
		assert.NotNil(t, rain.Marginal(), "marginals are stored")
	})

	t.Run("converged runs pass the tolerance", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ConvergenceTolerance = 1e-6
		res, err := g.Run(context.Background(), opts)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Residual, 1e-6)
	})
}

func TestCheckMarginal(t *testing.T) {
	tests := []struct {
		name string
		m    []float64
		ok   bool
	}{
		{"distribution", []float64{0.25, 0.75}, true},
		{"within tolerance", []float64{0.5, 0.505}, true},
		{"sum too small", []float64{0.5, 0.2}, false},
		{"nan", []float64{math.NaN(), 1}, false},
		{"negative", []float64{-0.5, 1.5}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMarginal(tt.m, 0.01)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDegenerateMarginal)
			}
		})
	}
}

func TestStoreMarginals(t *testing.T) {
	cloudy, sprinkler, rain, wet := sprinklerNetwork(t)
	g, err := NewGraph(cloudy, sprinkler, rain, wet)
	require.NoError(t, err)
	opts := DefaultOptions()

	_, err = g.Run(context.Background(), opts)
	require.NoError(t, err)
	before := make([][]float64, 0, g.Len())
	for _, n := range g.Nodes() {
		before = append(before, n.Marginal())
	}

	t.Run("one degenerate marginal leaves every node unchanged", func(t *testing.T) {
		stored, err := g.storeMarginals(func(n *Node) []float64 {
			if n == rain {
				return []float64{0.9, 0.9}
			}
			return []float64{0.5, 0.5}
		}, opts)
		require.ErrorIs(t, err, ErrDegenerateMarginal)
		assert.Nil(t, stored)

		var nodeErr *NodeError
		require.ErrorAs(t, err, &nodeErr)
		assert.Equal(t, "Rain", nodeErr.Node)

		for i, n := range g.Nodes() {
			assert.Equal(t, before[i], n.Marginal(), n.Name())
		}
	})

	t.Run("valid marginals are rounded and stored", func(t *testing.T) {
		stored, err := g.storeMarginals(func(*Node) []float64 {
			return []float64{0.12345, 0.87655}
		}, opts)
		require.NoError(t, err)
		require.Len(t, stored, g.Len())
		for i, n := range g.Nodes() {
			assert.Equal(t, []float64{0.123, 0.877}, n.Marginal())
			assert.Equal(t, n.Marginal(), stored[i])
		}
	})
}

func TestRun_LogsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	rain, err := NewNode("Rain", binary, nil, FlatCPT(0.8, 0.2))
	require.NoError(t, err)
	g, err := NewGraph(rain)
	require.NoError(t, err)

	res, err := g.Run(ctx, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), res.RunID.String())
	assert.Contains(t, buf.String(), "Inference complete.")
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()

	build := func(t *testing.T) *Graph {
		cloudy, sprinkler, rain, wet := sprinklerNetwork(t)
		g, err := NewGraph(cloudy, sprinkler, rain, wet)
		require.NoError(t, err)
		return g
	}

	t.Run("independent graphs", func(t *testing.T) {
		graphs := []*Graph{build(t), build(t), build(t)}
		wet, _ := graphs[1].Node("WetGrass")
		require.NoError(t, wet.Observe(1))

		results, err := RunAll(ctx, 2, DefaultOptions(), graphs...)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, results[0].Marginals, results[2].Marginals)
		assert.NotEqual(t, results[0].Marginals, results[1].Marginals)

		single, err := graphs[1].Run(ctx, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, single.Marginals, results[1].Marginals)
	})

	t.Run("shared nodes are rejected", func(t *testing.T) {
		g := build(t)
		_, err := RunAll(ctx, 0, DefaultOptions(), g, g)
		assert.ErrorIs(t, err, ErrSharedNode)
	})

	t.Run("first error is returned", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := RunAll(cctx, 1, DefaultOptions(), build(t))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
