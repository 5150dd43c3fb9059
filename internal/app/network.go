package app

import (
	"fmt"

	"github.com/mhpishahang/bbn"
)

// sprinklerNetwork builds Cloudy -> {Sprinkler, Rain} -> WetGrass and
// applies the given observations.
func sprinklerNetwork(observations []Observation) (*bbn.Graph, error) {
	binary := []string{"false", "true"}

	cloudy, err := bbn.NewNode("Cloudy", binary, nil, bbn.FlatCPT(0.5, 0.5))
	if err != nil {
		return nil, err
	}
	sprinkler, err := bbn.NewNode("Sprinkler", []string{"off", "on"}, []*bbn.Node{cloudy},
		bbn.ConditionalCPT([][]float64{
			{0.5, 0.5},
			{0.9, 0.1},
		}))
	if err != nil {
		return nil, err
	}
	rain, err := bbn.NewNode("Rain", binary, []*bbn.Node{cloudy},
		bbn.ConditionalCPT([][]float64{
			{0.8, 0.2},
			{0.2, 0.8},
		}))
	if err != nil {
		return nil, err
	}
	wet, err := bbn.NewNode("WetGrass", []string{"dry", "wet"}, []*bbn.Node{sprinkler, rain},
		bbn.ConditionalCPT([][]float64{
			{1.0, 0.0},
			{0.1, 0.9},
			{0.1, 0.9},
			{0.01, 0.99},
		}))
	if err != nil {
		return nil, err
	}

	g, err := bbn.NewGraph(cloudy, sprinkler, rain, wet)
	if err != nil {
		return nil, err
	}
	for _, o := range observations {
		n, ok := g.Node(o.Node)
		if !ok {
			return nil, fmt.Errorf("cannot observe %s: no such node", o)
		}
		if err := n.ObserveState(o.State); err != nil {
			return nil, fmt.Errorf("cannot observe %s: %w", o, err)
		}
	}
	return g, nil
}
