// Package bbn builds discrete Bayesian belief networks and computes
// approximate marginals for every variable with loopy belief propagation.
//
// # Building a network
//
// Nodes are declared bottom-up: a node's parents must already exist when it
// is created, because the node compiles its conditional probability table
// against the parents' variables straight away.
//
//	rain, err := bbn.NewNode("Rain", []string{"no", "yes"}, nil,
//		bbn.FlatCPT(0.8, 0.2))
//	sprinkler, err := bbn.NewNode("Sprinkler", []string{"off", "on"},
//		[]*bbn.Node{rain},
//		bbn.ConditionalCPT([][]float64{
//			{0.6, 0.4},   // Rain = no
//			{0.99, 0.01}, // Rain = yes
//		}),
//		bbn.WithEvidence(0))
//
// Each node becomes one categorical variable and one factor over the node and
// its parents. The factor enumerates every joint configuration with the
// node's own state outermost and the parents after it, left to right, and
// pairs each configuration with the log of its probability. A probability of
// zero becomes negative infinity and marks the configuration as impossible.
//
// # Running inference
//
//	g, err := bbn.NewGraph(rain, sprinkler)
//	res, err := g.Run(ctx, bbn.DefaultOptions())
//	fmt.Println(sprinkler.Marginal()) // [0.6 0.4]
//
// Run always performs Options.Iterations damped message-passing sweeps, then
// rounds every marginal to Options.Decimals places and stores it on its
// node. Observed nodes are pinned by adding Options.EvidenceStrength to the
// log belief of the observed state.
//
// On networks whose factor graph contains cycles the result is approximate.
// Run fails with ErrDegenerateMarginal instead of returning a distribution
// that does not sum to one.
//
// # Concurrency
//
// A Graph and its Nodes are not safe for concurrent use. Independent graphs
// that share no nodes can be run in parallel with RunAll.
package bbn
