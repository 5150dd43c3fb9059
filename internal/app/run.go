package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mhpishahang/bbn"
	"github.com/mhpishahang/bbn/internal/ctxlog"
)

var defaultObservations = []Observation{{Node: "WetGrass", State: "wet"}}

// Run builds the prior and posterior scenarios, runs them concurrently and
// writes a marginal table for each.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	observations := a.config.Observations
	if len(observations) == 0 {
		observations = defaultObservations
	}

	prior, err := sprinklerNetwork(nil)
	if err != nil {
		return fmt.Errorf("failed to build prior network: %w", err)
	}
	posterior, err := sprinklerNetwork(observations)
	if err != nil {
		return fmt.Errorf("failed to build posterior network: %w", err)
	}

	a.logger.Info("Starting inference.", "scenarios", 2, "workers", a.config.Workers)
	results, err := bbn.RunAll(ctx, a.config.Workers, *a.settings, prior, posterior)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	a.printResult("prior", prior, results[0])
	a.printResult("posterior | "+joinObservations(observations), posterior, results[1])

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) printResult(title string, g *bbn.Graph, res *bbn.Result) {
	fmt.Fprintf(a.outW, "\n%s (run %s, residual %.3g)\n", title, res.RunID, res.Residual)
	tw := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	for i, n := range g.Nodes() {
		var cells []string
		for k, state := range n.States() {
			cells = append(cells, fmt.Sprintf("%s=%.*f", state, a.settings.Decimals, res.Marginals[i][k]))
		}
		fmt.Fprintf(tw, "  %s\t%s\n", n.Name(), strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func joinObservations(obs []Observation) string {
	parts := make([]string, len(obs))
	for i, o := range obs {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}
