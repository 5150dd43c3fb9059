package bbn

import (
	"context"
	"fmt"

	"github.com/mhpishahang/bbn/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// RunAll runs several independent graphs concurrently, at most workers at a
// time (unlimited if workers <= 0). Results are aligned with graphs. The
// first failure cancels the runs still in progress; results of runs that
// finished are kept.
//
// Graphs must not share nodes, since Run stores marginals on them. ctx must be
// non-nil.
func RunAll(ctx context.Context, workers int, opts Options, graphs ...*Graph) ([]*Result, error) {
	owner := make(map[*Node]int)
	for i, g := range graphs {
		if g == nil {
			return nil, fmt.Errorf("graph %d is nil", i)
		}
		for _, n := range g.nodes {
			if j, ok := owner[n]; ok {
				return nil, nodeErr(n.name, "%w: graphs %d and %d", ErrSharedNode, j, i)
			}
			owner[n] = i
		}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running graphs.", "graphs", len(graphs), "workers", workers)

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	results := make([]*Result, len(graphs))
	for i, g := range graphs {
		i, g := i, g
		eg.Go(func() error {
			res, err := g.Run(ctxlog.WithLogger(ctx, logger.With("graph", i)), opts)
			results[i] = res
			if err != nil {
				return fmt.Errorf("graph %d: %w", i, err)
			}
			return nil
		})
	}
	return results, eg.Wait()
}
