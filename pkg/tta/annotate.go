package tta

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
)

// AnnotateTree analyzes every position in positions concurrently and returns their
// Analyses in the same order. Analyze has no I/O and no shared mutable state, so this is
// purely a CPU fan-out; it exists because a freshly built or re-colored variation tree can
// contain hundreds of nodes that each need one Analyze call. Concurrency is capped at
// GOMAXPROCS so a large tree doesn't spawn one goroutine per node.
func AnnotateTree(ctx context.Context, positions []*board.Position) ([]Analysis, error) {
	out := make([]Analysis, len(positions))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pos := range positions {
		i, pos := i, pos
		g.Go(func() error {
			out[i] = Analyze(pos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
