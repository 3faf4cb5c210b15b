// csesrv is a thin demonstrator binary: it spawns one engine subprocess, wraps it in a
// single-worker request queue, and runs one confidence search against a position, printing
// the resulting tree. It plays the role the teacher's own main binary plays -- a minimal
// process wiring the library together -- but as a cobra command so "analyse" and
// "queue-health" can share flags without a tangle of global package-level vars.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/board/fen"
	"github.com/Hbos123/confidence-search-engine/pkg/confidence"
	"github.com/Hbos123/confidence-search-engine/pkg/cse"
	"github.com/Hbos123/confidence-search-engine/pkg/engine"
	"github.com/Hbos123/confidence-search-engine/pkg/engine/erq"
	"github.com/Hbos123/confidence-search-engine/pkg/tree"
	"github.com/seekerror/logw"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var enginePath string

	root := &cobra.Command{
		Use:   "csesrv",
		Short: "Run a confidence search against a position using a real UCI engine",
	}
	root.PersistentFlags().StringVar(&enginePath, "engine", "", "Path to a UCI engine binary (required)")
	_ = root.MarkPersistentFlagRequired("engine")

	root.AddCommand(newAnalyseCmd(&enginePath))
	root.AddCommand(newQueueHealthCmd(&enginePath))
	return root
}

func newAnalyseCmd(enginePath *string) *cobra.Command {
	var (
		position string
		target   int
		maxNodes int
		maxCalls int
		wallTime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyse",
		Short: "Build a confidence-annotated variation tree from a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if position == "" {
				position = fen.Initial
			}
			pos, err := fen.Decode(position)
			if err != nil {
				return fmt.Errorf("invalid fen %q: %w", position, err)
			}

			queue, err := newQueue(ctx, *enginePath)
			if err != nil {
				return err
			}

			search := cse.New(queue, confidence.Percent(target), cse.Budget{
				MaxNodes:       maxNodes,
				MaxEngineCalls: maxCalls,
				WallClock:      wallTime,
			}, cse.DefaultParams())

			store, reason, err := search.Run(ctx, pos)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			logw.Infof(ctx, "Search stopped: %v (%v nodes)", reason, store.Len())
			printTree(store, store.Root(), 0)
			return nil
		},
	}

	cmd.Flags().StringVar(&position, "fen", "", "Position to analyse (default: standard start)")
	cmd.Flags().IntVar(&target, "target", 75, "Target confidence percentage")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 200, "Node budget")
	cmd.Flags().IntVar(&maxCalls, "max-calls", 0, "Engine-call budget (0 = unbounded)")
	cmd.Flags().DurationVar(&wallTime, "max-time", 10*time.Second, "Wall-clock budget")
	return cmd
}

func newQueueHealthCmd(enginePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "queue-health",
		Short: "Spawn an engine, start its queue, and print the queue's health snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			queue, err := newQueue(ctx, *enginePath)
			if err != nil {
				return err
			}

			h := queue.Health()
			m := queue.Metrics()
			fmt.Printf("alive=%v consecutive_failures=%v depth=%v total=%v failed=%v success_rate=%.2f\n",
				h.Alive, h.ConsecutiveFailures, m.QueueDepth, m.TotalRequests, m.FailedRequests, m.SuccessRate)
			return nil
		},
	}
}

func newQueue(ctx context.Context, enginePath string) (*erq.Queue, error) {
	return erq.New(ctx, func(ctx context.Context) (erq.Engine, error) {
		return engine.New(ctx, enginePath)
	})
}

func printTree(store *tree.Store, id tree.NodeId, depth int) {
	n := store.Node(id)

	label := "root"
	if mv, ok := n.MoveFromParent(); ok {
		parent, _ := n.Parent()
		label = board.ToSAN(store.Node(parent).Position(), mv)
	}

	marker := " "
	switch {
	case n.Frozen():
		marker = "+"
	case n.InsufficientConfidence():
		marker = "!"
	}

	fmt.Printf("%*s%s%v (%v%%)\n", depth*2, "", marker, label, n.Confidence())
	for _, c := range n.Children() {
		printTree(store, c, depth+1)
	}
}
