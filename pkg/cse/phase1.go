package cse

import (
	"context"

	"github.com/Hbos123/confidence-search-engine/pkg/tree"
)

// buildSpine constructs the principal-variation spine, one node at a time, from the root:
// at each step it asks the engine for the single best line at spine_depth, appends the best
// child, and stops when the next node would be terminal, the spine reaches maxSpinePly, or
// the engine has nothing to offer. No branches are spawned here.
//
// A returned Reason of TargetReached does not mean the target confidence was met -- Phase 1
// never checks it -- it is this function's signal that the spine finished normally and the
// caller should proceed to Phase 2. Any other reason means a budget was exhausted or the
// engine failed, and the caller should stop immediately.
func (s *Search) buildSpine(ctx context.Context) (Reason, error) {
	cur := s.store.Root()

	for s.store.Node(cur).PlyFromRoot() < maxSpinePly {
		if reason, exceeded := s.budgetExceeded(); exceeded {
			return reason, nil
		}

		if outcome := s.store.Outcome(cur); outcome != tree.NotTerminal {
			s.applyTerminalOutcome(cur, outcome)
			return TargetReached, nil
		}

		lines, err := s.analyse(ctx, cur, s.params.SpineDepth, s.params.SpineMultiPV)
		if err != nil {
			return EngineUnavailable, err
		}
		if len(lines) == 0 {
			// The engine reports insufficient information to continue the spine; the node
			// stands with whatever confidence it already has.
			return TargetReached, nil
		}

		best := lines[0]
		s.applySelfConfidence(cur, best)

		child, err := s.store.InsertChild(cur, best.Move, tree.OnSpine)
		if err != nil {
			return TargetReached, err
		}
		cur = child
	}

	// The ply limit ended the spine; give its final node a confidence of its own so Phase 2
	// has something to select on.
	if outcome := s.store.Outcome(cur); outcome != tree.NotTerminal {
		s.applyTerminalOutcome(cur, outcome)
		return TargetReached, nil
	}
	if reason, exceeded := s.budgetExceeded(); exceeded {
		return reason, nil
	}
	lines, err := s.analyse(ctx, cur, s.params.SpineDepth, s.params.SpineMultiPV)
	if err != nil {
		return EngineUnavailable, err
	}
	if len(lines) > 0 {
		s.applySelfConfidence(cur, lines[0])
	}
	return TargetReached, nil
}
