// Package cse is the orchestrator: it drives the engine queue in package erq to build, then
// iteratively extend, the variation tree in package tree, until every spine node reaches a
// caller-chosen confidence target or a budget runs out. It is the one component that ties
// position, engine, store, and confidence together into a single synchronous request.
package cse

import (
	"context"
	"time"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/confidence"
	"github.com/Hbos123/confidence-search-engine/pkg/engine"
	"github.com/Hbos123/confidence-search-engine/pkg/engine/erq"
	"github.com/Hbos123/confidence-search-engine/pkg/tree"
)

// Reason explains why a Run stopped.
type Reason int

const (
	// TargetReached means every spine node's confidence met or exceeded the target, or every
	// spine node still below it is a terminal position, which is never extended.
	TargetReached Reason = iota
	// BudgetNodesExhausted means the tree's node count reached Budget.MaxNodes.
	BudgetNodesExhausted
	// BudgetCallsExhausted means the engine call count reached Budget.MaxEngineCalls.
	BudgetCallsExhausted
	// BudgetTimeExhausted means Budget.WallClock elapsed.
	BudgetTimeExhausted
	// Stalled means three consecutive iterations made no progress on the spine's minimum
	// confidence.
	Stalled
	// EngineUnavailable means a call to the engine queue returned an error and the search
	// could not continue.
	EngineUnavailable
)

func (r Reason) String() string {
	switch r {
	case TargetReached:
		return "target-reached"
	case BudgetNodesExhausted:
		return "budget-nodes-exhausted"
	case BudgetCallsExhausted:
		return "budget-calls-exhausted"
	case BudgetTimeExhausted:
		return "budget-time-exhausted"
	case Stalled:
		return "stalled"
	case EngineUnavailable:
		return "engine-unavailable"
	default:
		return "unknown"
	}
}

// Budget bounds one confidence_search call. Zero means unbounded for that dimension.
type Budget struct {
	MaxNodes       int
	MaxEngineCalls int
	WallClock      time.Duration
}

// Params are the tunable search parameters named in the interface this package implements.
type Params struct {
	SpineMultiPV   int
	BranchMultiPV  int
	SpineDepth     int
	BranchDepth    int
	ExtensionDepth int
}

// DefaultParams returns reasonable defaults for interactive coaching use.
func DefaultParams() Params {
	return Params{
		SpineMultiPV:   1,
		BranchMultiPV:  3,
		SpineDepth:     14,
		BranchDepth:    12,
		ExtensionDepth: 4,
	}
}

// maxSpinePly bounds how deep the principal-variation spine is allowed to run before the
// search stops extending it even if nothing else ends it first.
const maxSpinePly = 18

// maxStallIterations is how many consecutive no-progress iterations of Phase 2 end the
// search early.
const maxStallIterations = 3

// Search runs one confidence_search call. It is not safe for concurrent use; callers use one
// Search, and the tree.Store it returns, per request, matching the single-owner resource
// model the store itself documents.
type Search struct {
	queue  *erq.Queue
	target confidence.Percent
	budget Budget
	params Params

	store  *tree.Store
	holder board.Color

	calls int
	start time.Time
}

// New prepares a search against queue for the given target confidence, budget, and params.
func New(queue *erq.Queue, target confidence.Percent, budget Budget, params Params) *Search {
	return &Search{queue: queue, target: target, budget: budget, params: params}
}

// Run builds the initial spine from root, then iteratively extends it, and returns the
// resulting tree together with the reason the search stopped. The returned Store is non-nil
// even on EngineUnavailable: the caller may inspect whatever was built before the failure.
func (s *Search) Run(ctx context.Context, root *board.Position) (*tree.Store, Reason, error) {
	s.store = tree.NewStore(root)
	s.holder = root.Turn()
	s.start = time.Now()

	reason, err := s.buildSpine(ctx)
	if err != nil {
		return s.store, EngineUnavailable, err
	}

	if reason == TargetReached {
		// buildSpine returns TargetReached as its "phase finished normally" signal, not a
		// claim that the target was actually met; extend is the phase that can make that
		// claim.
		reason, err = s.extend(ctx)
		if err != nil {
			return s.store, EngineUnavailable, err
		}
	}

	s.freezeAndRecolour()
	s.attachTags(ctx)
	return s.store, reason, nil
}

// budgetExceeded checks the three budget dimensions and reports which, if any, is now
// exhausted.
func (s *Search) budgetExceeded() (Reason, bool) {
	if s.budget.MaxNodes > 0 && s.store.Len() >= s.budget.MaxNodes {
		return BudgetNodesExhausted, true
	}
	if s.budget.MaxEngineCalls > 0 && s.calls >= s.budget.MaxEngineCalls {
		return BudgetCallsExhausted, true
	}
	if s.budget.WallClock > 0 && time.Since(s.start) >= s.budget.WallClock {
		return BudgetTimeExhausted, true
	}
	return 0, false
}

// analyse asks the engine queue for up to multipv lines at id's position, counting the call
// toward the engine-call budget regardless of outcome.
func (s *Search) analyse(ctx context.Context, id tree.NodeId, depth, multipv int) ([]engine.ScoredLine, error) {
	n := s.store.Node(id)
	fut := s.queue.Submit(erq.Request{
		Position: n.Position(),
		Budget:   engine.Budget{Depth: depth},
		MultiPV:  multipv,
	})

	res, err := fut.Wait(ctx)
	s.calls++
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Lines, nil
}

// toHolderFrame converts a confidence value computed for side's own perspective into the
// fixed frame of holder, the side that originally asked for the search. engine_cp and the
// mate-distance sign are always stored mover-relative (per the Node contract), but the
// propagated confidence field is normalized into one fixed frame for the whole tree so that
// Phase 2's bottom-up min/max combination is a plain minimax, not a per-ply sign flip.
func toHolderFrame(raw confidence.Percent, side, holder board.Color) confidence.Percent {
	if side == holder {
		return raw
	}
	return 100 - raw
}

// selfRawConfidence maps a line describing id's own best continuation into a confidence in
// id's own side-to-move's frame, before any holder-frame conversion.
func selfRawConfidence(line engine.ScoredLine) confidence.Percent {
	if line.MateIn != 0 {
		return confidence.FromMate(line.MateIn)
	}
	return confidence.FromCentipawns(line.Centipawns)
}

// childRawConfidence maps one line returned for a multipv call at a node into a confidence in
// the resulting CHILD's own side-to-move's frame: the line's score and mate distance are
// reported from the node being analysed, so both are negated for the mover on the other side
// of the move.
func childRawConfidence(line engine.ScoredLine) (cp int32, conf confidence.Percent) {
	if line.MateIn != 0 {
		return 0, confidence.FromMate(-line.MateIn)
	}
	cp = -line.Centipawns
	return cp, confidence.FromCentipawns(cp)
}

// applySelfConfidence records id's own engine_cp and terminal_confidence from a line that
// analysed id's own position.
func (s *Search) applySelfConfidence(id tree.NodeId, line engine.ScoredLine) {
	n := s.store.Node(id)
	s.store.SetEngineCP(id, line.Centipawns)
	raw := selfRawConfidence(line)
	s.store.SetTerminalConfidence(id, toHolderFrame(raw, n.SideToMove(), s.holder))
}

// applyTerminalOutcome records the confidence implied by a C3 terminal classification,
// independent of any engine score.
func (s *Search) applyTerminalOutcome(id tree.NodeId, outcome tree.Outcome) {
	n := s.store.Node(id)
	side := n.SideToMove()

	var c confidence.Percent
	switch outcome {
	case tree.Checkmate:
		c = confidence.FromTerminal(board.Checkmate, s.holder, side)
	case tree.Stalemate:
		c = confidence.FromTerminal(board.Stalemate, s.holder, side)
	case tree.InsufficientMaterial:
		c = confidence.FromTerminal(board.InsufficientMaterial, s.holder, side)
	case tree.FiftyMoveRule:
		c = confidence.FromTerminal(board.FiftyMoveRule, s.holder, side)
	case tree.Repetition:
		c = 50
	default:
		return
	}
	s.store.SetTerminalConfidence(id, c)
}
