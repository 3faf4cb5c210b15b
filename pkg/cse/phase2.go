package cse

import (
	"context"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/confidence"
	"github.com/Hbos123/confidence-search-engine/pkg/engine"
	"github.com/Hbos123/confidence-search-engine/pkg/tree"
)

// branchSeed pairs a newly created branch child with the engine line that produced it, so
// its own principal continuation can be replayed without a second engine call.
type branchSeed struct {
	id   tree.NodeId
	line engine.ScoredLine
}

// extend repeats select/extend/recurse/tag/propagate until the spine's minimum confidence
// reaches the target, a budget runs out, or three consecutive iterations make no progress.
func (s *Search) extend(ctx context.Context) (Reason, error) {
	stall := 0
	lastMin := s.minSpineConfidence()

	for {
		if lastMin >= s.target {
			return TargetReached, nil
		}
		if reason, exceeded := s.budgetExceeded(); exceeded {
			return reason, nil
		}

		sel, ok := s.selectNode()
		if !ok {
			// Nothing left is eligible; the spine will not improve further this call.
			return TargetReached, nil
		}

		seeds, err := s.extendNode(ctx, sel)
		if err != nil {
			return EngineUnavailable, err
		}
		s.recurseBranches(seeds)

		s.store.MarkHasBranches(sel)
		s.propagate(sel)

		if s.store.Node(sel).Confidence() >= s.target {
			s.store.Freeze(sel)
			s.store.ClearInsufficientConfidence(sel)
		} else {
			s.store.MarkInsufficientConfidence(sel)
		}

		cur := s.minSpineConfidence()
		if cur <= lastMin {
			stall++
			if stall >= maxStallIterations {
				return Stalled, nil
			}
		} else {
			stall = 0
		}
		lastMin = cur
	}
}

// minSpineConfidence returns the lowest confidence among the spine's nodes, or 100 if the
// spine is somehow empty (never true once buildSpine has run).
func (s *Search) minSpineConfidence() confidence.Percent {
	min := confidence.Percent(100)
	for id := 0; id < s.store.Len(); id++ {
		n := s.store.Node(tree.NodeId(id))
		if n.PVClass() != tree.OnSpine {
			continue
		}
		if c := n.Confidence(); c < min {
			min = c
		}
	}
	return min
}

// selectNode picks the eligible node with the lowest confidence, breaking ties by lowest
// ply_from_root then lowest id. Eligible means on the spine, or already extended into
// branches and still insufficient_confidence. Ineligible: BranchTerminal, frozen, already at
// or above target, or a terminal position (which always stays a leaf).
func (s *Search) selectNode() (tree.NodeId, bool) {
	best := tree.NoNode
	var bestConf confidence.Percent
	var bestPly uint16

	for id := 0; id < s.store.Len(); id++ {
		nid := tree.NodeId(id)
		n := s.store.Node(nid)

		eligible := n.PVClass() == tree.OnSpine || (n.HasBranches() && n.InsufficientConfidence())
		if !eligible {
			continue
		}
		if n.PVClass() == tree.BranchTerminal || n.Frozen() || n.Confidence() >= s.target {
			continue
		}
		if s.store.Outcome(nid) != tree.NotTerminal {
			continue
		}

		if best == tree.NoNode ||
			n.Confidence() < bestConf ||
			(n.Confidence() == bestConf && n.PlyFromRoot() < bestPly) ||
			(n.Confidence() == bestConf && n.PlyFromRoot() == bestPly && nid < best) {
			best, bestConf, bestPly = nid, n.Confidence(), n.PlyFromRoot()
		}
	}
	return best, best != tree.NoNode
}

// extendNode asks the engine for branch_multipv lines at sel's position and creates one
// child per line whose move does not already exist among sel's children. A line whose move
// duplicates an existing child contributes nothing; if every line duplicates, sel is marked
// insufficient_confidence as a no-op duplicate extension.
func (s *Search) extendNode(ctx context.Context, sel tree.NodeId) ([]branchSeed, error) {
	lines, err := s.analyse(ctx, sel, s.params.BranchDepth, s.params.BranchMultiPV)
	if err != nil {
		return nil, err
	}

	n := s.store.Node(sel)
	var existing []board.Move
	for _, c := range n.Children() {
		if mv, ok := s.store.Node(c).MoveFromParent(); ok {
			existing = append(existing, mv)
		}
	}

	var seeds []branchSeed
	for _, line := range lines {
		if moveAmong(existing, line.Move) {
			continue
		}

		child, err := s.store.InsertChild(sel, line.Move, tree.Branch)
		if err != nil {
			return seeds, err
		}
		cp, conf := childRawConfidence(line)
		s.store.SetEngineCP(child, cp)
		s.store.SetTerminalConfidence(child, toHolderFrame(conf, s.store.Node(child).SideToMove(), s.holder))
		seeds = append(seeds, branchSeed{id: child, line: line})
	}

	if len(seeds) == 0 {
		s.store.MarkInsufficientConfidence(sel)
	}
	return seeds, nil
}

func moveAmong(moves []board.Move, m board.Move) bool {
	for _, o := range moves {
		if o.Equals(m) {
			return true
		}
	}
	return false
}

// recurseBranches continues every seed below target along its own line's principal
// continuation, needing no further engine calls since the moves were already returned
// alongside the seed's score.
func (s *Search) recurseBranches(seeds []branchSeed) {
	for _, seed := range seeds {
		if s.store.Node(seed.id).Confidence() >= s.target {
			continue
		}
		s.recurseOne(seed)
	}
}

func (s *Search) recurseOne(seed branchSeed) {
	cur := seed.id
	added := 0
	for _, mv := range seed.line.PV {
		if added >= s.params.ExtensionDepth {
			break
		}
		if s.store.Outcome(cur) != tree.NotTerminal {
			break
		}
		child, err := s.store.InsertChild(cur, mv, tree.Branch)
		if err != nil {
			break
		}
		cur = child
		added++
	}
	s.store.MarkBranchTerminal(cur)
}

// propagate recomputes transferred_confidence bottom-up from sel to the root. At a node
// whose side to move is the holder, the holder is the one choosing among its children, so
// the best child bounds it from above (maximum); otherwise the opponent is choosing and the
// worst child bounds it (minimum). Both directions operate on confidence values already
// normalized into the holder's frame (see toHolderFrame), so this is a plain minimax with no
// further sign handling.
func (s *Search) propagate(sel tree.NodeId) {
	path := append([]tree.NodeId{sel}, s.store.Ancestors(sel)...)

	for _, x := range path {
		n := s.store.Node(x)
		children := n.Children()
		if len(children) == 0 {
			continue
		}

		agg := s.store.Node(children[0]).Confidence()
		maximize := n.SideToMove() == s.holder
		for _, c := range children[1:] {
			cc := s.store.Node(c).Confidence()
			if maximize && cc > agg {
				agg = cc
			} else if !maximize && cc < agg {
				agg = cc
			}
		}
		s.store.SetTransferredConfidence(x, agg)
	}
}
