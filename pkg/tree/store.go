package tree

import (
	"fmt"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/confidence"
	"github.com/Hbos123/confidence-search-engine/pkg/tta"
)

// Store is the append-only arena backing a single search's variation tree. It is owned
// exclusively by the task that built it: nothing here synchronises access, by design — the
// concurrency model above this package guarantees a Store is touched from exactly one
// goroutine for its entire lifetime.
type Store struct {
	nodes   []*Node
	zobrist *board.ZobristTable
}

// Option configures a new Store.
type Option func(*Store)

// WithZobristSeed fixes the seed used for the repetition-detection hash table. Tests that
// need reproducible hashing should set this; production callers can leave it at the default.
func WithZobristSeed(seed int64) Option {
	return func(s *Store) {
		s.zobrist = board.NewZobristTable(seed)
	}
}

// NewStore creates a Store whose root is root, on the spine, at ply 0.
func NewStore(root *board.Position, opts ...Option) *Store {
	s := &Store{
		zobrist: board.NewZobristTable(0),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := &Node{
		id:         0,
		parent:     NoNode,
		hasParent:  false,
		position:   *root,
		sideToMove: root.Turn(),
		pvClass:    OnSpine,
		zobrist:    s.zobrist.Hash(root, root.Turn()),
	}
	s.nodes = []*Node{r}
	return s
}

// Root returns the tree's root id. It is always 0.
func (s *Store) Root() NodeId {
	return 0
}

// Len returns the number of nodes in the arena, including the root.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Node returns the node with the given id. It panics on an out-of-range id, the same way a
// slice index does, since a NodeId this package never handed out is a caller bug.
func (s *Store) Node(id NodeId) *Node {
	return s.nodes[id]
}

// InsertChild extends parent with a new node reached by move, classified as class. The
// child's position is always parent.Position().Apply(move) -- by construction, not by
// validating a caller-supplied position, so invariant 3 (child.position = parent.position
// .apply(move)) cannot be violated through this API. The new child becomes children[0] (the
// main continuation) if it is parent's first child, otherwise it is appended as an alternate.
func (s *Store) InsertChild(parent NodeId, move board.Move, class PVClass) (NodeId, error) {
	p := s.nodes[parent]
	if p.pvClass == BranchTerminal {
		return NoNode, fmt.Errorf("tree: node %d is branch-terminal and cannot be extended", parent)
	}

	next := p.position.Apply(move)
	id := NodeId(len(s.nodes))
	child := &Node{
		id:          id,
		parent:      parent,
		hasParent:   true,
		fromParent:  move,
		hasMove:     true,
		position:    next,
		plyFromRoot: p.plyFromRoot + 1,
		sideToMove:  next.Turn(),
		pvClass:     class,
		zobrist:     s.zobrist.Move(p.zobrist, &p.position, move),
	}

	s.nodes = append(s.nodes, child)
	if len(p.children) > 0 {
		p.hasBranches = true
	}
	p.children = append(p.children, id)
	return id, nil
}

// SetEngineCP records the last direct evaluation of id's position from its own side to move.
func (s *Store) SetEngineCP(id NodeId, cp int32) {
	n := s.nodes[id]
	v := cp
	n.engineCP = &v
}

// SetTerminalConfidence records a confidence derived from directly analysing id's own
// position (the leaf case). It is the first of the two confidence sources to ever populate
// initial_confidence, if neither has been set yet, and it refreshes the displayed confidence
// unless id is frozen and the new value would lower it.
func (s *Store) SetTerminalConfidence(id NodeId, c confidence.Percent) {
	n := s.nodes[id]
	if n.initialConf == nil {
		v := c
		n.initialConf = &v
	}
	v := c
	n.terminalConf = &v
	s.refresh(n)
}

// SetTransferredConfidence records a confidence derived from id's children (the inner-node
// case), with the same initial_confidence and frozen-floor semantics as
// SetTerminalConfidence.
func (s *Store) SetTransferredConfidence(id NodeId, c confidence.Percent) {
	n := s.nodes[id]
	if n.initialConf == nil {
		v := c
		n.initialConf = &v
	}
	v := c
	n.transferredConf = &v
	s.refresh(n)
}

// refresh recomputes n.conf from whichever confidence source is present, preferring
// transferred (inner node) over terminal (leaf), and never letting a frozen node's displayed
// confidence fall.
func (s *Store) refresh(n *Node) {
	next := n.conf
	switch {
	case n.transferredConf != nil:
		next = *n.transferredConf
	case n.terminalConf != nil:
		next = *n.terminalConf
	}
	if n.frozen && next < n.conf {
		return
	}
	n.conf = next
}

// Freeze marks id frozen: its confidence has reached the search's target and may not be
// lowered by any later update.
func (s *Store) Freeze(id NodeId) {
	s.nodes[id].frozen = true
}

// MarkHasBranches sets id's has_branches flag directly. InsertChild already sets it as a
// side effect whenever a node gains a second child, but the orchestrator also sets it the
// moment it attempts to extend a node, even when that attempt turns out to be a no-op
// duplicate extension that creates no new children.
func (s *Store) MarkHasBranches(id NodeId) {
	s.nodes[id].hasBranches = true
}

// MarkBranchTerminal reclassifies id as BranchTerminal, used once a branch recursion chain
// reaches its depth limit, a terminal position, or the end of its seed line.
func (s *Store) MarkBranchTerminal(id NodeId) {
	s.nodes[id].pvClass = BranchTerminal
}

// MarkInsufficientConfidence sets id's red-triangle flag: it has been extended at least once
// and its confidence is still below target.
func (s *Store) MarkInsufficientConfidence(id NodeId) {
	s.nodes[id].insufficientConfidence = true
}

// ClearInsufficientConfidence removes the red-triangle flag, used when a later extension
// finally brings id's confidence to target.
func (s *Store) ClearInsufficientConfidence(id NodeId) {
	s.nodes[id].insufficientConfidence = false
}

// SetTags attaches a's lazily-computed theme/tag annotation to id.
func (s *Store) SetTags(id NodeId, a tta.Analysis) {
	s.nodes[id].tags = &a
}

// Ancestors returns id's ancestor chain from its parent up to (and including) the root, in
// that order. The root's own Ancestors call returns nil.
func (s *Store) Ancestors(id NodeId) []NodeId {
	var out []NodeId
	n := s.nodes[id]
	for n.hasParent {
		out = append(out, n.parent)
		n = s.nodes[n.parent]
	}
	return out
}

// RepetitionCount returns how many times id's own position (by Zobrist hash, which excludes
// the halfmove clock and fullmove number per the position's own equality contract) has
// occurred along the path from the root down to id, counting id itself. A searcher typically
// only cares whether this reaches 3.
//
// Each node's hash is computed once, incrementally, when InsertChild creates it (via
// ZobristTable.Move from its parent's hash), so this walk is a cheap field comparison per
// ancestor rather than a full board rehash.
func (s *Store) RepetitionCount(id NodeId) int {
	n := s.nodes[id]
	h := n.zobrist

	count := 1
	for n.hasParent {
		n = s.nodes[n.parent]
		if n.zobrist == h {
			count++
		}
	}
	return count
}

// Outcome classifies id's position, extending the position's own move- and material-based
// terminal test with the repetition case, which requires the path history only a Store has.
func (s *Store) Outcome(id NodeId) Outcome {
	n := s.nodes[id]
	switch n.position.Terminal() {
	case board.Checkmate:
		return Checkmate
	case board.Stalemate:
		return Stalemate
	case board.InsufficientMaterial:
		return InsufficientMaterial
	case board.FiftyMoveRule:
		return FiftyMoveRule
	}
	if s.RepetitionCount(id) >= 3 {
		return Repetition
	}
	return NotTerminal
}
