package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/board/fen"
	"github.com/Hbos123/confidence-search-engine/pkg/tree"
)

func mustFind(t *testing.T, pos *board.Position, uci string) board.Move {
	t.Helper()
	m, ok := pos.Find(uci)
	require.True(t, ok, "move %v not legal", uci)
	return m
}

func TestNewStoreRootInvariants(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	s := tree.NewStore(pos)
	root := s.Node(s.Root())

	_, hasParent := root.Parent()
	assert.False(t, hasParent)
	_, hasMove := root.MoveFromParent()
	assert.False(t, hasMove)
	assert.EqualValues(t, 0, root.PlyFromRoot())
	assert.Equal(t, tree.OnSpine, root.PVClass())
	assert.Equal(t, 1, s.Len())
}

func TestInsertChildDerivesPositionAndPly(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	s := tree.NewStore(pos)

	m := mustFind(t, pos, "e2e4")
	child, err := s.InsertChild(s.Root(), m, tree.OnSpine)
	require.NoError(t, err)

	n := s.Node(child)
	assert.EqualValues(t, 1, n.PlyFromRoot())
	parent, ok := n.Parent()
	assert.True(t, ok)
	assert.Equal(t, s.Root(), parent)

	want := pos.Apply(m)
	assert.Equal(t, want, *n.Position())
	assert.Equal(t, board.Black, n.SideToMove())
	assert.Equal(t, []tree.NodeId{child}, s.Node(s.Root()).Children())
}

func TestInsertChildMarksSiblingsAsBranches(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	s := tree.NewStore(pos)

	main, err := s.InsertChild(s.Root(), mustFind(t, pos, "e2e4"), tree.OnSpine)
	require.NoError(t, err)
	alt, err := s.InsertChild(s.Root(), mustFind(t, pos, "d2d4"), tree.Branch)
	require.NoError(t, err)

	root := s.Node(s.Root())
	assert.True(t, root.HasBranches())
	assert.Equal(t, []tree.NodeId{main, alt}, root.Children())
}

func TestInsertChildRejectsBranchTerminalParent(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	s := tree.NewStore(pos)

	leaf, err := s.InsertChild(s.Root(), mustFind(t, pos, "e2e4"), tree.BranchTerminal)
	require.NoError(t, err)

	next := s.Node(leaf).Position()
	m := mustFind(t, next, "e7e5")
	_, err = s.InsertChild(leaf, m, tree.Branch)
	assert.Error(t, err)
}

func TestConfidenceInitialAndFrozenFloor(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	s := tree.NewStore(pos)

	root := s.Root()
	s.SetTerminalConfidence(root, 40)
	init, ok := s.Node(root).InitialConfidence()
	require.True(t, ok)
	assert.EqualValues(t, 40, init)
	assert.EqualValues(t, 40, s.Node(root).Confidence())

	s.SetTransferredConfidence(root, 70)
	assert.EqualValues(t, 70, s.Node(root).Confidence())
	// initial_confidence is locked to the first assignment and must not move.
	init, ok = s.Node(root).InitialConfidence()
	require.True(t, ok)
	assert.EqualValues(t, 40, init)

	s.Freeze(root)
	s.SetTransferredConfidence(root, 55)
	assert.EqualValues(t, 70, s.Node(root).Confidence(), "frozen confidence must never fall")

	s.SetTransferredConfidence(root, 90)
	assert.EqualValues(t, 90, s.Node(root).Confidence(), "frozen confidence may still rise")
}

func TestRepetitionCount(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	s := tree.NewStore(pos)

	cur := s.Root()
	moves := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for _, uci := range moves {
		m := mustFind(t, s.Node(cur).Position(), uci)
		cur, err = s.InsertChild(cur, m, tree.OnSpine)
		require.NoError(t, err)
	}

	// The starting position recurs after two full knight shuffles back and forth.
	assert.GreaterOrEqual(t, s.RepetitionCount(cur), 3)
	assert.Equal(t, tree.Repetition, s.Outcome(cur))
}

func TestOutcomeCheckmate(t *testing.T) {
	pos, err := fen.Decode("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)
	s := tree.NewStore(pos)
	assert.Equal(t, tree.Checkmate, s.Outcome(s.Root()))
}

func TestTagsAbsentBeforeSetTags(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	s := tree.NewStore(pos)

	_, ok := s.Node(s.Root()).Tags()
	assert.False(t, ok)
}
