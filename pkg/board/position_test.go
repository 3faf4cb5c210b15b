package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/board/fen"
)

func TestLegalMovesExcludesSelfCheck(t *testing.T) {
	// White king on E1, rook pinning a knight on E4 against it from E8: no knight move
	// preserves the E-file, so the knight has no legal move at all while pinned.
	pos, err := board.NewPosition([]board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E4, Color: board.White, Piece: board.Knight},
		{Square: board.E8, Color: board.Black, Piece: board.Rook},
		{Square: board.A8, Color: board.Black, Piece: board.King},
	}, board.White, board.ZeroCastling, board.ZeroSquare, 0, 1)
	require.NoError(t, err)

	for _, m := range pos.LegalMoves() {
		assert.NotEqual(t, board.Knight, m.Piece, "pinned knight must have no legal move: %v", m)
	}
}

func TestApplyTogglesTurnAndClocks(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	m, ok := pos.Find("e2e4")
	require.True(t, ok)

	next := pos.Apply(m)
	assert.Equal(t, board.Black, next.Turn())
	assert.Equal(t, 0, next.HalfmoveClock())
	assert.Equal(t, 1, next.FullmoveNumber())

	ep, ok := next.EnPassant()
	assert.True(t, ok)
	assert.Equal(t, board.E3, ep)
}

func TestApplyCastlingMovesRookToo(t *testing.T) {
	pos, err := board.NewPosition([]board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.H1, Color: board.White, Piece: board.Rook},
		{Square: board.A8, Color: board.Black, Piece: board.King},
	}, board.White, board.WhiteKingSideCastle, board.ZeroSquare, 0, 1)
	require.NoError(t, err)

	m, ok := pos.Find("e1g1")
	require.True(t, ok)

	next := pos.Apply(m)

	color, piece, ok := next.Square(board.F1)
	require.True(t, ok)
	assert.Equal(t, board.White, color)
	assert.Equal(t, board.Rook, piece)

	assert.False(t, next.Castling().IsAllowed(board.WhiteKingSideCastle))
}

func TestHasInsufficientMaterial(t *testing.T) {
	tests := []struct {
		name     string
		pieces   []board.Placement
		expected bool
	}{
		{
			"bare kings",
			[]board.Placement{
				{board.A1, board.White, board.King},
				{board.A8, board.Black, board.King},
			},
			true,
		},
		{
			"king and single minor versus bare king",
			[]board.Placement{
				{board.A1, board.White, board.King},
				{board.B1, board.White, board.Knight},
				{board.A8, board.Black, board.King},
			},
			true,
		},
		{
			"king and rook",
			[]board.Placement{
				{board.A1, board.White, board.King},
				{board.B1, board.White, board.Rook},
				{board.A8, board.Black, board.King},
			},
			false,
		},
		{
			"same-colored bishops",
			[]board.Placement{
				{board.A1, board.White, board.King},
				{board.C1, board.White, board.Bishop},
				{board.A8, board.Black, board.King},
				{board.F8, board.Black, board.Bishop},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := board.NewPosition(tt.pieces, board.White, board.ZeroCastling, board.ZeroSquare, 0, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pos.HasInsufficientMaterial())
		})
	}
}

func TestTerminalFoolsMate(t *testing.T) {
	pos, err := fen.Decode("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)

	assert.Equal(t, board.Checkmate, pos.Terminal())
}

func TestTerminalStalemate(t *testing.T) {
	pos, err := fen.Decode("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)

	assert.Equal(t, board.Stalemate, pos.Terminal())
}

func TestPerftDepth3StartingPosition(t *testing.T) {
	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	assert.Equal(t, int64(8902), perft(pos, 3))
}

func perft(pos *board.Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	var nodes int64
	for _, m := range pos.LegalMoves() {
		next := pos.Apply(m)
		nodes += perft(&next, depth-1)
	}
	return nodes
}
