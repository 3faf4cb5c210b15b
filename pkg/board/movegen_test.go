package board

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPseudoLegalMoves(t *testing.T) {
	t.Run("pawns", func(t *testing.T) {
		tests := []struct {
			turn      Color
			pieces    []Placement
			enpassant Square
			expected  []Move
		}{
			{ // Empty board
				White,
				nil,
				ZeroSquare,
				nil,
			},
			{ // Pawn @ E2,G5
				White,
				[]Placement{
					{E2, White, Pawn},
					{G5, White, Pawn},
				},
				ZeroSquare,
				[]Move{
					{Type: Push, Piece: Pawn, From: E2, To: E3},
					{Type: Jump, Piece: Pawn, From: E2, To: E4},
					{Type: Push, Piece: Pawn, From: G5, To: G6},
				},
			},
			{ // Pawn @ C7,G6
				Black,
				[]Placement{
					{C7, Black, Pawn},
					{G6, Black, Pawn},
				},
				ZeroSquare,
				[]Move{
					{Type: Push, Piece: Pawn, From: G6, To: G5},
					{Type: Push, Piece: Pawn, From: C7, To: C6},
					{Type: Jump, Piece: Pawn, From: C7, To: C5},
				},
			},
			{ // Pawn @ E2,H5 -- obstructed w/ capture
				White,
				[]Placement{
					{E2, White, Pawn},
					{E4, Black, Bishop},
					{D3, Black, Knight},
					{D4, Black, Rook},
					{H5, White, Pawn},
					{G6, Black, Bishop},
					{H6, Black, Knight},
					{A6, Black, Rook},
				},
				ZeroSquare,
				[]Move{
					{Type: Capture, Piece: Pawn, From: E2, To: D3, Capture: Knight},
					{Type: Push, Piece: Pawn, From: E2, To: E3},
					{Type: Capture, Piece: Pawn, From: H5, To: G6, Capture: Bishop},
				},
			},
			{ // Pawn @ D7
				White,
				[]Placement{
					{D7, White, Pawn},
				},
				ZeroSquare,
				[]Move{
					{Type: Promotion, Piece: Pawn, From: D7, To: D8, Promotion: Queen},
					{Type: Promotion, Piece: Pawn, From: D7, To: D8, Promotion: Rook},
					{Type: Promotion, Piece: Pawn, From: D7, To: D8, Promotion: Bishop},
					{Type: Promotion, Piece: Pawn, From: D7, To: D8, Promotion: Knight},
				},
			},
			{ // Pawn @ C4,E4,F4 -- en passant
				Black,
				[]Placement{
					{C4, Black, Pawn},
					{D4, White, Pawn},
					{E4, Black, Pawn},
					{F4, Black, Pawn},
				},
				D3,
				[]Move{
					{Type: Push, Piece: Pawn, From: F4, To: F3},
					{Type: Push, Piece: Pawn, From: E4, To: E3},
					{Type: EnPassant, Piece: Pawn, From: E4, To: D3, Capture: Pawn},
					{Type: Push, Piece: Pawn, From: C4, To: C3},
					{Type: EnPassant, Piece: Pawn, From: C4, To: D3, Capture: Pawn},
				},
			},
		}

		for _, tt := range tests {
			pos := newTestPosition(t, tt.pieces, tt.turn, ZeroCastling, tt.enpassant)

			actual := pos.pawnPseudoMoves(tt.turn)
			assertSameMoves(t, tt.expected, actual)
		}
	})

	t.Run("officers", func(t *testing.T) {
		tests := []struct {
			piece    Piece
			pieces   []Placement
			expected []Move
		}{
			{ // King @ A3
				King,
				[]Placement{
					{A3, White, King},
					{B3, Black, Rook},
					{A2, Black, Bishop},
				},
				[]Move{
					{Type: Normal, Piece: King, From: A3, To: B2},
					{Type: Normal, Piece: King, From: A3, To: B4},
					{Type: Normal, Piece: King, From: A3, To: A4},
					{Type: Capture, Piece: King, From: A3, To: A2, Capture: Bishop},
					{Type: Capture, Piece: King, From: A3, To: B3, Capture: Rook},
				},
			},
			{ // Knight @ A3
				Knight,
				[]Placement{
					{A3, White, Knight},
					{B1, Black, Rook},
					{B2, Black, Bishop},
					{C2, Black, Queen},
				},
				[]Move{
					{Type: Normal, Piece: Knight, From: A3, To: C4},
					{Type: Normal, Piece: Knight, From: A3, To: B5},
					{Type: Capture, Piece: Knight, From: A3, To: B1, Capture: Rook},
					{Type: Capture, Piece: Knight, From: A3, To: C2, Capture: Queen},
				},
			},
			{ // Bishop @ G3 -- partly obstructed
				Bishop,
				[]Placement{
					{G3, White, Bishop},
					{F2, Black, Rook},
					{E5, Black, Rook},
				},
				[]Move{
					{Type: Normal, Piece: Bishop, From: G3, To: H2},
					{Type: Normal, Piece: Bishop, From: G3, To: H4},
					{Type: Normal, Piece: Bishop, From: G3, To: F4},
					{Type: Capture, Piece: Bishop, From: G3, To: F2, Capture: Rook},
					{Type: Capture, Piece: Bishop, From: G3, To: E5, Capture: Rook},
				},
			},
			{ // Rook @ D3
				Rook,
				[]Placement{
					{D3, White, Rook},
					{B3, Black, Rook},
					{E3, Black, Bishop},
					{D5, Black, Queen},
				},
				[]Move{
					{Type: Normal, Piece: Rook, From: D3, To: D1},
					{Type: Normal, Piece: Rook, From: D3, To: D2},
					{Type: Normal, Piece: Rook, From: D3, To: C3},
					{Type: Normal, Piece: Rook, From: D3, To: D4},
					{Type: Capture, Piece: Rook, From: D3, To: E3, Capture: Bishop},
					{Type: Capture, Piece: Rook, From: D3, To: B3, Capture: Rook},
					{Type: Capture, Piece: Rook, From: D3, To: D5, Capture: Queen},
				},
			},
		}

		for _, tt := range tests {
			pos := newTestPosition(t, tt.pieces, White, ZeroCastling, ZeroSquare)

			actual := pos.officerPseudoMoves(White, tt.piece)
			assertSameMoves(t, tt.expected, actual)
		}
	})

	t.Run("castling", func(t *testing.T) {
		tests := []struct {
			turn     Color
			pieces   []Placement
			castling Castling
			expected []Move
		}{
			{ // No rights
				White,
				[]Placement{
					{E1, White, King},
					{H1, White, Rook},
					{A1, White, Rook},
				},
				ZeroCastling,
				nil,
			},
			{ // Full rights.
				White,
				[]Placement{
					{E1, White, King},
					{H1, White, Rook},
					{A1, White, Rook},
				},
				FullCastingRights,
				[]Move{
					{Type: KingSideCastle, Piece: King, From: E1, To: G1},
					{Type: QueenSideCastle, Piece: King, From: E1, To: C1},
				},
			},
			{ // Obstructed
				Black,
				[]Placement{
					{E8, Black, King},
					{H8, Black, Rook},
					{G8, White, Bishop},
					{A8, Black, Rook},
				},
				FullCastingRights,
				[]Move{
					{Type: QueenSideCastle, Piece: King, From: E8, To: C8},
				},
			},
			{ // Partial rights.
				Black,
				[]Placement{
					{E8, Black, King},
					{H8, Black, Rook},
					{A8, Black, Rook},
				},
				BlackQueenSideCastle | WhiteKingSideCastle,
				[]Move{
					{Type: QueenSideCastle, Piece: King, From: E8, To: C8},
				},
			},
		}

		for _, tt := range tests {
			pos := newTestPosition(t, tt.pieces, tt.turn, tt.castling, ZeroSquare)

			actual := pos.castlingPseudoMoves(tt.turn)
			assertSameMoves(t, tt.expected, actual)
		}
	})
}

func newTestPosition(t *testing.T, pieces []Placement, turn Color, castling Castling, ep Square) *Position {
	t.Helper()

	pieces = append(pieces, minimalKingsFor(pieces)...)
	pos, err := NewPosition(pieces, turn, castling, ep, 0, 1)
	require.NoError(t, err)
	return pos
}

// minimalKingsFor adds far-corner kings for either side missing one, so test fixtures that
// only care about a particular piece's moves don't need to spell out both kings every time.
func minimalKingsFor(pieces []Placement) []Placement {
	var hasWhite, hasBlack bool
	for _, p := range pieces {
		if p.Piece == King {
			if p.Color == White {
				hasWhite = true
			} else {
				hasBlack = true
			}
		}
	}

	occupied := map[Square]bool{}
	for _, p := range pieces {
		occupied[p.Square] = true
	}

	var extra []Placement
	if !hasWhite {
		extra = append(extra, Placement{Square: firstFree(occupied, H1), Color: White, Piece: King})
	}
	if !hasBlack {
		extra = append(extra, Placement{Square: firstFree(occupied, H8), Color: Black, Piece: King})
	}
	return extra
}

func firstFree(occupied map[Square]bool, start Square) Square {
	candidates := []Square{start, A1, A8, H1, H8}
	for _, sq := range candidates {
		if !occupied[sq] {
			return sq
		}
	}
	panic("no free square for king")
}

// assertSameMoves compares two move lists as sets: generation order is an implementation
// detail, not part of the contract.
func assertSameMoves(t *testing.T, expected, actual []Move) {
	t.Helper()
	assert.Equal(t, printMoves(expected), printMoves(actual))
}

func printMoves(ms []Move) string {
	var list []string
	for _, m := range ms {
		list = append(list, fmt.Sprintf("%v/%v/%v/%v/%v/%v", m.Type, m.From, m.To, m.Piece, m.Capture, m.Promotion))
	}
	sort.Strings(list)
	return strings.Join(list, "\n")
}
