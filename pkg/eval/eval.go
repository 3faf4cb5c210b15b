// Package eval contains pure, engine-independent material accounting used by the theme/tag
// analyzer. It holds no search or position-scoring logic of its
// own: all positional evaluation comes from the external UCI engine via package engine.
package eval

import (
	"fmt"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
)

// Pawns is a material balance expressed in units of a pawn.
type Pawns float32

func (p Pawns) String() string {
	return fmt.Sprintf("%.2f", p)
}

// Material returns the nominal material balance of pos from the given side's perspective:
// positive favors side.
func Material(pos *board.Position, side board.Color) Pawns {
	var pawns Pawns
	for p := board.Pawn; p <= board.King; p++ {
		pawns += Pawns(pos.Piece(side, p).PopCount()-pos.Piece(side.Opponent(), p).PopCount()) * NominalValue(p)
	}
	return pawns
}

// NominalValue is the absolute nominal value in pawns of a piece. The King has an arbitrary
// value of 100 pawns, used only to keep capture-gain accounting well-defined.
func NominalValue(p board.Piece) Pawns {
	switch p {
	case board.Pawn:
		return 1
	case board.Bishop, board.Knight:
		return 3
	case board.Rook:
		return 5
	case board.Queen:
		return 9
	case board.King:
		return 100
	default:
		return 0
	}
}

// NominalValueGain is the nominal material gain for a move.
func NominalValueGain(m board.Move) Pawns {
	switch m.Type {
	case board.CapturePromotion:
		return NominalValue(m.Capture) + NominalValue(m.Promotion) - NominalValue(board.Pawn)
	case board.Promotion:
		return NominalValue(m.Promotion) - NominalValue(board.Pawn)
	case board.Capture:
		return NominalValue(m.Capture)
	case board.EnPassant:
		return NominalValue(board.Pawn)
	default:
		return 0
	}
}
