// Package confidence implements the single, fixed mapping from an engine evaluation to a
// coach-facing confidence percentage. It is intentionally the one leaf of the system built
// directly on the standard library: the formula is closed-form arithmetic, and nothing in
// the corpus this was built from reaches for a third-party dependency to compute a logistic
// curve over a handful of numbers.
package confidence

import (
	"math"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
)

// K is the logistic curve's slope, fixed per the mapping's single allowed formula.
const K = 0.4

// Percent is a confidence value in [0, 100] from one side's perspective: FromCentipawns and
// FromMate return it for the side to move, FromTerminal for the side it is given. Package cse
// stores node confidences in the fixed frame of the side to move at the search root.
type Percent int

// FromCentipawns maps a non-mate engine score for the side to move into [0, 100] using the
// logistic win-probability curve: 100 / (1 + exp(-k * cp / 100)).
func FromCentipawns(cp int32) Percent {
	p := 100.0 / (1.0 + math.Exp(-K*float64(cp)/100.0))
	return clamp(round(p))
}

// FromMate maps a forced mate distance for the side to move: positive mateIn means the side
// to move delivers mate and is fully confident; negative means the side to move gets mated.
func FromMate(mateIn int) Percent {
	if mateIn > 0 {
		return 100
	}
	return 0
}

// FromTerminal maps a position's terminal outcome for side, independent of any engine score.
func FromTerminal(reason board.TerminalReason, side board.Color, checkmatedSide board.Color) Percent {
	switch reason {
	case board.Checkmate:
		if side == checkmatedSide {
			return 0
		}
		return 100
	case board.Stalemate, board.InsufficientMaterial, board.FiftyMoveRule:
		return 50
	default:
		return 50
	}
}

func round(p float64) int {
	return int(math.Round(p))
}

func clamp(p int) Percent {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return Percent(p)
	}
}
