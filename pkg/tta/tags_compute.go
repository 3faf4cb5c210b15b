package tta

import (
	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/eval"
)

func tagOpenFiles(pos *board.Position, side board.Color, tags map[TagId]bool) {
	allPawns := pos.Piece(board.White, board.Pawn) | pos.Piece(board.Black, board.Pawn)
	rooksQueens := pos.Piece(side, board.Rook) | pos.Piece(side, board.Queen)
	for f := board.FileH; f <= board.FileA; f++ {
		if rooksQueens&board.BitFile(f) == 0 {
			continue
		}
		if allPawns&board.BitFile(f) == 0 {
			tags[openFileTags[f]] = true
		}
	}
}

// chebyshev returns the Chebyshev (king-move) distance between two squares.
func chebyshev(a, b board.Square) int {
	df := int(a.File()) - int(b.File())
	if df < 0 {
		df = -df
	}
	dr := int(a.Rank()) - int(b.Rank())
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}

func homePawnRank(c board.Color) board.Bitboard {
	if c == board.White {
		return board.BitRank(board.Rank2)
	}
	return board.BitRank(board.Rank7)
}

// anyPawnHasMoved approximates "at least one pawn has moved from its starting rank or a
// capture/promotion has occurred" from a bare position snapshot: true whenever either side is
// missing a pawn from its home rank count, which covers both advances and pawns lost to
// capture or promotion.
func anyPawnHasMoved(pos *board.Position) bool {
	for _, c := range []board.Color{board.White, board.Black} {
		onHome := (pos.Piece(c, board.Pawn) & homePawnRank(c)).PopCount()
		if onHome < 8 {
			return true
		}
	}
	return false
}

func tagHoles(pos *board.Position, side board.Color, opponentAttacks board.Bitboard, tags map[TagId]bool) {
	if !anyPawnHasMoved(pos) {
		return
	}

	king := pos.KingSquare(side)
	pawns := pos.Piece(side, board.Pawn)
	reach := board.PawnCaptureboard(side, pawns) | board.PawnCaptureboard(side, board.PawnMoveboard(pos.Occupied(), side, pawns))

	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		if !pos.IsEmpty(sq) {
			continue
		}
		if chebyshev(king, sq) > 2 {
			continue
		}
		if reach&board.BitMask(sq) != 0 {
			continue
		}
		if opponentAttacks&board.BitMask(sq) == 0 {
			continue
		}
		kf, sf := int(king.File()), int(sq.File())
		if kf-sf > 1 || sf-kf > 1 {
			continue
		}
		tags[TagHoleKingZone] = true
		return
	}
}

func tagKingSafety(pos *board.Position, side board.Color, opponentAttacks board.Bitboard, tags map[TagId]bool) {
	king := pos.KingSquare(side)
	if shieldPawnCount(pos, side, king) <= 1 {
		tags[TagKingShieldThin] = true
	}
	if (board.KingAttackboard(king) & opponentAttacks).PopCount() >= 3 {
		tags[TagKingAttackersMany] = true
	}

	kf := king.File()
	if kf != board.FileD && kf != board.FileE {
		return
	}
	allPawns := pos.Piece(board.White, board.Pawn) | pos.Piece(board.Black, board.Pawn)
	friendlyPawns := pos.Piece(side, board.Pawn)
	if allPawns&board.BitFile(kf) != 0 && friendlyPawns&board.BitFile(kf) != 0 {
		return // file is neither open nor semi-open for this side.
	}

	castling := pos.Castling()
	kingside, queenside := hasCastlingRights(castling, side)
	thin := false
	if kingside && shieldCount(pos, side, board.FileF, board.FileG, board.FileH) <= 1 {
		thin = true
	}
	if queenside && shieldCount(pos, side, board.FileA, board.FileB, board.FileC) <= 1 {
		thin = true
	}
	if thin {
		tags[TagKingCenterExposed] = true
	}
}

func hasCastlingRights(c board.Castling, side board.Color) (kingside, queenside bool) {
	if side == board.White {
		return c.IsAllowed(board.WhiteKingSideCastle), c.IsAllowed(board.WhiteQueenSideCastle)
	}
	return c.IsAllowed(board.BlackKingSideCastle), c.IsAllowed(board.BlackQueenSideCastle)
}

func shieldCount(pos *board.Position, side board.Color, files ...board.File) int {
	pawns := pos.Piece(side, board.Pawn)
	n := 0
	for _, f := range files {
		n += (pawns & board.BitFile(f)).PopCount()
	}
	return n
}

func tagOutposts(pos *board.Position, side board.Color, tags map[TagId]bool) {
	opp := side.Opponent()
	rank4plus := board.BitRank(board.Rank4) | board.BitRank(board.Rank5) | board.BitRank(board.Rank6) | board.BitRank(board.Rank7)
	if side == board.Black {
		rank4plus = board.BitRank(board.Rank5) | board.BitRank(board.Rank4) | board.BitRank(board.Rank3) | board.BitRank(board.Rank2)
	}
	oppPawns := pos.Piece(opp, board.Pawn)

	for _, pt := range []board.Piece{board.Knight, board.Bishop} {
		bb := pos.Piece(side, pt) & rank4plus
		for bb != 0 {
			sq := bb.LastPopSquare()
			bb ^= board.BitMask(sq)
			if board.PawnCaptureboard(side, board.BitMask(sq))&oppPawns != 0 {
				continue // attackable by an enemy pawn: not a true outpost.
			}
			friendlyPawns := pos.Piece(side, board.Pawn)
			if board.PawnCaptureboard(opp, board.BitMask(sq))&friendlyPawns == 0 {
				continue // not even defended by a friendly pawn.
			}
			if pt == board.Knight {
				tags[TagOutpostKnight] = true
			} else {
				tags[TagOutpostBishop] = true
			}
		}
	}
}

func tagPawns(pos *board.Position, side board.Color, tags map[TagId]bool) {
	opp := side.Opponent()
	pawns := pos.Piece(side, board.Pawn)
	oppPawns := pos.Piece(opp, board.Pawn)

	bb := pawns
	for bb != 0 {
		sq := bb.LastPopSquare()
		bb ^= board.BitMask(sq)

		if isPassed(sq, side, oppPawns) {
			tags[TagPawnPassed] = true
		}
		if board.PawnCaptureboard(side, board.BitMask(sq))&oppPawns != 0 {
			tags[TagPawnLever] = true
		}
	}
}

func isPassed(sq board.Square, side board.Color, oppPawns board.Bitboard) bool {
	f := sq.File()
	files := board.BitFile(f)
	if f > board.FileH {
		files |= board.BitFile(f - 1)
	}
	if f < board.FileA {
		files |= board.BitFile(f + 1)
	}

	var ahead board.Bitboard
	if side == board.White {
		for r := sq.Rank() + 1; r <= board.Rank8; r++ {
			ahead |= board.BitRank(r)
		}
	} else {
		for r := sq.Rank(); r > board.Rank1; r-- {
			ahead |= board.BitRank(r - 1)
		}
	}
	return oppPawns&files&ahead == 0
}

func tagRooks(pos *board.Position, side board.Color, tags map[TagId]bool) {
	allPawns := pos.Piece(board.White, board.Pawn) | pos.Piece(board.Black, board.Pawn)
	rooks := pos.Piece(side, board.Rook)
	bb := rooks
	for bb != 0 {
		sq := bb.LastPopSquare()
		bb ^= board.BitMask(sq)
		if allPawns&board.BitFile(sq.File()) == 0 {
			tags[TagRookOpenFile] = true
		}
	}

	seventh := board.Rank7
	if side == board.Black {
		seventh = board.Rank2
	}
	if rooks&board.BitRank(seventh) != 0 {
		tags[TagRookRank7] = true
	}
}

func tagTactics(pos *board.Position, side board.Color, tags map[TagId]bool) {
	opp := side.Opponent()
	if len(eval.FindPins(pos, opp, board.King)) > 0 {
		tags[TagTacticPin] = true
	}

	king := pos.KingSquare(opp)
	if pos.Turn() == opp && (king.Rank() == board.Rank1 || king.Rank() == board.Rank8) {
		if len(pos.LegalMoves()) == 0 {
			tags[TagTacticBackrank] = true
		}
	}

	if hasFork(pos, side) {
		tags[TagTacticFork] = true
	}

	if hasTrappedPiece(pos, side) {
		tags[TagPieceTrapped] = true
	}

	if hasSkewer(pos, side) {
		tags[TagTacticSkewer] = true
	}
	if hasDiscoveredAttack(pos, side) {
		tags[TagTacticDiscovered] = true
	}
}

// hasSkewer reports whether side has lined up an attacker through one of the opponent's
// pieces onto a less valuable opponent piece behind it -- the same geometry FindPins detects,
// but with the front (pinned) piece worth more than the back (target), so moving it loses
// material regardless of whether it moves.
func hasSkewer(pos *board.Position, side board.Color) bool {
	opp := side.Opponent()
	for _, backPiece := range []board.Piece{board.Queen, board.Rook, board.Bishop, board.Knight} {
		for _, pin := range eval.FindPins(pos, opp, backPiece) {
			_, frontPiece, ok := pos.Square(pin.Pinned)
			if !ok {
				continue
			}
			if eval.NominalValue(frontPiece) > eval.NominalValue(backPiece) {
				return true
			}
		}
	}
	return false
}

// hasDiscoveredAttack reports whether one of side's sliders and the opponent's king, each seen
// as that slider type, have exactly one own piece in the overlap of their attack sets. This is
// a geometric approximation of "aligned through exactly one own piece": the overlap also holds
// squares where the two attack sets cross without lying between them, so the check can fire
// on a piece that is not on the line, and can miss a line when a second own piece sits on a
// crossing square.
func hasDiscoveredAttack(pos *board.Position, side board.Color) bool {
	opp := side.Opponent()
	king := pos.KingSquare(opp)

	for _, pt := range []board.Piece{board.Rook, board.Queen} {
		bb := pos.Piece(side, pt)
		for bb != 0 {
			sq := bb.LastPopSquare()
			bb ^= board.BitMask(sq)

			blockers := board.RookAttackboard(pos.Rotated(), sq) & board.RookAttackboard(pos.Rotated(), king)
			between := blockers & pos.Color(side)
			if between.PopCount() == 1 {
				return true
			}
		}
	}

	bishopLike := []board.Piece{board.Bishop, board.Queen}
	for _, pt := range bishopLike {
		bb := pos.Piece(side, pt)
		for bb != 0 {
			sq := bb.LastPopSquare()
			bb ^= board.BitMask(sq)

			blockers := board.BishopAttackboard(pos.Rotated(), sq) & board.BishopAttackboard(pos.Rotated(), king)
			between := blockers & pos.Color(side)
			if between.PopCount() == 1 {
				return true
			}
		}
	}
	return false
}

// hasTrappedPiece reports whether any minor or major piece of side is attacked by a cheaper
// opponent piece and has no legal move landing on a square free of an equal-or-cheaper
// attacker -- a simplified "no safe square" trapped-piece test, not full SEE.
func hasTrappedPiece(pos *board.Position, side board.Color) bool {
	opp := side.Opponent()
	if pos.Turn() != side {
		return false // escape squares come from LegalMoves, which only lists the mover's moves.
	}

	for _, pt := range []board.Piece{board.Knight, board.Bishop, board.Rook, board.Queen} {
		bb := pos.Piece(side, pt)
		for bb != 0 {
			sq := bb.LastPopSquare()
			bb ^= board.BitMask(sq)

			attackers := eval.FindCapture(pos, opp, sq)
			if len(attackers) == 0 {
				continue
			}
			cheapest := eval.SortByNominalValue(attackers)[0]
			if eval.NominalValue(cheapest.Piece) >= eval.NominalValue(pt) {
				continue
			}

			if !hasSafeSquare(pos, side, opp, sq, pt) {
				return true
			}
		}
	}
	return false
}

// hasSafeSquare reports whether the piece on sq has some legal destination not itself attacked
// by an opponent piece worth no more than pt.
func hasSafeSquare(pos *board.Position, side, opp board.Color, sq board.Square, pt board.Piece) bool {
	for _, mv := range pos.LegalMoves() {
		if mv.From != sq {
			continue
		}
		next := pos.Apply(mv)
		defenders := eval.FindCapture(&next, opp, mv.To)
		if len(defenders) == 0 {
			return true
		}
		cheapest := eval.SortByNominalValue(defenders)[0]
		if eval.NominalValue(cheapest.Piece) > eval.NominalValue(pt) {
			return true
		}
	}
	return false
}

// hasFork reports whether any single piece of side simultaneously attacks two or more of the
// opponent's pieces.
func hasFork(pos *board.Position, side board.Color) bool {
	opp := side.Opponent()
	oppPieces := pos.Color(opp)
	rot := pos.Rotated()

	for _, pt := range []board.Piece{board.Knight, board.Bishop, board.Rook, board.Queen} {
		bb := pos.Piece(side, pt)
		for bb != 0 {
			sq := bb.LastPopSquare()
			bb ^= board.BitMask(sq)
			if (board.Attackboard(rot, sq, pt) & oppPieces).PopCount() >= 2 {
				return true
			}
		}
	}

	pawns := pos.Piece(side, board.Pawn)
	bb := pawns
	for bb != 0 {
		sq := bb.LastPopSquare()
		bb ^= board.BitMask(sq)
		if (board.PawnCaptureboard(side, board.BitMask(sq)) & oppPieces).PopCount() >= 2 {
			return true
		}
	}
	return false
}
