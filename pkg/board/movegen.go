package board

// pseudoLegalMoves returns every move available to turn without regard to whether it leaves
// its own king in check; LegalMoves filters those out by simulation.
func (p *Position) pseudoLegalMoves(turn Color) []Move {
	var out []Move
	out = append(out, p.pawnPseudoMoves(turn)...)
	for _, piece := range []Piece{Knight, Bishop, Rook, Queen, King} {
		out = append(out, p.officerPseudoMoves(turn, piece)...)
	}
	out = append(out, p.castlingPseudoMoves(turn)...)
	return out
}

func (p *Position) own(c Color) Bitboard {
	return p.pieces[c][NoPiece]
}

func (p *Position) enemy(c Color) Bitboard {
	return p.pieces[c.Opponent()][NoPiece]
}

func (p *Position) officerPseudoMoves(turn Color, piece Piece) []Move {
	var out []Move

	bb := p.pieces[turn][piece]
	for bb != 0 {
		from := bb.LastPopSquare()
		bb ^= BitMask(from)

		attacks := Attackboard(p.rotated, from, piece) &^ p.own(turn)
		for attacks != 0 {
			to := attacks.LastPopSquare()
			attacks ^= BitMask(to)

			if p.IsEmpty(to) {
				out = append(out, Move{Type: Normal, From: from, To: to, Piece: piece})
			} else {
				_, cap, _ := p.Square(to)
				out = append(out, Move{Type: Capture, From: from, To: to, Piece: piece, Capture: cap})
			}
		}
	}
	return out
}

// pawnHomeRank returns the rank pawns of the given color start on.
func pawnHomeRank(c Color) Rank {
	if c == White {
		return Rank2
	}
	return Rank7
}

func (p *Position) pawnPseudoMoves(turn Color) []Move {
	var out []Move

	occ := p.Occupied()
	pawns := p.pieces[turn][Pawn]

	for pawns != 0 {
		from := pawns.LastPopSquare()
		pawns ^= BitMask(from)

		fromBoard := BitMask(from)

		// Captures, including en passant.
		captures := PawnCaptureboard(turn, fromBoard)

		targets := captures & p.enemy(turn)
		for targets != 0 {
			to := targets.LastPopSquare()
			targets ^= BitMask(to)
			out = append(out, p.pawnMoves(turn, from, to, false)...)
		}

		if ep, ok := p.EnPassant(); ok && captures&BitMask(ep) != 0 {
			out = append(out, Move{Type: EnPassant, From: from, To: ep, Piece: Pawn, Capture: Pawn})
		}

		// Single and double pushes.
		single := PawnMoveboard(occ, turn, fromBoard)
		if single != 0 {
			to := single.LastPopSquare()
			out = append(out, p.pawnMoves(turn, from, to, true)...)

			if from.Rank() == pawnHomeRank(turn) {
				double := PawnMoveboard(occ, turn, single)
				if double != 0 {
					to2 := double.LastPopSquare()
					out = append(out, Move{Type: Jump, From: from, To: to2, Piece: Pawn})
				}
			}
		}
	}
	return out
}

// pawnMoves expands a single pawn destination into one move, or four promotion moves if the
// destination lands on the back rank.
func (p *Position) pawnMoves(turn Color, from, to Square, isPush bool) []Move {
	promoting := BitMask(to)&PawnPromotionRank(turn) != 0

	var capture Piece
	if !isPush {
		_, capture, _ = p.Square(to)
	}

	if !promoting {
		if isPush {
			return []Move{{Type: Push, From: from, To: to, Piece: Pawn}}
		}
		return []Move{{Type: Capture, From: from, To: to, Piece: Pawn, Capture: capture}}
	}

	out := make([]Move, 0, 4)
	for _, promo := range []Piece{Queen, Rook, Bishop, Knight} {
		if isPush {
			out = append(out, Move{Type: Promotion, From: from, To: to, Piece: Pawn, Promotion: promo})
		} else {
			out = append(out, Move{Type: CapturePromotion, From: from, To: to, Piece: Pawn, Promotion: promo, Capture: capture})
		}
	}
	return out
}

func (p *Position) castlingPseudoMoves(turn Color) []Move {
	var out []Move
	occ := p.Occupied()

	if turn == White {
		if p.castling.IsAllowed(WhiteKingSideCastle) &&
			occ&(BitMask(F1)|BitMask(G1)) == 0 &&
			!p.IsAttacked(White, E1) && !p.IsAttacked(White, F1) && !p.IsAttacked(White, G1) {
			out = append(out, Move{Type: KingSideCastle, From: E1, To: G1, Piece: King})
		}
		if p.castling.IsAllowed(WhiteQueenSideCastle) &&
			occ&(BitMask(D1)|BitMask(C1)|BitMask(B1)) == 0 &&
			!p.IsAttacked(White, E1) && !p.IsAttacked(White, D1) && !p.IsAttacked(White, C1) {
			out = append(out, Move{Type: QueenSideCastle, From: E1, To: C1, Piece: King})
		}
		return out
	}

	if p.castling.IsAllowed(BlackKingSideCastle) &&
		occ&(BitMask(F8)|BitMask(G8)) == 0 &&
		!p.IsAttacked(Black, E8) && !p.IsAttacked(Black, F8) && !p.IsAttacked(Black, G8) {
		out = append(out, Move{Type: KingSideCastle, From: E8, To: G8, Piece: King})
	}
	if p.castling.IsAllowed(BlackQueenSideCastle) &&
		occ&(BitMask(D8)|BitMask(C8)|BitMask(B8)) == 0 &&
		!p.IsAttacked(Black, E8) && !p.IsAttacked(Black, D8) && !p.IsAttacked(Black, C8) {
		out = append(out, Move{Type: QueenSideCastle, From: E8, To: C8, Piece: King})
	}
	return out
}

// defaultMovePriority orders captures (by MVV-LVA) ahead of quiet moves, for deterministic,
// good-move-first iteration in the absence of an engine.
func defaultMovePriority(m Move) MovePriority {
	if !m.IsCapture() {
		return 0
	}
	// The offset keeps every capture, even one made by the king, above the quiet moves' zero.
	return MovePriority(100 + 10*nominalValue(capturedValue(m)) - nominalValue(m.Piece))
}

func capturedValue(m Move) Piece {
	if m.Type == EnPassant {
		return Pawn
	}
	return m.Capture
}

func nominalValue(p Piece) int {
	switch p {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	case King:
		return 100
	default:
		return 0
	}
}
