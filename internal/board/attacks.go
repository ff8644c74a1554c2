package board

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	// betweenBB excludes both end squares; lineBB spans the whole board edge to edge.
	betweenBB [64][64]Bitboard
	lineBB    [64][64]Bitboard
)

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = stepAttacks(sq, knightSteps[:])
		kingAttacks[sq] = stepAttacks(sq, kingSteps[:])
		pawnAttacks[White][sq] = SquareBB(sq).PawnAttacks(White)
		pawnAttacks[Black][sq] = SquareBB(sq).PawnAttacks(Black)
	}
	initMagics()
	for a := A1; a <= H8; a++ {
		for _, d := range kingSteps {
			ray := slide(a, d[0], d[1], Empty)
			for r := ray; r != 0; {
				b := r.PopLSB()
				betweenBB[a][b] = ray & slide(b, -d[0], -d[1], Empty)
				lineBB[a][b] = ray | slide(a, -d[0], -d[1], Empty) | SquareBB(a)
			}
		}
	}
}

func onBoard(f, r int) bool { return f >= 0 && f < 8 && r >= 0 && r < 8 }

func stepAttacks(sq Square, steps [][2]int) Bitboard {
	var bb Bitboard
	for _, s := range steps {
		if f, r := sq.File()+s[0], sq.Rank()+s[1]; onBoard(f, r) {
			bb |= SquareBB(NewSquare(f, r))
		}
	}
	return bb
}

// slide walks from sq in direction (df, dr) up to and including the first
// occupied square.
func slide(sq Square, df, dr int, occupied Bitboard) Bitboard {
	var bb Bitboard
	for f, r := sq.File()+df, sq.Rank()+dr; onBoard(f, r); f, r = f+df, r+dr {
		s := SquareBB(NewSquare(f, r))
		bb |= s
		if occupied&s != 0 {
			break
		}
	}
	return bb
}

func KnightAttacks(sq Square) Bitboard               { return knightAttacks[sq] }
func KingAttacks(sq Square) Bitboard                 { return kingAttacks[sq] }
func PawnAttacks(sq Square, c Color) Bitboard        { return pawnAttacks[c][sq] }
func BishopAttacks(sq Square, occ Bitboard) Bitboard { return bishopMagics[sq].attacks(occ) }
func RookAttacks(sq Square, occ Bitboard) Bitboard   { return rookMagics[sq].attacks(occ) }

func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return bishopMagics[sq].attacks(occ) | rookMagics[sq].attacks(occ)
}

// Between returns the squares strictly between a and b, or Empty if they
// share no line.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Line returns the full line through a and b, or Empty if they share none.
func Line(a, b Square) Bitboard { return lineBB[a][b] }

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool { return lineBB[a][b].IsSet(c) }

// AttacksFrom returns the attack set of piece type pt of color c on sq.
func AttacksFrom(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Queen:
		return QueenAttacks(sq, occ)
	case King:
		return kingAttacks[sq]
	}
	return Empty
}

// AttackersTo returns pieces of both colors attacking sq given occupancy occ.
func (p *Position) AttackersTo(sq Square, occ Bitboard) Bitboard {
	return p.AttackersByColor(sq, White, occ) | p.AttackersByColor(sq, Black, occ)
}

// AttackersByColor returns pieces of color c attacking sq given occupancy occ.
func (p *Position) AttackersByColor(sq Square, c Color, occ Bitboard) Bitboard {
	pc := &p.Pieces[c]
	return pawnAttacks[c.Other()][sq]&pc[Pawn] |
		knightAttacks[sq]&pc[Knight] |
		kingAttacks[sq]&pc[King] |
		BishopAttacks(sq, occ)&(pc[Bishop]|pc[Queen]) |
		RookAttacks(sq, occ)&(pc[Rook]|pc[Queen])
}

// IsAttacked reports whether any piece of color by attacks sq.
func (p *Position) IsAttacked(by Color, sq Square) bool {
	return p.AttackersByColor(sq, by, p.AllOccupied) != 0
}

func (p *Position) updateCheckers() {
	ksq := p.KingSquare[p.SideToMove]
	if ksq == NoSquare {
		p.Checkers = 0
		return
	}
	p.Checkers = p.AttackersByColor(ksq, p.SideToMove.Other(), p.AllOccupied)
}
