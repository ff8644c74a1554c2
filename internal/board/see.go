package board

// seeValue are the exchange values used by SEE, indexed by piece type.
var seeValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// SEE statically evaluates the exchange sequence started by m on its target
// square and returns the expected material balance for the side to move.
// Quiet moves score the loss of the moving piece if the square is attacked.
func (p *Position) SEE(m Move) int {
	from, to := m.From(), m.To()
	var gain [32]int

	occ := p.AllOccupied &^ SquareBB(from)
	attackerType := m.Piece().Type()
	if m.Kind() == EnPassant {
		occ &^= SquareBB(to ^ 8)
	}
	if m.IsCapture() {
		gain[0] = seeValue[m.Captured().Type()]
	}
	if m.IsPromotion() {
		gain[0] += seeValue[m.Promotion()] - seeValue[Pawn]
		attackerType = m.Promotion()
	}

	side := p.SideToMove.Other()
	attackers := p.AttackersTo(to, occ) & occ
	d := 0
	for {
		d++
		// Speculative: only counts if the other side has a recapture.
		gain[d] = seeValue[attackerType] - gain[d-1]
		sq, pt := p.leastValuableAttacker(attackers&p.Occupied[side], side)
		if sq == NoSquare {
			break
		}
		occ &^= SquareBB(sq)
		// Re-scan sliders so x-ray attackers behind the piece join in.
		attackers = p.AttackersTo(to, occ) & occ
		attackerType = pt
		side = side.Other()
		if d == len(gain)-1 {
			break
		}
	}
	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

// SEEGE reports whether SEE(m) >= threshold.
func (p *Position) SEEGE(m Move, threshold int) bool { return p.SEE(m) >= threshold }

func (p *Position) leastValuableAttacker(attackers Bitboard, c Color) (Square, PieceType) {
	for pt := Pawn; pt <= King; pt++ {
		if bb := attackers & p.Pieces[c][pt]; bb != 0 {
			return bb.LSB(), pt
		}
	}
	return NoSquare, NoPieceType
}
