package board

// GenMode selects which pseudo-legal moves a generator call emits.
type GenMode uint8

const (
	// GenCaptures emits captures, en passant, every capturing promotion and
	// quiet queen promotions.
	GenCaptures GenMode = 1 << iota
	// GenQuiets emits the remaining moves: pushes, quiet under-promotions,
	// castling.
	GenQuiets

	GenAll = GenCaptures | GenQuiets
)

// GeneratePseudoLegal appends every pseudo-legal move to ml.
func (p *Position) GeneratePseudoLegal(ml *MoveList) { p.generate(ml, GenAll) }

// GenerateLegal appends every legal move to ml.
func (p *Position) GenerateLegal(ml *MoveList) { p.GenerateLegalMode(ml, GenAll) }

// GenerateCaptures appends the legal captures and queen promotions to ml.
func (p *Position) GenerateCaptures(ml *MoveList) { p.GenerateLegalMode(ml, GenCaptures) }

// GenerateQuiets appends the legal moves GenerateCaptures leaves out.
func (p *Position) GenerateQuiets(ml *MoveList) { p.GenerateLegalMode(ml, GenQuiets) }

// GenerateLegalMode appends the legal moves selected by mode to ml.
func (p *Position) GenerateLegalMode(ml *MoveList, mode GenMode) {
	var pseudo MoveList
	p.generate(&pseudo, mode)
	pinned := p.Pinned()
	for _, m := range pseudo.Slice() {
		if p.legalWith(m, pinned) {
			ml.Add(m)
		}
	}
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var pseudo MoveList
	p.generate(&pseudo, GenAll)
	pinned := p.Pinned()
	for _, m := range pseudo.Slice() {
		if p.legalWith(m, pinned) {
			return true
		}
	}
	return false
}

func (p *Position) generate(ml *MoveList, mode GenMode) {
	us := p.SideToMove
	them := us.Other()
	var targets Bitboard
	if mode&GenCaptures != 0 {
		targets |= p.Occupied[them] &^ p.Pieces[them][King]
	}
	if mode&GenQuiets != 0 {
		targets |= ^p.AllOccupied
	}

	p.generatePawnMoves(ml, mode)

	for pt := Knight; pt <= King; pt++ {
		pc := NewPiece(pt, us)
		for pieces := p.Pieces[us][pt]; pieces != 0; {
			from := pieces.PopLSB()
			for to := AttacksFrom(pt, us, from, p.AllOccupied) & targets; to != 0; {
				sq := to.PopLSB()
				ml.Add(NewMove(from, sq, pc, p.Board[sq], NoPieceType, Normal))
			}
		}
	}

	if mode&GenQuiets != 0 && p.Checkers == 0 {
		p.generateCastles(ml)
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, mode GenMode) {
	us := p.SideToMove
	them := us.Other()
	pawn := NewPiece(Pawn, us)
	pawns := p.Pieces[us][Pawn]
	empty := ^p.AllOccupied
	enemies := p.Occupied[them] &^ p.Pieces[them][King]

	promoRank, doubleRank := Rank8, Rank3
	back := -8
	if us == Black {
		promoRank, doubleRank = Rank1, Rank6
		back = 8
	}

	if mode&GenCaptures != 0 {
		for from := pawns; from != 0; {
			sq := from.PopLSB()
			for to := pawnAttacks[us][sq] & enemies; to != 0; {
				t := to.PopLSB()
				if SquareBB(t)&promoRank != 0 {
					addPromotions(ml, sq, t, pawn, p.Board[t])
				} else {
					ml.Add(NewMove(sq, t, pawn, p.Board[t], NoPieceType, Normal))
				}
			}
			if p.EnPassant != NoSquare && pawnAttacks[us][sq].IsSet(p.EnPassant) &&
				p.Board[p.EnPassant^8] == NewPiece(Pawn, them) {
				ml.Add(NewMove(sq, p.EnPassant, pawn, NewPiece(Pawn, them), NoPieceType, EnPassant))
			}
		}
	}

	single := pawns.Forward(us) & empty
	for bb := single & promoRank; bb != 0; {
		to := bb.PopLSB()
		from := Square(int(to) + back)
		for _, pt := range promotionOrder {
			if (pt == Queen) == (mode&GenCaptures != 0) || mode == GenAll {
				ml.Add(NewMove(from, to, pawn, NoPiece, pt, Promotion))
			}
		}
	}

	if mode&GenQuiets != 0 {
		double := (single & doubleRank).Forward(us) & empty
		for bb := single &^ promoRank; bb != 0; {
			to := bb.PopLSB()
			ml.Add(NewMove(Square(int(to)+back), to, pawn, NoPiece, NoPieceType, Normal))
		}
		for bb := double; bb != 0; {
			to := bb.PopLSB()
			ml.Add(NewMove(Square(int(to)+2*back), to, pawn, NoPiece, NoPieceType, DoublePush))
		}
	}
}

// promotionOrder lists promotion pieces from most to least valuable.
var promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

func addPromotions(ml *MoveList, from, to Square, pawn, captured Piece) {
	for _, pt := range promotionOrder {
		ml.Add(NewMove(from, to, pawn, captured, pt, Promotion))
	}
}

// generateCastles expects the side to move not to be in check.
func (p *Position) generateCastles(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	king := NewPiece(King, us)
	base := Square(0)
	if us == Black {
		base = A8
	}
	if p.CastlingRights.Has(us, true) &&
		p.AllOccupied&(SquareBB(base+F1)|SquareBB(base+G1)) == 0 &&
		!p.IsAttacked(them, base+F1) && !p.IsAttacked(them, base+G1) {
		ml.Add(NewMove(base+E1, base+G1, king, NoPiece, NoPieceType, CastleKing))
	}
	if p.CastlingRights.Has(us, false) &&
		p.AllOccupied&(SquareBB(base+B1)|SquareBB(base+C1)|SquareBB(base+D1)) == 0 &&
		!p.IsAttacked(them, base+D1) && !p.IsAttacked(them, base+C1) {
		ml.Add(NewMove(base+E1, base+C1, king, NoPiece, NoPieceType, CastleQueen))
	}
}

// legalWith decides legality of a pseudo-legal move given the pinned set.
// Castling legality is settled during generation.
func (p *Position) legalWith(m Move, pinned Bitboard) bool {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare[us]

	switch {
	case m.IsCastle():
		return true
	case m.Kind() == EnPassant:
		capSq := to ^ 8
		occ := p.AllOccupied&^(SquareBB(from)|SquareBB(capSq)) | SquareBB(to)
		theirs := &p.Pieces[them]
		if BishopAttacks(ksq, occ)&(theirs[Bishop]|theirs[Queen]) != 0 ||
			RookAttacks(ksq, occ)&(theirs[Rook]|theirs[Queen]) != 0 {
			return false
		}
		// Any remaining checker must be the captured pawn.
		return p.Checkers&^SquareBB(capSq) == 0
	case from == ksq:
		return p.AttackersByColor(to, them, p.AllOccupied&^SquareBB(from)) == 0
	}

	if p.Checkers != 0 {
		if p.Checkers.More() {
			return false
		}
		checker := p.Checkers.LSB()
		if to != checker && !Between(checker, ksq).IsSet(to) {
			return false
		}
	}
	return !pinned.IsSet(from) || Aligned(from, to, ksq)
}

// IsLegal reports whether m, from any source, is legal in p.
func (p *Position) IsLegal(m Move) bool {
	return p.IsPseudoLegal(m) && p.legalWith(m, p.Pinned())
}

// IsPseudoLegal reports whether m is a move the generator could produce for
// p. It validates moves from hash tables, killer slots and storage, which
// may have been recorded in a different position.
func (p *Position) IsPseudoLegal(m Move) bool {
	if m == NoMove {
		return false
	}
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	pc, captured, kind := m.Piece(), m.Captured(), m.Kind()
	if pc >= NoPiece || pc.Color() != us || p.Board[from] != pc || from == to {
		return false
	}
	if (kind == Promotion) != (m.Promotion() != NoPieceType) {
		return false
	}

	switch kind {
	case EnPassant:
		return pc.Type() == Pawn && to == p.EnPassant && captured == NewPiece(Pawn, them) &&
			pawnAttacks[us][from].IsSet(to) && p.Board[to] == NoPiece && p.Board[to^8] == captured
	case CastleKing, CastleQueen:
		if pc.Type() != King || captured != NoPiece || p.Checkers != 0 {
			return false
		}
		var castles MoveList
		p.generateCastles(&castles)
		return castles.Contains(m)
	}

	if p.Board[to] != captured || (captured != NoPiece && (captured.Color() != them || captured.Type() == King)) {
		return false
	}

	if pc.Type() != Pawn {
		return kind == Normal && AttacksFrom(pc.Type(), us, from, p.AllOccupied).IsSet(to)
	}

	if (to.RelativeRank(us) == 7) != (kind == Promotion) {
		return false
	}
	if m.Promotion() == Pawn || m.Promotion() == King {
		return false
	}
	if captured != NoPiece {
		return kind != DoublePush && pawnAttacks[us][from].IsSet(to)
	}
	single := SquareBB(from).Forward(us)
	if kind == DoublePush {
		return from.RelativeRank(us) == 1 && single&p.AllOccupied == 0 && single.Forward(us).IsSet(to)
	}
	return single.IsSet(to)
}
