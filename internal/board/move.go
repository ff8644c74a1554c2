package board

// MoveKind distinguishes the moves that need special handling.
type MoveKind uint8

const (
	Normal MoveKind = iota
	DoublePush
	CastleKing
	CastleQueen
	EnPassant
	Promotion
)

// Move is a packed move record:
//
//	bits  0-5   from square
//	bits  6-11  to square
//	bits 12-15  moving piece
//	bits 16-19  captured piece (NoPiece when none)
//	bits 20-22  promotion piece type (NoPieceType when none)
//	bits 23-25  kind
type Move uint32

// NoMove is the zero move. No real move encodes to zero since from != to.
const NoMove Move = 0

// NewMove packs a move. Callers outside move generation normally obtain moves
// from the generator or ParseMove instead.
func NewMove(from, to Square, piece, captured Piece, promo PieceType, kind MoveKind) Move {
	return Move(from) | Move(to)<<6 | Move(piece)<<12 | Move(captured)<<16 |
		Move(promo)<<20 | Move(kind)<<23
}

func (m Move) From() Square         { return Square(m & 0x3F) }
func (m Move) To() Square           { return Square(m >> 6 & 0x3F) }
func (m Move) Piece() Piece         { return Piece(m >> 12 & 0xF) }
func (m Move) Captured() Piece      { return Piece(m >> 16 & 0xF) }
func (m Move) Promotion() PieceType { return PieceType(m >> 20 & 0x7) }
func (m Move) Kind() MoveKind       { return MoveKind(m >> 23 & 0x7) }

func (m Move) IsCapture() bool   { return m.Captured() != NoPiece }
func (m Move) IsPromotion() bool { return m.Kind() == Promotion }
func (m Move) IsEnPassant() bool { return m.Kind() == EnPassant }
func (m Move) IsCastle() bool    { return m.Kind() == CastleKing || m.Kind() == CastleQueen }

// IsQuiet reports a move that neither captures nor promotes.
func (m Move) IsQuiet() bool { return !m.IsCapture() && !m.IsPromotion() }

// String renders coordinate notation: e2e4, e7e8q, 0000 for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// MoveList is a fixed-capacity, allocation-free move sequence.
type MoveList struct {
	moves [256]Move
	count int
}

func (ml *MoveList) Len() int          { return ml.count }
func (ml *MoveList) Get(i int) Move    { return ml.moves[i] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }
func (ml *MoveList) Swap(i, j int)     { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Clear()            { ml.count = 0 }
func (ml *MoveList) Slice() []Move     { return ml.moves[:ml.count] }

// Add appends m. The list holds 256 moves, more than any position has.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for _, x := range ml.moves[:ml.count] {
		if x == m {
			return true
		}
	}
	return false
}

// Find returns the first move whose coordinate notation is s.
func (ml *MoveList) Find(s string) (Move, bool) {
	for _, x := range ml.moves[:ml.count] {
		if x.String() == s {
			return x, true
		}
	}
	return NoMove, false
}

// ParseMove resolves coordinate notation against the legal moves of p.
func (p *Position) ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, &MalformedInputError{Input: s, Field: "move", Reason: "expected coordinate notation", Err: ErrIllegalMove}
	}
	var legal MoveList
	p.GenerateLegal(&legal)
	if m, ok := legal.Find(s); ok {
		return m, nil
	}
	return NoMove, &MalformedInputError{Input: s, Field: "move", Reason: "not legal in " + p.ToFEN(), Err: ErrIllegalMove}
}
