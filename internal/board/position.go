package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a set of the four castling flags.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Has reports whether c may still castle on the given wing.
func (cr CastlingRights) Has(c Color, kingSide bool) bool {
	flag := WhiteKingSide
	if !kingSide {
		flag = WhiteQueenSide
	}
	return cr&(flag<<(2*c)) != 0
}

// castleMask[sq] is ANDed into the rights whenever a move touches sq.
var castleMask [64]CastlingRights

func init() {
	for sq := range castleMask {
		castleMask[sq] = AllCastling
	}
	castleMask[E1] &^= WhiteKingSide | WhiteQueenSide
	castleMask[H1] &^= WhiteKingSide
	castleMask[A1] &^= WhiteQueenSide
	castleMask[E8] &^= BlackKingSide | BlackQueenSide
	castleMask[H8] &^= BlackKingSide
	castleMask[A8] &^= BlackQueenSide
}

// castleRookSquares returns the rook's origin and destination for a castle.
func castleRookSquares(kind MoveKind, c Color) (Square, Square) {
	base := Square(0)
	if c == Black {
		base = A8
	}
	if kind == CastleKing {
		return base + H1, base + F1
	}
	return base + A1, base + D1
}

// undoRecord is what UndoMove needs beyond the move itself.
type undoRecord struct {
	move      Move
	castling  CastlingRights
	enPassant Square
	halfMove  int
	fullMove  int
	hash      uint64
	pawnKey   uint64
	checkers  Bitboard
	null      bool
}

// Position is a mutable board state. It is not safe for concurrent use;
// search owns it exclusively and walks the tree with MakeMove/UndoMove.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard
	Board       [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	Hash    uint64
	PawnKey uint64

	KingSquare [2]Square
	Checkers   Bitboard

	undo    []undoRecord
	history []uint64 // keys of every earlier position, oldest first
}

func newEmptyPosition() *Position {
	p := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
		undo:           make([]undoRecord, 0, 256),
		history:        make([]uint64, 0, 256),
	}
	for sq := range p.Board {
		p.Board[sq] = NoPiece
	}
	return p
}

// NewStartPosition returns the initial position of a game.
func NewStartPosition() *Position {
	p, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// Copy returns an independent deep copy, undo stack and history included.
func (p *Position) Copy() *Position {
	c := *p
	c.undo = append(make([]undoRecord, 0, cap(p.undo)), p.undo...)
	c.history = append(make([]uint64, 0, cap(p.history)), p.history...)
	return &c
}

// PieceAt returns the piece on sq or NoPiece.
func (p *Position) PieceAt(sq Square) Piece { return p.Board[sq] }

// Ply is the number of moves that can currently be undone.
func (p *Position) Ply() int { return len(p.undo) }

// LastMove is the most recent move made, NoMove after a null move or at the
// start.
func (p *Position) LastMove() Move {
	if len(p.undo) == 0 {
		return NoMove
	}
	return p.undo[len(p.undo)-1].move
}

// History returns the keys of all earlier positions, oldest first. The
// returned slice must not be modified.
func (p *Position) History() []uint64 { return p.history }

func (p *Position) put(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Board[sq] = pc
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) remove(sq Square) Piece {
	pc := p.Board[sq]
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Board[sq] = NoPiece
	return pc
}

func (p *Position) shift(from, to Square) {
	pc := p.Board[from]
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	p.Board[from] = NoPiece
	p.Board[to] = pc
	if pt == King {
		p.KingSquare[c] = to
	}
}

func (p *Position) pushUndo(m Move, null bool) {
	p.undo = append(p.undo, undoRecord{
		move:      m,
		castling:  p.CastlingRights,
		enPassant: p.EnPassant,
		halfMove:  p.HalfMoveClock,
		fullMove:  p.FullMoveNumber,
		hash:      p.Hash,
		pawnKey:   p.PawnKey,
		checkers:  p.Checkers,
		null:      null,
	})
	p.history = append(p.history, p.Hash)
}

func (p *Position) popUndo(null bool) undoRecord {
	n := len(p.undo)
	if n == 0 {
		violation("undo with empty stack")
	}
	u := p.undo[n-1]
	if u.null != null {
		violation("undo order mismatch at ply %d", n)
	}
	p.undo = p.undo[:n-1]
	p.history = p.history[:len(p.history)-1]
	return u
}

// MakeMove plays m, which must be legal in p, updating every field and the
// hash incrementally.
func (p *Position) MakeMove(m Move) {
	p.pushUndo(m, false)

	us := p.SideToMove
	from, to := m.From(), m.To()
	pc := m.Piece()
	h := p.Hash

	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++

	if captured := m.Captured(); captured != NoPiece {
		capSq := to
		if m.Kind() == EnPassant {
			capSq = to ^ 8
		}
		p.remove(capSq)
		h ^= zobristPiece[captured][capSq]
		if captured.Type() == Pawn {
			p.PawnKey ^= zobristPiece[captured][capSq]
		}
		p.HalfMoveClock = 0
	}

	switch m.Kind() {
	case Promotion:
		promo := NewPiece(m.Promotion(), us)
		p.remove(from)
		p.put(promo, to)
		h ^= zobristPiece[pc][from] ^ zobristPiece[promo][to]
		p.PawnKey ^= zobristPiece[pc][from]
	case CastleKing, CastleQueen:
		rfrom, rto := castleRookSquares(m.Kind(), us)
		rook := NewPiece(Rook, us)
		p.shift(from, to)
		p.shift(rfrom, rto)
		h ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
		h ^= zobristPiece[rook][rfrom] ^ zobristPiece[rook][rto]
	default:
		p.shift(from, to)
		h ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
		if pc.Type() == Pawn {
			p.PawnKey ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
		}
	}

	if pc.Type() == Pawn {
		p.HalfMoveClock = 0
		if m.Kind() == DoublePush {
			p.EnPassant = (from + to) / 2
			h ^= zobristEnPassant[p.EnPassant.File()]
		}
	}

	if cr := p.CastlingRights & castleMask[from] & castleMask[to]; cr != p.CastlingRights {
		h ^= zobristCastling[p.CastlingRights] ^ zobristCastling[cr]
		p.CastlingRights = cr
	}

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
	p.Hash = h ^ zobristSide
	p.updateCheckers()
}

// UndoMove takes back the last MakeMove, restoring the earlier state bit for
// bit. It panics with *InvariantViolation if there is nothing to undo.
func (p *Position) UndoMove() {
	u := p.popUndo(false)
	m := u.move
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	from, to := m.From(), m.To()

	switch m.Kind() {
	case Promotion:
		p.remove(to)
		p.put(m.Piece(), from)
	case CastleKing, CastleQueen:
		rfrom, rto := castleRookSquares(m.Kind(), us)
		p.shift(to, from)
		p.shift(rto, rfrom)
	default:
		p.shift(to, from)
	}
	if captured := m.Captured(); captured != NoPiece {
		capSq := to
		if m.Kind() == EnPassant {
			capSq = to ^ 8
		}
		p.put(captured, capSq)
	}

	p.CastlingRights = u.castling
	p.EnPassant = u.enPassant
	p.HalfMoveClock = u.halfMove
	p.FullMoveNumber = u.fullMove
	p.Hash = u.hash
	p.PawnKey = u.pawnKey
	p.Checkers = u.checkers
}

// MakeNullMove passes the turn, leaving the fullmove number alone. It panics
// with *InvariantViolation when the side to move is in check.
func (p *Position) MakeNullMove() {
	if p.Checkers != 0 {
		violation("null move while in check: %s", p.ToFEN())
	}
	p.pushUndo(NoMove, true)
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSide
	p.updateCheckers()
}

// UndoNullMove takes back MakeNullMove.
func (p *Position) UndoNullMove() {
	u := p.popUndo(true)
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = u.enPassant
	p.HalfMoveClock = u.halfMove
	p.FullMoveNumber = u.fullMove
	p.Hash = u.hash
	p.Checkers = u.checkers
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

// GivesCheck reports whether m, legal in p, checks the opponent.
func (p *Position) GivesCheck(m Move) bool {
	switch m.Kind() {
	case EnPassant, CastleKing, CastleQueen, Promotion:
		p.MakeMove(m)
		check := p.Checkers != 0
		p.UndoMove()
		return check
	}
	us := p.SideToMove
	ksq := p.KingSquare[us.Other()]
	from, to := m.From(), m.To()
	occ := p.AllOccupied&^SquareBB(from) | SquareBB(to)
	if AttacksFrom(m.Piece().Type(), us, to, occ).IsSet(ksq) {
		return true
	}
	if Line(from, ksq) == 0 {
		return false
	}
	ours := &p.Pieces[us]
	diag := (ours[Bishop] | ours[Queen]) &^ SquareBB(from)
	orth := (ours[Rook] | ours[Queen]) &^ SquareBB(from)
	return BishopAttacks(ksq, occ)&diag|RookAttacks(ksq, occ)&orth != 0
}

// HasCheckMate reports whether the side to move is checkmated.
func (p *Position) HasCheckMate() bool {
	return p.Checkers != 0 && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no moves and is not in
// check.
func (p *Position) IsStalemate() bool {
	return p.Checkers == 0 && !p.HasLegalMoves()
}

// CheckInsufficientMaterial reports dead positions: bare kings, a single
// minor piece, or bishops that all stand on one square color.
func (p *Position) CheckInsufficientMaterial() bool {
	for c := White; c <= Black; c++ {
		if p.Pieces[c][Pawn]|p.Pieces[c][Rook]|p.Pieces[c][Queen] != 0 {
			return false
		}
	}
	knights := p.Pieces[White][Knight] | p.Pieces[Black][Knight]
	bishops := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop]
	switch minors := (knights | bishops).PopCount(); {
	case minors <= 1:
		return true
	case knights != 0:
		return false
	}
	return bishops&LightSquares == 0 || bishops&DarkSquares == 0
}

// IsFiftyMoveDraw reports whether the fifty-move rule applies.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100 && (p.Checkers == 0 || p.HasLegalMoves())
}

// CountRepetitions counts earlier occurrences of the current position inside
// the reversible window, i.e. since the last capture or pawn move.
func (p *Position) CountRepetitions() int {
	n := len(p.history)
	limit := min(p.HalfMoveClock, n)
	count := 0
	for back := 4; back <= limit; back += 2 {
		if p.history[n-back] == p.Hash {
			count++
		}
	}
	return count
}

// CheckRepetitions reports whether the position occurred at least n times
// before. CheckRepetitions(2) flags a threefold repetition.
func (p *Position) CheckRepetitions(n int) bool {
	return p.CountRepetitions() >= n
}

// RepeatedSince reports whether the current position occurred within the
// last plies moves.
func (p *Position) RepeatedSince(plies int) bool {
	n := len(p.history)
	limit := min(p.HalfMoveClock, n, plies)
	for back := 4; back <= limit; back += 2 {
		if p.history[n-back] == p.Hash {
			return true
		}
	}
	return false
}

// Pinned returns the pieces of the side to move that are pinned to their
// king.
func (p *Position) Pinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	snipers := RookAttacks(ksq, 0)&(p.Pieces[them][Rook]|p.Pieces[them][Queen]) |
		BishopAttacks(ksq, 0)&(p.Pieces[them][Bishop]|p.Pieces[them][Queen])
	var pinned Bitboard
	for snipers != 0 {
		blockers := Between(snipers.PopLSB(), ksq) & p.AllOccupied
		if blockers != 0 && !blockers.More() {
			pinned |= blockers & p.Occupied[us]
		}
	}
	return pinned
}

// HasNonPawnMaterial reports whether c has a piece other than pawns and king.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	pc := &p.Pieces[c]
	return pc[Knight]|pc[Bishop]|pc[Rook]|pc[Queen] != 0
}

// Material is the sum of piece values of c, kings excluded.
func (p *Position) Material(c Color) int {
	total := 0
	for pt := Pawn; pt < King; pt++ {
		total += p.Pieces[c][pt].PopCount() * PieceValue[pt]
	}
	return total
}

var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

// Phase runs from 24 with all pieces on the board down to 0 with none.
func (p *Position) Phase() int {
	phase := 0
	for pt := Knight; pt <= Queen; pt++ {
		phase += phaseWeight[pt] * (p.Pieces[White][pt] | p.Pieces[Black][pt]).PopCount()
	}
	return min(phase, 24)
}

// VerifyHash panics with *InvariantViolation when the incremental keys have
// drifted from a full recomputation.
func (p *Position) VerifyHash() {
	if h := p.ComputeHash(); h != p.Hash {
		violation("hash %016x, recomputed %016x at %s", p.Hash, h, p.ToFEN())
	}
	if k := p.ComputePawnKey(); k != p.PawnKey {
		violation("pawn key %016x, recomputed %016x", p.PawnKey, k)
	}
}

func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				sb.WriteString(" .")
			} else {
				sb.WriteString(" " + pc.String())
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	fmt.Fprintf(&sb, "fen: %s\nkey: %016x\n", p.ToFEN(), p.Hash)
	return sb.String()
}
