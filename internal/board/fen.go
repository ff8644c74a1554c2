package board

import (
	"strconv"
	"strings"
)

// StartFEN is the initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FromFEN parses a position. The clock fields may be omitted and then default
// to 0 and 1. Any other defect yields a *MalformedInputError wrapping
// ErrMalformedFEN.
func FromFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 4 && len(fields) != 6 {
		return nil, fenError(fen, "fields", "expected 6 space-separated fields")
	}
	p := newEmptyPosition()

	if err := p.parsePlacement(fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fenError(fields[1], "side to move", "expected w or b")
	}

	if err := p.parseCastling(fields[2]); err != nil {
		return nil, err
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fenError(fields[3], "en passant", "not a square")
		}
		want := 5
		if p.SideToMove == Black {
			want = 2
		}
		if sq.Rank() != want {
			return nil, fenError(fields[3], "en passant", "square must be on rank 3 or 6 behind the pushed pawn")
		}
		p.EnPassant = sq
	}

	if len(fields) == 6 {
		hmc, err := strconv.Atoi(fields[4])
		if err != nil || hmc < 0 {
			return nil, fenError(fields[4], "halfmove clock", "expected a non-negative integer")
		}
		fmn, err := strconv.Atoi(fields[5])
		if err != nil || fmn < 1 {
			return nil, fenError(fields[5], "fullmove number", "expected a positive integer")
		}
		p.HalfMoveClock, p.FullMoveNumber = hmc, fmn
	}

	if err := p.validate(fen); err != nil {
		return nil, err
	}
	p.Hash = p.ComputeHash()
	p.PawnKey = p.ComputePawnKey()
	p.updateCheckers()
	return p, nil
}

func (p *Position) parsePlacement(s string) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return fenError(s, "placement", "expected 8 ranks")
	}
	for i, row := range ranks {
		rank, file := 7-i, 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc := PieceFromChar(c)
			if pc == NoPiece {
				return fenError(s, "placement", "unknown piece letter "+string(c))
			}
			if file > 7 {
				return fenError(s, "placement", "rank "+strconv.Itoa(rank+1)+" overflows")
			}
			p.put(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fenError(s, "placement", "rank "+strconv.Itoa(rank+1)+" does not cover 8 files")
		}
	}
	return nil
}

func (p *Position) parseCastling(s string) error {
	if s == "-" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte("KQkq", s[i])
		if idx < 0 {
			return fenError(s, "castling", "expected a subset of KQkq")
		}
		flag := CastlingRights(1 << idx)
		if p.CastlingRights&flag != 0 {
			return fenError(s, "castling", "repeated flag")
		}
		p.CastlingRights |= flag
	}
	// Rights without the pieces on their home squares cannot be exercised.
	if p.Board[E1] != WhiteKing {
		p.CastlingRights &^= WhiteKingSide | WhiteQueenSide
	}
	if p.Board[H1] != WhiteRook {
		p.CastlingRights &^= WhiteKingSide
	}
	if p.Board[A1] != WhiteRook {
		p.CastlingRights &^= WhiteQueenSide
	}
	if p.Board[E8] != BlackKing {
		p.CastlingRights &^= BlackKingSide | BlackQueenSide
	}
	if p.Board[H8] != BlackRook {
		p.CastlingRights &^= BlackKingSide
	}
	if p.Board[A8] != BlackRook {
		p.CastlingRights &^= BlackQueenSide
	}
	return nil
}

func (p *Position) validate(fen string) error {
	for c := White; c <= Black; c++ {
		if p.Pieces[c][King].PopCount() != 1 {
			return fenError(fen, "placement", c.String()+" must have exactly one king")
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fenError(fen, "placement", "pawn on first or last rank")
	}
	them := p.SideToMove.Other()
	if p.IsAttacked(p.SideToMove, p.KingSquare[them]) {
		return fenError(fen, "side to move", "side not to move is in check")
	}
	return nil
}

// ToFEN serializes the position; FromFEN(p.ToFEN()) reproduces p.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := " w "
	if p.SideToMove == Black {
		side = " b "
	}
	sb.WriteString(side)
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))
	return sb.String()
}

// Key returns the FEN without move counters, identifying a position for
// storage.
func (p *Position) Key() string {
	fen := p.ToFEN()
	for i := 0; i < 2; i++ {
		fen = fen[:strings.LastIndexByte(fen, ' ')]
	}
	return fen
}
