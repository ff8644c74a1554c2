package engine

import (
	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/movegen"
)

// Evaluator scores a position in centipawns from the side to move's point
// of view. The search treats it as an oracle and calls it at most once per
// node.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// Endgame king table: the king belongs in the centre once material is off.
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// Passed pawn bonus by relative rank.
var (
	passedPawnMg = [8]int{0, 5, 10, 15, 25, 40, 60, 0}
	passedPawnEg = [8]int{0, 10, 20, 40, 70, 120, 200, 0}
)

const (
	doubledPawnMg  = -10
	doubledPawnEg  = -20
	isolatedPawnMg = -10
	isolatedPawnEg = -15

	bishopPairMg = 30
	bishopPairEg = 50

	tempoBonus = 10
	maxPhase   = 24
)

var (
	passedMask   [2][64]board.Bitboard
	adjacentFile [8]board.Bitboard
)

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFile[f] |= board.FileMask[f-1]
		}
		if f < 7 {
			adjacentFile[f] |= board.FileMask[f+1]
		}
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		span := board.FileMask[sq.File()] | adjacentFile[sq.File()]
		for r := sq.Rank() + 1; r < 8; r++ {
			passedMask[board.White][sq] |= span & board.RankMask[r]
		}
		for r := sq.Rank() - 1; r >= 0; r-- {
			passedMask[board.Black][sq] |= span & board.RankMask[r]
		}
	}
}

// MaterialEvaluator is the default evaluator: material, tapered piece-square
// tables, a bishop pair bonus and a pawn structure term cached by pawn key.
type MaterialEvaluator struct {
	pawns *PawnTable
}

// NewMaterialEvaluator returns an evaluator with a pawn cache of pawnMB
// megabytes.
func NewMaterialEvaluator(pawnMB int) *MaterialEvaluator {
	return &MaterialEvaluator{pawns: NewPawnTable(pawnMB)}
}

// Evaluate implements Evaluator.
func (e *MaterialEvaluator) Evaluate(pos *board.Position) int {
	var mg, eg int
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt < board.King; pt++ {
			pc := board.NewPiece(pt, c)
			for bb := pos.Pieces[c][pt]; bb != 0; {
				v := board.PieceValue[pt] + movegen.PieceSquare(pc, bb.PopLSB())
				mg += sign * v
				eg += sign * v
			}
		}
		ksq := pos.KingSquare[c]
		mg += sign * movegen.PieceSquare(board.NewPiece(board.King, c), ksq)
		eg += sign * kingEndgamePST[relativeIndex(c, ksq)]
		if pos.Pieces[c][board.Bishop].More() {
			mg += sign * bishopPairMg
			eg += sign * bishopPairEg
		}
	}

	pmg, peg := e.pawnStructure(pos)
	mg += pmg
	eg += peg

	phase := pos.Phase()
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase
	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// relativeIndex maps sq into a table drawn rank 8 first from c's side.
func relativeIndex(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		return sq.Mirror()
	}
	return sq
}

func (e *MaterialEvaluator) pawnStructure(pos *board.Position) (mg, eg int) {
	if e.pawns != nil {
		if mg, eg, ok := e.pawns.Probe(pos.PawnKey); ok {
			return mg, eg
		}
	}
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ours, theirs := pos.Pieces[c][board.Pawn], pos.Pieces[c.Other()][board.Pawn]
		for f := 0; f < 8; f++ {
			n := (ours & board.FileMask[f]).PopCount()
			if n > 1 {
				mg += sign * doubledPawnMg * (n - 1)
				eg += sign * doubledPawnEg * (n - 1)
			}
			if n > 0 && ours&adjacentFile[f] == 0 {
				mg += sign * isolatedPawnMg * n
				eg += sign * isolatedPawnEg * n
			}
		}
		for bb := ours; bb != 0; {
			sq := bb.PopLSB()
			if passedMask[c][sq]&theirs == 0 {
				r := sq.RelativeRank(c)
				mg += sign * passedPawnMg[r]
				eg += sign * passedPawnEg[r]
			}
		}
	}
	if e.pawns != nil {
		e.pawns.Store(pos.PawnKey, mg, eg)
	}
	return mg, eg
}

// DrawScore is the value of a drawn position for the side to move. The side
// ahead in material sees a draw as slightly bad and the side behind as
// slightly good, scaled down as material comes off.
func DrawScore(pos *board.Position, contempt int) int {
	us := pos.SideToMove
	balance := pos.Material(us) - pos.Material(us.Other())
	return -sign(balance) * contempt * pos.Phase() / maxPhase
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
