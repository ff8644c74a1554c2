package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Budget selects when a search stops. Zero fields are unset; the fields that
// are set all apply and the first one reached ends the search.
type Budget struct {
	WTime, BTime time.Duration // remaining clock time
	WInc, BInc   time.Duration // increment per move
	MovesToGo    int           // moves until the next time control, 0 for sudden death
	MoveTime     time.Duration // fixed time for this move

	Depth int    // maximum iteration depth
	Nodes uint64 // exact node budget
	Mate  int    // stop once a mate in this many moves is proven

	// SearchMoves restricts the root to these moves.
	SearchMoves []board.Move

	// Ponder searches without a clock until PonderHit; Infinite never stops on
	// its own.
	Ponder   bool
	Infinite bool
}

func (b *Budget) clock(c board.Color) (remaining, inc time.Duration) {
	if c == board.White {
		return b.WTime, b.WInc
	}
	return b.BTime, b.BInc
}

// timed reports whether the budget carries a clock or a fixed move time.
// An infinite search ignores both.
func (b *Budget) timed() bool {
	return !b.Infinite && (b.MoveTime > 0 || b.WTime > 0 || b.BTime > 0)
}
