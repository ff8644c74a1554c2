package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

const minThinkTime = 10 * time.Millisecond

// TimeManager turns a Budget into a soft and a hard deadline. The soft
// (optimum) time is checked between iterations, the hard (maximum) time
// inside the tree.
type TimeManager struct {
	start   time.Time
	base    time.Duration
	optimum time.Duration
	maximum time.Duration
	timed   bool
}

// Init computes the allotment for us at game ply. overhead is reserved for
// communication lag.
func (tm *TimeManager) Init(b *Budget, us board.Color, ply int, overhead time.Duration, start time.Time) {
	*tm = TimeManager{start: start, timed: b.timed()}
	if !tm.timed {
		return
	}

	if b.MoveTime > 0 {
		t := clamp(b.MoveTime-overhead, minThinkTime, b.MoveTime)
		tm.base, tm.optimum, tm.maximum = t, t, t
		return
	}

	timeLeft, inc := b.clock(us)
	timeLeft = max(timeLeft-overhead, minThinkTime)

	mtg := b.MovesToGo
	if mtg == 0 {
		// Sudden death: expect fewer remaining moves as the game goes on.
		mtg = clamp(50-ply/4, 10, 50)
	}

	optimum := timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		optimum = optimum * 85 / 100
	}
	maximum := min(optimum*5, timeLeft*8/10)

	tm.base = clamp(optimum, minThinkTime, timeLeft)
	tm.optimum = tm.base
	tm.maximum = clamp(maximum, tm.optimum, timeLeft*95/100)
}

// Timed reports whether the budget set any clock.
func (tm *TimeManager) Timed() bool { return tm.timed }

// Elapsed returns the time since the search started.
func (tm *TimeManager) Elapsed() time.Duration { return time.Since(tm.start) }

// OptimumTime returns the current soft limit.
func (tm *TimeManager) OptimumTime() time.Duration { return tm.optimum }

// MaximumTime returns the hard limit.
func (tm *TimeManager) MaximumTime() time.Duration { return tm.maximum }

// ShouldStop reports whether the hard limit has passed.
func (tm *TimeManager) ShouldStop() bool {
	return tm.timed && tm.Elapsed() >= tm.maximum
}

// PastOptimum reports whether starting another iteration would overspend.
func (tm *TimeManager) PastOptimum() bool {
	return tm.timed && tm.Elapsed() >= tm.optimum
}

// Adjust rescales the soft limit from the best move history: stability is
// the number of consecutive iterations that kept the best move, changes the
// number of recent best move changes.
func (tm *TimeManager) Adjust(stability, changes int) {
	pct := 100
	switch {
	case changes >= 4:
		pct = 200
	case changes >= 2:
		pct = 150
	case stability >= 6:
		pct = 40
	case stability >= 4:
		pct = 60
	case stability >= 2:
		pct = 80
	}
	tm.optimum = min(tm.base*time.Duration(pct)/100, tm.maximum)
}
