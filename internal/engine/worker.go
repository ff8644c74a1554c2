package engine

import (
	"math"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/movegen"
	"github.com/hailam/chesscore/internal/tt"
)

// Pruning margins in centipawns.
const (
	reverseFutilityDepth  = 6
	reverseFutilityMargin = 80
	razorDepth            = 3
	razorBase             = 300
	razorPerDepth         = 100
	nullMinDepth          = 2
	nullVerifyDepth       = 6
	deltaMargin           = 200
)

var futilityMargin = [3]int{0, 200, 500}

// lmrReductions[depth][moveNumber] is the late move reduction in plies.
var lmrReductions [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(0.75 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
}

// enter counts a node unless a limit has been reached. The node budget is
// exact; time, the stop flag and the context are polled every pollMask+1
// nodes.
func (s *search) enter(ply int) bool {
	if s.aborted {
		return false
	}
	if s.nodes >= s.nodeLimit {
		s.aborted = true
		return false
	}
	s.nodes++
	s.seldepth = max(s.seldepth, ply)
	if s.nodes&pollMask == 0 {
		s.poll()
	}
	return !s.aborted
}

func (s *search) poll() {
	s.e.nodes.Store(s.nodes)
	switch {
	case s.e.stop.Load(), s.ctx.Err() != nil:
		s.aborted = true
	case !s.e.pondering.Load() && s.tm.ShouldStop():
		s.aborted = true
	}
}

func (s *search) evaluate() int {
	v := s.eval.Evaluate(s.pos)
	return clamp(v, -tt.MateThreshold+1, tt.MateThreshold-1)
}

func (s *search) drawScore() int {
	return DrawScore(s.pos, s.contempt)
}

// isDraw applies the fifty-move rule, dead positions, a repetition inside
// the search path, and a threefold repetition with the game history.
func (s *search) isDraw(ply int) bool {
	pos := s.pos
	return pos.IsFiftyMoveDraw() || pos.CheckInsufficientMaterial() ||
		pos.RepeatedSince(ply) || pos.CheckRepetitions(2)
}

// ttMove returns the move stored for the current position after checking it
// is legal here. With hash verification on, a stored illegal move under a
// matching full key is an invariant violation.
func (s *search) ttMove(e tt.Entry) board.Move {
	if e.Move == board.NoMove || s.pos.IsLegal(e.Move) {
		return e.Move
	}
	if s.verify {
		panic(&board.InvariantViolation{What: "hash move " + e.Move.String() + " illegal in " + s.pos.ToFEN()})
	}
	return board.NoMove
}

func (s *search) negamax(depth, ply, alpha, beta int, allowNull bool) int {
	s.pv.length[ply] = ply
	if depth <= 0 {
		return s.quiescence(ply, alpha, beta, 0)
	}
	if !s.enter(ply) {
		return 0
	}
	pos := s.pos
	if s.isDraw(ply) {
		return s.drawScore()
	}
	if ply >= MaxPly-1 {
		return s.evaluate()
	}

	// Mate distance pruning.
	alpha = max(alpha, MatedIn(ply))
	beta = min(beta, MateIn(ply+1))
	if alpha >= beta {
		return alpha
	}

	pvNode := beta-alpha > 1
	hashMove := board.NoMove
	if e, ok := s.tt.Get(pos.Hash); ok {
		hashMove = s.ttMove(e)
		if !pvNode && int(e.Depth) >= depth {
			score := tt.ScoreFromTT(int(e.Score), ply)
			switch {
			case e.Bound == tt.Exact,
				e.Bound == tt.Lower && score >= beta,
				e.Bound == tt.Upper && score <= alpha:
				return score
			}
		}
	}

	inCheck := pos.InCheck()
	us := pos.SideToMove
	staticEval := -Infinity
	if !inCheck {
		staticEval = s.evaluate()
	}

	if !pvNode && !inCheck {
		if depth <= reverseFutilityDepth && !IsMateScore(beta) &&
			staticEval-reverseFutilityMargin*depth >= beta {
			return staticEval
		}

		if depth <= razorDepth && staticEval+razorBase+razorPerDepth*depth <= alpha {
			score := s.quiescence(ply, alpha, beta, 0)
			if depth == 1 || score <= alpha {
				return score
			}
		}

		if allowNull && depth >= nullMinDepth && staticEval >= beta && pos.HasNonPawnMaterial(us) {
			r := 3 + depth/4
			pos.MakeNullMove()
			score := -s.negamax(depth-1-r, ply+1, -beta, -beta+1, false)
			pos.UndoNullMove()
			if s.aborted {
				return 0
			}
			if score >= beta {
				if score > tt.MateThreshold {
					score = beta
				}
				if depth < nullVerifyDepth {
					return score
				}
				// Guard against zugzwang with a reduced search without null moves.
				if v := s.negamax(depth-r, ply, beta-1, beta, false); v >= beta {
					return score
				}
				if s.aborted {
					return 0
				}
			}
		}
	}

	futile := !pvNode && !inCheck && depth < len(futilityMargin) && !IsMateScore(alpha) &&
		staticEval+futilityMargin[depth] <= alpha

	killers := s.killers[ply]
	pk := &s.pickers[ply]
	pk.Init(pos, movegen.Hints{PV: hashMove, Killers: killers, History: s.history})

	origAlpha := alpha
	best, bestMove := -Infinity, board.NoMove
	moveCount := 0
	var quiets [64]board.Move
	nq := 0

	for {
		m, ok := pk.Next()
		if !ok {
			break
		}
		moveCount++
		quiet := m.IsQuiet()
		givesCheck := pos.GivesCheck(m)
		if futile && moveCount > 1 && quiet && !givesCheck {
			continue
		}

		pos.MakeMove(m)
		newDepth := depth - 1
		if inCheck {
			newDepth++
		}
		var score int
		if moveCount == 1 {
			score = -s.negamax(newDepth, ply+1, -beta, -alpha, true)
		} else {
			r := 0
			if depth >= 3 && moveCount > 3 && quiet && !inCheck && !givesCheck &&
				m != killers[0] && m != killers[1] {
				r = lmrReductions[min(depth, 63)][min(moveCount, 63)]
				if pvNode {
					r--
				}
				r = clamp(r, 0, newDepth-1)
			}
			score = -s.negamax(newDepth-r, ply+1, -alpha-1, -alpha, true)
			if score > alpha && r > 0 {
				score = -s.negamax(newDepth, ply+1, -alpha-1, -alpha, true)
			}
			if score > alpha && score < beta {
				score = -s.negamax(newDepth, ply+1, -beta, -alpha, true)
			}
		}
		pos.UndoMove()
		if s.aborted {
			return 0
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				bestMove = m
				s.pv.update(ply, m)
			}
		}
		if score >= beta {
			if quiet {
				s.killers[ply].Add(m)
				s.history.Update(us, m, depth, true)
				for _, q := range quiets[:nq] {
					s.history.Update(us, q, depth, false)
				}
			}
			s.tt.Put(pos.Hash, m, tt.ScoreToTT(score, ply), tt.Lower, depth)
			return score
		}
		if quiet && nq < len(quiets) {
			quiets[nq] = m
			nq++
		}
	}

	if moveCount == 0 {
		if inCheck {
			return MatedIn(ply)
		}
		return s.drawScore()
	}

	bound := tt.Upper
	if best > origAlpha {
		bound = tt.Exact
	}
	s.tt.Put(pos.Hash, bestMove, tt.ScoreToTT(best, ply), bound, depth)
	return best
}

// quiescence resolves captures until the position is quiet. At its first
// ply it also tries quiet checks; in check it searches every evasion.
func (s *search) quiescence(ply, alpha, beta, qply int) int {
	s.pv.length[ply] = ply
	if !s.enter(ply) {
		return 0
	}
	s.qnodes++
	pos := s.pos
	if ply > 0 && s.isDraw(ply) {
		return s.drawScore()
	}
	if ply >= MaxPly-1 {
		return s.evaluate()
	}

	inCheck := pos.InCheck()
	pk := &s.pickers[ply]
	best := -Infinity
	standPat := 0
	if inCheck {
		pk.Init(pos, movegen.Hints{})
	} else {
		standPat = s.evaluate()
		if standPat >= beta {
			return standPat
		}
		if standPat+board.PieceValue[board.Queen]+deltaMargin < alpha {
			return standPat
		}
		best = standPat
		alpha = max(alpha, standPat)
		pk.InitCaptures(pos, qply == 0)
	}

	moveCount := 0
	for {
		m, ok := pk.Next()
		if !ok {
			break
		}
		moveCount++
		if !inCheck {
			gain := 0
			if m.IsCapture() {
				gain = board.PieceValue[m.Captured().Type()]
			}
			if m.IsPromotion() {
				gain += board.PieceValue[m.Promotion()] - board.PieceValue[board.Pawn]
			}
			if m.IsCapture() && standPat+gain+deltaMargin <= alpha {
				continue
			}
			if !m.IsPromotion() && !pos.SEEGE(m, 0) {
				continue
			}
		}

		pos.MakeMove(m)
		score := -s.quiescence(ply+1, -beta, -alpha, qply+1)
		pos.UndoMove()
		if s.aborted {
			return 0
		}
		if score > best {
			best = score
			if score > alpha {
				alpha = score
			}
		}
		if score >= beta {
			return score
		}
	}

	if inCheck && moveCount == 0 {
		return MatedIn(ply)
	}
	return best
}
