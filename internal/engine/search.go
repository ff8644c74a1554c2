package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/movegen"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/tt"
)

const (
	aspirationDepth = 5
	aspirationDelta = 25
	aspirationLimit = 1000

	pollMask = 1023
)

// pvTable stores the principal variation; length[ply] is the index one past
// the last move of the line starting at ply.
type pvTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (t *pvTable) update(ply int, m board.Move) {
	t.moves[ply][ply] = m
	for j := ply + 1; j < t.length[ply+1]; j++ {
		t.moves[ply][j] = t.moves[ply+1][j]
	}
	t.length[ply] = max(t.length[ply+1], ply+1)
}

func (t *pvTable) line() []board.Move {
	return append([]board.Move(nil), t.moves[0][:t.length[0]]...)
}

// search is the state of one StartSearch call. It runs on a single goroutine
// and owns pos for its duration.
type search struct {
	ctx     context.Context
	e       *Engine
	pos     *board.Position
	budget  Budget
	tm      TimeManager
	tt      *tt.Table
	eval    Evaluator
	history *movegen.History
	log     zerolog.Logger

	contempt  int
	verify    bool
	nodeLimit uint64

	nodes    uint64
	qnodes   uint64
	seldepth int
	aborted  bool

	rootMoves []board.Move
	rootBest  board.Move
	rootScore int
	res       Result

	killers [MaxPly]movegen.Killers
	pickers [MaxPly]movegen.Picker
	pv      pvTable
}

func newSearch(ctx context.Context, e *Engine, pos *board.Position, b Budget, start time.Time) *search {
	s := &search{
		ctx:       ctx,
		e:         e,
		pos:       pos,
		budget:    b,
		tt:        e.tt,
		eval:      e.eval,
		history:   &e.history,
		log:       e.log,
		contempt:  e.contempt,
		verify:    e.verify,
		nodeLimit: b.Nodes,
	}
	if s.nodeLimit == 0 {
		s.nodeLimit = ^uint64(0)
	}
	ply := (pos.FullMoveNumber - 1) * 2
	if pos.SideToMove == board.Black {
		ply++
	}
	s.tm.Init(&b, pos.SideToMove, ply, e.overhead, start)
	return s
}

// run searches and converts an InvariantViolation raised anywhere below into
// a Stopped result.
func (s *search) run() (res Result) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		iv, ok := r.(*board.InvariantViolation)
		if !ok {
			panic(r)
		}
		s.log.Error().Err(iv).Uint64("nodes", s.nodes).Msg("search-aborted")
		res = s.res
		res.Nodes, res.QNodes, res.Elapsed = s.nodes, s.qnodes, s.tm.Elapsed()
		res.Status = Stopped
		res.Err = fmt.Errorf("search: %w", iv)
	}()

	res = s.iterate()
	s.waitForRelease()
	s.save(&res)
	s.log.Info().
		Str("status", res.Status.String()).
		Str("best", res.BestMove.String()).
		Str("score", FormatScore(res.Score)).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Msg("search-finished")
	return res
}

// waitForRelease holds an infinite or ponder search until the caller stops
// it or the ponder move is played.
func (s *search) waitForRelease() {
	for (s.budget.Infinite || s.e.pondering.Load()) && !s.e.stop.Load() {
		select {
		case <-s.e.wake:
		case <-s.ctx.Done():
			return
		}
	}
}

// rootList orders the legal root moves, restricted to Budget.SearchMoves
// when any of those is legal.
func (s *search) rootList() []board.Move {
	hint := board.NoMove
	if e, ok := s.tt.Get(s.pos.Hash); ok && s.pos.IsLegal(e.Move) {
		hint = e.Move
	} else if m, ok := s.storedMove(); ok {
		hint = m
	}
	var ml board.MoveList
	movegen.OrderedMoves(s.pos, movegen.Hints{PV: hint, History: s.history}, &ml)
	moves := append([]board.Move(nil), ml.Slice()...)
	if len(s.budget.SearchMoves) == 0 {
		return moves
	}
	allowed := slices.DeleteFunc(slices.Clone(moves), func(m board.Move) bool {
		return !slices.Contains(s.budget.SearchMoves, m)
	})
	if len(allowed) == 0 {
		s.log.Warn().Int("searchmoves", len(s.budget.SearchMoves)).Msg("no-legal-searchmoves")
		return moves
	}
	return allowed
}

func (s *search) storedMove() (board.Move, bool) {
	if s.e.store == nil {
		return board.NoMove, false
	}
	a, ok, err := s.e.store.Get(s.pos.ToFEN())
	if err != nil {
		s.log.Warn().Err(err).Msg("analysis-read-failed")
		return board.NoMove, false
	}
	if !ok {
		return board.NoMove, false
	}
	m, err := s.pos.ParseMove(a.BestMove)
	if err != nil {
		return board.NoMove, false
	}
	return m, true
}

func (s *search) iterate() Result {
	s.rootMoves = s.rootList()
	if len(s.rootMoves) == 0 {
		score := s.drawScore()
		if s.pos.InCheck() {
			score = MatedIn(0)
		}
		return Result{Score: score, Status: Finished, Elapsed: s.tm.Elapsed()}
	}

	maxDepth := MaxDepth
	if s.budget.Depth > 0 {
		maxDepth = min(s.budget.Depth, MaxDepth)
	}

	s.res = Result{BestMove: s.rootMoves[0], Status: Finished}
	res := &s.res
	s.rootBest = s.rootMoves[0]
	var stability, changes int
	completed := 0

	for depth := 1; depth <= maxDepth; depth++ {
		s.seldepth = 0
		s.rootBest = board.NoMove
		score := s.aspiration(depth, res.Score)

		if s.aborted {
			// A partial iteration only counts when it found a faster mate.
			if s.rootBest != board.NoMove && s.rootScore > tt.MateThreshold &&
				(completed == 0 || s.rootScore > res.Score) {
				res.BestMove, res.Score = s.rootBest, s.rootScore
				res.PV = s.pv.line()
			}
			res.Status = Stopped
			break
		}

		prev := res.BestMove
		res.BestMove, res.Score, res.Depth, res.SelDepth = s.rootBest, score, depth, s.seldepth
		res.PV = s.pv.line()
		completed = depth
		s.promote(res.BestMove)

		changes /= 2
		if res.BestMove != prev && depth > 1 {
			changes += 2
			stability = 0
		} else {
			stability++
		}
		s.tm.Adjust(stability, changes)
		s.report(res)

		if s.budget.Mate > 0 && score >= MateIn(2*s.budget.Mate-1) {
			break
		}
		if IsMateScore(score) && depth >= Mate-abs(score) {
			break
		}
		if !s.e.pondering.Load() && s.tm.PastOptimum() {
			break
		}
	}

	res.Nodes, res.QNodes, res.Elapsed = s.nodes, s.qnodes, s.tm.Elapsed()
	res.PonderMove = s.ponderMove(res)
	s.e.nodes.Store(s.nodes)
	return *res
}

// aspiration searches depth inside a window around the previous score,
// doubling the window on each failure until it gives up on it.
func (s *search) aspiration(depth, prev int) int {
	alpha, beta := -Infinity, Infinity
	delta := aspirationDelta
	if depth >= aspirationDepth && !IsMateScore(prev) {
		alpha, beta = max(prev-delta, -Infinity), min(prev+delta, Infinity)
	}
	for {
		score := s.searchRoot(depth, alpha, beta)
		if s.aborted {
			return score
		}
		if score > alpha && score < beta {
			return score
		}
		delta *= 2
		switch {
		case delta > aspirationLimit:
			alpha, beta = -Infinity, Infinity
		case score <= alpha:
			alpha = max(score-delta, -Infinity)
		default:
			beta = min(score+delta, Infinity)
		}
		s.log.Trace().Int("depth", depth).Int("alpha", alpha).Int("beta", beta).Msg("aspiration-research")
	}
}

func (s *search) searchRoot(depth, alpha, beta int) int {
	pos := s.pos
	s.pv.length[0] = 0
	best := -Infinity
	inCheck := pos.InCheck()

	for i, m := range s.rootMoves {
		pos.MakeMove(m)
		newDepth := depth - 1
		if inCheck {
			newDepth++
		}
		var score int
		if i == 0 {
			score = -s.negamax(newDepth, 1, -beta, -alpha, true)
		} else {
			score = -s.negamax(newDepth, 1, -alpha-1, -alpha, true)
			if score > alpha && score < beta {
				score = -s.negamax(newDepth, 1, -beta, -alpha, true)
			}
		}
		pos.UndoMove()
		if s.verify {
			pos.VerifyHash()
		}
		if s.aborted {
			return best
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				s.rootBest, s.rootScore = m, score
				s.pv.update(0, m)
			}
		}
		if score >= beta {
			break
		}
	}

	if s.rootBest != board.NoMove {
		bound := tt.Exact
		if best >= beta {
			bound = tt.Lower
		}
		s.tt.Put(pos.Hash, s.rootBest, tt.ScoreToTT(best, 0), bound, depth)
	}
	return best
}

// promote moves m to the front of the root list, keeping the others in
// order.
func (s *search) promote(m board.Move) {
	i := slices.Index(s.rootMoves, m)
	if i <= 0 {
		return
	}
	copy(s.rootMoves[1:i+1], s.rootMoves[:i])
	s.rootMoves[0] = m
}

func (s *search) ponderMove(res *Result) board.Move {
	if len(res.PV) >= 2 {
		return res.PV[1]
	}
	if res.BestMove == board.NoMove {
		return board.NoMove
	}
	s.pos.MakeMove(res.BestMove)
	defer s.pos.UndoMove()
	if e, ok := s.tt.Get(s.pos.Hash); ok && s.pos.IsLegal(e.Move) {
		return e.Move
	}
	return board.NoMove
}

func (s *search) report(res *Result) {
	elapsed := s.tm.Elapsed()
	info := Info{
		Depth:    res.Depth,
		SelDepth: res.SelDepth,
		Score:    res.Score,
		Mate:     MateMoves(res.Score),
		Nodes:    s.nodes,
		QNodes:   s.qnodes,
		NPS:      nps(s.nodes, elapsed),
		Elapsed:  elapsed,
		HashFull: s.tt.HashFull(),
		PV:       append([]board.Move(nil), res.PV...),
	}
	s.e.nodes.Store(s.nodes)
	s.log.Debug().
		Int("depth", info.Depth).
		Int("seldepth", info.SelDepth).
		Str("score", FormatScore(info.Score)).
		Str("best", res.BestMove.String()).
		Uint64("nodes", info.Nodes).
		Uint64("nps", info.NPS).
		Msg("iteration-complete")
	if s.e.OnInfo != nil {
		s.e.OnInfo(info)
	}
}

// save records a finished analysis when a store is configured.
func (s *search) save(res *Result) {
	if s.e.store == nil || res.Depth < 1 || res.BestMove == board.NoMove {
		return
	}
	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = m.String()
	}
	a := storage.Analysis{
		FEN:      s.pos.ToFEN(),
		BestMove: res.BestMove.String(),
		Score:    res.Score,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		PV:       pv,
		Updated:  time.Now(),
	}
	if res.PonderMove != board.NoMove {
		a.PonderMove = res.PonderMove.String()
	}
	if err := s.e.store.Put(a); err != nil {
		s.log.Warn().Err(err).Msg("analysis-write-failed")
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
