// Package engine searches chess positions: iterative deepening alpha-beta
// over a board.Position, driven by a Budget and run on a background
// goroutine that the caller controls through StartSearch, StopSearch and
// PonderHit.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/movegen"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/tt"
)

// State is the life cycle stage of the engine's current search.
type State int32

const (
	Idle State = iota
	Searching
	// Stopped: a limit, StopSearch or the context ended the search early.
	Stopped
	// Finished: the search ran to its depth, proved the requested mate or
	// found the root had no legal move.
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	}
	return "unknown"
}

var (
	ErrSearchInProgress = errors.New("engine: search in progress")
	ErrNoPosition       = errors.New("engine: no position")
)

// AnalysisStore persists finished analyses between runs. *storage.AnalysisStore
// implements it.
type AnalysisStore interface {
	Get(fen string) (storage.Analysis, bool, error)
	Put(a storage.Analysis) error
}

// Info is reported after every completed iteration.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	// Mate is the signed mate distance in moves, 0 when Score is not a mate.
	Mate     int
	Nodes    uint64
	QNodes   uint64
	NPS      uint64
	Elapsed  time.Duration
	HashFull int
	PV       []board.Move
}

// Result is the outcome of the last search.
type Result struct {
	BestMove   board.Move
	PonderMove board.Move
	Score      int
	Depth      int
	SelDepth   int
	Nodes      uint64
	QNodes     uint64
	PV         []board.Move
	Elapsed    time.Duration
	Status     State
	// Err is set when the search was abandoned on an internal inconsistency.
	// The searched position is not reliable afterwards.
	Err error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for search progress.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStore enables reading and writing analyses.
func WithStore(s AnalysisStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithEvaluator replaces the default MaterialEvaluator.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// WithHashSize sets the transposition table size in megabytes.
func WithHashSize(mb int) Option {
	return func(e *Engine) { e.tt = tt.New(mb) }
}

// WithContempt sets the draw score in centipawns for the side ahead.
func WithContempt(cp int) Option {
	return func(e *Engine) { e.contempt = cp }
}

// WithMoveOverhead reserves time per move for communication lag.
func WithMoveOverhead(d time.Duration) Option {
	return func(e *Engine) { e.overhead = d }
}

// WithVerifyHash recomputes the position keys after every root move and
// checks hash table moves for legality, turning drift into an
// InvariantViolation.
func WithVerifyHash(on bool) Option {
	return func(e *Engine) { e.verify = on }
}

// Engine owns the transposition table and history shared by consecutive
// searches. One search runs at a time.
type Engine struct {
	// OnInfo, when set, receives progress from the search goroutine. Set it
	// before the first search.
	OnInfo func(Info)

	log      zerolog.Logger
	tt       *tt.Table
	eval     Evaluator
	store    AnalysisStore
	contempt int
	overhead time.Duration
	verify   bool
	history  movegen.History

	mu     sync.Mutex
	group  *errgroup.Group
	cancel context.CancelFunc
	wake   chan struct{}

	state     atomic.Int32
	stop      atomic.Bool
	pondering atomic.Bool
	nodes     atomic.Uint64

	resMu  sync.RWMutex
	result Result
}

const (
	defaultHashMB   = 16
	defaultContempt = 10
	defaultOverhead = 30 * time.Millisecond
)

// New returns an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:      zerolog.Nop(),
		contempt: defaultContempt,
		overhead: defaultOverhead,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tt == nil {
		e.tt = tt.New(defaultHashMB)
	}
	if e.eval == nil {
		e.eval = NewMaterialEvaluator(1)
	}
	return e
}

// StartSearch begins searching pos on a background goroutine and returns at
// once. The engine owns pos until the search ends. Cancelling ctx stops the
// search like StopSearch.
func (e *Engine) StartSearch(ctx context.Context, pos *board.Position, b Budget) error {
	if pos == nil {
		return ErrNoPosition
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() == Searching {
		return ErrSearchInProgress
	}
	if e.group != nil {
		_ = e.group.Wait()
		e.cancel()
	}

	start := time.Now()
	e.stop.Store(false)
	e.pondering.Store(b.Ponder)
	e.nodes.Store(0)
	e.wake = make(chan struct{}, 1)
	e.resMu.Lock()
	e.result = Result{}
	e.resMu.Unlock()
	e.tt.NewGeneration()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s := newSearch(gctx, e, pos, b, start)
	done := make(chan struct{})
	e.state.Store(int32(Searching))

	g.Go(func() error {
		defer close(done)
		e.finish(s.run())
		return nil
	})
	g.Go(func() error {
		e.tick(gctx, done, start)
		return nil
	})
	e.group, e.cancel = g, cancel
	return nil
}

func (e *Engine) finish(r Result) {
	e.nodes.Store(r.Nodes)
	e.resMu.Lock()
	e.result = r
	e.resMu.Unlock()
	e.state.Store(int32(r.Status))
}

// tick logs search throughput once a second until the search ends.
func (e *Engine) tick(ctx context.Context, done <-chan struct{}, start time.Time) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			n := e.nodes.Load()
			elapsed := time.Since(start)
			e.log.Debug().
				Uint64("nodes", n).
				Uint64("nps", nps(n, elapsed)).
				Dur("elapsed", elapsed).
				Msg("search-progress")
		}
	}
}

func nps(nodes uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(nodes) / elapsed.Seconds())
}

func (e *Engine) signal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.wake == nil {
		return
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// StopSearch asks the running search to return as soon as possible. It does
// not wait; use WaitWhileSearching.
func (e *Engine) StopSearch() {
	e.stop.Store(true)
	e.signal()
}

// PonderHit switches a ponder search to the clock it was started with.
func (e *Engine) PonderHit() {
	e.pondering.Store(false)
	e.signal()
}

// WaitWhileSearching blocks until the current search, if any, has ended.
func (e *Engine) WaitWhileSearching() {
	e.mu.Lock()
	g := e.group
	e.mu.Unlock()
	if g != nil {
		_ = g.Wait()
	}
}

// State returns the stage of the current or last search.
func (e *Engine) State() State { return State(e.state.Load()) }

// Nodes returns the nodes searched so far, updated every few thousand nodes
// while searching.
func (e *Engine) Nodes() uint64 { return e.nodes.Load() }

// Result returns the outcome of the last search. It is the zero Result while
// a search runs.
func (e *Engine) Result() Result {
	e.resMu.RLock()
	defer e.resMu.RUnlock()
	r := e.result
	r.PV = append([]board.Move(nil), r.PV...)
	return r
}

// BestMove returns the best move of the last search, NoMove when the root
// had no legal move.
func (e *Engine) BestMove() board.Move { return e.Result().BestMove }

// PonderMove returns the expected reply to BestMove, or NoMove.
func (e *Engine) PonderMove() board.Move { return e.Result().PonderMove }

// ResultValue returns the score of the last search from the side to move's
// point of view.
func (e *Engine) ResultValue() int { return e.Result().Score }

// NewGame forgets everything learned from earlier positions.
func (e *Engine) NewGame() error {
	if e.State() == Searching {
		return ErrSearchInProgress
	}
	e.WaitWhileSearching()
	e.tt.Clear()
	e.history.Clear()
	if me, ok := e.eval.(*MaterialEvaluator); ok && me.pawns != nil {
		me.pawns.Clear()
	}
	return nil
}

// SetHashSize replaces the transposition table with one of mb megabytes.
func (e *Engine) SetHashSize(mb int) error {
	if e.State() == Searching {
		return ErrSearchInProgress
	}
	e.WaitWhileSearching()
	e.tt = tt.New(mb)
	return nil
}

// SetContempt changes the draw score for the next search.
func (e *Engine) SetContempt(cp int) error {
	if e.State() == Searching {
		return ErrSearchInProgress
	}
	e.contempt = cp
	return nil
}

// SetMoveOverhead changes the time reserved per move.
func (e *Engine) SetMoveOverhead(d time.Duration) error {
	if e.State() == Searching {
		return ErrSearchInProgress
	}
	e.overhead = d
	return nil
}

// HashFull reports transposition table usage in permille.
func (e *Engine) HashFull() int { return e.tt.HashFull() }
