// Package uci implements the Universal Chess Interface protocol on top of
// the engine package.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
)

const (
	engineName   = "chesscore"
	engineAuthor = "the chesscore authors"
)

// UCI reads protocol commands from in and writes replies to out.
type UCI struct {
	engine   *engine.Engine
	cfg      config.Config
	position *board.Position
	log      zerolog.Logger

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // serializes writes to out

	searchDone chan struct{}
}

// New creates a protocol handler driving eng.
func New(eng *engine.Engine, cfg config.Config, in io.Reader, out io.Writer, log zerolog.Logger) *UCI {
	u := &UCI{
		engine:   eng,
		cfg:      cfg,
		position: board.NewStartPosition(),
		log:      log.With().Str("component", "uci").Logger(),
		in:       in,
		out:      out,
	}
	eng.OnInfo = u.sendInfo
	return u
}

func (u *UCI) println(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run processes commands until quit or the end of input.
func (u *UCI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		u.log.Trace().Str("cmd", line).Msg("command")

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "ponderhit":
			u.engine.PonderHit()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.println("%s", strings.TrimRight(u.position.String(), "\n"))
		case "perft":
			u.handlePerft(args)
		default:
			u.log.Debug().Str("cmd", cmd).Msg("unknown command")
		}
	}
	u.handleStop()
	return scanner.Err()
}

func (u *UCI) handleUCI() {
	u.println("id name %s", engineName)
	u.println("id author %s", engineAuthor)
	u.println("")
	u.println("option name Hash type spin default %d min %d max %d", u.cfg.HashMB, config.MinHashMB, config.MaxHashMB)
	u.println("option name Contempt type spin default %d min %d max %d", u.cfg.Contempt, -config.MaxContempt, config.MaxContempt)
	u.println("option name Move Overhead type spin default %d min 0 max %d",
		u.cfg.MoveOverhead.Milliseconds(), config.MaxMoveOverhead.Milliseconds())
	u.println("option name Ponder type check default %t", u.cfg.Ponder)
	u.println("uciok")
}

func (u *UCI) handleNewGame() {
	u.handleStop()
	if err := u.engine.NewGame(); err != nil {
		u.log.Warn().Err(err).Msg("new game")
	}
	u.position = board.NewStartPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos [moves e2e4 e7e5 ...]
//   - position fen <fen> [moves ...]
func (u *UCI) handlePosition(args []string) {
	pos, err := ParsePosition(args)
	if err != nil {
		u.log.Warn().Err(err).Strs("args", args).Msg("invalid position")
		u.println("info string %v", err)
		return
	}
	u.position = pos
}

// ParsePosition builds the position described by the arguments of a
// position command. Moves are applied in order so that the position keeps
// the game history for repetition detection.
func ParsePosition(args []string) (*board.Position, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("position: missing arguments")
	}
	movesAt := slices.Index(args, "moves")
	head := args
	if movesAt >= 0 {
		head = args[:movesAt]
	}

	var pos *board.Position
	switch head[0] {
	case "startpos":
		pos = board.NewStartPosition()
	case "fen":
		var err error
		if pos, err = board.FromFEN(strings.Join(head[1:], " ")); err != nil {
			return nil, fmt.Errorf("position: %w", err)
		}
	default:
		return nil, fmt.Errorf("position: unknown keyword %q", head[0])
	}

	if movesAt < 0 {
		return pos, nil
	}
	for _, s := range args[movesAt+1:] {
		m, err := pos.ParseMove(s)
		if err != nil {
			return nil, fmt.Errorf("position: %w", err)
		}
		pos.MakeMove(m)
	}
	return pos, nil
}

// ParseGo converts the arguments of a go command into a budget for pos.
func ParseGo(pos *board.Position, args []string) (engine.Budget, error) {
	var b engine.Budget
	ms := func(i int) (time.Duration, error) {
		n, err := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond, err
	}

	for i := 0; i < len(args); i++ {
		key := args[i]
		switch key {
		case "infinite":
			b.Infinite = true
			continue
		case "ponder":
			b.Ponder = true
			continue
		case "searchmoves":
			for i+1 < len(args) {
				m, err := pos.ParseMove(args[i+1])
				if err != nil {
					break
				}
				b.SearchMoves = append(b.SearchMoves, m)
				i++
			}
			continue
		}

		if i+1 >= len(args) {
			return b, fmt.Errorf("go: %s needs a value", key)
		}
		i++
		var err error
		switch key {
		case "wtime":
			b.WTime, err = ms(i)
		case "btime":
			b.BTime, err = ms(i)
		case "winc":
			b.WInc, err = ms(i)
		case "binc":
			b.BInc, err = ms(i)
		case "movetime":
			b.MoveTime, err = ms(i)
		case "movestogo":
			b.MovesToGo, err = strconv.Atoi(args[i])
		case "depth":
			b.Depth, err = strconv.Atoi(args[i])
		case "mate":
			b.Mate, err = strconv.Atoi(args[i])
		case "nodes":
			b.Nodes, err = strconv.ParseUint(args[i], 10, 64)
		default:
			return b, fmt.Errorf("go: unknown parameter %q", key)
		}
		if err != nil {
			return b, fmt.Errorf("go: %s: %w", key, err)
		}
	}
	return b, nil
}

func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.waitSearch()
	b, err := ParseGo(u.position, args)
	if err != nil {
		u.log.Warn().Err(err).Msg("invalid go")
		u.println("info string %v", err)
		return
	}

	if err := u.engine.StartSearch(ctx, u.position.Copy(), b); err != nil {
		u.log.Error().Err(err).Msg("start search")
		return
	}

	done := make(chan struct{})
	u.searchDone = done
	go func() {
		defer close(done)
		u.engine.WaitWhileSearching()
		u.sendBestMove(u.engine.Result())
	}()
}

func (u *UCI) sendBestMove(res engine.Result) {
	if res.Err != nil {
		u.println("info string search failed: %v", res.Err)
	}
	if res.BestMove == board.NoMove {
		u.println("bestmove 0000")
		return
	}
	if res.PonderMove != board.NoMove {
		u.println("bestmove %s ponder %s", res.BestMove, res.PonderMove)
		return
	}
	u.println("bestmove %s", res.BestMove)
}

// FormatInfo renders an info line.
func FormatInfo(info engine.Info) string {
	parts := []string{
		"depth " + strconv.Itoa(info.Depth),
		"seldepth " + strconv.Itoa(info.SelDepth),
	}
	if info.Mate != 0 {
		parts = append(parts, "score mate "+strconv.Itoa(info.Mate))
	} else {
		parts = append(parts, "score cp "+strconv.Itoa(info.Score))
	}
	parts = append(parts,
		"nodes "+strconv.FormatUint(info.Nodes, 10),
		"nps "+strconv.FormatUint(info.NPS, 10),
		"hashfull "+strconv.Itoa(info.HashFull),
		"time "+strconv.FormatInt(info.Elapsed.Milliseconds(), 10),
	)
	if len(info.PV) > 0 {
		parts = append(parts, "pv "+strings.Join(lo.Map(info.PV, func(m board.Move, _ int) string {
			return m.String()
		}), " "))
	}
	return "info " + strings.Join(parts, " ")
}

// FormatQNodes renders the quiescence node count, which has no field of its
// own in an info line.
func FormatQNodes(info engine.Info) string {
	return "info string depth " + strconv.Itoa(info.Depth) + " qnodes " + strconv.FormatUint(info.QNodes, 10)
}

func (u *UCI) sendInfo(info engine.Info) {
	u.println("%s", FormatInfo(info))
	u.println("%s", FormatQNodes(info))
}

// waitSearch blocks until the running search has printed its best move.
func (u *UCI) waitSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

func (u *UCI) handleStop() {
	u.engine.StopSearch()
	u.waitSearch()
}

// parseOption splits "name <name...> value <value...>".
func parseOption(args []string) (name, value string) {
	var names, values []string
	target := &names
	for _, arg := range args {
		switch arg {
		case "name":
			target = &names
		case "value":
			target = &values
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(names, " "), strings.Join(values, " ")
}

func (u *UCI) handleSetOption(args []string) {
	name, value := parseOption(args)
	next := u.cfg
	var err error

	switch strings.ToLower(name) {
	case "hash":
		next.HashMB, err = strconv.Atoi(value)
	case "contempt":
		next.Contempt, err = strconv.Atoi(value)
	case "move overhead":
		var n int
		n, err = strconv.Atoi(value)
		next.MoveOverhead = time.Duration(n) * time.Millisecond
	case "ponder":
		next.Ponder, err = strconv.ParseBool(value)
	default:
		u.log.Debug().Str("name", name).Msg("unknown option")
		return
	}
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		u.log.Warn().Err(err).Str("name", name).Str("value", value).Msg("setoption rejected")
		u.println("info string %s: %v", name, err)
		return
	}

	u.waitSearch()
	switch {
	case next.HashMB != u.cfg.HashMB:
		err = u.engine.SetHashSize(next.HashMB)
	case next.Contempt != u.cfg.Contempt:
		err = u.engine.SetContempt(next.Contempt)
	case next.MoveOverhead != u.cfg.MoveOverhead:
		err = u.engine.SetMoveOverhead(next.MoveOverhead)
	}
	if err != nil {
		u.log.Warn().Err(err).Str("name", name).Msg("setoption failed")
		return
	}
	u.cfg = next
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	divide := u.position.PerftDivide(depth)
	var total uint64
	for _, move := range slices.Sorted(maps.Keys(divide)) {
		u.println("%s: %d", move, divide[move])
		total += divide[move]
	}
	elapsed := time.Since(start)
	u.println("")
	u.println("Nodes searched: %d", total)
	u.log.Info().Int("depth", depth).Uint64("nodes", total).Dur("elapsed", elapsed).Msg("perft")
}
