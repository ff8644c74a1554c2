// Package gamefile replays PGN games onto board positions.
//
// Parsing is done by the pgn library; each parsed move is matched to the
// legal move of board.Position that produces the same placement, so the two
// move encodings never need to agree.
package gamefile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"

	"github.com/hailam/chesscore/internal/board"
)

// ErrStop may be returned by a Replay callback to end the replay early
// without an error.
var ErrStop = errors.New("gamefile: stop")

// Game is one replayed game.
type Game struct {
	Index int
	Tags  map[string]string
	// Moves are the moves of the game in order, legal in sequence from the
	// starting position.
	Moves []board.Move
	// Position is the final position with the whole game on its undo stack.
	Position *board.Position
}

// Result returns the Result tag.
func (g *Game) Result() string { return g.Tags["Result"] }

// MoveError reports a game move with no matching legal move.
type MoveError struct {
	Game int
	Ply  int
	FEN  string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("gamefile: game %d ply %d: no legal move reaches the recorded position from %s", e.Game, e.Ply, e.FEN)
}

// Replay parses the PGN file at path (plain or .zst) and calls fn with each
// game in order. Games that start from a FEN setup are skipped.
func Replay(path string, fn func(*Game) error) error {
	parser := pgn.Games(path)
	index := 0
	for g := range parser.Games {
		index++
		if _, ok := g.Tags["FEN"]; ok {
			continue
		}
		game, err := replay(index, g)
		if err == nil {
			err = fn(game)
		}
		if err != nil {
			parser.Stop()
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return parser.Err()
}

func replay(index int, g *pgn.Game) (*Game, error) {
	pos := board.NewStartPosition()
	state := pgn.NewStartingPosition()
	game := &Game{Index: index, Tags: g.Tags, Moves: make([]board.Move, 0, len(g.Moves))}

	for ply, mv := range g.Moves {
		if err := pgn.ApplyMove(state, mv); err != nil {
			return nil, fmt.Errorf("gamefile: game %d ply %d: %w", index, ply, err)
		}
		m, ok := matchMove(pos, placement(state.ToFEN()))
		if !ok {
			return nil, &MoveError{Game: index, Ply: ply, FEN: pos.ToFEN()}
		}
		pos.MakeMove(m)
		game.Moves = append(game.Moves, m)
	}
	game.Position = pos
	return game, nil
}

func placement(fen string) string {
	field, _, _ := strings.Cut(fen, " ")
	return field
}

// matchMove finds the legal move of pos whose resulting placement is want.
func matchMove(pos *board.Position, want string) (board.Move, bool) {
	var ml board.MoveList
	pos.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		pos.MakeMove(m)
		got := placement(pos.ToFEN())
		pos.UndoMove()
		if got == want {
			return m, true
		}
	}
	return board.NoMove, false
}
