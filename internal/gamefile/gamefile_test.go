package gamefile

import (
	"errors"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/testutil"
)

func replayAll(t *testing.T) []*Game {
	t.Helper()
	var games []*Game
	err := Replay("testdata/games.pgn", func(g *Game) error {
		games = append(games, g)
		return nil
	})
	testutil.AssertNoError(t, err)
	return games
}

func TestReplay(t *testing.T) {
	games := replayAll(t)
	testutil.AssertEqual(t, len(games), 3)

	ruy := games[0]
	testutil.AssertEqual(t, ruy.Result(), "1/2-1/2")
	testutil.AssertEqual(t, len(ruy.Moves), 8)
	testutil.AssertTrue(t, ruy.Moves[6].IsCastle(), "4. O-O is %s", ruy.Moves[6])
	testutil.AssertEqual(t, ruy.Position.ToFEN(), "r1bqkb1r/1ppp1ppp/p1n2n2/1B2p3/4P3/5N2/PPPP1PPP/RNBQ1RK1 w kq - 2 5")

	ep := games[1]
	testutil.AssertTrue(t, ep.Moves[4].IsEnPassant(), "3. exd6 is %s", ep.Moves[4])
	testutil.AssertTrue(t, ep.Position.InCheck())
}

func TestReplayKeepsHashConsistent(t *testing.T) {
	for _, g := range replayAll(t) {
		pos := board.NewStartPosition()
		for _, m := range g.Moves {
			pos.MakeMove(m)
			testutil.AssertEqual(t, pos.Hash, pos.ComputeHash(), "game %d after %s", g.Index, m)
		}
		testutil.AssertEqual(t, pos.Hash, g.Position.Hash)
		for range g.Moves {
			pos.UndoMove()
		}
		testutil.AssertEqual(t, pos.Hash, board.NewStartPosition().Hash)
	}
}

func TestReplayDetectsRepetition(t *testing.T) {
	rep := replayAll(t)[2]
	testutil.AssertTrue(t, rep.Position.CheckRepetitions(2), "start position seen three times")
}

func TestReplayStopsEarly(t *testing.T) {
	n := 0
	err := Replay("testdata/games.pgn", func(*Game) error {
		n++
		return ErrStop
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 1)

	boom := errors.New("boom")
	err = Replay("testdata/games.pgn", func(*Game) error { return boom })
	testutil.AssertErrorIs(t, err, boom)
}
