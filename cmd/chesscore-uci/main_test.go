package main

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/reference"
	"github.com/hailam/chesscore/internal/testutil"
)

// fixedAnalyser answers every position with the same verdict.
type fixedAnalyser struct {
	score reference.Score
	err   error
	fens  []string
}

func (f *fixedAnalyser) Analyse(fen string, depth int) (reference.Score, error) {
	f.fens = append(f.fens, fen)
	return f.score, f.err
}

func TestCrossCheck(t *testing.T) {
	pos := board.NewStartPosition()
	e4, err := pos.ParseMove("e2e4")
	testutil.AssertNoError(t, err)
	res := engine.Result{BestMove: e4}

	ref := &fixedAnalyser{score: reference.Score{Depth: 8, Value: 30, BestMove: "e2e4"}}
	score, agree, err := crossCheck(ref, board.StartFEN, 8, res)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, agree)
	testutil.AssertEqual(t, score.Value, 30)
	testutil.AssertEqual(t, ref.fens, []string{board.StartFEN})

	ref.score.BestMove = "d2d4"
	_, agree, err = crossCheck(ref, board.StartFEN, 8, res)
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, agree)

	ref.err = reference.ErrNoResult
	_, _, err = crossCheck(ref, board.StartFEN, 8, res)
	testutil.AssertErrorIs(t, err, reference.ErrNoResult)
}

func TestAnalyzeGamesWithReference(t *testing.T) {
	ref := &fixedAnalyser{score: reference.Score{Depth: 2, BestMove: "0000"}}
	err := analyzeGames(t.Context(), zerolog.Nop(), engine.New(), ref, "../../internal/gamefile/testdata/games.pgn", 2)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, len(ref.fens) > 0, "reference consulted")
	testutil.AssertEqual(t, ref.fens[0], "r1bqkb1r/1ppp1ppp/p1n2n2/1B2p3/4P3/5N2/PPPP1PPP/RNBQ1RK1 w kq - 2 5")

	ref.err = errors.New("engine crashed")
	err = analyzeGames(t.Context(), zerolog.Nop(), engine.New(), ref, "../../internal/gamefile/testdata/games.pgn", 1)
	testutil.AssertError(t, err)
}
