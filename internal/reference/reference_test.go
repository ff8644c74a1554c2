package reference

import (
	"context"
	"os"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/testutil"
)

const envEngine = "CHESSCORE_REFERENCE_ENGINE"

func openReference(t *testing.T) *Engine {
	t.Helper()
	path := os.Getenv(envEngine)
	if path == "" {
		t.Skipf("%s not set", envEngine)
	}
	ref, err := Open(path, 16)
	testutil.AssertNoError(t, err)
	t.Cleanup(ref.Close)
	return ref
}

func TestMateDistanceMatchesReference(t *testing.T) {
	ref := openReference(t)
	fens := []string{
		"k7/8/1K6/8/8/8/8/7R w - - 0 1",
		"k7/8/2K5/8/8/8/8/7R w - - 0 1",
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			want, err := ref.Analyse(fen, 12)
			testutil.AssertNoError(t, err)
			testutil.AssertTrue(t, want.Mate, "reference sees no mate in %s", fen)

			pos, err := board.FromFEN(fen)
			testutil.AssertNoError(t, err)
			e := engine.New()
			testutil.AssertNoError(t, e.StartSearch(context.Background(), pos, engine.Budget{Depth: 2*want.Value + 2}))
			e.WaitWhileSearching()
			testutil.AssertEqual(t, engine.MateMoves(e.ResultValue()), want.Value)
		})
	}
}

func TestBestMoveIsLegal(t *testing.T) {
	ref := openReference(t)
	const fen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	got, err := ref.Analyse(fen, 8)
	testutil.AssertNoError(t, err)
	pos, err := board.FromFEN(fen)
	testutil.AssertNoError(t, err)
	_, err = pos.ParseMove(got.BestMove)
	testutil.AssertNoError(t, err, "reference move %q", got.BestMove)
}
