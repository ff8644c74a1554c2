package board

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/notnil/chess"

	"github.com/hailam/chesscore/internal/testutil"
)

// oracleMoves lists the legal moves of fen according to an independent
// generator, in coordinate notation.
func oracleMoves(t *testing.T, fen string) []string {
	t.Helper()
	opt, err := chess.FEN(fen)
	testutil.AssertNoError(t, err, "oracle FEN %s", fen)
	pos := chess.NewGame(opt).Position()
	var out []string
	for _, m := range pos.ValidMoves() {
		out = append(out, chess.UCINotation{}.Encode(pos, m))
	}
	sort.Strings(out)
	return out
}

func ourMoves(p *Position) []string {
	var ml MoveList
	p.GenerateLegal(&ml)
	out := make([]string, 0, ml.Len())
	for _, m := range ml.Slice() {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func TestLegalMovesMatchIndependentGenerator(t *testing.T) {
	if testing.Short() {
		t.Skip("random playouts skipped in short mode")
	}
	rng := rand.New(rand.NewSource(2024))
	starts := []string{StartFEN, kiwipeteFEN, position3FEN + " 0 1", position4FEN, position5FEN, position6FEN}
	for _, fen := range starts {
		for game := 0; game < 8; game++ {
			p := mustFEN(t, fen)
			for ply := 0; ply < 80; ply++ {
				want := oracleMoves(t, p.ToFEN())
				got := ourMoves(p)
				testutil.AssertEqual(t, got, want, "legal moves of %s", p.ToFEN())
				var ml MoveList
				p.GenerateLegal(&ml)
				if ml.Len() == 0 || p.HalfMoveClock >= 100 {
					break
				}
				p.MakeMove(ml.Get(rng.Intn(ml.Len())))
			}
		}
	}
}
