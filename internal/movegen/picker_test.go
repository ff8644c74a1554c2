package movegen

import (
	"math/rand"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/testutil"
)

const (
	kiwipeteFEN  = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	promotionFEN = "n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - - 0 1"
)

func mustFEN(t testing.TB, fen string) *board.Position {
	t.Helper()
	p, err := board.FromFEN(fen)
	testutil.AssertNoError(t, err, "FromFEN(%q)", fen)
	return p
}

func mustMove(t testing.TB, p *board.Position, s string) board.Move {
	t.Helper()
	m, err := p.ParseMove(s)
	testutil.AssertNoError(t, err, "ParseMove(%q)", s)
	return m
}

func drain(p *Picker) []board.Move {
	var out []board.Move
	for {
		m, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func bulk(pos *board.Position, h Hints) []board.Move {
	var ml board.MoveList
	OrderedMoves(pos, h, &ml)
	return append([]board.Move(nil), ml.Slice()...)
}

func indexOf(moves []board.Move, m board.Move) int {
	for i, x := range moves {
		if x == m {
			return i
		}
	}
	return -1
}

func TestPickerMatchesOrderedMoves(t *testing.T) {
	kiwi := mustFEN(t, kiwipeteFEN)
	promo := mustFEN(t, promotionFEN)
	tests := []struct {
		name  string
		pos   *board.Position
		hints func(*board.Position) Hints
	}{
		{"no hints", kiwi, func(*board.Position) Hints { return Hints{} }},
		{"pv capture", kiwi, func(p *board.Position) Hints {
			return Hints{PV: mustMove(t, p, "e5f7")}
		}},
		{"pv and killers", kiwi, func(p *board.Position) Hints {
			return Hints{PV: mustMove(t, p, "e2a6"), Killers: Killers{mustMove(t, p, "a2a3"), mustMove(t, p, "g2g3")}}
		}},
		{"killer equals pv", kiwi, func(p *board.Position) Hints {
			m := mustMove(t, p, "a2a3")
			return Hints{PV: m, Killers: Killers{m, mustMove(t, p, "e1g1")}}
		}},
		{"capture killer", kiwi, func(p *board.Position) Hints {
			return Hints{Killers: Killers{mustMove(t, p, "d5e6"), mustMove(t, p, "a2a4")}}
		}},
		{"promotion killers", promo, func(p *board.Position) Hints {
			return Hints{Killers: Killers{mustMove(t, p, "g2g1q"), mustMove(t, p, "g2g1n")}}
		}},
		{"with history", kiwi, func(p *board.Position) Hints {
			h := new(History)
			h.Update(board.White, mustMove(t, p, "a2a3"), 6, true)
			h.Update(board.White, mustMove(t, p, "d2h6"), 4, false)
			return Hints{History: h}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := tc.hints(tc.pos)
			want := bulk(tc.pos, h)
			got := drain(NewPicker(tc.pos, h))
			testutil.AssertEqual(t, got, want)
		})
	}
}

func TestPickerMatchesOrderedMovesOnRandomPositions(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pos := mustFEN(t, board.StartFEN)
	var prev board.Move
	for i := 0; i < 200; i++ {
		var legal board.MoveList
		pos.GenerateLegal(&legal)
		if legal.Len() == 0 {
			break
		}
		h := Hints{PV: legal.Get(rng.Intn(legal.Len())), Killers: Killers{prev, legal.Get(rng.Intn(legal.Len()))}}
		testutil.AssertEqual(t, drain(NewPicker(pos, h)), bulk(pos, h), "position %s", pos.ToFEN())
		prev = legal.Get(rng.Intn(legal.Len()))
		pos.MakeMove(prev)
	}
}

func TestOrderedMovesEmitsEachLegalMoveOnce(t *testing.T) {
	pos := mustFEN(t, kiwipeteFEN)
	foreign := mustFEN(t, board.StartFEN)
	h := Hints{PV: mustMove(t, foreign, "g1f3"), Killers: Killers{mustMove(t, pos, "a2a3"), mustMove(t, foreign, "e2e4")}}
	got := drain(NewPicker(pos, h))

	var legal board.MoveList
	pos.GenerateLegal(&legal)
	testutil.AssertEqual(t, len(got), legal.Len())
	seen := make(map[board.Move]bool)
	for _, m := range got {
		testutil.AssertTrue(t, legal.Contains(m), "%s is not legal", m)
		testutil.AssertFalse(t, seen[m], "%s emitted twice", m)
		seen[m] = true
	}
}

func TestOrderingStages(t *testing.T) {
	pos := mustFEN(t, kiwipeteFEN)
	pv := mustMove(t, pos, "e2a6")
	k0, k1 := mustMove(t, pos, "a2a3"), mustMove(t, pos, "g2g3")
	got := bulk(pos, Hints{PV: pv, Killers: Killers{k0, k1}})

	testutil.AssertEqual(t, got[0], pv)
	lastCapture := 0
	for i, m := range got[1:] {
		if m.IsCapture() {
			lastCapture = i + 1
		}
	}
	testutil.AssertEqual(t, got[lastCapture+1], k0, "first killer follows captures")
	testutil.AssertEqual(t, got[lastCapture+2], k1, "second killer follows the first")
	testutil.AssertEqual(t, got[lastCapture+3], mustMove(t, pos, "e1g1"), "king side castle first")
	testutil.AssertEqual(t, got[lastCapture+4], mustMove(t, pos, "e1c1"))

	// Queen takes pawn is the most valuable attacker on the cheapest victim.
	testutil.AssertTrue(t, indexOf(got, mustMove(t, pos, "f3h3")) > indexOf(got, mustMove(t, pos, "g2h3")),
		"pawn takes pawn before queen takes pawn")
}

func TestPromotionsOrderedByPiece(t *testing.T) {
	pos := mustFEN(t, promotionFEN)
	got := bulk(pos, Hints{})
	q, r := indexOf(got, mustMove(t, pos, "g2g1q")), indexOf(got, mustMove(t, pos, "g2g1r"))
	b, n := indexOf(got, mustMove(t, pos, "g2g1b")), indexOf(got, mustMove(t, pos, "g2g1n"))
	testutil.AssertTrue(t, q < r && r < b && b < n, "promotion order q=%d r=%d b=%d n=%d", q, r, b, n)

	// Capturing promotions are captures and come before the quiet ones.
	testutil.AssertTrue(t, indexOf(got, mustMove(t, pos, "g2f1q")) < q)
	testutil.AssertTrue(t, indexOf(got, mustMove(t, pos, "g2f1q")) < indexOf(got, mustMove(t, pos, "g2f1n")))
}

func TestCapturePicker(t *testing.T) {
	pos := mustFEN(t, kiwipeteFEN)
	captures := drain(NewCapturePicker(pos, false))
	for _, m := range captures {
		testutil.AssertTrue(t, m.IsCapture() || m.Promotion() == board.Queen, "%s is not tactical", m)
	}
	var want board.MoveList
	pos.GenerateCaptures(&want)
	testutil.AssertEqual(t, len(captures), want.Len())

	withChecks := drain(NewCapturePicker(pos, true))
	testutil.AssertEqual(t, withChecks[:len(captures)], captures)
	for _, m := range withChecks[len(captures):] {
		testutil.AssertFalse(t, m.IsCapture(), "%s", m)
		testutil.AssertTrue(t, pos.GivesCheck(m), "%s does not give check", m)
	}
}

func TestCapturePickerIncludesQueenPromotions(t *testing.T) {
	pos := mustFEN(t, promotionFEN)
	got := drain(NewCapturePicker(pos, false))
	testutil.AssertTrue(t, indexOf(got, mustMove(t, pos, "g2g1q")) >= 0)
	testutil.AssertEqual(t, indexOf(got, mustMove(t, pos, "g2g1n")), -1)
}

func TestKillersAdd(t *testing.T) {
	pos := mustFEN(t, board.StartFEN)
	a, b := mustMove(t, pos, "e2e4"), mustMove(t, pos, "d2d4")
	var k Killers
	k.Add(a)
	k.Add(b)
	testutil.AssertEqual(t, k, Killers{b, a})
	k.Add(b)
	testutil.AssertEqual(t, k, Killers{b, a}, "re-adding the newest killer keeps the pair")
}

func TestHistory(t *testing.T) {
	pos := mustFEN(t, board.StartFEN)
	m := mustMove(t, pos, "g1f3")
	var h History
	h.Update(board.White, m, 5, true)
	testutil.AssertEqual(t, h.Score(board.White, m), 25)
	testutil.AssertEqual(t, h.Score(board.Black, m), 0)
	h.Update(board.White, m, 3, false)
	testutil.AssertEqual(t, h.Score(board.White, m), 16)
	h.Age()
	testutil.AssertEqual(t, h.Score(board.White, m), 8)
	h.Clear()
	testutil.AssertEqual(t, h.Score(board.White, m), 0)
}

func TestPieceSquareIsColorSymmetric(t *testing.T) {
	for sq := board.A1; sq <= board.H8; sq++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			w := PieceSquare(board.NewPiece(pt, board.White), sq)
			b := PieceSquare(board.NewPiece(pt, board.Black), sq.Mirror())
			testutil.AssertEqual(t, w, b, "%s on %s", pt, sq)
		}
	}
	testutil.AssertTrue(t, PieceSquare(board.WhiteKnight, board.E4) > PieceSquare(board.WhiteKnight, board.A1))
}
