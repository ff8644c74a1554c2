package board

import (
	"os"
	"testing"
)

const (
	kiwipeteFEN  = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	position3FEN = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -"
	position4FEN = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	position5FEN = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
	position6FEN = "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10"
)

func mustFEN(t testing.TB, fen string) *Position {
	t.Helper()
	p, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return p
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  uint64
		slow  bool
	}{
		{"start/1", StartFEN, 1, 20, false},
		{"start/2", StartFEN, 2, 400, false},
		{"start/3", StartFEN, 3, 8902, false},
		{"start/4", StartFEN, 4, 197281, false},
		{"start/5", StartFEN, 5, 4865609, true},
		{"kiwipete/1", kiwipeteFEN, 1, 48, false},
		{"kiwipete/2", kiwipeteFEN, 2, 2039, false},
		{"kiwipete/3", kiwipeteFEN, 3, 97862, false},
		{"kiwipete/4", kiwipeteFEN, 4, 4085603, true},
		{"position3/4", position3FEN, 4, 43238, false},
		{"position3/5", position3FEN, 5, 674624, true},
		{"position4/3", position4FEN, 3, 9467, false},
		{"position4/4", position4FEN, 4, 422333, true},
		{"position5/3", position5FEN, 3, 62379, false},
		{"position6/3", position6FEN, 3, 89890, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.slow && testing.Short() {
				t.Skip("slow perft skipped in short mode")
			}
			p := mustFEN(t, tc.fen)
			before := p.ToFEN()
			if got := p.Perft(tc.depth); got != tc.want {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.want)
			}
			if after := p.ToFEN(); after != before {
				t.Errorf("position changed by perft: %s -> %s", before, after)
			}
		})
	}
}

// Depth 6 from the start position visits 119 million leaves; it only runs on
// request.
func TestPerftStartDepth6(t *testing.T) {
	if os.Getenv("CHESSCORE_DEEP_PERFT") == "" {
		t.Skip("set CHESSCORE_DEEP_PERFT=1 to run")
	}
	if got := NewStartPosition().Perft(6); got != 119060324 {
		t.Errorf("perft(6) = %d, want 119060324", got)
	}
}

func TestPerftStats(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  PerftCounts
	}{
		{"start/3", StartFEN, 3, PerftCounts{Nodes: 8902, Captures: 34, Checks: 12}},
		{"start/4", StartFEN, 4, PerftCounts{Nodes: 197281, Captures: 1576, Checks: 469, Mates: 8}},
		{"kiwipete/1", kiwipeteFEN, 1, PerftCounts{Nodes: 48, Captures: 8, Castles: 2}},
		{"kiwipete/2", kiwipeteFEN, 2, PerftCounts{Nodes: 2039, Captures: 351, EnPassant: 1, Castles: 91, Checks: 3}},
		{"kiwipete/3", kiwipeteFEN, 3, PerftCounts{Nodes: 97862, Captures: 17102, EnPassant: 45, Castles: 3162, Checks: 993, Mates: 1}},
		{"position3/3", position3FEN, 3, PerftCounts{Nodes: 2812, Captures: 209, EnPassant: 2, Checks: 267}},
		{"position3/4", position3FEN, 4, PerftCounts{Nodes: 43238, Captures: 3348, EnPassant: 123, Checks: 1680, Mates: 17}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mustFEN(t, tc.fen).PerftStats(tc.depth)
			if got != tc.want {
				t.Errorf("perft stats(%d) = %+v, want %+v", tc.depth, got, tc.want)
			}
		})
	}
}

func TestPerftStartDepth5Stats(t *testing.T) {
	if testing.Short() {
		t.Skip("slow perft skipped in short mode")
	}
	want := PerftCounts{Nodes: 4865609, Captures: 82719, EnPassant: 258, Checks: 27351, Mates: 347}
	if got := NewStartPosition().PerftStats(5); got != want {
		t.Errorf("perft stats(5) = %+v, want %+v", got, want)
	}
}

func TestEnPassantHorizontalPin(t *testing.T) {
	// Taking d3 en passant would expose the king on a4 to the rook on h4.
	p := mustFEN(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	var ml MoveList
	p.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		if m.IsEnPassant() {
			t.Errorf("en passant %v generated through a pin", m)
		}
	}
	if got := p.Perft(1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
	if got := p.Perft(2); got != 94 {
		t.Errorf("perft(2) = %d, want 94", got)
	}
}

func TestPerftDivideSumsToPerft(t *testing.T) {
	p := mustFEN(t, kiwipeteFEN)
	var total uint64
	for _, n := range p.PerftDivide(3) {
		total += n
	}
	if total != 97862 {
		t.Errorf("divide total = %d, want 97862", total)
	}
}

func BenchmarkPerftStart4(b *testing.B) {
	p := NewStartPosition()
	for i := 0; i < b.N; i++ {
		p.Perft(4)
	}
}
