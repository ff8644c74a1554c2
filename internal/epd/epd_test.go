package epd

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/testutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		fen  string
		ops  map[string]string
	}{
		{
			name: "perft suite",
			line: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - ;D1 20 ;D2 400",
			fen:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			ops:  map[string]string{"D1": "20", "D2": "400"},
		},
		{
			name: "full fen",
			line: "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1 ;D1 14",
			fen:  "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
			ops:  map[string]string{"D1": "14"},
		},
		{
			name: "test suite",
			line: `1k1r4/pp1b1R2/3q2pp/4p3/2B5/4Q3/PPP2B2/2K5 b - - bm Qd1+; id "BK.01";`,
			fen:  "1k1r4/pp1b1R2/3q2pp/4p3/2B5/4Q3/PPP2B2/2K5 b - - 0 1",
			ops:  map[string]string{"bm": "Qd1+", "id": "BK.01"},
		},
		{
			name: "clock opcodes",
			line: "4k3/8/8/8/8/8/8/4K3 w - - hmvc 12; fmvn 40;",
			fen:  "4k3/8/8/8/8/8/8/4K3 w - - 12 40",
			ops:  map[string]string{"hmvc": "12", "fmvn": "40"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Parse(tc.line)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, rec.FEN, tc.fen)
			testutil.AssertEqual(t, rec.Ops, tc.ops)
		})
	}

	_, err := Parse("8/8/8 w")
	testutil.AssertErrorIs(t, err, ErrSyntax)
}

func TestRecordHelpers(t *testing.T) {
	rec, err := Parse("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - ;D1 20 ;D2 400 ;D3 8902")
	testutil.AssertNoError(t, err)
	n, ok := rec.Perft(3)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, n, uint64(8902))
	_, ok = rec.Perft(4)
	testutil.AssertFalse(t, ok)
	testutil.AssertEqual(t, rec.MaxPerftDepth(), 3)

	rec, err = Parse(`6k1/8/8/8/8/8/8/R5K1 w - - bm Ra8+ Re1; id "mate";`)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rec.BestMoves(), []string{"Ra8+", "Re1"})
	testutil.AssertEqual(t, rec.ID(), "mate")
}

func TestReaderSkipsCommentsAndBlankLines(t *testing.T) {
	input := strings.Join([]string{
		"# perft positions",
		"",
		"4k3/8/8/8/8/8/8/4K2R w K - ;D1 15",
		"4k3/8/8/8/8/8/8/R3K3 w Q - ;D1 16",
	}, "\n")
	r := NewReader(strings.NewReader(input))
	recs, err := r.ReadAll()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(recs), 2)
	testutil.AssertEqual(t, recs[0].Line, 3)
	testutil.AssertEqual(t, recs[1].Ops["D1"], "16")

	_, err = r.Next()
	testutil.AssertTrue(t, errors.Is(err, io.EOF))
}

func TestZstRoundTrip(t *testing.T) {
	recs := []Record{
		{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", Ops: map[string]string{"D1": "20", "id": "start position"}},
		{FEN: "4k3/8/8/8/8/8/8/4K2R w K - 0 1", Ops: map[string]string{"D1": "15"}},
	}
	path := filepath.Join(t.TempDir(), "suite.epd.zst")
	testutil.AssertNoError(t, WriteZst(path, recs))

	r, err := Open(path)
	testutil.AssertNoError(t, err)
	defer r.Close()
	got, err := r.ReadAll()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), len(recs))
	for i := range recs {
		testutil.AssertEqual(t, got[i].FEN, recs[i].FEN)
		testutil.AssertEqual(t, got[i].Ops, recs[i].Ops)
	}
}
