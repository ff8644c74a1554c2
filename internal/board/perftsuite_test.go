package board

import (
	"testing"

	"github.com/hailam/chesscore/internal/epd"
	"github.com/hailam/chesscore/internal/testutil"
)

func TestPerftSuite(t *testing.T) {
	r, err := epd.Open("testdata/perftsuite.epd")
	testutil.AssertNoError(t, err)
	defer r.Close()
	recs, err := r.ReadAll()
	testutil.AssertNoError(t, err)

	for _, rec := range recs {
		t.Run(rec.FEN, func(t *testing.T) {
			p := mustFEN(t, rec.FEN)
			for d := 1; d <= rec.MaxPerftDepth(); d++ {
				want, _ := rec.Perft(d)
				if want > 100000 && testing.Short() {
					t.Skipf("depth %d skipped in short mode", d)
				}
				testutil.AssertEqual(t, p.Perft(d), want, "depth %d", d)
			}
			testutil.AssertEqual(t, p.ToFEN(), rec.FEN, "perft leaves the position unchanged")
		})
	}
}
