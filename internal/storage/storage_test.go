package storage

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hailam/chesscore/internal/testutil"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func openTemp(t *testing.T) *AnalysisStore {
	t.Helper()
	s, err := Open(t.TempDir())
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { testutil.AssertNoError(t, s.Close()) })
	return s
}

func TestAnalysisStore(t *testing.T) {
	s := openTemp(t)

	_, found, err := s.Get(startFEN)
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, found)

	a := Analysis{FEN: startFEN, BestMove: "e2e4", PonderMove: "e7e5", Score: 30, Depth: 8, Nodes: 12345, PV: []string{"e2e4", "e7e5"}}
	testutil.AssertNoError(t, s.Put(a))

	got, found, err := s.Get(startFEN)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, found)
	testutil.AssertFalse(t, got.Updated.IsZero(), "Put stamps the update time")
	got.Updated = a.Updated
	testutil.AssertEqual(t, got, a)

	n, err := s.Count()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 1)
}

func TestAnalysisKeyIgnoresClocks(t *testing.T) {
	s := openTemp(t)
	testutil.AssertNoError(t, s.Put(Analysis{FEN: startFEN, BestMove: "d2d4", Depth: 3}))

	got, found, err := s.Get("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 12 40")
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, found)
	testutil.AssertEqual(t, got.BestMove, "d2d4")
}

func TestPutKeepsDeeperAnalysis(t *testing.T) {
	s := openTemp(t)
	testutil.AssertNoError(t, s.Put(Analysis{FEN: startFEN, BestMove: "e2e4", Depth: 10}))
	testutil.AssertNoError(t, s.Put(Analysis{FEN: startFEN, BestMove: "a2a3", Depth: 2}))
	got, _, err := s.Get(startFEN)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.BestMove, "e2e4")

	testutil.AssertNoError(t, s.Put(Analysis{FEN: startFEN, BestMove: "g1f3", Depth: 10}))
	got, _, err = s.Get(startFEN)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.BestMove, "g1f3", "equal depth replaces")
}

func TestInMemoryStore(t *testing.T) {
	s, err := Open("")
	testutil.AssertNoError(t, err)
	defer s.Close()
	testutil.AssertNoError(t, s.Put(Analysis{FEN: startFEN, BestMove: "c2c4", Depth: 1}))
	n, err := s.Count()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 1)
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux only")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dir, err := DataDir()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, dir, filepath.Join(base, appName))

	adir, err := AnalysisDir("")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, adir, filepath.Join(base, appName, "analysis"))
}
