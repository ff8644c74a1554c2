package tt

import (
	"testing"
	"unsafe"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/testutil"
)

func someMove(t *testing.T, s string) board.Move {
	t.Helper()
	m, err := board.NewStartPosition().ParseMove(s)
	testutil.AssertNoError(t, err)
	return m
}

func TestSlotIsSixteenBytes(t *testing.T) {
	testutil.AssertEqual(t, int(unsafe.Sizeof(slot{})), entrySize)
}

func TestNewSizing(t *testing.T) {
	tests := []struct {
		mb   int
		want uint64
	}{
		{0, 1024},
		{1, 1 << 16},
		{3, 1 << 17},
		{16, 1 << 20},
	}
	for _, tc := range tests {
		testutil.AssertEqual(t, New(tc.mb).MaxEntries(), tc.want, "%d MB", tc.mb)
	}
}

func TestRoundTrip(t *testing.T) {
	table := New(1)
	pos := board.NewStartPosition()
	m := someMove(t, "e2e4")
	table.Put(pos.Hash, m, 35, Exact, 7)

	e, ok := table.Get(pos.Hash)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, e, Entry{Key: pos.Hash, Move: m, Score: 35, Depth: 7, Bound: Exact})
	testutil.AssertEqual(t, table.NumberOfEntries(), uint64(1))
	testutil.AssertEqual(t, table.NumberOfCollisions(), uint64(0))

	_, ok = table.Get(pos.Hash ^ 1)
	testutil.AssertFalse(t, ok, "different key in another slot")
}

func TestAliasedKeyCountsCollision(t *testing.T) {
	table := New(0)
	key := uint64(0xDEADBEEF00000123)
	alias := key + table.MaxEntries()<<8 // same low bits, different key

	table.Put(key, someMove(t, "d2d4"), 10, Lower, 3)
	_, ok := table.Get(alias)
	testutil.AssertFalse(t, ok, "alias must not read the other key's entry")

	table.Put(alias, someMove(t, "g1f3"), -20, Upper, 3)
	testutil.AssertEqual(t, table.NumberOfCollisions(), uint64(1))
	testutil.AssertEqual(t, table.NumberOfEntries(), uint64(1))

	_, ok = table.Get(key)
	testutil.AssertFalse(t, ok, "replaced key is gone")
	e, ok := table.Get(alias)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, int(e.Score), -20)
}

func TestUpdateCountsAndKeepsMove(t *testing.T) {
	table := New(0)
	m := someMove(t, "c2c4")
	table.Put(42, m, 5, Lower, 2)
	table.Put(42, board.NoMove, 9, Upper, 4)

	e, _ := table.Get(42)
	testutil.AssertEqual(t, e.Move, m)
	testutil.AssertEqual(t, e.Bound, Upper)
	testutil.AssertEqual(t, int(e.Depth), 4)
	testutil.AssertEqual(t, table.NumberOfUpdates(), uint64(1))
	testutil.AssertEqual(t, table.NumberOfEntries(), uint64(1))
}

func TestDeeperEntryOfCurrentGenerationIsKept(t *testing.T) {
	table := New(0)
	table.Put(7, board.NoMove, 100, Exact, 9)
	table.Put(7, board.NoMove, 1, Exact, 2)
	e, _ := table.Get(7)
	testutil.AssertEqual(t, int(e.Score), 100)

	table.NewGeneration()
	table.Put(7, board.NoMove, 1, Exact, 2)
	e, _ = table.Get(7)
	testutil.AssertEqual(t, int(e.Score), 1, "older generation loses protection")
	testutil.AssertEqual(t, e.Generation, uint8(1))
}

func TestGenerationWraps(t *testing.T) {
	table := New(0)
	for range generationMask + 1 {
		table.NewGeneration()
	}
	testutil.AssertEqual(t, table.Generation(), uint8(0))
}

func TestClearAndHashFull(t *testing.T) {
	table := New(0)
	for key := range uint64(512) {
		table.Put(key, board.NoMove, 0, Exact, 1)
	}
	testutil.AssertEqual(t, table.HashFull(), 512)
	testutil.AssertEqual(t, table.NumberOfEntries(), uint64(512))

	table.NewGeneration()
	testutil.AssertEqual(t, table.HashFull(), 0, "hashfull counts the current generation only")

	table.Clear()
	testutil.AssertEqual(t, table.NumberOfEntries(), uint64(0))
	_, ok := table.Get(3)
	testutil.AssertFalse(t, ok)
	testutil.AssertEqual(t, table.HitRate(), 0.0)
}

func TestMateScoreAdjustment(t *testing.T) {
	tests := []struct {
		name  string
		score int
		ply   int
	}{
		{"mate for us", Mate - 5, 3},
		{"mated", -Mate + 8, 6},
		{"ordinary", 150, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stored := ScoreToTT(tc.score, tc.ply)
			testutil.AssertEqual(t, ScoreFromTT(stored, tc.ply), tc.score)
		})
	}
	// A mate found 3 plies below the root is 2 plies from the node at ply 1.
	testutil.AssertEqual(t, ScoreToTT(Mate-3, 1), Mate-2)
	testutil.AssertEqual(t, ScoreFromTT(Mate-2, 4), Mate-6)
}
