// Package tt implements the transposition table: a fixed-size cache of search
// results indexed by the low bits of the Zobrist key and verified against the
// full key.
//
// A Table has a single writer. The search worker owns it while a search runs
// and callers read its counters only after the search has stopped.
package tt

import "github.com/hailam/chesscore/internal/board"

// Bound tells how a stored score relates to the true value.
type Bound uint8

const (
	NoBound Bound = iota
	Exact
	Lower // failed high: the true value is at least Score
	Upper // failed low: the true value is at most Score
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	}
	return "none"
}

// Scores beyond MateThreshold in magnitude encode a distance to mate.
const (
	Mate          = 32000
	MateThreshold = Mate - 1000
)

const (
	entrySize  = 16
	minEntries = 1024

	generationMask = 0x3f
)

// Entry is the unpacked content of a slot.
type Entry struct {
	Key        uint64
	Move       board.Move
	Score      int16
	Depth      int8
	Bound      Bound
	Generation uint8
}

// slot packs bound and generation into one byte so a slot fills 16 bytes.
type slot struct {
	key   uint64
	move  board.Move
	score int16
	depth int8
	meta  uint8 // generation<<2 | bound
}

func (s *slot) bound() Bound      { return Bound(s.meta & 3) }
func (s *slot) generation() uint8 { return s.meta >> 2 }

// Table is a transposition table.
type Table struct {
	slots      []slot
	mask       uint64
	generation uint8

	entries    uint64
	updates    uint64
	collisions uint64
	probes     uint64
	hits       uint64
}

// New allocates a table of the largest power-of-two slot count that fits in
// megabytes, and never fewer than 1024 slots.
func New(megabytes int) *Table {
	n := uint64(minEntries)
	if megabytes > 0 {
		budget := uint64(megabytes) * 1024 * 1024 / entrySize
		for n*2 <= budget {
			n *= 2
		}
	}
	return &Table{slots: make([]slot, n), mask: n - 1}
}

// Get returns the entry stored for key. It reports false unless the slot
// holds exactly that key.
func (t *Table) Get(key uint64) (Entry, bool) {
	t.probes++
	s := &t.slots[key&t.mask]
	if s.bound() == NoBound || s.key != key {
		return Entry{}, false
	}
	t.hits++
	return Entry{
		Key:        s.key,
		Move:       s.move,
		Score:      s.score,
		Depth:      s.depth,
		Bound:      s.bound(),
		Generation: s.generation(),
	}, true
}

// Put stores a search result. A slot written in the current generation at a
// greater depth is kept. Re-storing a key without a move keeps the old move.
func (t *Table) Put(key uint64, move board.Move, score int, bound Bound, depth int) {
	s := &t.slots[key&t.mask]
	occupied := s.bound() != NoBound
	if occupied && s.generation() == t.generation && int(s.depth) > depth {
		return
	}

	switch {
	case !occupied:
		t.entries++
	case s.key == key:
		t.updates++
		if move == board.NoMove {
			move = s.move
		}
	default:
		t.collisions++
	}

	s.key = key
	s.move = move
	s.score = int16(score)
	s.depth = int8(max(min(depth, 127), -128))
	s.meta = t.generation<<2 | uint8(bound)
}

// Clear empties every slot and resets the counters and the generation.
func (t *Table) Clear() {
	clear(t.slots)
	t.generation = 0
	t.entries, t.updates, t.collisions = 0, 0, 0
	t.probes, t.hits = 0, 0
}

// NewGeneration marks the start of a search. Entries from earlier searches
// stay readable but lose their replacement protection.
func (t *Table) NewGeneration() {
	t.generation = (t.generation + 1) & generationMask
}

// Generation returns the current generation.
func (t *Table) Generation() uint8 { return t.generation }

func (t *Table) NumberOfEntries() uint64    { return t.entries }
func (t *Table) MaxEntries() uint64         { return uint64(len(t.slots)) }
func (t *Table) NumberOfCollisions() uint64 { return t.collisions }
func (t *Table) NumberOfUpdates() uint64    { return t.updates }

// HitRate returns the share of probes that found their key, in percent.
func (t *Table) HitRate() float64 {
	if t.probes == 0 {
		return 0
	}
	return float64(t.hits) / float64(t.probes) * 100
}

// HashFull samples the first thousand slots and returns how many per mille
// were written in the current generation.
func (t *Table) HashFull() int {
	sample := min(1000, len(t.slots))
	used := 0
	for i := range sample {
		s := &t.slots[i]
		if s.bound() != NoBound && s.generation() == t.generation {
			used++
		}
	}
	return used * 1000 / sample
}

// ScoreToTT converts a score relative to the root into one relative to the
// node at ply, so a stored mate distance stays valid in any transposition.
func ScoreToTT(score, ply int) int {
	switch {
	case score > MateThreshold:
		return score + ply
	case score < -MateThreshold:
		return score - ply
	}
	return score
}

// ScoreFromTT is the inverse of ScoreToTT.
func ScoreFromTT(score, ply int) int {
	switch {
	case score > MateThreshold:
		return score - ply
	case score < -MateThreshold:
		return score + ply
	}
	return score
}
