package engine

// PawnEntry caches the pawn structure terms of one pawn configuration.
type PawnEntry struct {
	Key     uint64
	MgScore int16
	EgScore int16
}

// PawnTable is a direct-mapped cache of pawn structure scores keyed by the
// pawn Zobrist key.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a table of sizeMB megabytes rounded down to a power of
// two entry count.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 16
	n := max(sizeMB, 1) * 1024 * 1024 / entrySize
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the cached scores for key.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.Key == key && key != 0 {
		return int(entry.MgScore), int(entry.EgScore), true
	}
	return 0, 0, false
}

// Store saves the scores for key.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	entry := &pt.entries[key&pt.mask]
	entry.Key = key
	entry.MgScore = int16(mg)
	entry.EgScore = int16(eg)
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
