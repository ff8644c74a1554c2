package board

import "math/bits"

// Magic is the fancy-magic lookup data for one square of one slider.
type Magic struct {
	Mask   Bitboard
	Magic  uint64
	Shift  uint8
	Offset uint32
}

func (m *Magic) index(occ Bitboard) uint32 {
	return m.Offset + uint32(uint64(occ&m.Mask)*m.Magic>>m.Shift)
}

func (m *Magic) attacks(occ Bitboard) Bitboard {
	return sliderTable[m.index(occ)]
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	// Bishop entries (5248) followed by rook entries (102400).
	sliderTable [5248 + 102400]Bitboard

	bishopDirs = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirs   = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

const magicSeed = 0x2F0A_91C3_5D7E_4B61

// initMagics searches magic multipliers with a fixed-seed generator, so the
// tables are identical on every start.
func initMagics() {
	rng := newPRNG(magicSeed)
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		offset = findMagic(&bishopMagics[sq], sq, bishopDirs, offset, rng)
	}
	for sq := A1; sq <= H8; sq++ {
		offset = findMagic(&rookMagics[sq], sq, rookDirs, offset, rng)
	}
	if offset != uint32(len(sliderTable)) {
		panic(&InvariantViolation{What: "slider table size mismatch"})
	}
}

func sliderAttacks(sq Square, dirs [4][2]int, occ Bitboard) Bitboard {
	var bb Bitboard
	for _, d := range dirs {
		bb |= slide(sq, d[0], d[1], occ)
	}
	return bb
}

// relevantMask drops the final square of every ray, since a blocker there
// never changes the attack set.
func relevantMask(sq Square, dirs [4][2]int) Bitboard {
	var mask Bitboard
	for _, d := range dirs {
		ray := slide(sq, d[0], d[1], Empty)
		if ray != 0 {
			far := ray.MSB()
			if d[0]+8*d[1] < 0 {
				far = ray.LSB()
			}
			mask |= ray.Clear(far)
		}
	}
	return mask
}

func findMagic(m *Magic, sq Square, dirs [4][2]int, offset uint32, rng *prng) uint32 {
	mask := relevantMask(sq, dirs)
	n := mask.PopCount()
	size := 1 << n

	occs := make([]Bitboard, size)
	refs := make([]Bitboard, size)
	// Carry-rippler enumeration of every subset of mask.
	var sub Bitboard
	for i := 0; i < size; i++ {
		occs[i] = sub
		refs[i] = sliderAttacks(sq, dirs, sub)
		sub = (sub - mask) & mask
	}

	table := sliderTable[offset : offset+uint32(size)]
	epoch := make([]int, size)
	for attempt := 1; ; attempt++ {
		magic := rng.sparse()
		if bits.OnesCount64(uint64(mask)*magic>>56) < 6 {
			continue
		}
		*m = Magic{Mask: mask, Magic: magic, Shift: uint8(64 - n)}
		ok := true
		for i := 0; i < size && ok; i++ {
			idx := m.index(occs[i])
			if epoch[idx] < attempt {
				epoch[idx] = attempt
				table[idx] = refs[i]
			} else if table[idx] != refs[i] {
				ok = false
			}
		}
		if ok {
			m.Offset = offset
			return offset + uint32(size)
		}
	}
}
