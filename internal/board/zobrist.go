package board

var (
	zobristPiece     [12][64]uint64
	zobristEnPassant [8]uint64
	zobristCastling  [16]uint64
	zobristSide      uint64
)

const zobristSeed = 0x98F107A2BEEF1234

func init() {
	rng := newPRNG(zobristSeed)
	for p := range zobristPiece {
		for sq := range zobristPiece[p] {
			zobristPiece[p][sq] = rng.next()
		}
	}
	for f := range zobristEnPassant {
		zobristEnPassant[f] = rng.next()
	}
	// Each right gets its own key and a combination is the XOR of its rights,
	// so clearing one right touches a single key.
	var single [4]uint64
	for i := range single {
		single[i] = rng.next()
	}
	for cr := range zobristCastling {
		for i := range single {
			if cr&(1<<i) != 0 {
				zobristCastling[cr] ^= single[i]
			}
		}
	}
	zobristSide = rng.next()
}

// prng is xorshift64*; deterministic so keys and magics never change.
type prng struct{ state uint64 }

func newPRNG(seed uint64) *prng { return &prng{state: seed} }

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// sparse returns a value with roughly an eighth of its bits set.
func (p *prng) sparse() uint64 { return p.next() & p.next() & p.next() }

// ComputeHash recomputes the position key from scratch.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			h ^= zobristPiece[pc][sq]
		}
	}
	h ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= zobristSide
	}
	return h
}

// ComputePawnKey recomputes the pawn-structure key from scratch.
func (p *Position) ComputePawnKey() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for bb := p.Pieces[c][Pawn]; bb != 0; {
			h ^= zobristPiece[NewPiece(Pawn, c)][bb.PopLSB()]
		}
	}
	return h
}
