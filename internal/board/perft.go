package board

// Perft counts the leaf nodes of the legal move tree to depth.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var ml MoveList
	p.GenerateLegal(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UndoMove()
	}
	return nodes
}

// PerftDivide returns the perft count below each root move.
func (p *Position) PerftDivide(depth int) map[string]uint64 {
	out := make(map[string]uint64)
	var ml MoveList
	p.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		out[m.String()] = p.Perft(depth - 1)
		p.UndoMove()
	}
	return out
}

// PerftCounts breaks the leaves of a perft run down by the move that reached
// them.
type PerftCounts struct {
	Nodes      uint64
	Captures   uint64
	EnPassant  uint64
	Castles    uint64
	Promotions uint64
	Checks     uint64
	Mates      uint64
}

func (c *PerftCounts) add(o PerftCounts) {
	c.Nodes += o.Nodes
	c.Captures += o.Captures
	c.EnPassant += o.EnPassant
	c.Castles += o.Castles
	c.Promotions += o.Promotions
	c.Checks += o.Checks
	c.Mates += o.Mates
}

// PerftStats is Perft with the leaf breakdown; it is much slower.
func (p *Position) PerftStats(depth int) PerftCounts {
	var c PerftCounts
	if depth <= 0 {
		c.Nodes = 1
		return c
	}
	var ml MoveList
	p.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		if depth == 1 {
			c.Nodes++
			if m.IsCapture() {
				c.Captures++
			}
			if m.IsEnPassant() {
				c.EnPassant++
			}
			if m.IsCastle() {
				c.Castles++
			}
			if m.IsPromotion() {
				c.Promotions++
			}
			if p.InCheck() {
				c.Checks++
				if !p.HasLegalMoves() {
					c.Mates++
				}
			}
		} else {
			c.add(p.PerftStats(depth - 1))
		}
		p.UndoMove()
	}
	return c
}
