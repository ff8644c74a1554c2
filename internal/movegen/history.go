package movegen

import "github.com/hailam/chesscore/internal/board"

const historyMax = 400000

// History scores quiet moves by from/to square for the side that played them.
// Good moves gain depth², moves searched before a cutoff lose it.
type History [2][64][64]int32

// Update rewards or penalises a quiet move made by c.
func (h *History) Update(c board.Color, m board.Move, depth int, good bool) {
	bonus := int32(depth * depth)
	slot := &h[c][m.From()][m.To()]
	if !good {
		*slot = max(*slot-bonus, -historyMax)
		return
	}
	*slot += bonus
	if *slot > historyMax {
		h.Age()
	}
}

// Score returns the history value of m for c.
func (h *History) Score(c board.Color, m board.Move) int {
	return int(h[c][m.From()][m.To()])
}

// Age halves every entry so older results fade between searches.
func (h *History) Age() {
	for c := range h {
		for from := range h[c] {
			for to := range h[c][from] {
				h[c][from][to] /= 2
			}
		}
	}
}

// Clear zeroes the table.
func (h *History) Clear() { *h = History{} }
