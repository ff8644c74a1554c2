// Package movegen orders legal moves for the search.
//
// OrderedMoves sorts a complete list up front; a Picker hands out the same
// sequence one move at a time and defers quiet generation until the captures
// and killers are spent. Both rank every move by the same key: stage first
// (hint move, captures, killers, promotions, castling, quiets), then score
// within the stage, then the (from, to, promotion) triple.
package movegen

import (
	"slices"

	"github.com/hailam/chesscore/internal/board"
)

// Killers holds the two most recent quiet moves that caused a cutoff at a ply.
// Index 0 is the most recent.
type Killers [2]board.Move

// Add records m as the most recent killer.
func (k *Killers) Add(m board.Move) {
	if k[0] == m {
		return
	}
	k[1] = k[0]
	k[0] = m
}

// Hints are the position-independent ordering inputs of a node. Moves in it
// are checked for legality before use.
type Hints struct {
	PV      board.Move
	Killers Killers
	// History, when set, is added to the piece-square delta of quiet moves.
	History *History
}

type stage uint8

const (
	stagePV stage = iota
	stageCaptures
	stageKillers
	stagePromotions
	stageCastles
	stageQuiets
)

// MVV-LVA: victim rows, attacker columns.
var mvvLva = [6][6]int{
	{15, 14, 14, 13, 12, 11},
	{25, 24, 24, 23, 22, 21},
	{35, 34, 34, 33, 32, 31},
	{45, 44, 44, 43, 42, 41},
	{55, 54, 54, 53, 52, 51},
	{0, 0, 0, 0, 0, 0},
}

var promotionRank = [7]int{board.Knight: 1, board.Bishop: 2, board.Rook: 3, board.Queen: 4}

type scoredMove struct {
	move  board.Move
	stage stage
	score int
}

func canonical(m board.Move) uint32 {
	return uint32(m.From())<<9 | uint32(m.To())<<3 | uint32(m.Promotion())
}

func compare(a, b scoredMove) int {
	switch {
	case a.stage != b.stage:
		return int(a.stage) - int(b.stage)
	case a.score != b.score:
		return b.score - a.score
	}
	return int(canonical(a.move)) - int(canonical(b.move))
}

func classify(pos *board.Position, h *Hints, m board.Move) scoredMove {
	switch {
	case m == h.PV:
		return scoredMove{m, stagePV, 0}
	case m.IsCapture():
		victim, attacker := m.Captured().Type(), m.Piece().Type()
		return scoredMove{m, stageCaptures, mvvLva[victim][attacker]*8 + promotionRank[m.Promotion()]}
	case m == h.Killers[0]:
		return scoredMove{m, stageKillers, 2}
	case m == h.Killers[1]:
		return scoredMove{m, stageKillers, 1}
	case m.IsPromotion():
		return scoredMove{m, stagePromotions, promotionRank[m.Promotion()]}
	case m.IsCastle():
		if m.Kind() == board.CastleKing {
			return scoredMove{m, stageCastles, 1}
		}
		return scoredMove{m, stageCastles, 0}
	}
	pc := m.Piece()
	score := PieceSquare(pc, m.To()) - PieceSquare(pc, m.From())
	if h.History != nil {
		score += h.History.Score(pos.SideToMove, m)
	}
	return scoredMove{m, stageQuiets, score}
}

// OrderedMoves replaces the contents of ml with the legal moves of pos in
// search order.
func OrderedMoves(pos *board.Position, h Hints, ml *board.MoveList) {
	var legal board.MoveList
	pos.GenerateLegal(&legal)
	scored := make([]scoredMove, 0, legal.Len())
	for _, m := range legal.Slice() {
		scored = append(scored, classify(pos, &h, m))
	}
	slices.SortFunc(scored, compare)
	ml.Clear()
	for _, s := range scored {
		ml.Add(s.move)
	}
}

const (
	phasePV = iota
	phaseGenCaptures
	phaseCaptures
	phaseKillers
	phaseGenQuiets
	phaseRest
	phaseQuiescence
	phaseDone
)

// Picker yields the legal moves of a position lazily. The position must not
// change between calls to Next except for balanced make/undo pairs.
type Picker struct {
	pos    *board.Position
	hints  Hints
	phase  int
	buf    [256]scoredMove
	n      int
	next   int
	killer int
	// Moves already handed out ahead of generation.
	early  [3]board.Move
	nEarly int

	quiescence bool
	checks     bool
}

// NewPicker returns a picker over every legal move of pos.
func NewPicker(pos *board.Position, h Hints) *Picker {
	p := new(Picker)
	p.Init(pos, h)
	return p
}

// Init resets p to pick from pos, so a search can keep one picker per ply.
func (p *Picker) Init(pos *board.Position, h Hints) {
	*p = Picker{pos: pos, hints: h}
}

// NewCapturePicker returns a picker for quiescence: captures and queen
// promotions by MVV-LVA, followed by quiet checking moves when withChecks is
// set.
func NewCapturePicker(pos *board.Position, withChecks bool) *Picker {
	p := new(Picker)
	p.InitCaptures(pos, withChecks)
	return p
}

// InitCaptures resets p the way NewCapturePicker builds it.
func (p *Picker) InitCaptures(pos *board.Position, withChecks bool) {
	*p = Picker{pos: pos, phase: phaseGenCaptures, quiescence: true, checks: withChecks}
}

// Next returns the next move, or false when the picker is exhausted.
func (p *Picker) Next() (board.Move, bool) {
	for {
		switch p.phase {
		case phasePV:
			p.phase = phaseGenCaptures
			if pv := p.hints.PV; pv != board.NoMove && p.pos.IsLegal(pv) {
				p.markEarly(pv)
				return pv, true
			}
		case phaseGenCaptures:
			var ml board.MoveList
			p.pos.GenerateCaptures(&ml)
			p.fill(&ml)
			if p.quiescence {
				p.phase = phaseQuiescence
			} else {
				p.phase = phaseCaptures
			}
		case phaseCaptures:
			if m, ok := p.pick(stageCaptures); ok {
				return m, true
			}
			p.phase = phaseKillers
		case phaseKillers:
			for p.killer < len(p.hints.Killers) {
				k := p.hints.Killers[p.killer]
				p.killer++
				if k == board.NoMove || k.IsCapture() || p.isEarly(k) || !p.pos.IsLegal(k) {
					continue
				}
				p.markEarly(k)
				return k, true
			}
			p.phase = phaseGenQuiets
		case phaseGenQuiets:
			var ml board.MoveList
			p.pos.GenerateQuiets(&ml)
			p.fill(&ml)
			p.phase = phaseRest
		case phaseRest:
			if m, ok := p.pick(stageQuiets); ok {
				return m, true
			}
			p.phase = phaseDone
		case phaseQuiescence:
			if m, ok := p.pick(stageQuiets); ok {
				return m, true
			}
			if !p.checks {
				p.phase = phaseDone
				continue
			}
			p.checks = false
			var quiets, checking board.MoveList
			p.pos.GenerateQuiets(&quiets)
			for _, m := range quiets.Slice() {
				if p.pos.GivesCheck(m) {
					checking.Add(m)
				}
			}
			p.fill(&checking)
		default:
			return board.NoMove, false
		}
	}
}

func (p *Picker) fill(ml *board.MoveList) {
	for _, m := range ml.Slice() {
		if p.isEarly(m) {
			continue
		}
		p.buf[p.n] = classify(p.pos, &p.hints, m)
		p.n++
	}
}

// pick selection-sorts the best remaining buffered move into place, provided
// its stage does not exceed limit.
func (p *Picker) pick(limit stage) (board.Move, bool) {
	for p.next < p.n {
		best := p.next
		for i := p.next + 1; i < p.n; i++ {
			if compare(p.buf[i], p.buf[best]) < 0 {
				best = i
			}
		}
		if p.buf[best].stage > limit {
			return board.NoMove, false
		}
		p.buf[p.next], p.buf[best] = p.buf[best], p.buf[p.next]
		m := p.buf[p.next].move
		p.next++
		// A killer that is also a queen promotion was buffered before the
		// killer phase handed it out.
		if p.isEarly(m) {
			continue
		}
		return m, true
	}
	return board.NoMove, false
}

func (p *Picker) markEarly(m board.Move) {
	p.early[p.nEarly] = m
	p.nEarly++
}

func (p *Picker) isEarly(m board.Move) bool {
	for _, e := range p.early[:p.nEarly] {
		if e == m {
			return true
		}
	}
	return false
}
