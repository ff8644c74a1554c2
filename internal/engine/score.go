package engine

import (
	"strconv"

	"github.com/hailam/chesscore/internal/tt"
)

const (
	// Mate is the score of delivering mate at the root; mate in n plies
	// scores Mate-n.
	Mate     = tt.Mate
	Infinity = Mate + 1

	MaxPly   = 128
	MaxDepth = 100
)

// MateIn returns the score of mating in the given number of plies.
func MateIn(plies int) int { return Mate - plies }

// MatedIn returns the score of being mated in the given number of plies.
func MatedIn(plies int) int { return -Mate + plies }

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score > tt.MateThreshold || score < -tt.MateThreshold
}

// MateMoves converts a mate score into full moves, negative when the side to
// move is being mated, and returns 0 for other scores.
func MateMoves(score int) int {
	switch {
	case score > tt.MateThreshold:
		return (Mate - score + 1) / 2
	case score < -tt.MateThreshold:
		return -(Mate + score) / 2
	}
	return 0
}

// FormatScore renders a score for logs: pawns with two decimals, or the mate
// distance.
func FormatScore(score int) string {
	if n := MateMoves(score); n != 0 {
		if n > 0 {
			return "mate in " + strconv.Itoa(n)
		}
		return "mated in " + strconv.Itoa(-n)
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cp := strconv.Itoa(score % 100)
	if len(cp) == 1 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(score/100) + "." + cp
}
