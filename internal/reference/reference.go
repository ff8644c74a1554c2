// Package reference drives an external UCI engine to cross-check search
// results.
package reference

import (
	"errors"
	"fmt"

	"github.com/freeeve/uci"
)

var ErrNoResult = errors.New("reference: engine returned no result")

// Score is the reference engine's verdict on a position, from the side to
// move's point of view.
type Score struct {
	Depth int
	// Value is centipawns, or the signed mate distance in moves when Mate is
	// set.
	Value    int
	Mate     bool
	BestMove string
}

// Engine is a running reference engine process.
type Engine struct {
	eng *uci.Engine
}

// Open starts the engine binary at path with a hash of hashMB megabytes.
func Open(path string, hashMB int) (*Engine, error) {
	eng, err := uci.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("reference: start %s: %w", path, err)
	}
	opts := uci.Options{
		Hash:    hashMB,
		Threads: 1,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := eng.SetOptions(opts); err != nil {
		eng.Close()
		return nil, fmt.Errorf("reference: set options: %w", err)
	}
	return &Engine{eng: eng}, nil
}

// Analyse searches fen to depth and returns the deepest result.
func (e *Engine) Analyse(fen string, depth int) (Score, error) {
	if err := e.eng.SetFEN(fen); err != nil {
		return Score{}, fmt.Errorf("reference: set fen: %w", err)
	}
	results, err := e.eng.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return Score{}, fmt.Errorf("reference: go depth %d: %w", depth, err)
	}
	if len(results.Results) == 0 {
		return Score{}, ErrNoResult
	}
	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}
	return Score{Depth: best.Depth, Value: best.Score, Mate: best.Mate, BestMove: results.BestMove}, nil
}

// Close stops the engine process.
func (e *Engine) Close() {
	if e.eng != nil {
		e.eng.Close()
	}
}
