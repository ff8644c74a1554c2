// Package config holds the engine settings shared by the binary and the
// protocol front end.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Limits accepted by Validate.
const (
	MinHashMB       = 1
	MaxHashMB       = 65536
	MaxContempt     = 200
	MaxMoveOverhead = 5 * time.Second
)

var ErrInvalid = errors.New("config: invalid value")

// Config is the engine configuration. The zero value is not usable; start
// from Default.
type Config struct {
	HashMB       int
	Contempt     int // centipawns, positive avoids draws when ahead
	MoveOverhead time.Duration
	Ponder       bool
	VerifyHash   bool

	LogLevel string
	// DataDir holds the analysis database; empty selects the platform data
	// directory.
	DataDir string
	// StoreAnalyses enables the analysis database.
	StoreAnalyses bool
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HashMB:       16,
		Contempt:     10,
		MoveOverhead: 30 * time.Millisecond,
		LogLevel:     "info",
	}
}

// Validate reports the first out of range field.
func (c *Config) Validate() error {
	switch {
	case c.HashMB < MinHashMB || c.HashMB > MaxHashMB:
		return fmt.Errorf("%w: hash %d MB outside [%d, %d]", ErrInvalid, c.HashMB, MinHashMB, MaxHashMB)
	case c.Contempt < -MaxContempt || c.Contempt > MaxContempt:
		return fmt.Errorf("%w: contempt %d outside [%d, %d]", ErrInvalid, c.Contempt, -MaxContempt, MaxContempt)
	case c.MoveOverhead < 0 || c.MoveOverhead > MaxMoveOverhead:
		return fmt.Errorf("%w: move overhead %s outside [0, %s]", ErrInvalid, c.MoveOverhead, MaxMoveOverhead)
	}
	return nil
}
