package config

import (
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/testutil"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	testutil.AssertNoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no hash", func(c *Config) { c.HashMB = 0 }},
		{"huge hash", func(c *Config) { c.HashMB = MaxHashMB + 1 }},
		{"contempt", func(c *Config) { c.Contempt = -MaxContempt - 1 }},
		{"negative overhead", func(c *Config) { c.MoveOverhead = -time.Millisecond }},
		{"long overhead", func(c *Config) { c.MoveOverhead = time.Minute }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.modify(&c)
			testutil.AssertErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}
