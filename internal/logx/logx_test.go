package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/testutil"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel)
	log.Debug().Msg("hidden")
	log.Info().Str("component", "search").Msg("visible")

	out := buf.String()
	testutil.AssertFalse(t, strings.Contains(out, "hidden"), "debug suppressed: %q", out)
	testutil.AssertTrue(t, strings.Contains(out, "visible"), "info written: %q", out)
	testutil.AssertTrue(t, strings.Contains(out, "logx_test.go"), "caller recorded: %q", out)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"trace", zerolog.TraceLevel},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.name)
		testutil.AssertNoError(t, err, "level %q", tc.name)
		testutil.AssertEqual(t, got, tc.want)
	}
	_, err := ParseLevel("loud")
	testutil.AssertError(t, err)
}
