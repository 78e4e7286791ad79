package node

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainNamesDefaultsAndOverrides(t *testing.T) {
	c := NewChainNames(nil)
	name, ok := c.Lookup(167012)
	require.True(t, ok)
	require.Equal(t, "Sepolia", name)
	require.Equal(t, "Mainnet (202555)", c.Describe(202555))
	require.Equal(t, "unknown (1)", c.Describe(1))

	c = NewChainNames(map[uint64]string{202555: "Main", 7: "Devnet"})
	require.Equal(t, "Main (202555)", c.Describe(202555))
	require.Equal(t, []uint64{7, 167012, 202555}, c.IDs())

	// Overrides must not leak into the shared defaults.
	require.Equal(t, "Mainnet (202555)", NewChainNames(nil).Describe(202555))
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("warn", &buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "k=1")

	require.Equal(t, slog.LevelDebug, ParseLogLevel(" DEBUG "))
	require.Equal(t, slog.LevelInfo, ParseLogLevel("bogus"))
	require.Equal(t, slog.LevelError, ParseLogLevel("error"))
	require.True(t, strings.HasPrefix(out, "time="))
}
