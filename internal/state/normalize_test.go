package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoolNormalization(t *testing.T) {
	truthy := []any{true, "1", "true", "TRUE", "Yes", "on", 1, int64(2), 0.5}
	for _, v := range truthy {
		got, ok := Bool(v)
		require.True(t, ok, "value %v", v)
		require.True(t, got, "value %v", v)
	}

	falsy := []any{false, "0", "false", "No", "off", " 0 ", 0, int64(0), 0.0}
	for _, v := range falsy {
		got, ok := Bool(v)
		require.True(t, ok, "value %v", v)
		require.False(t, got, "value %v", v)
	}

	for _, v := range []any{"maybe", "", nil, []string{"true"}} {
		_, ok := Bool(v)
		require.False(t, ok, "value %v", v)
	}
}
