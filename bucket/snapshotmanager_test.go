package bucket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainThreadTokenAssertion(t *testing.T) {
	var zero MainThreadToken
	require.Panics(t, func() { zero.assert() })

	token := NewMainThreadToken()
	require.NotPanics(t, func() { token.assert() })
}

func TestNoopTimerStopDoesNothing(t *testing.T) {
	require.NotPanics(t, func() { NoopTimer().Stop() })
}
