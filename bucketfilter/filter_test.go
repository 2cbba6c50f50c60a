package bucketfilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterNeverFalseNegative(t *testing.T) {
	f := New(100, 0.01)
	require.NotNil(t, f)

	ids := make([][]byte, 100)
	for i := range ids {
		ids[i] = []byte{byte(i), byte(i >> 8), 'x'}
		f.Add(ids[i])
	}

	for _, id := range ids {
		require.True(t, f.MaybeContains(id))
	}
}

func TestFilterRejectsObviouslyAbsent(t *testing.T) {
	f := New(10, 0.001)
	require.NotNil(t, f)
	f.Add([]byte("present"))

	missCount := 0
	for i := 0; i < 50; i++ {
		if !f.MaybeContains([]byte{byte(i), 'a', 'b', 'c', 'd'}) {
			missCount++
		}
	}
	require.Greater(t, missCount, 0)
}

func TestFilterEncodeDecodeRoundTrips(t *testing.T) {
	f := New(10, 0.01)
	require.NotNil(t, f)
	f.Add([]byte("a"))
	f.Add([]byte("b"))

	encoded, err := f.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, f.bitset, decoded.bitset)

	require.True(t, decoded.MaybeContains([]byte("a")))
	require.True(t, decoded.MaybeContains([]byte("b")))
}

func TestNewRejectsBadParameters(t *testing.T) {
	require.Nil(t, New(0, 0.01))
	require.Nil(t, New(10, 0))
	require.Nil(t, New(10, 1))
}
