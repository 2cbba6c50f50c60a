package bucket

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellarbase/bucketlist/xdr"
)

func TestSortedKeySetOrdersAndDedups(t *testing.T) {
	in := []xdr.LedgerKey{
		xdr.AccountKey("carol"),
		xdr.AccountKey("alice"),
		xdr.AccountKey("bob"),
		xdr.AccountKey("alice"),
	}

	s := NewSortedKeySet(in)
	require.Equal(t, 3, s.Len())

	pending := s.Pending()
	require.Equal(t, []xdr.LedgerKey{
		xdr.AccountKey("alice"),
		xdr.AccountKey("bob"),
		xdr.AccountKey("carol"),
	}, pending)
}

func TestSortedKeySetRemove(t *testing.T) {
	s := NewSortedKeySet([]xdr.LedgerKey{
		xdr.AccountKey("alice"),
		xdr.AccountKey("bob"),
		xdr.AccountKey("carol"),
	})

	s.Remove(xdr.AccountKey("bob"))
	require.Equal(t, 2, s.Len())
	require.Equal(t, []xdr.LedgerKey{
		xdr.AccountKey("alice"),
		xdr.AccountKey("carol"),
	}, s.Pending())

	s.Remove(xdr.AccountKey("nobody"))
	require.Equal(t, 2, s.Len())
}

func TestSortedKeySetEmpty(t *testing.T) {
	s := NewSortedKeySet(nil)
	require.True(t, s.Empty())
	require.Equal(t, 0, s.Len())
}
