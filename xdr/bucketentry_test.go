package xdr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiveEntryAccessorsAndPanics(t *testing.T) {
	live := NewLiveEntry(AccountLedgerEntry("alice", 1, nil))
	require.Equal(t, AccountID("alice"), live.LiveEntry().Account.AccountID)

	dead := NewDeadEntry(AccountKey("alice"))
	require.Panics(t, func() { dead.LiveEntry() })

	meta := NewMetaEntry(BucketMetadata{LedgerVersion: 21})
	require.True(t, meta.IsMeta())
	require.Panics(t, func() { meta.Identity() })
	require.Panics(t, func() { meta.LiveEntry() })
}

func TestIdentityMatchesEntryKey(t *testing.T) {
	entry := AccountLedgerEntry("alice", 1, nil)
	live := NewLiveEntry(entry)
	require.Equal(t, entry.Key(), live.Identity())
}

func TestCompareKeysOrdersByIdentity(t *testing.T) {
	require.Equal(t, -1, CompareKeys(AccountKey("alice"), AccountKey("bob")))
	require.Equal(t, 0, CompareKeys(AccountKey("alice"), AccountKey("alice")))
	require.Equal(t, 1, CompareKeys(AccountKey("bob"), AccountKey("alice")))
}

func TestXDRSizeEstimatesAreMonotonicOverPayload(t *testing.T) {
	small := AccountLedgerEntry("a", 1, nil)
	dest := AccountID("b")
	big := AccountLedgerEntry("a", 1, &dest)

	require.Greater(t, XDRSizeOfEntry(big), XDRSizeOfEntry(small))
}
