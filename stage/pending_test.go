package stage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellarbase/bucketlist/xdr"
)

func TestPutOverwritesByIdentity(t *testing.T) {
	p, err := Open(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil))))
	require.NoError(t, p.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 2, nil))))
	require.Equal(t, 1, p.Len())

	drained, err := p.Drain()
	require.NoError(t, err)
	require.Len(t, drained, 1)
	require.Equal(t, int64(2), drained[0].Entry.Account.Balance)
}

func TestDrainReturnsSortedAndResets(t *testing.T) {
	p, err := Open(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("carol", 1, nil))))
	require.NoError(t, p.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil))))
	require.NoError(t, p.Put(xdr.NewDeadEntry(xdr.AccountKey("bob"))))

	drained, err := p.Drain()
	require.NoError(t, err)
	require.Len(t, drained, 3)
	require.Equal(t, xdr.AccountID("alice"), drained[0].Entry.Account.AccountID)
	require.Equal(t, xdr.AccountKey("bob"), drained[1].Key)
	require.Equal(t, xdr.AccountID("carol"), drained[2].Entry.Account.AccountID)

	require.Equal(t, 0, p.Len())
}

func TestPutRejectsMetaEntry(t *testing.T) {
	p, err := Open(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	err = p.Put(xdr.NewMetaEntry(xdr.BucketMetadata{LedgerVersion: 21}))
	require.ErrorIs(t, err, ErrCannotStagePending)
}

func TestRecoversFromWALAfterReopen(t *testing.T) {
	dir := t.TempDir()

	p, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, p.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil))))
	require.NoError(t, p.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 2, nil))))
	require.NoError(t, p.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 1, reopened.Len())
	drained, err := reopened.Drain()
	require.NoError(t, err)
	require.Len(t, drained, 1)
	require.Equal(t, int64(2), drained[0].Entry.Account.Balance)
}
