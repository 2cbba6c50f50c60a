package refindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellarbase/bucketlist/bucket"
	"github.com/stellarbase/bucketlist/bucketio"
	"github.com/stellarbase/bucketlist/xdr"
)

func writeBucketFile(t *testing.T, entries ...xdr.BucketEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bucket.dat")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	for _, e := range entries {
		_, err := bucketio.WriteRecord(f, e)
		require.NoError(t, err)
	}
	return path
}

func TestBuildLookupAndScan(t *testing.T) {
	path := writeBucketFile(t,
		xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil)),
		xdr.NewLiveEntry(xdr.AccountLedgerEntry("bob", 2, nil)),
		xdr.NewDeadEntry(xdr.AccountKey("carol")),
	)

	idx, err := Build(path, 0.01)
	require.NoError(t, err)

	offset, ok := idx.Lookup(xdr.AccountKey("bob"))
	require.True(t, ok)
	require.Greater(t, offset, int64(0))

	_, ok = idx.Lookup(xdr.AccountKey("nobody"))
	require.False(t, ok)

	cursor := idx.Begin()
	_, ok, cursor = idx.Scan(cursor, xdr.AccountKey("alice"))
	require.True(t, ok)
	_, ok, cursor = idx.Scan(cursor, xdr.AccountKey("carol"))
	require.True(t, ok)
	_, ok, cursor = idx.Scan(cursor, xdr.AccountKey("zed"))
	require.False(t, ok)
	require.Equal(t, idx.End(), cursor)
}

func TestBuildPoolIDsByAsset(t *testing.T) {
	usd := xdr.CreditAsset("USD", "issuer")
	pool := xdr.PoolID("p1")

	path := writeBucketFile(t,
		xdr.NewLiveEntry(xdr.LiquidityPoolLedgerEntry(pool, xdr.NativeAsset(), usd)),
	)

	idx, err := Build(path, 0.01)
	require.NoError(t, err)

	pools := idx.PoolIDsByAsset(usd)
	require.Equal(t, []xdr.PoolID{pool}, pools)

	require.Empty(t, idx.PoolIDsByAsset(xdr.CreditAsset("EUR", "issuer")))
}

func TestMarkBloomMiss(t *testing.T) {
	path := writeBucketFile(t, xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil)))
	idx, err := Build(path, 0.01)
	require.NoError(t, err)

	require.Equal(t, int64(0), idx.BloomMisses())
	idx.MarkBloomMiss()
	require.Equal(t, int64(1), idx.BloomMisses())

	var _ bucket.BucketIndex = idx
}
