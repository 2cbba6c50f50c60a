package bucketio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellarbase/bucketlist/xdr"
)

func TestWriteReadRecordRoundTrips(t *testing.T) {
	cases := []xdr.BucketEntry{
		xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 100, nil)),
		xdr.NewInitEntry(xdr.TrustLineLedgerEntry("bob", xdr.CreditAsset("USD", "issuer"), 50)),
		xdr.NewDeadEntry(xdr.AccountKey("carol")),
		xdr.NewMetaEntry(xdr.BucketMetadata{LedgerVersion: 21}),
		xdr.NewArchiveLiveEntry(xdr.OtherKey("contract_data", "c1")),
		xdr.NewArchiveArchivedEntry(xdr.OtherLedgerEntry("contract_code")),
		xdr.NewArchiveMetaEntry(xdr.BucketMetadata{LedgerVersion: 21}),
	}

	var buf bytes.Buffer
	var offsets []int64
	for _, e := range cases {
		offsets = append(offsets, int64(buf.Len()))
		n, err := WriteRecord(&buf, e)
		require.NoError(t, err)
		require.Greater(t, n, int64(0))
	}

	reader := bytes.NewReader(buf.Bytes())
	for _, want := range cases {
		got, err := ReadRecord(reader)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ReadRecord(reader)
	require.ErrorIs(t, err, io.EOF)

	ra := bytes.NewReader(buf.Bytes())
	for i, want := range cases {
		got, _, err := ReadRecordAt(ra, offsets[i])
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestReadRecordAtReportsLengthForScanAdvance(t *testing.T) {
	var buf bytes.Buffer
	first := xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 100, nil))
	second := xdr.NewLiveEntry(xdr.AccountLedgerEntry("bob", 200, nil))

	_, err := WriteRecord(&buf, first)
	require.NoError(t, err)
	_, err = WriteRecord(&buf, second)
	require.NoError(t, err)

	ra := bytes.NewReader(buf.Bytes())
	got1, n1, err := ReadRecordAt(ra, 0)
	require.NoError(t, err)
	require.Equal(t, first, got1)

	got2, _, err := ReadRecordAt(ra, n1)
	require.NoError(t, err)
	require.Equal(t, second, got2)
}
