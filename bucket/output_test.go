package bucket

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellarbase/bucketlist/xdr"
)

type fakeManager struct {
	adopted    map[BucketHash]*Bucket
	emptyNoted []MergeKey
}

func newFakeManager() *fakeManager {
	return &fakeManager{adopted: map[BucketHash]*Bucket{}}
}

func (m *fakeManager) GetIfExists(hash BucketHash) (*Bucket, bool) {
	b, ok := m.adopted[hash]
	return b, ok
}

func (m *fakeManager) AdoptFileAsBucket(path string, hash BucketHash, mergeKey MergeKey, index BucketIndex) (*Bucket, error) {
	if existing, ok := m.adopted[hash]; ok {
		os.Remove(path)
		return existing, nil
	}
	b := NewBucket(path, hash, index)
	m.adopted[hash] = b
	return b, nil
}

func (m *fakeManager) NoteEmptyMergeOutput(mergeKey MergeKey) {
	m.emptyNoted = append(m.emptyNoted, mergeKey)
}

func TestBucketOutputIteratorDedupsAndElidesTombstonesAtBottom(t *testing.T) {
	counters := &MergeCounters{}
	meta := xdr.BucketMetadata{LedgerVersion: 10}

	out, err := NewLiveBucketOutputIterator(t.TempDir(), false, meta, counters)
	require.NoError(t, err)

	require.NoError(t, out.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil))))
	require.NoError(t, out.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 2, nil))))
	require.NoError(t, out.Put(xdr.NewDeadEntry(xdr.AccountKey("bob"))))
	require.NoError(t, out.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("carol", 3, nil))))

	mgr := newFakeManager()
	b, err := out.Finalize(mgr, false, "merge-1")
	require.NoError(t, err)
	require.False(t, b.IsEmpty())

	require.Equal(t, uint64(1), counters.TombstoneElisions)
	require.Equal(t, uint64(2), out.ObjectsPut())

	snap := NewBucketSnapshot(b)
	defer snap.Close()

	var seen []xdr.BucketEntry
	require.NoError(t, snap.ForEachEntry(func(e xdr.BucketEntry) (bool, error) {
		if e.IsMeta() {
			return false, nil
		}
		seen = append(seen, e)
		return false, nil
	}))

	require.Len(t, seen, 2)
	require.Equal(t, xdr.AccountID("alice"), seen[0].Entry.Account.AccountID)
	require.Equal(t, int64(2), seen[0].Entry.Account.Balance)
	require.Equal(t, xdr.AccountID("carol"), seen[1].Entry.Account.AccountID)
}

func TestBucketOutputIteratorRewritesLiveToInitAtBottomLevel(t *testing.T) {
	counters := &MergeCounters{}
	meta := xdr.BucketMetadata{LedgerVersion: FirstProtocolConvertingBottomLevelLiveToInit}

	out, err := NewLiveBucketOutputIterator(t.TempDir(), false, meta, counters)
	require.NoError(t, err)

	require.NoError(t, out.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil))))

	mgr := newFakeManager()
	b, err := out.Finalize(mgr, false, "")
	require.NoError(t, err)

	require.Equal(t, uint64(1), counters.LiveToInitRewrites)

	snap := NewBucketSnapshot(b)
	defer snap.Close()

	var seen []xdr.BucketEntry
	require.NoError(t, snap.ForEachEntry(func(e xdr.BucketEntry) (bool, error) {
		if e.IsMeta() {
			return false, nil
		}
		seen = append(seen, e)
		return false, nil
	}))
	require.Len(t, seen, 1)
	require.Equal(t, xdr.InitEntryType, seen[0].Type)
}

func TestBucketOutputIteratorEmptyOutputIsReportedAndDeleted(t *testing.T) {
	counters := &MergeCounters{}
	meta := xdr.BucketMetadata{LedgerVersion: 10}

	out, err := NewLiveBucketOutputIterator(t.TempDir(), false, meta, counters)
	require.NoError(t, err)

	require.NoError(t, out.Put(xdr.NewDeadEntry(xdr.AccountKey("alice"))))

	mgr := newFakeManager()
	b, err := out.Finalize(mgr, false, "empty-merge")
	require.NoError(t, err)
	require.True(t, b.IsEmpty())
	require.Equal(t, []MergeKey{"empty-merge"}, mgr.emptyNoted)
}

func TestBucketOutputIteratorRejectsOutOfOrderPuts(t *testing.T) {
	counters := &MergeCounters{}
	meta := xdr.BucketMetadata{LedgerVersion: 10}

	out, err := NewLiveBucketOutputIterator(t.TempDir(), false, meta, counters)
	require.NoError(t, err)

	require.NoError(t, out.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("bob", 1, nil))))

	require.Panics(t, func() {
		out.Put(xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 1, nil)))
	})
}

func TestArchiveBucketOutputIteratorRejectsNonSorobanEntries(t *testing.T) {
	counters := &MergeCounters{}
	meta := xdr.BucketMetadata{LedgerVersion: FirstProtocolSupportingPersistentEviction}

	out, err := NewArchiveBucketOutputIterator(t.TempDir(), true, meta, counters)
	require.NoError(t, err)

	require.PanicsWithValue(t, ErrNotSorobanEntry, func() {
		out.Put(xdr.NewArchiveArchivedEntry(xdr.AccountLedgerEntry("alice", 1, nil)))
	})
}

func TestNewArchiveBucketOutputIteratorRejectsOldProtocol(t *testing.T) {
	counters := &MergeCounters{}
	meta := xdr.BucketMetadata{LedgerVersion: FirstProtocolSupportingMeta}

	_, err := NewArchiveBucketOutputIterator(t.TempDir(), true, meta, counters)
	require.ErrorIs(t, err, ErrProtocolTooOld)
}
