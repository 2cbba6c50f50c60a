package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stellarbase/bucketlist/bucket"
	"github.com/stellarbase/bucketlist/refindex"
	"github.com/stellarbase/bucketlist/refmanager"
	"github.com/stellarbase/bucketlist/refsnapshotmgr"
	"github.com/stellarbase/bucketlist/xdr"
)

func main() {
	dataDir, err := os.MkdirTemp("", "bucketdemo")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dataDir)

	mgr, err := refmanager.Open(filepath.Join(dataDir, "buckets"))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer mgr.Close()

	meta := xdr.BucketMetadata{LedgerVersion: 21}

	// bottomLevel holds the oldest surviving state: alice and bob as they
	// were before bob closed his account.
	bottomLevel := buildLevel(mgr, meta, []xdr.BucketEntry{
		xdr.NewLiveEntry(xdr.AccountLedgerEntry("alice", 75_000, nil)),
		xdr.NewLiveEntry(xdr.AccountLedgerEntry("bob", 30_000, nil)),
	}, true)

	// shallowLevel is more recent: bob's account was closed (a tombstone
	// masks the bottom level's copy) and carol appeared.
	shallowLevel := buildLevel(mgr, meta, []xdr.BucketEntry{
		xdr.NewDeadEntry(xdr.AccountKey("bob")),
		xdr.NewLiveEntry(xdr.AccountLedgerEntry("carol", 1_500_000_000, accountPtr("alice"))),
	}, false)

	snapshot := bucket.NewBucketListSnapshot(1, []bucket.Level{
		{Curr: shallowLevel, Snap: bucket.NewBucketSnapshot(bucket.EmptyBucket())},
		{Curr: bottomLevel, Snap: bucket.NewBucketSnapshot(bucket.EmptyBucket())},
	})

	snapMgr := refsnapshotmgr.New(nil, snapshot)
	searchable := bucket.NewSearchableSnapshot(snapMgr)

	entry, err := searchable.GetEntry(xdr.AccountKey("alice"))
	if err != nil {
		fmt.Println(err)
		return
	}
	if entry != nil {
		fmt.Printf("alice: balance=%d\n", entry.Account.Balance)
	}

	bobEntry, err := searchable.GetEntry(xdr.AccountKey("bob"))
	if err != nil {
		fmt.Println(err)
		return
	}
	if bobEntry == nil {
		fmt.Println("bob: shadowed by tombstone at a shallower level")
	} else {
		fmt.Printf("bob: balance=%d\n", bobEntry.Account.Balance)
	}

	mainThread := bucket.NewMainThreadToken()
	winners, err := searchable.LoadInflationWinners(mainThread, 5, 1_000_000_000)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, w := range winners {
		fmt.Printf("inflation winner: %s votes=%d\n", w.AccountID, w.Votes)
	}
}

func accountPtr(id xdr.AccountID) *xdr.AccountID {
	return &id
}

func buildLevel(mgr *refmanager.Manager, meta xdr.BucketMetadata, entries []xdr.BucketEntry, bottomLevel bool) *bucket.BucketSnapshot {
	counters := &bucket.MergeCounters{}
	out, err := bucket.NewLiveBucketOutputIterator(os.TempDir(), !bottomLevel, meta, counters,
		bucket.WithIndexBuilder(func(path string) (bucket.BucketIndex, error) {
			return refindex.Build(path, 0.01)
		}),
	)
	if err != nil {
		panic(err)
	}

	for _, e := range entries {
		if err := out.Put(e); err != nil {
			panic(err)
		}
	}

	b, err := out.Finalize(mgr, true, "demo-merge")
	if err != nil {
		panic(err)
	}

	return bucket.NewBucketSnapshot(b)
}
