// Package refindex is the one concrete BucketIndex (bucket.BucketIndex) this
// module ships: an in-memory sorted key table plus a bloom filter prefilter,
// built by a single linear scan of a finished bucket file. It plays the role
// the teacher's sstable.SSTable index records and sstable/filter.Filter play
// for the teacher's own block format, generalized to LedgerKey identities and
// to the liquidity-pool-by-asset reverse lookup the original spec's domain
// queries need that the teacher has no equivalent of.
package refindex

import (
	"io"
	"os"
	"sort"
	"sync/atomic"

	"github.com/stellarbase/bucketlist/bucket"
	"github.com/stellarbase/bucketlist/bucketfilter"
	"github.com/stellarbase/bucketlist/bucketio"
	"github.com/stellarbase/bucketlist/xdr"
)

type record struct {
	key    xdr.LedgerKey
	offset int64
}

// Index is a read-only, build-once BucketIndex. It never changes after
// Build returns; a BucketSnapshot may share one across goroutines freely.
type Index struct {
	records  []record
	filter   *bucketfilter.Filter
	pageSize int

	poolsByAsset map[string][]xdr.PoolID

	bloomMisses int64
}

// Build scans the bucket file at path once, end to end, and returns a fully
// populated Index. bloomFalsePositiveRate is passed straight through to
// bucketfilter.New; a nonpositive count of candidate keys disables the
// filter, matching bucketfilter's own defensive construction.
func Build(path string, bloomFalsePositiveRate float64) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var (
		records      []record
		poolAssets   = map[xdr.PoolID][2]xdr.Asset{}
		poolsByAsset = map[string][]xdr.PoolID{}
	)

	var offset int64
	for {
		entry, recLen, err := bucketio.ReadRecordAt(file, offset)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		if !entry.IsMeta() {
			records = append(records, record{key: entry.Identity(), offset: offset})

			if entry.Type == xdr.LiveEntryType || entry.Type == xdr.InitEntryType {
				if le := entry.Entry; le.Type == xdr.LedgerEntryLiquidityPool {
					poolAssets[le.LiquidityPool.PoolID] = [2]xdr.Asset{le.LiquidityPool.AssetA, le.LiquidityPool.AssetB}
				}
			}
		}

		offset += recLen
	}

	sort.Slice(records, func(i, j int) bool {
		return xdr.CompareKeys(records[i].key, records[j].key) < 0
	})

	for pool, assets := range poolAssets {
		for _, a := range assets {
			id := string(xdr.IdentityBytes(xdr.TrustLineKey("", a)))
			poolsByAsset[id] = append(poolsByAsset[id], pool)
		}
	}

	filter := bucketfilter.New(len(records), bloomFalsePositiveRate)
	if filter != nil {
		for _, r := range records {
			filter.Add(xdr.IdentityBytes(r.key))
		}
	}

	return &Index{
		records:      records,
		filter:       filter,
		poolsByAsset: poolsByAsset,
	}, nil
}

func (idx *Index) Lookup(key xdr.LedgerKey) (int64, bool) {
	if idx.filter != nil && !idx.filter.MaybeContains(xdr.IdentityBytes(key)) {
		return 0, false
	}

	i := sort.Search(len(idx.records), func(i int) bool {
		return xdr.CompareKeys(idx.records[i].key, key) >= 0
	})
	if i == len(idx.records) || xdr.CompareKeys(idx.records[i].key, key) != 0 {
		return 0, false
	}
	return idx.records[i].offset, true
}

func (idx *Index) Scan(cursor bucket.Cursor, key xdr.LedgerKey) (int64, bool, bucket.Cursor) {
	i := cursor.Pos
	for i < len(idx.records) && xdr.CompareKeys(idx.records[i].key, key) < 0 {
		i++
	}
	if i == len(idx.records) || xdr.CompareKeys(idx.records[i].key, key) != 0 {
		return 0, false, bucket.NewCursor(i)
	}
	return idx.records[i].offset, true, bucket.NewCursor(i)
}

func (idx *Index) PageSize() int { return idx.pageSize }

// PoolIDsByAsset reports every liquidity pool this index saw carrying asset
// as one of its two reserves. It keys by a trustline identity over asset
// because LedgerKey's encoding already gives assets stable, comparable
// bytes; no meaning beyond "same bytes" is implied.
func (idx *Index) PoolIDsByAsset(asset xdr.Asset) []xdr.PoolID {
	id := string(xdr.IdentityBytes(xdr.TrustLineKey("", asset)))
	return idx.poolsByAsset[id]
}

func (idx *Index) MarkBloomMiss() {
	atomic.AddInt64(&idx.bloomMisses, 1)
}

// BloomMisses exposes the counter MarkBloomMiss accumulates, mostly useful
// in tests asserting the filter is actually doing its job.
func (idx *Index) BloomMisses() int64 {
	return atomic.LoadInt64(&idx.bloomMisses)
}

func (idx *Index) Begin() bucket.Cursor { return bucket.NewCursor(0) }
func (idx *Index) End() bucket.Cursor   { return bucket.NewCursor(len(idx.records)) }
