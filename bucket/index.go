package bucket

import "github.com/stellarbase/bucketlist/xdr"

// Cursor is an opaque, monotone position into a BucketIndex's key stream.
// Callers only ever pass a cursor back to Scan or compare it with End();
// only an index implementation is expected to interpret Pos meaningfully,
// but it is exported so out-of-package BucketIndex implementations (e.g.
// refindex) can construct and read it without a back-door into this
// package.
type Cursor struct {
	Pos int
}

// NewCursor builds a cursor at the given implementation-defined position.
func NewCursor(pos int) Cursor {
	return Cursor{Pos: pos}
}

// BucketIndex is the per-bucket index C3 consults to resolve a key to a
// byte offset. Its probabilistic structure and on-disk page layout are
// deliberately out of scope (§1) — this is a consumed contract; see
// refindex for the one concrete implementation this module ships to
// exercise it.
type BucketIndex interface {
	// Lookup returns the offset of a page or record that may contain key.
	// ok=false means "definitely absent, or rejected by the bloom filter".
	Lookup(key xdr.LedgerKey) (offset int64, ok bool)

	// Scan resumes a forward sweep over the index's sorted key stream from
	// cursor, looking for key. It returns the offset for key if located at
	// or after cursor, and an advanced cursor positioned so a subsequent
	// call with a larger key resumes correctly. A single sweep over N
	// ascending keys costs O(index size) + O(N) total, not O(N) independent
	// lookups.
	Scan(cursor Cursor, key xdr.LedgerKey) (offset int64, ok bool, next Cursor)

	// PageSize is 0 for single-record reads, or the page size callers must
	// scan within otherwise.
	PageSize() int

	// PoolIDsByAsset is the liquidity-pool-by-asset reverse index used by
	// the pool-share trustline query. No shadowing is implied here: the
	// caller unions this across every bucket in the cascade.
	PoolIDsByAsset(asset xdr.Asset) []xdr.PoolID

	// MarkBloomMiss records that Lookup returned an offset but the record
	// or page at that offset did not actually contain the key.
	MarkBloomMiss()

	// Begin and End bound a full sweep: Begin() is the cursor a scan of
	// every key starts from; End() is the sentinel a scan can never
	// advance past.
	Begin() Cursor
	End() Cursor
}
