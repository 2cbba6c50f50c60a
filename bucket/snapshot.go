package bucket

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/stellarbase/bucketlist/bucketio"
	"github.com/stellarbase/bucketlist/xdr"
)

// randomAccessStream is the byte-stream abstraction filesystem I/O is
// reduced to (§1, out of scope beyond this interface).
type randomAccessStream interface {
	io.ReaderAt
	io.Closer
}

// BucketSnapshot is an immutable handle to one bucket plus a lazily
// created, reader-owned input stream (§4.2). Clone yields a copy with a
// fresh, unopened stream; a plain struct copy would share the open handle.
type BucketSnapshot struct {
	bucket *Bucket

	mu     sync.Mutex
	stream randomAccessStream
}

// NewBucketSnapshot wraps b. b may be the empty-bucket sentinel.
func NewBucketSnapshot(b *Bucket) *BucketSnapshot {
	return &BucketSnapshot{bucket: b}
}

// Clone returns a BucketSnapshot referencing the same bucket with a fresh,
// unopened stream, so a second reader goroutine never shares this
// snapshot's open file handle (§5, "Resource discipline").
func (s *BucketSnapshot) Clone() *BucketSnapshot {
	return NewBucketSnapshot(s.bucket)
}

func (s *BucketSnapshot) IsEmpty() bool {
	return s.bucket.IsEmpty()
}

// Close releases the lazily opened stream, if any.
func (s *BucketSnapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

func (s *BucketSnapshot) getStream() (randomAccessStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		f, err := os.Open(s.bucket.Path())
		if err != nil {
			return nil, fmt.Errorf("bucket: open %q: %w", s.bucket.Path(), err)
		}
		s.stream = f
	}
	return s.stream, nil
}

// getEntryAtOffset reads the record at pos and, if the index's page size is
// nonzero, scans forward within that page for key. A miss within a page
// (page size > 0) is reported to the index as a bloom miss.
func (s *BucketSnapshot) getEntryAtOffset(key xdr.LedgerKey, pos int64, pageSize int) (*xdr.BucketEntry, error) {
	if s.IsEmpty() {
		return nil, nil
	}

	stream, err := s.getStream()
	if err != nil {
		return nil, err
	}

	if pageSize == 0 {
		entry, _, err := bucketio.ReadRecordAt(stream, pos)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		return &entry, nil
	}

	var consumed int64
	offset := pos
	for consumed < int64(pageSize) {
		entry, recLen, err := bucketio.ReadRecordAt(stream, offset)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if !entry.IsMeta() && xdr.CompareKeys(entry.Identity(), key) == 0 {
			return &entry, nil
		}
		consumed += recLen
		offset += recLen
	}

	s.bucket.Index().MarkBloomMiss()
	return nil, nil
}

// Get resolves key against this bucket's index, per §4.2.
func (s *BucketSnapshot) Get(key xdr.LedgerKey) (*xdr.BucketEntry, error) {
	if s.IsEmpty() {
		return nil, nil
	}

	idx := s.bucket.Index()
	pos, ok := idx.Lookup(key)
	if !ok {
		return nil, nil
	}
	return s.getEntryAtOffset(key, pos, idx.PageSize())
}

// LoadKeys co-walks keys.Pending() against this bucket's index in one
// linear pass (§4.2). Keys resolved here (hit a tombstone, hit a live
// value, or were metered out) are removed from keys; keys this bucket
// doesn't contain are left for the caller to try at a deeper level.
func (s *BucketSnapshot) LoadKeys(keys *SortedKeySet, out *[]xdr.LedgerEntry, meter LedgerKeyMeter) error {
	if s.IsEmpty() {
		return nil
	}

	idx := s.bucket.Index()
	cursor := idx.Begin()

	for _, key := range keys.Pending() {
		if meter != nil {
			keySize := xdr.XDRSizeOfKey(key)
			if !meter.CanLoad(key, keySize) {
				// The transactions referencing this key have less quota
				// left than the key itself costs. Consuming keySize here
				// drives their remaining quota to zero so later entries
				// belonging only to those transactions are also rejected,
				// even though, taken alone, some might have fit.
				meter.UpdateReadQuotas(key, keySize)
				keys.Remove(key)
				continue
			}
		}

		pos, ok, next := idx.Scan(cursor, key)
		cursor = next
		if !ok {
			continue
		}

		entry, err := s.getEntryAtOffset(key, pos, idx.PageSize())
		if err != nil {
			return err
		}
		if entry == nil {
			continue
		}

		if entry.Type == xdr.DeadEntryType {
			keys.Remove(key)
			continue
		}

		live := entry.LiveEntry()
		addEntry := true
		if meter != nil {
			entrySize := xdr.XDRSizeOfEntry(live)
			addEntry = meter.CanLoad(key, entrySize)
			meter.UpdateReadQuotas(key, entrySize)
		}
		if addEntry {
			*out = append(*out, live)
		}
		keys.Remove(key)
	}
	return nil
}

// PoolIDsByAsset passes through to the index; empty on an empty bucket.
func (s *BucketSnapshot) PoolIDsByAsset(asset xdr.Asset) []xdr.PoolID {
	if s.IsEmpty() {
		return nil
	}
	return s.bucket.Index().PoolIDsByAsset(asset)
}

// ForEachEntry streams every record of the bucket in file order, calling
// visit for each. Used by the inflation-winner query, which needs to see
// entries in the bucket's own order rather than resolve individual keys.
// Returning an error from visit stops the stream early.
func (s *BucketSnapshot) ForEachEntry(visit func(xdr.BucketEntry) (stop bool, err error)) error {
	if s.IsEmpty() {
		return nil
	}

	stream, err := s.getStream()
	if err != nil {
		return err
	}

	var offset int64
	for {
		entry, recLen, err := bucketio.ReadRecordAt(stream, offset)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		stop, err := visit(entry)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
		offset += recLen
	}
}
