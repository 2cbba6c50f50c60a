package bucket

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/stellarbase/bucketlist/bucketio"
	"github.com/stellarbase/bucketlist/xdr"
)

// MergeCounters accumulates a BucketOutputIterator's bookkeeping:
// TombstoneElisions counts dropped bottom-level tombstones, BufferUpdates
// counts every other entry installed in the one-entry buffer (including the
// meta record), ActualWrites counts buffered entries flushed because a
// larger identity arrived (the final flush in Finalize is not counted), and
// LiveToInitRewrites counts bottom-level Live entries buffered as Init.
type MergeCounters struct {
	TombstoneElisions uint64
	ActualWrites      uint64
	LiveToInitRewrites uint64
	BufferUpdates     uint64
}

// BucketOutputIterator is the write-side merge sink (C6, §4.5): it consumes
// a sorted, possibly-duplicate-keyed stream of entries and emits a single
// hashed bucket file, eliding tombstones and rewriting live entries at the
// bottom level. It is generic over BucketKind (DESIGN NOTES §9) so the live
// and archive cascades share this state machine without an IsArchive bool
// threaded through every branch.
type BucketOutputIterator[K BucketKind] struct {
	kind K

	meta           xdr.BucketMetadata
	keepTombstones bool
	counters       *MergeCounters
	doFsync        bool
	buildIndex     func(path string) (BucketIndex, error)

	filename string
	file     *os.File
	writer   *bufio.Writer
	hasher   hash.Hash
	sink     io.Writer

	buf         *xdr.BucketEntry
	metaWritten bool
	bytesPut    uint64
	objectsPut  uint64
}

// IteratorOption configures a BucketOutputIterator at construction.
type IteratorOption func(*iteratorConfig)

type iteratorConfig struct {
	doFsync    bool
	buildIndex func(path string) (BucketIndex, error)
}

// WithFsync enables calling fsync before the output file is closed.
func WithFsync() IteratorOption {
	return func(c *iteratorConfig) { c.doFsync = true }
}

// WithIndexBuilder supplies the (out-of-scope, externally supplied) routine
// Finalize uses to build an index when asked to index synchronously.
// Without one, Finalize never attaches an index even if asked to.
func WithIndexBuilder(build func(path string) (BucketIndex, error)) IteratorOption {
	return func(c *iteratorConfig) { c.buildIndex = build }
}

// NewBucketOutputIterator opens a uniquely named file under tmpDir and, if
// the configured protocol version permits, writes this cascade's meta
// record as the first entry (§4.5, "Initial action").
func NewBucketOutputIterator[K BucketKind](tmpDir string, keepTombstones bool, meta xdr.BucketMetadata, counters *MergeCounters, opts ...IteratorOption) (*BucketOutputIterator[K], error) {
	cfg := iteratorConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	filename := filepath.Join(tmpDir, fmt.Sprintf("bucket-%s.tmp", uuid.New().String()))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("bucket: create output file: %w", err)
	}

	writer := bufio.NewWriter(file)
	hasher := sha256.New()

	var kind K
	o := &BucketOutputIterator[K]{
		kind:           kind,
		meta:           meta,
		keepTombstones: keepTombstones,
		counters:       counters,
		doFsync:        cfg.doFsync,
		buildIndex:     cfg.buildIndex,
		filename:       filename,
		file:           file,
		writer:         writer,
		hasher:         hasher,
		sink:           io.MultiWriter(writer, hasher),
	}

	if meta.LedgerVersion >= FirstProtocolSupportingMeta {
		if req := kind.RequiresProtocolAtLeast(); req > 0 && meta.LedgerVersion < req {
			file.Close()
			os.Remove(filename)
			return nil, ErrProtocolTooOld
		}

		if err := o.Put(kind.MakeMetaEntry(meta)); err != nil {
			file.Close()
			os.Remove(filename)
			return nil, err
		}
		o.metaWritten = true
	}

	return o, nil
}

// compareEntries orders two bucket entries for the buffering step: a meta
// entry always sorts first and is never compared to another meta entry (at
// most one can ever exist per file), everything else compares by identity.
func compareEntries(a, b xdr.BucketEntry) int {
	switch {
	case a.IsMeta() && b.IsMeta():
		return 0
	case a.IsMeta():
		return -1
	case b.IsMeta():
		return 1
	default:
		return xdr.CompareKeys(a.Identity(), b.Identity())
	}
}

// Put ingests one entry (§4.5, "put"). Out-of-order input, a duplicate
// meta entry and a non-Soroban entry in an archive bucket are programmer
// errors and panic; any other legality violation is a data-shape error
// returned to the caller.
func (o *BucketOutputIterator[K]) Put(e xdr.BucketEntry) error {
	if e.IsMeta() && o.metaWritten {
		panic("bucket: putting a meta entry after the bucket's header has already been written")
	}

	if err := o.kind.CheckLegality(e, o.meta.LedgerVersion); err != nil {
		if err == ErrNotSorobanEntry {
			panic(err)
		}
		return err
	}

	if !o.keepTombstones && o.kind.IsTombstone(e) {
		o.counters.TombstoneElisions++
		return nil
	}

	if o.buf != nil {
		switch cmp := compareEntries(e, *o.buf); {
		case cmp < 0:
			panic("bucket: entries put out of sorted order")
		case cmp > 0:
			if err := o.flush(*o.buf); err != nil {
				return err
			}
			o.counters.ActualWrites++
			o.objectsPut++
			o.buf = nil
		}
	}

	if !o.keepTombstones {
		if rewritten, did := o.kind.rewriteForBottomLevel(e, o.meta.LedgerVersion); did {
			o.counters.LiveToInitRewrites++
			o.counters.BufferUpdates++
			o.buf = &rewritten
			return nil
		}
	}

	o.counters.BufferUpdates++
	buf := e
	o.buf = &buf
	return nil
}

func (o *BucketOutputIterator[K]) flush(e xdr.BucketEntry) error {
	n, err := bucketio.WriteRecord(o.sink, e)
	o.bytesPut += uint64(n)
	return err
}

// Finalize flushes any buffered entry, closes the output stream, and either
// deletes an empty output (P6) or hands the finished file to bucketManager
// for atomic adoption (§4.5, "finalize"). A meta record still in the buffer
// means no other entry was put; it is dropped, not written, so the output
// counts as empty.
func (o *BucketOutputIterator[K]) Finalize(bucketManager Manager, synchronouslyIndex bool, mergeKey MergeKey) (*Bucket, error) {
	if o.buf != nil && !o.buf.IsMeta() {
		if err := o.flush(*o.buf); err != nil {
			return nil, err
		}
		o.objectsPut++
	}
	o.buf = nil

	if err := o.writer.Flush(); err != nil {
		return nil, fmt.Errorf("bucket: flush output file: %w", err)
	}
	if o.doFsync {
		if err := o.file.Sync(); err != nil {
			return nil, fmt.Errorf("bucket: fsync output file: %w", err)
		}
	}
	if err := o.file.Close(); err != nil {
		return nil, fmt.Errorf("bucket: close output file: %w", err)
	}

	if o.objectsPut == 0 {
		if o.bytesPut != 0 {
			panic("bucket: zero objects written but nonzero bytes put")
		}
		if err := os.Remove(o.filename); err != nil {
			return nil, fmt.Errorf("bucket: delete empty output file: %w", err)
		}
		if mergeKey != "" {
			bucketManager.NoteEmptyMergeOutput(mergeKey)
		}
		return EmptyBucket(), nil
	}

	hash := BucketHash(hex.EncodeToString(o.hasher.Sum(nil)))

	var index BucketIndex
	if synchronouslyIndex && o.buildIndex != nil {
		existing, ok := bucketManager.GetIfExists(hash)
		if !ok || !existing.IsIndexed() {
			built, err := o.buildIndex(o.filename)
			if err != nil {
				return nil, fmt.Errorf("bucket: build index: %w", err)
			}
			index = built
		}
	}

	return bucketManager.AdoptFileAsBucket(o.filename, hash, mergeKey, index)
}

// BytesPut and ObjectsPut expose the raw accounting P4 checks.
func (o *BucketOutputIterator[K]) BytesPut() uint64   { return o.bytesPut }
func (o *BucketOutputIterator[K]) ObjectsPut() uint64 { return o.objectsPut }

// LiveBucketOutputIterator and ArchiveBucketOutputIterator name the two
// instantiations this module actually produces, so callers outside this
// package rarely need to spell out the generic form themselves.
type LiveBucketOutputIterator = BucketOutputIterator[LiveBucketKind]
type ArchiveBucketOutputIterator = BucketOutputIterator[ArchiveBucketKind]

// NewLiveBucketOutputIterator opens a merge sink for the live state cascade.
func NewLiveBucketOutputIterator(tmpDir string, keepTombstones bool, meta xdr.BucketMetadata, counters *MergeCounters, opts ...IteratorOption) (*LiveBucketOutputIterator, error) {
	return NewBucketOutputIterator[LiveBucketKind](tmpDir, keepTombstones, meta, counters, opts...)
}

// NewArchiveBucketOutputIterator opens a merge sink for the hot-archive
// cascade.
func NewArchiveBucketOutputIterator(tmpDir string, keepTombstones bool, meta xdr.BucketMetadata, counters *MergeCounters, opts ...IteratorOption) (*ArchiveBucketOutputIterator, error) {
	return NewBucketOutputIterator[ArchiveBucketKind](tmpDir, keepTombstones, meta, counters, opts...)
}
