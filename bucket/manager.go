package bucket

// BucketHash identifies a bucket file by the hash of its concatenated
// record bytes (§6).
type BucketHash string

// MergeKey identifies the scheduled merge that produced (or failed to
// produce) a bucket. It is opaque to this module — the merge scheduler
// that assigns them is out of scope (§1) — so it is modeled as a plain
// string rather than given structure this module has no use for.
type MergeKey string

// Manager is the external BucketManager contract (§6): atomic
// registration/dedup of freshly merged bucket files, and a way to ask
// whether a given hash is already known. It is consumed opaquely; see
// refmanager for the one concrete, file-backed implementation this module
// ships.
type Manager interface {
	// GetIfExists returns the bucket already registered under hash, if any.
	GetIfExists(hash BucketHash) (*Bucket, bool)
	// AdoptFileAsBucket atomically registers path as the bucket with the
	// given hash, deduping with any existing bucket of the same hash. index
	// may be nil if the caller chose not to build one synchronously.
	AdoptFileAsBucket(path string, hash BucketHash, mergeKey MergeKey, index BucketIndex) (*Bucket, error)
	// NoteEmptyMergeOutput records that the merge identified by mergeKey
	// produced no output (every input entry was elided).
	NoteEmptyMergeOutput(mergeKey MergeKey)
}

// Bucket is an immutable file + index (§3, "Buckets"). A BucketSnapshot
// holds a shared, non-owning reference to one; the bucket's lifetime must
// outlive every snapshot that references it, which in this module's garbage
// collected runtime simply falls out of ordinary reachability.
type Bucket struct {
	path  string
	hash  BucketHash
	index BucketIndex
}

// EmptyBucket is the sentinel returned by Finalize when a merge produced no
// output: it carries no file, and IsEmpty must short-circuit every read.
func EmptyBucket() *Bucket {
	return &Bucket{}
}

// NewBucket wraps a freshly adopted file and its index into a Bucket handle.
func NewBucket(path string, hash BucketHash, index BucketIndex) *Bucket {
	return &Bucket{path: path, hash: hash, index: index}
}

func (b *Bucket) IsEmpty() bool {
	return b == nil || b.path == ""
}

func (b *Bucket) Path() string {
	return b.path
}

func (b *Bucket) Hash() BucketHash {
	return b.hash
}

func (b *Bucket) Index() BucketIndex {
	return b.index
}

// IsIndexed reports whether this bucket already has an index attached.
func (b *Bucket) IsIndexed() bool {
	return b != nil && b.index != nil
}
