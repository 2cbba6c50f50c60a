package bucket

import "errors"

// ErrIllegalEntry is returned when an entry fails its cascade's protocol
// legality check at write time (§7, data-shape errors).
var ErrIllegalEntry = errors.New("bucket: entry is not legal for this cascade/protocol version")

// ErrNotSorobanEntry is returned by ArchiveBucketKind.CheckLegality when an
// archive bucket is handed a non-extended-program entry.
// BucketOutputIterator.Put panics with it rather than returning it.
var ErrNotSorobanEntry = errors.New("bucket: archive buckets may only hold extended-program entries")

// ErrProtocolTooOld is returned when an archive bucket's metadata claims a
// protocol version that supports meta records but predates persistent
// eviction support. Versions below FirstProtocolSupportingMeta are not
// checked.
var ErrProtocolTooOld = errors.New("bucket: protocol version does not support this bucket kind")
