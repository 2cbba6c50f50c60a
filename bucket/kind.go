package bucket

import "github.com/stellarbase/bucketlist/xdr"

// Protocol version thresholds gating the behaviors §4.5 describes. Named
// after the original system's constants so the mapping to BucketOutputIterator's
// branches stays legible.
const (
	FirstProtocolSupportingMeta                    uint32 = 11
	FirstProtocolConvertingBottomLevelLiveToInit    uint32 = 12
	FirstProtocolSupportingPersistentEviction       uint32 = 21
)

// IsSorobanKey/IsSorobanEntry classify whether a key or entry belongs to the
// "extended-program" (Soroban) category archive buckets are restricted to.
// This module's supplemented data model (§3.1) only carries one entry kind
// that counts: OtherEntry tagged "contract_data" or "contract_code". Account,
// trustline and liquidity pool entries are never Soroban entries.
func IsSorobanKey(k xdr.LedgerKey) bool {
	return k.Type == xdr.LedgerKeyOther && (k.Other.Kind == "contract_data" || k.Other.Kind == "contract_code")
}

func IsSorobanEntry(e xdr.LedgerEntry) bool {
	return e.Type == xdr.LedgerEntryOther && (e.Other.Kind == "contract_data" || e.Other.Kind == "contract_code")
}

// BucketKind captures what differs between the live cascade and the archive
// cascade: tombstone identification, per-protocol legality, and how to build
// that cascade's meta record. BucketOutputIterator is generic over this
// capability (DESIGN NOTES §9) rather than branching on a cascade enum at
// every call site.
type BucketKind interface {
	// IsTombstone reports whether e masks a key at deeper levels rather
	// than carrying a live value.
	IsTombstone(e xdr.BucketEntry) bool
	// CheckLegality rejects entries that cannot legally appear in this
	// cascade at the given protocol version.
	CheckLegality(e xdr.BucketEntry, protocolVersion uint32) error
	// MakeMetaEntry builds this cascade's meta record from meta.
	MakeMetaEntry(meta xdr.BucketMetadata) xdr.BucketEntry
	// RequiresProtocolAtLeast returns the minimum protocol version a
	// bucket of this kind may be written under, or 0 if there is none.
	// It is enforced only when the version is at least
	// FirstProtocolSupportingMeta, i.e. when a meta record is written.
	RequiresProtocolAtLeast() uint32
	// rewriteForBottomLevel rewrites e for placement at the bottom level of
	// the cascade, returning the rewritten entry and true if a rewrite
	// happened. The live cascade turns a surviving Live entry into an Init
	// entry once protocolVersion permits it; the archive cascade never
	// rewrites.
	rewriteForBottomLevel(e xdr.BucketEntry, protocolVersion uint32) (xdr.BucketEntry, bool)
}

// LiveBucketKind is the BucketKind of the live state cascade: DeadEntry is
// the tombstone, every live-cascade entry type is legal at every protocol
// version (entry/protocol combinations introduced over time are not
// modeled), and the archive entry types are rejected with ErrIllegalEntry.
type LiveBucketKind struct{}

func (LiveBucketKind) IsTombstone(e xdr.BucketEntry) bool {
	return e.Type == xdr.DeadEntryType
}

func (LiveBucketKind) CheckLegality(e xdr.BucketEntry, protocolVersion uint32) error {
	if e.Type == xdr.ArchiveLiveType || e.Type == xdr.ArchiveArchivedType || e.Type == xdr.ArchiveMetaType {
		return ErrIllegalEntry
	}
	return nil
}

func (LiveBucketKind) MakeMetaEntry(meta xdr.BucketMetadata) xdr.BucketEntry {
	return xdr.NewMetaEntry(meta)
}

func (LiveBucketKind) RequiresProtocolAtLeast() uint32 {
	return 0
}

func (LiveBucketKind) rewriteForBottomLevel(e xdr.BucketEntry, protocolVersion uint32) (xdr.BucketEntry, bool) {
	if e.Type == xdr.LiveEntryType && protocolVersion >= FirstProtocolConvertingBottomLevelLiveToInit {
		return xdr.NewInitEntry(e.Entry), true
	}
	return e, false
}

// ArchiveBucketKind is the BucketKind of the hot-archive cascade: ArchiveLive
// is the tombstone, and every entry/key must classify as Soroban.
type ArchiveBucketKind struct{}

func (ArchiveBucketKind) IsTombstone(e xdr.BucketEntry) bool {
	return e.Type == xdr.ArchiveLiveType
}

func (ArchiveBucketKind) CheckLegality(e xdr.BucketEntry, protocolVersion uint32) error {
	switch e.Type {
	case xdr.ArchiveArchivedType:
		if !IsSorobanEntry(e.Entry) {
			return ErrNotSorobanEntry
		}
	case xdr.ArchiveLiveType:
		if !IsSorobanKey(e.Key) {
			return ErrNotSorobanEntry
		}
	case xdr.ArchiveMetaType:
		// always legal as the header record
	default:
		return ErrIllegalEntry
	}
	return nil
}

func (ArchiveBucketKind) MakeMetaEntry(meta xdr.BucketMetadata) xdr.BucketEntry {
	return xdr.NewArchiveMetaEntry(meta)
}

func (ArchiveBucketKind) RequiresProtocolAtLeast() uint32 {
	return FirstProtocolSupportingPersistentEviction
}

func (ArchiveBucketKind) rewriteForBottomLevel(e xdr.BucketEntry, protocolVersion uint32) (xdr.BucketEntry, bool) {
	return e, false
}
