package xdr

// BucketEntryType discriminates the entries a bucket file can hold, across
// both the live cascade (Live/Init/Dead/Meta) and the archive cascade
// (ArchiveLive/ArchiveArchived/ArchiveMeta). A single bucket only ever
// carries entries from one cascade; see bucket.BucketKind for the
// per-cascade legality and tombstone rules.
type BucketEntryType int

const (
	LiveEntryType BucketEntryType = iota
	InitEntryType
	DeadEntryType
	MetaEntryType
	ArchiveLiveType
	ArchiveArchivedType
	ArchiveMetaType
)

func (t BucketEntryType) String() string {
	switch t {
	case LiveEntryType:
		return "LIVEENTRY"
	case InitEntryType:
		return "INITENTRY"
	case DeadEntryType:
		return "DEADENTRY"
	case MetaEntryType:
		return "METAENTRY"
	case ArchiveLiveType:
		return "HOT_ARCHIVE_LIVE"
	case ArchiveArchivedType:
		return "HOT_ARCHIVE_ARCHIVED"
	case ArchiveMetaType:
		return "HOT_ARCHIVE_METAENTRY"
	default:
		return "UNKNOWN"
	}
}

// BucketMetadata is the single optional header record of a bucket file.
type BucketMetadata struct {
	LedgerVersion uint32
}

// BucketEntry is one record of a bucket file. Exactly one of Entry/Key/Meta
// is populated, selected by Type:
//   - LiveEntryType, InitEntryType, ArchiveArchivedType -> Entry
//   - DeadEntryType, ArchiveLiveType                    -> Key
//   - MetaEntryType, ArchiveMetaType                    -> Meta
type BucketEntry struct {
	Type  BucketEntryType
	Entry LedgerEntry
	Key   LedgerKey
	Meta  BucketMetadata
}

func NewLiveEntry(e LedgerEntry) BucketEntry {
	return BucketEntry{Type: LiveEntryType, Entry: e}
}

func NewInitEntry(e LedgerEntry) BucketEntry {
	return BucketEntry{Type: InitEntryType, Entry: e}
}

func NewDeadEntry(k LedgerKey) BucketEntry {
	return BucketEntry{Type: DeadEntryType, Key: k}
}

func NewMetaEntry(m BucketMetadata) BucketEntry {
	return BucketEntry{Type: MetaEntryType, Meta: m}
}

func NewArchiveLiveEntry(k LedgerKey) BucketEntry {
	return BucketEntry{Type: ArchiveLiveType, Key: k}
}

func NewArchiveArchivedEntry(e LedgerEntry) BucketEntry {
	return BucketEntry{Type: ArchiveArchivedType, Entry: e}
}

func NewArchiveMetaEntry(m BucketMetadata) BucketEntry {
	return BucketEntry{Type: ArchiveMetaType, Meta: m}
}

// IsMeta reports whether e is either kind of meta entry.
func (e BucketEntry) IsMeta() bool {
	return e.Type == MetaEntryType || e.Type == ArchiveMetaType
}

// Identity returns the LedgerKey this record shadows/represents. Meta
// entries have no identity and must never be compared; callers must check
// IsMeta first.
func (e BucketEntry) Identity() LedgerKey {
	switch e.Type {
	case LiveEntryType, InitEntryType, ArchiveArchivedType:
		return e.Entry.Key()
	case DeadEntryType, ArchiveLiveType:
		return e.Key
	default:
		panic("bucketentry: Identity called on a meta entry")
	}
}

// LiveEntry returns the LedgerEntry payload of a Live/Init/ArchiveArchived
// record. It panics for tombstone and meta records; callers must check
// Type first, matching the original's liveEntry() accessor which asserts
// on the active union arm.
func (e BucketEntry) LiveEntry() LedgerEntry {
	switch e.Type {
	case LiveEntryType, InitEntryType, ArchiveArchivedType:
		return e.Entry
	default:
		panic("bucketentry: LiveEntry called on a " + e.Type.String() + " record")
	}
}
