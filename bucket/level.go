package bucket

// Level is one tier of the cascade: a pair of buckets, curr and snap,
// searched in that order (§3, "Level cascade").
type Level struct {
	Curr *BucketSnapshot
	Snap *BucketSnapshot
}

// BucketListSnapshot is an immutable vector of levels tagged with the
// ledger sequence it was captured at (§3, §4.3). Once constructed it never
// changes; a SnapshotManager publishes new ones, it never mutates this one.
type BucketListSnapshot struct {
	LedgerSeq uint32
	Levels    []Level
}

// NewBucketListSnapshot builds an immutable snapshot over levels at the
// given ledger sequence.
func NewBucketListSnapshot(ledgerSeq uint32, levels []Level) *BucketListSnapshot {
	cp := make([]Level, len(levels))
	copy(cp, levels)
	return &BucketListSnapshot{LedgerSeq: ledgerSeq, Levels: cp}
}

// ForEachBucket visits every non-empty bucket top-down, curr before snap
// within a level (§4.3). Returning true from visit stops the traversal.
func (bl *BucketListSnapshot) ForEachBucket(visit func(*BucketSnapshot) bool) {
	process := func(b *BucketSnapshot) bool {
		if b == nil || b.IsEmpty() {
			return false
		}
		return visit(b)
	}

	for _, lvl := range bl.Levels {
		if process(lvl.Curr) {
			return
		}
		if process(lvl.Snap) {
			return
		}
	}
}
