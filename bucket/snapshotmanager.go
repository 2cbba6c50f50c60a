package bucket

// Timer is the handle a timing hook returns; callers defer Stop to record
// the elapsed duration. Kept minimal and metrics-library-agnostic here —
// refsnapshotmgr's implementation backs it with a Prometheus histogram.
type Timer interface {
	Stop()
}

type noopTimer struct{}

func (noopTimer) Stop() {}

// NoopTimer is a Timer that records nothing, useful for tests and for
// SnapshotManager implementations that don't care about a particular hook.
func NoopTimer() Timer { return noopTimer{} }

// SnapshotManager is the external contract (C7, §6) that supplies the
// current immutable BucketListSnapshot and the two timing hooks reads are
// instrumented with. It is consumed opaquely: refreshing, publishing a new
// snapshot, and recording metrics are all external collaborators' concern.
// See refsnapshotmgr for the one concrete implementation this module ships.
type SnapshotManager interface {
	// Refresh may replace *held with a newer snapshot. Safe to call from
	// any goroutine.
	Refresh(held **BucketListSnapshot)
	// PointLoadTimer starts a timer for a single-key lookup of the given
	// ledger key type.
	PointLoadTimer(keyType string) Timer
	// BulkLoadTimer starts a timer for a bulk load of count keys tagged
	// with label.
	BulkLoadTimer(label string, count int) Timer
}

// MainThreadToken is proof that the caller is the designated main
// goroutine. LoadInflationWinners and LoadPoolShareTrustlines require one;
// GetEntry takes no token and records its point-load timing on whichever
// goroutine calls it, so point-load timing is not restricted. The host
// process constructs exactly one token at startup on the goroutine it
// designates as main and threads it through to those call sites. Unlike the
// original's threadIsMain() thread-local check, Go has no stable way to
// introspect "am I the goroutine that was running main()", so this module
// makes the assertion an explicit capability instead of an implicit runtime
// fact.
type MainThreadToken struct {
	valid bool
}

// NewMainThreadToken must be called exactly once, by the goroutine the host
// process designates as main.
func NewMainThreadToken() MainThreadToken {
	return MainThreadToken{valid: true}
}

func (t MainThreadToken) assert() {
	if !t.valid {
		panic("bucket: operation requires the main-thread token")
	}
}
