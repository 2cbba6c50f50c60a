// Package stage holds the ledger changes accumulated since the last merge
// into the bottom cascade level, durably, so a crash between a ledger close
// and the bucket merge that would absorb it loses nothing. It is adapted
// from the teacher module's memtable package: same append-only-log-plus-
// recovery shape as memtable.Memtable/Wal, generalized from a single
// key/value WAL entry to a full xdr.BucketEntry, and correctly
// length-prefixed (memtable.Wal's fixed 256-byte key field silently
// truncates any key longer than that and misreads shorter ones, a bug this
// rewrite does not carry forward) by reusing the bucketio record codec
// instead of inventing a second one.
package stage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stellarbase/bucketlist/bucketio"
	"github.com/stellarbase/bucketlist/xdr"
)

// ErrCannotStagePending is returned for a meta entry, which belongs to a
// cascade's bucket file and never to the pending-change set.
var ErrCannotStagePending = errors.New("stage: meta entries cannot be staged")

const walFilename = "pending.wal"

// PendingChanges is an upsert-by-identity staging buffer: the latest change
// for a given key wins, matching the teacher's memtable.Set overwrite
// semantics, and every accepted change is durable in the WAL before Put
// returns.
type PendingChanges struct {
	mu      sync.Mutex
	wal     *os.File
	changes map[string]xdr.BucketEntry
}

// Open recovers dir's WAL, if any, and opens it for further appends.
func Open(dir string) (*PendingChanges, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	p := &PendingChanges{changes: map[string]xdr.BucketEntry{}}
	path := filepath.Join(dir, walFilename)

	if err := p.recover(path); err != nil {
		return nil, err
	}

	wal, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	p.wal = wal
	return p, nil
}

func (p *PendingChanges) recover(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	for {
		entry, err := bucketio.ReadRecord(file)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if entry.IsMeta() {
			continue
		}
		p.changes[string(xdr.IdentityBytes(entry.Identity()))] = entry
	}
}

// Put stages e, durably. A later Put for the same identity overwrites an
// earlier one; the WAL still carries both records until the next Drain, but
// recovery always keeps only the last write per identity.
func (p *PendingChanges) Put(e xdr.BucketEntry) error {
	if e.IsMeta() {
		return ErrCannotStagePending
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := bucketio.WriteRecord(p.wal, e); err != nil {
		return err
	}
	p.changes[string(xdr.IdentityBytes(e.Identity()))] = e
	return nil
}

// Len reports the number of distinct staged identities.
func (p *PendingChanges) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.changes)
}

// Drain returns every staged change sorted by identity — the order
// bucket.BucketOutputIterator.Put requires — and resets the WAL, since the
// caller is expected to feed the result into a merge whose output bucket is
// now the durable copy of these changes.
func (p *PendingChanges) Drain() ([]xdr.BucketEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]xdr.BucketEntry, 0, len(p.changes))
	for _, e := range p.changes {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return xdr.CompareKeys(out[i].Identity(), out[j].Identity()) < 0
	})

	if err := p.wal.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := p.wal.Seek(0, 0); err != nil {
		return nil, err
	}
	p.changes = map[string]xdr.BucketEntry{}

	return out, nil
}

// Close releases the WAL file handle.
func (p *PendingChanges) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wal.Close()
}
