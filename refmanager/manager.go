// Package refmanager is the one concrete bucket.Manager this module ships:
// a directory of adopted bucket files plus a manifest recording their
// hashes, generalized from the teacher's sstable.SSManager (which persists a
// manifest of per-level SSTable counts and recovers it, or falls back to
// scanning the data directory, on startup).
package refmanager

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/stellarbase/bucketlist/bucket"
)

const manifestFile = "manifest"

// Manager adopts freshly merged bucket files into dir, deduping by hash.
type Manager struct {
	mu      sync.RWMutex
	dir     string
	buckets map[bucket.BucketHash]*bucket.Bucket
	empty   map[bucket.MergeKey]struct{}
}

// Open recovers dir's manifest if present, or scans dir for *.bucket files
// if not, mirroring the teacher's recover/recoverFromFiles fallback.
func Open(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("refmanager: create %q: %w", dir, err)
	}

	m := &Manager{
		dir:     dir,
		buckets: map[bucket.BucketHash]*bucket.Bucket{},
		empty:   map[bucket.MergeKey]struct{}{},
	}

	recovered, err := m.recover()
	if err != nil {
		return nil, err
	}
	m.buckets = recovered

	return m, nil
}

func (m *Manager) recover() (map[bucket.BucketHash]*bucket.Bucket, error) {
	path := filepath.Join(m.dir, manifestFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m.recoverFromFiles()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refmanager: open manifest: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var count int64
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("refmanager: read manifest: %w", err)
	}

	out := make(map[bucket.BucketHash]*bucket.Bucket, count)
	for i := int64(0); i < count; i++ {
		hash, err := readString(reader)
		if err != nil {
			return nil, fmt.Errorf("refmanager: read manifest entry: %w", err)
		}
		name := hash + ".bucket"
		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Printf("refmanager: bucket %s listed in manifest but missing on disk, skipping", hash)
			continue
		}
		out[bucket.BucketHash(hash)] = bucket.NewBucket(path, bucket.BucketHash(hash), nil)
	}
	return out, nil
}

func (m *Manager) recoverFromFiles() (map[bucket.BucketHash]*bucket.Bucket, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return map[bucket.BucketHash]*bucket.Bucket{}, nil
	}

	out := map[bucket.BucketHash]*bucket.Bucket{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".bucket" {
			continue
		}
		hash := bucket.BucketHash(entry.Name()[:len(entry.Name())-len(".bucket")])
		out[hash] = bucket.NewBucket(filepath.Join(m.dir, entry.Name()), hash, nil)
	}
	return out, nil
}

func (m *Manager) writeManifest() error {
	path := filepath.Join(m.dir, manifestFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("refmanager: create manifest: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := binary.Write(writer, binary.LittleEndian, int64(len(m.buckets))); err != nil {
		return fmt.Errorf("refmanager: write manifest: %w", err)
	}
	for hash := range m.buckets {
		if err := writeString(writer, string(hash)); err != nil {
			return fmt.Errorf("refmanager: write manifest entry: %w", err)
		}
	}
	return writer.Flush()
}

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, int64(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	var n int64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// GetIfExists implements bucket.Manager.
func (m *Manager) GetIfExists(hash bucket.BucketHash) (*bucket.Bucket, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[hash]
	return b, ok
}

// AdoptFileAsBucket implements bucket.Manager: it renames path into this
// manager's directory under its hash, deduping with any bucket already
// registered under that hash (in which case the freshly merged file is
// discarded and the existing bucket returned, same as the teacher compacting
// two SSTables into one surviving file).
func (m *Manager) AdoptFileAsBucket(path string, hash bucket.BucketHash, mergeKey bucket.MergeKey, index bucket.BucketIndex) (*bucket.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.buckets[hash]; ok {
		if err := os.Remove(path); err != nil {
			log.Printf("refmanager: discard duplicate merge output %s: %v", path, err)
		}
		return existing, nil
	}

	dest := filepath.Join(m.dir, string(hash)+".bucket")
	if err := os.Rename(path, dest); err != nil {
		return nil, fmt.Errorf("refmanager: adopt %q: %w", path, err)
	}

	b := bucket.NewBucket(dest, hash, index)
	m.buckets[hash] = b

	if err := m.writeManifest(); err != nil {
		return nil, err
	}

	return b, nil
}

// NoteEmptyMergeOutput implements bucket.Manager.
func (m *Manager) NoteEmptyMergeOutput(mergeKey bucket.MergeKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.empty[mergeKey] = struct{}{}
}

// WasEmpty reports whether mergeKey was last reported via
// NoteEmptyMergeOutput, useful for tests and for a merge scheduler deciding
// whether to skip re-running an unchanged empty merge.
func (m *Manager) WasEmpty(mergeKey bucket.MergeKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.empty[mergeKey]
	return ok
}

// Close flushes the manifest one last time.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeManifest()
}
