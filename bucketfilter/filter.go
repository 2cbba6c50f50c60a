// Package bucketfilter implements the bloom filter behind a BucketIndex's
// Lookup. It is adapted from the teacher module's sstable/filter package:
// same murmur3-seeded k-hash-function construction, generalized to take a
// LedgerKey's identity bytes instead of a raw string. Unlike the teacher's
// filter, which only needs to round-trip through its own SSTable footer,
// Encode/Decode here carry enough of the filter's shape (bit and hash-function
// counts) that a decoded filter is immediately usable for MaybeContains, not
// just byte-level inspection.
package bucketfilter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"math"

	"github.com/spaolacci/murmur3"
)

// Filter is a standard counting-free bloom filter: m bits, k independent
// murmur3 hashes seeded 0..k-1.
type Filter struct {
	bitset  []bool
	hashFns []hash.Hash32
}

// New sizes a filter for n expected entries at false-positive rate p.
// Returns nil if the parameters don't describe a usable filter (n <= 0, or
// p outside (0,1)), matching the teacher's defensive construction.
func New(n int, p float64) *Filter {
	if n <= 0 || p <= 0 || p >= 1 {
		return nil
	}

	m := int(math.Ceil(-float64(n) * math.Log(p) / math.Pow(math.Log(2), 2)))
	k := int(math.Round((float64(m) / float64(n)) * math.Log(2)))

	if m == 0 || k == 0 {
		return nil
	}

	hashFns := make([]hash.Hash32, k)
	for i := 0; i < k; i++ {
		hashFns[i] = murmur3.New32WithSeed(uint32(i))
	}

	return &Filter{
		bitset:  make([]bool, m),
		hashFns: hashFns,
	}
}

// Add records idBytes (the encoded identity of a key) as present.
func (f *Filter) Add(idBytes []byte) {
	for _, fn := range f.hashFns {
		_, _ = fn.Write(idBytes)
		index := int(fn.Sum32()) % len(f.bitset)
		f.bitset[index] = true
		fn.Reset()
	}
}

// MaybeContains reports whether idBytes might be present. false means
// definitely absent; true may be a false positive.
func (f *Filter) MaybeContains(idBytes []byte) bool {
	for _, fn := range f.hashFns {
		_, _ = fn.Write(idBytes)
		index := int(fn.Sum32()) % len(f.bitset)
		fn.Reset()
		if !f.bitset[index] {
			return false
		}
	}
	return true
}

// Encode serializes the filter to a byte slice: a header recording the bit
// count and hash-function count, followed by the packed bitset. The header
// is what lets Decode hand back a filter that can actually answer
// MaybeContains, rather than a bare bitset a caller has no way to query.
func (f *Filter) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(f.bitset))); err != nil {
		return nil, fmt.Errorf("bucketfilter: encode bit count: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(f.hashFns))); err != nil {
		return nil, fmt.Errorf("bucketfilter: encode hash count: %w", err)
	}

	packed := make([]byte, (len(f.bitset)+7)/8)
	for i, b := range f.bitset {
		if b {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	buf.Write(packed)
	return buf.Bytes(), nil
}

// Decode reconstructs a Filter from bytes produced by Encode, including its
// hash functions, so the result is a fully usable filter rather than one
// restricted to byte-level inspection.
func Decode(data []byte) (*Filter, error) {
	r := bytes.NewReader(data)

	var m, k uint32
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return nil, fmt.Errorf("bucketfilter: decode bit count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
		return nil, fmt.Errorf("bucketfilter: decode hash count: %w", err)
	}

	packed := make([]byte, (m+7)/8)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, fmt.Errorf("bucketfilter: decode bitset: %w", err)
	}

	bitset := make([]bool, m)
	for i := range bitset {
		if packed[i/8]&(1<<(i%8)) != 0 {
			bitset[i] = true
		}
	}

	hashFns := make([]hash.Hash32, k)
	for i := range hashFns {
		hashFns[i] = murmur3.New32WithSeed(uint32(i))
	}

	return &Filter{bitset: bitset, hashFns: hashFns}, nil
}
