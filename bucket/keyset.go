package bucket

import (
	"math/rand"
	"time"

	"github.com/stellarbase/bucketlist/xdr"
)

// SortedKeySet is the "sorted mutable key set" DESIGN NOTES calls for: the
// bulk-load algorithm walks it in order while erasing satisfied keys, and
// needs that erase to be cheap without re-sorting. It is adapted from the
// teacher module's memtable/skiplist.go: same leveled-list construction and
// search, generalized from key->value entries to a plain key membership set
// and extended with Remove (the teacher's skiplist never deletes).
type SortedKeySet struct {
	maxLevel int
	p        float64
	level    int
	rand     *rand.Rand
	size     int
	head     *keySetElement
}

type keySetElement struct {
	key  xdr.LedgerKey
	next []*keySetElement
}

const keySetMaxLevel = 18
const keySetP = 0.5

// NewSortedKeySet builds a set containing in, deduplicated.
func NewSortedKeySet(in []xdr.LedgerKey) *SortedKeySet {
	s := &SortedKeySet{
		maxLevel: keySetMaxLevel,
		p:        keySetP,
		level:    1,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		head:     &keySetElement{next: make([]*keySetElement, keySetMaxLevel)},
	}
	for _, k := range in {
		s.Insert(k)
	}
	return s
}

// Len reports the number of keys still pending.
func (s *SortedKeySet) Len() int {
	return s.size
}

// Empty reports whether every key has been resolved (removed).
func (s *SortedKeySet) Empty() bool {
	return s.size == 0
}

// Insert adds key if not already present.
func (s *SortedKeySet) Insert(key xdr.LedgerKey) {
	curr := s.head
	update := make([]*keySetElement, s.maxLevel)

	for i := s.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && xdr.CompareKeys(curr.next[i].key, key) < 0 {
			curr = curr.next[i]
		}
		update[i] = curr
	}

	if curr.next[0] != nil && xdr.CompareKeys(curr.next[0].key, key) == 0 {
		return
	}

	level := s.randomLevel()
	if level > s.level {
		for i := s.level; i < level; i++ {
			update[i] = s.head
		}
		s.level = level
	}

	e := &keySetElement{key: key, next: make([]*keySetElement, level)}
	for i := 0; i < level; i++ {
		e.next[i] = update[i].next[i]
		update[i].next[i] = e
	}
	s.size++
}

// Remove erases key from the set. A no-op if key is not present (already
// resolved at a shallower level, or never in the set).
func (s *SortedKeySet) Remove(key xdr.LedgerKey) {
	curr := s.head
	update := make([]*keySetElement, s.maxLevel)

	for i := s.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && xdr.CompareKeys(curr.next[i].key, key) < 0 {
			curr = curr.next[i]
		}
		update[i] = curr
	}

	target := curr.next[0]
	if target == nil || xdr.CompareKeys(target.key, key) != 0 {
		return
	}

	for i := 0; i < s.level; i++ {
		if update[i].next[i] != target {
			continue
		}
		update[i].next[i] = target.next[i]
	}

	for s.level > 1 && s.head.next[s.level-1] == nil {
		s.level--
	}
	s.size--
}

// Pending returns every key still in the set, in ascending order. Bucket
// traversal takes one such snapshot per bucket and co-walks it against that
// bucket's index; keys resolved mid-walk are Remove()d from the set so the
// next bucket's Pending() reflects them.
func (s *SortedKeySet) Pending() []xdr.LedgerKey {
	out := make([]xdr.LedgerKey, 0, s.size)
	for e := s.head.next[0]; e != nil; e = e.next[0] {
		out = append(out, e.key)
	}
	return out
}

func (s *SortedKeySet) randomLevel() int {
	level := 1
	for s.rand.Float64() < s.p && level < s.maxLevel {
		level++
	}
	return level
}
