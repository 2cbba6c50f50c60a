package bucket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForEachBucketSkipsEmptyBuckets(t *testing.T) {
	populated := NewBucketSnapshot(NewBucket("/tmp/x", "h", nil))
	empty := NewBucketSnapshot(EmptyBucket())

	snap := NewBucketListSnapshot(5, []Level{
		{Curr: empty, Snap: empty},
		{Curr: populated, Snap: empty},
	})

	var visited []*BucketSnapshot
	snap.ForEachBucket(func(b *BucketSnapshot) bool {
		visited = append(visited, b)
		return false
	})
	require.Len(t, visited, 1)
	require.Equal(t, populated, visited[0])
}

func TestForEachBucketStopsWhenVisitReturnsTrue(t *testing.T) {
	a := NewBucketSnapshot(NewBucket("/tmp/a", "a", nil))
	b := NewBucketSnapshot(NewBucket("/tmp/b", "b", nil))

	snap := NewBucketListSnapshot(1, []Level{
		{Curr: a, Snap: NewBucketSnapshot(EmptyBucket())},
		{Curr: b, Snap: NewBucketSnapshot(EmptyBucket())},
	})

	var visited int
	snap.ForEachBucket(func(*BucketSnapshot) bool {
		visited++
		return true
	})
	require.Equal(t, 1, visited)
}

func TestNewBucketListSnapshotCopiesLevels(t *testing.T) {
	levels := []Level{{Curr: NewBucketSnapshot(EmptyBucket())}}
	snap := NewBucketListSnapshot(1, levels)

	levels[0] = Level{}
	require.NotNil(t, snap.Levels[0].Curr)
}
