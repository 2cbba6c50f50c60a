package refmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellarbase/bucketlist/bucket"
)

func writeTempFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "staged.tmp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAdoptFileAsBucketRegistersAndPersists(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Open(dir)
	require.NoError(t, err)

	path := writeTempFile(t, t.TempDir(), "bucket-bytes")
	b, err := mgr.AdoptFileAsBucket(path, "hash-a", "merge-1", nil)
	require.NoError(t, err)
	require.False(t, b.IsEmpty())
	require.FileExists(t, filepath.Join(dir, "hash-a.bucket"))
	require.NoFileExists(t, path)

	require.NoError(t, mgr.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, ok := reopened.GetIfExists("hash-a")
	require.True(t, ok)
	require.Equal(t, bucket.BucketHash("hash-a"), got.Hash())
}

func TestAdoptFileAsBucketDedupesByHash(t *testing.T) {
	mgr, err := Open(t.TempDir())
	require.NoError(t, err)

	path1 := writeTempFile(t, t.TempDir(), "same-bytes")
	first, err := mgr.AdoptFileAsBucket(path1, "dup", "", nil)
	require.NoError(t, err)

	path2 := writeTempFile(t, t.TempDir(), "same-bytes")
	second, err := mgr.AdoptFileAsBucket(path2, "dup", "", nil)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.NoFileExists(t, path2)
}

func TestNoteEmptyMergeOutput(t *testing.T) {
	mgr, err := Open(t.TempDir())
	require.NoError(t, err)

	require.False(t, mgr.WasEmpty("merge-x"))
	mgr.NoteEmptyMergeOutput("merge-x")
	require.True(t, mgr.WasEmpty("merge-x"))
}

func TestGetIfExistsMissing(t *testing.T) {
	mgr, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := mgr.GetIfExists("missing")
	require.False(t, ok)
}
