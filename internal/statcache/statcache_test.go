package statcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTripsThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")

	c, err := Open(path)
	require.NoError(t, err)
	c.Put("a.txt", Entry{Size: 10, ModifiedUnix: 1700000000, Dev: 1, Ino: 2})
	require.NoError(t, c.Flush())

	reopened, err := Open(path)
	require.NoError(t, err)
	e, ok := reopened.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, Entry{Size: 10, ModifiedUnix: 1700000000, Dev: 1, Ino: 2}, e)
}

func TestCacheMissingFileOpensEmpty(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "missing.bin"))
	require.NoError(t, err)
	_, ok := c.Get("anything")
	assert.False(t, ok)
}

func TestCacheEmptyPathIsMemoryOnly(t *testing.T) {
	c, err := Open("")
	require.NoError(t, err)
	c.Put("a.txt", Entry{Size: 1})
	require.NoError(t, c.Flush())
	e, ok := c.Get("a.txt")
	require.True(t, ok)
	assert.EqualValues(t, 1, e.Size)
}

func TestEntryMatches(t *testing.T) {
	e := Entry{Dev: 1, Ino: 2, ModifiedUnix: 100}
	assert.True(t, e.Matches(1, 2, 100))
	assert.False(t, e.Matches(1, 2, 101))
	assert.False(t, e.Matches(9, 2, 100))
}
