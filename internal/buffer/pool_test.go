package buffer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/storage"
)

func newTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.db")
	dm, err := storage.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })
	return NewPool(dm, capacity)
}

func TestPoolFetchIdentity(t *testing.T) {
	pool := newTestPool(t, 4)

	id, buf1, err := pool.NewPage()
	require.NoError(t, err)
	copy(buf1[:], "hello")
	require.NoError(t, pool.Unpin(id, true))

	buf2, err := pool.Fetch(id)
	require.NoError(t, err)
	require.Same(t, buf1, buf2)
	require.NoError(t, pool.Unpin(id, false))
}

func TestPoolNoEvictionOfPinnedFrames(t *testing.T) {
	pool := newTestPool(t, 3)

	for i := 0; i < 3; i++ {
		_, _, err := pool.NewPage()
		require.NoError(t, err)
	}

	_, _, err := pool.NewPage()
	require.ErrorIs(t, err, ErrNoFreeFrame)
}

func TestPoolDirtySurvivesEviction(t *testing.T) {
	pool := newTestPool(t, 1)

	id0, buf0, err := pool.NewPage()
	require.NoError(t, err)
	copy(buf0[:], "hello")
	require.NoError(t, pool.Unpin(id0, true))

	// Forces eviction of page 0 since capacity is 1.
	id1, _, err := pool.NewPage()
	require.NoError(t, err)
	require.NoError(t, pool.Unpin(id1, false))

	buf, err := pool.Fetch(id0)
	require.NoError(t, err)
	require.Equal(t, byte('h'), buf[0])
	require.Equal(t, byte('o'), buf[4])
	require.NoError(t, pool.Unpin(id0, false))
}

func TestPoolUnpinRequiresResidentAndPinned(t *testing.T) {
	pool := newTestPool(t, 2)
	require.ErrorIs(t, pool.Unpin(storage.PageID(99), false), ErrPageNotResident)

	id, _, err := pool.NewPage()
	require.NoError(t, err)
	require.NoError(t, pool.Unpin(id, false))
	require.ErrorIs(t, pool.Unpin(id, false), ErrNotPinned)
}

func TestPoolFlushAllClearsDirty(t *testing.T) {
	pool := newTestPool(t, 2)

	id, buf, err := pool.NewPage()
	require.NoError(t, err)
	copy(buf[:], "dirty")
	require.NoError(t, pool.Unpin(id, true))

	require.NoError(t, pool.FlushAll())

	idx := pool.pageTbl[id]
	require.False(t, pool.frames[idx].Dirty)
}

func TestPoolGuardedFetchAndRelease(t *testing.T) {
	pool := newTestPool(t, 2)

	g, err := pool.NewPageGuarded()
	require.NoError(t, err)
	copy(g.Bytes()[:], "guarded")
	g.MarkDirty()
	require.NoError(t, g.Release())

	idx := pool.pageTbl[g.PageID()]
	require.Equal(t, 0, pool.frames[idx].Pin)
	require.True(t, pool.frames[idx].Dirty)

	require.Panics(t, func() { _ = g.Release() })
}

func TestPoolScenarioS7BufferPoolEviction(t *testing.T) {
	pool := newTestPool(t, 1)

	g0, err := pool.FetchGuarded(mustNewRawPage(t, pool))
	require.NoError(t, err)
	copy(g0.Bytes()[:], "hello")
	g0.MarkDirty()
	require.NoError(t, g0.Release())

	// Fetch page 1, forcing eviction of page 0.
	g1, err := pool.FetchGuarded(mustNewRawPage(t, pool))
	require.NoError(t, err)
	require.NoError(t, g1.Release())

	g0b, err := pool.FetchGuarded(g0.PageID())
	require.NoError(t, err)
	require.Equal(t, "hello", string(g0b.Bytes()[:5]))
	require.NoError(t, g0b.Release())
}

// mustNewRawPage allocates and immediately releases a page, returning its
// id, so scenario tests can Fetch it fresh by id afterwards.
func mustNewRawPage(t *testing.T, pool *Pool) storage.PageID {
	t.Helper()
	id, _, err := pool.NewPage()
	require.NoError(t, err)
	require.NoError(t, pool.Unpin(id, false))
	return id
}
